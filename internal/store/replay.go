package store

import (
	"context"
	"fmt"
	"math"

	"github.com/roach88/jetdag/internal/ir"
)

// GetLastSeq returns the highest seq number used in the store.
// Used to resume the logical clock from the correct position.
func (s *Store) GetLastSeq(ctx context.Context) (int64, error) {
	var maxSeq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM runs
	`).Scan(&maxSeq)
	if err != nil {
		return 0, fmt.Errorf("get last seq: %w", err)
	}
	return maxSeq, nil
}

// Recompute evaluates a stored request again. It receives the decoded graph
// and the run without its coefficients.
type Recompute func(ctx context.Context, g *ir.Graph, r Run) ([]Coefficient, error)

// Mismatch is one coefficient whose replayed value differs from the stored
// one.
type Mismatch struct {
	Component string
	Exponents []int
	Coeff     int
	Stored    float64
	Replayed  float64
}

// ReplayResult reports how a replayed run compared with its stored
// coefficients.
type ReplayResult struct {
	RunID      string
	Compared   int
	Missing    int // stored rows the replay did not produce
	Extra      int // replayed rows with no stored counterpart
	Mismatches []Mismatch
}

// Deterministic reports whether the replay reproduced every stored
// coefficient bit for bit.
func (r ReplayResult) Deterministic() bool {
	return r.Missing == 0 && r.Extra == 0 && len(r.Mismatches) == 0
}

// ReplayRun recomputes a stored run and compares the result with the stored
// coefficients. Values must match bit for bit; NaNs match each other.
func (s *Store) ReplayRun(ctx context.Context, id string, recompute Recompute) (ReplayResult, error) {
	res := ReplayResult{RunID: id}

	stored, err := s.ReadRun(ctx, id)
	if err != nil {
		return res, fmt.Errorf("replay: %w", err)
	}
	g, err := s.ReadGraph(ctx, stored.GraphID)
	if err != nil {
		return res, fmt.Errorf("replay: %w", err)
	}

	request := stored
	request.Coefficients = nil
	replayed, err := recompute(ctx, g, request)
	if err != nil {
		return res, fmt.Errorf("replay run %s: %w", id, err)
	}

	type key struct{ pos, mi, k int }
	want := make(map[key]Coefficient, len(stored.Coefficients))
	for _, c := range stored.Coefficients {
		want[key{c.Position, c.MI, c.Coeff}] = c
	}
	for _, c := range replayed {
		k := key{c.Position, c.MI, c.Coeff}
		w, ok := want[k]
		if !ok {
			res.Extra++
			continue
		}
		delete(want, k)
		res.Compared++
		if !sameBits(w.Value, c.Value) {
			res.Mismatches = append(res.Mismatches, Mismatch{
				Component: w.Component,
				Exponents: w.Exponents,
				Coeff:     w.Coeff,
				Stored:    w.Value,
				Replayed:  c.Value,
			})
		}
	}
	res.Missing = len(want)
	return res, nil
}

func sameBits(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return math.Float64bits(a) == math.Float64bits(b)
}
