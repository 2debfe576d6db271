package harness

import (
	"context"
	"fmt"
	"slices"

	"github.com/roach88/jetdag/internal/engine"
	"github.com/roach88/jetdag/internal/ir"
	"github.com/roach88/jetdag/internal/store"
)

// Request is one question asked of a compiled graph.
type Request struct {
	Kind   store.RunKind
	Point  map[string]float64 // by variable name; every variable is required
	Params map[string]float64 // overrides of the graph defaults
	Time   float64
	Degree int
	Order  int
	Mask   [][]int
}

// Outcome is what Evaluate produced. Exactly one of Values, Jet and Series
// is set, matching the request kind.
type Outcome struct {
	Function     *engine.Function
	Values       []float64
	Jet          *engine.Jet
	Series       *engine.Series
	Coefficients []store.Coefficient
}

// Evaluate answers req against g with a fresh Function.
func Evaluate(g *ir.Graph, req Request, opts ...engine.EngineOption) (*Outcome, error) {
	f, err := engine.NewFunction(g, req.Degree, req.Order, opts...)
	if err != nil {
		return nil, err
	}
	for _, name := range sortedKeys(req.Params) {
		if err := f.SetParam(name, req.Params[name]); err != nil {
			return nil, err
		}
	}

	x, err := point(f.VarNames(), req.Point)
	if err != nil {
		return nil, err
	}
	if len(req.Mask) > 0 {
		if err := f.SetMask(req.Mask); err != nil {
			return nil, err
		}
	}

	out := &Outcome{Function: f}
	switch req.Kind {
	case store.KindValue:
		if err := f.SetTime(req.Time); err != nil {
			return nil, err
		}
		if out.Values, err = f.Value(x); err != nil {
			return nil, err
		}
		out.Coefficients = store.ValueCoefficients(f.OutputNames(), out.Values, f.Dim())
	case store.KindJet:
		if err := f.SetTime(req.Time); err != nil {
			return nil, err
		}
		if out.Jet, err = f.Jet(x); err != nil {
			return nil, err
		}
		out.Coefficients = store.JetCoefficients(out.Jet)
	case store.KindSeries:
		if err := f.SetVars(x); err != nil {
			return nil, err
		}
		if out.Series, err = f.TimeSeries(req.Time); err != nil {
			return nil, err
		}
		out.Coefficients = store.SeriesCoefficients(out.Series, f.Dim())
	case store.KindODE:
		if out.Jet, err = f.ODECoefficients(x, req.Time); err != nil {
			return nil, err
		}
		out.Coefficients = store.JetCoefficients(out.Jet)
	default:
		return nil, inputError("unknown request kind %q", req.Kind)
	}
	return out, nil
}

// point orders named coordinates by the graph's variables.
func point(vars []string, at map[string]float64) ([]float64, error) {
	x := make([]float64, len(vars))
	for i, name := range vars {
		v, ok := at[name]
		if !ok {
			return nil, inputError("missing coordinate for variable %q", name)
		}
		x[i] = v
	}
	for _, name := range sortedKeys(at) {
		if !slices.Contains(vars, name) {
			return nil, inputError("unknown variable %q", name)
		}
	}
	return x, nil
}

func inputError(format string, args ...any) error {
	return &engine.RuntimeError{Code: engine.ErrCodeInvalidInput, Message: fmt.Sprintf(format, args...), Node: -1}
}

// RequestOf recovers the request a stored run answered.
func RequestOf(r store.Run) Request {
	return Request{
		Kind:   r.Kind,
		Point:  r.Point,
		Params: r.Params,
		Time:   r.Time,
		Degree: r.Degree,
		Order:  r.Order,
		Mask:   r.Mask,
	}
}

// NewRun describes req as a run of graph graphID, without coefficients.
func NewRun(id, graphID string, seq int64, req Request) store.Run {
	return store.Run{
		ID:            id,
		GraphID:       graphID,
		Kind:          req.Kind,
		Degree:        req.Degree,
		Order:         req.Order,
		Point:         req.Point,
		Params:        req.Params,
		Time:          req.Time,
		Mask:          req.Mask,
		Seq:           seq,
		EngineVersion: ir.EngineVersion,
		IRVersion:     ir.IRVersion,
	}
}

// Recompute adapts Evaluate for Store.ReplayRun.
func Recompute(opts ...engine.EngineOption) store.Recompute {
	return func(_ context.Context, g *ir.Graph, r store.Run) ([]store.Coefficient, error) {
		out, err := Evaluate(g, RequestOf(r), opts...)
		if err != nil {
			return nil, err
		}
		return out.Coefficients, nil
	}
}

// sortedKeys returns the keys of m in ascending order (nil when m is empty).
func sortedKeys[V any](m map[string]V) []string {
	var keys []string
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
