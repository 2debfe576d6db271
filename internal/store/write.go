package store

import (
	"context"
	"fmt"

	"github.com/roach88/jetdag/internal/ir"
)

// WriteGraph stores a compiled graph under its content address and returns
// that address.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - writing the same graph
// twice is a no-op.
func (s *Store) WriteGraph(ctx context.Context, g *ir.Graph) (string, error) {
	id, err := ir.GraphID(g)
	if err != nil {
		return "", fmt.Errorf("write graph: %w", err)
	}
	data, err := ir.MarshalGraph(g)
	if err != nil {
		return "", fmt.Errorf("write graph: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO graphs
		(id, name, ir, ir_version, node_count)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		id,
		g.Name,
		string(data),
		ir.IRVersion,
		len(g.Nodes),
	)
	if err != nil {
		return "", fmt.Errorf("write graph: %w", err)
	}
	return id, nil
}

// WriteRun inserts a run and all of its coefficients in one transaction.
//
// A run whose ID already exists is left untouched (idempotent); its
// coefficients are not rewritten. The graph referenced by GraphID must
// exist (foreign key constraint).
func (s *Store) WriteRun(ctx context.Context, r Run) error {
	if _, err := ParseRunKind(string(r.Kind)); err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	if r.InputHash == "" {
		h, err := r.ComputeInputHash()
		if err != nil {
			return fmt.Errorf("write run: %w", err)
		}
		r.InputHash = h
	}
	pointJSON, err := marshalFloats(r.Point)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	paramsJSON, err := marshalFloats(r.Params)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	maskJSON, err := marshalMask(r.Mask)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, graph_id, kind, degree, order_, point, params, time, mask, input_hash, seq, engine_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		r.ID,
		r.GraphID,
		string(r.Kind),
		r.Degree,
		r.Order,
		pointJSON,
		paramsJSON,
		ir.FormatFloat(r.Time),
		maskJSON,
		r.InputHash,
		r.Seq,
		r.EngineVersion,
		r.IRVersion,
	)
	if err != nil {
		return fmt.Errorf("write run: insert run: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("write run: rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// Run already stored
		return tx.Commit()
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO coefficients
		(run_id, position, component, mi, multi_index, coeff, value)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write run: prepare coefficients: %w", err)
	}
	defer stmt.Close()

	for _, c := range r.Coefficients {
		if _, err := stmt.ExecContext(ctx,
			r.ID,
			c.Position,
			c.Component,
			c.MI,
			formatExponents(c.Exponents),
			c.Coeff,
			ir.FormatFloat(c.Value),
		); err != nil {
			return fmt.Errorf("write run: coefficient %s%v[%d]: %w", c.Component, c.Exponents, c.Coeff, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write run: commit: %w", err)
	}
	return nil
}
