package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/jetdag/internal/ir"
	"github.com/roach88/jetdag/internal/queryir"
	"github.com/roach88/jetdag/internal/querysql"
)

// runColumnNames is the scan order of scanRun.
var runColumnNames = []string{"id", "graph_id", "kind", "degree", "order_", "point", "params", "time", "mask", "input_hash", "seq", "engine_version", "ir_version"}

var runColumns = strings.Join(runColumnNames, ", ")

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// ReadGraph retrieves and decodes a graph by content address.
// Returns an error wrapping sql.ErrNoRows if not found.
func (s *Store) ReadGraph(ctx context.Context, id string) (*ir.Graph, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT ir FROM graphs WHERE id = ?`, id).Scan(&data)
	if err != nil {
		return nil, fmt.Errorf("read graph %s: %w", id, err)
	}
	g, err := ir.UnmarshalGraph([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("read graph %s: %w", id, err)
	}
	return g, nil
}

// ListGraphs returns every stored graph ordered by name, then id.
func (s *Store) ListGraphs(ctx context.Context) ([]GraphRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, ir, ir_version, node_count
		FROM graphs
		ORDER BY name ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query graphs: %w", err)
	}
	defer rows.Close()

	graphs := []GraphRecord{}
	for rows.Next() {
		var (
			rec  GraphRecord
			data string
		)
		if err := rows.Scan(&rec.ID, &rec.Name, &data, &rec.IRVersion, &rec.NodeCount); err != nil {
			return nil, fmt.Errorf("scan graph: %w", err)
		}
		if rec.Graph, err = ir.UnmarshalGraph([]byte(data)); err != nil {
			return nil, fmt.Errorf("graph %s: %w", rec.ID, err)
		}
		graphs = append(graphs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate graphs: %w", err)
	}
	return graphs, nil
}

// ReadRun retrieves a run and its coefficients.
// Returns an error wrapping sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}
	if r.Coefficients, err = s.readCoefficients(ctx, id); err != nil {
		return Run{}, err
	}
	return r, nil
}

// RunFilter selects stored runs. Zero fields match every run.
type RunFilter struct {
	GraphID   string
	Function  string // graph name
	Kind      RunKind
	InputHash string
}

// QueryRuns returns the runs matching f, without their coefficients,
// ordered by seq ASC, id ASC COLLATE BINARY.
func (s *Store) QueryRuns(ctx context.Context, f RunFilter) ([]Run, error) {
	query, args, err := querysql.Compile(runQuery(f))
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	return s.queryRuns(ctx, query, args...)
}

// runQuery builds the read for f. Filtering by function joins graphs.
func runQuery(f RunFilter) queryir.Query {
	columns := make([]string, len(runColumnNames))
	for i, c := range runColumnNames {
		columns[i] = "runs." + c
	}

	var preds []queryir.Predicate
	add := func(field, value string) {
		if value != "" {
			preds = append(preds, queryir.Equals{Field: "runs." + field, Value: value})
		}
	}
	add("graph_id", f.GraphID)
	add("kind", string(f.Kind))
	add("input_hash", f.InputHash)

	if f.Function == "" {
		return queryir.Select{From: "runs", Filter: queryir.AllOf(preds...), Columns: columns}
	}
	preds = append(preds, queryir.Equals{Field: "graphs.name", Value: f.Function})
	return queryir.Join{
		Left:    "runs",
		Right:   "graphs",
		On:      queryir.FieldEquals{Left: "runs.graph_id", Right: "graphs.id"},
		Filter:  queryir.AllOf(preds...),
		Columns: columns,
	}
}

// ListRuns returns the runs of one graph, or of every graph when graphID
// is empty.
func (s *Store) ListRuns(ctx context.Context, graphID string) ([]Run, error) {
	return s.QueryRuns(ctx, RunFilter{GraphID: graphID})
}

// FindRuns returns the runs that answered the same request, oldest first.
func (s *Store) FindRuns(ctx context.Context, inputHash string) ([]Run, error) {
	return s.QueryRuns(ctx, RunFilter{InputHash: inputHash})
}

func (s *Store) queryRuns(ctx context.Context, query string, args ...any) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	// Return empty slice instead of nil
	runs := []Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

func (s *Store) readCoefficients(ctx context.Context, runID string) ([]Coefficient, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT position, component, mi, multi_index, coeff, value
		FROM coefficients
		WHERE run_id = ?
		ORDER BY position ASC, mi ASC, coeff ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query coefficients: %w", err)
	}
	defer rows.Close()

	coeffs := []Coefficient{}
	for rows.Next() {
		var (
			c          Coefficient
			exps, text string
		)
		if err := rows.Scan(&c.Position, &c.Component, &c.MI, &exps, &c.Coeff, &text); err != nil {
			return nil, fmt.Errorf("scan coefficient: %w", err)
		}
		if c.Exponents, err = parseExponents(exps); err != nil {
			return nil, err
		}
		if c.Value, err = ir.ParseFloat(text); err != nil {
			return nil, fmt.Errorf("coefficient value %q: %w", text, err)
		}
		coeffs = append(coeffs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate coefficients: %w", err)
	}
	return coeffs, nil
}

// scanRun scans a row into a Run without coefficients.
func scanRun(row scanner) (Run, error) {
	var r Run
	var kind, point, params, tm, mask string
	if err := row.Scan(
		&r.ID, &r.GraphID, &kind, &r.Degree, &r.Order, &point, &params, &tm, &mask,
		&r.InputHash, &r.Seq, &r.EngineVersion, &r.IRVersion,
	); err != nil {
		return Run{}, err
	}

	var err error
	if r.Kind, err = ParseRunKind(kind); err != nil {
		return Run{}, err
	}
	if r.Point, err = unmarshalFloats(point); err != nil {
		return Run{}, err
	}
	if r.Params, err = unmarshalFloats(params); err != nil {
		return Run{}, err
	}
	if r.Time, err = ir.ParseFloat(tm); err != nil {
		return Run{}, fmt.Errorf("run time %q: %w", tm, err)
	}
	if r.Mask, err = unmarshalMask(mask); err != nil {
		return Run{}, err
	}
	return r, nil
}
