package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/jetdag/internal/compiler"
	"github.com/roach88/jetdag/internal/engine"
	"github.com/roach88/jetdag/internal/ir"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestGraph compiles x' = a*x*y, y' = sin(x) and stores it.
func createTestGraph(t *testing.T, s *Store) (*ir.Graph, string) {
	t.Helper()
	b := compiler.NewBuilder("pair")
	x, y := b.Var("x"), b.Var("y")
	a := b.Param("a", 0.5)
	b.Output(b.Name(b.Mul(a, b.Mul(x, y)), "dx"))
	b.Output(b.Name(b.Sin(x), "dy"))
	g, err := b.Compile()
	if err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}
	id, err := s.WriteGraph(context.Background(), g)
	if err != nil {
		t.Fatalf("WriteGraph() failed: %v", err)
	}
	return g, id
}

// createTestRun creates a run with minimal required fields.
func createTestRun(id, graphID string, seq int64) Run {
	return Run{
		ID:            id,
		GraphID:       graphID,
		Kind:          KindValue,
		Point:         map[string]float64{"x": 1, "y": 2},
		Params:        map[string]float64{"a": 0.5},
		Seq:           seq,
		EngineVersion: ir.EngineVersion,
		IRVersion:     ir.IRVersion,
	}
}

// recomputeODE evaluates an ode run the way the CLI does.
func recomputeODE(ctx context.Context, g *ir.Graph, r Run) ([]Coefficient, error) {
	f, err := engine.NewFunction(g, r.Degree, r.Order)
	if err != nil {
		return nil, err
	}
	for name, v := range r.Params {
		if err := f.SetParam(name, v); err != nil {
			return nil, err
		}
	}
	x := make([]float64, f.Dim())
	for i, name := range f.VarNames() {
		x[i] = r.Point[name]
	}
	j, err := f.ODECoefficients(x, r.Time)
	if err != nil {
		return nil, err
	}
	return JetCoefficients(j), nil
}
