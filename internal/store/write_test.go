package store

import (
	"context"
	"math"
	"testing"

	"github.com/roach88/jetdag/internal/ir"
)

func TestWriteGraph_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	g, id := createTestGraph(t, s)

	again, err := s.WriteGraph(ctx, g)
	if err != nil {
		t.Fatalf("second WriteGraph() failed: %v", err)
	}
	if again != id {
		t.Errorf("id changed: %s then %s", id, again)
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM graphs").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("graphs = %d rows, want 1", count)
	}
}

func TestWriteGraph_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	g, id := createTestGraph(t, s)

	got, err := s.ReadGraph(context.Background(), id)
	if err != nil {
		t.Fatalf("ReadGraph() failed: %v", err)
	}
	gotID, err := ir.GraphID(got)
	if err != nil {
		t.Fatal(err)
	}
	if gotID != id {
		t.Errorf("read graph hashes to %s, stored as %s", gotID, id)
	}
	if len(got.Nodes) != len(g.Nodes) || !got.Finalized {
		t.Errorf("read graph: %d nodes finalized=%v, want %d nodes finalized", len(got.Nodes), got.Finalized, len(g.Nodes))
	}
}

func TestWriteRun_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	_, gid := createTestGraph(t, s)

	run := createTestRun("run-1", gid, 1)
	run.Kind = KindJet
	run.Degree = 1
	run.Time = 0.25
	run.Mask = [][]int{{1, 0}}
	run.Coefficients = []Coefficient{
		{Position: 0, Component: "dx", MI: 0, Exponents: []int{0, 0}, Value: 1.0 / 3},
		{Position: 0, Component: "dx", MI: 1, Exponents: []int{1, 0}, Value: math.Inf(-1)},
		{Position: 1, Component: "dy", MI: 0, Exponents: []int{0, 0}, Value: math.NaN()},
	}
	if err := s.WriteRun(ctx, run); err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}

	got, err := s.ReadRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("ReadRun() failed: %v", err)
	}
	if got.Kind != KindJet || got.Degree != 1 || got.Time != 0.25 || got.Seq != 1 {
		t.Errorf("run header = %+v", got)
	}
	if got.Point["y"] != 2 || got.Params["a"] != 0.5 {
		t.Errorf("point %v params %v", got.Point, got.Params)
	}
	if len(got.Mask) != 1 || got.Mask[0][0] != 1 {
		t.Errorf("mask = %v", got.Mask)
	}
	if got.InputHash == "" {
		t.Error("input hash not filled in")
	}
	if len(got.Coefficients) != 3 {
		t.Fatalf("got %d coefficients, want 3", len(got.Coefficients))
	}
	if got.Coefficients[0].Value != 1.0/3 {
		t.Errorf("1/3 stored as %v", got.Coefficients[0].Value)
	}
	if !math.IsInf(got.Coefficients[1].Value, -1) {
		t.Errorf("-Inf stored as %v", got.Coefficients[1].Value)
	}
	if !math.IsNaN(got.Coefficients[2].Value) {
		t.Errorf("NaN stored as %v", got.Coefficients[2].Value)
	}
}

func TestWriteRun_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	_, gid := createTestGraph(t, s)

	run := createTestRun("run-1", gid, 1)
	run.Coefficients = []Coefficient{{Component: "dx", Exponents: []int{0, 0}, Value: 1}}
	if err := s.WriteRun(ctx, run); err != nil {
		t.Fatalf("first WriteRun() failed: %v", err)
	}

	run.Coefficients[0].Value = 99
	if err := s.WriteRun(ctx, run); err != nil {
		t.Fatalf("second WriteRun() failed: %v", err)
	}

	got, err := s.ReadRun(ctx, "run-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Coefficients) != 1 || got.Coefficients[0].Value != 1 {
		t.Errorf("coefficients rewritten: %+v", got.Coefficients)
	}
}

func TestWriteRun_RequiresGraph(t *testing.T) {
	s := createTestStore(t)

	err := s.WriteRun(context.Background(), createTestRun("run-1", "no-such-graph", 1))
	if err == nil {
		t.Fatal("WriteRun() accepted a run of an unknown graph")
	}
}

func TestWriteRun_AtomicOnFailure(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	_, gid := createTestGraph(t, s)

	run := createTestRun("run-1", gid, 1)
	dup := Coefficient{Component: "dx", Exponents: []int{0, 0}, Value: 1}
	run.Coefficients = []Coefficient{dup, dup}
	if err := s.WriteRun(ctx, run); err == nil {
		t.Fatal("WriteRun() accepted duplicate coefficient rows")
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("failed write left %d runs behind", count)
	}
}

func TestWriteRun_RejectsUnknownKind(t *testing.T) {
	s := createTestStore(t)
	_, gid := createTestGraph(t, s)

	run := createTestRun("run-1", gid, 1)
	run.Kind = "integral"
	if err := s.WriteRun(context.Background(), run); err == nil {
		t.Fatal("WriteRun() accepted kind \"integral\"")
	}
}
