package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"slices"

	"github.com/roach88/jetdag/internal/compiler"
	"github.com/roach88/jetdag/internal/engine"
	"github.com/roach88/jetdag/internal/ir"
	"github.com/roach88/jetdag/internal/store"
	"github.com/roach88/jetdag/internal/testutil"
)

// Harness is the test execution engine.
// It runs scenarios with a deterministic clock and run ids.
type Harness struct {
	store   *store.Store
	graph   *ir.Graph
	graphID string
	clock   *testutil.DeterministicClock
	runIDs  *testutil.ScenarioRunIDs
	logger  *slog.Logger
}

// Option configures Run.
type Option func(*Harness)

// WithLogger routes step and engine diagnostics to l. By default they are
// discarded.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		if l != nil {
			h.logger = l
		}
	}
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Deterministic helpers ensure reproducible results.
//
// Execution flow:
// 1. Compile the scenario's function from its CUE specs
// 2. Create fresh in-memory database and store the graph
// 3. Evaluate every step, storing its run and checking its expect clause
// 4. Evaluate assertions against the trace and the store
//
// An error is returned only when the scenario cannot be executed at all;
// failed expectations are reported in the Result.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	g, err := LoadFunction(scenario.Specs, scenario.Function)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	graphID, err := st.WriteGraph(ctx, g)
	if err != nil {
		return nil, fmt.Errorf("failed to store graph: %w", err)
	}

	prefix := scenario.RunPrefix
	if prefix == "" {
		prefix = scenario.Name
	}
	h := &Harness{
		store:   st,
		graph:   g,
		graphID: graphID,
		clock:   testutil.NewDeterministicClock(),
		runIDs:  testutil.NewScenarioRunIDs(prefix),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}

	result := NewResult()
	result.GraphID = graphID
	if err := h.executeSteps(ctx, scenario.Steps, result); err != nil {
		return nil, fmt.Errorf("failed to execute steps: %w", err)
	}

	actx := &AssertionContext{
		Store:   st,
		Ctx:     ctx,
		GraphID: graphID,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

// LoadFunction compiles the function called name from the first spec file
// that declares it.
func LoadFunction(specs []string, name string) (*ir.Graph, error) {
	for _, path := range specs {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read spec: %w", err)
		}
		v, err := compiler.LoadSource(path, src)
		if err != nil {
			return nil, err
		}
		if fv, ok := compiler.LookupFunction(v, name); ok {
			return compiler.CompileFunction(fv)
		}
	}
	return nil, fmt.Errorf("function %q is not declared in %v", name, specs)
}

// executeSteps evaluates each step on a fresh Function. Successful steps
// that use the default kernels are written to the store.
func (h *Harness) executeSteps(ctx context.Context, steps []Step, result *Result) error {
	for i, step := range steps {
		req := Request{
			Kind:   step.Kind,
			Point:  step.At,
			Params: step.Params,
			Time:   step.Time,
			Degree: step.Degree,
			Order:  step.Order,
			Mask:   step.Mask,
		}
		opts := []engine.EngineOption{engine.WithLogger(h.logger)}
		if step.Generic {
			opts = append(opts, engine.WithGenericKernels())
		}

		ev := TraceEvent{Step: i, Kind: step.Kind}
		out, err := Evaluate(h.graph, req, opts...)
		if err != nil {
			ev.Error = errorCode(err)
			result.AddTrace(ev)
			if step.Expect == nil || step.Expect.Error == "" {
				result.AddError(fmt.Sprintf("steps[%d]: %v", i, err))
			} else if ev.Error != step.Expect.Error {
				result.AddError(fmt.Sprintf("steps[%d]: expected error %s, got %v", i, step.Expect.Error, err))
			}
			h.logger.Info("step failed", "step", i, "kind", string(step.Kind), "code", ev.Error)
			continue
		}
		if step.Expect != nil && step.Expect.Error != "" {
			result.AddError(fmt.Sprintf("steps[%d]: expected error %s, step succeeded", i, step.Expect.Error))
		}

		ev.Coefficients = out.Coefficients
		if !step.Generic {
			ev.RunID = h.runIDs.Generate()
			ev.Seq = h.clock.Next()
			run := NewRun(ev.RunID, h.graphID, ev.Seq, req)
			run.Coefficients = out.Coefficients
			if err := h.store.WriteRun(ctx, run); err != nil {
				return fmt.Errorf("steps[%d]: failed to write run: %w", i, err)
			}
		}
		result.AddTrace(ev)

		if step.Expect != nil {
			for _, msg := range checkCoefficients(i, step.Expect, out.Coefficients) {
				result.AddError(msg)
			}
		}

		h.logger.Info("step completed",
			"step", i,
			"kind", string(step.Kind),
			"run_id", ev.RunID,
			"seq", ev.Seq,
			"coefficients", len(out.Coefficients),
		)
	}
	return nil
}

// errorCode returns the runtime error code of err, or "ERROR" for errors
// raised outside the engine.
func errorCode(err error) string {
	var re *engine.RuntimeError
	if errors.As(err, &re) {
		return string(re.Code)
	}
	return "ERROR"
}

// checkCoefficients matches the expected coefficients against the
// computed ones and returns one message per miss.
func checkCoefficients(step int, exp *ExpectClause, got []store.Coefficient) []string {
	var msgs []string
	for _, want := range exp.Coefficients {
		c, ok := findCoefficient(got, want.Component, want.Exponents, want.K)
		if !ok {
			msgs = append(msgs, fmt.Sprintf("steps[%d]: no coefficient %s%v k=%d", step, want.Component, want.Exponents, want.K))
			continue
		}
		if !within(c.Value, want.Value, exp.Tolerance) {
			msgs = append(msgs, fmt.Sprintf("steps[%d]: coefficient %s%v k=%d = %.17g, want %.17g",
				step, want.Component, c.Exponents, want.K, c.Value, want.Value))
		}
	}
	return msgs
}

// findCoefficient looks up a coefficient. Nil exponents select the zero
// multi-index.
func findCoefficient(cs []store.Coefficient, component string, exponents []int, k int) (store.Coefficient, bool) {
	for _, c := range cs {
		if c.Component == component && c.Coeff == k && sameExponents(exponents, c.Exponents) {
			return c, true
		}
	}
	return store.Coefficient{}, false
}

func sameExponents(want, got []int) bool {
	if want == nil {
		return !slices.ContainsFunc(got, func(e int) bool { return e != 0 })
	}
	return slices.Equal(want, got)
}

// within compares with a tolerance relative to max(1, |want|). NaN matches
// only NaN and infinities match only themselves.
func within(got, want, tol float64) bool {
	if tol == 0 {
		tol = DefaultTolerance
	}
	switch {
	case math.IsNaN(want):
		return math.IsNaN(got)
	case math.IsInf(want, 0):
		return got == want
	}
	return math.Abs(got-want) <= tol*math.Max(1, math.Abs(want))
}
