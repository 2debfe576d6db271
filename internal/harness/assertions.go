package harness

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/roach88/jetdag/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			switch {
			case ev.Error != "":
				fmt.Fprintf(&buf, "  [%d] %s failed: %s\n", ev.Step, ev.Kind, ev.Error)
			case ev.RunID == "":
				fmt.Fprintf(&buf, "  [%d] %s (not stored) %d coefficients\n", ev.Step, ev.Kind, len(ev.Coefficients))
			default:
				fmt.Fprintf(&buf, "  [%d] %s %s seq=%d %d coefficients\n", ev.Step, ev.Kind, ev.RunID, ev.Seq, len(ev.Coefficients))
			}
		}
	}

	return buf.String()
}

// successful returns the event of step i if it ran without error.
func successful(result *Result, i int, typ string) (*TraceEvent, error) {
	ev := result.Step(i)
	if ev == nil || ev.Error != "" {
		actual := "step did not run"
		if ev != nil {
			actual = "step failed with " + ev.Error
		}
		return nil, &AssertionError{
			Type:     typ,
			Expected: fmt.Sprintf("step %d to succeed", i),
			Actual:   actual,
			Trace:    result.Trace,
		}
	}
	return ev, nil
}

// assertSeriesSum sums the zero multi-index series of a component at h.
func assertSeriesSum(result *Result, a Assertion) error {
	ev, err := successful(result, a.Step, AssertSeriesSum)
	if err != nil {
		return err
	}

	sum, found := 0.0, false
	for _, c := range ev.Coefficients {
		if c.Component == a.Component && sameExponents(nil, c.Exponents) {
			sum += c.Value * math.Pow(a.H, float64(c.Coeff))
			found = true
		}
	}
	if !found {
		return &AssertionError{
			Type:     AssertSeriesSum,
			Expected: fmt.Sprintf("series of %s in step %d", a.Component, a.Step),
			Actual:   "component not found",
			Trace:    result.Trace,
		}
	}
	if !within(sum, a.Value, a.Tolerance) {
		return &AssertionError{
			Type:     AssertSeriesSum,
			Expected: fmt.Sprintf("%s(%g) = %.17g", a.Component, a.H, a.Value),
			Actual:   fmt.Sprintf("%.17g", sum),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertStepsAgree checks that two steps produced the same coefficients,
// optionally only at some multi-indices.
func assertStepsAgree(result *Result, a Assertion) error {
	first, err := successful(result, a.Steps[0], AssertStepsAgree)
	if err != nil {
		return err
	}
	second, err := successful(result, a.Steps[1], AssertStepsAgree)
	if err != nil {
		return err
	}

	selected := func(c store.Coefficient) bool {
		if len(a.Exponents) == 0 {
			return true
		}
		for _, e := range a.Exponents {
			if sameExponents(e, c.Exponents) {
				return true
			}
		}
		return false
	}

	compared := 0
	for _, c := range first.Coefficients {
		if !selected(c) {
			continue
		}
		other, ok := findCoefficient(second.Coefficients, c.Component, c.Exponents, c.Coeff)
		if !ok {
			return &AssertionError{
				Type:     AssertStepsAgree,
				Expected: fmt.Sprintf("coefficient %s%v k=%d in step %d", c.Component, c.Exponents, c.Coeff, a.Steps[1]),
				Actual:   "not present",
				Trace:    result.Trace,
			}
		}
		if !within(other.Value, c.Value, a.Tolerance) {
			return &AssertionError{
				Type:     AssertStepsAgree,
				Expected: fmt.Sprintf("%s%v k=%d = %.17g (step %d)", c.Component, c.Exponents, c.Coeff, c.Value, a.Steps[0]),
				Actual:   fmt.Sprintf("%.17g (step %d)", other.Value, a.Steps[1]),
				Trace:    result.Trace,
			}
		}
		compared++
	}
	if compared == 0 {
		return &AssertionError{
			Type:     AssertStepsAgree,
			Expected: "at least one coefficient to compare",
			Actual:   "none selected",
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertRunCount counts the graph's stored runs.
func assertRunCount(ctx context.Context, st *store.Store, graphID string, a Assertion) error {
	runs, err := st.ListRuns(ctx, graphID)
	if err != nil {
		return fmt.Errorf("run_count: %w", err)
	}
	count := 0
	for _, r := range runs {
		if a.Kind == "" || r.Kind == a.Kind {
			count++
		}
	}
	if count != a.Count {
		what := "runs"
		if a.Kind != "" {
			what = string(a.Kind) + " runs"
		}
		return &AssertionError{
			Type:     AssertRunCount,
			Expected: fmt.Sprintf("%d %s", a.Count, what),
			Actual:   fmt.Sprintf("%d %s", count, what),
		}
	}
	return nil
}

// assertDeterministic replays stored runs and requires bit-identical
// coefficients.
func assertDeterministic(ctx context.Context, st *store.Store, result *Result, a Assertion) error {
	var ids []string
	if len(a.Steps) == 0 {
		for _, ev := range result.Trace {
			if ev.RunID != "" {
				ids = append(ids, ev.RunID)
			}
		}
	} else {
		for _, i := range a.Steps {
			ev, err := successful(result, i, AssertDeterministic)
			if err != nil {
				return err
			}
			if ev.RunID == "" {
				return &AssertionError{
					Type:     AssertDeterministic,
					Expected: fmt.Sprintf("step %d to be stored", i),
					Actual:   "generic steps are not stored",
					Trace:    result.Trace,
				}
			}
			ids = append(ids, ev.RunID)
		}
	}

	for _, id := range ids {
		rep, err := st.ReplayRun(ctx, id, Recompute())
		if err != nil {
			return fmt.Errorf("deterministic: %w", err)
		}
		if !rep.Deterministic() {
			actual := fmt.Sprintf("%d mismatches, %d missing, %d extra", len(rep.Mismatches), rep.Missing, rep.Extra)
			if len(rep.Mismatches) > 0 {
				m := rep.Mismatches[0]
				actual += fmt.Sprintf("; first %s%v k=%d stored %.17g replayed %.17g",
					m.Component, m.Exponents, m.Coeff, m.Stored, m.Replayed)
			}
			return &AssertionError{
				Type:     AssertDeterministic,
				Expected: fmt.Sprintf("run %s to replay bit for bit", id),
				Actual:   actual,
				Trace:    result.Trace,
			}
		}
	}
	return nil
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Store   *store.Store
	Ctx     context.Context
	GraphID string
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides database access for run_count and
// deterministic assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertSeriesSum:
			err = assertSeriesSum(result, assertion)
		case AssertStepsAgree:
			err = assertStepsAgree(result, assertion)
		case AssertRunCount, AssertDeterministic:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: %s requires database context", i, assertion.Type)
			} else if assertion.Type == AssertRunCount {
				err = assertRunCount(actx.Ctx, actx.Store, actx.GraphID, assertion)
			} else {
				err = assertDeterministic(actx.Ctx, actx.Store, result, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
