package harness

import (
	"strconv"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/jetdag/internal/ir"
)

// goldenDigits is the number of significant digits a coefficient keeps in
// a golden snapshot. Exact bits are checked by the deterministic assertion.
const goldenDigits = 10

// TraceSnapshot captures the trace of a scenario execution.
// All fields use canonical JSON serialization for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Function     string       `json:"function,omitempty"`
	Trace        []TraceEvent `json:"trace"`
}

// toCanonicalMap converts a TraceSnapshot to a map[string]any for canonical JSON serialization.
// ir.MarshalCanonical has no float encoding, so values become strings.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		eventMap := map[string]any{
			"step": event.Step,
			"kind": string(event.Kind),
		}
		if event.RunID != "" {
			eventMap["run_id"] = event.RunID
			eventMap["seq"] = event.Seq
		}
		if event.Error != "" {
			eventMap["error"] = event.Error
		}
		if len(event.Coefficients) > 0 {
			coeffs := make([]any, len(event.Coefficients))
			for j, c := range event.Coefficients {
				coeffs[j] = map[string]any{
					"component": c.Component,
					"exponents": c.Exponents,
					"k":         c.Coeff,
					"value":     formatGolden(c.Value),
				}
			}
			eventMap["coefficients"] = coeffs
		}
		traceList[i] = eventMap
	}

	result := map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
	}
	if s.Function != "" {
		result["function"] = s.Function
	}
	return result
}

func formatGolden(v float64) string {
	if v == 0 {
		return "0" // folds -0
	}
	return strconv.FormatFloat(v, 'g', goldenDigits, 64)
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}

	traceJSON, err := Snapshot(scenario, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, traceJSON)

	return nil
}

// AssertGolden compares the given result's trace against a golden file.
// This is useful when you've already run a scenario and want to compare
// the result against a golden file without re-running.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Trace:        result.Trace,
	}
	traceJSON, err := ir.MarshalCanonical(snapshot.toCanonicalMap())
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)

	return nil
}

// Snapshot renders result as the canonical JSON stored in golden files.
func Snapshot(scenario *Scenario, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: scenario.Name,
		Function:     scenario.Function,
		Trace:        result.Trace,
	}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}
