package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/jetdag/internal/store"
)

func writeScenario(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	dir := t.TempDir()
	createTestSpec(t, dir, "growth.cue", growthSpec)

	path := writeScenario(t, dir, `
name: test_scenario
description: "Test scenario for validation"
specs:
  - specs/growth.cue
function: growth
steps:
  - kind: ode
    at: {x: 1}
    params: {a: 2}
    degree: 1
    order: 3
    mask: [[1]]
    expect:
      tolerance: 1e-9
      coefficients:
        - {component: x, exponents: [1], k: 2, value: 2}
assertions:
  - type: run_count
    kind: ode
    count: 1
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, []string{filepath.Join(dir, "specs/growth.cue")}, scenario.Specs, "specs resolve against the scenario directory")
	require.Len(t, scenario.Steps, 1)

	st := scenario.Steps[0]
	assert.Equal(t, store.KindODE, st.Kind)
	assert.Equal(t, map[string]float64{"x": 1}, st.At)
	assert.Equal(t, map[string]float64{"a": 2}, st.Params)
	assert.Equal(t, [][]int{{1}}, st.Mask)
	require.NotNil(t, st.Expect)
	assert.Equal(t, 1e-9, st.Expect.Tolerance)
	assert.Equal(t, ExpectedCoefficient{Component: "x", Exponents: []int{1}, K: 2, Value: 2}, st.Expect.Coefficients[0])

	require.Len(t, scenario.Assertions, 1)
	assert.Equal(t, store.KindODE, scenario.Assertions[0].Kind)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	dir := t.TempDir()
	createTestSpec(t, dir, "growth.cue", growthSpec)

	path := writeScenario(t, dir, `
name: typo
description: "misspelled assertions"
specs: [specs/growth.cue]
function: growth
steps:
  - {kind: value, at: {x: 1}}
assertion:
  - type: deterministic
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenarioWithBasePath(t *testing.T) {
	dir := t.TempDir()
	createTestSpec(t, dir, "growth.cue", growthSpec)
	sub := filepath.Join(dir, "scenarios")
	require.NoError(t, os.MkdirAll(sub, 0755))

	path := writeScenario(t, sub, `
name: based
description: "specs relative to the project root"
specs: [specs/growth.cue]
function: growth
steps:
  - {kind: value, at: {x: 1}}
assertions:
  - type: deterministic
`)
	_, err := LoadScenario(path)
	require.Error(t, err, "relative to the scenario directory the spec does not exist")
	assert.Contains(t, err.Error(), "spec file not found")

	scenario, err := LoadScenarioWithBasePath(path, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "specs/growth.cue"), scenario.Specs[0])
}

func TestValidateScenario(t *testing.T) {
	spec := createTestSpec(t, t.TempDir(), "growth.cue", growthSpec)
	valid := func() *Scenario {
		return &Scenario{
			Name:        "v",
			Description: "d",
			Specs:       []string{spec},
			Function:    "growth",
			Steps:       []Step{{Kind: "value", At: map[string]float64{"x": 1}}},
			Assertions:  []Assertion{{Type: AssertDeterministic}},
		}
	}
	require.NoError(t, validateScenario(valid()))

	tests := []struct {
		name   string
		modify func(s *Scenario)
		errMsg string
	}{
		{"missing name", func(s *Scenario) { s.Name = "" }, "name is required"},
		{"missing description", func(s *Scenario) { s.Description = "" }, "description is required"},
		{"no specs", func(s *Scenario) { s.Specs = nil }, "specs list is required"},
		{"missing spec file", func(s *Scenario) { s.Specs = []string{"/nonexistent.cue"} }, "spec file not found"},
		{"missing function", func(s *Scenario) { s.Function = "" }, "function is required"},
		{"no steps", func(s *Scenario) { s.Steps = nil }, "steps list is required"},
		{"no assertions", func(s *Scenario) { s.Assertions = nil }, "assertions list is required"},
		{"unknown kind", func(s *Scenario) { s.Steps[0].Kind = "hessian" }, "unknown run kind"},
		{"missing at", func(s *Scenario) { s.Steps[0].At = nil }, "at is required"},
		{"negative degree", func(s *Scenario) { s.Steps[0].Degree = -1 }, "must be non-negative"},
		{"error and coefficients", func(s *Scenario) {
			s.Steps[0].Expect = &ExpectClause{Error: "DOMAIN", Coefficients: []ExpectedCoefficient{{Component: "dx"}}}
		}, "exclusive"},
		{"coefficient without component", func(s *Scenario) {
			s.Steps[0].Expect = &ExpectClause{Coefficients: []ExpectedCoefficient{{K: 1}}}
		}, "component is required"},
		{"unknown assertion", func(s *Scenario) { s.Assertions[0].Type = "trace_order" }, "unknown assertion type"},
		{"series_sum step out of range", func(s *Scenario) {
			s.Assertions[0] = Assertion{Type: AssertSeriesSum, Step: 3, Component: "x"}
		}, "out of range"},
		{"series_sum without component", func(s *Scenario) {
			s.Assertions[0] = Assertion{Type: AssertSeriesSum}
		}, "component is required"},
		{"steps_agree needs two", func(s *Scenario) {
			s.Assertions[0] = Assertion{Type: AssertStepsAgree, Steps: []int{0}}
		}, "exactly two steps"},
		{"run_count bad kind", func(s *Scenario) {
			s.Assertions[0] = Assertion{Type: AssertRunCount, Kind: "hessian"}
		}, "unknown run kind"},
		{"negative tolerance", func(s *Scenario) { s.Assertions[0].Tolerance = -1 }, "tolerance must be non-negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.modify(s)
			err := validateScenario(s)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
