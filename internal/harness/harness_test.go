package harness

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/jetdag/internal/store"
)

func TestRun_StoresEachStep(t *testing.T) {
	scenario := growthScenario(t, []Step{
		odeStep(1, 3),
		{Kind: "value", At: map[string]float64{"x": 2}},
	}, []Assertion{
		{Type: AssertRunCount, Count: 2},
		{Type: AssertRunCount, Kind: store.KindValue, Count: 1},
		{Type: AssertDeterministic},
	})

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.NotEmpty(t, result.GraphID)

	require.Len(t, result.Trace, 2)
	assert.Equal(t, "growth_test-0001", result.Trace[0].RunID)
	assert.Equal(t, int64(1), result.Trace[0].Seq)
	assert.Equal(t, "growth_test-0002", result.Trace[1].RunID)
	assert.Equal(t, int64(2), result.Trace[1].Seq)

	// degree 1, order 3: two multi-indices of four coefficients each
	assert.Len(t, result.Trace[0].Coefficients, 8)
	assert.Len(t, result.Trace[1].Coefficients, 1)
}

func TestRun_RunPrefix(t *testing.T) {
	scenario := growthScenario(t, []Step{odeStep(1, 1)}, nil)
	scenario.RunPrefix = "g"

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.Equal(t, "g-0001", result.Trace[0].RunID)
}

func TestRun_ExpectCoefficients(t *testing.T) {
	step := odeStep(1, 3)
	step.Params = map[string]float64{"a": 3}
	step.Expect = &ExpectClause{Coefficients: []ExpectedCoefficient{
		{Component: "x", K: 2, Value: 4.5},
		{Component: "x", Exponents: []int{1}, K: 3, Value: 4.5},
	}}

	result, err := Run(growthScenario(t, []Step{step}, nil))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_ExpectMismatch(t *testing.T) {
	step := odeStep(1, 2)
	step.Expect = &ExpectClause{Coefficients: []ExpectedCoefficient{
		{Component: "x", K: 2, Value: 0.6},
		{Component: "y", K: 0, Value: 1},
	}}

	result, err := Run(growthScenario(t, []Step{step}, nil))
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "want 0.59999999999999998")
	assert.Contains(t, result.Errors[1], "no coefficient y")
}

func TestRun_ExpectedError(t *testing.T) {
	scenario := growthScenario(t, []Step{
		{Kind: "value", At: map[string]float64{"y": 1}, Expect: &ExpectClause{Error: "INVALID_INPUT"}},
		odeStep(1, 1),
	}, []Assertion{{Type: AssertRunCount, Count: 1}})

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	assert.Equal(t, "INVALID_INPUT", result.Trace[0].Error)
	assert.Empty(t, result.Trace[0].RunID, "failed steps are not stored")
	assert.Equal(t, "growth_test-0001", result.Trace[1].RunID)
}

func TestRun_UnexpectedError(t *testing.T) {
	scenario := growthScenario(t, []Step{
		{Kind: "value", At: map[string]float64{"x": 1}, Params: map[string]float64{"b": 1}},
	}, []Assertion{{Type: AssertRunCount, Count: 0}})

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], `unknown parameter "b"`)
}

func TestRun_ExpectedErrorMissing(t *testing.T) {
	step := odeStep(1, 1)
	step.Expect = &ExpectClause{Error: "DOMAIN"}

	result, err := Run(growthScenario(t, []Step{step}, nil))
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "expected error DOMAIN, step succeeded")
}

func TestRun_GenericStepsAreNotStored(t *testing.T) {
	generic := odeStep(1, 5)
	generic.Generic = true

	scenario := growthScenario(t, []Step{odeStep(1, 5), generic}, []Assertion{
		{Type: AssertStepsAgree, Steps: []int{0, 1}},
		{Type: AssertRunCount, Count: 1},
	})

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Trace[1].RunID)
	assert.Zero(t, result.Trace[1].Seq)
}

func TestRun_FunctionNotDeclared(t *testing.T) {
	scenario := growthScenario(t, []Step{odeStep(1, 1)}, nil)
	scenario.Function = "lorenz"

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `function "lorenz" is not declared`)
}

func TestRun_Reproducible(t *testing.T) {
	scenario := growthScenario(t, []Step{odeStep(0.5, 4), odeStep(2, 2)}, nil)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	assert.Equal(t, first.GraphID, second.GraphID)
	assert.Equal(t, first.Trace, second.Trace)
}

func TestWithin(t *testing.T) {
	nan, inf := math.NaN(), math.Inf(1)

	assert.True(t, within(1+1e-13, 1, 0))
	assert.False(t, within(1+1e-11, 1, 0))
	assert.True(t, within(1e6+1e-7, 1e6, 0), "tolerance scales with the expected value")
	assert.True(t, within(1.05, 1, 0.1))
	assert.True(t, within(nan, nan, 0))
	assert.False(t, within(1, nan, 0))
	assert.True(t, within(inf, inf, 0))
	assert.False(t, within(-inf, inf, 0))
}
