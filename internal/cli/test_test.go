package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const decaySpec = `
function: decay: {
	vars: ["x"]
	params: k: -1
	nodes: dx: {op: "mul", args: ["k", "x"]}
	outputs: ["dx"]
	scenarios: ["decay.yaml"]
}
`

const decayScenario = `
name: decay
specs:
  - spec.cue
function: decay
steps:
  - kind: value
    at: {x: 2}
    expect:
      coefficients:
        - {component: dx, value: %s}
`

// writeScenarioDir writes the decay spec and a scenario expecting dx = want
// at x = 2.
func writeScenarioDir(t *testing.T, want string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "spec.cue"), []byte(decaySpec), 0o644))
	scenario := fmt.Sprintf(decayScenario, want)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "decay.yaml"), []byte(scenario), 0o644))
	return dir
}

func testScenariosDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join("..", "..", "testdata", "scenarios")
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Skip("testdata/scenarios not found")
	}
	return dir
}

func TestTestCommand_Scenarios(t *testing.T) {
	dir := testScenariosDir(t)

	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir})

	require.NoError(t, cmd.Execute(), buf.String())
	assert.Contains(t, buf.String(), "✓ growth")
	assert.Contains(t, buf.String(), "✓ lorenz")
	assert.Contains(t, buf.String(), "✓ All scenarios passed")
}

func TestTestCommand_Filter(t *testing.T) {
	dir := testScenariosDir(t)

	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir, "--filter", "grow*"})
	require.NoError(t, cmd.Execute())

	var resp struct {
		Data TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, 1, resp.Data.Total)
	assert.Equal(t, "growth", resp.Data.Scenarios[0].Name)
}

func TestTestCommand_Failure(t *testing.T) {
	dir := writeScenarioDir(t, "3")

	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join(dir, "decay.yaml")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
	assert.Equal(t, 1, resp.Data.Failed)
	assert.NotEmpty(t, resp.Data.Scenarios[0].Errors)
}

func TestTestCommand_UpdateGolden(t *testing.T) {
	dir := writeScenarioDir(t, "-2")
	scenario := filepath.Join(dir, "decay.yaml")
	golden := filepath.Join(dir, "golden", "decay.golden")

	cmd := NewTestCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{scenario, "--update"})
	require.NoError(t, cmd.Execute())
	require.FileExists(t, golden)

	// Matching golden file passes.
	buf := &bytes.Buffer{}
	cmd = NewTestCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir})
	require.NoError(t, cmd.Execute(), buf.String())

	// A drifted golden file fails.
	require.NoError(t, os.WriteFile(golden, []byte("stale\n"), 0o644))
	buf.Reset()
	cmd = NewTestCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, buf.String(), "does not match golden file")
}

func TestTestCommand_Linked(t *testing.T) {
	dir := writeScenarioDir(t, "-2")

	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--linked", filepath.Join(dir, "spec.cue")})

	require.NoError(t, cmd.Execute(), buf.String())
	assert.Contains(t, buf.String(), "Linked: 1 function(s), 1 scenario(s), 1 passed, 0 without scenarios")
	assert.Contains(t, buf.String(), "Test Summary: 1 passed, 0 failed, 1 total")
}

func TestTestCommand_LinkedFailure(t *testing.T) {
	dir := writeScenarioDir(t, "5")

	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--linked", filepath.Join(dir, "spec.cue")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "✗ decay (decay.yaml)")
}

func TestTestCommand_NoArgs(t *testing.T) {
	cmd := NewTestCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommand_MissingPath(t *testing.T) {
	cmd := NewTestCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "missing.yaml")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestGoldenFilePath(t *testing.T) {
	assert.Equal(t, filepath.Join("a", "golden", "decay.golden"), goldenFilePath(filepath.Join("a", "decay.yaml")))
}
