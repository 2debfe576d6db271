package harness

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/jetdag/internal/compiler"
)

func functionValue(t *testing.T, src, name string) cue.Value {
	t.Helper()
	v, err := compiler.LoadSource("test.cue", []byte(src))
	require.NoError(t, err)
	fv, ok := compiler.LookupFunction(v, name)
	require.True(t, ok)
	return fv
}

func TestExtractScenarios(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), nil, 0644))

	fv := functionValue(t, `function: f: {vars: ["x"], outputs: ["x"], scenarios: ["a.yaml"]}`, "f")
	paths, err := ExtractScenarios(fv, dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.yaml")}, paths)
}

func TestExtractScenarios_None(t *testing.T) {
	fv := functionValue(t, `function: f: {vars: ["x"], outputs: ["x"]}`, "f")
	paths, err := ExtractScenarios(fv, t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestExtractScenarios_NotFound(t *testing.T) {
	dir := t.TempDir()
	fv := functionValue(t, `function: f: {vars: ["x"], outputs: ["x"], scenarios: ["missing.yaml"]}`, "f")

	_, err := ExtractScenarios(fv, dir)
	var nf *ScenarioNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "f", nf.Function)
	assert.Equal(t, "missing.yaml", nf.ScenarioPath)
	assert.Equal(t, filepath.Join(dir, "missing.yaml"), nf.ResolvedPath)
	assert.Contains(t, err.Error(), `function "f" references scenario file "missing.yaml"`)
}

func TestExtractScenarios_NotAList(t *testing.T) {
	fv := functionValue(t, `function: f: {vars: ["x"], outputs: ["x"], scenarios: "a.yaml"}`, "f")
	_, err := ExtractScenarios(fv, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenarios must be a list")
}

func TestValidateLinkedScenarios_Failures(t *testing.T) {
	dir := t.TempDir()
	spec := createTestSpec(t, dir, "fns.cue", `
function: growth: {
	vars: ["x"]
	params: a: 1
	nodes: dx: {op: "mul", args: ["a", "x"]}
	outputs: ["dx"]
	scenarios: ["../wrong.yaml", "../failing.yaml"]
}
function: idle: {
	vars: ["x"]
	outputs: ["x"]
}
`)
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	write("wrong.yaml", `
name: wrong
description: "names another function"
specs: [specs/fns.cue]
function: idle
steps:
  - {kind: value, at: {x: 1}}
assertions:
  - type: deterministic
`)
	write("failing.yaml", `
name: failing
description: "expects the wrong count"
specs: [specs/fns.cue]
function: growth
steps:
  - {kind: value, at: {x: 1}}
assertions:
  - {type: run_count, count: 5}
`)

	res, err := ValidateLinkedScenarios(context.Background(), []string{spec})
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalFunctions)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 0, res.Passed)
	require.Equal(t, 2, res.Failed, "failures: %+v", res.Failures)
	assert.Equal(t, 2, res.TotalScenarios)

	assert.Equal(t, "growth", res.Failures[0].Function)
	assert.Contains(t, res.Failures[0].Error, `scenario tests function "idle"`)
	assert.Contains(t, res.Failures[1].Error, "scenario assertions failed")
}

func TestValidateLinkedScenarios_BadSpec(t *testing.T) {
	spec := createTestSpec(t, t.TempDir(), "bad.cue", `function: f: {`)
	_, err := ValidateLinkedScenarios(context.Background(), []string{spec})
	require.Error(t, err)
}
