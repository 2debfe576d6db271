package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShowCommand_EmptyDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "empty.db")

	buf := &bytes.Buffer{}
	cmd := NewShowCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", db})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "No runs found in database.")
}

func TestShowCommand_FunctionFilter(t *testing.T) {
	db := storeGrowthRun(t, "run-1")

	buf := &bytes.Buffer{}
	cmd := NewShowCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", db, "-f", "lorenz"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "No runs found in database.")
}

func TestShowCommand_RunJSON(t *testing.T) {
	db := storeGrowthRun(t, "run-1")

	buf := &bytes.Buffer{}
	cmd := NewShowCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", db, "run-1"})
	require.NoError(t, cmd.Execute())

	var resp struct {
		Data RunDetail `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	d := resp.Data
	assert.Equal(t, "run-1", d.ID)
	assert.Equal(t, "growth", d.Function)
	assert.Equal(t, "ode", d.Kind)
	assert.Equal(t, 4, d.Order)
	assert.Equal(t, map[string]string{"x": "1"}, d.Point)
	assert.Equal(t, "0", d.Time)
	assert.NotEmpty(t, d.InputHash)
	assert.NotEmpty(t, d.EngineVersion)
	assert.Len(t, d.Coefficients, 5)
}

func TestShowCommand_UnknownRun(t *testing.T) {
	db := storeGrowthRun(t, "run-1")

	buf := &bytes.Buffer{}
	cmd := NewShowCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", db, "run-404"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
}

func TestFormatAssignments(t *testing.T) {
	assert.Equal(t, "a=1,b=2", formatAssignments(map[string]string{"b": "2", "a": "1"}))
	assert.Equal(t, "", formatAssignments(nil))
}

func TestShowCommand_KindFilter(t *testing.T) {
	db := storeGrowthRun(t, "run-1")

	buf := &bytes.Buffer{}
	cmd := NewShowCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", db, "-f", "growth", "--kind", "ode"})
	require.NoError(t, cmd.Execute())

	var resp struct {
		Data []RunSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "growth", resp.Data[0].Function)

	buf.Reset()
	cmd = NewShowCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", db, "--kind", "jet"})
	require.NoError(t, cmd.Execute())
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Empty(t, resp.Data)
}

func TestShowCommand_BadKind(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")

	cmd := NewShowCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--db", db, "--kind", "taylor"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
