package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlotCommand_WritesImage(t *testing.T) {
	specsDir := testSpecsDir(t)
	out := filepath.Join(t.TempDir(), "lorenz.png")

	buf := &bytes.Buffer{}
	cmd := NewPlotCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{specsDir, "-f", "lorenz", "--at", "x=1,y=2,z=3", "--order", "8",
		"--horizon", "0.05", "--samples", "20", "-o", out})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, buf.String(), "✓ Plotted [x y z] over [0, 0.05]")
	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestPlotCommand_SVG(t *testing.T) {
	specsDir := testSpecsDir(t)
	out := filepath.Join(t.TempDir(), "growth.svg")

	cmd := NewPlotCommand(&RootOptions{Format: "json"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{specsDir, "-f", "growth", "--at", "x=1", "--time", "2", "-o", out})
	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
}

func TestPlotCommand_BadRange(t *testing.T) {
	specsDir := testSpecsDir(t)
	out := filepath.Join(t.TempDir(), "bad.png")

	tests := []struct {
		name string
		args []string
	}{
		{"zero horizon", []string{"--horizon", "0"}},
		{"one sample", []string{"--samples", "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			cmd := NewPlotCommand(&RootOptions{Format: "text"})
			cmd.SetOut(buf)
			cmd.SetArgs(append([]string{specsDir, "-f", "growth", "--at", "x=1", "-o", out}, tt.args...))

			err := cmd.Execute()
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, buf.String(), ErrCodeBadRequest)
			assert.NoFileExists(t, out)
		})
	}
}
