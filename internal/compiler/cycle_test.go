package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAnalyzeCycles_Empty tests that empty input produces no cycles.
func TestAnalyzeCycles_Empty(t *testing.T) {
	assert.Empty(t, AnalyzeCycles(nil, nil))
}

// TestAnalyzeCycles_DAG tests that shared subexpressions are not cycles.
func TestAnalyzeCycles_DAG(t *testing.T) {
	deps := dependencyGraph{
		"sum":  {"prod", "x"},
		"prod": {"x", "y"},
		"out":  {"sum", "prod"},
	}
	assert.Empty(t, AnalyzeCycles(deps, []string{"sum", "prod", "out"}))
}

// TestAnalyzeCycles_SelfLoop tests a node that reads itself.
func TestAnalyzeCycles_SelfLoop(t *testing.T) {
	deps := dependencyGraph{"a": {"a", "x"}}

	cycles := AnalyzeCycles(deps, []string{"a"})
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"a", "a"}, cycles[0].Path)
	assert.Contains(t, cycles[0].Message, "a -> a")
}

// TestAnalyzeCycles_ThreeNodes tests reconstruction of a longer loop.
func TestAnalyzeCycles_ThreeNodes(t *testing.T) {
	deps := dependencyGraph{
		"a": {"b"},
		"b": {"c"},
		"c": {"a"},
		"d": {"a"},
	}

	cycles := AnalyzeCycles(deps, []string{"a", "b", "c", "d"})
	require.Len(t, cycles, 1)
	path := cycles[0].Path
	require.Len(t, path, 4)
	assert.Equal(t, path[0], path[3], "path must close")
	assert.ElementsMatch(t, []string{"a", "b", "c"}, path[:3])
	assert.NotContains(t, path, "d")
}

// TestAnalyzeCycles_Disjoint tests that independent loops are reported
// separately and in a stable order.
func TestAnalyzeCycles_Disjoint(t *testing.T) {
	deps := dependencyGraph{
		"a": {"b"},
		"b": {"a"},
		"p": {"q"},
		"q": {"p"},
	}
	order := []string{"a", "b", "p", "q"}

	first := AnalyzeCycles(deps, order)
	require.Len(t, first, 2)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, AnalyzeCycles(deps, order))
	}
}

func TestTopoOrder(t *testing.T) {
	deps := dependencyGraph{
		"c": {"a"},
		"a": {"b", "x"},
		"b": {"x"},
	}

	got := topoOrder(deps, []string{"c", "a", "b"})
	assert.Equal(t, []string{"b", "a", "c"}, got)
}
