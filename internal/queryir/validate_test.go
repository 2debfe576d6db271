package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Select(t *testing.T) {
	query := Select{
		From:    "runs",
		Filter:  And{Predicates: []Predicate{Equals{Field: "kind", Value: "ode"}, Equals{Field: "runs.degree", Value: 2}}},
		Columns: []string{"id", "runs.seq"},
	}
	assert.NoError(t, Validate(query))
	assert.NoError(t, Validate(&query), "pointer queries are accepted")
}

func TestValidate_Join(t *testing.T) {
	query := Join{
		Left:    "runs",
		Right:   "graphs",
		On:      FieldEquals{Left: "runs.graph_id", Right: "graphs.id"},
		Filter:  &Equals{Field: "graphs.name", Value: "lorenz"},
		Columns: []string{"runs.id"},
	}
	assert.NoError(t, Validate(query))
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		want  string
	}{
		{"nil query", nil, "nil query"},
		{"unknown table", Select{From: "nodes"}, `unknown table "nodes"`},
		{"unknown column", Select{From: "runs", Columns: []string{"value"}}, `unknown column "value"`},
		{"foreign table", Select{From: "runs", Filter: Equals{Field: "graphs.name", Value: "x"}}, "not part of the query"},
		{"float literal", Select{From: "runs", Filter: Equals{Field: "time", Value: 0.5}}, "float literals"},
		{"null literal", Select{From: "runs", Filter: Equals{Field: "kind"}}, "NULL literal"},
		{"unsupported literal", Select{From: "runs", Filter: Equals{Field: "kind", Value: []string{"ode"}}}, "unsupported literal type"},
		{"unqualified join column", Join{Left: "runs", Right: "graphs",
			On: FieldEquals{Left: "graph_id", Right: "graphs.id"}}, "must be qualified"},
		{"join without condition", Join{Left: "runs", Right: "graphs"}, "has no condition"},
		{"self join", Join{Left: "runs", Right: "runs", On: FieldEquals{Left: "runs.id", Right: "runs.id"}}, "self join"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.query)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	err := Validate(Select{
		From:    "runs",
		Columns: []string{"nope"},
		Filter:  Equals{Field: "time", Value: 1.0},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown column "nope"`)
	assert.Contains(t, err.Error(), "float literals")
}

func TestAllOf(t *testing.T) {
	a := Equals{Field: "kind", Value: "jet"}
	b := Equals{Field: "degree", Value: 1}

	assert.Nil(t, AllOf())
	assert.Nil(t, AllOf(nil, nil))
	assert.Equal(t, a, AllOf(nil, a))
	assert.Equal(t, And{Predicates: []Predicate{a, b}}, AllOf(a, nil, b))
}
