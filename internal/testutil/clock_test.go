package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeterministicClock_ResetReplaysSeqs(t *testing.T) {
	clock := NewDeterministicClock()
	assert.Zero(t, clock.Current())

	first := []int64{clock.Next(), clock.Next(), clock.Next()}
	assert.Equal(t, []int64{1, 2, 3}, first)
	assert.Equal(t, int64(3), clock.Current())

	clock.Reset()
	assert.Zero(t, clock.Current())
	assert.Equal(t, int64(1), clock.Next(), "a reset clock hands out the same seqs again")
}

func TestScenarioRunIDs(t *testing.T) {
	ids := NewScenarioRunIDs("lorenz")
	assert.Equal(t, "lorenz-0001", ids.Generate())
	assert.Equal(t, "lorenz-0002", ids.Generate())

	ids.Reset()
	assert.Equal(t, "lorenz-0001", ids.Generate())

	assert.Equal(t, "run-0001", NewScenarioRunIDs("").Generate())
}
