package testutil

import (
	"fmt"
	"sync"
)

// ScenarioRunIDs names the runs of one scenario prefix-0001, prefix-0002,
// ... so that stored runs and golden snapshots are reproducible.
//
// Unlike engine.FixedGenerator it never runs out, and unlike
// engine.SequenceGenerator it can be reset.
//
// Implements engine.RunIDGenerator.
type ScenarioRunIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewScenarioRunIDs creates a generator. An empty prefix becomes "run".
func NewScenarioRunIDs(prefix string) *ScenarioRunIDs {
	if prefix == "" {
		prefix = "run"
	}
	return &ScenarioRunIDs{prefix: prefix}
}

// Generate returns the next run id.
func (g *ScenarioRunIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}

// Reset restarts the numbering.
func (g *ScenarioRunIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
