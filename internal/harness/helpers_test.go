package harness

import (
	"os"
	"path/filepath"
	"testing"
)

const growthSpec = `
function: growth: {
	vars: ["x"]
	params: a: 1
	nodes: dx: {op: "mul", args: ["a", "x"]}
	outputs: ["dx"]
}
`

// createTestSpec writes a CUE spec file under dir/specs.
func createTestSpec(t *testing.T, dir, name, content string) string {
	t.Helper()
	specsDir := filepath.Join(dir, "specs")
	if err := os.MkdirAll(specsDir, 0755); err != nil {
		t.Fatal(err)
	}
	specPath := filepath.Join(specsDir, name)
	if err := os.WriteFile(specPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return specPath
}

// growthScenario returns a valid scenario over growthSpec with the given
// steps and assertions.
func growthScenario(t *testing.T, steps []Step, assertions []Assertion) *Scenario {
	t.Helper()
	if assertions == nil {
		assertions = []Assertion{{Type: AssertDeterministic}}
	}
	return &Scenario{
		Name:        "growth_test",
		Description: "x' = a x",
		Specs:       []string{createTestSpec(t, t.TempDir(), "growth.cue", growthSpec)},
		Function:    "growth",
		Steps:       steps,
		Assertions:  assertions,
	}
}

func odeStep(x float64, order int) Step {
	return Step{Kind: "ode", At: map[string]float64{"x": x}, Degree: 1, Order: order}
}
