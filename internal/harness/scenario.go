package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/jetdag/internal/store"
)

// DefaultTolerance bounds |actual-expected| / max(1, |expected|) when a
// step or assertion does not set its own tolerance.
const DefaultTolerance = 1e-12

// Scenario defines a conformance test scenario: a function compiled from
// CUE specs, a sequence of evaluations and assertions over the results.
type Scenario struct {
	// Name uniquely identifies this scenario and its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Specs lists paths to CUE spec files. The first one declaring
	// Function is compiled.
	Specs []string `yaml:"specs"`

	// Function names the `function:` block under test.
	Function string `yaml:"function"`

	// Steps are evaluated in order, each on a fresh Function.
	Steps []Step `yaml:"steps"`

	// Assertions validate the trace and the stored runs.
	// Supported types: series_sum, steps_agree, run_count, deterministic
	Assertions []Assertion `yaml:"assertions"`

	// RunPrefix prefixes the deterministic run ids. Defaults to Name.
	RunPrefix string `yaml:"run_prefix,omitempty"`
}

// Step is one evaluation request.
type Step struct {
	// Kind is value, jet, series or ode.
	Kind store.RunKind `yaml:"kind"`

	// At gives every variable's coordinate.
	At map[string]float64 `yaml:"at"`

	// Params overrides parameter defaults.
	Params map[string]float64 `yaml:"params,omitempty"`

	// Time is the time origin t0.
	Time float64 `yaml:"time,omitempty"`

	Degree int     `yaml:"degree,omitempty"`
	Order  int     `yaml:"order,omitempty"`
	Mask   [][]int `yaml:"mask,omitempty"`

	// Generic evaluates with the generic kernels only. Generic steps are
	// not stored, so replay always runs the default kernels.
	Generic bool `yaml:"generic,omitempty"`

	// Expect checks the step's outcome. If nil, the step must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected outcome of a step.
type ExpectClause struct {
	// Error is the expected runtime error code (e.g. "DOMAIN"). When set,
	// the step must fail with exactly this code.
	Error string `yaml:"error,omitempty"`

	// Tolerance overrides DefaultTolerance for Coefficients.
	Tolerance float64 `yaml:"tolerance,omitempty"`

	// Coefficients is a subset match against the step's coefficients.
	Coefficients []ExpectedCoefficient `yaml:"coefficients,omitempty"`
}

// ExpectedCoefficient names one coefficient and its expected value.
type ExpectedCoefficient struct {
	Component string `yaml:"component"`

	// Exponents defaults to the zero multi-index.
	Exponents []int   `yaml:"exponents,omitempty"`
	K         int     `yaml:"k,omitempty"`
	Value     float64 `yaml:"value"`
}

// Assertion validates the trace or the stored runs.
type Assertion struct {
	// Type specifies the assertion type:
	// - "series_sum": sum the time series of a component at h
	// - "steps_agree": two steps produced the same coefficients
	// - "run_count": number of stored runs, optionally of one kind
	// - "deterministic": stored runs replay bit for bit
	Type string `yaml:"type"`

	// Step is the step index (used by series_sum).
	Step int `yaml:"step,omitempty"`

	// Steps lists step indices (steps_agree needs two; deterministic
	// defaults to every stored step).
	Steps []int `yaml:"steps,omitempty"`

	// Component and H select the series to sum (used by series_sum).
	Component string  `yaml:"component,omitempty"`
	H         float64 `yaml:"h,omitempty"`

	// Value is the expected sum (used by series_sum).
	Value float64 `yaml:"value,omitempty"`

	// Exponents restricts steps_agree to these multi-indices.
	Exponents [][]int `yaml:"exponents,omitempty"`

	Tolerance float64 `yaml:"tolerance,omitempty"`

	// Kind filters run_count.
	Kind store.RunKind `yaml:"kind,omitempty"`

	// Count is the expected number of runs (used by run_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertSeriesSum     = "series_sum"
	AssertStepsAgree    = "steps_agree"
	AssertRunCount      = "run_count"
	AssertDeterministic = "deterministic"
)

// LoadScenario reads and parses a scenario YAML file. Spec paths are
// resolved relative to the scenario file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving spec paths relative to the provided base path. An empty base
// path leaves them relative to the working directory.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	// Resolve spec paths relative to base path BEFORE validation
	for i, specPath := range scenario.Specs {
		if !filepath.IsAbs(specPath) && basePath != "" {
			scenario.Specs[i] = filepath.Join(basePath, specPath)
		}
	}

	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return scenario, nil
}

// ParseScenario decodes scenario YAML without resolving or validating it.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Specs) == 0 {
		return fmt.Errorf("specs list is required and must be non-empty")
	}

	if s.Function == "" {
		return fmt.Errorf("function is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for _, specPath := range s.Specs {
		if _, err := os.Stat(specPath); os.IsNotExist(err) {
			return fmt.Errorf("spec file not found: %s", specPath)
		}
	}

	for i := range s.Steps {
		if err := validateStep(i, &s.Steps[i]); err != nil {
			return err
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i], len(s.Steps)); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, st *Step) error {
	if _, err := store.ParseRunKind(string(st.Kind)); err != nil {
		return fmt.Errorf("steps[%d]: %w", index, err)
	}
	if st.At == nil {
		return fmt.Errorf("steps[%d]: at is required (use empty map if the function has no variables)", index)
	}
	if st.Degree < 0 || st.Order < 0 {
		return fmt.Errorf("steps[%d]: degree and order must be non-negative", index)
	}
	if st.Expect == nil {
		return nil
	}
	if st.Expect.Error != "" && len(st.Expect.Coefficients) > 0 {
		return fmt.Errorf("steps[%d].expect: error and coefficients are exclusive", index)
	}
	if st.Expect.Tolerance < 0 {
		return fmt.Errorf("steps[%d].expect: tolerance must be non-negative", index)
	}
	for j, c := range st.Expect.Coefficients {
		if c.Component == "" {
			return fmt.Errorf("steps[%d].expect.coefficients[%d]: component is required", index, j)
		}
		if c.K < 0 {
			return fmt.Errorf("steps[%d].expect.coefficients[%d]: k must be non-negative", index, j)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, steps int) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	inRange := func(i int) bool { return i >= 0 && i < steps }

	switch a.Type {
	case AssertSeriesSum:
		if !inRange(a.Step) {
			return fmt.Errorf("assertions[%d]: step %d out of range for series_sum", index, a.Step)
		}
		if a.Component == "" {
			return fmt.Errorf("assertions[%d]: component is required for series_sum", index)
		}
	case AssertStepsAgree:
		if len(a.Steps) != 2 {
			return fmt.Errorf("assertions[%d]: steps_agree needs exactly two steps", index)
		}
		for _, i := range a.Steps {
			if !inRange(i) {
				return fmt.Errorf("assertions[%d]: step %d out of range for steps_agree", index, i)
			}
		}
	case AssertRunCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for run_count", index)
		}
		if a.Kind != "" {
			if _, err := store.ParseRunKind(string(a.Kind)); err != nil {
				return fmt.Errorf("assertions[%d]: %w", index, err)
			}
		}
	case AssertDeterministic:
		for _, i := range a.Steps {
			if !inRange(i) {
				return fmt.Errorf("assertions[%d]: step %d out of range for deterministic", index, i)
			}
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	if a.Tolerance < 0 {
		return fmt.Errorf("assertions[%d]: tolerance must be non-negative", index)
	}
	return nil
}
