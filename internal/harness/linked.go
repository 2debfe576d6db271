package harness

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"

	"github.com/roach88/jetdag/internal/compiler"
)

// ScenarioNotFoundError is returned when a function references a scenario
// file that doesn't exist.
type ScenarioNotFoundError struct {
	Function     string
	ScenarioPath string
	ResolvedPath string
}

// Error implements the error interface.
func (e *ScenarioNotFoundError) Error() string {
	return fmt.Sprintf(
		"function %q references scenario file %q which does not exist (resolved to: %s)",
		e.Function,
		e.ScenarioPath,
		e.ResolvedPath,
	)
}

// ExtractScenarios returns the scenario files listed in a function block's
// optional `scenarios:` field, resolved relative to specDir. The compiler
// ignores the field.
//
//	function: decay: {
//		vars: ["x"]
//		...
//		scenarios: ["scenarios/decay.yaml"]
//	}
func ExtractScenarios(fn cue.Value, specDir string) ([]string, error) {
	name := ""
	if sels := fn.Path().Selectors(); len(sels) > 0 {
		name = sels[len(sels)-1].Unquoted()
	}

	lv := fn.LookupPath(cue.ParsePath("scenarios"))
	if !lv.Exists() {
		return []string{}, nil
	}
	iter, err := lv.List()
	if err != nil {
		return nil, fmt.Errorf("function %q: scenarios must be a list: %w", name, err)
	}

	var paths []string
	for iter.Next() {
		ref, err := iter.Value().String()
		if err != nil {
			return nil, fmt.Errorf("function %q: scenario entries must be strings: %w", name, err)
		}
		path := ref
		if !filepath.IsAbs(path) {
			path = filepath.Join(specDir, path)
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, &ScenarioNotFoundError{Function: name, ScenarioPath: ref, ResolvedPath: path}
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// ValidationResult summarizes a run of every scenario linked from a set of
// spec files.
type ValidationResult struct {
	TotalFunctions int               `json:"total_functions"`
	TotalScenarios int               `json:"total_scenarios"`
	Passed         int               `json:"passed"`
	Failed         int               `json:"failed"`
	Skipped        int               `json:"skipped"` // Functions without scenarios
	Failures       []ScenarioFailure `json:"failures,omitempty"`
}

// ScenarioFailure represents a linked scenario that failed to load, run or
// pass.
type ScenarioFailure struct {
	Function     string `json:"function"`
	ScenarioPath string `json:"scenario_path"`
	Error        string `json:"error"`
}

// ValidateLinkedScenarios runs every scenario referenced from the
// functions declared in specFiles.
//
// For each function:
// 1. Extract scenario file paths
// 2. Load scenarios
// 3. Run scenarios via harness.Run
// 4. Collect and report results
//
// Only unreadable or uncompilable spec files are returned as errors.
func ValidateLinkedScenarios(ctx context.Context, specFiles []string, opts ...Option) (*ValidationResult, error) {
	result := &ValidationResult{}
	fail := func(fn, path, format string, args ...any) {
		result.Failed++
		result.Failures = append(result.Failures, ScenarioFailure{
			Function:     fn,
			ScenarioPath: path,
			Error:        fmt.Sprintf(format, args...),
		})
	}

	for _, specFile := range specFiles {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		src, err := os.ReadFile(specFile)
		if err != nil {
			return result, fmt.Errorf("failed to read spec: %w", err)
		}
		v, err := compiler.LoadSource(specFile, src)
		if err != nil {
			return result, err
		}
		names, err := compiler.FunctionNames(v)
		if err != nil {
			return result, err
		}

		for _, name := range names {
			result.TotalFunctions++
			fv, _ := compiler.LookupFunction(v, name)
			scenarioPaths, err := ExtractScenarios(fv, filepath.Dir(specFile))
			if err != nil {
				fail(name, "", "%v", err)
				continue
			}
			if len(scenarioPaths) == 0 {
				result.Skipped++
				continue
			}

			for _, scenarioPath := range scenarioPaths {
				result.TotalScenarios++

				scenario, err := LoadScenario(scenarioPath)
				if err != nil {
					fail(name, scenarioPath, "failed to load scenario: %v", err)
					continue
				}
				if scenario.Function != name {
					fail(name, scenarioPath, "scenario tests function %q", scenario.Function)
					continue
				}

				runResult, err := Run(scenario, opts...)
				if err != nil {
					fail(name, scenarioPath, "scenario execution failed: %v", err)
					continue
				}
				if !runResult.Pass {
					fail(name, scenarioPath, "scenario assertions failed: %v", runResult.Errors)
					continue
				}

				result.Passed++
			}
		}
	}

	return result, nil
}
