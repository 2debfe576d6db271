// Package harness provides conformance testing for jetdag functions.
//
// The harness compiles a function from CUE specs, evaluates a sequence of
// requests against it, stores each result as a run and checks the
// outcomes.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: growth
//	description: "What this scenario validates"
//	specs:
//	  - ../specs/systems.cue
//	function: growth
//	steps:
//	  - kind: ode              # value, jet, series or ode
//	    at: {x: 1}
//	    params: {a: 2}
//	    degree: 1
//	    order: 4
//	    expect:
//	      coefficients:
//	        - {component: x, exponents: [1], k: 2, value: 2}
//	  - kind: value
//	    at: {x: -1}
//	    expect:
//	      error: DOMAIN
//	assertions:
//	  - type: series_sum
//	    step: 0
//	    component: x
//	    h: 0.1
//	    value: 1.2214
//	    tolerance: 1e-4
//	  - type: deterministic
//
// # Assertion Types
//
//   - series_sum: sums the time series of a component at h
//   - steps_agree: two steps produced the same coefficients within tolerance
//   - run_count: counts stored runs, optionally of one kind
//   - deterministic: replays stored runs and requires bit-identical results
//
// # Deterministic Testing
//
// The harness uses:
//   - Fixed run ids (prefix-0001, ...) from scenario.run_prefix or the name
//   - Deterministic logical clock (testutil.DeterministicClock)
//   - In-memory SQLite database (isolated per run)
//
// Golden snapshots keep ten significant digits per coefficient.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/growth.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, err := range result.Errors {
//	        log.Println(err)
//	    }
//	}
package harness
