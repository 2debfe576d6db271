package harness

import "github.com/roach88/jetdag/internal/store"

// TraceEvent records one executed step.
type TraceEvent struct {
	Step  int           `json:"step"`
	Kind  store.RunKind `json:"kind"`
	RunID string        `json:"run_id,omitempty"` // empty for steps that are not stored
	Seq   int64         `json:"seq,omitempty"`

	// Error is the runtime error code when the step failed.
	Error string `json:"error,omitempty"`

	Coefficients []store.Coefficient `json:"coefficients,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	// GraphID is the content hash of the compiled function.
	GraphID string `json:"graph_id"`

	// Trace has one event per step, in step order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends the event of a finished step.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}

// Step returns the event of step i, or nil if it did not run.
func (r *Result) Step(i int) *TraceEvent {
	for j := range r.Trace {
		if r.Trace[j].Step == i {
			return &r.Trace[j]
		}
	}
	return nil
}
