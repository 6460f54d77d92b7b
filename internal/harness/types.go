package harness

import "github.com/roach88/chordkit/internal/diagram"

// StepTrace records the state after one step.
type StepTrace struct {
	Index    int    `json:"index"`
	Action   string `json:"action"`
	Changed  bool   `json:"changed"`
	Revision int64  `json:"revision"`

	// Grid is the cell grid with any drag highlight, one fret per line.
	Grid string `json:"grid"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every step ran as scripted and every expectation held.
	Pass bool `json:"pass"`

	// Errors holds a message per failed step or expectation.
	Errors []string `json:"errors,omitempty"`

	// Trace has one entry per step, in order.
	Trace []StepTrace `json:"trace"`

	// Final is the diagram after the last step.
	Final diagram.Diagram `json:"final"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
		Trace:  []StepTrace{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
