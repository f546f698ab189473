package harness

import (
	"github.com/roach88/pulse/internal/ir"
)

// TraceEvent is one signal recorded during a traced press.
type TraceEvent struct {
	Tick        int64       `json:"tick"`
	Seq         int64       `json:"seq"`
	Source      string      `json:"source"`
	Destination string      `json:"destination"`
	Polarity    ir.Polarity `json:"polarity"`
}

// String renders the event the way assertions spell signals,
// e.g. "a -high-> inv".
func (e TraceEvent) String() string {
	return e.Source + " -" + e.Polarity.String() + "-> " + e.Destination
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// Counts are the aggregate totals over all presses.
	Counts ir.Counts `json:"counts"`

	// Trace holds every signal of the first trace_presses presses in
	// processing order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains one message per failed check. Empty if Pass is true.
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

// AddError records a failed check and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

func (r *Result) addTrace(tick, seq int64, sig ir.Signal) {
	r.Trace = append(r.Trace, TraceEvent{
		Tick:        tick,
		Seq:         seq,
		Source:      sig.Source.String(),
		Destination: sig.Destination.String(),
		Polarity:    sig.Polarity,
	})
}
