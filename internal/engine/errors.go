package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/pulse/internal/ir"
)

// RuntimeError represents a failure detected while running a tick.
//
// Runtime errors include:
//   - Unknown trigger: the trigger node is not declared
//   - Invalid trigger: the trigger is a gate, which has no button input
//   - Missing gate input: a gate received a signal it has no slot for
//   - Steps exceeded: the tick did not converge within the step budget
//
// The tick that produced the error is abandoned; node state already
// mutated by earlier deliveries in that tick is not rolled back.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Tick is the 1-based tick number within the engine's lifetime.
	Tick int64

	// Signal is the signal being processed when the error occurred, if any.
	Signal *ir.Signal

	// Err is the underlying cause.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeUnknownTrigger indicates the trigger is not a declared node.
	ErrCodeUnknownTrigger RuntimeErrorCode = "UNKNOWN_TRIGGER"

	// ErrCodeInvalidTrigger indicates the trigger cannot accept the button
	// signal.
	ErrCodeInvalidTrigger RuntimeErrorCode = "INVALID_TRIGGER"

	// ErrCodeMissingGateInput indicates a gate saw an unregistered source.
	ErrCodeMissingGateInput RuntimeErrorCode = "MISSING_GATE_INPUT"

	// ErrCodeStepsExceeded indicates the tick exceeded its step budget.
	ErrCodeStepsExceeded RuntimeErrorCode = "STEPS_EXCEEDED"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Signal != nil {
		return fmt.Sprintf("%s: %s (tick=%d, signal=%s)", e.Code, e.Message, e.Tick, e.Signal)
	}
	return fmt.Sprintf("%s: %s (tick=%d)", e.Code, e.Message, e.Tick)
}

// Unwrap exposes the underlying cause to errors.Is and errors.As.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// IsRuntimeError checks if an error is a RuntimeError.
func IsRuntimeError(err error) bool {
	var re *RuntimeError
	return errors.As(err, &re)
}

// HasCode reports whether err is a RuntimeError with the given code.
func HasCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	return errors.As(err, &re) && re.Code == code
}
