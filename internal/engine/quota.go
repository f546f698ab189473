package engine

import (
	"errors"
	"fmt"
)

// QuotaEnforcer bounds the number of signals a single tick may process.
//
// A well-formed network drains its queue in finite steps; a relay loop or a
// gate feedback loop that never settles does not. The quota turns such a
// tick into an error instead of a hang. A limit of 0 disables the check.
type QuotaEnforcer struct {
	maxSteps int64
	current  int64
}

// NewQuotaEnforcer creates an enforcer with the given limit.
func NewQuotaEnforcer(maxSteps int64) *QuotaEnforcer {
	return &QuotaEnforcer{maxSteps: maxSteps}
}

// Check counts one step and validates it against the limit.
func (q *QuotaEnforcer) Check(tick int64) error {
	q.current++
	if q.maxSteps > 0 && q.current > q.maxSteps {
		return &StepsExceededError{
			Tick:  tick,
			Steps: q.current,
			Limit: q.maxSteps,
		}
	}
	return nil
}

// Reset resets the step counter for the next tick.
func (q *QuotaEnforcer) Reset() {
	q.current = 0
}

// StepsExceededError is returned when a tick processes more signals than
// the configured budget.
type StepsExceededError struct {
	Tick  int64
	Steps int64
	Limit int64
}

func (e *StepsExceededError) Error() string {
	return fmt.Sprintf("tick %d exceeded max steps: %d steps > %d limit", e.Tick, e.Steps, e.Limit)
}

// IsStepsExceededError returns true if the error is a StepsExceededError.
// Uses errors.As to handle wrapped errors.
func IsStepsExceededError(err error) bool {
	var se *StepsExceededError
	return errors.As(err, &se)
}
