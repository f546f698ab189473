package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/pulse/internal/circuit"
	"github.com/roach88/pulse/internal/engine"
	"github.com/roach88/pulse/internal/ir"
)

// ctxCheckInterval is how many presses run between context checks.
const ctxCheckInterval = 1024

// SearchExhaustedError is returned when a bounded search never sees its
// condition.
type SearchExhaustedError struct {
	Condition ir.Condition
	Ticks     int64
}

func (e *SearchExhaustedError) Error() string {
	return fmt.Sprintf("%s not observed within %d presses", e.Condition, e.Ticks)
}

// IsSearchExhaustedError reports whether err is or wraps a
// SearchExhaustedError.
func IsSearchExhaustedError(err error) bool {
	var se *SearchExhaustedError
	return errors.As(err, &se)
}

// FirstOccurrence presses the trigger until a tick is aborted by cond and
// returns the 1-based index of that press, counted from eng's current state.
//
// Without WithMaxTicks the search is unbounded; a condition that never fires
// only stops when ctx is cancelled.
func FirstOccurrence(ctx context.Context, eng *engine.Engine, trigger ir.NodeID, cond ir.Condition, opts ...Option) (int64, error) {
	cfg := newConfig(opts)

	for i := int64(1); ; i++ {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
		}
		if cfg.maxTicks > 0 && i > cfg.maxTicks {
			return 0, &SearchExhaustedError{Condition: cond, Ticks: cfg.maxTicks}
		}
		res, err := eng.Tick(trigger, &cond)
		if err != nil {
			return 0, fmt.Errorf("press %d: %w", i, err)
		}
		if res.Aborted {
			slog.Debug("first occurrence", "condition", cond.String(), "press", i)
			return i, nil
		}
	}
}

// Period measures the first occurrence of cond on a reset clone of net, so
// net itself is left untouched.
func Period(ctx context.Context, net *circuit.Network, trigger ir.NodeID, cond ir.Condition, opts ...Option) (int64, error) {
	cfg := newConfig(opts)
	clone := net.Clone()
	clone.Reset()
	return FirstOccurrence(ctx, engine.New(clone, cfg.engineOpts...), trigger, cond, opts...)
}
