package driver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/pulse/internal/engine"
	"github.com/roach88/pulse/internal/ir"
)

// Aggregate runs exactly n ticks on eng with no abort condition and returns
// the summed counts.
func Aggregate(ctx context.Context, eng *engine.Engine, trigger ir.NodeID, n int64, opts ...Option) (ir.Counts, error) {
	var total ir.Counts
	if n < 0 {
		return total, fmt.Errorf("press count must not be negative: %d", n)
	}
	cfg := newConfig(opts)

	var detector *engine.CycleDetector
	var history []ir.Counts
	if cfg.cycleSkip {
		detector = engine.NewCycleDetector(cfg.stateLimit)
		detector.Observe(eng.Network().Fingerprint(), 0)
	}

	for i := int64(1); i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		res, err := eng.Tick(trigger, nil)
		if err != nil {
			return total, fmt.Errorf("press %d: %w", i, err)
		}
		total = total.Add(res.Counts)

		if detector == nil {
			continue
		}
		history = append(history, res.Counts)
		start, repeated := detector.Observe(eng.Network().Fingerprint(), i)
		if !repeated {
			if detector.Full() {
				slog.Debug("cycle detection gave up", "states", detector.Len(), "press", i)
				detector, history = nil, nil
			}
			continue
		}

		period := i - start
		var cycle ir.Counts
		for _, c := range history[start:i] {
			cycle = cycle.Add(c)
		}
		remaining := n - i
		skipped, err := cycle.Scale(remaining / period)
		if err == nil {
			total, err = total.CheckedAdd(skipped)
		}
		if err != nil {
			return total, fmt.Errorf("extrapolate %d cycles of %d presses: %w", remaining/period, period, err)
		}
		slog.Debug("state cycle detected",
			"first_seen", start,
			"repeat", i,
			"period", period,
			"skipped_presses", remaining-remaining%period,
		)

		// The network is back in the state it had after press start, so
		// whole cycles leave it unchanged; only the tail must be simulated.
		for j := int64(0); j < remaining%period; j++ {
			res, err := eng.Tick(trigger, nil)
			if err != nil {
				return total, fmt.Errorf("press %d: %w", n-remaining%period+j+1, err)
			}
			if total, err = total.CheckedAdd(res.Counts); err != nil {
				return total, err
			}
		}
		return total, nil
	}
	return total, nil
}
