package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/pulse/internal/circuit"
	"github.com/roach88/pulse/internal/engine"
	"github.com/roach88/pulse/internal/ir"
)

// ErrOverflow is returned when an LCM or an extrapolated count does not fit
// in int64.
var ErrOverflow = ir.ErrOverflow

// Composition is the result of ComposePeriods.
type Composition struct {
	// Periods holds one measured first occurrence per target, in target order.
	Periods []ir.PeriodRecord `json:"periods"`

	// Answer is the LCM of all measured indices.
	Answer int64 `json:"answer"`
}

// ComposePeriods measures the first occurrence of every target on its own
// reset clone of net and combines the indices with LCM. Searches run in
// parallel, bounded by WithParallelism; the first failure cancels the rest.
func ComposePeriods(ctx context.Context, net *circuit.Network, trigger ir.NodeID, targets []ir.Condition, opts ...Option) (Composition, error) {
	if len(targets) == 0 {
		return Composition{}, errors.New("no targets to compose")
	}
	cfg := newConfig(opts)

	// Clone up front: net is only read from this goroutine.
	clones := make([]*circuit.Network, len(targets))
	for i := range targets {
		clones[i] = net.Clone()
		clones[i].Reset()
	}

	indices := make([]int64, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.parallelism)
	for i, target := range targets {
		g.Go(func() error {
			eng := engine.New(clones[i], cfg.engineOpts...)
			idx, err := FirstOccurrence(gctx, eng, trigger, target, opts...)
			if err != nil {
				return fmt.Errorf("target %s: %w", target, err)
			}
			indices[i] = idx
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Composition{}, err
	}

	answer, err := LCM(indices...)
	if err != nil {
		return Composition{}, err
	}

	comp := Composition{Periods: make([]ir.PeriodRecord, len(targets)), Answer: answer}
	for i, target := range targets {
		comp.Periods[i] = ir.PeriodRecord{Condition: target, FirstOccurrence: indices[i]}
	}
	slog.Debug("periods composed", "targets", len(targets), "answer", answer)
	return comp, nil
}

// GCD returns the greatest common divisor of two non-negative integers.
func GCD(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// LCM returns the least common multiple of positive integers.
func LCM(values ...int64) (int64, error) {
	if len(values) == 0 {
		return 0, errors.New("lcm of no values")
	}
	result := int64(1)
	for _, v := range values {
		if v <= 0 {
			return 0, fmt.Errorf("lcm requires positive values, got %d", v)
		}
		step := result / GCD(result, v)
		if step > math.MaxInt64/v {
			return 0, fmt.Errorf("%w: lcm(%d, %d)", ErrOverflow, result, v)
		}
		result = step * v
	}
	return result, nil
}
