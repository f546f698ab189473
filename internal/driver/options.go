package driver

import (
	"runtime"

	"github.com/roach88/pulse/internal/engine"
)

// DefaultStateLimit caps how many distinct network states cycle skipping
// remembers before giving up and running the remaining presses plainly.
const DefaultStateLimit = 1 << 20

// Option configures a driver call.
type Option func(*config)

type config struct {
	cycleSkip   bool
	stateLimit  int
	maxTicks    int64
	parallelism int
	engineOpts  []engine.Option
}

func newConfig(opts []Option) config {
	cfg := config{
		stateLimit:  DefaultStateLimit,
		parallelism: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithCycleSkip lets Aggregate detect a repeated network state and
// extrapolate whole cycles instead of simulating them. Counts and the final
// network state are the same as a plain run; hooks and recorders only see
// the ticks actually simulated.
func WithCycleSkip() Option {
	return func(c *config) { c.cycleSkip = true }
}

// WithStateLimit bounds the states remembered by cycle skipping.
func WithStateLimit(n int) Option {
	return func(c *config) { c.stateLimit = n }
}

// WithMaxTicks bounds first-occurrence searches. 0 means unbounded.
func WithMaxTicks(n int64) Option {
	return func(c *config) { c.maxTicks = n }
}

// WithParallelism bounds how many period searches run at once.
func WithParallelism(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.parallelism = n
		}
	}
}

// WithEngineOptions applies opts to every engine a driver creates. Hooks and
// recorders passed here must be safe for concurrent use when the driver runs
// searches in parallel.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(c *config) { c.engineOpts = append(c.engineOpts, opts...) }
}
