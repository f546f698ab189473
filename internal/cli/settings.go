package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/pulse/internal/circuit"
	"github.com/roach88/pulse/internal/config"
	"github.com/roach88/pulse/internal/driver"
	"github.com/roach88/pulse/internal/engine"
	"github.com/roach88/pulse/internal/ir"
)

// SimOptions are the simulation settings shared by run, period and trace.
// Flags the user did not set fall back to the loaded config.
type SimOptions struct {
	Trigger     string
	Presses     int64
	MaxSteps    int64
	MaxTicks    int64
	Database    string
	Parallelism int
	Strict      bool
	LazyGates   bool
	CycleSkip   bool
	MetricsFile string
}

// bindSimFlags registers the named settings on cmd.
func bindSimFlags(cmd *cobra.Command, s *SimOptions, names ...string) {
	def := config.Default()
	f := cmd.Flags()
	for _, name := range names {
		switch name {
		case "trigger":
			f.StringVar(&s.Trigger, name, def.Trigger, "node the button feeds")
		case "presses":
			f.Int64VarP(&s.Presses, name, "n", def.Presses, "number of button presses")
		case "max-steps":
			f.Int64Var(&s.MaxSteps, name, def.MaxSteps, "per-press signal budget (0 = unlimited)")
		case "max-ticks":
			f.Int64Var(&s.MaxTicks, name, def.MaxTicks, "press budget for searches (0 = unlimited)")
		case "db":
			f.StringVar(&s.Database, name, def.Database, "SQLite run log (optional)")
		case "parallel":
			f.IntVar(&s.Parallelism, name, def.Parallelism, "concurrent searches (0 = GOMAXPROCS)")
		case "strict":
			f.BoolVar(&s.Strict, name, def.Strict, "reject undeclared destinations")
		case "lazy-gates":
			f.BoolVar(&s.LazyGates, name, def.LazyGateInputs, "let gates accept unwired inputs")
		case "cycle-skip":
			f.BoolVar(&s.CycleSkip, name, def.CycleSkip, "extrapolate repeated network states")
		case "metrics-file":
			f.StringVar(&s.MetricsFile, name, def.MetricsFile, "write Prometheus metrics to this file")
		default:
			panic(fmt.Sprintf("cli: unknown sim flag %q", name))
		}
	}
}

// mergeConfig fills every registered flag the user left unset from cfg.
func (s *SimOptions) mergeConfig(cmd *cobra.Command, cfg config.Config) {
	unset := func(name string) bool {
		fl := cmd.Flags().Lookup(name)
		return fl != nil && !fl.Changed
	}
	if unset("trigger") {
		s.Trigger = cfg.Trigger
	}
	if unset("presses") {
		s.Presses = cfg.Presses
	}
	if unset("max-steps") {
		s.MaxSteps = cfg.MaxSteps
	}
	if unset("max-ticks") {
		s.MaxTicks = cfg.MaxTicks
	}
	if unset("db") {
		s.Database = cfg.Database
	}
	if unset("parallel") {
		s.Parallelism = cfg.Parallelism
	}
	if unset("strict") {
		s.Strict = cfg.Strict
	}
	if unset("lazy-gates") {
		s.LazyGates = cfg.LazyGateInputs
	}
	if unset("cycle-skip") {
		s.CycleSkip = cfg.CycleSkip
	}
	if unset("metrics-file") {
		s.MetricsFile = cfg.MetricsFile
	}
}

func (s *SimOptions) validate() error {
	switch {
	case s.Trigger == "":
		return NewExitError(ExitCommandError, "--trigger must not be empty")
	case s.Presses < 0:
		return NewExitError(ExitCommandError, fmt.Sprintf("--presses must not be negative: %d", s.Presses))
	case s.MaxSteps < 0:
		return NewExitError(ExitCommandError, fmt.Sprintf("--max-steps must not be negative: %d", s.MaxSteps))
	case s.MaxTicks < 0:
		return NewExitError(ExitCommandError, fmt.Sprintf("--max-ticks must not be negative: %d", s.MaxTicks))
	case s.Parallelism < 0:
		return NewExitError(ExitCommandError, fmt.Sprintf("--parallel must not be negative: %d", s.Parallelism))
	}
	return nil
}

func (s *SimOptions) trigger() ir.NodeID {
	return ir.NodeID(s.Trigger)
}

func (s *SimOptions) circuitOptions() []circuit.Option {
	var opts []circuit.Option
	if s.Strict {
		opts = append(opts, circuit.WithStrictDestinations())
	}
	if s.LazyGates {
		opts = append(opts, circuit.WithLazyGateInputs())
	}
	return opts
}

func (s *SimOptions) engineOptions(extra ...engine.Option) []engine.Option {
	opts := []engine.Option{engine.WithMaxSteps(s.MaxSteps)}
	return append(opts, extra...)
}

func (s *SimOptions) driverOptions(extra ...engine.Option) []driver.Option {
	var opts []driver.Option
	if s.CycleSkip {
		opts = append(opts, driver.WithCycleSkip())
	}
	if s.MaxTicks > 0 {
		opts = append(opts, driver.WithMaxTicks(s.MaxTicks))
	}
	if s.Parallelism > 0 {
		opts = append(opts, driver.WithParallelism(s.Parallelism))
	}
	return append(opts, driver.WithEngineOptions(s.engineOptions(extra...)...))
}
