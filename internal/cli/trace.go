package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/pulse/internal/engine"
	"github.com/roach88/pulse/internal/harness"
	"github.com/roach88/pulse/internal/ir"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Sim     SimOptions
	Presses int64
	Abort   string // optional abort condition, "node[:polarity]"
}

// TracePress is the trace of one press.
type TracePress struct {
	Press   int64                `json:"press"`
	High    int64                `json:"high"`
	Low     int64                `json:"low"`
	Aborted bool                 `json:"aborted"`
	Signals []harness.TraceEvent `json:"signals"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Network string       `json:"network"`
	Trigger string       `json:"trigger"`
	Presses []TracePress `json:"presses"`

	// Delivered is the logical clock after the last press: the number of
	// signals dequeued across all presses.
	Delivered int64 `json:"delivered"`
}

func (r TraceResult) String() string {
	var b strings.Builder
	for i, p := range r.Presses {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "press %d: %d high, %d low", p.Press, p.High, p.Low)
		if p.Aborted {
			b.WriteString(" (aborted)")
		}
		b.WriteByte('\n')
		for _, s := range p.Signals {
			fmt.Fprintf(&b, "  %4d  %s\n", s.Seq, s)
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace <network>",
		Short: "Print every signal of the first presses",
		Long: `Print every signal in processing order, as "source -polarity-> destination",
for the first presses of a network. Signals are numbered by a logical
clock that keeps counting across presses.

With --abort a press stops as soon as the given node emits the given
polarity; the aborting signal is still printed.

Examples:
  pulse trace input.txt
  pulse trace --presses 4 input.txt
  pulse trace --presses 8 --abort hub:low --format json input.txt`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, args[0], cmd)
		},
	}

	cmd.Flags().Int64VarP(&opts.Presses, "presses", "n", 1, "number of presses to trace")
	cmd.Flags().StringVar(&opts.Abort, "abort", "", "stop each press when node[:polarity] fires")
	bindSimFlags(cmd, &opts.Sim, "trigger", "max-steps", "strict", "lazy-gates")

	return cmd
}

func runTrace(opts *TraceOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	sim := &opts.Sim
	sim.mergeConfig(cmd, opts.Config)
	if err := sim.validate(); err != nil {
		return err
	}
	if opts.Presses < 1 {
		return NewExitError(ExitCommandError, fmt.Sprintf("--presses must be positive: %d", opts.Presses))
	}

	var abort *ir.Condition
	if opts.Abort != "" {
		cond, err := ir.ParseCondition(opts.Abort)
		if err != nil {
			_ = formatter.Error(ErrCodeBadFlag, err.Error(), nil)
			return WrapExitError(ExitCommandError, "invalid --abort", err)
		}
		abort = &cond
	}

	loaded, err := LoadNetwork(path, sim.circuitOptions()...)
	if err != nil {
		return outputLoadError(formatter, err)
	}

	result := TraceResult{
		Network: path,
		Trigger: sim.Trigger,
		Presses: []TracePress{},
	}
	var current *TracePress
	hooks := engine.Hooks{
		OnSignal: func(tick, seq int64, sig ir.Signal) {
			current.Signals = append(current.Signals, harness.TraceEvent{
				Tick:        tick,
				Seq:         seq,
				Source:      sig.Source.String(),
				Destination: sig.Destination.String(),
				Polarity:    sig.Polarity,
			})
		},
	}
	eng := engine.New(loaded.Network, sim.engineOptions(engine.WithHooks(hooks))...)

	for i := int64(1); i <= opts.Presses; i++ {
		press := TracePress{Press: i, Signals: []harness.TraceEvent{}}
		current = &press

		res, err := eng.Tick(sim.trigger(), abort)
		if err != nil {
			return outputSimulationError(formatter, err)
		}
		press.High, press.Low = res.High, res.Low
		press.Aborted = res.Aborted
		result.Presses = append(result.Presses, press)
	}
	result.Delivered = eng.Clock().Current()

	return formatter.Success(result)
}
