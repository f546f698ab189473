package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/pulse/internal/circuit"
	"github.com/roach88/pulse/internal/driver"
	"github.com/roach88/pulse/internal/ir"
	"github.com/roach88/pulse/internal/store"
)

// PeriodOptions holds flags for the period command.
type PeriodOptions struct {
	*RunOptions
	Nodes []string // explicit targets, "node[:polarity]"
	Sink  string   // derive targets from the gate feeding this sink
}

// PeriodTarget is one measured first occurrence.
type PeriodTarget struct {
	Condition       string `json:"condition"`
	FirstOccurrence int64  `json:"first_occurrence"`
}

// PeriodResult is the outcome of the period command.
type PeriodResult struct {
	Network     string         `json:"network"`
	NetworkHash string         `json:"network_hash"`
	Trigger     string         `json:"trigger"`
	Targets     []PeriodTarget `json:"targets"`
	Answer      int64          `json:"answer"`
	Cached      bool           `json:"cached"`
}

func (r PeriodResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "network: %s (%s)\n", r.Network, shortHash(r.NetworkHash))
	for _, t := range r.Targets {
		fmt.Fprintf(&b, "  %-20s first at press %d\n", t.Condition, t.FirstOccurrence)
	}
	fmt.Fprintf(&b, "answer: %d", r.Answer)
	if r.Cached {
		b.WriteString(" (cached)")
	}
	return b.String()
}

// NewPeriodCommand creates the period command.
func NewPeriodCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PeriodOptions{RunOptions: &RunOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "period <network>",
		Short: "Find first occurrences and compose them by LCM",
		Long: `Measure, for every target, the first press on which the target node
emits the target polarity, starting from the initial state. The answer is
the least common multiple of those presses.

Targets are given with --node (repeatable, "node" means node:high) or
derived with --sink: the single gate feeding the sink is located and each
of its inputs becomes a high target. Searches run in parallel on
independent copies of the network.

The LCM is only meaningful when each target fires with an exact period
starting from the first press; this is not verified.

Example:
  pulse period --sink rx input.txt
  pulse period --node g1 --node g2:high --max-ticks 100000 input.txt`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPeriod(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Nodes, "node", nil, "target condition node[:high|low] (repeatable)")
	cmd.Flags().StringVar(&opts.Sink, "sink", "", "derive targets from the gate feeding this sink")
	bindSimFlags(cmd, &opts.Sim,
		"trigger", "max-steps", "max-ticks", "db", "parallel", "strict", "lazy-gates")

	return cmd
}

func runPeriod(opts *PeriodOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	sim := &opts.Sim
	sim.mergeConfig(cmd, opts.Config)
	if err := sim.validate(); err != nil {
		return err
	}
	if (len(opts.Nodes) == 0) == (opts.Sink == "") {
		_ = formatter.Error(ErrCodeBadFlag, "exactly one of --node or --sink is required", nil)
		return NewExitError(ExitCommandError, "exactly one of --node or --sink is required")
	}

	loaded, err := LoadNetwork(path, sim.circuitOptions()...)
	if err != nil {
		return outputLoadError(formatter, err)
	}

	var targets []ir.Condition
	if opts.Sink != "" {
		targets, err = SinkTargets(loaded.Network, ir.NodeID(opts.Sink))
	} else {
		targets, err = parseTargets(opts.Nodes)
	}
	if err != nil {
		_ = formatter.Error(ErrCodeBadFlag, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid targets", err)
	}

	mode := ir.ModePeriod
	if len(targets) == 1 {
		mode = ir.ModeFirstOccurrence
	}
	resultKey, err := ir.ResultKey(loaded.Hash, mode, map[string]any{
		"trigger":    sim.Trigger,
		"targets":    conditionStrings(targets),
		"lazy_gates": sim.LazyGates,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to compute result key", err)
	}

	result := PeriodResult{
		Network:     path,
		NetworkHash: loaded.Hash,
		Trigger:     sim.Trigger,
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var st *store.Store
	if sim.Database != "" {
		st, err = store.Open(sim.Database)
		if err != nil {
			_ = formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer st.Close()

		rec, found, err := st.FindByResultKey(ctx, resultKey)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to query run log", err)
		}
		if found {
			slog.Debug("result cache hit", "run_id", rec.ID, "result_key", resultKey)
			result.Targets = periodTargets(rec.Periods)
			result.Answer = rec.Answer
			result.Cached = true
			return formatter.SuccessWithRun(result, rec.ID)
		}
	}

	formatter.VerboseLog("Searching %d target(s) on %s", len(targets), path)
	comp, err := driver.ComposePeriods(ctx, loaded.Network, sim.trigger(), targets, sim.driverOptions()...)
	if err != nil {
		return outputSimulationError(formatter, err)
	}
	result.Targets = periodTargets(comp.Periods)
	result.Answer = comp.Answer

	var runID string
	if st != nil {
		runID = opts.nextRunID()
		rec := &ir.RunRecord{
			ID:          runID,
			ResultKey:   resultKey,
			NetworkHash: loaded.Hash,
			Network:     loaded.Decls,
			Mode:        mode,
			Trigger:     sim.trigger(),
			Answer:      comp.Answer,
			Periods:     comp.Periods,
		}
		if err := st.WriteRun(ctx, rec); err != nil {
			return WrapExitError(ExitCommandError, "failed to record run", err)
		}
		slog.Info("run recorded", "run_id", runID, "seq", rec.Seq)
	}

	return formatter.SuccessWithRun(result, runID)
}

// SinkTargets finds the single gate feeding sink and returns a high target
// for each of that gate's inputs.
func SinkTargets(net *circuit.Network, sink ir.NodeID) ([]ir.Condition, error) {
	feeders := net.Feeders(sink)
	if len(feeders) != 1 {
		return nil, fmt.Errorf("sink %s has %d feeders, want exactly one gate", sink, len(feeders))
	}
	node, ok := net.Node(feeders[0])
	if !ok {
		return nil, fmt.Errorf("feeder %s of sink %s is not declared", feeders[0], sink)
	}
	gate, ok := node.Behavior.(*circuit.Gate)
	if !ok {
		return nil, fmt.Errorf("feeder %s of sink %s is a %s, want a gate", node.ID, sink, node.Kind())
	}
	inputs := gate.Inputs()
	if len(inputs) == 0 {
		return nil, fmt.Errorf("gate %s has no inputs", node.ID)
	}
	targets := make([]ir.Condition, len(inputs))
	for i, in := range inputs {
		targets[i] = ir.Condition{Node: in, Polarity: ir.High}
	}
	return targets, nil
}

func parseTargets(specs []string) ([]ir.Condition, error) {
	targets := make([]ir.Condition, 0, len(specs))
	for _, s := range specs {
		cond, err := ir.ParseCondition(s)
		if err != nil {
			return nil, err
		}
		targets = append(targets, cond)
	}
	return targets, nil
}

func conditionStrings(conds []ir.Condition) []string {
	out := make([]string, len(conds))
	for i, c := range conds {
		out[i] = c.String()
	}
	return out
}

func periodTargets(periods []ir.PeriodRecord) []PeriodTarget {
	out := make([]PeriodTarget, len(periods))
	for i, p := range periods {
		out[i] = PeriodTarget{Condition: p.Condition.String(), FirstOccurrence: p.FirstOccurrence}
	}
	return out
}
