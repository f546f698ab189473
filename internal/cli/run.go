package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/pulse/internal/driver"
	"github.com/roach88/pulse/internal/engine"
	"github.com/roach88/pulse/internal/ir"
	"github.com/roach88/pulse/internal/metrics"
	"github.com/roach88/pulse/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Sim SimOptions

	// RunIDs allows overriding the run id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs engine.RunIDGenerator
}

// RunResult is the outcome of a fixed number of presses.
type RunResult struct {
	Network     string `json:"network"`
	NetworkHash string `json:"network_hash"`
	Trigger     string `json:"trigger"`
	Presses     int64  `json:"presses"`
	High        int64  `json:"high"`
	Low         int64  `json:"low"`
	Answer      int64  `json:"answer"`
	Cached      bool   `json:"cached"`
}

func (r RunResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "network: %s (%s)\n", r.Network, shortHash(r.NetworkHash))
	fmt.Fprintf(&b, "presses: %d from %s\n", r.Presses, ir.NodeID(r.Trigger))
	fmt.Fprintf(&b, "high:    %d\n", r.High)
	fmt.Fprintf(&b, "low:     %d\n", r.Low)
	fmt.Fprintf(&b, "answer:  %d", r.Answer)
	if r.Cached {
		b.WriteString(" (cached)")
	}
	return b.String()
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <network>",
		Short: "Press the button and count signals",
		Long: `Press the button a fixed number of times and report the high and low
signal totals and their product.

The network may be a text (.txt), YAML (.yaml) or CUE (.cue) description.
With --db the result is recorded in the run log and reused when the same
network, trigger and press count are requested again.

Example:
  pulse run input.txt
  pulse run --presses 1000 --db ./pulse.db input.txt
  pulse run --cycle-skip --presses 1000000000 input.txt`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPresses(opts, args[0], cmd)
		},
	}

	bindSimFlags(cmd, &opts.Sim,
		"trigger", "presses", "max-steps", "db", "strict", "lazy-gates", "cycle-skip", "metrics-file")

	return cmd
}

func runPresses(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	sim := &opts.Sim
	sim.mergeConfig(cmd, opts.Config)
	if err := sim.validate(); err != nil {
		return err
	}

	loaded, err := LoadNetwork(path, sim.circuitOptions()...)
	if err != nil {
		return outputLoadError(formatter, err)
	}

	resultKey, err := ir.ResultKey(loaded.Hash, ir.ModeFixed, map[string]any{
		"trigger":    sim.Trigger,
		"presses":    sim.Presses,
		"lazy_gates": sim.LazyGates,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to compute result key", err)
	}

	result := RunResult{
		Network:     path,
		NetworkHash: loaded.Hash,
		Trigger:     sim.Trigger,
		Presses:     sim.Presses,
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
			result.High, result.Low = rec.Counts.High, rec.Counts.Low
			result.Answer = rec.Answer
			result.Cached = true
			return formatter.SuccessWithRun(result, rec.ID)
		}
	}

	var collector *metrics.Collector
	var engineOpts []engine.Option
	if sim.MetricsFile != "" {
		collector = metrics.NewCollector()
		engineOpts = append(engineOpts, engine.WithRecorder(collector))
	}
	eng := engine.New(loaded.Network, sim.engineOptions(engineOpts...)...)

	formatter.VerboseLog("Running %d presses on %s (%d nodes)", sim.Presses, path, loaded.Network.Len())
	counts, err := driver.Aggregate(ctx, eng, sim.trigger(), sim.Presses, sim.driverOptions()...)
	if err != nil {
		return outputSimulationError(formatter, err)
	}
	result.High, result.Low = counts.High, counts.Low
	if result.Answer, err = counts.Product(); err != nil {
		return outputSimulationError(formatter, err)
	}

	if collector != nil {
		if err := collector.WriteTextfile(sim.MetricsFile); err != nil {
			return WrapExitError(ExitCommandError, "failed to write metrics", err)
		}
	}

	var runID string
	if st != nil {
		runID = opts.nextRunID()
		rec := &ir.RunRecord{
			ID:          runID,
			ResultKey:   resultKey,
			NetworkHash: loaded.Hash,
			Network:     loaded.Decls,
			Mode:        ir.ModeFixed,
			Trigger:     sim.trigger(),
			Presses:     sim.Presses,
			Counts:      counts,
			Answer:      result.Answer,
		}
		if err := st.WriteRun(ctx, rec); err != nil {
			return WrapExitError(ExitCommandError, "failed to record run", err)
		}
		slog.Info("run recorded", "run_id", runID, "seq", rec.Seq)
	}

	return formatter.SuccessWithRun(result, runID)
}

func (o *RunOptions) nextRunID() string {
	if o.RunIDs == nil {
		return engine.UUIDv7Generator{}.Generate()
	}
	return o.RunIDs.Generate()
}

// newFormatter builds the formatter every command writes through.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

// commandContext returns the command's context, or Background when the
// command is run without Execute (tests calling RunE directly).
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// outputLoadError reports a LoadError and returns a command error.
func outputLoadError(formatter *OutputFormatter, err error) error {
	code, message, line := ErrCodeGeneric, err.Error(), 0
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		code, message, line = loadErr.Code, loadErr.Message, loadErr.Line
	}
	var details any
	if line > 0 {
		details = map[string]int{"line": line}
	}
	_ = formatter.Error(code, message, details)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: failed to load network", code), err)
}

// outputSimulationError reports an engine or driver failure.
func outputSimulationError(formatter *OutputFormatter, err error) error {
	var details any
	if code, ok := runtimeCode(err); ok {
		details = map[string]string{"runtime_code": code}
	}
	_ = formatter.Error(ErrCodeSimulation, err.Error(), details)
	return WrapExitError(ExitCommandError, "simulation failed", err)
}

func runtimeCode(err error) (string, bool) {
	var re *engine.RuntimeError
	if errors.As(err, &re) {
		return string(re.Code), true
	}
	return "", false
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
