package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"

	"github.com/roach88/pulse/internal/circuit"
	"github.com/roach88/pulse/internal/driver"
	"github.com/roach88/pulse/internal/engine"
	"github.com/roach88/pulse/internal/ir"
	"github.com/roach88/pulse/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - specific run only
	MaxSteps int64
}

// ReplayRunResult holds the replay result for a single recorded run.
type ReplayRunResult struct {
	RunID         string `json:"run_id"`
	Seq           int64  `json:"seq"`
	Mode          string `json:"mode"`
	Answer        int64  `json:"answer"`
	Replayed      int64  `json:"replayed"`
	HashMatches   bool   `json:"hash_matches"`
	Deterministic bool   `json:"deterministic"`
	Diff          string `json:"diff,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Runs             []ReplayRunResult `json:"runs"`
	TotalRuns        int               `json:"total_runs"`
	AllDeterministic bool              `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-simulate recorded runs and verify determinism",
		Long: `Re-simulate every run in the run log from its stored network and
compare the fresh result with the recorded one.

Fixed runs are replayed press for press. Period runs re-measure the first
occurrence of each recorded target and recombine them.

Exit codes:
  0 - All runs reproduce
  1 - Determinism verification failed (differences detected)
  2 - Command error (database not found, etc.)

Examples:
  pulse replay --db ./pulse.db
  pulse replay --db ./pulse.db --run 0192...
  pulse replay --db ./pulse.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "replay specific run only")
	cmd.Flags().Int64Var(&opts.MaxSteps, "max-steps", 1_000_000, "abort a press after this many deliveries (0 = unlimited)")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd)

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var runs []ir.RunRecord
	if opts.RunID != "" {
		rec, err := st.ReadRun(ctx, opts.RunID)
		if errors.Is(err, store.ErrNotFound) {
			return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", opts.RunID))
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read run", err)
		}
		runs = []ir.RunRecord{rec}
	} else {
		runs, err = st.ListRuns(ctx, 0)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
	}

	if len(runs) == 0 {
		if opts.Format == "json" {
			return outputReplayJSON(cmd, ReplayResult{Runs: []ReplayRunResult{}, AllDeterministic: true})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No runs found in database.")
		return nil
	}

	result := ReplayResult{
		Runs:             make([]ReplayRunResult, 0, len(runs)),
		TotalRuns:        len(runs),
		AllDeterministic: true,
	}
	for _, rec := range runs {
		runResult, err := replayRun(ctx, rec, opts.MaxSteps)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay run %s", rec.ID), err)
		}
		result.Runs = append(result.Runs, runResult)
		if !runResult.Deterministic {
			result.AllDeterministic = false
		}
	}

	if opts.Format == "json" {
		return outputReplayJSON(cmd, result)
	}
	return outputReplayText(cmd, result, opts.Verbose)
}

// replayRun rebuilds the stored network and recomputes the run's answer.
func replayRun(ctx context.Context, rec ir.RunRecord, maxSteps int64) (ReplayRunResult, error) {
	out := ReplayRunResult{RunID: rec.ID, Seq: rec.Seq, Mode: rec.Mode, Answer: rec.Answer}

	hash, err := ir.NetworkHash(rec.Network)
	if err != nil {
		return out, fmt.Errorf("hash network: %w", err)
	}
	out.HashMatches = hash == rec.NetworkHash

	net, err := circuit.New(rec.Network)
	if err != nil {
		return out, fmt.Errorf("build network: %w", err)
	}
	engineOpts := []engine.Option{engine.WithMaxSteps(maxSteps)}

	replayed := rec
	switch rec.Mode {
	case ir.ModeFixed:
		counts, err := driver.Aggregate(ctx, engine.New(net, engineOpts...), rec.Trigger, rec.Presses)
		if err != nil {
			return out, err
		}
		replayed.Counts = counts
		if replayed.Answer, err = counts.Product(); err != nil {
			return out, err
		}
	case ir.ModeFirstOccurrence, ir.ModePeriod:
		targets := make([]ir.Condition, len(rec.Periods))
		for i, p := range rec.Periods {
			targets[i] = p.Condition
		}
		comp, err := driver.ComposePeriods(ctx, net, rec.Trigger, targets, driver.WithEngineOptions(engineOpts...))
		if err != nil {
			return out, err
		}
		replayed.Periods = comp.Periods
		replayed.Answer = comp.Answer
	default:
		return out, fmt.Errorf("unknown run mode %q", rec.Mode)
	}

	out.Replayed = replayed.Answer
	out.Diff = cmp.Diff(rec, replayed)
	out.Deterministic = out.HashMatches && out.Diff == ""
	return out, nil
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(cmd *cobra.Command, result ReplayResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	if !result.AllDeterministic {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_DETERMINISM",
			Message: "determinism verification failed",
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if !result.AllDeterministic {
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(cmd *cobra.Command, result ReplayResult, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Replay Summary: %d run(s)\n", result.TotalRuns)
	fmt.Fprintln(w)

	for _, run := range result.Runs {
		status := "✓"
		if !run.Deterministic {
			status = "✗"
		}
		fmt.Fprintf(w, "%s Run %d: %s (%s)\n", status, run.Seq, run.RunID, run.Mode)
		fmt.Fprintf(w, "  Answer: recorded %d, replayed %d\n", run.Answer, run.Replayed)
		if !run.HashMatches {
			fmt.Fprintln(w, "  Network hash does not match stored network")
		}
		if verbose && run.Diff != "" {
			fmt.Fprintf(w, "  Diff (-recorded +replayed):\n%s", run.Diff)
		}
	}

	fmt.Fprintln(w)
	if result.AllDeterministic {
		fmt.Fprintln(w, "✓ All runs are deterministic")
		return nil
	}

	fmt.Fprintln(w, "✗ Determinism verification failed")
	return NewExitError(ExitFailure, "determinism verification failed")
}
