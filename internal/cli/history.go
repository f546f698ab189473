package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/pulse/internal/ir"
	"github.com/roach88/pulse/internal/queryir"
	"github.com/roach88/pulse/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
	Mode     string // only runs of this mode
	Network  string // network hash or hash prefix
	Trigger  string
}

// HistoryEntry is one run in the history listing.
type HistoryEntry struct {
	Seq         int64    `json:"seq"`
	RunID       string   `json:"run_id"`
	Mode        string   `json:"mode"`
	NetworkHash string   `json:"network_hash"`
	Trigger     string   `json:"trigger"`
	Presses     int64    `json:"presses,omitempty"`
	Targets     []string `json:"targets,omitempty"`
	Answer      int64    `json:"answer"`
}

// HistoryResult is the run log listing.
type HistoryResult struct {
	Runs []HistoryEntry `json:"runs"`
}

func (r HistoryResult) String() string {
	if len(r.Runs) == 0 {
		return "No runs recorded."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-5s %-16s %-12s %-14s %s\n", "SEQ", "MODE", "NETWORK", "ANSWER", "DETAIL")
	for _, run := range r.Runs {
		detail := fmt.Sprintf("%d presses from %s", run.Presses, ir.NodeID(run.Trigger))
		if run.Mode != ir.ModeFixed {
			detail = strings.Join(run.Targets, ", ")
		}
		fmt.Fprintf(&b, "%-5d %-16s %-12s %-14d %s\n", run.Seq, run.Mode, shortHash(run.NetworkHash), run.Answer, detail)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		Long: `List the runs recorded in the run log, oldest first.

--mode, --network and --trigger narrow the listing; --network accepts the
abbreviated hash printed by run and period.

Examples:
  pulse history --db ./pulse.db
  pulse history --db ./pulse.db --mode period --network 3fa9c1
  pulse history --db ./pulse.db --limit 10 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "show only the most recent N runs (0 = all)")
	cmd.Flags().StringVar(&opts.Mode, "mode", "", "only runs of this mode (fixed|first-occurrence|period)")
	cmd.Flags().StringVar(&opts.Network, "network", "", "only runs of the network with this hash prefix")
	cmd.Flags().StringVar(&opts.Trigger, "trigger", "", "only runs pressing this trigger")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	if opts.Limit < 0 {
		_ = formatter.Error(ErrCodeBadFlag, "--limit must not be negative", nil)
		return NewExitError(ExitCommandError, "--limit must not be negative")
	}

	filter, err := historyFilter(opts)
	if err != nil {
		_ = formatter.Error(ErrCodeBadFlag, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid filter", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	runs, err := st.QueryRuns(commandContext(cmd), filter, opts.Limit)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	result := HistoryResult{Runs: make([]HistoryEntry, 0, len(runs))}
	for _, rec := range runs {
		entry := HistoryEntry{
			Seq:         rec.Seq,
			RunID:       rec.ID,
			Mode:        rec.Mode,
			NetworkHash: rec.NetworkHash,
			Trigger:     string(rec.Trigger),
			Answer:      rec.Answer,
		}
		if rec.Mode == ir.ModeFixed {
			entry.Presses = rec.Presses
		}
		for _, p := range rec.Periods {
			entry.Targets = append(entry.Targets, fmt.Sprintf("%s=%d", p.Condition, p.FirstOccurrence))
		}
		result.Runs = append(result.Runs, entry)
	}
	return formatter.Success(result)
}

// historyFilter builds the run log filter from the history flags.
func historyFilter(opts *HistoryOptions) (queryir.Predicate, error) {
	var preds []queryir.Predicate
	if opts.Mode != "" {
		switch opts.Mode {
		case ir.ModeFixed, ir.ModeFirstOccurrence, ir.ModePeriod:
		default:
			return nil, fmt.Errorf("unknown --mode %q", opts.Mode)
		}
		preds = append(preds, queryir.Equals{Field: "mode", Value: opts.Mode})
	}
	if opts.Network != "" {
		preds = append(preds, queryir.HasPrefix{Field: "network_hash", Prefix: strings.ToLower(opts.Network)})
	}
	if opts.Trigger != "" {
		preds = append(preds, queryir.Equals{Field: "trigger_node", Value: opts.Trigger})
	}
	return queryir.Where(preds...), nil
}
