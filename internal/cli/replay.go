package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/jetdag/internal/engine"
	"github.com/roach88/jetdag/internal/harness"
	"github.com/roach88/jetdag/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
}

// ReplayRunResult holds the replay result for a single run.
type ReplayRunResult struct {
	RunID         string `json:"run_id"`
	Kind          string `json:"kind"`
	Seq           int64  `json:"seq"`
	Compared      int    `json:"compared"`
	Missing       int    `json:"missing"`
	Extra         int    `json:"extra"`
	Mismatches    int    `json:"mismatches"`
	FirstMismatch string `json:"first_mismatch,omitempty"`
	Deterministic bool   `json:"deterministic"`
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
		Use:   "replay [run-id]...",
		Short: "Recompute stored runs and verify determinism",
		Long: `Recompute stored runs from their graph and request and compare the
result with the stored coefficients bit for bit.

Without run ids every stored run is replayed, in seq order.

Exit codes:
  0 - All runs are deterministic
  1 - Determinism verification failed (differences detected)
  2 - Command error (database not found, unknown run, etc.)

Examples:
  jetdag replay --db ./runs.db
  jetdag replay --db ./runs.db 0190a3c1-...
  jetdag replay --db ./runs.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runReplay(opts *ReplayOptions, ids []string, cmd *cobra.Command) error {
	ctx := commandContext(cmd)

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if len(ids) == 0 {
		runs, err := st.ListRuns(ctx, "")
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
		for _, r := range runs {
			ids = append(ids, r.ID)
		}
	}

	if len(ids) == 0 {
		if opts.Format == "json" {
			return outputReplayJSON(cmd, ReplayResult{Runs: []ReplayRunResult{}, AllDeterministic: true})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No runs found in database.")
		return nil
	}

	recompute := harness.Recompute(engine.WithLogger(newLogger(opts.RootOptions)))
	result := ReplayResult{
		Runs:             make([]ReplayRunResult, 0, len(ids)),
		TotalRuns:        len(ids),
		AllDeterministic: true,
	}
	for _, id := range ids {
		run, err := st.ReadRun(ctx, id)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to read run %s", id), err)
		}
		rep, err := st.ReplayRun(ctx, id, recompute)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay run %s", id), err)
		}

		rr := ReplayRunResult{
			RunID:         id,
			Kind:          string(run.Kind),
			Seq:           run.Seq,
			Compared:      rep.Compared,
			Missing:       rep.Missing,
			Extra:         rep.Extra,
			Mismatches:    len(rep.Mismatches),
			Deterministic: rep.Deterministic(),
		}
		if len(rep.Mismatches) > 0 {
			m := rep.Mismatches[0]
			rr.FirstMismatch = fmt.Sprintf("%s%s k=%d stored %s replayed %s",
				m.Component, formatExponents(m.Exponents), m.Coeff, formatValue(m.Stored), formatValue(m.Replayed))
		}
		result.Runs = append(result.Runs, rr)
		if !rr.Deterministic {
			result.AllDeterministic = false
		}
	}

	if opts.Format == "json" {
		return outputReplayJSON(cmd, result)
	}
	return outputReplayText(cmd, result, opts.Verbose)
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(cmd *cobra.Command, result ReplayResult) error {
	var cliErr *CLIError
	if !result.AllDeterministic {
		cliErr = &CLIError{
			Code:    "E_DETERMINISM",
			Message: "determinism verification failed",
		}
	}
	if err := writeResponse(cmd.OutOrStdout(), result, cliErr); err != nil {
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
		fmt.Fprintf(w, "%s Run: %s (%s, seq %d)\n", status, run.RunID, run.Kind, run.Seq)
		fmt.Fprintf(w, "  Coefficients: %d compared\n", run.Compared)
		if verbose || !run.Deterministic {
			fmt.Fprintf(w, "  Mismatches: %d, missing: %d, extra: %d\n", run.Mismatches, run.Missing, run.Extra)
		}
		if run.FirstMismatch != "" {
			fmt.Fprintf(w, "  First mismatch: %s\n", run.FirstMismatch)
		}
		fmt.Fprintln(w)
	}

	if result.AllDeterministic {
		fmt.Fprintln(w, "✓ All runs verified deterministic")
		return nil
	}

	fmt.Fprintln(w, "✗ Determinism verification failed")
	return NewExitError(ExitFailure, "determinism verification failed")
}
