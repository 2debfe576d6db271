package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/jetdag/internal/store"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Database string
	Function string // optional - list runs of this function only
	Kind     string // optional - list runs of this kind only
}

// RunSummary is one stored run as listed by show.
type RunSummary struct {
	ID       string            `json:"id"`
	Seq      int64             `json:"seq"`
	Function string            `json:"function"`
	GraphID  string            `json:"graph_id"`
	Kind     string            `json:"kind"`
	Degree   int               `json:"degree"`
	Order    int               `json:"order"`
	Point    map[string]string `json:"point"`
	Params   map[string]string `json:"params,omitempty"`
	Time     string            `json:"time"`
	Mask     [][]int           `json:"mask,omitempty"`
}

// RunDetail is a run with its coefficients.
type RunDetail struct {
	RunSummary
	EngineVersion string            `json:"engine_version"`
	InputHash     string            `json:"input_hash"`
	Coefficients  []CoefficientView `json:"coefficients"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show [run-id]",
		Short: "List stored runs or show one run",
		Long: `List the runs stored in a database, ordered by seq, or print the
request and coefficients of a single run.

Examples:
  jetdag show --db ./runs.db
  jetdag show --db ./runs.db --function lorenz --kind ode
  jetdag show --db ./runs.db 0190a3c1-... --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runShowRun(opts, args[0], cmd)
			}
			return runShowList(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVarP(&opts.Function, "function", "f", "", "list runs of this function only")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "list runs of this kind only (value|jet|series|ode)")

	return cmd
}

func runShowList(opts *ShowOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd)

	filter := store.RunFilter{Function: opts.Function}
	if opts.Kind != "" {
		kind, err := store.ParseRunKind(opts.Kind)
		if err != nil {
			return outputRequestError(newFormatter(opts.RootOptions, cmd), fmt.Errorf("--kind: %w", err))
		}
		filter.Kind = kind
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	graphs, err := st.ListGraphs(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list graphs", err)
	}
	names := make(map[string]string, len(graphs))
	for _, g := range graphs {
		names[g.ID] = g.Name
	}

	runs, err := st.QueryRuns(ctx, filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}
	summaries := make([]RunSummary, 0, len(runs))
	for _, r := range runs {
		summaries = append(summaries, summarizeRun(r, names[r.GraphID]))
	}

	if opts.Format == "json" {
		return writeResponse(cmd.OutOrStdout(), summaries, nil)
	}

	w := cmd.OutOrStdout()
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No runs found in database.")
		return nil
	}
	fmt.Fprintf(w, "%d run(s)\n\n", len(summaries))
	for _, s := range summaries {
		fmt.Fprintf(w, "  %4d  %s  %-10s %-6s d=%d n=%d  at %s\n",
			s.Seq, s.ID, s.Function, s.Kind, s.Degree, s.Order, formatAssignments(s.Point))
	}
	return nil
}

func runShowRun(opts *ShowOptions, id string, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	run, err := st.ReadRun(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("run not found: %s", id), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", id))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	name := ""
	if g, err := st.ReadGraph(ctx, run.GraphID); err == nil {
		name = g.Name
	}
	detail := RunDetail{
		RunSummary:    summarizeRun(run, name),
		EngineVersion: run.EngineVersion,
		InputHash:     run.InputHash,
		Coefficients:  coefficientViews(run.Coefficients),
	}

	if opts.Format == "json" {
		return formatter.Success(detail)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Run %s (seq %d)\n", detail.ID, detail.Seq)
	fmt.Fprintf(w, "  Function: %s (graph %s)\n", detail.Function, detail.GraphID)
	fmt.Fprintf(w, "  Request:  %s, degree %d, order %d, t0=%s\n", detail.Kind, detail.Degree, detail.Order, detail.Time)
	fmt.Fprintf(w, "  Point:    %s\n", formatAssignments(detail.Point))
	if len(detail.Params) > 0 {
		fmt.Fprintf(w, "  Params:   %s\n", formatAssignments(detail.Params))
	}
	if len(detail.Mask) > 0 {
		fmt.Fprintf(w, "  Mask:     %v\n", detail.Mask)
	}
	fmt.Fprintln(w)
	printCoefficients(w, run.Coefficients)
	return nil
}

func summarizeRun(r store.Run, function string) RunSummary {
	s := RunSummary{
		ID:       r.ID,
		Seq:      r.Seq,
		Function: function,
		GraphID:  r.GraphID,
		Kind:     string(r.Kind),
		Degree:   r.Degree,
		Order:    r.Order,
		Point:    formatFloats(r.Point),
		Time:     formatValue(r.Time),
		Mask:     r.Mask,
	}
	if len(r.Params) > 0 {
		s.Params = formatFloats(r.Params)
	}
	return s
}

func formatFloats(m map[string]float64) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = formatValue(v)
	}
	return out
}

// formatAssignments renders name=value pairs sorted by name.
func formatAssignments(m map[string]string) string {
	parts := make([]string, 0, len(m))
	for _, k := range sortedKeys(m) {
		parts = append(parts, k+"="+m[k])
	}
	return strings.Join(parts, ",")
}
