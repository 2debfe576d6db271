package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/jetdag/internal/engine"
	"github.com/roach88/jetdag/internal/store"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	Request  RequestOptions
	Mode     string // value | jet | series
	Database string // optional; stores the run

	// RunIDs overrides the run id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs engine.RunIDGenerator
}

// EvalResult is the output of eval and ode.
type EvalResult struct {
	Function     string            `json:"function"`
	Kind         string            `json:"kind"`
	RunID        string            `json:"run_id,omitempty"`
	Coefficients []CoefficientView `json:"coefficients"`
	Sums         []SumView         `json:"sums,omitempty"`
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	return newEvalCommand(&EvalOptions{RootOptions: rootOpts})
}

func newEvalCommand(opts *EvalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval <specs-dir>",
		Short: "Evaluate a function to values, jets or time series",
		Long: `Evaluate a compiled function at a point.

Modes:
  value   - output values
  jet     - output jets up to --degree in the space variables
  series  - time coefficients 0..--order of the outputs

With --db the graph and run are written to a SQLite database so the
result can be listed with show and checked with replay.

Exit codes:
  0 - Success
  1 - Evaluation failed (e.g. DOMAIN)
  2 - Command error (bad flags, unknown function, invalid input)

Examples:
  jetdag eval ./specs -f lorenz --at x=1,y=2,z=3 --mode value
  jetdag eval ./specs -f power --at x=2 --degree 3 --mode jet
  jetdag eval ./specs -f forced --at x=0 --order 5 --mode series --db runs.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(opts, args[0], cmd)
		},
	}

	addRequestFlags(cmd, &opts.Request, 1, 0)
	cmd.Flags().StringVar(&opts.Mode, "mode", "jet", "evaluation mode (value|jet|series)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database for storing the run")

	return cmd
}

func runEval(opts *EvalOptions, specsDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	kind, err := store.ParseRunKind(opts.Mode)
	if err != nil || kind == store.KindODE {
		return outputRequestError(formatter, fmt.Errorf("--mode: unknown mode %q (want value, jet or series)", opts.Mode))
	}

	ev, err := evaluate(cmd, formatter, opts.RootOptions, specsDir, &opts.Request, kind, opts.Database, opts.RunIDs)
	if err != nil {
		return err
	}

	result := EvalResult{
		Function:     opts.Request.Function,
		Kind:         string(kind),
		RunID:        ev.RunID,
		Coefficients: coefficientViews(ev.Outcome.Coefficients),
	}
	if opts.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ %s %s at %v\n", result.Function, result.Kind, ev.Request.Point)
	printCoefficients(w, ev.Outcome.Coefficients)
	if result.RunID != "" {
		fmt.Fprintf(w, "Stored run %s\n", result.RunID)
	}
	return nil
}
