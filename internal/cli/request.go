package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/jetdag/internal/engine"
	"github.com/roach88/jetdag/internal/harness"
	"github.com/roach88/jetdag/internal/ir"
	"github.com/roach88/jetdag/internal/store"
)

// RequestOptions holds the evaluation flags shared by eval, ode and plot.
type RequestOptions struct {
	Function string
	At       []string // name=value
	Params   []string // name=value
	Time     float64
	Degree   int
	Order    int
	Mask     string // "1,0;0,2"
	Generic  bool
}

func addRequestFlags(cmd *cobra.Command, r *RequestOptions, degree, order int) {
	cmd.Flags().StringVarP(&r.Function, "function", "f", "", "function to evaluate (required)")
	_ = cmd.MarkFlagRequired("function")
	cmd.Flags().StringSliceVar(&r.At, "at", nil, "expansion point, e.g. x=1,y=2")
	cmd.Flags().StringSliceVarP(&r.Params, "param", "p", nil, "parameter overrides, e.g. a=1")
	cmd.Flags().Float64Var(&r.Time, "time", 0, "time origin t0")
	cmd.Flags().IntVarP(&r.Degree, "degree", "d", degree, "jet degree in the space variables")
	cmd.Flags().IntVarP(&r.Order, "order", "n", order, "number of time coefficients")
	cmd.Flags().StringVar(&r.Mask, "mask", "", "exponent vectors to compute, e.g. 1,0;0,2")
	cmd.Flags().BoolVar(&r.Generic, "generic", false, "use the generic kernels for every degree")
}

// request builds the harness request for kind from the flags.
func (r *RequestOptions) request(kind store.RunKind) (harness.Request, error) {
	point, err := parseAssignments("at", r.At)
	if err != nil {
		return harness.Request{}, err
	}
	params, err := parseAssignments("param", r.Params)
	if err != nil {
		return harness.Request{}, err
	}
	mask, err := parseMask(r.Mask)
	if err != nil {
		return harness.Request{}, err
	}
	if len(params) == 0 {
		params = nil
	}
	return harness.Request{
		Kind:   kind,
		Point:  point,
		Params: params,
		Time:   r.Time,
		Degree: r.Degree,
		Order:  r.Order,
		Mask:   mask,
	}, nil
}

func (r *RequestOptions) engineOptions(logger *slog.Logger) []engine.EngineOption {
	opts := []engine.EngineOption{engine.WithLogger(logger)}
	if r.Generic {
		opts = append(opts, engine.WithGenericKernels())
	}
	return opts
}

// parseAssignments parses name=value pairs.
func parseAssignments(flag string, pairs []string) (map[string]float64, error) {
	out := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("--%s: expected name=value, got %q", flag, pair)
		}
		if _, dup := out[name]; dup {
			return nil, fmt.Errorf("--%s: %s given twice", flag, name)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("--%s: %s: %w", flag, name, err)
		}
		out[name] = v
	}
	return out, nil
}

// parseMask parses exponent vectors separated by ';'.
func parseMask(s string) ([][]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var mask [][]int
	for _, entry := range strings.Split(s, ";") {
		var exps []int
		for _, field := range strings.Split(entry, ",") {
			e, err := strconv.Atoi(strings.TrimSpace(field))
			if err != nil {
				return nil, fmt.Errorf("--mask: bad exponent vector %q", entry)
			}
			exps = append(exps, e)
		}
		mask = append(mask, exps)
	}
	return mask, nil
}

// CoefficientView is one coefficient as printed by the CLI.
type CoefficientView struct {
	Component string `json:"component"`
	Exponents []int  `json:"exponents"`
	K         int    `json:"k"`
	Value     string `json:"value"`
}

func coefficientViews(coeffs []store.Coefficient) []CoefficientView {
	views := make([]CoefficientView, len(coeffs))
	for i, c := range coeffs {
		views[i] = CoefficientView{
			Component: c.Component,
			Exponents: c.Exponents,
			K:         c.Coeff,
			Value:     formatValue(c.Value),
		}
	}
	return views
}

// storeRun writes the graph and the evaluated run to the database at
// path and returns the run id. Seq numbers continue after the highest one
// already stored.
func storeRun(ctx context.Context, logger *slog.Logger, path string, ids engine.RunIDGenerator, g *ir.Graph, req harness.Request, coeffs []store.Coefficient) (string, error) {
	st, err := store.Open(path)
	if err != nil {
		return "", fmt.Errorf("open database: %w", err)
	}
	defer st.Close()

	graphID, err := st.WriteGraph(ctx, g)
	if err != nil {
		return "", err
	}
	last, err := st.GetLastSeq(ctx)
	if err != nil {
		return "", err
	}
	if ids == nil {
		ids = engine.UUIDv7Generator{}
	}

	run := harness.NewRun(ids.Generate(), graphID, engine.NewClockAt(last).Next(), req)
	run.Coefficients = coeffs
	if err := st.WriteRun(ctx, run); err != nil {
		return "", err
	}
	logger.Debug("stored run", "id", run.ID, "graph", graphID, "seq", run.Seq)
	return run.ID, nil
}

// outputEvalError reports a failed evaluation. Bad requests are command
// errors; failures inside the engine, such as DOMAIN, are failures.
func outputEvalError(formatter *OutputFormatter, err error) error {
	var re *engine.RuntimeError
	if errors.As(err, &re) {
		var details any
		if len(re.Details) > 0 {
			details = re.Details
		}
		_ = formatter.Error(string(re.Code), re.Error(), details)
		code := ExitFailure
		if re.Code == engine.ErrCodeInvalidInput {
			code = ExitCommandError
		}
		return WrapExitError(code, "evaluation failed", err)
	}
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		e := toCLIError(err)
		_ = formatter.Error(e.Code, e.Message, nil)
		return WrapExitError(ExitCommandError, "loading function", err)
	}
	_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
	return WrapExitError(ExitCommandError, "evaluation failed", err)
}

func outputRequestError(formatter *OutputFormatter, err error) error {
	_ = formatter.Error(ErrCodeBadRequest, err.Error(), nil)
	return WrapExitError(ExitCommandError, "bad request", err)
}

// evaluation is a request answered by the engine, and stored when --db is
// set.
type evaluation struct {
	Graph   *ir.Graph
	Request harness.Request
	Outcome *harness.Outcome
	RunID   string
}

// evaluate loads the function, answers the request and stores it. Errors
// are written to the formatter and returned as ExitErrors.
func evaluate(cmd *cobra.Command, formatter *OutputFormatter, rootOpts *RootOptions, specsDir string,
	r *RequestOptions, kind store.RunKind, database string, ids engine.RunIDGenerator) (*evaluation, error) {
	req, err := r.request(kind)
	if err != nil {
		return nil, outputRequestError(formatter, err)
	}
	if r.Generic && database != "" {
		return nil, outputRequestError(formatter, errors.New("--generic runs cannot be stored: replay uses the default kernels"))
	}

	g, err := LoadFunction(specsDir, r.Function)
	if err != nil {
		return nil, outputEvalError(formatter, err)
	}
	formatter.VerboseLog("Compiled %s: %d node(s)", r.Function, len(g.Nodes))

	logger := newLogger(rootOpts)
	out, err := harness.Evaluate(g, req, r.engineOptions(logger)...)
	if err != nil {
		return nil, outputEvalError(formatter, err)
	}

	ev := &evaluation{Graph: g, Request: req, Outcome: out}
	if database != "" {
		ev.RunID, err = storeRun(commandContext(cmd), logger, database, ids, g, req, out.Coefficients)
		if err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
			return nil, WrapExitError(ExitCommandError, "storing run", err)
		}
	}
	return ev, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func printCoefficients(w io.Writer, coeffs []store.Coefficient) {
	for _, c := range coeffs {
		fmt.Fprintf(w, "  %-8s %-12s k=%-3d %s\n", c.Component, formatExponents(c.Exponents), c.Coeff, formatValue(c.Value))
	}
}

func formatExponents(e []int) string {
	parts := make([]string, len(e))
	for i, v := range e {
		parts[i] = strconv.Itoa(v)
	}
	return "(" + strings.Join(parts, ",") + ")"
}
