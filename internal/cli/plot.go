package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/roach88/jetdag/internal/engine"
	"github.com/roach88/jetdag/internal/store"
)

// PlotOptions holds flags for the plot command.
type PlotOptions struct {
	*RootOptions
	Request RequestOptions
	Horizon float64
	Samples int
	Out     string
	Width   float64 // inches
	Height  float64 // inches
}

// PlotResult describes a written plot.
type PlotResult struct {
	Function   string   `json:"function"`
	File       string   `json:"file"`
	Components []string `json:"components"`
	From       string   `json:"from"`
	To         string   `json:"to"`
	Samples    int      `json:"samples"`
}

// NewPlotCommand creates the plot command.
func NewPlotCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlotOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "plot <specs-dir>",
		Short: "Plot the truncated Taylor solution of an ODE",
		Long: `Plot the truncated Taylor series of the solution of x' = f(x, t)
through (x0, t0) over [t0, t0 + horizon]. The image format follows the
extension of --out (png, svg, pdf, ...).

Example:
  jetdag plot ./specs -f lorenz --at x=1,y=2,z=3 --order 12 --horizon 0.2 --out lorenz.png`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlot(opts, args[0], cmd)
		},
	}

	addRequestFlags(cmd, &opts.Request, 0, 10)
	cmd.Flags().Float64Var(&opts.Horizon, "horizon", 1, "length of the plotted time interval")
	cmd.Flags().IntVar(&opts.Samples, "samples", 200, "number of sample points")
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "output image file (required)")
	_ = cmd.MarkFlagRequired("out")
	cmd.Flags().Float64Var(&opts.Width, "width", 6, "image width in inches")
	cmd.Flags().Float64Var(&opts.Height, "height", 4, "image height in inches")

	return cmd
}

func runPlot(opts *PlotOptions, specsDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	switch {
	case opts.Horizon <= 0:
		return outputRequestError(formatter, errors.New("--horizon must be positive"))
	case opts.Samples < 2:
		return outputRequestError(formatter, errors.New("--samples must be at least 2"))
	}

	ev, err := evaluate(cmd, formatter, opts.RootOptions, specsDir, &opts.Request, store.KindODE, "", nil)
	if err != nil {
		return err
	}

	p := solutionPlot(ev.Outcome.Jet, opts.Request.Function, opts.Request.Time, opts.Horizon)
	if err := addSolutionLines(p, ev.Outcome.Jet, opts.Request.Time, opts.Horizon, opts.Samples); err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "building plot", err)
	}
	if err := p.Save(vg.Length(opts.Width)*vg.Inch, vg.Length(opts.Height)*vg.Inch, opts.Out); err != nil {
		_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "writing plot", err)
	}
	formatter.VerboseLog("Wrote %s", opts.Out)

	result := PlotResult{
		Function:   opts.Request.Function,
		File:       opts.Out,
		Components: ev.Outcome.Jet.Names,
		From:       formatValue(opts.Request.Time),
		To:         formatValue(opts.Request.Time + opts.Horizon),
		Samples:    opts.Samples,
	}
	if opts.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ Plotted %v over [%s, %s] to %s\n", result.Components, result.From, result.To, result.File)
	return nil
}

func solutionPlot(j *engine.Jet, name string, t0, horizon float64) *plot.Plot {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s: Taylor solution of order %d", name, j.Order)
	p.X.Label.Text = "t"
	p.Y.Label.Text = "x(t)"
	p.X.Min = t0
	p.X.Max = t0 + horizon
	p.Add(plotter.NewGrid())
	return p
}

// addSolutionLines samples the zero multi-index series of every component.
func addSolutionLines(p *plot.Plot, j *engine.Jet, t0, horizon float64, samples int) error {
	lines := make([]plotter.XYs, len(j.Names))
	for c := range lines {
		lines[c] = make(plotter.XYs, samples)
	}
	for i := 0; i < samples; i++ {
		h := horizon * float64(i) / float64(samples-1)
		sums := j.SumSeries(h)
		for c := range lines {
			lines[c][i].X = t0 + h
			lines[c][i].Y = sums[c][0]
		}
	}

	args := make([]any, 0, 2*len(lines))
	for c, xys := range lines {
		args = append(args, j.Names[c], xys)
	}
	return plotutil.AddLines(p, args...)
}
