package cli

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/jetdag/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output   string // output file path
	Function string // compile only this function
}

// FunctionSummary describes one compiled graph.
type FunctionSummary struct {
	Name    string   `json:"name"`
	GraphID string   `json:"graph_id"`
	Vars    []string `json:"vars"`
	Time    string   `json:"time,omitempty"`
	Params  []string `json:"params,omitempty"`
	Outputs []string `json:"outputs"`
	Nodes   int      `json:"nodes"`
}

// CompilationResult holds the summaries of the compiled functions.
type CompilationResult struct {
	Functions []FunctionSummary `json:"functions"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <specs-dir>",
		Short: "Compile CUE function specs to canonical graphs",
		Long: `Compile the CUE function specs in a directory to optimized,
finalized expression graphs.

With --output the canonical JSON of the graphs is written to a file:
a single graph when one function is compiled, otherwise an object
keyed by function name.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")
	cmd.Flags().StringVarP(&opts.Function, "function", "f", "", "compile only this function")

	return cmd
}

func runCompile(opts *CompileOptions, specsDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	loadResult, loadErrors := LoadSpecs(specsDir, LoadModeCollectAll)
	if loadResult == nil && len(loadErrors) > 0 {
		var loadErr *LoadError
		if errors.As(loadErrors[0], &loadErr) {
			return outputCompileError(formatter, loadErr.Code, loadErr.Message)
		}
		return outputCompileError(formatter, ErrCodeGeneric, loadErrors[0].Error())
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, specsDir)
	for _, fn := range loadResult.Functions {
		formatter.VerboseLog("Compiled function: %s (%d nodes)", fn.Name, len(fn.Graph.Nodes))
	}

	if len(loadErrors) > 0 {
		return outputCompileErrors(formatter, loadErrors)
	}

	functions := loadResult.Functions
	if opts.Function != "" {
		g, err := loadResult.Function(opts.Function)
		if err != nil {
			e := toCLIError(err)
			return outputCompileError(formatter, e.Code, e.Message)
		}
		functions = []LoadedFunction{{Name: opts.Function, Graph: g}}
	}

	result := &CompilationResult{Functions: make([]FunctionSummary, 0, len(functions))}
	for _, fn := range functions {
		summary, err := summarize(fn)
		if err != nil {
			return outputCompileError(formatter, ErrCodeGeneric, err.Error())
		}
		result.Functions = append(result.Functions, summary)
	}

	if opts.Output != "" {
		if err := writeGraphsToFile(functions, opts.Output); err != nil {
			return outputCompileError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err))
		}
	}

	return outputCompileSuccess(formatter, result, opts.Output)
}

func summarize(fn LoadedFunction) (FunctionSummary, error) {
	g := fn.Graph
	id, err := ir.GraphID(g)
	if err != nil {
		return FunctionSummary{}, err
	}
	s := FunctionSummary{
		Name:    fn.Name,
		GraphID: id,
		Vars:    g.VarNames(),
		Params:  sortedKeys(g.Params),
		Nodes:   len(g.Nodes),
	}
	if g.Time != ir.NoOperand {
		s.Time = g.Nodes[g.Time].Name
	}
	for i, node := range g.Outputs {
		name := g.Nodes[node].Name
		if name == "" {
			name = fmt.Sprintf("out%d", i)
		}
		s.Outputs = append(s.Outputs, name)
	}
	return s, nil
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Compiled %d function(s)\n\n", len(result.Functions))
	for _, fn := range result.Functions {
		fmt.Fprintf(w, "  %s: %d var(s), %d node(s), outputs %v\n", fn.Name, len(fn.Vars), fn.Nodes, fn.Outputs)
		if formatter.Verbose {
			fmt.Fprintf(w, "    graph %s\n", fn.GraphID)
		}
	}
	fmt.Fprintln(w)

	if outputFile != "" {
		fmt.Fprintf(w, "Wrote canonical IR to %s\n", outputFile)
	}
	return nil
}

// outputCompileError outputs a single compilation error.
func outputCompileError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputCompileErrors outputs every function that failed to compile.
func outputCompileErrors(formatter *OutputFormatter, errs []error) error {
	exitErr := NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))

	if formatter.Format == "json" {
		cliErrors := make([]CLIError, len(errs))
		for i, err := range errs {
			cliErrors[i] = toCLIError(err)
		}
		if err := writeResponse(formatter.Writer, cliErrors, &cliErrors[0]); err != nil {
			return err
		}
		return exitErr
	}

	fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
	fmt.Fprintln(formatter.Writer)
	for _, err := range errs {
		var loadErr *LoadError
		if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n",
				loadErr.Pos.Filename(),
				loadErr.Pos.Line(),
				loadErr.Pos.Column())
		}
		e := toCLIError(err)
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", e.Code, e.Message)
	}
	return exitErr
}

// toCLIError extracts the error code and message from a load error.
func toCLIError(err error) CLIError {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		msg := loadErr.Message
		if loadErr.Function != "" {
			msg = loadErr.Function + ": " + msg
		}
		return CLIError{Code: loadErr.Code, Message: msg}
	}
	return CLIError{Code: ErrCodeGeneric, Message: err.Error()}
}

// writeGraphsToFile writes the canonical JSON of the compiled graphs.
func writeGraphsToFile(functions []LoadedFunction, filename string) error {
	var (
		data []byte
		err  error
	)
	if len(functions) == 1 {
		data, err = ir.MarshalGraph(functions[0].Graph)
	} else {
		graphs := make(map[string]any, len(functions))
		for _, fn := range functions {
			graphs[fn.Name] = ir.CanonicalGraph(fn.Graph)
		}
		data, err = ir.MarshalCanonical(map[string]any{"functions": graphs})
	}
	if err != nil {
		return fmt.Errorf("marshaling IR: %w", err)
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}

// sortedKeys returns the keys of m in ascending order (nil when m is empty).
func sortedKeys[V any](m map[string]V) []string {
	var keys []string
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
