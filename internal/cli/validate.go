package cli

import (
	"errors"
	"fmt"
	"io"

	"cuelang.org/go/cue"
	"github.com/spf13/cobra"

	"github.com/roach88/jetdag/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool                       `json:"valid"`
	Functions int                        `json:"functions"`
	Errors    []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <specs-dir>",
		Short: "Validate function specs without writing output",
		Long: `Validate CUE function specs.

Reports every problem found: unknown operators, wrong arities, unknown
names, duplicate declarations, zero exponents and dependency cycles,
then checks the structure of the optimized graph.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, specsDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	value, fileCount, err := loadValue(specsDir)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			return outputValidateError(formatter, loadErr.Code, loadErr.Message)
		}
		return outputValidateError(formatter, ErrCodeGeneric, err.Error())
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", fileCount, specsDir)

	count, validationErrors := validateAll(value, formatter)
	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, count, validationErrors)
	}
	return outputValidateSuccess(formatter, count)
}

// validateAll validates every function in value without stopping at the
// first problem. It returns the number of functions seen.
func validateAll(value cue.Value, formatter *OutputFormatter) (int, []compiler.ValidationError) {
	names, err := compiler.FunctionNames(value)
	if err != nil {
		return 0, []compiler.ValidationError{fromCompileError(err, "")}
	}
	if len(names) == 0 {
		return 0, []compiler.ValidationError{{
			Field:   "specs",
			Message: "no functions found in specs",
			Code:    ErrCodeNoFunctions,
		}}
	}

	var allErrors []compiler.ValidationError
	for _, name := range names {
		formatter.VerboseLog("Validating function: %s", name)
		fv, _ := compiler.LookupFunction(value, name)

		spec, err := compiler.ParseFunction(fv)
		if err != nil {
			allErrors = append(allErrors, fromCompileError(err, name))
			continue
		}
		specErrs := compiler.Validate(spec)
		for _, e := range specErrs {
			e.Field = name + "." + e.Field
			allErrors = append(allErrors, e)
		}
		if len(specErrs) > 0 {
			continue
		}

		g, err := compiler.CompileFunction(fv)
		if err != nil {
			allErrors = append(allErrors, fromCompileError(err, name))
			continue
		}
		for _, e := range compiler.Validate(g) {
			e.Field = name + "." + e.Field
			allErrors = append(allErrors, e)
		}
	}
	return len(names), allErrors
}

// fromCompileError converts a parse or optimizer error into a validation
// error.
func fromCompileError(err error, function string) compiler.ValidationError {
	le := convertCompileError(err, function)
	ve := compiler.ValidationError{Field: function, Message: le.Message, Code: le.Code}
	if ve.Field == "" {
		ve.Field = "specs"
	}
	if le.Pos.IsValid() {
		ve.Line = le.Pos.Line()
	}
	return ve
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, count int) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Functions: count})
	}

	fmt.Fprintf(formatter.Writer, "✓ All specs valid (%d function(s))\n", count)
	return nil
}

// outputValidateError outputs a single directory-level error.
func outputValidateError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs every validation error. Invalid specs
// exit with ExitFailure.
func outputValidationErrors(formatter *OutputFormatter, count int, errs []compiler.ValidationError) error {
	exitErr := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))

	if formatter.Format == "json" {
		result := ValidationResult{Valid: false, Functions: count, Errors: errs}
		if err := writeResponse(formatter.Writer, result, &CLIError{
			Code:    errs[0].Code,
			Message: errs[0].Message,
		}); err != nil {
			return err
		}
		return exitErr
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}
	return exitErr
}

// ValidateSpecsDir validates all specs in a directory.
func ValidateSpecsDir(specsDir string) ([]compiler.ValidationError, error) {
	value, _, err := loadValue(specsDir)
	if err != nil {
		return nil, err
	}
	silent := &OutputFormatter{Format: "text", Writer: io.Discard}
	_, errs := validateAll(value, silent)
	return errs, nil
}
