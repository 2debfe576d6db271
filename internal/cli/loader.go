package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/jetdag/internal/compiler"
	"github.com/roach88/jetdag/internal/ir"
)

// LoadMode controls how errors are handled during spec loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadedFunction is one compiled function of a specs directory.
type LoadedFunction struct {
	Name  string
	Graph *ir.Graph
}

// LoadResult contains the results of loading specs from a directory.
type LoadResult struct {
	Functions []LoadedFunction // in declaration order
	CUEValue  cue.Value
	FileCount int
}

// Function returns the compiled graph of the named function.
func (r *LoadResult) Function(name string) (*ir.Graph, error) {
	for _, fn := range r.Functions {
		if fn.Name == name {
			return fn.Graph, nil
		}
	}
	return nil, &LoadError{Code: ErrCodeUnknownFunction, Function: name, Message: "function not declared in specs"}
}

// LoadError represents an error that occurred during spec loading.
type LoadError struct {
	Code     string
	Function string // empty for directory-level errors
	Message  string
	Pos      token.Pos
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.Function != "" {
		msg = fmt.Sprintf("function %s: %s", e.Function, e.Message)
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, msg)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// LoadSpecs loads the CUE package in dir and compiles every function it
// declares. A nil result means the directory itself could not be loaded.
func LoadSpecs(dir string, mode LoadMode) (*LoadResult, []error) {
	value, fileCount, err := loadValue(dir)
	if err != nil {
		return nil, []error{err}
	}

	result := &LoadResult{CUEValue: value, FileCount: fileCount}
	names, err := compiler.FunctionNames(value)
	if err != nil {
		return result, []error{convertCompileError(err, "")}
	}
	if len(names) == 0 {
		return result, []error{&LoadError{Code: ErrCodeNoFunctions, Message: "no functions found in specs"}}
	}

	var errs []error
	for _, name := range names {
		fv, _ := compiler.LookupFunction(value, name)
		g, err := compiler.CompileFunction(fv)
		if err != nil {
			errs = append(errs, convertCompileError(err, name))
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		result.Functions = append(result.Functions, LoadedFunction{Name: name, Graph: g})
	}
	return result, errs
}

// LoadFunction compiles one named function from dir. Other functions in
// the package are not compiled, so their errors do not block it.
func LoadFunction(dir, name string) (*ir.Graph, error) {
	value, _, err := loadValue(dir)
	if err != nil {
		return nil, err
	}
	fv, ok := compiler.LookupFunction(value, name)
	if !ok {
		return nil, &LoadError{Code: ErrCodeUnknownFunction, Function: name, Message: "function not declared in specs"}
	}
	g, err := compiler.CompileFunction(fv)
	if err != nil {
		return nil, convertCompileError(err, name)
	}
	return g, nil
}

func loadValue(dir string) (cue.Value, int, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return cue.Value{}, 0, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("specs directory not found: %s", dir)}
	}
	if err != nil {
		return cue.Value{}, 0, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing specs directory: %v", err)}
	}
	if !info.IsDir() {
		return cue.Value{}, 0, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return cue.Value{}, 0, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(cueFiles) == 0 {
		return cue.Value{}, 0, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return cue.Value{}, 0, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return cue.Value{}, 0, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	value := cuecontext.New().BuildInstance(inst)
	if err := value.Err(); err != nil {
		return cue.Value{}, 0, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	}
	return value, len(cueFiles), nil
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertCompileError converts a compiler error to a LoadError with
// position info.
func convertCompileError(err error, function string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		code := compileErr.Code
		if code == "" {
			code = MapFieldToErrorCode(compileErr.Field)
		}
		return &LoadError{
			Code:     code,
			Function: function,
			Message:  compileErr.Field + ": " + compileErr.Message,
			Pos:      compileErr.Pos,
		}
	}
	return &LoadError{Code: ErrCodeGeneric, Function: function, Message: err.Error()}
}

// Error code constants - unified across all CLI commands. Spec validation
// failures carry the compiler's E1xx codes.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error

	ErrCodeNoFunctions     = "E008" // No function blocks in the specs
	ErrCodeUnknownFunction = "E009" // --function names nothing
	ErrCodeBadRequest      = "E010" // Malformed --at, --param or --mask

	// Malformed function fields, reported before validation runs.
	ErrCodeInvalidField = "E020" // vars, outputs or time
	ErrCodeInvalidParam = "E021" // params.<name>
	ErrCodeInvalidNode  = "E022" // nodes.<name>
)

// MapFieldToErrorCode maps a compiler error field to an error code.
func MapFieldToErrorCode(field string) string {
	switch {
	case field == "cue":
		return ErrCodeBuildFailed
	case field == "vars", field == "outputs", field == "time":
		return ErrCodeInvalidField
	case strings.HasPrefix(field, "params."):
		return ErrCodeInvalidParam
	case strings.HasPrefix(field, "nodes."):
		return ErrCodeInvalidNode
	default:
		return ErrCodeGeneric
	}
}
