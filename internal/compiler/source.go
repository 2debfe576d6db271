package compiler

import (
	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/jetdag/internal/ir"
)

// LoadSource compiles CUE source text into a value holding one or more
// `function:` blocks.
func LoadSource(filename string, src []byte) (cue.Value, error) {
	v := cuecontext.New().CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return cue.Value{}, formatCUEError(err)
	}
	return v, nil
}

// LookupFunction returns the block of the named function.
func LookupFunction(v cue.Value, name string) (cue.Value, bool) {
	fv := v.LookupPath(cue.MakePath(cue.Str("function"), cue.Str(name)))
	return fv, fv.Exists()
}

// FunctionNames lists the functions declared in v, in source order.
func FunctionNames(v cue.Value) ([]string, error) {
	fns := v.LookupPath(cue.ParsePath("function"))
	if !fns.Exists() {
		return nil, nil
	}
	iter, err := fns.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var names []string
	for iter.Next() {
		names = append(names, iter.Selector().Unquoted())
	}
	return names, nil
}

// CompileSource compiles the function called name from CUE source text.
func CompileSource(filename string, src []byte, name string) (*ir.Graph, error) {
	v, err := LoadSource(filename, src)
	if err != nil {
		return nil, err
	}
	fv, ok := LookupFunction(v, name)
	if !ok {
		return nil, &CompileError{Field: "function." + name, Message: "function not declared", Pos: v.Pos()}
	}
	return CompileFunction(fv)
}
