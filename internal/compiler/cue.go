package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/jetdag/internal/ir"
)

// FunctionSpec is the parsed form of one `function: <name>: {...}` block.
type FunctionSpec struct {
	Name    string
	Vars    []string
	Time    string
	Params  []ParamSpec
	Nodes   []NodeSpec
	Outputs []string
	Pos     token.Pos
}

// ParamSpec is a named parameter and its default value.
type ParamSpec struct {
	Name  string
	Value float64
}

// NodeSpec is one named operation.
type NodeSpec struct {
	Name string
	Op   string
	Args []Arg
	Pos  token.Pos
}

// Arg is an operand: a reference to another name, or a numeric literal.
type Arg struct {
	Ref   string
	Value float64
}

// IsRef reports whether the argument names another node.
func (a Arg) IsRef() bool { return a.Ref != "" }

func (a Arg) String() string {
	if a.IsRef() {
		return a.Ref
	}
	return fmt.Sprint(a.Value)
}

// opArity lists the operations accepted in function specs.
var opArity = map[string]int{
	"add": 2, "sub": 2, "mul": 2, "div": 2, "pow": 2,
	"neg": 1, "sqr": 1, "sqrt": 1, "exp": 1, "log": 1,
	"sin": 1, "cos": 1, "atan": 1, "asin": 1, "acos": 1,
}

// CompileFunction parses a CUE function block and returns its optimized,
// finalized graph.
//
// The CUE value should be the function struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(src)
//	g, err := CompileFunction(v.LookupPath(cue.ParsePath("function.lorenz")))
func CompileFunction(v cue.Value) (*ir.Graph, error) {
	spec, err := ParseFunction(v)
	if err != nil {
		return nil, err
	}
	g, err := spec.Build()
	if err != nil {
		return nil, err
	}
	return Optimize(g)
}

// ParseFunction extracts a FunctionSpec without resolving references.
func ParseFunction(v cue.Value) (*FunctionSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &FunctionSpec{Pos: v.Pos()}
	if labels := v.Path().Selectors(); len(labels) > 0 {
		spec.Name = labels[len(labels)-1].String()
	}

	var err error
	if spec.Vars, err = stringList(v, "vars", false); err != nil {
		return nil, err
	}
	if spec.Outputs, err = stringList(v, "outputs", true); err != nil {
		return nil, err
	}
	if timeVal := v.LookupPath(cue.ParsePath("time")); timeVal.Exists() {
		if spec.Time, err = timeVal.String(); err != nil {
			return nil, formatCUEError(err)
		}
	}
	if spec.Params, err = parseParams(v); err != nil {
		return nil, err
	}
	if spec.Nodes, err = parseNodes(v); err != nil {
		return nil, err
	}
	return spec, nil
}

func stringList(v cue.Value, field string, required bool) ([]string, error) {
	lv := v.LookupPath(cue.ParsePath(field))
	if !lv.Exists() {
		if required {
			return nil, &CompileError{Field: field, Message: field + " is required", Pos: v.Pos()}
		}
		return nil, nil
	}
	iter, err := lv.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{Field: field, Message: "entries must be strings", Pos: iter.Value().Pos()}
		}
		out = append(out, s)
	}
	return out, nil
}

func parseParams(v cue.Value) ([]ParamSpec, error) {
	pv := v.LookupPath(cue.ParsePath("params"))
	if !pv.Exists() {
		return nil, nil
	}
	iter, err := pv.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var params []ParamSpec
	for iter.Next() {
		f, err := iter.Value().Float64()
		if err != nil {
			return nil, &CompileError{Field: "params." + iter.Label(), Message: "default value must be a number", Pos: iter.Value().Pos()}
		}
		params = append(params, ParamSpec{Name: iter.Label(), Value: f})
	}
	return params, nil
}

func parseNodes(v cue.Value) ([]NodeSpec, error) {
	nv := v.LookupPath(cue.ParsePath("nodes"))
	if !nv.Exists() {
		return nil, nil
	}
	iter, err := nv.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var nodes []NodeSpec
	for iter.Next() {
		name, val := iter.Label(), iter.Value()
		field := "nodes." + name

		opVal := val.LookupPath(cue.ParsePath("op"))
		if !opVal.Exists() {
			return nil, &CompileError{Field: field, Message: "op is required", Pos: val.Pos()}
		}
		op, err := opVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}

		node := NodeSpec{Name: name, Op: op, Pos: val.Pos()}
		argsVal := val.LookupPath(cue.ParsePath("args"))
		if argsVal.Exists() {
			argIter, err := argsVal.List()
			if err != nil {
				return nil, formatCUEError(err)
			}
			for argIter.Next() {
				arg, err := parseArg(argIter.Value(), field)
				if err != nil {
					return nil, err
				}
				node.Args = append(node.Args, arg)
			}
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func parseArg(v cue.Value, field string) (Arg, error) {
	switch v.Kind() {
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return Arg{}, formatCUEError(err)
		}
		if s == "" {
			return Arg{}, &CompileError{Field: field, Message: "empty argument name", Pos: v.Pos()}
		}
		return Arg{Ref: s}, nil
	case cue.IntKind, cue.FloatKind, cue.NumberKind:
		f, err := v.Float64()
		if err != nil {
			return Arg{}, formatCUEError(err)
		}
		return Arg{Value: f}, nil
	}
	return Arg{}, &CompileError{Field: field, Message: fmt.Sprintf("argument must be a name or a number, got %s", v.Kind()), Pos: v.Pos()}
}

// dependencies returns the node → referenced-node graph and the node
// names in declaration order.
func (s *FunctionSpec) dependencies() (dependencyGraph, []string) {
	deps := make(dependencyGraph, len(s.Nodes))
	order := make([]string, len(s.Nodes))
	for i, n := range s.Nodes {
		order[i] = n.Name
		deps[n.Name] = []string{}
		for _, a := range n.Args {
			if a.IsRef() {
				deps[n.Name] = append(deps[n.Name], a.Ref)
			}
		}
	}
	return deps, order
}

// Build resolves names, orders the nodes by dependency and returns the
// unoptimized graph. The first problem found by Validate is returned as a
// *CompileError.
func (s *FunctionSpec) Build() (*ir.Graph, error) {
	if errs := s.Validate(); len(errs) > 0 {
		e := errs[0]
		return nil, &CompileError{Field: s.Name + "." + e.Field, Message: e.Message, Code: e.Code, Pos: s.posOf(e.Field)}
	}

	b := NewBuilder(s.Name)
	refs := make(map[string]Ref)
	for _, name := range s.Vars {
		refs[name] = b.Var(name)
	}
	if s.Time != "" {
		refs[s.Time] = b.Time(s.Time)
	}
	for _, p := range s.Params {
		refs[p.Name] = b.Param(p.Name, p.Value)
	}

	byName := make(map[string]NodeSpec, len(s.Nodes))
	for _, n := range s.Nodes {
		byName[n.Name] = n
	}
	deps, order := s.dependencies()
	for _, name := range topoOrder(deps, order) {
		n := byName[name]
		args := make([]Ref, len(n.Args))
		for i, a := range n.Args {
			if a.IsRef() {
				args[i] = refs[a.Ref]
			} else {
				args[i] = b.Const(a.Value)
			}
		}
		refs[name] = b.Name(apply(b, n.Op, args), name)
	}

	for _, out := range s.Outputs {
		b.Output(refs[out])
	}
	return b.Build()
}

func apply(b *Builder, op string, args []Ref) Ref {
	switch op {
	case "add":
		return b.Add(args[0], args[1])
	case "sub":
		return b.Sub(args[0], args[1])
	case "mul":
		return b.Mul(args[0], args[1])
	case "div":
		return b.Div(args[0], args[1])
	case "pow":
		return b.Pow(args[0], args[1])
	case "neg":
		return b.Neg(args[0])
	case "sqr":
		return b.Sqr(args[0])
	case "sqrt":
		return b.Sqrt(args[0])
	case "exp":
		return b.Exp(args[0])
	case "log":
		return b.Log(args[0])
	case "sin":
		return b.Sin(args[0])
	case "cos":
		return b.Cos(args[0])
	case "atan":
		return b.Atan(args[0])
	case "asin":
		return b.Asin(args[0])
	case "acos":
		return b.Acos(args[0])
	}
	return b.fail("unknown op %q", op)
}

func (s *FunctionSpec) posOf(field string) token.Pos {
	for _, n := range s.Nodes {
		if field == "nodes."+n.Name {
			return n.Pos
		}
	}
	return s.Pos
}

// CompileError reports a function spec that cannot be compiled, with the
// CUE position when one is known.
type CompileError struct {
	Field   string
	Message string
	Code    string // validation code (E1xx) when the spec failed Validate
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
