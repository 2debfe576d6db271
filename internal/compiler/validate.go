package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/jetdag/internal/eval"
	"github.com/roach88/jetdag/internal/ir"
)

// Validation error codes (E100-E199)
const (
	// General validation errors (E100)
	ErrUnsupportedIRType = "E100" // unsupported type for validation

	// FunctionSpec errors (E101-E109)
	ErrNoOutputs        = "E101" // at least one output required
	ErrDuplicateName    = "E102" // name declared twice
	ErrUnknownOp        = "E103" // op not in the operator list
	ErrArity            = "E104" // wrong number of arguments
	ErrUnknownReference = "E105" // argument or output names nothing
	ErrDependencyCycle  = "E106" // nodes depend on each other
	ErrZeroExponent     = "E107" // literal exponent 0
	ErrEmptyName        = "E108" // blank variable, parameter or node name

	// Graph errors (E110-E119)
	ErrGraphOrder     = "E110" // operand does not precede its user
	ErrNotFinalized   = "E111" // graph was not optimized
	ErrShapeMismatch  = "E112" // node shape disagrees with its opcode
	ErrBadLeaf        = "E113" // vars, params or time name the wrong node kind
	ErrUnpairedSin    = "E114" // sin without its cos node
	ErrNonConstantExp = "E115" // exponent operand is not const-shaped
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate validates a function spec or a compiled graph.
// Returns all errors found (does not fail-fast).
func Validate(v any) []ValidationError {
	switch x := v.(type) {
	case *FunctionSpec:
		return x.Validate()
	case FunctionSpec:
		return x.Validate()
	case *ir.Graph:
		return ValidateGraph(x)
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported type: %T", v),
			Code:    ErrUnsupportedIRType,
		}}
	}
}

// Validate checks names, operators, arities, references and cycles.
func (s *FunctionSpec) Validate() []ValidationError {
	var errs []ValidationError
	add := func(field, code, format string, args ...any) {
		e := ValidationError{Field: field, Message: fmt.Sprintf(format, args...), Code: code}
		if p := s.posOf(field); p.IsValid() {
			e.Line = p.Line()
		}
		errs = append(errs, e)
	}

	// E101: at least one output
	if len(s.Outputs) == 0 {
		add("outputs", ErrNoOutputs, "at least one output is required")
	}

	// E102/E108: one namespace for variables, time, parameters and nodes
	declared := make(map[string]string)
	declare := func(field, name, kind string) {
		if strings.TrimSpace(name) == "" {
			add(field, ErrEmptyName, "%s name must be non-empty", kind)
			return
		}
		if prev, dup := declared[name]; dup {
			add(field, ErrDuplicateName, "%s %q already declared as a %s", kind, name, prev)
			return
		}
		declared[name] = kind
	}
	for i, v := range s.Vars {
		declare(fmt.Sprintf("vars[%d]", i), v, "variable")
	}
	if s.Time != "" {
		declare("time", s.Time, "time variable")
	}
	for _, p := range s.Params {
		declare("params."+p.Name, p.Name, "parameter")
	}
	for _, n := range s.Nodes {
		declare("nodes."+n.Name, n.Name, "node")
	}

	for _, n := range s.Nodes {
		field := "nodes." + n.Name

		// E103/E104: operator and arity
		arity, ok := opArity[n.Op]
		if !ok {
			add(field, ErrUnknownOp, "unknown op %q", n.Op)
		} else if len(n.Args) != arity {
			add(field, ErrArity, "%s takes %d argument(s), got %d", n.Op, arity, len(n.Args))
		}

		// E105: references
		for i, a := range n.Args {
			if a.IsRef() {
				if _, ok := declared[a.Ref]; !ok {
					add(fmt.Sprintf("%s.args[%d]", field, i), ErrUnknownReference, "unknown name %q", a.Ref)
				}
			}
		}

		// E107: literal zero exponent
		if n.Op == "pow" && len(n.Args) == 2 && !n.Args[1].IsRef() && n.Args[1].Value == 0 {
			add(field, ErrZeroExponent, "zero exponent")
		}
	}

	for i, out := range s.Outputs {
		if _, ok := declared[out]; !ok {
			add(fmt.Sprintf("outputs[%d]", i), ErrUnknownReference, "unknown output %q", out)
		}
	}

	// E106: dependency cycles
	deps, order := s.dependencies()
	for _, c := range AnalyzeCycles(deps, order) {
		add("nodes."+c.Path[0], ErrDependencyCycle, "%s", c.Message)
	}

	return errs
}

// ValidateGraph checks the structural rules the engine relies on. Shape
// rules apply only to finalized graphs.
func ValidateGraph(g *ir.Graph) []ValidationError {
	var errs []ValidationError
	add := func(field, code, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...), Code: code})
	}

	if len(g.Outputs) == 0 {
		add("outputs", ErrNoOutputs, "at least one output is required")
	}
	// E110: nothing else is safe to inspect on a misordered graph
	if err := g.CheckOrder(); err != nil {
		add("nodes", ErrGraphOrder, "%v", err)
		return errs
	}

	// E113: leaf tables
	for i, id := range g.Vars {
		if id < 0 || id >= len(g.Nodes) || g.Nodes[id].Op != ir.OpVar {
			add(fmt.Sprintf("vars[%d]", i), ErrBadLeaf, "node %d is not a var", id)
		}
	}
	var paramNames []string
	for name := range g.Params {
		paramNames = append(paramNames, name)
	}
	slices.Sort(paramNames)
	for _, name := range paramNames {
		id := g.Params[name]
		if id < 0 || id >= len(g.Nodes) || g.Nodes[id].Op != ir.OpParam {
			add("params."+name, ErrBadLeaf, "node %d is not a param", id)
		}
	}
	if g.Time != ir.NoOperand && (g.Time < 0 || g.Time >= len(g.Nodes) || g.Nodes[g.Time].Op != ir.OpTime) {
		add("time", ErrBadLeaf, "node %d is not the time variable", g.Time)
	}

	for i, n := range g.Nodes {
		field := fmt.Sprintf("nodes[%d]", i)

		// E114: sin/cos pairing
		if n.Op.Family() == ir.FamilySin {
			if n.Right < 0 || g.Nodes[n.Right].Op != ir.OpCos || g.Nodes[n.Right].Left != i {
				add(field, ErrUnpairedSin, "%s must name a cos node that refers back to it", n.Op)
			}
		}

		// E115: exponents
		if n.Op.HasExponent() && g.Finalized && g.Nodes[n.Right].Shape != ir.ShapeConst {
			add(field, ErrNonConstantExp, "exponent node %d is %s", n.Right, g.Nodes[n.Right].Shape)
		}

		if !g.Finalized {
			continue
		}
		// E112: shape agrees with the evaluator the opcode selects
		want, ok := eval.Shape(n.Op)
		switch {
		case n.Op == ir.OpCos:
			if n.Shape != g.Nodes[n.Left].Shape {
				add(field, ErrShapeMismatch, "cos shape %s differs from its sin shape %s", n.Shape, g.Nodes[n.Left].Shape)
			}
		case !ok:
			add(field, ErrShapeMismatch, "opcode %s has no evaluator", n.Op)
		case want != n.Shape:
			add(field, ErrShapeMismatch, "%s expects shape %s, node has %s", n.Op, want, n.Shape)
		}
	}

	// E111
	if !g.Finalized {
		add("finalized", ErrNotFinalized, "graph has not been optimized")
	}
	return errs
}
