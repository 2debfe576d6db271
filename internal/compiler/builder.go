package compiler

import (
	"fmt"
	"math"

	"github.com/roach88/jetdag/internal/ir"
)

// Ref names a node of a graph under construction.
type Ref int

// Builder constructs expression graphs node by node.
//
// Builder methods never return errors. The first misuse (an invalid Ref, a
// duplicate leaf name, a second time variable) is recorded and reported by
// Build, so expressions can be written inline:
//
//	b := NewBuilder("rotation")
//	x, y := b.Var("x"), b.Var("y")
//	b.Output(b.Neg(y))
//	b.Output(x)
//	g, err := b.Build()
//
// The graph returned by Build holds generic opcodes only; Optimize turns it
// into an executable graph.
type Builder struct {
	name    string
	nodes   []ir.Node
	vars    []int
	params  map[string]int
	time    int
	outputs []int

	leaves map[string]int
	consts map[uint64]int
	trig   map[int][2]int // argument -> (sin, cos)
	root   map[int]int    // argument -> sqrt(1 - arg^2)

	err error
}

// NewBuilder creates an empty builder for a graph called name.
func NewBuilder(name string) *Builder {
	return &Builder{
		name:   name,
		params: make(map[string]int),
		time:   ir.NoOperand,
		leaves: make(map[string]int),
		consts: make(map[uint64]int),
		trig:   make(map[int][2]int),
		root:   make(map[int]int),
	}
}

func (b *Builder) fail(format string, args ...any) Ref {
	if b.err == nil {
		b.err = fmt.Errorf("builder %q: "+format, append([]any{b.name}, args...)...)
	}
	return Ref(ir.NoOperand)
}

func (b *Builder) valid(refs ...Ref) bool {
	for _, r := range refs {
		if r < 0 || int(r) >= len(b.nodes) {
			b.fail("invalid node reference %d", int(r))
			return false
		}
	}
	return true
}

func (b *Builder) add(n ir.Node) Ref {
	b.nodes = append(b.nodes, n)
	return Ref(len(b.nodes) - 1)
}

func (b *Builder) leaf(op ir.Op, name string, value float64) Ref {
	if name == "" {
		return b.fail("%s leaf needs a name", op)
	}
	if _, dup := b.leaves[name]; dup {
		return b.fail("duplicate leaf name %q", name)
	}
	r := b.add(ir.Node{Op: op, Left: ir.NoOperand, Right: ir.NoOperand, Value: value, Name: name})
	b.leaves[name] = int(r)
	return r
}

// Var declares the next space variable.
func (b *Builder) Var(name string) Ref {
	r := b.leaf(ir.OpVar, name, 0)
	if r >= 0 {
		b.vars = append(b.vars, int(r))
	}
	return r
}

// Time declares the time variable. A graph has at most one.
func (b *Builder) Time(name string) Ref {
	if b.time != ir.NoOperand {
		return b.fail("time variable already declared as %q", b.nodes[b.time].Name)
	}
	r := b.leaf(ir.OpTime, name, 0)
	if r >= 0 {
		b.time = int(r)
	}
	return r
}

// Param declares a named parameter with a default value.
func (b *Builder) Param(name string, v float64) Ref {
	r := b.leaf(ir.OpParam, name, v)
	if r >= 0 {
		b.params[name] = int(r)
	}
	return r
}

// Const returns a constant node. Equal constants share a node.
func (b *Builder) Const(v float64) Ref {
	key := math.Float64bits(v)
	if id, ok := b.consts[key]; ok {
		return Ref(id)
	}
	r := b.add(ir.Node{Op: ir.OpConst, Left: ir.NoOperand, Right: ir.NoOperand, Value: v})
	b.consts[key] = int(r)
	return r
}

func (b *Builder) unary(op ir.Op, x Ref) Ref {
	if !b.valid(x) {
		return Ref(ir.NoOperand)
	}
	return b.add(ir.Node{Op: op, Left: int(x), Right: ir.NoOperand})
}

func (b *Builder) binary(op ir.Op, l, r Ref) Ref {
	if !b.valid(l, r) {
		return Ref(ir.NoOperand)
	}
	return b.add(ir.Node{Op: op, Left: int(l), Right: int(r)})
}

func (b *Builder) Add(l, r Ref) Ref { return b.binary(ir.OpAdd, l, r) }
func (b *Builder) Sub(l, r Ref) Ref { return b.binary(ir.OpSub, l, r) }
func (b *Builder) Mul(l, r Ref) Ref { return b.binary(ir.OpMul, l, r) }
func (b *Builder) Div(l, r Ref) Ref { return b.binary(ir.OpDiv, l, r) }
func (b *Builder) Neg(x Ref) Ref    { return b.unary(ir.OpUnaryMinus, x) }
func (b *Builder) Sqr(x Ref) Ref    { return b.unary(ir.OpSqr, x) }
func (b *Builder) Sqrt(x Ref) Ref   { return b.unary(ir.OpSqrt, x) }
func (b *Builder) Exp(x Ref) Ref    { return b.unary(ir.OpExp, x) }
func (b *Builder) Log(x Ref) Ref    { return b.unary(ir.OpLog, x) }

// Pow raises x to the power e. The exponent must be const-shaped.
func (b *Builder) Pow(x, e Ref) Ref { return b.binary(ir.OpPow, x, e) }

// PowConst raises x to a literal power.
func (b *Builder) PowConst(x Ref, e float64) Ref { return b.Pow(x, b.Const(e)) }

// Sin returns sin(x). Sin and Cos of the same argument share one node
// pair.
func (b *Builder) Sin(x Ref) Ref { return b.sinCos(x, 0) }

// Cos returns cos(x).
func (b *Builder) Cos(x Ref) Ref { return b.sinCos(x, 1) }

func (b *Builder) sinCos(x Ref, which int) Ref {
	if !b.valid(x) {
		return Ref(ir.NoOperand)
	}
	if p, ok := b.trig[int(x)]; ok {
		return Ref(p[which])
	}
	s := b.add(ir.Node{Op: ir.OpSin, Left: int(x), Right: ir.NoOperand})
	c := b.add(ir.Node{Op: ir.OpCos, Left: int(s), Right: ir.NoOperand})
	b.nodes[s].Right = int(c)
	p := [2]int{int(s), int(c)}
	b.trig[int(x)] = p
	return Ref(p[which])
}

// Atan returns atan(x).
func (b *Builder) Atan(x Ref) Ref {
	if !b.valid(x) {
		return Ref(ir.NoOperand)
	}
	return b.binary(ir.OpAtan, x, b.Sqr(x))
}

// Asin returns asin(x).
func (b *Builder) Asin(x Ref) Ref { return b.arc(ir.OpAsin, x) }

// Acos returns acos(x).
func (b *Builder) Acos(x Ref) Ref { return b.arc(ir.OpAcos, x) }

func (b *Builder) arc(op ir.Op, x Ref) Ref {
	if !b.valid(x) {
		return Ref(ir.NoOperand)
	}
	aux, ok := b.root[int(x)]
	if !ok {
		aux = int(b.Sqrt(b.unary(ir.OpOneMinusSqr, x)))
		b.root[int(x)] = aux
	}
	return b.binary(op, x, Ref(aux))
}

// Name attaches a display name to r and returns r.
func (b *Builder) Name(r Ref, name string) Ref {
	if b.valid(r) {
		b.nodes[r].Name = name
	}
	return r
}

// Output appends r to the graph outputs.
func (b *Builder) Output(r Ref) {
	if b.valid(r) {
		b.outputs = append(b.outputs, int(r))
	}
}

// Err returns the first recorded misuse.
func (b *Builder) Err() error { return b.err }

// Build returns the graph built so far. It is not finalized.
func (b *Builder) Build() (*ir.Graph, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.outputs) == 0 {
		return nil, fmt.Errorf("builder %q: no outputs", b.name)
	}
	g := &ir.Graph{
		Name:    b.name,
		Nodes:   b.nodes,
		Vars:    b.vars,
		Params:  b.params,
		Time:    b.time,
		Outputs: b.outputs,
	}
	return g.Clone(), nil
}

// Compile builds and optimizes the graph.
func (b *Builder) Compile() (*ir.Graph, error) {
	g, err := b.Build()
	if err != nil {
		return nil, err
	}
	return Optimize(g)
}
