package compiler

import (
	"fmt"
	"math"

	"github.com/roach88/jetdag/internal/ir"
)

// shapeClass orders shapes from simplest to most general. Commutative
// operators put the simpler operand on the left.
type shapeClass int

const (
	classConst shapeClass = iota
	classTime
	classFunTime
	classVar
)

func classOf(s ir.Shape) shapeClass {
	switch s {
	case ir.ShapeConst:
		return classConst
	case ir.ShapeTime:
		return classTime
	case ir.ShapeFunTime:
		return classFunTime
	}
	return classVar
}

var classShape = [...]ir.Shape{ir.ShapeConst, ir.ShapeTime, ir.ShapeFunTime, ir.ShapeVar}

// unaryShape is the shape of f(x) for an x of class c.
func unaryShape(c shapeClass) ir.Shape {
	if c == classTime {
		return ir.ShapeFunTime
	}
	return classShape[c]
}

func binaryShape(l, r shapeClass) ir.Shape {
	switch {
	case l == classVar || r == classVar:
		return ir.ShapeVar
	case l == classConst && r == classConst:
		return ir.ShapeConst
	}
	return ir.ShapeFunTime
}

// unaryVariants lists the specialized opcode per argument class.
var unaryVariants = map[ir.Op][4]ir.Op{
	ir.OpUnaryMinus:  {ir.OpUnaryMinusConst, ir.OpUnaryMinusTime, ir.OpUnaryMinusFunTime, ir.OpUnaryMinus},
	ir.OpSqr:         {ir.OpSqrConst, ir.OpSqrTime, ir.OpSqrFunTime, ir.OpSqr},
	ir.OpSqrt:        {ir.OpSqrtConst, ir.OpSqrtTime, ir.OpSqrtFunTime, ir.OpSqrt},
	ir.OpPow:         {ir.OpPowConst, ir.OpPowTime, ir.OpPowFunTime, ir.OpPow},
	ir.OpNaturalPow:  {ir.OpNaturalPowConst, ir.OpNaturalPowTime, ir.OpNaturalPowFunTime, ir.OpNaturalPow},
	ir.OpNegIntPow:   {ir.OpNegIntPowConst, ir.OpNegIntPowTime, ir.OpNegIntPowFunTime, ir.OpNegIntPow},
	ir.OpHalfIntPow:  {ir.OpHalfIntPowConst, ir.OpHalfIntPowTime, ir.OpHalfIntPowFunTime, ir.OpHalfIntPow},
	ir.OpCube:        {ir.OpCubeConst, ir.OpCubeTime, ir.OpCubeFunTime, ir.OpCube},
	ir.OpQuartic:     {ir.OpQuarticConst, ir.OpQuarticTime, ir.OpQuarticFunTime, ir.OpQuartic},
	ir.OpExp:         {ir.OpExpConst, ir.OpExpTime, ir.OpExpFunTime, ir.OpExp},
	ir.OpLog:         {ir.OpLogConst, ir.OpLogTime, ir.OpLogFunTime, ir.OpLog},
	ir.OpSin:         {ir.OpSinConst, ir.OpSinTime, ir.OpSinFunTime, ir.OpSin},
	ir.OpAtan:        {ir.OpAtanConst, ir.OpAtanTime, ir.OpAtanFunTime, ir.OpAtan},
	ir.OpOneMinusSqr: {ir.OpOneMinusSqrConst, ir.OpOneMinusSqrTime, ir.OpOneMinusSqrFunTime, ir.OpOneMinusSqr},
	ir.OpAsin:        {ir.OpAsinConst, ir.OpAsinTime, ir.OpAsinFunTime, ir.OpAsin},
	ir.OpAcos:        {ir.OpAcosConst, ir.OpAcosTime, ir.OpAcosFunTime, ir.OpAcos},
}

// addVariants and mulVariants are indexed [left][right] with left <= right.
var addVariants = [4][4]ir.Op{
	classConst:   {ir.OpConstPlusConst, ir.OpConstPlusTime, ir.OpConstPlusFunTime, ir.OpConstPlusVar},
	classTime:    {classTime: ir.OpFunTimePlusFunTime, classFunTime: ir.OpTimePlusFunTime, classVar: ir.OpTimePlusVar},
	classFunTime: {classFunTime: ir.OpFunTimePlusFunTime, classVar: ir.OpFunTimePlusVar},
	classVar:     {classVar: ir.OpAdd},
}

var mulVariants = [4][4]ir.Op{
	classConst:   {ir.OpMulConstByConst, ir.OpMulConstByTime, ir.OpMulConstByFunTime, ir.OpMulConstByVar},
	classTime:    {classTime: ir.OpMulFunTimeByFunTime, classFunTime: ir.OpMulTimeByFunTime, classVar: ir.OpMulTimeByVar},
	classFunTime: {classFunTime: ir.OpMulFunTimeByFunTime, classVar: ir.OpMulFunTimeByVar},
	classVar:     {classVar: ir.OpMul},
}

var subVariants = [4][4]ir.Op{
	classConst:   {ir.OpConstMinusConst, ir.OpConstMinusTime, ir.OpConstMinusFunTime, ir.OpConstMinusVar},
	classTime:    {ir.OpTimeMinusConst, ir.OpFunTimeMinusFunTime, ir.OpTimeMinusFunTime, ir.OpTimeMinusVar},
	classFunTime: {ir.OpFunTimeMinusConst, ir.OpFunTimeMinusTime, ir.OpFunTimeMinusFunTime, ir.OpFunTimeMinusVar},
	classVar:     {ir.OpVarMinusConst, ir.OpVarMinusTime, ir.OpVarMinusFunTime, ir.OpSub},
}

// divVariants covers every pair; a denominator that depends on the space
// variables always needs the general quotient.
var divVariants = [4][4]ir.Op{
	classConst:   {ir.OpDivConstByConst, ir.OpDivFunTimeByFunTime, ir.OpDivFunTimeByFunTime, ir.OpDiv},
	classTime:    {ir.OpDivTimeByConst, ir.OpDivFunTimeByTime, ir.OpDivFunTimeByFunTime, ir.OpDiv},
	classFunTime: {ir.OpDivFunTimeByConst, ir.OpDivFunTimeByTime, ir.OpDivFunTimeByFunTime, ir.OpDiv},
	classVar:     {ir.OpDivVarByConst, ir.OpDivVarByTime, ir.OpDivVarByFunTime, ir.OpDiv},
}

// Optimize classifies every node of g, rewrites generic opcodes into their
// shape-specialized variants, folds literal powers, drops nodes no output
// depends on and returns a finalized copy. g is not modified.
//
// Optimize accepts only graphs made of leaves and generic opcodes, such as
// those produced by Builder. A finalized graph is returned unchanged.
func Optimize(g *ir.Graph) (*ir.Graph, error) {
	if g.Finalized {
		return g.Clone(), nil
	}
	if err := g.CheckOrder(); err != nil {
		return nil, &CompileError{Field: g.Name, Message: err.Error()}
	}

	out := g.Clone()
	alias := make([]int, len(out.Nodes))
	for i := range alias {
		alias[i] = i
	}
	for i := range out.Nodes {
		n := &out.Nodes[i]
		if n.Left >= 0 {
			n.Left = alias[n.Left]
		}
		if n.Right >= 0 && n.Op.Family() != ir.FamilySin {
			n.Right = alias[n.Right]
		}
		if err := specialize(out.Nodes, i, alias); err != nil {
			return nil, &CompileError{Field: fmt.Sprintf("%s.nodes[%d]", g.Name, i), Message: err.Error()}
		}
	}

	out = compact(out, alias)
	out.Finalized = true
	if err := out.CheckOrder(); err != nil {
		return nil, &CompileError{Field: g.Name, Message: "optimized graph: " + err.Error()}
	}
	return out, nil
}

// specialize sets the shape and the specialized opcode of node i. A power
// folded to the identity is recorded in alias instead.
func specialize(nodes []ir.Node, i int, alias []int) error {
	n := &nodes[i]
	switch n.Op {
	case ir.OpConst, ir.OpParam:
		n.Shape = ir.ShapeConst
		return nil
	case ir.OpTime:
		n.Shape = ir.ShapeTime
		return nil
	case ir.OpVar:
		n.Shape = ir.ShapeVar
		return nil
	case ir.OpCos:
		if nodes[n.Left].Op.Family() != ir.FamilySin {
			return fmt.Errorf("cos node does not follow a sin node")
		}
		n.Shape = nodes[n.Left].Shape
		return nil
	case ir.OpNull:
		return fmt.Errorf("null node in graph")
	}
	if !n.Op.IsGeneric() {
		return fmt.Errorf("opcode %s is already specialized", n.Op)
	}

	l := classOf(nodes[n.Left].Shape)
	switch n.Op {
	case ir.OpAdd, ir.OpMul:
		r := classOf(nodes[n.Right].Shape)
		if l > r {
			n.Left, n.Right = n.Right, n.Left
			l, r = r, l
		}
		if n.Op == ir.OpAdd {
			n.Op = addVariants[l][r]
		} else {
			n.Op = mulVariants[l][r]
		}
		n.Shape = binaryShape(l, r)
	case ir.OpSub, ir.OpDiv:
		r := classOf(nodes[n.Right].Shape)
		if n.Op == ir.OpSub {
			n.Op = subVariants[l][r]
		} else {
			n.Op = divVariants[l][r]
		}
		n.Shape = binaryShape(l, r)
	case ir.OpPow:
		return specializePow(nodes, i, alias)
	default:
		n.Op = unaryVariants[n.Op][l]
		n.Shape = unaryShape(l)
	}
	return nil
}

// maxIntExponent bounds the exponents given an integer power kernel.
// Larger literals fall back to the general power.
const maxIntExponent = 1 << 20

// specializePow rewrites x^e by the literal value of e.
func specializePow(nodes []ir.Node, i int, alias []int) error {
	n := &nodes[i]
	e := nodes[n.Right]
	if e.Shape != ir.ShapeConst {
		return fmt.Errorf("exponent must be constant, got %s", e.Shape)
	}
	l := classOf(nodes[n.Left].Shape)
	n.Shape = unaryShape(l)

	base := ir.OpPow
	if e.Op == ir.OpConst {
		v := e.Value
		isInt := v == math.Trunc(v) && math.Abs(v) <= maxIntExponent
		switch {
		case v == 0:
			return fmt.Errorf("zero exponent")
		case v == 1:
			alias[i] = n.Left
			return nil
		case v == 2:
			base = ir.OpSqr
		case v == 3:
			base = ir.OpCube
		case v == 4:
			base = ir.OpQuartic
		case v == 0.5:
			base = ir.OpSqrt
		case isInt && v > 0:
			base = ir.OpNaturalPow
		case isInt:
			base = ir.OpNegIntPow
		case math.Abs(v) <= maxIntExponent && 2*v == math.Trunc(2*v):
			base = ir.OpHalfIntPow
		}
		switch base {
		case ir.OpSqr, ir.OpCube, ir.OpQuartic, ir.OpSqrt:
			n.Right = ir.NoOperand
		case ir.OpNaturalPow, ir.OpNegIntPow, ir.OpHalfIntPow:
			n.Value = v
		}
	}
	n.Op = unaryVariants[base][l]
	return nil
}

// compact resolves aliases, removes nodes that no output depends on and
// renumbers the rest. Leaves that carry an external name are always kept.
func compact(g *ir.Graph, alias []int) *ir.Graph {
	live := make([]bool, len(g.Nodes))
	var mark func(int)
	mark = func(id int) {
		if id < 0 {
			return
		}
		id = alias[id]
		if live[id] {
			return
		}
		live[id] = true
		n := g.Nodes[id]
		mark(n.Left)
		mark(n.Right)
	}
	for _, id := range g.Outputs {
		mark(id)
	}
	for _, id := range g.Vars {
		mark(id)
	}
	for _, id := range g.Params {
		mark(id)
	}
	mark(g.Time)

	newID := make([]int, len(g.Nodes))
	nodes := make([]ir.Node, 0, len(g.Nodes))
	for i, n := range g.Nodes {
		if !live[i] || alias[i] != i {
			newID[i] = ir.NoOperand
			continue
		}
		newID[i] = len(nodes)
		nodes = append(nodes, n)
	}
	remap := func(id int) int {
		if id < 0 {
			return id
		}
		return newID[alias[id]]
	}
	for i := range nodes {
		nodes[i].Left = remap(nodes[i].Left)
		nodes[i].Right = remap(nodes[i].Right)
	}

	out := *g
	out.Nodes = nodes
	out.Vars = make([]int, len(g.Vars))
	for i, id := range g.Vars {
		out.Vars[i] = remap(id)
	}
	out.Outputs = make([]int, len(g.Outputs))
	for i, id := range g.Outputs {
		out.Outputs[i] = remap(id)
	}
	out.Params = make(map[string]int, len(g.Params))
	for name, id := range g.Params {
		out.Params[name] = remap(id)
	}
	out.Time = remap(g.Time)
	return &out
}
