package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/jetdag/internal/ir"
)

func TestOptimizeSpecializesByShape(t *testing.T) {
	b := NewBuilder("shapes")
	x := b.Var("x")
	tm := b.Time("t")
	c := b.Param("c", 3)

	outs := []Ref{
		b.Add(x, c),           // swapped: const on the left
		b.Mul(tm, tm),         // time*time is a function of time
		b.Sub(tm, b.Const(1)), // not commutative, kept in place
		b.Exp(tm),
		b.Div(x, tm),
		b.Neg(c),
		b.Mul(b.Exp(tm), x),
		b.Sin(c),
	}
	for _, r := range outs {
		b.Output(r)
	}
	g, err := b.Compile()
	require.NoError(t, err)
	require.True(t, g.Finalized)
	assert.Empty(t, ValidateGraph(g))

	want := []struct {
		op    ir.Op
		shape ir.Shape
	}{
		{ir.OpConstPlusVar, ir.ShapeVar},
		{ir.OpMulFunTimeByFunTime, ir.ShapeFunTime},
		{ir.OpTimeMinusConst, ir.ShapeFunTime},
		{ir.OpExpTime, ir.ShapeFunTime},
		{ir.OpDivVarByTime, ir.ShapeVar},
		{ir.OpUnaryMinusConst, ir.ShapeConst},
		{ir.OpMulFunTimeByVar, ir.ShapeVar},
		{ir.OpSinConst, ir.ShapeConst},
	}
	for i, w := range want {
		n := g.Nodes[g.Outputs[i]]
		assert.Equal(t, w.op, n.Op, "output %d", i)
		assert.Equal(t, w.shape, n.Shape, "output %d", i)
	}

	sum := g.Nodes[g.Outputs[0]]
	assert.Equal(t, ir.OpParam, g.Nodes[sum.Left].Op)
	assert.Equal(t, ir.OpVar, g.Nodes[sum.Right].Op)
}

func TestOptimizeFoldsLiteralPowers(t *testing.T) {
	tests := []struct {
		exp   float64
		op    ir.Op
		nodes int
	}{
		{2, ir.OpSqr, 2},
		{3, ir.OpCube, 2},
		{4, ir.OpQuartic, 2},
		{0.5, ir.OpSqrt, 2},
		{5, ir.OpNaturalPow, 3},
		{-2, ir.OpNegIntPow, 3},
		{1.5, ir.OpHalfIntPow, 3},
		{-0.5, ir.OpHalfIntPow, 3},
		{2.7, ir.OpPow, 3},
	}

	for _, tt := range tests {
		b := NewBuilder("pow")
		x := b.Var("x")
		b.Output(b.PowConst(x, tt.exp))
		g, err := b.Compile()
		require.NoError(t, err, "exponent %v", tt.exp)

		n := g.Nodes[g.Outputs[0]]
		assert.Equal(t, tt.op, n.Op, "exponent %v", tt.exp)
		assert.Len(t, g.Nodes, tt.nodes, "exponent %v", tt.exp)
		if n.Op.HasExponent() && n.Op != ir.OpPow {
			assert.Equal(t, tt.exp, n.Value)
		}
	}
}

func TestOptimizeTimePowers(t *testing.T) {
	b := NewBuilder("tpow")
	tm := b.Time("t")
	b.Output(b.PowConst(tm, 5))
	b.Output(b.PowConst(tm, 3))

	g, err := b.Compile()
	require.NoError(t, err)
	assert.Equal(t, ir.OpNaturalPowTime, g.Nodes[g.Outputs[0]].Op)
	assert.Equal(t, ir.OpCubeTime, g.Nodes[g.Outputs[1]].Op)
}

func TestOptimizeIdentityPower(t *testing.T) {
	b := NewBuilder("id")
	x := b.Var("x")
	p := b.PowConst(x, 1)
	b.Output(b.Exp(p))
	b.Output(p)

	g, err := b.Compile()
	require.NoError(t, err)
	require.Len(t, g.Nodes, 2, "x^1 and its exponent disappear")
	assert.Equal(t, g.Vars[0], g.Outputs[1])
	assert.Equal(t, g.Vars[0], g.Nodes[g.Outputs[0]].Left)
}

func TestOptimizeParamExponent(t *testing.T) {
	b := NewBuilder("param")
	x := b.Var("x")
	b.Output(b.Pow(x, b.Param("n", 2)))

	g, err := b.Compile()
	require.NoError(t, err)
	assert.Equal(t, ir.OpPow, g.Nodes[g.Outputs[0]].Op, "a parameter exponent is never folded")
}

func TestOptimizeRejects(t *testing.T) {
	t.Run("zero exponent", func(t *testing.T) {
		b := NewBuilder("zero")
		b.Output(b.PowConst(b.Var("x"), 0))
		_, err := b.Compile()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "zero exponent")
	})

	t.Run("variable exponent", func(t *testing.T) {
		b := NewBuilder("varexp")
		x := b.Var("x")
		b.Output(b.Pow(x, x))
		_, err := b.Compile()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exponent must be constant")
	})

	t.Run("specialized input", func(t *testing.T) {
		g := &ir.Graph{
			Name: "pre",
			Nodes: []ir.Node{
				{Op: ir.OpVar, Left: ir.NoOperand, Right: ir.NoOperand, Name: "x"},
				{Op: ir.OpExpTime, Left: 0, Right: ir.NoOperand},
			},
			Vars:    []int{0},
			Time:    ir.NoOperand,
			Outputs: []int{1},
		}
		_, err := Optimize(g)
		var ce *CompileError
		require.ErrorAs(t, err, &ce)
		assert.Contains(t, ce.Message, "already specialized")
	})
}

func TestOptimizeDropsDeadNodes(t *testing.T) {
	b := NewBuilder("dead")
	x := b.Var("x")
	b.Exp(x)
	b.Const(7)
	b.Param("unused", 1)
	b.Output(b.Sqr(x))

	g, err := b.Compile()
	require.NoError(t, err)
	require.Len(t, g.Nodes, 3, "x, the parameter and sqr survive")
	assert.Contains(t, g.Params, "unused")
	assert.Equal(t, ir.OpSqr, g.Nodes[g.Outputs[0]].Op)
}

func TestOptimizeKeepsSinCosPairs(t *testing.T) {
	b := NewBuilder("pair")
	x := b.Var("x")
	b.Const(1)
	b.Output(b.Cos(x))

	g, err := b.Compile()
	require.NoError(t, err)
	require.Len(t, g.Nodes, 3)

	c := g.Nodes[g.Outputs[0]]
	assert.Equal(t, ir.OpCos, c.Op)
	assert.Equal(t, ir.OpSin, g.Nodes[c.Left].Op)
	assert.Equal(t, g.Outputs[0], g.Nodes[c.Left].Right)
	assert.Equal(t, ir.ShapeVar, c.Shape)
}

func TestOptimizeIsIdempotentAndPure(t *testing.T) {
	b := NewBuilder("pure")
	x := b.Var("x")
	y := b.Var("y")
	b.Output(b.Add(b.Mul(x, y), b.Atan(y)))
	raw, err := b.Build()
	require.NoError(t, err)
	before := raw.Clone()

	g1, err := Optimize(raw)
	require.NoError(t, err)
	g2, err := Optimize(g1)
	require.NoError(t, err)

	assert.Equal(t, before, raw, "input graph must not change")
	assert.Equal(t, g1, g2)

	id1, err := ir.GraphID(g1)
	require.NoError(t, err)
	id2, err := ir.GraphID(g2)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
}
