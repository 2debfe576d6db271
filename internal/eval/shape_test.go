package eval

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/jetdag/internal/ir"
)

// Operand nodes shared by every shape case.
const (
	nX     = iota // state variable, value 0.4
	nY            // state variable, value 1.3
	nC            // constant 0.6
	nT            // time, t0 = 0.3
	nG            // exp(t)
	nE            // constant 0.7, the exponent of Pow
	nFirst        // first node of a case
)

func shapeOperands() []node {
	return []node{
		leaf(ir.OpVar, 0),
		leaf(ir.OpVar, 0),
		leaf(ir.OpConst, 0.6),
		leaf(ir.OpTime, 0.3),
		un(ir.OpExpTime, nT),
		leaf(ir.OpConst, 0.7),
	}
}

// shapeCase evaluates a specialized opcode next to its general-shape
// counterpart on the same operand blocks. Each entry of same names two
// nodes whose blocks must agree.
type shapeCase struct {
	name  string
	nodes []node
	same  [][2]int
}

// pair is the common case: nodes[0] is the variant and nodes[1] the
// general evaluator.
func pair(name string, variant, general node) shapeCase {
	return shapeCase{name: name, nodes: []node{variant, general}, same: [][2]int{{nFirst, nFirst + 1}}}
}

func shapeCases() []shapeCase {
	const f = nFirst
	return []shapeCase{
		pair("const_plus_var", bin(ir.OpConstPlusVar, nC, nX), bin(ir.OpAdd, nC, nX)),
		pair("const_plus_time", bin(ir.OpConstPlusTime, nC, nT), bin(ir.OpAdd, nC, nT)),
		pair("time_plus_var", bin(ir.OpTimePlusVar, nT, nX), bin(ir.OpAdd, nT, nX)),
		pair("funtime_plus_funtime", bin(ir.OpFunTimePlusFunTime, nG, nG), bin(ir.OpAdd, nG, nG)),
		pair("const_minus_time", bin(ir.OpConstMinusTime, nC, nT), bin(ir.OpSub, nC, nT)),
		pair("time_minus_var", bin(ir.OpTimeMinusVar, nT, nX), bin(ir.OpSub, nT, nX)),
		pair("var_minus_time", bin(ir.OpVarMinusTime, nX, nT), bin(ir.OpSub, nX, nT)),
		pair("var_minus_funtime", bin(ir.OpVarMinusFunTime, nX, nG), bin(ir.OpSub, nX, nG)),
		pair("funtime_minus_time", bin(ir.OpFunTimeMinusTime, nG, nT), bin(ir.OpSub, nG, nT)),
		pair("unary_minus_time", un(ir.OpUnaryMinusTime, nT), un(ir.OpUnaryMinus, nT)),

		pair("mul_const_by_time", bin(ir.OpMulConstByTime, nC, nT), bin(ir.OpMul, nC, nT)),
		pair("mul_const_by_const", bin(ir.OpMulConstByConst, nC, nE), bin(ir.OpMul, nC, nE)),
		pair("mul_const_by_funtime", bin(ir.OpMulConstByFunTime, nC, nG), bin(ir.OpMul, nC, nG)),
		pair("mul_time_by_var", bin(ir.OpMulTimeByVar, nT, nY), bin(ir.OpMul, nT, nY)),
		pair("mul_time_by_funtime", bin(ir.OpMulTimeByFunTime, nT, nG), bin(ir.OpMul, nT, nG)),
		pair("mul_funtime_by_var", bin(ir.OpMulFunTimeByVar, nG, nX), bin(ir.OpMul, nG, nX)),
		pair("mul_funtime_by_funtime", bin(ir.OpMulFunTimeByFunTime, nG, nG), bin(ir.OpMul, nG, nG)),

		pair("div_var_by_const", bin(ir.OpDivVarByConst, nX, nC), bin(ir.OpDiv, nX, nC)),
		pair("div_var_by_time", bin(ir.OpDivVarByTime, nY, nT), bin(ir.OpDiv, nY, nT)),
		pair("div_var_by_funtime", bin(ir.OpDivVarByFunTime, nX, nG), bin(ir.OpDiv, nX, nG)),
		pair("div_time_by_const", bin(ir.OpDivTimeByConst, nT, nC), bin(ir.OpDiv, nT, nC)),
		pair("div_funtime_by_const", bin(ir.OpDivFunTimeByConst, nG, nC), bin(ir.OpDiv, nG, nC)),
		pair("div_funtime_by_time", bin(ir.OpDivFunTimeByTime, nG, nT), bin(ir.OpDiv, nG, nT)),
		pair("div_funtime_by_funtime", bin(ir.OpDivFunTimeByFunTime, nT, nG), bin(ir.OpDiv, nT, nG)),
		pair("div_const_by_const", bin(ir.OpDivConstByConst, nC, nE), bin(ir.OpDiv, nC, nE)),

		pair("sqr_const", un(ir.OpSqrConst, nC), un(ir.OpSqr, nC)),
		pair("sqr_time", un(ir.OpSqrTime, nT), un(ir.OpSqr, nT)),
		pair("sqr_funtime", un(ir.OpSqrFunTime, nG), un(ir.OpSqr, nG)),
		pair("one_minus_sqr_time", un(ir.OpOneMinusSqrTime, nT), un(ir.OpOneMinusSqr, nT)),
		pair("one_minus_sqr_funtime", un(ir.OpOneMinusSqrFunTime, nG), un(ir.OpOneMinusSqr, nG)),
		pair("sqrt_const", un(ir.OpSqrtConst, nC), un(ir.OpSqrt, nC)),
		pair("sqrt_time", un(ir.OpSqrtTime, nT), un(ir.OpSqrt, nT)),
		pair("sqrt_funtime", un(ir.OpSqrtFunTime, nG), un(ir.OpSqrt, nG)),

		pair("pow_const", expo(ir.OpPowConst, nC, nE, 0.7), expo(ir.OpPow, nC, nE, 0.7)),
		pair("pow_time", expo(ir.OpPowTime, nT, nE, 0.7), expo(ir.OpPow, nT, nE, 0.7)),
		pair("pow_funtime", expo(ir.OpPowFunTime, nG, nE, 0.7), expo(ir.OpPow, nG, nE, 0.7)),
		pair("natural_pow_time", expo(ir.OpNaturalPowTime, nT, nE, 5), expo(ir.OpNaturalPow, nT, nE, 5)),
		pair("natural_pow_funtime", expo(ir.OpNaturalPowFunTime, nG, nE, 6), expo(ir.OpNaturalPow, nG, nE, 6)),
		pair("neg_int_pow_const", expo(ir.OpNegIntPowConst, nC, nE, -3), expo(ir.OpNegIntPow, nC, nE, -3)),
		pair("neg_int_pow_time", expo(ir.OpNegIntPowTime, nT, nE, -2), expo(ir.OpNegIntPow, nT, nE, -2)),
		pair("half_int_pow_time", expo(ir.OpHalfIntPowTime, nT, nE, 1.5), expo(ir.OpHalfIntPow, nT, nE, 1.5)),
		pair("half_int_pow_funtime", expo(ir.OpHalfIntPowFunTime, nG, nE, -0.5), expo(ir.OpHalfIntPow, nG, nE, -0.5)),
		pair("cube_time", un(ir.OpCubeTime, nT), un(ir.OpCube, nT)),
		pair("cube_funtime", un(ir.OpCubeFunTime, nG), un(ir.OpCube, nG)),
		pair("quartic_time", un(ir.OpQuarticTime, nT), un(ir.OpQuartic, nT)),
		pair("quartic_const", un(ir.OpQuarticConst, nC), un(ir.OpQuartic, nC)),

		pair("exp_const", un(ir.OpExpConst, nC), un(ir.OpExp, nC)),
		pair("exp_time", un(ir.OpExpTime, nT), un(ir.OpExp, nT)),
		pair("exp_funtime", un(ir.OpExpFunTime, nG), un(ir.OpExp, nG)),
		pair("log_const", un(ir.OpLogConst, nC), un(ir.OpLog, nC)),
		pair("log_time", un(ir.OpLogTime, nT), un(ir.OpLog, nT)),
		pair("log_funtime", un(ir.OpLogFunTime, nG), un(ir.OpLog, nG)),

		{
			name: "sin_time",
			nodes: []node{
				bin(ir.OpSinTime, nT, f+1), bin(ir.OpCos, nT, f),
				bin(ir.OpSin, nT, f+3), bin(ir.OpCos, nT, f+2),
			},
			same: [][2]int{{f, f + 2}, {f + 1, f + 3}},
		},
		{
			name: "sin_const",
			nodes: []node{
				bin(ir.OpSinConst, nC, f+1), bin(ir.OpCos, nC, f),
				bin(ir.OpSin, nC, f+3), bin(ir.OpCos, nC, f+2),
			},
			same: [][2]int{{f, f + 2}, {f + 1, f + 3}},
		},
		{
			name:  "atan_time",
			nodes: []node{un(ir.OpSqrTime, nT), bin(ir.OpAtanTime, nT, f), bin(ir.OpAtan, nT, f)},
			same:  [][2]int{{f + 1, f + 2}},
		},
		{
			name:  "atan_funtime",
			nodes: []node{un(ir.OpSqrFunTime, nG), bin(ir.OpAtanFunTime, nG, f), bin(ir.OpAtan, nG, f)},
			same:  [][2]int{{f + 1, f + 2}},
		},
		{
			// 0.6 * e^t stays inside (-1, 1) near t0.
			name: "asin_funtime",
			nodes: []node{
				bin(ir.OpMulConstByFunTime, nC, nG),
				un(ir.OpOneMinusSqrFunTime, f),
				un(ir.OpSqrtFunTime, f+1),
				bin(ir.OpAsinFunTime, f, f+2),
				bin(ir.OpAsin, f, f+2),
			},
			same: [][2]int{{f + 3, f + 4}},
		},
		{
			name: "acos_time",
			nodes: []node{
				un(ir.OpOneMinusSqrTime, nT),
				un(ir.OpSqrtFunTime, f),
				bin(ir.OpAcosTime, nT, f+1),
				bin(ir.OpAcos, nT, f+1),
			},
			same: [][2]int{{f + 2, f + 3}},
		},
	}
}

func newShapeRig(t *testing.T, c shapeCase) *rig {
	nodes := append(shapeOperands(), c.nodes...)
	r := newRig(t, 3, 3, 5, false, nodes...)
	r.generalJet(nX, 0.4)
	r.generalJet(nY, 1.3)
	return r
}

func TestShapeVariantsMatchGeneral(t *testing.T) {
	for _, c := range shapeCases() {
		t.Run(c.name, func(t *testing.T) {
			r := newShapeRig(t, c)
			r.run(3)
			for _, s := range c.same {
				assertClose(t, r.block(s[1]), r.block(s[0]), "nodes %d and %d", s[0], s[1])
			}
		})
	}
}

func TestShapeVariantsEvalC0MatchesDegreeZeroSlice(t *testing.T) {
	for _, c := range shapeCases() {
		t.Run(c.name, func(t *testing.T) {
			c0 := newShapeRig(t, c)
			full := newShapeRig(t, c)
			for k := 0; k <= 5; k++ {
				for i := range c0.evals {
					require.NoError(t, c0.evals[i].EvalC0(k))
				}
				full.eval(3, k)
			}
			for n := nFirst; n < len(c0.nodes); n++ {
				assertClose(t, full.series(n), c0.series(n), "node %d", n)
			}
		})
	}
}
