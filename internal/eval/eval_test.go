package eval

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/jetdag/internal/ir"
)

// assertClose compares with a tolerance relative to the magnitude of want.
func assertClose(t *testing.T, want, got []float64, msgAndArgs ...any) {
	t.Helper()
	require.Len(t, got, len(want), msgAndArgs...)
	for i := range want {
		tol := 1e-10 * math.Max(1, math.Abs(want[i]))
		if !assert.InDelta(t, want[i], got[i], tol, msgAndArgs...) {
			t.Logf("first mismatch at position %d", i)
			return
		}
	}
}

type familyCase struct {
	name  string
	nodes []node // appended after x (node 0) and y (node 1)
}

func familyCases() []familyCase {
	return []familyCase{
		{"add", []node{bin(ir.OpAdd, 0, 1)}},
		{"sub", []node{bin(ir.OpSub, 0, 1)}},
		{"unary_minus", []node{un(ir.OpUnaryMinus, 0)}},
		{"mul", []node{bin(ir.OpMul, 0, 1)}},
		{"sqr", []node{un(ir.OpSqr, 0)}},
		{"one_minus_sqr", []node{un(ir.OpOneMinusSqr, 0)}},
		{"div", []node{bin(ir.OpDiv, 0, 1)}},
		{"exp", []node{un(ir.OpExp, 0)}},
		{"log", []node{un(ir.OpLog, 0)}},
		{"sqrt", []node{un(ir.OpSqrt, 0)}},
		{"pow", []node{leaf(ir.OpConst, 0.7), expo(ir.OpPow, 0, 2, 0.7)}},
		{"natural_pow", []node{leaf(ir.OpConst, 5), expo(ir.OpNaturalPow, 0, 2, 5)}},
		{"neg_int_pow", []node{leaf(ir.OpConst, -2), expo(ir.OpNegIntPow, 0, 2, -2)}},
		{"half_int_pow", []node{leaf(ir.OpConst, 1.5), expo(ir.OpHalfIntPow, 0, 2, 1.5)}},
		{"cube", []node{un(ir.OpCube, 0)}},
		{"quartic", []node{un(ir.OpQuartic, 0)}},
		{"sin", []node{bin(ir.OpSin, 0, 3), bin(ir.OpCos, 0, 2)}},
		{"atan", []node{un(ir.OpSqr, 0), bin(ir.OpAtan, 0, 2)}},
		{"asin", []node{un(ir.OpOneMinusSqr, 0), un(ir.OpSqrt, 2), bin(ir.OpAsin, 0, 3)}},
		{"acos", []node{un(ir.OpOneMinusSqr, 0), un(ir.OpSqrt, 2), bin(ir.OpAcos, 0, 3)}},
		{"mul_const_by_var", []node{leaf(ir.OpConst, 2), bin(ir.OpMulConstByVar, 2, 0)}},
		{"mul_time_by_var", []node{leaf(ir.OpTime, 0.3), bin(ir.OpMulTimeByVar, 2, 0)}},
		{"mul_funtime_by_var", []node{leaf(ir.OpTime, 0.3), un(ir.OpExpTime, 2), bin(ir.OpMulFunTimeByVar, 3, 0)}},
		{"div_var_by_time", []node{leaf(ir.OpTime, 0.3), bin(ir.OpDivVarByTime, 0, 2)}},
		{"div_var_by_funtime", []node{leaf(ir.OpTime, 0.3), un(ir.OpExpTime, 2), bin(ir.OpDivVarByFunTime, 0, 3)}},
		{"funtime_minus_var", []node{leaf(ir.OpTime, 0.3), un(ir.OpSinTime, 2), bin(ir.OpFunTimeMinusVar, 3, 1)}},
		{"natural_pow_time", []node{leaf(ir.OpTime, 0.3), leaf(ir.OpConst, 5), expo(ir.OpNaturalPowTime, 2, 3, 5)}},
		{"log_const", []node{leaf(ir.OpConst, 2), un(ir.OpLogConst, 2)}},
	}
}

func newCaseRig(t *testing.T, c familyCase, degree, order int, generic bool) *rig {
	return newCaseRigDim(t, c, 2, degree, order, generic)
}

func newCaseRigDim(t *testing.T, c familyCase, dim, degree, order int, generic bool) *rig {
	nodes := append([]node{leaf(ir.OpVar, 0), leaf(ir.OpVar, 0)}, c.nodes...)
	// OpSinTime pairs with a cos node; give it one at the end.
	for i, n := range nodes {
		if n.op == ir.OpSinTime {
			nodes[i].right = len(nodes)
			nodes = append(nodes, bin(ir.OpCos, n.left, i))
		}
	}
	r := newRig(t, dim, degree, order, generic, nodes...)
	r.generalJet(0, 0.4)
	r.generalJet(1, 1.3)
	return r
}

func TestUnrolledMatchesGeneric(t *testing.T) {
	for _, c := range familyCases() {
		t.Run(c.name, func(t *testing.T) {
			fast := newCaseRig(t, c, 4, 2, false)
			slow := newCaseRig(t, c, 4, 2, true)
			fast.run(4)
			slow.run(4)
			for n := 2; n < len(fast.nodes); n++ {
				assertClose(t, slow.block(n), fast.block(n), "node %d", n)
			}
		})
	}
}

// Three variables reach the e_i + e_j + e_l multi-indices with i < j < l.
func TestUnrolledMatchesGenericThreeVars(t *testing.T) {
	for _, c := range familyCases() {
		t.Run(c.name, func(t *testing.T) {
			fast := newCaseRigDim(t, c, 3, 4, 1, false)
			slow := newCaseRigDim(t, c, 3, 4, 1, true)
			fast.run(4)
			slow.run(4)
			for n := 2; n < len(fast.nodes); n++ {
				assertClose(t, slow.block(n), fast.block(n), "node %d", n)
			}
		})
	}
}

func TestUnrolledMatchesGenericMasked(t *testing.T) {
	for _, c := range familyCases() {
		t.Run(c.name, func(t *testing.T) {
			fast := newCaseRigDim(t, c, 3, 3, 2, false)
			slow := newCaseRigDim(t, c, 3, 3, 2, true)
			for _, r := range []*rig{fast, slow} {
				require.NoError(t, r.ix.SetMask([]int{r.ix.Index3(0, 1, 2), r.ix.Index3(1, 1, 1)}))
				r.run(3)
			}
			for n := 2; n < len(fast.nodes); n++ {
				assertClose(t, slow.block(n), fast.block(n), "node %d", n)
			}
		})
	}
}

func TestEvalC0MatchesDegreeZeroSlice(t *testing.T) {
	for _, c := range familyCases() {
		t.Run(c.name, func(t *testing.T) {
			c0 := newCaseRig(t, c, 2, 3, false)
			full := newCaseRig(t, c, 2, 3, false)
			for k := 0; k <= 3; k++ {
				for i := range c0.evals {
					require.NoError(t, c0.evals[i].EvalC0(k))
				}
				full.eval(2, k)
			}
			for n := 2; n < len(c0.nodes); n++ {
				assertClose(t, full.series(n), c0.series(n), "node %d", n)
			}
		})
	}
}

func TestHomogeneousStepsMatchJoint(t *testing.T) {
	for _, c := range familyCases() {
		t.Run(c.name, func(t *testing.T) {
			hom := newCaseRig(t, c, 3, 2, false)
			full := newCaseRig(t, c, 3, 2, false)
			for k := 0; k <= 2; k++ {
				for i := range hom.evals {
					for d := 0; d <= 3; d++ {
						require.NoError(t, hom.evals[i].EvalHomogeneousPolynomial(d, k))
					}
				}
				full.eval(3, k)
			}
			for n := 2; n < len(hom.nodes); n++ {
				assert.Equal(t, full.block(n), hom.block(n), "node %d", n)
			}
		})
	}
}

func TestSeriesArithmeticExact(t *testing.T) {
	r := newRig(t, 1, 0, 4, false,
		leaf(ir.OpVar, 0),
		leaf(ir.OpVar, 0),
		bin(ir.OpMul, 0, 1),
		bin(ir.OpAdd, 0, 1),
		bin(ir.OpSub, 0, 1),
		bin(ir.OpDiv, 2, 1),
	)
	// x = 1 + 2s, y = 3 + s
	copy(r.ix.Block(0), []float64{1, 2, 0, 0, 0})
	copy(r.ix.Block(1), []float64{3, 1, 0, 0, 0})
	r.run(0)

	assert.Equal(t, []float64{3, 7, 2, 0, 0}, r.series(2))
	assert.Equal(t, []float64{4, 3, 0, 0, 0}, r.series(3))
	assert.Equal(t, []float64{-2, 1, 0, 0, 0}, r.series(4))
	assert.Equal(t, []float64{1, 2, 0, 0, 0}, r.series(5))
}

func TestSqrEqualsMul(t *testing.T) {
	for _, x0 := range []float64{0, 0.7} {
		for _, generic := range []bool{false, true} {
			r := newRig(t, 2, 4, 3, generic,
				leaf(ir.OpVar, 0),
				un(ir.OpSqr, 0),
				bin(ir.OpMul, 0, 0),
			)
			r.generalJet(0, x0)
			r.run(4)
			assertClose(t, r.block(2), r.block(1), "x0=%v generic=%v", x0, generic)
		}
	}
}

func TestAllTrueMaskEqualsNoMask(t *testing.T) {
	for _, c := range familyCases() {
		t.Run(c.name, func(t *testing.T) {
			plain := newCaseRig(t, c, 3, 2, false)
			masked := newCaseRig(t, c, 3, 2, false)
			all := make([]int, masked.ix.JetSize())
			for i := range all {
				all[i] = i
			}
			require.NoError(t, masked.ix.SetMask(all))

			plain.run(3)
			masked.run(3)
			for n := 2; n < len(plain.nodes); n++ {
				assert.Equal(t, plain.block(n), masked.block(n), "node %d", n)
			}
		})
	}
}

func TestMaskSkipsDisabledSlots(t *testing.T) {
	plain := newRig(t, 2, 2, 1, false, leaf(ir.OpVar, 0), un(ir.OpExp, 0))
	masked := newRig(t, 2, 2, 1, false, leaf(ir.OpVar, 0), un(ir.OpExp, 0))
	plain.generalJet(0, 0.2)
	masked.generalJet(0, 0.2)
	require.NoError(t, masked.ix.SetMask([]int{masked.ix.Index2(0, 0)}))

	plain.run(2)
	masked.run(2)

	st := masked.ix.Stride()
	for mi := 0; mi < masked.ix.JetSize(); mi++ {
		got := masked.block(1)[mi*st : (mi+1)*st]
		if masked.ix.Enabled(mi) {
			assert.Equal(t, plain.block(1)[mi*st:(mi+1)*st], got, "mi=%d", mi)
		} else {
			assert.Equal(t, []float64{0, 0}, got, "mi=%d", mi)
		}
	}
}

func TestSinTimesExpAtZero(t *testing.T) {
	for _, generic := range []bool{false, true} {
		r := newRig(t, 1, 3, 0, generic,
			leaf(ir.OpVar, 0),
			bin(ir.OpSin, 0, 2),
			bin(ir.OpCos, 0, 1),
			un(ir.OpExp, 0),
			bin(ir.OpMul, 1, 3),
		)
		r.seedVar(0, 0, 0)
		r.run(3)
		assertClose(t, []float64{0, 1, 1, 1.0 / 3}, r.block(4))
		assertClose(t, []float64{1, 0, -0.5, 0}, r.block(2))
	}
}

func TestTimeSquared(t *testing.T) {
	r := newRig(t, 0, 0, 4, false, leaf(ir.OpTime, 0), un(ir.OpSqrTime, 0))
	r.run(0)
	assert.Equal(t, []float64{0, 0, 1, 0, 0}, r.series(1))

	r = newRig(t, 0, 0, 4, false, leaf(ir.OpTime, 2), bin(ir.OpMulTimeByFunTime, 0, 0))
	r.run(0)
	assert.Equal(t, []float64{4, 4, 1, 0, 0}, r.series(1))
}

func TestExpTimeMatchesRecurrence(t *testing.T) {
	r := newRig(t, 0, 0, 6, false,
		leaf(ir.OpTime, 0.5),
		un(ir.OpExpTime, 0),
		un(ir.OpExpFunTime, 0),
	)
	r.run(0)

	want := make([]float64, 7)
	fact := 1.0
	for k := range want {
		if k > 0 {
			fact *= float64(k)
		}
		want[k] = math.Exp(0.5) / fact
	}
	assertClose(t, want, r.series(1))
	assertClose(t, want, r.series(2))
}

func TestConstShapeWritesOnlyValue(t *testing.T) {
	r := newRig(t, 1, 2, 3, false,
		leaf(ir.OpConst, 2),
		un(ir.OpExpConst, 0),
		bin(ir.OpMulConstByConst, 0, 1),
	)
	r.run(2)

	want := make([]float64, r.ix.BlockSize())
	want[0] = math.Exp(2)
	assert.Equal(t, want, r.block(1))
	want[0] = 2 * math.Exp(2)
	assert.Equal(t, want, r.block(2))
}

func TestStepsAreIdempotent(t *testing.T) {
	c := familyCase{"asin", []node{un(ir.OpOneMinusSqr, 0), un(ir.OpSqrt, 2), bin(ir.OpAsin, 0, 3)}}
	once := newCaseRig(t, c, 2, 2, false)
	twice := newCaseRig(t, c, 2, 2, false)
	for k := 0; k <= 2; k++ {
		once.eval(2, k)
		twice.eval(2, k)
		twice.eval(2, k)
	}
	for n := 2; n < len(once.nodes); n++ {
		assert.Equal(t, once.block(n), twice.block(n))
	}
}

func TestDivisionByZeroFollowsIEEE(t *testing.T) {
	r := newRig(t, 1, 1, 0, false,
		leaf(ir.OpVar, 0),
		leaf(ir.OpConst, 0),
		bin(ir.OpDivVarByConst, 0, 1),
	)
	r.seedVar(0, 0, 1)
	r.run(1)
	assert.True(t, math.IsInf(r.block(2)[0], 1))
}
