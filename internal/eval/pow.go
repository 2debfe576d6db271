package eval

import (
	"fmt"
	"math"

	"github.com/roach88/jetdag/internal/jet"
)

// power evaluates left^c through the recurrence
//
//	h_P = sum_{A != P} (c(w-W) - W) h_A f_B / (w f_0)
//
// which follows from f * dh = c * h * df along the pivot direction. The
// recurrence divides by f_0; integer powers of a vanishing base go through
// a binary powering plan instead.
type power struct {
	ops      Operands
	exponent func() float64
	value0   func(f0, c float64) float64
	check    func(f0 float64) error

	// plan is non-nil for integer exponents. maxPlanDegree bounds the
	// degrees it may serve, -1 for no bound.
	plan          *powerPlan
	maxPlanDegree int
}

func (e *power) singular() bool {
	return e.plan != nil && e.ops.Left[0] == 0
}

func (e *power) value(k int) error {
	f, h := e.ops.Left, e.ops.Result
	if e.check != nil {
		if err := e.check(f[0]); err != nil {
			return err
		}
	}
	if e.singular() {
		e.plan.step(0, k)
		return nil
	}
	c := e.exponent()
	if k == 0 {
		h[0] = e.value0(f[0], c)
		return nil
	}
	var r float64
	for j := 0; j < k; j++ {
		r += (c*float64(k-j) - float64(j)) * h[j] * f[k-j]
	}
	h[k] = r / (float64(k) * f[0])
	return nil
}

func (e *power) degree(d, k int) error {
	if e.check != nil {
		if err := e.check(e.ops.Left[0]); err != nil {
			return err
		}
	}
	if e.singular() {
		if e.maxPlanDegree >= 0 && d > e.maxPlanDegree {
			return &DomainError{
				Op:      e.ops.Op,
				Message: fmt.Sprintf("integer power of a vanishing base is not implemented above degree %d", e.maxPlanDegree),
			}
		}
		e.plan.step(d, k)
		return nil
	}
	powDegree(e.ops.Indexer, e.ops.Left, e.ops.Result, d, k, e.exponent(), e.ops.Generic)
	return nil
}

func powDegree(ix *jet.Indexer, f, h []float64, d, k int, c float64, generic bool) {
	f0 := f[0]
	st, dim := ix.Stride(), ix.Dim()
	if !generic {
		switch d {
		case 1:
			for i := 0; i < dim; i++ {
				mi := ix.Index1(i)
				if !ix.Enabled(mi) {
					continue
				}
				p := mi * st
				h[p+k] = (c*dot(h, 0, f, p, k) - dotBelow(h, p, f, 0, k)) / f0
			}
			return
		case 2:
			for i := 0; i < dim; i++ {
				ei := ix.Index1(i) * st
				for j := i; j < dim; j++ {
					mi := ix.Index2(i, j)
					if !ix.Enabled(mi) {
						continue
					}
					p := mi * st
					if i == j {
						r := 2*c*dot(h, 0, f, p, k) + (c-1)*dot(h, ei, f, ei, k) - 2*dotBelow(h, p, f, 0, k)
						h[p+k] = r / (2 * f0)
						continue
					}
					ej := ix.Index1(j) * st
					r := c*dot(h, 0, f, p, k) - dot(h, ei, f, ej, k) + c*dot(h, ej, f, ei, k) - dotBelow(h, p, f, 0, k)
					h[p+k] = r / f0
				}
			}
			return
		case 3:
			// (c(w-W) - W)/w = c - (c+1)W/w
			forC3(ix, func(t *c3) {
				r := c*(dot(h, 0, f, t.p, k)+t.cross(h, f, k)) - (c+1)*t.weighted(h, f, k) - dotBelow(h, t.p, f, 0, k)
				h[t.p+k] = r / f0
			})
			return
		}
	}
	forDegree(ix, d, func(p int) {
		mi := p / st
		w := float64(ix.Weight(mi, k))
		ps := ix.Pairs(mi, k)
		var r float64
		for _, pr := range ps[:len(ps)-1] {
			W := float64(pr.W)
			r += (c*(w-W) - W) * h[pr.A] * f[pr.B]
		}
		h[p+k] = r / (w * f0)
	})
}

// powTime evaluates (t0 + s)^n for a natural n by the binomial formula.
type powTime struct {
	ops Operands
	n   int
}

func (e *powTime) value(k int) error {
	var r float64
	if k <= e.n {
		r = ipow(e.ops.Left[0], e.n-k)
		for i := 0; i < k; i++ {
			r *= float64(e.n-i) / float64(i+1)
		}
	}
	e.ops.Result[k] = r
	return nil
}

func (e *powTime) degree(int, int) error { return nil }

const (
	slotBase = iota
	slotResult
)

type planStep struct {
	sqr  bool
	a, b int
	out  int
}

// powerPlan computes x^n by repeated squaring over private scratch blocks.
// Every step is a product or a square of earlier blocks, so it stays valid
// when x vanishes.
type powerPlan struct {
	ix      *jet.Indexer
	generic bool
	steps   []planStep
	slots   [][]float64
}

// newPowerPlan builds the plan for n >= 2.
func newPowerPlan(ops Operands, n int) *powerPlan {
	pl := &powerPlan{
		ix:      ops.Indexer,
		generic: ops.Generic,
		slots:   [][]float64{ops.Left, ops.Result},
	}
	cur, acc := slotBase, -1
	for n > 0 {
		if n&1 == 1 {
			if acc < 0 {
				acc = cur
			} else {
				acc = pl.add(false, acc, cur)
			}
		}
		n >>= 1
		if n > 0 {
			cur = pl.add(true, cur, cur)
		}
	}
	// The last step produces x^n; retarget it to the result block.
	last := len(pl.steps) - 1
	pl.slots = pl.slots[:len(pl.slots)-1]
	pl.steps[last].out = slotResult
	return pl
}

func (pl *powerPlan) add(sqr bool, a, b int) int {
	out := len(pl.slots)
	pl.slots = append(pl.slots, pl.ix.NewScratch())
	pl.steps = append(pl.steps, planStep{sqr: sqr, a: a, b: b, out: out})
	return out
}

// step evaluates every plan step at degree d and coefficient k.
func (pl *powerPlan) step(d, k int) {
	for _, s := range pl.steps {
		a, out := pl.slots[s.a], pl.slots[s.out]
		switch {
		case d == 0 && s.sqr:
			out[k] = sqrValue(a, k)
		case d == 0:
			out[k] = mulValue(a, pl.slots[s.b], k)
		case s.sqr:
			sqrDegree(pl.ix, a, out, d, k, 1, pl.generic)
		default:
			mulDegree(pl.ix, a, pl.slots[s.b], out, d, k, pl.generic)
		}
	}
}

func exponentOf(ops Operands) func() float64 {
	return func() float64 { return ops.Right[0] }
}

func fixedExponent(c float64) func() float64 {
	return func() float64 { return c }
}

func newPow(ops Operands) *power {
	return &power{
		ops:      ops,
		exponent: exponentOf(ops),
		value0:   math.Pow,
		check: func(f0 float64) error {
			if f0 <= 0 {
				return &DomainError{Op: ops.Op, Message: "non-integer power of a non-positive base"}
			}
			return nil
		},
	}
}

func newSqrt(ops Operands) *power {
	return &power{
		ops:      ops,
		exponent: fixedExponent(0.5),
		value0:   func(f0, _ float64) float64 { return math.Sqrt(f0) },
	}
}

func newNegIntPow(ops Operands, n int) *power {
	return &power{
		ops:      ops,
		exponent: fixedExponent(float64(n)),
		value0:   func(f0, _ float64) float64 { return ipow(f0, n) },
	}
}

// newHalfIntPow evaluates x^(m/2) for an odd m.
func newHalfIntPow(ops Operands, m int) *power {
	return &power{
		ops:      ops,
		exponent: fixedExponent(float64(m) / 2),
		value0:   func(f0, _ float64) float64 { return ipow(math.Sqrt(f0), m) },
		check: func(f0 float64) error {
			if f0 < 0 {
				return &DomainError{Op: ops.Op, Message: "half-integer power of a negative base"}
			}
			return nil
		},
	}
}

// newIntPow evaluates x^n for n >= 2. Powers 3 and 4 serve every degree
// from the plan; higher powers only degrees 0 and 1.
func newIntPow(ops Operands, n int) *power {
	maxPlan := -1
	if n > 4 {
		maxPlan = 1
	}
	return &power{
		ops:           ops,
		exponent:      fixedExponent(float64(n)),
		value0:        func(f0, _ float64) float64 { return ipow(f0, n) },
		plan:          newPowerPlan(ops, n),
		maxPlanDegree: maxPlan,
	}
}
