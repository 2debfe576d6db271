package eval

import (
	"github.com/roach88/jetdag/internal/ir"
	"github.com/roach88/jetdag/internal/jet"
)

// Evaluator steps the coefficients of one node.
type Evaluator interface {
	// EvalC0 computes time coefficient coeff of the value.
	EvalC0(coeff int) error

	// EvalC0HomogeneousPolynomial computes the value at coefficient 0.
	EvalC0HomogeneousPolynomial() error

	// EvalHomogeneousPolynomial computes every multi-index of total degree
	// degree at coefficient coeff. Degree 0 is EvalC0.
	EvalHomogeneousPolynomial(degree, coeff int) error

	// Eval computes coefficient coeff of the value and of every degree up
	// to degree.
	Eval(degree, coeff int) error
}

// Operands binds an evaluator to its node.
type Operands struct {
	Op      ir.Op
	Indexer *jet.Indexer

	// Left and Right are operand blocks; nil when unused. For Sin, Right is
	// the block of the paired cos node. For Atan, Asin and Acos it is the
	// block of the auxiliary node.
	Left   []float64
	Right  []float64
	Result []float64

	// Value is the node literal: the constant, the parameter value, the
	// time origin or the exponent of an integer power.
	Value *float64

	// Generic disables the unrolled low-degree kernels.
	Generic bool
}

// stepper is the per-family kernel pair that the shape wrappers adapt to
// Evaluator.
type stepper interface {
	// value computes time coefficient k of multi-index 0.
	value(k int) error
	// degree computes every enabled multi-index of degree d >= 1 at k.
	degree(d, k int) error
}

// constant wraps a node whose operands are all constants. Only
// coefficient 0 is ever written.
type constant struct {
	value func() error
}

func (e constant) EvalC0(coeff int) error {
	if coeff != 0 {
		return nil
	}
	return e.value()
}

func (e constant) EvalC0HomogeneousPolynomial() error { return e.value() }

func (e constant) EvalHomogeneousPolynomial(degree, coeff int) error {
	if degree != 0 || coeff != 0 {
		return nil
	}
	return e.value()
}

func (e constant) Eval(_, coeff int) error { return e.EvalC0(coeff) }

// series wraps a node that depends on time only. Higher multi-indices
// stay zero.
type series struct {
	step func(k int) error
}

func (e series) EvalC0(coeff int) error             { return e.step(coeff) }
func (e series) EvalC0HomogeneousPolynomial() error { return e.step(0) }

func (e series) EvalHomogeneousPolynomial(degree, coeff int) error {
	if degree != 0 {
		return nil
	}
	return e.step(coeff)
}

func (e series) Eval(_, coeff int) error { return e.step(coeff) }

// joint wraps a state-dependent node.
type joint struct {
	s stepper
}

func (e joint) EvalC0(coeff int) error             { return e.s.value(coeff) }
func (e joint) EvalC0HomogeneousPolynomial() error { return e.s.value(0) }

func (e joint) EvalHomogeneousPolynomial(degree, coeff int) error {
	if degree == 0 {
		return e.s.value(coeff)
	}
	return e.s.degree(degree, coeff)
}

func (e joint) Eval(degree, coeff int) error {
	if err := e.s.value(coeff); err != nil {
		return err
	}
	for d := 1; d <= degree; d++ {
		if err := e.s.degree(d, coeff); err != nil {
			return err
		}
	}
	return nil
}

// byShape adapts s to the evaluation pattern of shape.
func byShape(shape ir.Shape, s stepper) Evaluator {
	switch shape {
	case ir.ShapeConst:
		return constant{value: func() error { return s.value(0) }}
	case ir.ShapeTime, ir.ShapeFunTime:
		return series{step: s.value}
	default:
		return joint{s: s}
	}
}

// noop is the evaluator of nodes whose blocks are filled by someone else.
type noop struct{}

func (noop) EvalC0(int) error                         { return nil }
func (noop) EvalC0HomogeneousPolynomial() error       { return nil }
func (noop) EvalHomogeneousPolynomial(_, _ int) error { return nil }
func (noop) Eval(_, _ int) error                      { return nil }
