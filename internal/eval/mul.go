package eval

// mul evaluates the product of two state-dependent operands.
type mul struct {
	ops Operands
}

func (e *mul) value(k int) error {
	e.ops.Result[k] = mulValue(e.ops.Left, e.ops.Right, k)
	return nil
}

func (e *mul) degree(d, k int) error {
	mulDegree(e.ops.Indexer, e.ops.Left, e.ops.Right, e.ops.Result, d, k, e.ops.Generic)
	return nil
}

// mulByConst evaluates c*right with a constant left operand.
type mulByConst struct {
	ops Operands
}

func (e *mulByConst) value(k int) error {
	e.ops.Result[k] = e.ops.Left[0] * e.ops.Right[k]
	return nil
}

func (e *mulByConst) degree(d, k int) error {
	c, g, h := e.ops.Left[0], e.ops.Right, e.ops.Result
	forDegree(e.ops.Indexer, d, func(p int) { h[p+k] = c * g[p+k] })
	return nil
}

// mulConstByTime evaluates c*t = c*t0 + c*s.
type mulConstByTime struct {
	ops Operands
}

func (e *mulConstByTime) value(k int) error {
	c := e.ops.Left[0]
	switch k {
	case 0:
		e.ops.Result[0] = c * e.ops.Right[0]
	case 1:
		e.ops.Result[1] = c
	default:
		e.ops.Result[k] = 0
	}
	return nil
}

func (e *mulConstByTime) degree(int, int) error { return nil }

// mulByTime evaluates t*right using t = t0 + s, so that coefficient k is
// t0*right[k] + right[k-1].
type mulByTime struct {
	ops Operands
}

func (e *mulByTime) value(k int) error {
	e.ops.Result[k] = e.at(0, k)
	return nil
}

func (e *mulByTime) degree(d, k int) error {
	forDegree(e.ops.Indexer, d, func(p int) { e.ops.Result[p+k] = e.at(p, k) })
	return nil
}

func (e *mulByTime) at(p, k int) float64 {
	g := e.ops.Right
	r := e.ops.Left[0] * g[p+k]
	if k > 0 {
		r += g[p+k-1]
	}
	return r
}

// mulByFunTime evaluates f(t)*right where only the value multi-index of
// the left operand is nonzero.
type mulByFunTime struct {
	ops Operands
}

func (e *mulByFunTime) value(k int) error {
	e.ops.Result[k] = mulValue(e.ops.Left, e.ops.Right, k)
	return nil
}

func (e *mulByFunTime) degree(d, k int) error {
	f, g, h := e.ops.Left, e.ops.Right, e.ops.Result
	forDegree(e.ops.Indexer, d, func(p int) { h[p+k] = dot(f, 0, g, p, k) })
	return nil
}
