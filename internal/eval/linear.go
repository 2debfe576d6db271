package eval

// linear evaluates a*left + b*right for the Add, Sub and UnaryMinus
// families. Only operands flagged as state-dependent contribute to
// multi-indices of positive degree.
type linear struct {
	ops               Operands
	a, b              float64
	leftVar, rightVar bool
	hasRight          bool
}

func newLinear(ops Operands, a, b float64, leftVar, rightVar bool) *linear {
	return &linear{ops: ops, a: a, b: b, leftVar: leftVar, rightVar: rightVar, hasRight: ops.Right != nil}
}

func (e *linear) value(k int) error {
	r := e.a * e.ops.Left[k]
	if e.hasRight {
		r += e.b * e.ops.Right[k]
	}
	e.ops.Result[k] = r
	return nil
}

func (e *linear) degree(d, k int) error {
	f, g, h := e.ops.Left, e.ops.Right, e.ops.Result
	switch {
	case e.leftVar && e.rightVar:
		forDegree(e.ops.Indexer, d, func(p int) { h[p+k] = e.a*f[p+k] + e.b*g[p+k] })
	case e.leftVar:
		forDegree(e.ops.Indexer, d, func(p int) { h[p+k] = e.a * f[p+k] })
	case e.rightVar:
		forDegree(e.ops.Indexer, d, func(p int) { h[p+k] = e.b * g[p+k] })
	}
	return nil
}
