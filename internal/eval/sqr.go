package eval

// sqr evaluates offset + scale*left^2. Sqr uses (0, 1); OneMinusSqr uses
// (1, -1).
type sqr struct {
	ops    Operands
	offset float64
	scale  float64
}

func (e *sqr) value(k int) error {
	r := e.scale * sqrValue(e.ops.Left, k)
	if k == 0 {
		r += e.offset
	}
	e.ops.Result[k] = r
	return nil
}

func (e *sqr) degree(d, k int) error {
	sqrDegree(e.ops.Indexer, e.ops.Left, e.ops.Result, d, k, e.scale, e.ops.Generic)
	return nil
}

// sqrTime evaluates offset + scale*(t0 + s)^2 in closed form.
type sqrTime struct {
	ops    Operands
	offset float64
	scale  float64
}

func (e *sqrTime) value(k int) error {
	t0 := e.ops.Left[0]
	var r float64
	switch k {
	case 0:
		r = e.offset + e.scale*t0*t0
	case 1:
		r = 2 * e.scale * t0
	case 2:
		r = e.scale
	}
	e.ops.Result[k] = r
	return nil
}

func (e *sqrTime) degree(int, int) error { return nil }
