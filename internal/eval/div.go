package eval

// div evaluates left/right for two state-dependent operands:
// h_P = (f_P - sum_{A != P} h_A g_B) / g_0.
type div struct {
	ops Operands
}

func (e *div) value(k int) error {
	f, g, h := e.ops.Left, e.ops.Right, e.ops.Result
	h[k] = (f[k] - dotBelow(h, 0, g, 0, k)) / g[0]
	return nil
}

func (e *div) degree(d, k int) error {
	ix := e.ops.Indexer
	f, g, h := e.ops.Left, e.ops.Right, e.ops.Result
	g0 := g[0]
	if !e.ops.Generic {
		switch d {
		case 1:
			st := ix.Stride()
			for i := 0; i < ix.Dim(); i++ {
				mi := ix.Index1(i)
				if !ix.Enabled(mi) {
					continue
				}
				p := mi * st
				h[p+k] = (f[p+k] - dot(h, 0, g, p, k) - dotBelow(h, p, g, 0, k)) / g0
			}
			return nil
		case 2:
			st, dim := ix.Stride(), ix.Dim()
			for i := 0; i < dim; i++ {
				ei := ix.Index1(i) * st
				for j := i; j < dim; j++ {
					mi := ix.Index2(i, j)
					if !ix.Enabled(mi) {
						continue
					}
					ej, p := ix.Index1(j)*st, mi*st
					r := f[p+k] - dot(h, 0, g, p, k) - dot(h, ei, g, ej, k) - dotBelow(h, p, g, 0, k)
					if i != j {
						r -= dot(h, ej, g, ei, k)
					}
					h[p+k] = r / g0
				}
			}
			return nil
		case 3:
			forC3(ix, func(t *c3) {
				r := f[t.p+k] - dot(h, 0, g, t.p, k) - t.cross(h, g, k) - dotBelow(h, t.p, g, 0, k)
				h[t.p+k] = r / g0
			})
			return nil
		}
	}
	forDegree(ix, d, func(p int) {
		ps := ix.Pairs(p/ix.Stride(), k)
		r := f[p+k]
		for _, pr := range ps[:len(ps)-1] {
			r -= h[pr.A] * g[pr.B]
		}
		h[p+k] = r / g0
	})
	return nil
}

// divByConst evaluates left/c.
type divByConst struct {
	ops Operands
}

func (e *divByConst) value(k int) error {
	e.ops.Result[k] = e.ops.Left[k] / e.ops.Right[0]
	return nil
}

func (e *divByConst) degree(d, k int) error {
	c, f, h := e.ops.Right[0], e.ops.Left, e.ops.Result
	forDegree(e.ops.Indexer, d, func(p int) { h[p+k] = f[p+k] / c })
	return nil
}

// divByTime evaluates left/t. From h*(t0 + s) = f the coefficients satisfy
// t0*h[k] + h[k-1] = f[k].
type divByTime struct {
	ops Operands
}

func (e *divByTime) value(k int) error {
	e.ops.Result[k] = e.at(0, k)
	return nil
}

func (e *divByTime) degree(d, k int) error {
	forDegree(e.ops.Indexer, d, func(p int) { e.ops.Result[p+k] = e.at(p, k) })
	return nil
}

func (e *divByTime) at(p, k int) float64 {
	f, h := e.ops.Left, e.ops.Result
	r := f[p+k]
	if k > 0 {
		r -= h[p+k-1]
	}
	return r / e.ops.Right[0]
}

// divByFunTime evaluates left/g(t) where only the value multi-index of the
// denominator is nonzero.
type divByFunTime struct {
	ops Operands
}

func (e *divByFunTime) value(k int) error {
	f, g, h := e.ops.Left, e.ops.Right, e.ops.Result
	h[k] = (f[k] - dotBelow(h, 0, g, 0, k)) / g[0]
	return nil
}

func (e *divByFunTime) degree(d, k int) error {
	f, g, h := e.ops.Left, e.ops.Right, e.ops.Result
	forDegree(e.ops.Indexer, d, func(p int) {
		h[p+k] = (f[p+k] - dotBelow(h, p, g, 0, k)) / g[0]
	})
	return nil
}
