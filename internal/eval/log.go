package eval

import "math"

// logarithm evaluates the natural logarithm through
// h_P = (f_P - (1/w) sum_{A != P, W>0} W h_A f_B) / f_0.
type logarithm struct {
	ops Operands
}

func (e *logarithm) value(k int) error {
	f, h := e.ops.Left, e.ops.Result
	if k == 0 {
		h[0] = math.Log(f[0])
		return nil
	}
	var r float64
	for j := 1; j < k; j++ {
		r += float64(j) * h[j] * f[k-j]
	}
	h[k] = (f[k] - r/float64(k)) / f[0]
	return nil
}

func (e *logarithm) degree(d, k int) error {
	ix := e.ops.Indexer
	f, h := e.ops.Left, e.ops.Result
	f0 := f[0]
	st, dim := ix.Stride(), ix.Dim()
	if !e.ops.Generic {
		switch d {
		case 1:
			for i := 0; i < dim; i++ {
				mi := ix.Index1(i)
				if !ix.Enabled(mi) {
					continue
				}
				p := mi * st
				h[p+k] = (f[p+k] - dotBelow(h, p, f, 0, k)) / f0
			}
			return nil
		case 2:
			for i := 0; i < dim; i++ {
				ei := ix.Index1(i) * st
				for j := i; j < dim; j++ {
					mi := ix.Index2(i, j)
					if !ix.Enabled(mi) {
						continue
					}
					p := mi * st
					r := f[p+k] - dotBelow(h, p, f, 0, k)
					if i == j {
						r -= 0.5 * dot(h, ei, f, ei, k)
					} else {
						r -= dot(h, ei, f, ix.Index1(j)*st, k)
					}
					h[p+k] = r / f0
				}
			}
			return nil
		case 3:
			forC3(ix, func(t *c3) {
				h[t.p+k] = (f[t.p+k] - t.weighted(h, f, k) - dotBelow(h, t.p, f, 0, k)) / f0
			})
			return nil
		}
	}
	forDegree(ix, d, func(p int) {
		mi := p / st
		ps := ix.PairsFromEp(mi, k)
		var r float64
		for _, pr := range ps[:len(ps)-1] {
			r += float64(pr.W) * h[pr.A] * f[pr.B]
		}
		h[p+k] = (f[p+k] - r/float64(ix.Weight(mi, k))) / f0
	})
	return nil
}
