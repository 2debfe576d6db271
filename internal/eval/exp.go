package eval

import "math"

// exponential evaluates e^left through w*h_P = sum_{W>0} W f_A h_B.
type exponential struct {
	ops Operands
}

func (e *exponential) value(k int) error {
	f, h := e.ops.Left, e.ops.Result
	if k == 0 {
		h[0] = math.Exp(f[0])
		return nil
	}
	var r float64
	for j := 1; j <= k; j++ {
		r += float64(j) * f[j] * h[k-j]
	}
	h[k] = r / float64(k)
	return nil
}

func (e *exponential) degree(d, k int) error {
	ix := e.ops.Indexer
	f, h := e.ops.Left, e.ops.Result
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
				h[p+k] = dot(f, p, h, 0, k)
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
					if i == j {
						h[p+k] = 0.5*dot(f, ei, h, ei, k) + dot(f, p, h, 0, k)
						continue
					}
					h[p+k] = dot(f, ei, h, ix.Index1(j)*st, k) + dot(f, p, h, 0, k)
				}
			}
			return nil
		case 3:
			forC3(ix, func(t *c3) {
				h[t.p+k] = t.weighted(f, h, k) + dot(f, t.p, h, 0, k)
			})
			return nil
		}
	}
	forDegree(ix, d, func(p int) {
		mi := p / st
		var r float64
		for _, pr := range ix.PairsFromEp(mi, k) {
			r += float64(pr.W) * f[pr.A] * h[pr.B]
		}
		h[p+k] = r / float64(ix.Weight(mi, k))
	})
	return nil
}

// expTime evaluates e^(t0+s), whose coefficients satisfy h[k] = h[k-1]/k.
type expTime struct {
	ops Operands
}

func (e *expTime) value(k int) error {
	h := e.ops.Result
	if k == 0 {
		h[0] = math.Exp(e.ops.Left[0])
		return nil
	}
	h[k] = h[k-1] / float64(k)
	return nil
}

func (e *expTime) degree(int, int) error { return nil }
