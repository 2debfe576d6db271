package eval

import "math"

// sincos evaluates sin(left) into its own block and cos(left) into the block
// of the paired cos node:
//
//	w s_P =  sum_{W>0} W f_A c_B
//	w c_P = -sum_{W>0} W f_A s_B
type sincos struct {
	ops Operands
}

func (e *sincos) value(k int) error {
	f, s, c := e.ops.Left, e.ops.Result, e.ops.Right
	if k == 0 {
		s[0], c[0] = math.Sincos(f[0])
		return nil
	}
	var rs, rc float64
	for j := 1; j <= k; j++ {
		jf := float64(j) * f[j]
		rs += jf * c[k-j]
		rc += jf * s[k-j]
	}
	s[k] = rs / float64(k)
	c[k] = -rc / float64(k)
	return nil
}

func (e *sincos) degree(d, k int) error {
	ix := e.ops.Indexer
	f, s, c := e.ops.Left, e.ops.Result, e.ops.Right
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
				s[p+k] = dot(f, p, c, 0, k)
				c[p+k] = -dot(f, p, s, 0, k)
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
						s[p+k] = 0.5*dot(f, ei, c, ei, k) + dot(f, p, c, 0, k)
						c[p+k] = -0.5*dot(f, ei, s, ei, k) - dot(f, p, s, 0, k)
						continue
					}
					ej := ix.Index1(j) * st
					s[p+k] = dot(f, ei, c, ej, k) + dot(f, p, c, 0, k)
					c[p+k] = -dot(f, ei, s, ej, k) - dot(f, p, s, 0, k)
				}
			}
			return nil
		case 3:
			forC3(ix, func(t *c3) {
				s[t.p+k] = t.weighted(f, c, k) + dot(f, t.p, c, 0, k)
				c[t.p+k] = -t.weighted(f, s, k) - dot(f, t.p, s, 0, k)
			})
			return nil
		}
	}
	forDegree(ix, d, func(p int) {
		mi := p / st
		var rs, rc float64
		for _, pr := range ix.PairsFromEp(mi, k) {
			wf := float64(pr.W) * f[pr.A]
			rs += wf * c[pr.B]
			rc += wf * s[pr.B]
		}
		w := float64(ix.Weight(mi, k))
		s[p+k] = rs / w
		c[p+k] = -rc / w
	})
	return nil
}
