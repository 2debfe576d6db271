package eval

import "math"

// arc evaluates the inverse trigonometric functions. Each satisfies
// h' * q = sign * f' for an auxiliary series q held in the right operand,
// shifted by offset at the value:
//
//	atan: q = f^2, offset 1, sign +1
//	asin: q = sqrt(1 - f^2), offset 0, sign +1
//	acos: q = sqrt(1 - f^2), offset 0, sign -1
//
// so that h_P = (sign f_P - (1/w) sum_{A != P, W>0} W h_A q_B) / (q_0 + offset).
type arc struct {
	ops    Operands
	fn     func(float64) float64
	sign   float64
	offset float64
}

func newAtan(ops Operands) *arc { return &arc{ops: ops, fn: math.Atan, sign: 1, offset: 1} }
func newAsin(ops Operands) *arc { return &arc{ops: ops, fn: math.Asin, sign: 1} }
func newAcos(ops Operands) *arc { return &arc{ops: ops, fn: math.Acos, sign: -1} }

func (e *arc) value(k int) error {
	f, q, h := e.ops.Left, e.ops.Right, e.ops.Result
	if k == 0 {
		h[0] = e.fn(f[0])
		return nil
	}
	var r float64
	for j := 1; j < k; j++ {
		r += float64(j) * h[j] * q[k-j]
	}
	h[k] = (e.sign*f[k] - r/float64(k)) / (q[0] + e.offset)
	return nil
}

func (e *arc) degree(d, k int) error {
	ix := e.ops.Indexer
	f, q, h := e.ops.Left, e.ops.Right, e.ops.Result
	den := q[0] + e.offset
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
				h[p+k] = (e.sign*f[p+k] - dotBelow(h, p, q, 0, k)) / den
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
					r := e.sign*f[p+k] - dotBelow(h, p, q, 0, k)
					if i == j {
						r -= 0.5 * dot(h, ei, q, ei, k)
					} else {
						r -= dot(h, ei, q, ix.Index1(j)*st, k)
					}
					h[p+k] = r / den
				}
			}
			return nil
		case 3:
			forC3(ix, func(t *c3) {
				h[t.p+k] = (e.sign*f[t.p+k] - t.weighted(h, q, k) - dotBelow(h, t.p, q, 0, k)) / den
			})
			return nil
		}
	}
	forDegree(ix, d, func(p int) {
		mi := p / st
		ps := ix.PairsFromEp(mi, k)
		var r float64
		for _, pr := range ps[:len(ps)-1] {
			r += float64(pr.W) * h[pr.A] * q[pr.B]
		}
		h[p+k] = (e.sign*f[p+k] - r/float64(ix.Weight(mi, k))) / den
	})
	return nil
}
