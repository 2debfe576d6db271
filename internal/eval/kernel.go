package eval

import (
	"github.com/roach88/jetdag/internal/jet"
)

// dot returns sum_{s=0..k} f[a+s] * g[b+k-s]: the time convolution of the
// multi-index starting at offset a in f with the one at offset b in g.
func dot(f []float64, a int, g []float64, b int, k int) float64 {
	var r float64
	for s := 0; s <= k; s++ {
		r += f[a+s] * g[b+k-s]
	}
	return r
}

// dotBelow is dot without the s == k term.
func dotBelow(f []float64, a int, g []float64, b int, k int) float64 {
	var r float64
	for s := 0; s < k; s++ {
		r += f[a+s] * g[b+k-s]
	}
	return r
}

// forDegree calls fn with the block offset of every enabled multi-index of
// total degree d.
func forDegree(ix *jet.Indexer, d int, fn func(p int)) {
	lo, hi := ix.DegreeRange(d)
	st := ix.Stride()
	for mi := lo; mi < hi; mi++ {
		if ix.Enabled(mi) {
			fn(mi * st)
		}
	}
}

// ipow computes x^n by binary powering; negative n yields 1/x^-n.
func ipow(x float64, n int) float64 {
	if n < 0 {
		return 1 / ipow(x, -n)
	}
	r := 1.0
	for n > 0 {
		if n&1 == 1 {
			r *= x
		}
		x *= x
		n >>= 1
	}
	return r
}

// mulValue returns coefficient k of the product of two time series.
func mulValue(f, g []float64, k int) float64 {
	return dot(f, 0, g, 0, k)
}

// sqrValue returns coefficient k of the square of a time series.
func sqrValue(f []float64, k int) float64 {
	var r float64
	for j := 0; 2*j < k; j++ {
		r += f[j] * f[k-j]
	}
	r *= 2
	if k%2 == 0 {
		r += f[k/2] * f[k/2]
	}
	return r
}

// mulDegree writes h = f*g for every enabled multi-index of degree d at
// coefficient k.
func mulDegree(ix *jet.Indexer, f, g, h []float64, d, k int, generic bool) {
	if !generic {
		switch d {
		case 1:
			mulC1(ix, f, g, h, k)
			return
		case 2:
			mulC2(ix, f, g, h, k)
			return
		case 3:
			mulC3(ix, f, g, h, k)
			return
		}
	}
	forDegree(ix, d, func(p int) {
		var r float64
		for _, pr := range ix.Pairs(p/ix.Stride(), k) {
			r += f[pr.A] * g[pr.B]
		}
		h[p+k] = r
	})
}

func mulC1(ix *jet.Indexer, f, g, h []float64, k int) {
	st := ix.Stride()
	for i := 0; i < ix.Dim(); i++ {
		mi := ix.Index1(i)
		if !ix.Enabled(mi) {
			continue
		}
		p := mi * st
		h[p+k] = dot(f, 0, g, p, k) + dot(f, p, g, 0, k)
	}
}

func mulC2(ix *jet.Indexer, f, g, h []float64, k int) {
	st, dim := ix.Stride(), ix.Dim()
	for i := 0; i < dim; i++ {
		ei := ix.Index1(i) * st
		for j := i; j < dim; j++ {
			mi := ix.Index2(i, j)
			if !ix.Enabled(mi) {
				continue
			}
			ej, p := ix.Index1(j)*st, mi*st
			r := dot(f, 0, g, p, k) + dot(f, p, g, 0, k) + dot(f, ei, g, ej, k)
			if i != j {
				r += dot(f, ej, g, ei, k)
			}
			h[p+k] = r
		}
	}
}

func mulC3(ix *jet.Indexer, f, g, h []float64, k int) {
	forC3(ix, func(t *c3) {
		h[t.p+k] = dot(f, 0, g, t.p, k) + dot(f, t.p, g, 0, k) + t.cross(f, g, k)
	})
}

// sqrDegree writes h = scale*f^2 for every enabled multi-index of degree
// d >= 1 at coefficient k.
func sqrDegree(ix *jet.Indexer, f, h []float64, d, k int, scale float64, generic bool) {
	if !generic {
		switch d {
		case 1:
			sqrC1(ix, f, h, k, scale)
			return
		case 2:
			sqrC2(ix, f, h, k, scale)
			return
		case 3:
			sqrC3(ix, f, h, k, scale)
			return
		}
	}
	forDegree(ix, d, func(p int) {
		var r float64
		for _, pr := range ix.Pairs(p/ix.Stride(), k) {
			switch {
			case pr.A < pr.B:
				r += 2 * f[pr.A] * f[pr.B]
			case pr.A == pr.B:
				r += f[pr.A] * f[pr.A]
			}
		}
		h[p+k] = scale * r
	})
}

func sqrC1(ix *jet.Indexer, f, h []float64, k int, scale float64) {
	st := ix.Stride()
	for i := 0; i < ix.Dim(); i++ {
		mi := ix.Index1(i)
		if !ix.Enabled(mi) {
			continue
		}
		p := mi * st
		h[p+k] = scale * 2 * dot(f, 0, f, p, k)
	}
}

func sqrC2(ix *jet.Indexer, f, h []float64, k int, scale float64) {
	st, dim := ix.Stride(), ix.Dim()
	for i := 0; i < dim; i++ {
		ei := ix.Index1(i) * st
		for j := i; j < dim; j++ {
			mi := ix.Index2(i, j)
			if !ix.Enabled(mi) {
				continue
			}
			p := mi * st
			var r float64
			if i == j {
				r = 2*dot(f, 0, f, p, k) + dot(f, ei, f, ei, k)
			} else {
				r = 2 * (dot(f, 0, f, p, k) + dot(f, ei, f, ix.Index1(j)*st, k))
			}
			h[p+k] = scale * r
		}
	}
}

func sqrC3(ix *jet.Indexer, f, h []float64, k int, scale float64) {
	st, dim := ix.Stride(), ix.Dim()
	for i := 0; i < dim; i++ {
		ei := ix.Index1(i) * st
		for j := i; j < dim; j++ {
			ej := ix.Index1(j) * st
			eij := ix.Index2(i, j) * st
			for l := j; l < dim; l++ {
				mi := ix.Index3(i, j, l)
				if !ix.Enabled(mi) {
					continue
				}
				p := mi * st
				r := dot(f, 0, f, p, k)
				switch {
				case i < j && j < l:
					r += dot(f, ei, f, ix.Index2(j, l)*st, k) + dot(f, ej, f, ix.Index2(i, l)*st, k) +
						dot(f, ix.Index1(l)*st, f, eij, k)
				case i == j && j < l:
					el := ix.Index1(l) * st
					r += dot(f, ei, f, ix.Index2(i, l)*st, k) + dot(f, el, f, eij, k)
				case i < j && j == l:
					r += dot(f, ei, f, ix.Index2(j, j)*st, k) + dot(f, ej, f, eij, k)
				default:
					r += dot(f, ei, f, eij, k)
				}
				h[p+k] = scale * 2 * r
			}
		}
	}
}

// Shapes of a degree-3 multi-index e_i + e_j + e_l with i <= j <= l.
const (
	c3Distinct = iota // i < j < l
	c3IIL             // i == j < l
	c3IJJ             // i < j == l
	c3III             // i == j == l
)

// c3 holds the block offsets of a degree-3 multi-index P = e_i + e_j + e_l
// and of its nonzero proper sub-multi-indices. Coinciding indices share an
// offset, so for c3IIL ej == ei and ejl == eil.
type c3 struct {
	shape         int
	p             int
	ei, ej, el    int
	eij, eil, ejl int
}

// forC3 calls fn for every enabled multi-index of degree 3. The c3 value is
// reused between calls.
func forC3(ix *jet.Indexer, fn func(t *c3)) {
	st, dim := ix.Stride(), ix.Dim()
	var t c3
	for i := 0; i < dim; i++ {
		t.ei = ix.Index1(i) * st
		for j := i; j < dim; j++ {
			t.ej = ix.Index1(j) * st
			t.eij = ix.Index2(i, j) * st
			for l := j; l < dim; l++ {
				mi := ix.Index3(i, j, l)
				if !ix.Enabled(mi) {
					continue
				}
				t.p = mi * st
				t.el = ix.Index1(l) * st
				t.eil = ix.Index2(i, l) * st
				t.ejl = ix.Index2(j, l) * st
				switch {
				case i < j && j < l:
					t.shape = c3Distinct
				case i == j && j < l:
					t.shape = c3IIL
				case i < j:
					t.shape = c3IJJ
				default:
					t.shape = c3III
				}
				fn(&t)
			}
		}
	}
}

// cross returns sum a_A b_B over the splits P = A + B with A and B both
// nonzero, convolved in time up to k.
func (t *c3) cross(a, b []float64, k int) float64 {
	switch t.shape {
	case c3Distinct:
		return dot(a, t.ei, b, t.ejl, k) + dot(a, t.ej, b, t.eil, k) + dot(a, t.el, b, t.eij, k) +
			dot(a, t.eij, b, t.el, k) + dot(a, t.eil, b, t.ej, k) + dot(a, t.ejl, b, t.ei, k)
	case c3IIL:
		return dot(a, t.ei, b, t.eil, k) + dot(a, t.el, b, t.eij, k) +
			dot(a, t.eij, b, t.el, k) + dot(a, t.eil, b, t.ei, k)
	case c3IJJ:
		return dot(a, t.ei, b, t.ejl, k) + dot(a, t.ej, b, t.eij, k) +
			dot(a, t.eij, b, t.ej, k) + dot(a, t.ejl, b, t.ei, k)
	default:
		return dot(a, t.ei, b, t.eij, k) + dot(a, t.eij, b, t.ei, k)
	}
}

// weighted returns (1/w) sum W a_A b_B over the same splits as cross, where
// W is the exponent of A along a variable whose exponent in P is w. The
// variable is one of exponent 1 when P has one, which makes every weight 0
// or 1; for 3e_i it is i with w = 3.
func (t *c3) weighted(a, b []float64, k int) float64 {
	switch t.shape {
	case c3Distinct:
		return dot(a, t.el, b, t.eij, k) + dot(a, t.eil, b, t.ej, k) + dot(a, t.ejl, b, t.ei, k)
	case c3IIL:
		return dot(a, t.el, b, t.eij, k) + dot(a, t.eil, b, t.ei, k)
	case c3IJJ:
		return dot(a, t.ei, b, t.ejl, k) + dot(a, t.eij, b, t.ej, k)
	default:
		return (dot(a, t.ei, b, t.eij, k) + 2*dot(a, t.eij, b, t.ei, k)) / 3
	}
}
