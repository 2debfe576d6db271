package jet

import "fmt"

// binomial returns C(n, k) for small non-negative arguments.
func binomial(n, k int) int {
	if k < 0 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}
	r := 1
	for i := 1; i <= k; i++ {
		r = r * (n - k + i) / i
	}
	return r
}

// multisets returns the number of nondecreasing tuples of length r drawn
// from m symbols.
func multisets(m, r int) int {
	if r == 0 {
		return 1
	}
	return binomial(m+r-1, r)
}

// JetSizeFor returns the number of multi-indices of dim variables with total
// degree at most degree.
func JetSizeFor(dim, degree int) int {
	return binomial(dim+degree, degree)
}

// multiIndexTable enumerates every multi-index up to a degree.
type multiIndexTable struct {
	dim      int
	degree   int
	exps     [][]int // exponent vector per linear index
	degs     []int   // total degree per linear index
	pivot    []int   // first variable with a nonzero exponent, -1 for index 0
	begin    []int   // begin[d] is the first index of degree d; len degree+2
	index2   []int   // dim*dim, valid for i <= j
	index3   []int   // dim*dim*dim, valid for i <= j <= l
	subs     [][]int // lazily built sub-multi-index lists
	comps    [][]int // comps[mi][p] is the index of mi - subs[mi][p]
	tupleBuf []int
}

func newMultiIndexTable(dim, degree int) *multiIndexTable {
	size := JetSizeFor(dim, degree)
	t := &multiIndexTable{
		dim:    dim,
		degree: degree,
		exps:   make([][]int, 0, size),
		degs:   make([]int, 0, size),
		pivot:  make([]int, 0, size),
		begin:  make([]int, degree+2),
		subs:   make([][]int, size),
		comps:  make([][]int, size),
	}
	for d := 0; d <= degree; d++ {
		t.begin[d] = len(t.exps)
		tuple := make([]int, d)
		t.enumerate(tuple, 0, 0)
	}
	t.begin[degree+1] = len(t.exps)

	if degree >= 2 {
		t.index2 = make([]int, dim*dim)
		for i := 0; i < dim; i++ {
			for j := i; j < dim; j++ {
				t.index2[i*dim+j] = t.rank([]int{i, j})
			}
		}
	}
	if degree >= 3 {
		t.index3 = make([]int, dim*dim*dim)
		for i := 0; i < dim; i++ {
			for j := i; j < dim; j++ {
				for l := j; l < dim; l++ {
					t.index3[(i*dim+j)*dim+l] = t.rank([]int{i, j, l})
				}
			}
		}
	}
	return t
}

// enumerate appends every nondecreasing tuple extending tuple[:pos] with
// values starting at from, in lexicographic order.
func (t *multiIndexTable) enumerate(tuple []int, pos, from int) {
	if pos == len(tuple) {
		e := make([]int, t.dim)
		for _, v := range tuple {
			e[v]++
		}
		p := -1
		for i, n := range e {
			if n > 0 {
				p = i
				break
			}
		}
		t.exps = append(t.exps, e)
		t.degs = append(t.degs, len(tuple))
		t.pivot = append(t.pivot, p)
		return
	}
	for v := from; v < t.dim; v++ {
		tuple[pos] = v
		t.enumerate(tuple, pos+1, v)
	}
}

// rank returns the linear index of a nondecreasing variable tuple.
func (t *multiIndexTable) rank(tuple []int) int {
	d := len(tuple)
	idx := t.begin[d]
	prev := 0
	for p, v := range tuple {
		rest := d - p - 1
		for u := prev; u < v; u++ {
			idx += multisets(t.dim-u, rest)
		}
		prev = v
	}
	return idx
}

// indexOf returns the linear index of an exponent vector.
func (t *multiIndexTable) indexOf(e []int) (int, error) {
	if len(e) != t.dim {
		return 0, fmt.Errorf("multi-index has %d components, dimension is %d", len(e), t.dim)
	}
	t.tupleBuf = t.tupleBuf[:0]
	for v, n := range e {
		if n < 0 {
			return 0, fmt.Errorf("multi-index %v has a negative component", e)
		}
		for ; n > 0; n-- {
			t.tupleBuf = append(t.tupleBuf, v)
		}
	}
	if len(t.tupleBuf) > t.degree {
		return 0, fmt.Errorf("multi-index %v exceeds degree %d", e, t.degree)
	}
	return t.rank(t.tupleBuf), nil
}

// sub returns the linear indices of every beta <= mi componentwise, in
// ascending order, together with the index of mi - beta for each entry.
func (t *multiIndexTable) sub(mi int) ([]int, []int) {
	if t.subs[mi] != nil {
		return t.subs[mi], t.comps[mi]
	}
	alpha := t.exps[mi]
	var subs, comps []int
	diff := make([]int, t.dim)
	for b := 0; b < t.begin[t.degs[mi]+1]; b++ {
		beta := t.exps[b]
		ok := true
		for v := range alpha {
			if beta[v] > alpha[v] {
				ok = false
				break
			}
			diff[v] = alpha[v] - beta[v]
		}
		if !ok {
			continue
		}
		c, _ := t.indexOf(diff)
		subs = append(subs, b)
		comps = append(comps, c)
	}
	t.subs[mi], t.comps[mi] = subs, comps
	return subs, comps
}
