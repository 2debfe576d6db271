package jet

import (
	"fmt"
)

// Indexer maps (node, multi-index, time coefficient) triples into one flat
// float64 arena and caches the convolution tables used by the evaluators.
//
// An Indexer is not safe for concurrent use.
type Indexer struct {
	dim    int
	degree int
	order  int
	nodes  int

	stride    int
	jetSize   int
	blockSize int

	arena   []float64
	table   *multiIndexTable
	pairs   [][]Pair
	pairsEp [][]Pair
	mask    []bool

	generation uint64
}

// New allocates an arena for nodes blocks of a jet in dim variables up to
// the given total degree, with time coefficients 0..order.
func New(dim, degree, order, nodes int) (*Indexer, error) {
	if err := checkSizes(dim, degree, order, nodes); err != nil {
		return nil, err
	}
	ix := &Indexer{dim: dim, nodes: nodes}
	ix.allocate(degree, order)
	return ix, nil
}

func checkSizes(dim, degree, order, nodes int) error {
	switch {
	case dim < 0:
		return fmt.Errorf("jet: negative dimension %d", dim)
	case degree < 0:
		return fmt.Errorf("jet: negative degree %d", degree)
	case order < 0:
		return fmt.Errorf("jet: negative order %d", order)
	case nodes < 0:
		return fmt.Errorf("jet: negative node count %d", nodes)
	}
	return nil
}

// SizeFor returns the arena length New would allocate.
func SizeFor(dim, degree, order, nodes int) int {
	return nodes * JetSizeFor(dim, degree) * (order + 1)
}

func (ix *Indexer) allocate(degree, order int) {
	if ix.table == nil || ix.table.degree != degree {
		ix.table = newMultiIndexTable(ix.dim, degree)
		ix.mask = nil
	}
	ix.degree = degree
	ix.order = order
	ix.stride = order + 1
	ix.jetSize = len(ix.table.exps)
	ix.blockSize = ix.jetSize * ix.stride
	ix.arena = make([]float64, ix.nodes*ix.blockSize)
	ix.pairs = make([][]Pair, ix.blockSize)
	ix.pairsEp = make([][]Pair, ix.blockSize)
	ix.generation++
}

// Resize reallocates the arena for a new degree and order. All coefficients
// are discarded and every slice previously handed out becomes stale, which
// is signalled by a new Generation. The mask survives an order change but
// is cleared when the degree changes.
func (ix *Indexer) Resize(degree, order int) error {
	if err := checkSizes(ix.dim, degree, order, ix.nodes); err != nil {
		return err
	}
	ix.allocate(degree, order)
	return nil
}

// Generation increases with every allocation.
func (ix *Indexer) Generation() uint64 { return ix.generation }

// Dim returns the number of variables.
func (ix *Indexer) Dim() int { return ix.dim }

// Degree returns the highest total degree stored.
func (ix *Indexer) Degree() int { return ix.degree }

// Order returns the highest time coefficient stored.
func (ix *Indexer) Order() int { return ix.order }

// Nodes returns the number of node blocks in the arena.
func (ix *Indexer) Nodes() int { return ix.nodes }

// Stride is the distance between consecutive multi-indices of a block,
// Order()+1.
func (ix *Indexer) Stride() int { return ix.stride }

// JetSize returns the number of multi-indices up to Degree().
func (ix *Indexer) JetSize() int { return ix.jetSize }

// BlockSize returns the length of one node block, JetSize()*Stride().
func (ix *Indexer) BlockSize() int { return ix.blockSize }

// Size returns the arena length.
func (ix *Indexer) Size() int { return len(ix.arena) }

// Offset returns the arena position of coefficient k of multi-index mi of
// node.
func (ix *Indexer) Offset(node, mi, k int) int {
	return node*ix.blockSize + mi*ix.stride + k
}

// Block returns the coefficient block of node. The slice aliases the arena
// and its capacity ends at the block boundary.
func (ix *Indexer) Block(node int) []float64 {
	lo := node * ix.blockSize
	hi := lo + ix.blockSize
	return ix.arena[lo:hi:hi]
}

// At reads one coefficient.
func (ix *Indexer) At(node, mi, k int) float64 {
	return ix.arena[ix.Offset(node, mi, k)]
}

// Set writes one coefficient.
func (ix *Indexer) Set(node, mi, k int, v float64) {
	ix.arena[ix.Offset(node, mi, k)] = v
}

// Clear zeroes the whole arena.
func (ix *Indexer) Clear() {
	clear(ix.arena)
}

// ClearNode zeroes the block of one node.
func (ix *Indexer) ClearNode(node int) {
	clear(ix.Block(node))
}

// NewScratch returns a zeroed buffer with the shape of one node block. It
// is not part of the arena.
func (ix *Indexer) NewScratch() []float64 {
	return make([]float64, ix.blockSize)
}

// DegreeRange returns the half-open range of linear indices of degree d.
func (ix *Indexer) DegreeRange(d int) (begin, end int) {
	if d < 0 || d > ix.degree {
		return 0, 0
	}
	return ix.table.begin[d], ix.table.begin[d+1]
}

// Index1 returns the linear index of the unit multi-index e_i.
func (ix *Indexer) Index1(i int) int { return 1 + i }

// Index2 returns the linear index of e_i + e_j for i <= j.
func (ix *Indexer) Index2(i, j int) int { return ix.table.index2[i*ix.dim+j] }

// Index3 returns the linear index of e_i + e_j + e_l for i <= j <= l.
func (ix *Indexer) Index3(i, j, l int) int {
	return ix.table.index3[(i*ix.dim+j)*ix.dim+l]
}

// IndexOf returns the linear index of an exponent vector.
func (ix *Indexer) IndexOf(exponents []int) (int, error) {
	return ix.table.indexOf(exponents)
}

// Exponents returns the exponent vector of a linear index. The returned
// slice must not be modified.
func (ix *Indexer) Exponents(mi int) []int { return ix.table.exps[mi] }

// TotalDegree returns the total degree of a linear index.
func (ix *Indexer) TotalDegree(mi int) int { return ix.table.degs[mi] }

// SubIndices returns every multi-index beta <= mi componentwise in ascending
// order, and for each the index of mi - beta. The slices must not be
// modified.
func (ix *Indexer) SubIndices(mi int) (subs, complements []int) {
	return ix.table.sub(mi)
}
