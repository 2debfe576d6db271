package jet

// Pair names two in-block positions A and B whose product contributes to a
// target position P = A + B. W is the weight of A along the direction used
// by the differential recurrences: the first variable with a nonzero
// exponent in P, or time when P is a pure time coefficient.
type Pair struct {
	A, B int
	W    int
}

// Pivot returns the weighting direction of multi-index mi: a variable
// number, or -1 for the time direction.
func (ix *Indexer) Pivot(mi int) int { return ix.table.pivot[mi] }

// Weight returns the weight of the target position (mi, k) along its pivot.
func (ix *Indexer) Weight(mi, k int) int {
	if p := ix.table.pivot[mi]; p >= 0 {
		return ix.table.exps[mi][p]
	}
	return k
}

// Pairs returns every pair of positions convolving into (mi, k), ordered by
// the linear index of the A-side multi-index and then by the A-side time
// coefficient. The last entry is always (P, 0).
//
// Tables are built on first use and cached until the next Resize.
func (ix *Indexer) Pairs(mi, k int) []Pair {
	slot := mi*ix.stride + k
	if ps := ix.pairs[slot]; ps != nil {
		return ps
	}
	subs, comps := ix.table.sub(mi)
	pivot := ix.table.pivot[mi]
	ps := make([]Pair, 0, len(subs)*(k+1))
	for n, b := range subs {
		w := -1
		if pivot >= 0 {
			w = ix.table.exps[b][pivot]
		}
		for j := 0; j <= k; j++ {
			pw := w
			if pivot < 0 {
				pw = j
			}
			ps = append(ps, Pair{A: b*ix.stride + j, B: comps[n]*ix.stride + k - j, W: pw})
		}
	}
	ix.pairs[slot] = ps
	return ps
}

// PairsFromEp returns the pairs of (mi, k) with a positive weight, in the
// order of Pairs. Like Pairs it is cached until the next Resize.
func (ix *Indexer) PairsFromEp(mi, k int) []Pair {
	slot := mi*ix.stride + k
	if ps := ix.pairsEp[slot]; ps != nil {
		return ps
	}
	all := ix.Pairs(mi, k)
	out := make([]Pair, 0, len(all))
	for _, p := range all {
		if p.W > 0 {
			out = append(out, p)
		}
	}
	ix.pairsEp[slot] = out
	return out
}
