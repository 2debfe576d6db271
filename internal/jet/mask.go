package jet

import "fmt"

// SetMask restricts evaluation to the given multi-indices and everything
// they depend on. Passing an empty list leaves only the value enabled.
func (ix *Indexer) SetMask(indices []int) error {
	ix.mask = make([]bool, ix.jetSize)
	ix.mask[0] = true
	for _, mi := range indices {
		if err := ix.AddToMask(mi); err != nil {
			return err
		}
	}
	return nil
}

// AddToMask enables mi and every multi-index below it componentwise. The
// recurrence for a position only reads positions in that set, so the mask
// stays closed under evaluation. An unmasked indexer gets a fresh mask.
func (ix *Indexer) AddToMask(mi int) error {
	if mi < 0 || mi >= ix.jetSize {
		return fmt.Errorf("jet: multi-index %d out of range [0,%d)", mi, ix.jetSize)
	}
	if ix.mask == nil {
		ix.mask = make([]bool, ix.jetSize)
		ix.mask[0] = true
	}
	subs, _ := ix.table.sub(mi)
	for _, b := range subs {
		ix.mask[b] = true
	}
	return nil
}

// ClearMask re-enables every multi-index.
func (ix *Indexer) ClearMask() { ix.mask = nil }

// Masked reports whether a mask is installed.
func (ix *Indexer) Masked() bool { return ix.mask != nil }

// Enabled reports whether multi-index mi takes part in evaluation.
func (ix *Indexer) Enabled(mi int) bool {
	return ix.mask == nil || ix.mask[mi]
}

// EnabledIndices lists the enabled multi-indices in ascending order.
func (ix *Indexer) EnabledIndices() []int {
	out := make([]int, 0, ix.jetSize)
	for mi := 0; mi < ix.jetSize; mi++ {
		if ix.Enabled(mi) {
			out = append(out, mi)
		}
	}
	return out
}
