// Package jet owns the coefficient storage of an expression DAG.
//
// Every node has one block of JetSize*Stride float64 values. A block holds,
// for each multi-index of total degree at most Degree, the time coefficients
// 0..Order. Multi-indices are graded by degree; inside one degree they follow
// the lexicographic order of their nondecreasing variable tuples, so index 0
// is the value, indices 1..Dim are the first partials and so on.
//
// The Indexer also answers the combinatorial questions the evaluators ask:
// which pairs of positions convolve into a target position, and along which
// direction the recurrences are weighted.
package jet
