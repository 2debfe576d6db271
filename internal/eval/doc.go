// Package eval implements one evaluator per node kind.
//
// An evaluator reads the coefficient blocks of its operands and writes the
// block of its own node. Blocks are slices of the jet.Indexer arena; an
// evaluator never owns coefficient memory except for private scratch used
// by integer powers of a vanishing base.
//
// Every evaluator exposes three stepping entry points:
//   - EvalC0(k): time coefficient k of the value
//   - EvalHomogeneousPolynomial(d, k): all multi-indices of degree d at k
//   - Eval(d, k): the value and every degree up to d at k
//
// Callers step coefficients in increasing order; a step at (d, k) may read
// any position of lower degree, and positions of degree d below k.
//
// Operands of a Const-shaped node only have coefficient 0. Time and FunTime
// nodes only have the value multi-index. Var nodes carry the full jet.
package eval
