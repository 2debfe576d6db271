package eval

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/jetdag/internal/ir"
	"github.com/roach88/jetdag/internal/jet"
)

type node struct {
	op          ir.Op
	left, right int
	value       float64
}

func leaf(op ir.Op, v float64) node           { return node{op: op, left: -1, right: -1, value: v} }
func un(op ir.Op, l int) node                 { return node{op: op, left: l, right: -1} }
func bin(op ir.Op, l, r int) node             { return node{op: op, left: l, right: r} }
func expo(op ir.Op, l, r int, c float64) node { return node{op: op, left: l, right: r, value: c} }

// rig wires evaluators over a hand-built node list, the way the engine
// does for a finalized graph.
type rig struct {
	t     *testing.T
	ix    *jet.Indexer
	nodes []node
	evals []Evaluator
}

func newRig(t *testing.T, dim, degree, order int, generic bool, nodes ...node) *rig {
	t.Helper()
	ix, err := jet.New(dim, degree, order, len(nodes))
	require.NoError(t, err)
	r := &rig{t: t, ix: ix, nodes: append([]node(nil), nodes...)}
	for i := range r.nodes {
		n := &r.nodes[i]
		ops := Operands{Op: n.op, Indexer: ix, Result: ix.Block(i), Value: &n.value, Generic: generic}
		if n.left >= 0 {
			ops.Left = ix.Block(n.left)
		}
		if n.right >= 0 {
			ops.Right = ix.Block(n.right)
		}
		ev, err := New(ops)
		require.NoError(t, err, "node %d (%s)", i, n.op)
		r.evals = append(r.evals, ev)
	}
	return r
}

// fill writes fn(mi, k) into every position of a node block.
func (r *rig) fill(node int, fn func(mi, k int) float64) {
	for mi := 0; mi < r.ix.JetSize(); mi++ {
		for k := 0; k <= r.ix.Order(); k++ {
			r.ix.Set(node, mi, k, fn(mi, k))
		}
	}
}

// seedVar makes node the coordinate function x_i + value.
func (r *rig) seedVar(node, i int, value float64) {
	r.ix.Set(node, 0, 0, value)
	if r.ix.Degree() > 0 {
		r.ix.Set(node, r.ix.Index1(i), 0, 1)
	}
}

// generalJet fills a var block with a deterministic jet whose value is v.
func (r *rig) generalJet(node int, v float64) {
	r.fill(node, func(mi, k int) float64 {
		if mi == 0 && k == 0 {
			return v
		}
		return 0.25 * math.Sin(float64(3*mi+7*k+node+1))
	})
}

func (r *rig) eval(degree, k int) {
	r.t.Helper()
	for i, ev := range r.evals {
		require.NoError(r.t, ev.Eval(degree, k), "node %d (%s)", i, r.nodes[i].op)
	}
}

func (r *rig) run(degree int) {
	r.t.Helper()
	for k := 0; k <= r.ix.Order(); k++ {
		r.eval(degree, k)
	}
}

func (r *rig) block(node int) []float64 {
	return append([]float64(nil), r.ix.Block(node)...)
}

// series returns the value time series of a node.
func (r *rig) series(node int) []float64 {
	return r.block(node)[:r.ix.Stride()]
}
