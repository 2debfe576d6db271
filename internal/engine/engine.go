package engine

import (
	"fmt"
	"log/slog"

	"github.com/roach88/jetdag/internal/eval"
	"github.com/roach88/jetdag/internal/ir"
	"github.com/roach88/jetdag/internal/jet"
)

// options configures an Engine or a Function.
type options struct {
	logger          *slog.Logger
	generic         bool
	maxCoefficients int
}

func newOptions(opts []EngineOption) options {
	o := options{
		logger:          slog.Default(),
		maxCoefficients: DefaultMaxCoefficients,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// EngineOption allows configuration of engine parameters. The same options
// are accepted by NewFunction.
type EngineOption func(*options)

// WithLogger sets the logger for build and evaluation diagnostics.
// Default: slog.Default().
func WithLogger(l *slog.Logger) EngineOption {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithGenericKernels disables the unrolled low-degree kernels. Results are
// the same up to rounding; the option exists to cross-check them.
func WithGenericKernels() EngineOption {
	return func(o *options) {
		o.generic = true
	}
}

// WithMaxCoefficients sets the arena size limit.
//
// Default: 2^24 coefficients (DefaultMaxCoefficients).
// Use WithMaxCoefficients(0) to disable the limit.
func WithMaxCoefficients(n int) EngineOption {
	return func(o *options) {
		o.maxCoefficients = n
	}
}

// Engine dispatches the evaluators of a finalized graph in topological
// order.
//
// INVARIANTS:
//   - evals[i] writes only block i of the arena (Sin also writes its cos node)
//   - evals were built for arena generation built; Indexer.Generation() must match
type Engine struct {
	graph *ir.Graph
	ix    *jet.Indexer
	evals []eval.Evaluator
	built uint64

	quota *CoefficientQuota
	options
}

// New creates an Engine for g over the arena of ix.
//
// The graph is copied: later changes to g are not seen by the engine. Leaf
// values are changed through SetValue.
func New(g *ir.Graph, ix *jet.Indexer, opts ...EngineOption) (*Engine, error) {
	if g == nil || ix == nil {
		return nil, newGraphError("nil graph or indexer")
	}
	if !g.Finalized {
		return nil, newGraphError("graph %q is not finalized; run the optimizer first", g.Name)
	}
	for i, n := range g.Nodes {
		if _, ok := eval.Shape(n.Op); !ok {
			return nil, &RuntimeError{
				Code:    ErrCodeUnknownOpcode,
				Message: fmt.Sprintf("no evaluator for opcode %s", n.Op),
				Node:    i,
				Op:      n.Op,
			}
		}
	}
	if err := g.CheckOrder(); err != nil {
		return nil, &RuntimeError{Code: ErrCodeInvalidGraph, Message: "graph is not topologically ordered", Node: -1, Err: err}
	}
	if ix.Nodes() != len(g.Nodes) || ix.Dim() != g.Dim() {
		return nil, newGraphError("indexer sized for %d nodes in %d variables, graph has %d nodes in %d variables",
			ix.Nodes(), ix.Dim(), len(g.Nodes), g.Dim())
	}

	e := &Engine{
		graph:   g.Clone(),
		ix:      ix,
		options: newOptions(opts),
	}
	e.quota = NewCoefficientQuota(e.maxCoefficients)
	if err := e.Rebuild(); err != nil {
		return nil, err
	}
	return e, nil
}

// Rebuild recreates every evaluator against the current arena. It must be
// called after Indexer.Resize.
func (e *Engine) Rebuild() error {
	if err := e.quota.Check(e.ix.Dim(), e.ix.Degree(), e.ix.Order(), e.ix.Nodes()); err != nil {
		return &RuntimeError{Code: ErrCodeQuotaExceeded, Message: "arena exceeds coefficient limit", Node: -1, Err: err}
	}

	evals := make([]eval.Evaluator, len(e.graph.Nodes))
	for i := range e.graph.Nodes {
		ev, err := eval.New(e.operands(i))
		if err != nil {
			return nodeError(i, e.graph.Nodes[i].Op, err)
		}
		evals[i] = ev
	}
	e.evals = evals
	e.built = e.ix.Generation()

	e.logger.Debug("evaluators built",
		"graph", e.graph.Name,
		"nodes", len(evals),
		"degree", e.ix.Degree(),
		"order", e.ix.Order(),
		"generation", e.built,
		"generic", e.generic,
	)
	return nil
}

func (e *Engine) operands(i int) eval.Operands {
	n := &e.graph.Nodes[i]
	ops := eval.Operands{
		Op:      n.Op,
		Indexer: e.ix,
		Result:  e.ix.Block(i),
		Value:   &n.Value,
		Generic: e.generic,
	}
	if n.Left >= 0 {
		ops.Left = e.ix.Block(n.Left)
	}
	if n.Right >= 0 {
		ops.Right = e.ix.Block(n.Right)
	}
	return ops
}

// check refuses evaluators built for an older arena.
func (e *Engine) check() error {
	if g := e.ix.Generation(); g != e.built {
		return newStaleError(e.built, g)
	}
	return nil
}

func (e *Engine) checkCoeff(coeff int) error {
	if coeff < 0 || coeff > e.ix.Order() {
		return newInputError("coefficient %d outside [0,%d]", coeff, e.ix.Order())
	}
	return nil
}

func (e *Engine) checkDegree(degree int) error {
	if degree < 0 || degree > e.ix.Degree() {
		return newInputError("degree %d outside [0,%d]", degree, e.ix.Degree())
	}
	return nil
}

// run invokes step on every evaluator in node order and stops at the first
// failure.
func (e *Engine) run(step func(eval.Evaluator) error) error {
	if err := e.check(); err != nil {
		return err
	}
	for i, ev := range e.evals {
		if err := step(ev); err != nil {
			re := nodeError(i, e.graph.Nodes[i].Op, err)
			e.logger.Debug("evaluation failed", "graph", e.graph.Name, "node", i, "op", re.Op.String(), "code", string(re.Code))
			return re
		}
	}
	return nil
}

// EvalC0HomogeneousPolynomial computes the value of every node.
func (e *Engine) EvalC0HomogeneousPolynomial() error {
	return e.run(func(ev eval.Evaluator) error { return ev.EvalC0HomogeneousPolynomial() })
}

// EvalC0 computes time coefficient coeff of every node value. Coefficients
// 0..coeff-1 must already be present.
func (e *Engine) EvalC0(coeff int) error {
	if err := e.checkCoeff(coeff); err != nil {
		return err
	}
	return e.run(func(ev eval.Evaluator) error { return ev.EvalC0(coeff) })
}

// EvalHomogeneousPolynomial computes the multi-indices of total degree
// degree at coefficient coeff. Lower degrees must already be present.
func (e *Engine) EvalHomogeneousPolynomial(degree, coeff int) error {
	if err := e.checkDegree(degree); err != nil {
		return err
	}
	if err := e.checkCoeff(coeff); err != nil {
		return err
	}
	return e.run(func(ev eval.Evaluator) error { return ev.EvalHomogeneousPolynomial(degree, coeff) })
}

// Eval computes coefficient coeff of every node for degrees 0..degree.
func (e *Engine) Eval(degree, coeff int) error {
	if err := e.checkDegree(degree); err != nil {
		return err
	}
	if err := e.checkCoeff(coeff); err != nil {
		return err
	}
	return e.run(func(ev eval.Evaluator) error { return ev.Eval(degree, coeff) })
}

// SetValue changes the literal of a leaf node: a parameter value, a
// constant or the time origin. Evaluators read it on their next call.
func (e *Engine) SetValue(node int, v float64) error {
	if node < 0 || node >= len(e.graph.Nodes) {
		return newInputError("node %d out of range", node)
	}
	switch e.graph.Nodes[node].Op {
	case ir.OpConst, ir.OpParam, ir.OpTime:
	default:
		return newInputError("node %d (%s) is not a const, param or time leaf", node, e.graph.Nodes[node].Op)
	}
	e.graph.Nodes[node].Value = v
	return nil
}

// Graph returns the engine's copy of the graph. Callers must not modify it.
func (e *Engine) Graph() *ir.Graph { return e.graph }

// Indexer returns the arena the engine evaluates into.
func (e *Engine) Indexer() *jet.Indexer { return e.ix }

// Block returns the coefficient block of a node.
func (e *Engine) Block(node int) ([]float64, error) {
	if node < 0 || node >= len(e.graph.Nodes) {
		return nil, newInputError("node %d out of range", node)
	}
	if err := e.check(); err != nil {
		return nil, err
	}
	return e.ix.Block(node), nil
}

func (e *Engine) String() string {
	return fmt.Sprintf("engine(%s: %d nodes, degree %d, order %d)", e.graph.Name, len(e.graph.Nodes), e.ix.Degree(), e.ix.Order())
}
