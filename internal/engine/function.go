package engine

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/jetdag/internal/ir"
	"github.com/roach88/jetdag/internal/jet"
)

// Function evaluates a compiled graph as a map from the space variables
// (and time) to the graph outputs.
//
// It owns the arena and the engine, seeds the variable jets, and reads the
// output blocks back. A Function is not safe for concurrent use.
type Function struct {
	engine *Engine
	ix     *jet.Indexer
	quota  *CoefficientQuota
	logger *slog.Logger

	point []float64
	time  float64
}

// NewFunction compiles g into a Function computing jets up to degree with
// time coefficients 0..order.
func NewFunction(g *ir.Graph, degree, order int, opts ...EngineOption) (*Function, error) {
	if g == nil {
		return nil, newGraphError("nil graph")
	}
	o := newOptions(opts)
	quota := NewCoefficientQuota(o.maxCoefficients)
	if err := quota.Check(g.Dim(), degree, order, len(g.Nodes)); err != nil {
		return nil, &RuntimeError{Code: ErrCodeQuotaExceeded, Message: "arena exceeds coefficient limit", Node: -1, Err: err}
	}
	ix, err := jet.New(g.Dim(), degree, order, len(g.Nodes))
	if err != nil {
		return nil, &RuntimeError{Code: ErrCodeInvalidInput, Message: "cannot allocate arena", Node: -1, Err: err}
	}
	e, err := New(g, ix, opts...)
	if err != nil {
		return nil, err
	}
	f := &Function{
		engine: e,
		ix:     ix,
		quota:  quota,
		logger: o.logger,
		point:  make([]float64, g.Dim()),
	}
	if g.Time != ir.NoOperand {
		f.time = g.Nodes[g.Time].Value
	}
	return f, nil
}

// Engine returns the underlying dispatcher.
func (f *Function) Engine() *Engine { return f.engine }

// Indexer returns the arena.
func (f *Function) Indexer() *jet.Indexer { return f.ix }

// Dim returns the number of space variables.
func (f *Function) Dim() int { return f.ix.Dim() }

// Degree returns the maximum jet degree.
func (f *Function) Degree() int { return f.ix.Degree() }

// Order returns the highest time coefficient.
func (f *Function) Order() int { return f.ix.Order() }

// Point returns a copy of the current evaluation point.
func (f *Function) Point() []float64 { return slices.Clone(f.point) }

// Time returns the current time origin.
func (f *Function) Time() float64 { return f.time }

// VarNames returns the space-variable names in coordinate order.
func (f *Function) VarNames() []string { return f.engine.graph.VarNames() }

// OutputNames returns one name per output. Unnamed outputs are called
// out0, out1, ...
func (f *Function) OutputNames() []string {
	g := f.engine.graph
	names := make([]string, len(g.Outputs))
	for i, id := range g.Outputs {
		names[i] = g.Nodes[id].Name
		if names[i] == "" {
			names[i] = fmt.Sprintf("out%d", i)
		}
	}
	return names
}

// SetVar sets coordinate i of the evaluation point.
func (f *Function) SetVar(i int, x float64) error {
	if i < 0 || i >= len(f.point) {
		return newInputError("variable %d out of range [0,%d)", i, len(f.point))
	}
	f.point[i] = x
	return nil
}

// SetVars sets the whole evaluation point.
func (f *Function) SetVars(x []float64) error {
	if len(x) != len(f.point) {
		return newInputError("got %d coordinates, function has %d variables", len(x), len(f.point))
	}
	copy(f.point, x)
	return nil
}

// SetParam changes the value of a named parameter.
func (f *Function) SetParam(name string, v float64) error {
	id, ok := f.engine.graph.Params[name]
	if !ok {
		return newInputError("unknown parameter %q", name)
	}
	return f.engine.SetValue(id, v)
}

// SetTime sets the time origin t0. Graphs without a time variable accept
// and ignore it.
func (f *Function) SetTime(t0 float64) error {
	f.time = t0
	if id := f.engine.graph.Time; id != ir.NoOperand {
		return f.engine.SetValue(id, t0)
	}
	return nil
}

// SetDegree reallocates the arena for a new maximum degree. All
// coefficients are discarded and the mask is cleared.
func (f *Function) SetDegree(d int) error {
	return f.resize(d, f.ix.Order())
}

// SetOrder reallocates the arena for a new highest time coefficient. The
// mask is kept.
func (f *Function) SetOrder(n int) error {
	return f.resize(f.ix.Degree(), n)
}

func (f *Function) resize(degree, order int) error {
	if err := f.quota.Check(f.ix.Dim(), degree, order, f.ix.Nodes()); err != nil {
		return &RuntimeError{Code: ErrCodeQuotaExceeded, Message: "arena exceeds coefficient limit", Node: -1, Err: err}
	}
	if err := f.ix.Resize(degree, order); err != nil {
		return &RuntimeError{Code: ErrCodeInvalidInput, Message: "cannot resize arena", Node: -1, Err: err}
	}
	return f.engine.Rebuild()
}

// SetMask restricts jet computations to the given exponent vectors and
// every multi-index below them.
func (f *Function) SetMask(exponents [][]int) error {
	indices := make([]int, len(exponents))
	for i, e := range exponents {
		mi, err := f.ix.IndexOf(e)
		if err != nil {
			return &RuntimeError{Code: ErrCodeInvalidInput, Message: "bad mask entry", Node: -1, Err: err}
		}
		indices[i] = mi
	}
	return f.ix.SetMask(indices)
}

// AddToMask enables one more exponent vector and its closure.
func (f *Function) AddToMask(exponents []int) error {
	mi, err := f.ix.IndexOf(exponents)
	if err != nil {
		return &RuntimeError{Code: ErrCodeInvalidInput, Message: "bad mask entry", Node: -1, Err: err}
	}
	return f.ix.AddToMask(mi)
}

// ClearMask re-enables every multi-index.
func (f *Function) ClearMask() { f.ix.ClearMask() }

// prepare zeroes the arena and seeds each variable with the identity jet
// x_i + dx_i at the current point.
func (f *Function) prepare() {
	f.ix.Clear()
	for i, id := range f.engine.graph.Vars {
		f.ix.Set(id, 0, 0, f.point[i])
		if f.ix.Degree() >= 1 && f.ix.Enabled(f.ix.Index1(i)) {
			f.ix.Set(id, f.ix.Index1(i), 0, 1)
		}
	}
}

// Value evaluates the outputs at x.
func (f *Function) Value(x []float64) ([]float64, error) {
	if err := f.SetVars(x); err != nil {
		return nil, err
	}
	f.prepare()
	if err := f.engine.EvalC0HomogeneousPolynomial(); err != nil {
		return nil, err
	}
	outs := f.engine.graph.Outputs
	v := make([]float64, len(outs))
	for i, id := range outs {
		v[i] = f.ix.At(id, 0, 0)
	}
	return v, nil
}

// Derivative returns the Jacobian of the outputs at x, indexed
// [output][variable].
func (f *Function) Derivative(x []float64) ([][]float64, error) {
	if f.ix.Degree() < 1 {
		return nil, newInputError("derivative needs degree >= 1, function has degree %d", f.ix.Degree())
	}
	if err := f.SetVars(x); err != nil {
		return nil, err
	}
	f.prepare()
	if err := f.engine.Eval(1, 0); err != nil {
		return nil, err
	}
	outs := f.engine.graph.Outputs
	jac := make([][]float64, len(outs))
	for o, id := range outs {
		jac[o] = make([]float64, f.ix.Dim())
		for i := range jac[o] {
			jac[o][i] = f.ix.At(id, f.ix.Index1(i), 0)
		}
	}
	return jac, nil
}

// Jet returns every output coefficient up to the configured degree at time
// coefficient 0.
func (f *Function) Jet(x []float64) (*Jet, error) {
	if err := f.SetVars(x); err != nil {
		return nil, err
	}
	f.prepare()
	if err := f.engine.Eval(f.ix.Degree(), 0); err != nil {
		return nil, err
	}
	return f.collect(f.engine.graph.Outputs, f.OutputNames(), 0), nil
}

// TimeSeries returns time coefficients 0..order of every output value at
// the current point, with time origin t0.
func (f *Function) TimeSeries(t0 float64) (*Series, error) {
	if err := f.SetTime(t0); err != nil {
		return nil, err
	}
	f.prepare()
	for k := 0; k <= f.ix.Order(); k++ {
		if err := f.engine.EvalC0(k); err != nil {
			return nil, err
		}
	}
	outs := f.engine.graph.Outputs
	s := &Series{Names: f.OutputNames(), Order: f.ix.Order(), Coeffs: make([][]float64, len(outs))}
	for i, id := range outs {
		s.Coeffs[i] = make([]float64, f.ix.Order()+1)
		for k := range s.Coeffs[i] {
			s.Coeffs[i][k] = f.ix.At(id, 0, k)
		}
	}
	return s, nil
}

// ODECoefficients computes the Taylor coefficients of the solution of
// x' = f(x, t) through (x, t0), together with the jet of the flow with
// respect to the initial condition up to the configured degree.
//
// Output i is the derivative of variable i. The result is indexed by
// variable.
func (f *Function) ODECoefficients(x []float64, t0 float64) (*Jet, error) {
	g := f.engine.graph
	if len(g.Outputs) != len(g.Vars) {
		return nil, newInputError("vector field needs one output per variable, got %d outputs for %d variables",
			len(g.Outputs), len(g.Vars))
	}
	if err := f.SetVars(x); err != nil {
		return nil, err
	}
	if err := f.SetTime(t0); err != nil {
		return nil, err
	}
	f.prepare()

	enabled := f.ix.EnabledIndices()
	degree := f.ix.Degree()
	for k := 0; k < f.ix.Order(); k++ {
		if err := f.engine.Eval(degree, k); err != nil {
			return nil, err
		}
		scale := 1 / float64(k+1)
		for i, out := range g.Outputs {
			v := g.Vars[i]
			for _, mi := range enabled {
				f.ix.Set(v, mi, k+1, f.ix.At(out, mi, k)*scale)
			}
		}
	}

	f.logger.Debug("ode coefficients computed",
		"graph", g.Name,
		"dim", f.ix.Dim(),
		"degree", degree,
		"order", f.ix.Order(),
		"masked", f.ix.Masked(),
	)
	return f.collect(g.Vars, g.VarNames(), f.ix.Order()), nil
}

func (f *Function) collect(nodes []int, names []string, order int) *Jet {
	n := f.ix.JetSize()
	j := &Jet{
		Names:     names,
		Dim:       f.ix.Dim(),
		Degree:    f.ix.Degree(),
		Order:     order,
		Exponents: make([][]int, n),
		Coeffs:    make([][][]float64, len(nodes)),
	}
	for mi := 0; mi < n; mi++ {
		j.Exponents[mi] = slices.Clone(f.ix.Exponents(mi))
	}
	for c, id := range nodes {
		j.Coeffs[c] = make([][]float64, n)
		for mi := 0; mi < n; mi++ {
			j.Coeffs[c][mi] = make([]float64, order+1)
			for k := 0; k <= order; k++ {
				j.Coeffs[c][mi][k] = f.ix.At(id, mi, k)
			}
		}
	}
	return j
}
