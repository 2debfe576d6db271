package store

import (
	"fmt"

	"github.com/roach88/jetdag/internal/ir"
)

// RunKind is the query a run answered.
type RunKind string

const (
	KindValue  RunKind = "value"  // outputs at the point
	KindJet    RunKind = "jet"    // output jets at time coefficient 0
	KindSeries RunKind = "series" // output time series at degree 0
	KindODE    RunKind = "ode"    // Taylor coefficients of the flow
)

// ParseRunKind converts a stored or user-supplied kind.
func ParseRunKind(s string) (RunKind, error) {
	switch k := RunKind(s); k {
	case KindValue, KindJet, KindSeries, KindODE:
		return k, nil
	}
	return "", fmt.Errorf("unknown run kind %q (want value, jet, series or ode)", s)
}

// GraphRecord is a stored graph with its metadata.
type GraphRecord struct {
	ID        string
	Name      string
	IRVersion string
	NodeCount int
	Graph     *ir.Graph
}

// Run is one stored evaluation: the request and, when read with ReadRun,
// its coefficients.
type Run struct {
	ID      string
	GraphID string
	Kind    RunKind
	Degree  int
	Order   int
	Point   map[string]float64
	Params  map[string]float64
	Time    float64
	Mask    [][]int

	// InputHash identifies the request independent of ID and Seq. WriteRun
	// fills it in when empty.
	InputHash string

	Seq           int64
	EngineVersion string
	IRVersion     string

	Coefficients []Coefficient
}

// Coefficient is a single stored Taylor coefficient.
type Coefficient struct {
	Position  int    // component index within the run
	Component string // output or variable name
	MI        int    // graded-order linear multi-index
	Exponents []int
	Coeff     int // time coefficient k
	Value     float64
}

// ComputeInputHash returns the content hash of the run's request. Runs
// with equal hashes asked the same question of the same graph.
func (r Run) ComputeInputHash() (string, error) {
	inputs := make(map[string]float64, len(r.Point)+len(r.Params)+1)
	for name, v := range r.Point {
		inputs["var:"+name] = v
	}
	for name, v := range r.Params {
		inputs["param:"+name] = v
	}
	inputs["time"] = r.Time

	kind := string(r.Kind)
	if len(r.Mask) > 0 {
		kind += "/mask=" + formatMask(r.Mask)
	}
	return ir.InputHash(r.GraphID, kind, r.Degree, r.Order, inputs)
}
