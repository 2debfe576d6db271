package engine

import (
	"fmt"
	"slices"
)

// Jet holds truncated Taylor coefficients of several components, indexed
// as Coeffs[component][multi-index][time coefficient].
//
// Multi-indices are in the indexer's graded order; Exponents[mi] is the
// exponent vector of linear index mi. Slots disabled by a mask are zero.
type Jet struct {
	Names     []string
	Dim       int
	Degree    int
	Order     int
	Exponents [][]int
	Coeffs    [][][]float64
}

// Coefficient returns the coefficient of the given exponent vector at time
// coefficient k.
func (j *Jet) Coefficient(component int, exponents []int, k int) (float64, error) {
	if component < 0 || component >= len(j.Coeffs) {
		return 0, fmt.Errorf("component %d out of range [0,%d)", component, len(j.Coeffs))
	}
	if k < 0 || k > j.Order {
		return 0, fmt.Errorf("time coefficient %d out of range [0,%d]", k, j.Order)
	}
	for mi, e := range j.Exponents {
		if slices.Equal(e, exponents) {
			return j.Coeffs[component][mi][k], nil
		}
	}
	return 0, fmt.Errorf("multi-index %v not in a degree-%d jet of %d variables", exponents, j.Degree, j.Dim)
}

// Value returns the zeroth coefficient of a component.
func (j *Jet) Value(component int) float64 {
	return j.Coeffs[component][0][0]
}

// SumSeries evaluates the truncated time series of every component and
// multi-index at step h. The result is indexed [component][multi-index].
func (j *Jet) SumSeries(h float64) [][]float64 {
	out := make([][]float64, len(j.Coeffs))
	for c, comp := range j.Coeffs {
		out[c] = make([]float64, len(comp))
		for mi, series := range comp {
			out[c][mi] = horner(series, h)
		}
	}
	return out
}

// Series holds the time coefficients 0..Order of each output value.
type Series struct {
	Names  []string
	Order  int
	Coeffs [][]float64
}

// Sum evaluates every output series at step h.
func (s *Series) Sum(h float64) []float64 {
	out := make([]float64, len(s.Coeffs))
	for i, c := range s.Coeffs {
		out[i] = horner(c, h)
	}
	return out
}

func horner(c []float64, h float64) float64 {
	var r float64
	for k := len(c) - 1; k >= 0; k-- {
		r = r*h + c[k]
	}
	return r
}
