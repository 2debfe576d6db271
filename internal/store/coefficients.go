package store

import (
	"fmt"
	"slices"

	"github.com/roach88/jetdag/internal/engine"
)

// JetCoefficients flattens a jet into rows, one per component, multi-index
// and time coefficient.
func JetCoefficients(j *engine.Jet) []Coefficient {
	var out []Coefficient
	for c, comp := range j.Coeffs {
		for mi, series := range comp {
			for k, v := range series {
				out = append(out, Coefficient{
					Position:  c,
					Component: j.Names[c],
					MI:        mi,
					Exponents: slices.Clone(j.Exponents[mi]),
					Coeff:     k,
					Value:     v,
				})
			}
		}
	}
	return out
}

// SeriesCoefficients flattens time series. Every row sits at the zero
// multi-index of a dim-variable jet.
func SeriesCoefficients(s *engine.Series, dim int) []Coefficient {
	var out []Coefficient
	for c, series := range s.Coeffs {
		for k, v := range series {
			out = append(out, Coefficient{
				Position:  c,
				Component: s.Names[c],
				Exponents: make([]int, dim),
				Coeff:     k,
				Value:     v,
			})
		}
	}
	return out
}

// ValueCoefficients stores plain output values as order-0 series.
func ValueCoefficients(names []string, values []float64, dim int) []Coefficient {
	s := &engine.Series{Names: names, Coeffs: make([][]float64, len(values))}
	for i, v := range values {
		s.Coeffs[i] = []float64{v}
	}
	return SeriesCoefficients(s, dim)
}

// Jet rebuilds the coefficient tensor of a run read with ReadRun. Missing
// rows read as zero.
func (r Run) Jet() (*engine.Jet, error) {
	if len(r.Coefficients) == 0 {
		return nil, fmt.Errorf("run %s has no coefficients", r.ID)
	}
	var ncomp, nmi, order int
	for _, c := range r.Coefficients {
		ncomp = max(ncomp, c.Position+1)
		nmi = max(nmi, c.MI+1)
		order = max(order, c.Coeff)
	}

	j := &engine.Jet{
		Names:     make([]string, ncomp),
		Dim:       len(r.Coefficients[0].Exponents),
		Degree:    r.Degree,
		Order:     order,
		Exponents: make([][]int, nmi),
		Coeffs:    make([][][]float64, ncomp),
	}
	for c := range j.Coeffs {
		j.Coeffs[c] = make([][]float64, nmi)
		for mi := range j.Coeffs[c] {
			j.Coeffs[c][mi] = make([]float64, order+1)
		}
	}
	for _, c := range r.Coefficients {
		j.Names[c.Position] = c.Component
		j.Exponents[c.MI] = c.Exponents
		j.Coeffs[c.Position][c.MI][c.Coeff] = c.Value
	}
	return j, nil
}
