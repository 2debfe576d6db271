package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/jetdag/internal/jet"
)

// DefaultMaxCoefficients bounds the arena at 2^24 float64 values (128 MiB).
//
// A jet in dim variables up to degree d has C(dim+d, d) multi-indices, so
// the arena grows fast with either. The limit turns an accidental
// "--degree 40" into an error instead of an out-of-memory kill.
const DefaultMaxCoefficients = 1 << 24

// CoefficientQuota enforces the maximum arena size of an engine.
//
// The quota is checked before every allocation: on construction and on
// each SetDegree or SetOrder of a Function. A limit <= 0 disables it.
type CoefficientQuota struct {
	limit int
}

// NewCoefficientQuota creates a quota with the given limit.
func NewCoefficientQuota(limit int) *CoefficientQuota {
	return &CoefficientQuota{limit: limit}
}

// Check validates the arena that jet.New would allocate for the given
// sizes. Returns CoefficientsExceededError if the limit is exceeded.
func (q *CoefficientQuota) Check(dim, degree, order, nodes int) error {
	if q.limit <= 0 {
		return nil
	}
	n := jet.SizeFor(dim, degree, order, nodes)
	if n > q.limit || n < 0 {
		return &CoefficientsExceededError{
			Requested: n,
			Limit:     q.limit,
			Dim:       dim,
			Degree:    degree,
			Order:     order,
			Nodes:     nodes,
		}
	}
	return nil
}

// Limit returns the maximum number of coefficients.
func (q *CoefficientQuota) Limit() int {
	return q.limit
}

// CoefficientsExceededError is returned when an arena would exceed the
// coefficient quota.
type CoefficientsExceededError struct {
	Requested int
	Limit     int
	Dim       int
	Degree    int
	Order     int
	Nodes     int
}

// Error implements the error interface.
func (e *CoefficientsExceededError) Error() string {
	return fmt.Sprintf("arena of %d coefficients exceeds limit %d (dim=%d, degree=%d, order=%d, nodes=%d)",
		e.Requested, e.Limit, e.Dim, e.Degree, e.Order, e.Nodes)
}

// IsCoefficientsExceededError returns true if the error is a
// CoefficientsExceededError.
func IsCoefficientsExceededError(err error) bool {
	var ce *CoefficientsExceededError
	return errors.As(err, &ce)
}
