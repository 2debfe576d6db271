package eval

import (
	"errors"
	"fmt"

	"github.com/roach88/jetdag/internal/ir"
)

// LogicError reports an opcode without an evaluator. It indicates a graph
// that bypassed the optimizer or a corrupted IR file.
type LogicError struct {
	Op ir.Op
}

func (e *LogicError) Error() string {
	return fmt.Sprintf("no evaluator for opcode %s (%d)", e.Op, int(e.Op))
}

// DomainError reports an operation evaluated outside its domain.
type DomainError struct {
	Op      ir.Op
	Message string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// IsDomainError reports whether err wraps a *DomainError.
func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

// IsLogicError reports whether err wraps a *LogicError.
func IsLogicError(err error) bool {
	var le *LogicError
	return errors.As(err, &le)
}
