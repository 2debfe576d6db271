package engine

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/roach88/jetdag/internal/eval"
	"github.com/roach88/jetdag/internal/ir"
)

// RuntimeError represents an error detected while building or running the
// evaluators of a graph.
//
// Runtime errors include:
//   - Unknown opcode: a node has no evaluator
//   - Domain: an operation was evaluated outside its domain
//   - Stale evaluators: the arena was reallocated without Rebuild
//   - Quota exceeded: the arena would exceed the coefficient limit
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Node is the failing node id, or -1 when no node is involved.
	Node int

	// Op is the opcode of Node.
	Op ir.Op

	// Details contains additional context.
	Details map[string]string

	// Err is the underlying cause, if any.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeUnknownOpcode indicates a node whose opcode has no evaluator.
	ErrCodeUnknownOpcode RuntimeErrorCode = "UNKNOWN_OPCODE"

	// ErrCodeDomain indicates an evaluation outside an operator's domain.
	ErrCodeDomain RuntimeErrorCode = "DOMAIN"

	// ErrCodeStaleEvaluators indicates evaluators built for an older arena.
	ErrCodeStaleEvaluators RuntimeErrorCode = "STALE_EVALUATORS"

	// ErrCodeInvalidGraph indicates a graph the engine cannot run.
	ErrCodeInvalidGraph RuntimeErrorCode = "INVALID_GRAPH"

	// ErrCodeInvalidInput indicates a bad argument to an evaluation call.
	ErrCodeInvalidInput RuntimeErrorCode = "INVALID_INPUT"

	// ErrCodeQuotaExceeded indicates an arena above the coefficient limit.
	ErrCodeQuotaExceeded RuntimeErrorCode = "QUOTA_EXCEEDED"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Node >= 0 {
		msg = fmt.Sprintf("%s (node=%d, op=%s)", msg, e.Node, e.Op)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error { return e.Err }

func hasCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsDomainError returns true if the error is a domain error.
func IsDomainError(err error) bool { return hasCode(err, ErrCodeDomain) }

// IsStaleError returns true if evaluators must be rebuilt.
func IsStaleError(err error) bool { return hasCode(err, ErrCodeStaleEvaluators) }

// IsUnknownOpcodeError returns true if a node had no evaluator.
func IsUnknownOpcodeError(err error) bool { return hasCode(err, ErrCodeUnknownOpcode) }

// IsInvalidInputError returns true if an argument was rejected.
func IsInvalidInputError(err error) bool { return hasCode(err, ErrCodeInvalidInput) }

// IsQuotaError returns true if the error is a quota exceeded error.
// Matches both RuntimeError with ErrCodeQuotaExceeded and
// CoefficientsExceededError.
func IsQuotaError(err error) bool {
	if hasCode(err, ErrCodeQuotaExceeded) {
		return true
	}
	var ce *CoefficientsExceededError
	return errors.As(err, &ce)
}

func newGraphError(format string, args ...any) *RuntimeError {
	return &RuntimeError{Code: ErrCodeInvalidGraph, Message: fmt.Sprintf(format, args...), Node: -1}
}

func newInputError(format string, args ...any) *RuntimeError {
	return &RuntimeError{Code: ErrCodeInvalidInput, Message: fmt.Sprintf(format, args...), Node: -1}
}

func newStaleError(built, current uint64) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeStaleEvaluators,
		Message: "arena was reallocated; call Rebuild",
		Node:    -1,
		Details: map[string]string{
			"built_generation":   strconv.FormatUint(built, 10),
			"current_generation": strconv.FormatUint(current, 10),
		},
	}
}

// nodeError classifies an evaluator failure at node id.
func nodeError(id int, op ir.Op, err error) *RuntimeError {
	re := &RuntimeError{Code: ErrCodeInvalidGraph, Message: "evaluator failed", Node: id, Op: op, Err: err}
	switch {
	case eval.IsDomainError(err):
		re.Code = ErrCodeDomain
		re.Message = "evaluation outside the domain"
	case eval.IsLogicError(err):
		re.Code = ErrCodeUnknownOpcode
		re.Message = fmt.Sprintf("no evaluator for opcode %s", op)
	}
	return re
}

// NewQuotaError creates a RuntimeError for an arena above the limit.
func NewQuotaError(requested, limit int) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeQuotaExceeded,
		Message: fmt.Sprintf("arena exceeds coefficient limit (%d > %d)", requested, limit),
		Node:    -1,
		Details: map[string]string{
			"requested": strconv.Itoa(requested),
			"limit":     strconv.Itoa(limit),
		},
	}
}
