package fault

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	// KindOperation is a generic wrapped failure. Not retryable by default.
	KindOperation Kind = iota
	// KindNotFound indicates a missing instance or resource. Not retryable.
	KindNotFound
	// KindConflict indicates a duplicate registration. Not retryable.
	KindConflict
	// KindConnection indicates an unavailable instance or exhausted failover
	// candidates. Retryable by default.
	KindConnection
	// KindTimeout indicates an operation exceeded its deadline. Retryable.
	KindTimeout
	// KindValidation indicates bad configuration or arguments. Not retryable.
	KindValidation
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindConnection:
		return "connection_failure"
	case KindTimeout:
		return "timeout"
	case KindValidation:
		return "validation_failure"
	case KindOperation:
		return "operation_failure"
	default:
		return "unknown"
	}
}

// retryableByDefault reports whether errors of this kind are worth retrying
// absent other information.
func (k Kind) retryableByDefault() bool {
	return k == KindConnection || k == KindTimeout
}

// Error is the uniform error payload used across toolfleet.
type Error struct {
	Kind      Kind
	Message   string
	Details   map[string]any
	Retryable bool
	cause     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports kind equality, so errors.Is(err, &Error{Kind: k}) matches by kind.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Kind == other.Kind
}

// WithDetails attaches structured details and returns the error.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

// New creates an error of the given kind with default retryability.
func New(kind Kind, message string) *Error {
	return &Error{
		Kind:      kind,
		Message:   message,
		Retryable: kind.retryableByDefault(),
	}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return New(kind, fmt.Sprintf(format, args...))
}

// Wrap creates an error of the given kind wrapping a cause.
func Wrap(kind Kind, message string, cause error) *Error {
	e := New(kind, message)
	e.cause = cause
	return e
}

// NotFound creates a not-found error.
func NotFound(message string) *Error { return New(KindNotFound, message) }

// NotFoundf creates a formatted not-found error.
func NotFoundf(format string, args ...any) *Error {
	return Newf(KindNotFound, format, args...)
}

// Conflict creates a conflict error.
func Conflict(message string) *Error { return New(KindConflict, message) }

// Conflictf creates a formatted conflict error.
func Conflictf(format string, args ...any) *Error {
	return Newf(KindConflict, format, args...)
}

// Connection creates a connection-failure error.
func Connection(message string) *Error { return New(KindConnection, message) }

// Connectionf creates a formatted connection-failure error.
func Connectionf(format string, args ...any) *Error {
	return Newf(KindConnection, format, args...)
}

// Timeout creates a timeout error.
func Timeout(message string) *Error { return New(KindTimeout, message) }

// Validation creates a validation error.
func Validation(message string) *Error { return New(KindValidation, message) }

// Validationf creates a formatted validation error.
func Validationf(format string, args ...any) *Error {
	return Newf(KindValidation, format, args...)
}

// Operation wraps an arbitrary error as a generic operation failure.
func Operation(message string, cause error) *Error {
	return Wrap(KindOperation, message, cause)
}

// Convert normalizes an arbitrary error into the taxonomy.
// Errors already carrying a Kind pass through unchanged. Context deadline
// errors become timeouts. Everything else becomes an operation failure.
func Convert(err error) *Error {
	if err == nil {
		return nil
	}

	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(KindTimeout, "operation deadline exceeded", err)
	}

	return Wrap(KindOperation, "operation failed", err)
}

// KindOf returns the kind of an error, if it belongs to the taxonomy.
func KindOf(err error) (Kind, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return KindOperation, false
}

// KindIs reports whether the error belongs to the taxonomy with the given kind.
func KindIs(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// IsRetryable reports whether the error is worth retrying. Errors outside
// the taxonomy are treated as retryable so transport-level failures surfaced
// by arbitrary operations still get retry coverage.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Retryable
	}
	return true
}
