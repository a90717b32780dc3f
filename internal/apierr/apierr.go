// Package apierr defines the error taxonomy shared by the store,
// engines, and API surface (spec §7). Each kind carries enough context
// to build the matching HTTP response at the handler boundary without
// re-deriving it from a generic error string.
package apierr

import (
	"fmt"

	"github.com/google/uuid"
)

// Kind is the closed set of error categories propagated out of Fletcher's
// core.
type Kind string

const (
	KindValidation        Kind = "ValidationError"
	KindCycleDetected     Kind = "CycleDetected"
	KindNotFound          Kind = "NotFound"
	KindIllegalTransition Kind = "IllegalTransition"
	KindUnauthorized      Kind = "Unauthorized"
	KindForbidden         Kind = "Forbidden"
	KindConflict          Kind = "Conflict"
	KindTransient         Kind = "Transient"
	KindUnavailable       Kind = "Unavailable"
	KindInternal          Kind = "Internal"
)

// Error is the concrete error type every package in internal/ returns
// for an expected (non-bug) failure mode.
type Error struct {
	Kind    Kind
	Message string
	// Path is set for KindCycleDetected: the witnessing cycle.
	Path []uuid.UUID
	// From/To are set for KindIllegalTransition.
	From string
	To   string
	Err  error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is allows errors.Is(err, &apierr.Error{Kind: ...}) style matching by kind.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return other.Kind == e.Kind
}

// New builds a plain error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an error of the given kind around an underlying cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validation builds a KindValidation error.
func Validation(format string, args ...any) *Error {
	return New(KindValidation, fmt.Sprintf(format, args...))
}

// NotFound builds a KindNotFound error.
func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, fmt.Sprintf(format, args...))
}

// CycleDetected builds a KindCycleDetected error carrying the witnessing path.
func CycleDetected(path []uuid.UUID) *Error {
	return &Error{Kind: KindCycleDetected, Message: "dependency graph contains a cycle", Path: path}
}

// IllegalTransition builds a KindIllegalTransition error.
func IllegalTransition(from, to string) *Error {
	return &Error{
		Kind:    KindIllegalTransition,
		Message: fmt.Sprintf("illegal transition from %s to %s", from, to),
		From:    from,
		To:      to,
	}
}

// OfKind reports whether err is an *Error of the given kind.
func OfKind(err error, kind Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}
