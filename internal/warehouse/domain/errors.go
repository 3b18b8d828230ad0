package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so the delivery layer can map them to
// stable HTTP statuses and callers can tell a retryable race apart from
// a capacity conflict.
type ErrorKind string

const (
	// KindValidation marks malformed input. Rejected before any write.
	KindValidation ErrorKind = "validation"
	// KindNotFound marks a missing referenced record.
	KindNotFound ErrorKind = "not_found"
	// KindConflict marks a precondition or capacity violation. The
	// caller must change state or parameters before resubmitting.
	KindConflict ErrorKind = "conflict"
	// KindIntegrity marks inconsistent persisted state that needs
	// manual correction. Never auto-repaired.
	KindIntegrity ErrorKind = "integrity"
	// KindRetryable marks a concurrent-mutation race. The same call is
	// safe to retry unmodified after refreshing.
	KindRetryable ErrorKind = "retryable_conflict"
)

// Error is a classified domain failure.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Validationf builds a validation error.
func Validationf(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFoundf builds a not-found error.
func NotFoundf(format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflictf builds a precondition/capacity conflict error.
func Conflictf(format string, args ...interface{}) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Integrityf builds a consistency-integrity error.
func Integrityf(format string, args ...interface{}) error {
	return &Error{Kind: KindIntegrity, Message: fmt.Sprintf(format, args...)}
}

// Retryablef builds a concurrent-mutation race error.
func Retryablef(format string, args ...interface{}) error {
	return &Error{Kind: KindRetryable, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to a classified error.
func Wrap(kind ErrorKind, message string, err error) error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the classification of err, or an empty kind for
// unclassified (internal) errors.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
