// Package apperr defines the business error taxonomy shared by the workflow
// engine and the HTTP adapter. NotFound, Unauthorized and Conflict are
// expected business outcomes; Transaction marks retryable infrastructure
// aborts.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers and the transport layer
type Kind string

const (
	KindNotFound     Kind = "NOT_FOUND"
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindConflict     Kind = "CONFLICT"
	KindValidation   Kind = "VALIDATION_FAILED"
	KindTransaction  Kind = "TRANSACTION_FAILED"
)

// Error carries a kind, a human-readable message and an optional cause
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Unwrap returns the wrapped cause
func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound reports an absent pod, proposal, user or permission set
func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// Unauthorized reports an actor lacking the required role or identity
func Unauthorized(format string, args ...interface{}) *Error {
	return &Error{Kind: KindUnauthorized, Msg: fmt.Sprintf(format, args...)}
}

// Conflict reports a state-machine violation: proposal not pending, duplicate
// pending proposal, or a lost accept race
func Conflict(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

// Validation reports an invalid payload
func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// Transaction wraps an infrastructure-level abort; surfaced as retryable
func Transaction(msg string, err error) *Error {
	return &Error{Kind: KindTransaction, Msg: msg, Err: err}
}

// KindOf extracts the kind from an error chain; empty when not an apperr
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether the error chain carries the given kind
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
