// Package apperr defines the error taxonomy shared by the storage and
// handler layers. Every guarded operation fails with one of these kinds so
// that callers can tell "doesn't exist" from "exists but you may not act"
// from "exists but the state forbids it".
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	NotFound         Kind = "not_found"
	Forbidden        Kind = "forbidden"
	RoleNotPermitted Kind = "role_not_permitted"
	InvalidState     Kind = "invalid_state_transition"
	ExpiredDeadline  Kind = "expired_deadline"
	Conflict         Kind = "conflict"
	Validation       Kind = "validation_error"
	Storage          Kind = "storage_error"
)

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Message
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the taxonomy kind from err, unwrapping as needed.
// It returns "" for errors outside the taxonomy (unexpected internal failures).
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
