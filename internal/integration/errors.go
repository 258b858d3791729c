package integration

import (
	"errors"
	"fmt"
)

// Kind is the stable classification of a service failure. Every failure
// the service reports maps to exactly one kind.
type Kind string

const (
	KindNotFound Kind = "not_found"
	KindConflict Kind = "conflict"
	KindProvider Kind = "provider_error"
	KindInternal Kind = "internal_error"
)

// Error is the service-level error carrying a stable kind and a human
// message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("integration error (%s): %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFoundError builds a NotFound service error.
func NotFoundError(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// ConflictError builds a Conflict service error.
func ConflictError(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// KindOf returns the service kind of err, or KindInternal when err is
// not a service error.
func KindOf(err error) Kind {
	var serr *Error
	if errors.As(err, &serr) {
		return serr.Kind
	}
	return KindInternal
}

// IsNotFound checks if the error is a NotFound service error.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsConflict checks if the error is a Conflict service error.
func IsConflict(err error) bool {
	return KindOf(err) == KindConflict
}

// IsProviderFailure checks if the error is a provider-side failure.
func IsProviderFailure(err error) bool {
	return KindOf(err) == KindProvider
}
