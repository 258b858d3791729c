package adapter

import (
	"errors"
	"fmt"
)

// ErrManagerNotMember is returned when the integrating manager's email
// is not present in the project's member list.
var ErrManagerNotMember = errors.New("manager email is not in the project member list")

// ProviderError is the single distinguished error for provider-side
// failures. It wraps the provider's message and raw error payload; raw
// transport errors never escape the adapter undressed.
type ProviderError struct {
	Message string // Provider's human-readable message
	Body    string // Structured provider error payload, when available
	Err     error  // Underlying retriever error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider integration error: %s", e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsProviderError checks whether err is (or wraps) a ProviderError.
func IsProviderError(err error) bool {
	var perr *ProviderError
	return errors.As(err, &perr)
}
