package retriever

import "fmt"

// RetrieverError represents errors that occur while talking to the
// provider API. Every failure mode of the retriever, transport or
// provider-side, surfaces as one of these.
type RetrieverError struct {
	Type    string // Type of error (auth_error, api_error, graphql_error, ...)
	Message string // Human-readable error message
	Body    string // Raw provider error payload, when one was returned
	Err     error  // Underlying error
}

func (e *RetrieverError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("provider retriever error (%s): %s: %s", e.Type, e.Message, e.Body)
	}
	return fmt.Sprintf("provider retriever error (%s): %s", e.Type, e.Message)
}

func (e *RetrieverError) Unwrap() error {
	return e.Err
}

// IsAuthError checks if the error is a credential failure.
func IsAuthError(err error) bool {
	if rerr, ok := err.(*RetrieverError); ok {
		return rerr.Type == "auth_error"
	}
	return false
}

// IsNotConfigured checks if the retriever was used before a credential
// was bound.
func IsNotConfigured(err error) bool {
	if rerr, ok := err.(*RetrieverError); ok {
		return rerr.Type == "not_configured"
	}
	return false
}
