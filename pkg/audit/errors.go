package audit

import "fmt"

// AuditError represents errors that occur during audit trail operations.
type AuditError struct {
	Type    string // Type of error (invalid_input, filesystem_error, git_operation_error)
	Message string // Human-readable error message
	Err     error  // Underlying error
}

func (e *AuditError) Error() string {
	return fmt.Sprintf("audit error (%s): %s", e.Type, e.Message)
}

func (e *AuditError) Unwrap() error {
	return e.Err
}
