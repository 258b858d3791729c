package snapshot

import "fmt"

// SnapshotError represents errors that occur during snapshot writing.
type SnapshotError struct {
	Type    string // Type of error (invalid_input, file_error, serialization_error)
	Message string // Human-readable error message
	Err     error  // Underlying error
}

func (e *SnapshotError) Error() string {
	return fmt.Sprintf("snapshot error (%s): %s", e.Type, e.Message)
}

func (e *SnapshotError) Unwrap() error {
	return e.Err
}
