package journal

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by Store methods after Close.
var ErrClosed = errors.New("journal closed")

// StorageError represents an error from the SQLite backend.
type StorageError struct {
	Operation string // Operation that failed ("open", "record", "query", "prune", ...)
	Cause     error  // Underlying error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("journal storage error [operation=%s]: %v", e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

func storageError(operation string, cause error) *StorageError {
	return &StorageError{Operation: operation, Cause: cause}
}
