package audit

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	// ErrWriterClosed indicates an append after the writer was closed.
	ErrWriterClosed = errors.New("audit writer closed")
)

// StorageError indicates a failure in an audit storage backend.
type StorageError struct {
	Backend string
	Op      string
	Cause   error
}

// Error returns the error message.
func (e *StorageError) Error() string {
	return fmt.Sprintf("audit storage %s: %s failed: %v", e.Backend, e.Op, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a StorageError.
func NewStorageError(backend, op string, cause error) *StorageError {
	return &StorageError{Backend: backend, Op: op, Cause: cause}
}

// ChainError indicates the hash chain failed verification at a specific
// entry. Any mismatch means tampering, loss, or out-of-order writes; the
// chain from the failing entry onward cannot be trusted.
type ChainError struct {
	// Index is the zero-based position of the failing entry.
	Index int

	// Reason describes the mismatch.
	Reason string
}

// Error returns the error message.
func (e *ChainError) Error() string {
	return fmt.Sprintf("audit chain broken at entry %d: %s", e.Index, e.Reason)
}
