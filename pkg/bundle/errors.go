package bundle

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	// ErrSchemaVersion indicates an unsupported bundle schema version.
	ErrSchemaVersion = errors.New("unsupported bundle schema version")
)

// IntegrityError indicates a dangling reference or structural hole found
// while compiling a bundle. Integrity failures are fatal: no partial
// bundle is ever published, and nothing is auto-repaired.
type IntegrityError struct {
	Problems []string
}

// Error returns the error message.
func (e *IntegrityError) Error() string {
	if len(e.Problems) == 1 {
		return fmt.Sprintf("bundle integrity: %s", e.Problems[0])
	}
	return fmt.Sprintf("bundle integrity: %d problems: %v", len(e.Problems), e.Problems)
}

// ValidationError indicates a bundle failed validation at load time. The
// runtime never trusts a bundle it did not itself validate; a load-time
// validation failure is fatal to the runtime instance.
type ValidationError struct {
	Path  string
	Cause error
}

// Error returns the error message.
func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("bundle validation failed for %q: %v", e.Path, e.Cause)
	}
	return fmt.Sprintf("bundle validation failed: %v", e.Cause)
}

// Unwrap returns the underlying cause.
func (e *ValidationError) Unwrap() error {
	return e.Cause
}
