package solver

import (
	"fmt"
)

// EncodingError indicates a condition could not be encoded: it references
// a variable absent from the schema, uses an operator unsupported by the
// variable's type, or carries a literal of an incompatible type.
type EncodingError struct {
	Var    string
	Op     string
	Reason string
}

// Error returns the error message.
func (e *EncodingError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("cannot encode condition on %q with operator %s: %s", e.Var, e.Op, e.Reason)
	}
	return fmt.Sprintf("cannot encode condition on %q: %s", e.Var, e.Reason)
}

// CheckCancelledError indicates a satisfiability check was abandoned
// because its context expired.
type CheckCancelledError struct {
	Cause error
}

// Error returns the error message.
func (e *CheckCancelledError) Error() string {
	return fmt.Sprintf("satisfiability check cancelled: %v", e.Cause)
}

// Unwrap returns the underlying cause.
func (e *CheckCancelledError) Unwrap() error {
	return e.Cause
}
