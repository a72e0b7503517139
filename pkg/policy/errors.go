package policy

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	// ErrEmptyRuleSet indicates the compiler received no rules.
	ErrEmptyRuleSet = errors.New("empty rule set")
)

// DuplicateIDError indicates two rules or constraints share an id.
// Duplicate ids fail ingestion; they are never silently overwritten.
type DuplicateIDError struct {
	ID string
}

// Error returns the error message.
func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate id %q in input", e.ID)
}

// MalformedRuleError indicates a rule failed structural validation.
type MalformedRuleError struct {
	RuleID string
	Reason string
}

// Error returns the error message.
func (e *MalformedRuleError) Error() string {
	return fmt.Sprintf("rule %s: %s", e.RuleID, e.Reason)
}

// UnknownFieldError indicates the input carried a metadata field outside
// the closed schema.
type UnknownFieldError struct {
	RuleID string
	Cause  error
}

// Error returns the error message.
func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("rule set input near %s: unknown field: %v", e.RuleID, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *UnknownFieldError) Unwrap() error {
	return e.Cause
}
