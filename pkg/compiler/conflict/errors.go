package conflict

import (
	"fmt"
	"time"
)

// DetectionTimeoutError indicates a deadline was exceeded during the
// conflict scan. Conflict detection is a hard dependency of the compile:
// there is no silent skip, because an undetected conflict is a
// correctness failure. The error is fatal to the compile run.
type DetectionTimeoutError struct {
	// RuleA and RuleB identify the pair whose solver check timed out.
	// Both are empty when the scan-level deadline expired instead.
	RuleA string
	RuleB string

	// Budget is the per-pair solver budget that was exceeded. Zero when
	// the scan-level deadline expired; Cause carries that context error.
	Budget time.Duration

	Cause error
}

// Error returns the error message.
func (e *DetectionTimeoutError) Error() string {
	if e.RuleA != "" {
		return fmt.Sprintf("conflict detection timeout on pair (%s, %s) after %v", e.RuleA, e.RuleB, e.Budget)
	}
	return fmt.Sprintf("conflict scan aborted before completion: %v", e.Cause)
}

// Unwrap returns the underlying cause.
func (e *DetectionTimeoutError) Unwrap() error {
	return e.Cause
}
