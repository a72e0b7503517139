package enforce

import (
	"fmt"
	"time"
)

// EnforcementTimeoutError indicates the total enforcement latency budget
// was exceeded mid-pipeline. The decision is forced to ESCALATE; the
// partial state is still audited.
type EnforcementTimeoutError struct {
	SessionID string
	Budget    time.Duration
	Stage     string
}

// Error returns the error message.
func (e *EnforcementTimeoutError) Error() string {
	return fmt.Sprintf("enforcement budget %s exceeded during %s (session %s)", e.Budget, e.Stage, e.SessionID)
}

// ClassificationError indicates the query could not be classified: the
// keyword match stayed below the confidence floor and the fallback
// classifier was unavailable or also failed. The pipeline never guesses
// a default domain; an unclassifiable query escalates.
type ClassificationError struct {
	Query      string
	Confidence float64
	Cause      error
}

// Error returns the error message.
func (e *ClassificationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("query classification failed (confidence %.2f, fallback error: %v)", e.Confidence, e.Cause)
	}
	return fmt.Sprintf("query classification failed (confidence %.2f, no fallback classifier)", e.Confidence)
}

// Unwrap returns the underlying cause.
func (e *ClassificationError) Unwrap() error {
	return e.Cause
}

// GenerationError indicates the generation service failed or returned an
// empty response within a retry attempt.
type GenerationError struct {
	Attempt int
	Cause   error
}

// Error returns the error message.
func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed on attempt %d: %v", e.Attempt, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// CheckFatalError indicates a hard-dependency verification check failed
// outright. Only the formal check can be fatal; the other checks degrade.
type CheckFatalError struct {
	Check string
	Cause error
}

// Error returns the error message.
func (e *CheckFatalError) Error() string {
	return fmt.Sprintf("%s check failed: %v", e.Check, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *CheckFatalError) Unwrap() error {
	return e.Cause
}
