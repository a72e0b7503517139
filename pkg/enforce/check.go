package enforce

import "time"

// CheckStatus tags a verification check outcome.
type CheckStatus int

const (
	// CheckOk means the check ran and its score is trustworthy.
	CheckOk CheckStatus = iota

	// CheckDegraded means the check could not run and substituted a
	// neutral score. Degradation is logged as a caveat on the decision,
	// never hidden.
	CheckDegraded

	// CheckFatal means a hard-dependency check failed; the request
	// cannot be scored and escalates.
	CheckFatal
)

// String returns the status label.
func (s CheckStatus) String() string {
	switch s {
	case CheckOk:
		return "ok"
	case CheckDegraded:
		return "degraded"
	}
	return "fatal"
}

// CheckResult is one verification check's tagged outcome.
type CheckResult struct {
	// Name identifies the check: pattern, formal, coverage, semantic.
	Name string

	// Status tags the outcome; Score is meaningful for Ok and Degraded.
	Status CheckStatus
	Score  float64

	// HardOverride marks a PII-class pattern match. It forces ESCALATE
	// regardless of the weighted score and can never be downgraded by
	// any other signal.
	HardOverride bool

	// Flags lists specific violations or issues found.
	Flags []string

	// Reason explains a degraded or fatal outcome.
	Reason string

	// Err is the underlying failure for a fatal outcome.
	Err error

	// Duration is the check's wall time.
	Duration time.Duration
}

// ok builds a successful result.
func okResult(name string, score float64, flags []string) CheckResult {
	return CheckResult{Name: name, Status: CheckOk, Score: score, Flags: flags}
}

// degraded builds a neutral-substitute result.
func degradedResult(name string, neutral float64, reason string) CheckResult {
	return CheckResult{Name: name, Status: CheckDegraded, Score: neutral, Reason: reason}
}

// fatal builds a hard-failure result.
func fatalResult(name string, err error) CheckResult {
	return CheckResult{Name: name, Status: CheckFatal, Reason: err.Error(), Err: err}
}
