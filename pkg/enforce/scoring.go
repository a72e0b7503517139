package enforce

// Check weights. The formal check carries most of the score; the
// pattern and coverage checks are cheap corroborating signals.
const (
	WeightFormal   = 0.55
	WeightSemantic = 0.25
	WeightPattern  = 0.10
	WeightCoverage = 0.10
)

// Action thresholds on the weighted compliance score.
const (
	ThresholdPass        = 0.95
	ThresholdAutoCorrect = 0.85
	ThresholdRegenerate  = 0.70
)

// Action is a routing decision for one scored response.
type Action string

const (
	// ActionPass accepts the response. Terminal.
	ActionPass Action = "PASS"

	// ActionAutoCorrect retries once with violation-specific hints.
	ActionAutoCorrect Action = "AUTO_CORRECT"

	// ActionRegenerate retries up to twice with progressively stricter
	// negative directives.
	ActionRegenerate Action = "REGENERATE"

	// ActionEscalate blocks the response and notifies owners. Terminal.
	ActionEscalate Action = "ESCALATE"
)

// ComputeScore combines the four check scores into the weighted
// compliance score S. Monotone in every sub-score.
func ComputeScore(r *Report) float64 {
	return WeightFormal*r.Formal.Score +
		WeightSemantic*r.Semantic.Score +
		WeightPattern*r.Pattern.Score +
		WeightCoverage*r.Coverage.Score
}

// RouteAction maps a score to an action. The hard override is absolute:
// it forces ESCALATE regardless of the score and is never downgraded by
// any other signal.
func RouteAction(score float64, hardOverride bool) Action {
	if hardOverride {
		return ActionEscalate
	}
	switch {
	case score >= ThresholdPass:
		return ActionPass
	case score >= ThresholdAutoCorrect:
		return ActionAutoCorrect
	case score >= ThresholdRegenerate:
		return ActionRegenerate
	}
	return ActionEscalate
}
