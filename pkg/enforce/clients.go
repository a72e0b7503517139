package enforce

import (
	"context"

	"meridian-hq/meridian/pkg/policy"
)

// GenerationRequest carries everything the generation service needs for
// one attempt. Invariants belong in the system portion, the scaffold and
// any retry directives in the user portion.
type GenerationRequest struct {
	// System is the invariant block and priority guidance.
	System string

	// Scaffold is the step-by-step enforcement scaffold.
	Scaffold string

	// Query is the raw user query.
	Query string

	// Directives holds retry-specific correction hints or negative
	// directives, one per line, empty on the first attempt.
	Directives []string
}

// Generator produces a free-text response for a scaffolded request.
// Implementations must pin deterministic parameters (temperature zero).
type Generator interface {
	Generate(ctx context.Context, req *GenerationRequest) (string, error)
}

// JudgeRequest is the semantic check's input.
type JudgeRequest struct {
	Query       string
	Response    string
	Rules       []policy.Rule
	Constraints []policy.Constraint
}

// JudgeVerdict is the judge service's scored evaluation.
type JudgeVerdict struct {
	// Score is the compliance score in [0,1].
	Score float64 `json:"score"`

	// Issues lists specific problems found.
	Issues []string `json:"issues"`

	// Explanation is a brief justification.
	Explanation string `json:"explanation"`
}

// Judge scores a response for semantic policy compliance.
type Judge interface {
	Evaluate(ctx context.Context, req *JudgeRequest) (*JudgeVerdict, error)
}

// Classification is a classified query.
type Classification struct {
	Domain     string  `json:"domain"`
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

// Classifier is the external fallback for queries the keyword matcher
// cannot place with enough confidence. Implementations must be
// deterministic (temperature-pinned).
type Classifier interface {
	Classify(ctx context.Context, query string, domains []string) (*Classification, error)
}

// FactExtractor is the external fallback for fact extraction when regex
// coverage of the variable schema is low.
type FactExtractor interface {
	Extract(ctx context.Context, response string, schema policy.Schema) (map[string]interface{}, error)
}
