package enforce

import (
	"context"
	"fmt"
)

// NeutralSemanticScore is substituted when the judge is unavailable.
// Degrade, don't block: a judge outage must not fail otherwise-compliant
// requests, but the substitution is always recorded as a caveat.
const NeutralSemanticScore = 0.5

// SemanticCheck asks the judge service to score the response on factual
// accuracy, action compliance, tone, and completeness. Any judge failure
// — including a nil judge — yields the neutral score as a Degraded
// result.
func SemanticCheck(ctx context.Context, response string, ec *Context, judge Judge) CheckResult {
	if judge == nil {
		return degradedResult("semantic", NeutralSemanticScore, "no judge configured")
	}

	verdict, err := judge.Evaluate(ctx, &JudgeRequest{
		Query:       ec.Query,
		Response:    response,
		Rules:       ec.Rules,
		Constraints: ec.Constraints,
	})
	if err != nil {
		return degradedResult("semantic", NeutralSemanticScore, fmt.Sprintf("judge unavailable: %v", err))
	}

	score := verdict.Score
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return okResult("semantic", score, verdict.Issues)
}
