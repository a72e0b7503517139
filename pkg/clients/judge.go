package clients

import (
	"context"
	"fmt"
	"strings"

	"meridian-hq/meridian/pkg/enforce"
	"meridian-hq/meridian/pkg/policy"
)

// JudgeClient calls the semantic judge service. It implements
// enforce.Judge.
type JudgeClient struct {
	*httpClient
}

// NewJudgeClient creates a judge client.
func NewJudgeClient(config *Config) *JudgeClient {
	return &JudgeClient{httpClient: newHTTPClient(config)}
}

type judgeRequest struct {
	Query       string  `json:"query"`
	Response    string  `json:"response"`
	Rules       string  `json:"rules"`
	Constraints string  `json:"constraints"`
	Temperature float64 `json:"temperature"`
}

// Evaluate scores a response against the rules in scope.
func (c *JudgeClient) Evaluate(ctx context.Context, req *enforce.JudgeRequest) (*enforce.JudgeVerdict, error) {
	var verdict enforce.JudgeVerdict
	err := c.postJSON(ctx, "judge", "/v1/judge", &judgeRequest{
		Query:       req.Query,
		Response:    req.Response,
		Rules:       formatRules(req.Rules),
		Constraints: formatConstraints(req.Constraints),
		Temperature: 0,
	}, &verdict)
	if err != nil {
		return nil, err
	}
	if verdict.Score < 0 || verdict.Score > 1 {
		return nil, &APIError{Service: "judge", Message: fmt.Sprintf("score %v outside [0,1]", verdict.Score)}
	}
	return &verdict, nil
}

// formatRules renders rules for the judge prompt, one per line.
func formatRules(rules []policy.Rule) string {
	lines := make([]string, 0, len(rules))
	for _, r := range rules {
		conds := make([]string, 0, len(r.Conditions))
		for _, c := range r.Conditions {
			conds = append(conds, c.String())
		}
		lines = append(lines, fmt.Sprintf("- %s: IF %s THEN %s (source: %s)",
			r.ID, strings.Join(conds, " AND "), r.Action.Normalized(), r.Metadata.Source))
	}
	return strings.Join(lines, "\n")
}

// formatConstraints renders constraints for the judge prompt.
func formatConstraints(constraints []policy.Constraint) string {
	lines := make([]string, 0, len(constraints))
	for _, c := range constraints {
		lines = append(lines, "- "+c.Expression)
	}
	return strings.Join(lines, "\n")
}
