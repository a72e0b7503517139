package clients

import (
	"context"
	"strings"

	"meridian-hq/meridian/pkg/enforce"
)

// generationMaxTokens bounds each generated response.
const generationMaxTokens = 2048

// GenerationClient calls the generation service. It implements
// enforce.Generator.
type GenerationClient struct {
	*httpClient
}

// NewGenerationClient creates a generation client.
func NewGenerationClient(config *Config) *GenerationClient {
	return &GenerationClient{httpClient: newHTTPClient(config)}
}

type generationRequest struct {
	System      string  `json:"system"`
	User        string  `json:"user"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

type generationResponse struct {
	Text string `json:"text"`
}

// Generate produces a response for a scaffolded request. The scaffold
// and any retry directives ride in the user portion; invariants stay in
// the system portion. Parameters are pinned deterministic.
func (c *GenerationClient) Generate(ctx context.Context, req *enforce.GenerationRequest) (string, error) {
	var user strings.Builder
	user.WriteString(req.Query)
	if req.Scaffold != "" {
		user.WriteString("\n\nFollow the enforcement scaffold below:\n")
		user.WriteString(req.Scaffold)
	}
	if len(req.Directives) > 0 {
		user.WriteString("\n\nSTRICT CONSTRAINTS:\n")
		user.WriteString(strings.Join(req.Directives, "\n"))
	}

	var out generationResponse
	err := c.postJSON(ctx, "generation", "/v1/generate", &generationRequest{
		System:      req.System,
		User:        user.String(),
		Temperature: 0,
		MaxTokens:   generationMaxTokens,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.Text, nil
}
