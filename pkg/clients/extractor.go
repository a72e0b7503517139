package clients

import (
	"context"

	"meridian-hq/meridian/pkg/policy"
)

// ExtractorClient calls the fact-extraction fallback service. It
// implements enforce.FactExtractor.
type ExtractorClient struct {
	*httpClient
}

// NewExtractorClient creates an extractor client.
func NewExtractorClient(config *Config) *ExtractorClient {
	return &ExtractorClient{httpClient: newHTTPClient(config)}
}

type extractVariable struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Values      []string `json:"values,omitempty"`
}

type extractRequest struct {
	Response    string                     `json:"response"`
	Variables   map[string]extractVariable `json:"variables"`
	Temperature float64                    `json:"temperature"`
}

type extractResponse struct {
	Facts map[string]interface{} `json:"facts"`
}

// Extract asks the service which variable values the response asserts.
// Only variables present in the schema come back; the caller re-types
// values against the schema before trusting them.
func (c *ExtractorClient) Extract(ctx context.Context, response string, schema policy.Schema) (map[string]interface{}, error) {
	vars := make(map[string]extractVariable, len(schema))
	for name, v := range schema {
		vars[name] = extractVariable{
			Type:        string(v.Type),
			Description: v.Description,
			Values:      v.Values,
		}
	}

	var out extractResponse
	err := c.postJSON(ctx, "extractor", "/v1/extract", &extractRequest{
		Response:    response,
		Variables:   vars,
		Temperature: 0,
	}, &out)
	if err != nil {
		return nil, err
	}

	facts := make(map[string]interface{}, len(out.Facts))
	for name, value := range out.Facts {
		if _, known := schema[name]; known {
			facts[name] = value
		}
	}
	return facts, nil
}
