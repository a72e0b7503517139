package clients

import (
	"context"

	"meridian-hq/meridian/pkg/enforce"
)

// ClassifierClient calls the fallback classification service. It
// implements enforce.Classifier.
type ClassifierClient struct {
	*httpClient
}

// NewClassifierClient creates a classifier client.
func NewClassifierClient(config *Config) *ClassifierClient {
	return &ClassifierClient{httpClient: newHTTPClient(config)}
}

type classifyRequest struct {
	Query       string   `json:"query"`
	Domains     []string `json:"domains"`
	Temperature float64  `json:"temperature"`
}

// Classify asks the service to place a query among the bundle's domains.
func (c *ClassifierClient) Classify(ctx context.Context, query string, domains []string) (*enforce.Classification, error) {
	var out enforce.Classification
	err := c.postJSON(ctx, "classifier", "/v1/classify", &classifyRequest{
		Query:       query,
		Domains:     domains,
		Temperature: 0,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
