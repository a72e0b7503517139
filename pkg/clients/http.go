package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Config contains the settings shared by every service client.
type Config struct {
	// BaseURL is the service endpoint root.
	BaseURL string `yaml:"base_url"`

	// APIKey is sent as a bearer token when set.
	APIKey string `yaml:"api_key"`

	// Timeout bounds each request.
	// Default: 30 seconds.
	Timeout time.Duration `yaml:"timeout"`

	// MaxIdleConns sizes the connection pool.
	// Default: 10.
	MaxIdleConns int `yaml:"max_idle_conns"`
}

// DefaultConfig returns the default client configuration for a base URL.
func DefaultConfig(baseURL string) *Config {
	return &Config{
		BaseURL:      baseURL,
		Timeout:      30 * time.Second,
		MaxIdleConns: 10,
	}
}

// httpClient wraps the pooled HTTP client every service client embeds.
type httpClient struct {
	config *Config
	client *http.Client
}

func newHTTPClient(config *Config) *httpClient {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxIdleConns == 0 {
		config.MaxIdleConns = 10
	}
	return &httpClient{
		config: config,
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        config.MaxIdleConns,
				MaxIdleConnsPerHost: config.MaxIdleConns,
				IdleConnTimeout:     90 * time.Second,
				ForceAttemptHTTP2:   true,
			},
			Timeout: config.Timeout,
		},
	}
}

// postJSON sends a JSON request and decodes a JSON response.
func (c *httpClient) postJSON(ctx context.Context, service, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", service, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", service, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &APIError{Service: service, Cause: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return &APIError{Service: service, StatusCode: resp.StatusCode, Cause: err}
	}
	if resp.StatusCode != http.StatusOK {
		return &APIError{Service: service, StatusCode: resp.StatusCode, Message: string(data)}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &APIError{Service: service, StatusCode: resp.StatusCode, Cause: fmt.Errorf("malformed response: %w", err)}
	}
	return nil
}
