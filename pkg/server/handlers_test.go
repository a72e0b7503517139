package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"meridian-hq/meridian/pkg/audit"
	"meridian-hq/meridian/pkg/bundle"
	"meridian-hq/meridian/pkg/compiler"
	"meridian-hq/meridian/pkg/config"
	"meridian-hq/meridian/pkg/enforce"
	"meridian-hq/meridian/pkg/policy"
	"meridian-hq/meridian/pkg/telemetry/health"
)

// memStorage is an in-memory audit backend for handler tests.
type memStorage struct {
	entries []*audit.Entry
}

func (s *memStorage) Append(ctx context.Context, e *audit.Entry) error {
	clone := *e
	s.entries = append(s.entries, &clone)
	return nil
}

func (s *memStorage) Replay(ctx context.Context, fn func(e *audit.Entry) error) error {
	for _, e := range s.entries {
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

func (s *memStorage) Close() error { return nil }

// staticGenerator returns the same response for every request.
type staticGenerator struct {
	response string
}

func (g *staticGenerator) Generate(ctx context.Context, req *enforce.GenerationRequest) (string, error) {
	return g.response, nil
}

func testServer(t *testing.T) *Server {
	t.Helper()

	rs := &policy.RuleSet{
		Variables: policy.Schema{
			"has_receipt":         {Name: "has_receipt", Type: policy.TypeBool},
			"days_since_purchase": {Name: "days_since_purchase", Type: policy.TypeInt},
		},
		Rules: []policy.Rule{{
			ID: "refund-001",
			Conditions: []policy.Condition{
				{Var: "has_receipt", Op: policy.OpEq, Value: true},
				{Var: "days_since_purchase", Op: policy.OpLe, Value: 7.0},
			},
			Action:   policy.Action{Type: "allow", Value: "full_refund"},
			Metadata: policy.Metadata{Domain: "refund", Priority: "company", Owner: "cs@example.com"},
		}},
	}
	b, err := compiler.New(nil).Compile(context.Background(), rs)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	idx, err := bundle.NewIndex(b)
	if err != nil {
		t.Fatalf("NewIndex() error = %v", err)
	}
	writer, err := audit.NewWriter(&memStorage{})
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}

	gen := &staticGenerator{
		response: "The customer has receipt confirmed and days since purchase is 5, so a full refund applies per refund-001.",
	}
	enforcer := enforce.NewEnforcer(idx, gen, writer, nil)

	var cfg config.ServerConfig
	return NewServer(&cfg, enforcer, nil, nil)
}

// TestHandleEnforce tests the decision surface of POST /v1/enforce.
func TestHandleEnforce(t *testing.T) {
	srv := testServer(t)
	handler := srv.routes()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/enforce",
		strings.NewReader(`{"query": "Can I get a refund for this item?"}`))
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp enforceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if resp.Domain != "refund" {
		t.Errorf("domain = %s, want refund", resp.Domain)
	}
	if resp.SessionID == "" {
		t.Error("response missing session id")
	}
	if resp.Action == "" {
		t.Error("response missing action")
	}
}

// TestHandleEnforce_Rejections tests method and body validation.
func TestHandleEnforce_Rejections(t *testing.T) {
	srv := testServer(t)
	handler := srv.routes()

	tests := []struct {
		name       string
		method     string
		body       string
		wantStatus int
	}{
		{"wrong method", http.MethodGet, "", http.StatusMethodNotAllowed},
		{"malformed body", http.MethodPost, "{not json", http.StatusBadRequest},
		{"empty query", http.MethodPost, `{"query": ""}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, "/v1/enforce", strings.NewReader(tt.body))
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["error"] == "" {
				t.Errorf("error body = %s", rec.Body.String())
			}
		})
	}
}

// TestHandleHealth tests the liveness probe.
func TestHandleHealth(t *testing.T) {
	srv := testServer(t)

	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["status"] != "ok" {
		t.Errorf("body = %s", rec.Body.String())
	}
}

// TestReadyz tests that the readiness route appears only with a
// registered checker.
func TestReadyz(t *testing.T) {
	srv := testServer(t)

	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status without checker = %d, want 404", rec.Code)
	}

	c := health.New(0)
	c.Register("bundle", func(ctx context.Context) error { return nil })
	srv.SetHealthChecker(c)

	rec = httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status with checker = %d, want 200", rec.Code)
	}
}
