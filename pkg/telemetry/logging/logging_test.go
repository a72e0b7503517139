package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

// TestRedactString tests the built-in PII patterns.
func TestRedactString(t *testing.T) {
	r := NewRedactor()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "ssn",
			in:   "customer ssn 123-45-6789 on file",
			want: "customer ssn ***-**-**** on file",
		},
		{
			name: "email",
			in:   "reply to jane.doe@example.com please",
			want: "reply to ***@*** please",
		},
		{
			name: "credit card",
			in:   "card 4111 1111 1111 1111 declined",
			want: "card ****-****-****-**** declined",
		},
		{
			name: "api key",
			in:   "using key sk-abc123XYZ for the call",
			want: "using key sk-*** for the call",
		},
		{
			name: "bearer token",
			in:   "header was Bearer eyJhbGciOi.payload",
			want: "header was Bearer ***",
		},
		{
			name: "clean text untouched",
			in:   "refund approved for order 42",
			want: "refund approved for order 42",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.RedactString(tt.in); got != tt.want {
				t.Errorf("RedactString(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// TestSetup tests logger construction and PII scrubbing end to end.
func TestSetup(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Setup(Config{Level: "info", Format: "json", RedactPII: true, Writer: &buf})
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	logger.Info("request classified",
		"query", "my email is jane@example.com",
		"api_key", "sk-secret",
		"domain", "refund",
	)

	var rec map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if got := rec["query"]; got != "my email is ***@***" {
		t.Errorf("query = %q, want redacted email", got)
	}
	if got := rec["api_key"]; got != "***" {
		t.Errorf("api_key = %q, want fully masked", got)
	}
	if got := rec["domain"]; got != "refund" {
		t.Errorf("domain = %q, want untouched", got)
	}
}

// TestSetup_LevelFiltering tests that the configured level gates output.
func TestSetup_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Setup(Config{Level: "warn", Format: "text", Writer: &buf})
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	logger.Info("should not appear")
	logger.Warn("should appear")

	out := buf.String()
	if strings.Contains(out, "should not appear") {
		t.Error("info record emitted at warn level")
	}
	if !strings.Contains(out, "should appear") {
		t.Error("warn record missing")
	}
}

// TestSetup_Rejections tests invalid level and format.
func TestSetup_Rejections(t *testing.T) {
	if _, err := Setup(Config{Level: "loud"}); err == nil {
		t.Error("Setup() accepted an unknown level")
	}
	if _, err := Setup(Config{Format: "xml"}); err == nil {
		t.Error("Setup() accepted an unknown format")
	}
}

// TestRedactingHandler_WithAttrs tests that pre-bound attributes are
// scrubbed too.
func TestRedactingHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Setup(Config{Format: "json", RedactPII: true, Writer: &buf})
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	logger.With("token", "Bearer abc123", "component", "enforce").Info("started")

	var rec map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if got := rec["token"]; got != "***" {
		t.Errorf("token = %q, want fully masked", got)
	}
	if got := rec["component"]; got != "enforce" {
		t.Errorf("component = %q, want untouched", got)
	}
}
