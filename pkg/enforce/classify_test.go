package enforce

import (
	"context"
	"errors"
	"testing"
)

// TestClassifyQuery_Keywords tests the deterministic keyword tier.
func TestClassifyQuery_Keywords(t *testing.T) {
	domains := []string{"privacy", "refund"}

	tests := []struct {
		name       string
		query      string
		wantDomain string
		wantErr    bool
	}{
		{
			name:       "bundle domain named verbatim",
			query:      "Can I get a refund for this item?",
			wantDomain: "refund",
		},
		{
			name:       "privacy domain named verbatim",
			query:      "What is your privacy policy on customer data?",
			wantDomain: "privacy",
		},
		{
			name:    "unclassifiable query",
			query:   "hello there, nice weather today",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ClassifyQuery(context.Background(), tt.query, domains, nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ClassifyQuery() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				var ce *ClassificationError
				if !errors.As(err, &ce) {
					t.Errorf("error = %T, want *ClassificationError", err)
				}
				return
			}
			if c.Domain != tt.wantDomain {
				t.Errorf("Domain = %q, want %q", c.Domain, tt.wantDomain)
			}
			if c.Confidence < ConfidenceFloor {
				t.Errorf("Confidence = %v, below floor %v", c.Confidence, ConfidenceFloor)
			}
		})
	}
}

// TestClassifyQuery_Fallback tests the external classifier tier.
func TestClassifyQuery_Fallback(t *testing.T) {
	domains := []string{"hr"}
	query := "question about my time off situation"

	t.Run("fallback adopted when more confident", func(t *testing.T) {
		fb := &fakeClassifier{result: &Classification{Domain: "hr", Intent: "policy_inquiry", Confidence: 0.9}}
		c, err := ClassifyQuery(context.Background(), query, domains, fb)
		if err != nil {
			t.Fatalf("ClassifyQuery() error = %v", err)
		}
		if c.Domain != "hr" || c.Confidence != 0.9 {
			t.Errorf("classification = %+v, want hr @ 0.9", c)
		}
	})

	t.Run("fallback below floor still errors", func(t *testing.T) {
		fb := &fakeClassifier{result: &Classification{Domain: "hr", Confidence: 0.3}}
		if _, err := ClassifyQuery(context.Background(), query, domains, fb); err == nil {
			t.Error("ClassifyQuery() accepted a below-floor fallback verdict")
		}
	})

	t.Run("fallback failure errors rather than guessing", func(t *testing.T) {
		fb := &fakeClassifier{err: errors.New("service down")}
		_, err := ClassifyQuery(context.Background(), query, domains, fb)
		var ce *ClassificationError
		if !errors.As(err, &ce) {
			t.Fatalf("error = %v, want *ClassificationError", err)
		}
		if ce.Cause == nil {
			t.Error("ClassificationError does not carry the fallback failure")
		}
	})
}
