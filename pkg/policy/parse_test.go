package policy

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func validRuleSetJSON() string {
	return `{
		"variables": {
			"has_receipt": {"type": "bool"},
			"days_since_purchase": {"type": "int"},
			"customer_tier": {"type": "enum", "values": ["standard", "gold"]}
		},
		"rules": [
			{
				"id": "refund-001",
				"conditions": [
					{"var": "has_receipt", "op": "==", "value": true},
					{"var": "days_since_purchase", "op": "<=", "value": 7}
				],
				"action": {"type": "allow", "value": "full_refund"},
				"metadata": {"domain": "refund", "owner": "support@example.com"}
			}
		],
		"constraints": [
			{
				"id": "c-001",
				"expression": "NOT(share_pii)",
				"scope": "always",
				"metadata": {"domain": "privacy"}
			}
		]
	}`
}

// TestParseRuleSet tests parsing and structural validation.
func TestParseRuleSet(t *testing.T) {
	rs, err := ParseRuleSet(strings.NewReader(validRuleSetJSON()))
	if err != nil {
		t.Fatalf("ParseRuleSet() error = %v", err)
	}
	if len(rs.Rules) != 1 || rs.Rules[0].ID != "refund-001" {
		t.Errorf("unexpected rules: %+v", rs.Rules)
	}
	if len(rs.Constraints) != 1 || rs.Constraints[0].Scope != ConstraintScopeAlways {
		t.Errorf("unexpected constraints: %+v", rs.Constraints)
	}
	if rs.Variables["customer_tier"].Type != TypeEnum {
		t.Errorf("customer_tier type = %q, want enum", rs.Variables["customer_tier"].Type)
	}
}

// TestParseRuleSet_UnknownField tests that unknown metadata fields are
// rejected rather than silently dropped.
func TestParseRuleSet_UnknownField(t *testing.T) {
	doc := strings.Replace(validRuleSetJSON(), `"owner": "support@example.com"`, `"owner": "s@e.com", "mystery": 1`, 1)
	_, err := ParseRuleSet(strings.NewReader(doc))
	if err == nil {
		t.Fatal("ParseRuleSet() accepted a document with an unknown field")
	}
	var ufe *UnknownFieldError
	if !errors.As(err, &ufe) {
		t.Errorf("error = %T, want *UnknownFieldError", err)
	}
}

// TestRuleSetValidate tests the structural invariants.
func TestRuleSetValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(rs *RuleSet)
		wantErr bool
	}{
		{
			name:   "valid rule set",
			mutate: func(rs *RuleSet) {},
		},
		{
			name: "duplicate rule id",
			mutate: func(rs *RuleSet) {
				rs.Rules = append(rs.Rules, rs.Rules[0])
			},
			wantErr: true,
		},
		{
			name: "missing action",
			mutate: func(rs *RuleSet) {
				rs.Rules[0].Action = Action{}
			},
			wantErr: true,
		},
		{
			name: "unsupported operator",
			mutate: func(rs *RuleSet) {
				rs.Rules[0].Conditions[0].Op = "~="
			},
			wantErr: true,
		},
		{
			name: "enum without values",
			mutate: func(rs *RuleSet) {
				v := rs.Variables["customer_tier"]
				v.Values = nil
				rs.Variables["customer_tier"] = v
			},
			wantErr: true,
		},
		{
			name: "constraint id collides with rule id",
			mutate: func(rs *RuleSet) {
				rs.Constraints[0].ID = "refund-001"
			},
			wantErr: true,
		},
		{
			name: "constraint without scope",
			mutate: func(rs *RuleSet) {
				rs.Constraints[0].Scope = ""
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs, err := ParseRuleSet(strings.NewReader(validRuleSetJSON()))
			if err != nil {
				t.Fatalf("ParseRuleSet() error = %v", err)
			}
			tt.mutate(rs)
			err = rs.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestConstraintForbidden tests NOT(x) expression parsing.
func TestConstraintForbidden(t *testing.T) {
	tests := []struct {
		expr   string
		want   string
		wantOK bool
	}{
		{"NOT(share_pii)", "share_pii", true},
		{"NOT(refund_over_500_without_approval)", "refund_over_500_without_approval", true},
		{"share_pii", "", false},
		{"NOT()", "", false},
	}

	for _, tt := range tests {
		c := Constraint{Expression: tt.expr}
		got, ok := c.Forbidden()
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Forbidden(%q) = (%q, %v), want (%q, %v)", tt.expr, got, ok, tt.want, tt.wantOK)
		}
	}
}

// TestMetadataEffectiveAt tests effective-date gating.
func TestMetadataEffectiveAt(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		date string
		want bool
	}{
		{"no effective date", "", true},
		{"past date", "2026-01-01", true},
		{"same day", "2026-06-01", true},
		{"future date", "2026-07-01", false},
		{"malformed date counts as effective", "soon", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := Metadata{EffectiveDate: tt.date}
			if got := md.EffectiveAt(now); got != tt.want {
				t.Errorf("EffectiveAt() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestActionNormalized tests the canonical action form.
func TestActionNormalized(t *testing.T) {
	a := Action{Type: "allow", Value: "full_refund"}
	if got := a.Normalized(); got != "allow:full_refund" {
		t.Errorf("Normalized() = %q, want %q", got, "allow:full_refund")
	}
}
