package priority

import (
	"reflect"
	"testing"

	"meridian-hq/meridian/pkg/compiler/conflict"
	"meridian-hq/meridian/pkg/policy"
)

// TestDeriveTier tests the fixed-order tier derivation.
func TestDeriveTier(t *testing.T) {
	tests := []struct {
		name string
		md   policy.Metadata
		want Tier
	}{
		{
			name: "regulatory linkage wins over everything",
			md:   policy.Metadata{Domain: "privacy", Priority: "team", RegulatoryLinkage: []string{"GDPR-17"}},
			want: TierRegulatory,
		},
		{
			name: "core value domain",
			md:   policy.Metadata{Domain: "privacy", Priority: "company"},
			want: TierCoreValues,
		},
		{
			name: "core value domain case-insensitive",
			md:   policy.Metadata{Domain: "Safety"},
			want: TierCoreValues,
		},
		{
			name: "expiry does not preempt priority label",
			md:   policy.Metadata{Domain: "refund", Priority: "company", Expires: "2026-12-31"},
			want: TierCompany,
		},
		{
			name: "expiring department rule keeps its tier",
			md:   policy.Metadata{Domain: "refund", Priority: "team", Expires: "2026-12-31"},
			want: TierDepartment,
		},
		{
			name: "expiry alone is situational",
			md:   policy.Metadata{Domain: "refund", Expires: "2026-12-31"},
			want: TierSituational,
		},
		{
			name: "company alias",
			md:   policy.Metadata{Domain: "refund", Priority: "corporate"},
			want: TierCompany,
		},
		{
			name: "department alias",
			md:   policy.Metadata{Domain: "refund", Priority: "team"},
			want: TierDepartment,
		},
		{
			name: "unknown priority defaults to situational",
			md:   policy.Metadata{Domain: "refund", Priority: "whenever"},
			want: TierSituational,
		},
		{
			name: "empty metadata is situational",
			md:   policy.Metadata{},
			want: TierSituational,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveTier(tt.md); got != tt.want {
				t.Errorf("DeriveTier() = %v (%s), want %v (%s)", got, got.Name(), tt.want, tt.want.Name())
			}
		})
	}
}

// TestLattice tests that the lattice covers all five tiers with the
// documented ranks.
func TestLattice(t *testing.T) {
	want := map[string]int{
		"regulatory":  1,
		"core_values": 2,
		"company":     3,
		"department":  4,
		"situational": 5,
	}
	if got := Lattice(); !reflect.DeepEqual(got, want) {
		t.Errorf("Lattice() = %v, want %v", got, want)
	}
}

func resolverRules() map[string]policy.Rule {
	return map[string]policy.Rule{
		"refund-001": {
			ID:       "refund-001",
			Metadata: policy.Metadata{Domain: "refund", Priority: "company", Owner: "cs-lead@example.com"},
		},
		"refund-002": {
			ID:       "refund-002",
			Metadata: policy.Metadata{Domain: "refund", Priority: "department", Owner: "returns@example.com"},
		},
		"refund-003": {
			ID:       "refund-003",
			Metadata: policy.Metadata{Domain: "refund", Priority: "department", Owner: "fraud@example.com"},
		},
		"privacy-001": {
			ID:       "privacy-001",
			Metadata: policy.Metadata{Domain: "privacy", Owner: "dpo@example.com"},
		},
	}
}

// TestResolve tests the dominance/escalation split: every conflict
// becomes exactly one dominance rule or one escalation entry.
func TestResolve(t *testing.T) {
	conflicts := []conflict.Conflict{
		{
			RuleA:   "refund-001",
			RuleB:   "refund-002",
			Actions: [2]string{"allow:full_refund", "allow:store_credit"},
		},
		{
			RuleA:   "refund-002",
			RuleB:   "refund-003",
			Actions: [2]string{"allow:store_credit", "deny:refund"},
		},
		{
			RuleA:   "privacy-001",
			RuleB:   "refund-002",
			Actions: [2]string{"deny:disclosure", "allow:store_credit"},
		},
	}

	res := Resolve(conflicts, resolverRules())

	if got := len(res.DominanceRules) + len(res.Escalations); got != len(conflicts) {
		t.Fatalf("resolved %d entries for %d conflicts", got, len(conflicts))
	}
	if len(res.DominanceRules) != 2 {
		t.Fatalf("DominanceRules = %d, want 2: %+v", len(res.DominanceRules), res.DominanceRules)
	}
	if len(res.Escalations) != 1 {
		t.Fatalf("Escalations = %d, want 1: %+v", len(res.Escalations), res.Escalations)
	}

	// Company-tier refund-001 dominates department-tier refund-002.
	dr := res.DominanceRules[0]
	if dr.Winner != "refund-001" || dr.WinnerTier != "company" || dr.LoserTier != "department" {
		t.Errorf("dominance 0 = %+v, want refund-001 company over department", dr)
	}

	// Core-values privacy-001 dominates refund-002.
	dr = res.DominanceRules[1]
	if dr.Winner != "privacy-001" || dr.WinnerTier != "core_values" {
		t.Errorf("dominance 1 = %+v, want privacy-001 core_values winner", dr)
	}

	// Equal-tier refund-002/refund-003 escalates to both owners.
	esc := res.Escalations[0]
	if esc.Rules != [2]string{"refund-002", "refund-003"} || esc.Tier != "department" {
		t.Errorf("escalation = %+v", esc)
	}
	wantOwners := []string{"fraud@example.com", "returns@example.com"}
	if !reflect.DeepEqual(esc.Owners, wantOwners) {
		t.Errorf("escalation owners = %v, want %v", esc.Owners, wantOwners)
	}
}

// TestResolve_ExpiringRuleDominates tests that a company rule with an
// expiry still dominates a department rule instead of escalating.
func TestResolve_ExpiringRuleDominates(t *testing.T) {
	rules := map[string]policy.Rule{
		"refund-010": {
			ID:       "refund-010",
			Metadata: policy.Metadata{Domain: "refund", Priority: "company", Expires: "2026-12-31", Owner: "cs-lead@example.com"},
		},
		"refund-011": {
			ID:       "refund-011",
			Metadata: policy.Metadata{Domain: "refund", Priority: "department", Owner: "returns@example.com"},
		},
	}
	conflicts := []conflict.Conflict{{
		RuleA:   "refund-010",
		RuleB:   "refund-011",
		Actions: [2]string{"allow:full_refund", "allow:store_credit"},
	}}

	res := Resolve(conflicts, rules)
	if len(res.DominanceRules) != 1 || len(res.Escalations) != 0 {
		t.Fatalf("resolution = %+v, want a single dominance rule", res)
	}
	dr := res.DominanceRules[0]
	if dr.Winner != "refund-010" || dr.WinnerTier != "company" || dr.LoserTier != "department" {
		t.Errorf("dominance = %+v, want expiring refund-010 company winner", dr)
	}
}

// TestResolve_ComposeMode tests that approval actions gate refund
// actions instead of replacing them.
func TestResolve_ComposeMode(t *testing.T) {
	conflicts := []conflict.Conflict{{
		RuleA:   "refund-001",
		RuleB:   "refund-002",
		Actions: [2]string{"require:manager_approval", "allow:full_refund"},
	}}

	res := Resolve(conflicts, resolverRules())
	if len(res.DominanceRules) != 1 {
		t.Fatalf("DominanceRules = %d, want 1", len(res.DominanceRules))
	}
	if res.DominanceRules[0].Mode != ModeCompose {
		t.Errorf("Mode = %v, want compose", res.DominanceRules[0].Mode)
	}
}

// TestResolve_Deduplicates tests that a pair reported twice resolves
// once.
func TestResolve_Deduplicates(t *testing.T) {
	conflicts := []conflict.Conflict{
		{RuleA: "refund-001", RuleB: "refund-002", Actions: [2]string{"a:x", "a:y"}},
		{RuleA: "refund-002", RuleB: "refund-001", Actions: [2]string{"a:y", "a:x"}},
	}
	res := Resolve(conflicts, resolverRules())
	if got := len(res.DominanceRules) + len(res.Escalations); got != 1 {
		t.Errorf("resolved %d entries for a duplicated pair, want 1", got)
	}
}

// TestResolve_MissingOwnerDefaults tests the unknown-owner placeholder.
func TestResolve_MissingOwnerDefaults(t *testing.T) {
	rules := map[string]policy.Rule{
		"a": {ID: "a", Metadata: policy.Metadata{Domain: "refund"}},
		"b": {ID: "b", Metadata: policy.Metadata{Domain: "refund"}},
	}
	res := Resolve([]conflict.Conflict{{RuleA: "a", RuleB: "b", Actions: [2]string{"x:1", "x:2"}}}, rules)
	if len(res.Escalations) != 1 {
		t.Fatalf("Escalations = %d, want 1", len(res.Escalations))
	}
	if !reflect.DeepEqual(res.Escalations[0].Owners, []string{"unknown_owner"}) {
		t.Errorf("Owners = %v, want [unknown_owner]", res.Escalations[0].Owners)
	}
}
