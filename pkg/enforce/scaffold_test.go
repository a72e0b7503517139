package enforce

import (
	"strings"
	"testing"
	"time"

	"meridian-hq/meridian/pkg/compiler/graph"
	"meridian-hq/meridian/pkg/policy"
)

// buildTestScaffold runs retrieval and dominance over the refund bundle
// and scaffolds the surviving paths.
func buildTestScaffold(t *testing.T) *Scaffold {
	t.Helper()
	idx := testIndex(t)
	ret := Retrieve(idx, "refund", time.Now())
	res := ApplyDominance(idx, ret)
	b := idx.Bundle()
	return BuildScaffold(res.Paths, b.Variables, b.DecisionNodes, res.Applied, ret.Constraints)
}

// TestBuildScaffold tests step ordering and content.
func TestBuildScaffold(t *testing.T) {
	s := buildTestScaffold(t)

	wantNodes := []string{"has_receipt", "days_since_purchase"}
	if len(s.RequiredNodes) != len(wantNodes) {
		t.Fatalf("RequiredNodes = %v, want %v", s.RequiredNodes, wantNodes)
	}
	for i := range wantNodes {
		if s.RequiredNodes[i] != wantNodes[i] {
			t.Errorf("RequiredNodes[%d] = %s, want %s", i, s.RequiredNodes[i], wantNodes[i])
		}
	}

	text := s.Text()
	checks := []string{
		"STEP 1: Check variable has_receipt",
		"DO NOT assume",
		"STEP 2: Check days_since_purchase.",
		"If days_since_purchase <= 7 THEN ACTION",
		"per refund-001",
		"source: refund_policy.md",
		"When rules refund-001 and refund-002 conflict",
		"enforce=refund-001",
		"STEP 3: FINAL",
	}
	for _, want := range checks {
		if !strings.Contains(text, want) {
			t.Errorf("scaffold missing %q:\n%s", want, text)
		}
	}

	// The dominated rule's branches must not appear.
	if strings.Contains(text, "store_credit") {
		t.Errorf("scaffold cites a dominated rule:\n%s", text)
	}
}

// TestBuildScaffold_Deterministic tests byte-identical output regardless
// of input path order.
func TestBuildScaffold_Deterministic(t *testing.T) {
	idx := testIndex(t)
	ret := Retrieve(idx, "refund", time.Now())
	b := idx.Bundle()

	paths := append([]graph.CompiledPath{}, ret.Paths...)
	reversed := make([]graph.CompiledPath, len(paths))
	for i, p := range paths {
		reversed[len(paths)-1-i] = p
	}

	s1 := BuildScaffold(paths, b.Variables, b.DecisionNodes, nil, ret.Constraints)
	s2 := BuildScaffold(reversed, b.Variables, b.DecisionNodes, nil, ret.Constraints)

	if s1.Text() != s2.Text() {
		t.Errorf("scaffold depends on input order:\n%s\n---\n%s", s1.Text(), s2.Text())
	}
	if s1.SystemText() != s2.SystemText() {
		t.Error("system block depends on input order")
	}
}

// TestBuildScaffold_Empty tests that an empty path set yields zero steps
// while invariants survive.
func TestBuildScaffold_Empty(t *testing.T) {
	constraints := []policy.Constraint{
		{ID: "c-001", Expression: "NOT(share_pii)", Scope: "always"},
	}
	s := BuildScaffold(nil, policy.Schema{}, nil, nil, constraints)

	if len(s.Steps) != 0 {
		t.Errorf("Steps = %v, want none", s.Steps)
	}
	if len(s.RequiredNodes) != 0 {
		t.Errorf("RequiredNodes = %v, want none", s.RequiredNodes)
	}
	if len(s.Invariants) != 1 {
		t.Errorf("Invariants = %v, want 1", s.Invariants)
	}
}

// TestSerializeInvariants tests NOT() rewriting and the ALWAYS fallback.
func TestSerializeInvariants(t *testing.T) {
	constraints := []policy.Constraint{
		{ID: "c-001", Expression: "NOT(share_pii)"},
		{ID: "c-002", Expression: "NOT(unauthorized_discount)"},
		{ID: "c-003", Expression: "retention >= 90d"},
	}

	lines := serializeInvariants(constraints)
	want := []string{
		"1) NEVER share pii.",
		"2) NEVER unauthorized discount.",
		"3) ALWAYS comply with: retention >= 90d.",
	}
	if len(lines) != len(want) {
		t.Fatalf("lines = %v, want %v", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("lines[%d] = %q, want %q", i, lines[i], want[i])
		}
	}
}

// TestScaffoldSystemText tests the system block framing.
func TestScaffoldSystemText(t *testing.T) {
	s := buildTestScaffold(t)
	sys := s.SystemText()

	if !strings.HasPrefix(sys, "---BEGIN POLICY ENFORCEMENT---") {
		t.Errorf("system block missing opening marker:\n%s", sys)
	}
	if !strings.HasSuffix(sys, "---END POLICY ENFORCEMENT---") {
		t.Errorf("system block missing closing marker:\n%s", sys)
	}
	for _, want := range []string{"NEVER share pii.", "NEVER unauthorized discount.", "regulatory > core_values > company"} {
		if !strings.Contains(sys, want) {
			t.Errorf("system block missing %q:\n%s", want, sys)
		}
	}
}
