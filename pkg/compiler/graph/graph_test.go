package graph

import (
	"reflect"
	"testing"

	"meridian-hq/meridian/pkg/policy"
)

func testSchema() policy.Schema {
	return policy.Schema{
		"has_receipt":         {Name: "has_receipt", Type: policy.TypeBool},
		"is_damaged":          {Name: "is_damaged", Type: policy.TypeBool},
		"customer_tier":       {Name: "customer_tier", Type: policy.TypeEnum, Values: []string{"standard", "gold"}},
		"days_since_purchase": {Name: "days_since_purchase", Type: policy.TypeInt},
		"amount":              {Name: "amount", Type: policy.TypeFloat},
	}
}

func testRules() []policy.Rule {
	return []policy.Rule{
		{
			ID: "refund-002",
			Conditions: []policy.Condition{
				{Var: "days_since_purchase", Op: policy.OpLe, Value: 14.0},
				{Var: "customer_tier", Op: policy.OpEq, Value: "gold"},
			},
			Action:   policy.Action{Type: "allow", Value: "store_credit"},
			Metadata: policy.Metadata{Domain: "refund"},
		},
		{
			ID: "refund-001",
			Conditions: []policy.Condition{
				{Var: "has_receipt", Op: policy.OpEq, Value: true},
				{Var: "days_since_purchase", Op: policy.OpLe, Value: 7.0},
			},
			Action:   policy.Action{Type: "allow", Value: "full_refund"},
			Metadata: policy.Metadata{Domain: "refund"},
		},
	}
}

// TestCanonicalOrder tests the bool/enum/numeric bucket order with name
// tiebreak.
func TestCanonicalOrder(t *testing.T) {
	names := []string{"amount", "days_since_purchase", "customer_tier", "is_damaged", "has_receipt"}
	got := CanonicalOrder(names, testSchema())
	want := []string{"has_receipt", "is_damaged", "customer_tier", "amount", "days_since_purchase"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CanonicalOrder() = %v, want %v", got, want)
	}
}

// TestBuild tests graph compilation over a small rule set.
func TestBuild(t *testing.T) {
	g, err := Build(testSchema(), testRules())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	wantNodes := []string{"has_receipt", "customer_tier", "days_since_purchase"}
	if !reflect.DeepEqual(g.DecisionNodes, wantNodes) {
		t.Errorf("DecisionNodes = %v, want %v", g.DecisionNodes, wantNodes)
	}

	if len(g.Paths) != 2 || g.Paths[0].RuleID != "refund-001" || g.Paths[1].RuleID != "refund-002" {
		t.Fatalf("paths not sorted by rule id: %+v", g.Paths)
	}

	wantLeaves := []string{"allow:full_refund", "allow:store_credit"}
	if !reflect.DeepEqual(g.LeafActions, wantLeaves) {
		t.Errorf("LeafActions = %v, want %v", g.LeafActions, wantLeaves)
	}

	// refund-001 tests has_receipt before days_since_purchase.
	steps := g.Paths[0].Steps
	if len(steps) != 2 || steps[0].Var != "has_receipt" || steps[1].Var != "days_since_purchase" {
		t.Errorf("refund-001 steps out of canonical order: %+v", steps)
	}

	// Unreferenced variables never become decision nodes.
	if _, ok := g.NodeSchema["amount"]; ok {
		t.Error("unreferenced variable amount appears in node schema")
	}
}

// TestBuild_Deterministic tests that rule input order never changes the
// output.
func TestBuild_Deterministic(t *testing.T) {
	rules := testRules()
	g1, err := Build(testSchema(), rules)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	reversed := []policy.Rule{rules[1], rules[0]}
	g2, err := Build(testSchema(), reversed)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if !reflect.DeepEqual(g1, g2) {
		t.Errorf("graphs differ under rule permutation:\n%+v\n%+v", g1, g2)
	}
}

// TestBuild_Errors tests empty input and undefined variables.
func TestBuild_Errors(t *testing.T) {
	if _, err := Build(testSchema(), nil); err == nil {
		t.Error("Build() with no rules succeeded, want error")
	}

	bad := []policy.Rule{{
		ID:         "r1",
		Conditions: []policy.Condition{{Var: "ghost", Op: policy.OpEq, Value: true}},
		Action:     policy.Action{Type: "allow", Value: "x"},
	}}
	if _, err := Build(testSchema(), bad); err == nil {
		t.Error("Build() with undefined variable succeeded, want error")
	}
}

// TestCompiledPath_SharesVariable tests the conflict prefilter.
func TestCompiledPath_SharesVariable(t *testing.T) {
	g, err := Build(testSchema(), testRules())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	// Both paths test days_since_purchase.
	if !g.Paths[0].SharesVariable(g.Paths[1]) {
		t.Error("SharesVariable() = false for paths sharing days_since_purchase")
	}

	solo := CompiledPath{RuleID: "x", Steps: []PathStep{{Var: "amount"}}}
	if g.Paths[0].SharesVariable(solo) {
		t.Error("SharesVariable() = true for disjoint variable sets")
	}
}

// TestCompiledPath_Conditions tests flattening back to condition form.
func TestCompiledPath_Conditions(t *testing.T) {
	g, err := Build(testSchema(), testRules())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	conds := g.Paths[0].Conditions()
	want := []policy.Condition{
		{Var: "has_receipt", Op: policy.OpEq, Value: true},
		{Var: "days_since_purchase", Op: policy.OpLe, Value: 7.0},
	}
	if !reflect.DeepEqual(conds, want) {
		t.Errorf("Conditions() = %v, want %v", conds, want)
	}
}
