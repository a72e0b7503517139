// Package graph compiles policy rules into ordered decision paths.
//
// Every rule becomes one compiled path: its conditions grouped per
// variable, laid out in the canonical variable order. The canonical order
// is a total order over variables — booleans first, then enums, then
// numerics, ties broken by variable name ascending — independent of rule
// input order. Determinism here is load-bearing: the scaffold builder and
// the conflict detector both rely on byte-identical graph output for the
// same rule set in any permutation.
package graph

import (
	"sort"

	"meridian-hq/meridian/pkg/policy"
)

// Test is a single accepted-value test on a path step.
type Test struct {
	Op    policy.Operator `json:"op"`
	Value interface{}     `json:"value"`
}

// PathStep groups a path's tests on one variable.
type PathStep struct {
	Var   string `json:"var"`
	Tests []Test `json:"tests"`
}

// CompiledPath is one rule's decision logic: variable tests in canonical
// order plus the rule's terminal action.
type CompiledPath struct {
	RuleID   string          `json:"rule_id"`
	Steps    []PathStep      `json:"steps"`
	Action   string          `json:"action"`
	Metadata policy.Metadata `json:"metadata"`
}

// Variables returns the set of variables the path tests.
func (p CompiledPath) Variables() map[string]bool {
	vars := make(map[string]bool, len(p.Steps))
	for _, s := range p.Steps {
		vars[s.Var] = true
	}
	return vars
}

// SharesVariable reports whether two paths test at least one common
// variable. Pairs without a common variable cannot conflict on any
// assignment where both condition sets are non-trivial, so the conflict
// detector uses this as a cheap pre-filter.
func (p CompiledPath) SharesVariable(q CompiledPath) bool {
	vars := p.Variables()
	for _, s := range q.Steps {
		if vars[s.Var] {
			return true
		}
	}
	return false
}

// Graph is the aggregate decision graph: the canonical variable order plus
// every rule's compiled path.
type Graph struct {
	// DecisionNodes is the canonical variable order over all variables
	// referenced by at least one rule.
	DecisionNodes []string `json:"decision_nodes"`

	// NodeSchema holds the definitions of the decision-node variables.
	NodeSchema map[string]policy.Variable `json:"node_schema"`

	// LeafActions is the sorted set of terminal actions.
	LeafActions []string `json:"leaf_actions"`

	// Paths holds one compiled path per rule, sorted by rule id.
	Paths []CompiledPath `json:"paths"`
}

// typeBucket orders variable types: booleans, then enums, then numerics.
func typeBucket(t policy.VariableType) int {
	switch t {
	case policy.TypeBool:
		return 0
	case policy.TypeEnum:
		return 1
	}
	return 2
}

// CanonicalOrder sorts variable names into the canonical decision order.
// The input slice is not modified.
func CanonicalOrder(names []string, schema policy.Schema) []string {
	ordered := make([]string, len(names))
	copy(ordered, names)
	sort.Slice(ordered, func(i, j int) bool {
		bi, bj := typeBucket(schema[ordered[i]].Type), typeBucket(schema[ordered[j]].Type)
		if bi != bj {
			return bi < bj
		}
		return ordered[i] < ordered[j]
	})
	return ordered
}

// Build compiles a rule list into the aggregate decision graph. Given the
// same rules in any input order the output is identical: decision nodes
// follow the canonical order and paths are sorted by rule id ascending.
func Build(schema policy.Schema, rules []policy.Rule) (*Graph, error) {
	if len(rules) == 0 {
		return nil, policy.ErrEmptyRuleSet
	}

	// Collect referenced variables.
	seen := make(map[string]bool)
	var names []string
	for _, r := range rules {
		for _, c := range r.Conditions {
			if _, ok := schema[c.Var]; !ok {
				return nil, &policy.MalformedRuleError{RuleID: r.ID, Reason: "condition references undefined variable " + c.Var}
			}
			if !seen[c.Var] {
				seen[c.Var] = true
				names = append(names, c.Var)
			}
		}
	}
	nodes := CanonicalOrder(names, schema)

	nodeSchema := make(map[string]policy.Variable, len(nodes))
	for _, n := range nodes {
		nodeSchema[n] = schema[n]
	}

	// Compile one path per rule.
	paths := make([]CompiledPath, 0, len(rules))
	actions := make(map[string]bool)
	for _, r := range rules {
		paths = append(paths, compilePath(r, nodes))
		actions[r.Action.Normalized()] = true
	}
	sort.Slice(paths, func(i, j int) bool { return paths[i].RuleID < paths[j].RuleID })

	leaves := make([]string, 0, len(actions))
	for a := range actions {
		leaves = append(leaves, a)
	}
	sort.Strings(leaves)

	return &Graph{
		DecisionNodes: nodes,
		NodeSchema:    nodeSchema,
		LeafActions:   leaves,
		Paths:         paths,
	}, nil
}

// compilePath groups a rule's conditions per variable in canonical node
// order. Variables the rule does not test are omitted, never defaulted.
func compilePath(r policy.Rule, nodes []string) CompiledPath {
	grouped := make(map[string][]Test)
	for _, c := range r.Conditions {
		grouped[c.Var] = append(grouped[c.Var], Test{Op: c.Op, Value: c.Value})
	}

	var steps []PathStep
	for _, v := range nodes {
		if tests, ok := grouped[v]; ok {
			steps = append(steps, PathStep{Var: v, Tests: tests})
		}
	}

	return CompiledPath{
		RuleID:   r.ID,
		Steps:    steps,
		Action:   r.Action.Normalized(),
		Metadata: r.Metadata,
	}
}

// Conditions flattens a path back into condition form for solver
// assertion.
func (p CompiledPath) Conditions() []policy.Condition {
	var conds []policy.Condition
	for _, s := range p.Steps {
		for _, t := range s.Tests {
			conds = append(conds, policy.Condition{Var: s.Var, Op: t.Op, Value: t.Value})
		}
	}
	return conds
}
