package bundle

import (
	"fmt"
	"sort"
	"time"

	"meridian-hq/meridian/pkg/compiler/graph"
	"meridian-hq/meridian/pkg/compiler/priority"
	"meridian-hq/meridian/pkg/policy"
)

// SchemaVersion is the bundle wire-format version this build reads and
// writes. Consumers must check it before use.
const SchemaVersion = "1.0"

// Metadata describes a compile run.
type Metadata struct {
	GeneratedOn     string `json:"generated_on"`
	Generator       string `json:"generator"`
	RuleCount       int    `json:"rule_count"`
	ConstraintCount int    `json:"constraint_count"`
	PathCount       int    `json:"path_count"`
	ConflictCount   int    `json:"conflict_count"`
}

// Bundle is the compiled policy artifact. Fields written by earlier
// compile stages are never altered by later ones — the compiler only adds
// top-level keys, so replays of the pipeline are auditable diff by diff.
type Bundle struct {
	SchemaVersion  string                     `json:"schema_version"`
	Variables      policy.Schema              `json:"variables"`
	Rules          []policy.Rule              `json:"rules"`
	Constraints    []policy.Constraint        `json:"constraints"`
	DecisionNodes  []string                   `json:"decision_nodes"`
	NodeSchema     map[string]policy.Variable `json:"node_schema"`
	LeafActions    []string                   `json:"leaf_actions"`
	CompiledPaths  []graph.CompiledPath       `json:"compiled_paths"`
	DominanceRules []priority.DominanceRule   `json:"dominance_rules"`
	Escalations    []priority.EscalationEntry `json:"escalations"`
	PriorityLattice map[string]int            `json:"priority_lattice"`
	Metadata       Metadata                   `json:"bundle_metadata"`
}

// New aggregates compile-stage outputs into a bundle and validates it.
// Aggregation adds nothing and alters nothing; a dangling reference in
// any stage output fails the compile with IntegrityError.
func New(rs *policy.RuleSet, g *graph.Graph, res *priority.Resolution, conflictCount int) (*Bundle, error) {
	b := &Bundle{
		SchemaVersion:   SchemaVersion,
		Variables:       rs.Variables,
		Rules:           rs.Rules,
		Constraints:     rs.Constraints,
		DecisionNodes:   g.DecisionNodes,
		NodeSchema:      g.NodeSchema,
		LeafActions:     g.LeafActions,
		CompiledPaths:   g.Paths,
		DominanceRules:  res.DominanceRules,
		Escalations:     res.Escalations,
		PriorityLattice: priority.Lattice(),
		Metadata: Metadata{
			GeneratedOn:     time.Now().UTC().Format(time.RFC3339),
			Generator:       "meridian-compiler/" + SchemaVersion,
			RuleCount:       len(rs.Rules),
			ConstraintCount: len(rs.Constraints),
			PathCount:       len(g.Paths),
			ConflictCount:   conflictCount,
		},
	}

	// Absent collections serialize as empty arrays, never null: the wire
	// schema types every collection as an array.
	if b.Constraints == nil {
		b.Constraints = []policy.Constraint{}
	}
	if b.DominanceRules == nil {
		b.DominanceRules = []priority.DominanceRule{}
	}
	if b.Escalations == nil {
		b.Escalations = []priority.EscalationEntry{}
	}
	for i := range b.Rules {
		if b.Rules[i].Conditions == nil {
			b.Rules[i].Conditions = []policy.Condition{}
		}
	}

	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Validate checks referential integrity: every compiled path's rule id
// exists, every dominance rule and escalation entry references existing
// rules, every decision node is a schema variable, and the priority
// lattice covers all five tiers. The same checks run at compile time and
// again at load time — the runtime never trusts a bundle it did not
// itself validate.
func (b *Bundle) Validate() error {
	var problems []string

	ruleIDs := make(map[string]bool, len(b.Rules))
	for _, r := range b.Rules {
		if ruleIDs[r.ID] {
			problems = append(problems, fmt.Sprintf("duplicate rule id %q", r.ID))
		}
		ruleIDs[r.ID] = true
		for _, c := range r.Conditions {
			if _, ok := b.Variables[c.Var]; !ok {
				problems = append(problems, fmt.Sprintf("rule %s references undefined variable %q", r.ID, c.Var))
			}
		}
	}

	for _, p := range b.CompiledPaths {
		if !ruleIDs[p.RuleID] {
			problems = append(problems, fmt.Sprintf("compiled path references unknown rule %q", p.RuleID))
		}
	}

	for _, n := range b.DecisionNodes {
		if _, ok := b.Variables[n]; !ok {
			problems = append(problems, fmt.Sprintf("decision node %q not in variable schema", n))
		}
	}

	for _, dr := range b.DominanceRules {
		for _, id := range dr.Rules {
			if !ruleIDs[id] {
				problems = append(problems, fmt.Sprintf("dominance rule references unknown rule %q", id))
			}
		}
		if !ruleIDs[dr.Winner] {
			problems = append(problems, fmt.Sprintf("dominance rule names unknown winner %q", dr.Winner))
		}
	}

	for _, esc := range b.Escalations {
		for _, id := range esc.Rules {
			if !ruleIDs[id] {
				problems = append(problems, fmt.Sprintf("escalation entry references unknown rule %q", id))
			}
		}
	}

	lattice := priority.Lattice()
	for label, rank := range lattice {
		if got, ok := b.PriorityLattice[label]; !ok || got != rank {
			problems = append(problems, fmt.Sprintf("priority lattice missing or mismatched tier %q", label))
		}
	}

	if len(problems) > 0 {
		return &IntegrityError{Problems: problems}
	}
	return nil
}

// RulesByID builds a rule lookup map.
func (b *Bundle) RulesByID() map[string]policy.Rule {
	m := make(map[string]policy.Rule, len(b.Rules))
	for _, r := range b.Rules {
		m[r.ID] = r
	}
	return m
}

// Domains returns the sorted set of domains present in the rule set.
func (b *Bundle) Domains() []string {
	set := make(map[string]bool)
	for _, r := range b.Rules {
		if r.Metadata.Domain != "" {
			set[r.Metadata.Domain] = true
		}
	}
	domains := make([]string, 0, len(set))
	for d := range set {
		domains = append(domains, d)
	}
	sort.Strings(domains)
	return domains
}
