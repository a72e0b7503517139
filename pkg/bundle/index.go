package bundle

import (
	"meridian-hq/meridian/pkg/compiler/graph"
	"meridian-hq/meridian/pkg/compiler/priority"
	"meridian-hq/meridian/pkg/policy"
)

// PairKey builds the canonical lookup key for an unordered rule-id pair.
func PairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "\x00" + b
}

// Index holds load-time lookup tables over a validated bundle. All maps
// are built once at load and are O(1) thereafter. The index is read-only
// after construction and safe for concurrent use without locking.
type Index struct {
	bundle *Bundle

	rulesByDomain     map[string][]policy.Rule
	rulesByID         map[string]policy.Rule
	pathsByDomain     map[string][]graph.CompiledPath
	pathsByRuleID     map[string]graph.CompiledPath
	constraintsByScope map[string][]policy.Constraint
	dominanceByPair   map[string]priority.DominanceRule
	escalationByPair  map[string]priority.EscalationEntry
}

// NewIndex validates the bundle and builds the lookup tables. Validation
// failure is fatal to the caller: the runtime refuses to serve from a
// bundle it could not verify.
func NewIndex(b *Bundle) (*Index, error) {
	if err := b.Validate(); err != nil {
		return nil, &ValidationError{Cause: err}
	}

	idx := &Index{
		bundle:             b,
		rulesByDomain:      make(map[string][]policy.Rule),
		rulesByID:          make(map[string]policy.Rule, len(b.Rules)),
		pathsByDomain:      make(map[string][]graph.CompiledPath),
		pathsByRuleID:      make(map[string]graph.CompiledPath, len(b.CompiledPaths)),
		constraintsByScope: make(map[string][]policy.Constraint),
		dominanceByPair:    make(map[string]priority.DominanceRule, len(b.DominanceRules)),
		escalationByPair:   make(map[string]priority.EscalationEntry, len(b.Escalations)),
	}

	for _, r := range b.Rules {
		idx.rulesByDomain[r.Metadata.Domain] = append(idx.rulesByDomain[r.Metadata.Domain], r)
		idx.rulesByID[r.ID] = r
	}
	for _, p := range b.CompiledPaths {
		idx.pathsByDomain[p.Metadata.Domain] = append(idx.pathsByDomain[p.Metadata.Domain], p)
		idx.pathsByRuleID[p.RuleID] = p
	}
	for _, c := range b.Constraints {
		idx.constraintsByScope[c.Scope] = append(idx.constraintsByScope[c.Scope], c)
	}
	for _, dr := range b.DominanceRules {
		idx.dominanceByPair[PairKey(dr.Rules[0], dr.Rules[1])] = dr
	}
	for _, esc := range b.Escalations {
		idx.escalationByPair[PairKey(esc.Rules[0], esc.Rules[1])] = esc
	}

	return idx, nil
}

// Bundle returns the underlying bundle.
func (i *Index) Bundle() *Bundle {
	return i.bundle
}

// RulesByDomain returns the rules in a domain.
func (i *Index) RulesByDomain(domain string) []policy.Rule {
	return i.rulesByDomain[domain]
}

// RuleByID returns the rule with the given id.
func (i *Index) RuleByID(id string) (policy.Rule, bool) {
	r, ok := i.rulesByID[id]
	return r, ok
}

// PathsByDomain returns the compiled paths for a domain.
func (i *Index) PathsByDomain(domain string) []graph.CompiledPath {
	return i.pathsByDomain[domain]
}

// PathByRuleID returns the compiled path for a rule.
func (i *Index) PathByRuleID(id string) (graph.CompiledPath, bool) {
	p, ok := i.pathsByRuleID[id]
	return p, ok
}

// ConstraintsByScope returns constraints for a scope ("always" or a
// domain name).
func (i *Index) ConstraintsByScope(scope string) []policy.Constraint {
	return i.constraintsByScope[scope]
}

// Dominance looks up the dominance rule recorded for an unordered rule
// pair.
func (i *Index) Dominance(a, b string) (priority.DominanceRule, bool) {
	dr, ok := i.dominanceByPair[PairKey(a, b)]
	return dr, ok
}

// Escalation looks up the escalation entry recorded for an unordered rule
// pair.
func (i *Index) Escalation(a, b string) (priority.EscalationEntry, bool) {
	esc, ok := i.escalationByPair[PairKey(a, b)]
	return esc, ok
}
