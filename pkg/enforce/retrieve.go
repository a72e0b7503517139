package enforce

import (
	"sort"
	"time"

	"meridian-hq/meridian/pkg/bundle"
	"meridian-hq/meridian/pkg/compiler/graph"
	"meridian-hq/meridian/pkg/compiler/priority"
	"meridian-hq/meridian/pkg/policy"
)

// Retrieval is the output of rule retrieval before dominance filtering.
type Retrieval struct {
	Rules       []policy.Rule
	Paths       []graph.CompiledPath
	Constraints []policy.Constraint
}

// Retrieve looks up the rules, paths, and constraints applicable to a
// domain. Rules whose effective date is after now are excluded: they stay
// in the bundle but are never enforced early. Constraints merge the
// always scope with the domain scope.
func Retrieve(idx *bundle.Index, domain string, now time.Time) *Retrieval {
	var rules []policy.Rule
	active := make(map[string]bool)
	for _, r := range idx.RulesByDomain(domain) {
		if !r.Metadata.EffectiveAt(now) {
			continue
		}
		rules = append(rules, r)
		active[r.ID] = true
	}

	var paths []graph.CompiledPath
	for _, p := range idx.PathsByDomain(domain) {
		if active[p.RuleID] {
			paths = append(paths, p)
		}
	}

	constraints := append([]policy.Constraint{}, idx.ConstraintsByScope(policy.ConstraintScopeAlways)...)
	if domain != policy.ConstraintScopeAlways {
		constraints = append(constraints, idx.ConstraintsByScope(domain)...)
	}

	return &Retrieval{Rules: rules, Paths: paths, Constraints: constraints}
}

// DominanceResult is the output of dominance filtering.
type DominanceResult struct {
	Rules   []policy.Rule
	Paths   []graph.CompiledPath
	Applied []priority.DominanceRule

	// Flagged holds equal-tier pairs with no recorded resolution,
	// carried forward for escalation rather than silently resolved.
	Flagged [][2]string
}

// ApplyDominance deconflicts a retrieved rule set. For every unordered
// pair: a recorded override drops the loser; with no recorded entry,
// tiers are compared directly and the higher tier number loses; equal
// tiers with no entry are flagged, never silently decided.
func ApplyDominance(idx *bundle.Index, ret *Retrieval) *DominanceResult {
	ids := make([]string, len(ret.Rules))
	byID := make(map[string]policy.Rule, len(ret.Rules))
	for i, r := range ret.Rules {
		ids[i] = r.ID
		byID[r.ID] = r
	}
	sort.Strings(ids)

	res := &DominanceResult{}
	losers := make(map[string]bool)

	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			a, b := ids[i], ids[j]

			if dr, ok := idx.Dominance(a, b); ok {
				if dr.Mode == priority.ModeOverride {
					loser := a
					if dr.Winner == a {
						loser = b
					}
					losers[loser] = true
				}
				res.Applied = append(res.Applied, dr)
				continue
			}

			tierA := priority.DeriveTier(byID[a].Metadata)
			tierB := priority.DeriveTier(byID[b].Metadata)
			switch {
			case tierA < tierB:
				losers[b] = true
			case tierB < tierA:
				losers[a] = true
			default:
				if _, recorded := idx.Escalation(a, b); !recorded {
					res.Flagged = append(res.Flagged, [2]string{a, b})
				}
			}
		}
	}

	for _, r := range ret.Rules {
		if !losers[r.ID] {
			res.Rules = append(res.Rules, r)
		}
	}
	for _, p := range ret.Paths {
		if !losers[p.RuleID] {
			res.Paths = append(res.Paths, p)
		}
	}
	return res
}

// EscalationContacts collects the owners to notify for the retained rule
// set: every recorded escalation entry touching a retained rule
// contributes its owners. The result is sorted and deduplicated.
func EscalationContacts(idx *bundle.Index, rules []policy.Rule) []string {
	retained := make(map[string]bool, len(rules))
	for _, r := range rules {
		retained[r.ID] = true
	}

	set := make(map[string]bool)
	for _, esc := range idx.Bundle().Escalations {
		if retained[esc.Rules[0]] || retained[esc.Rules[1]] {
			for _, o := range esc.Owners {
				set[o] = true
			}
		}
	}

	owners := make([]string, 0, len(set))
	for o := range set {
		owners = append(owners, o)
	}
	sort.Strings(owners)
	return owners
}
