// Package priority derives priority tiers from rule metadata and resolves
// detected conflicts: differing tiers produce dominance rules, equal tiers
// produce escalation entries for the rules' owners.
package priority

import (
	"sort"
	"strings"

	"meridian-hq/meridian/pkg/compiler/conflict"
	"meridian-hq/meridian/pkg/policy"
)

// Tier is a priority tier. Lower numbers dominate.
type Tier int

const (
	TierRegulatory  Tier = 1
	TierCoreValues  Tier = 2
	TierCompany     Tier = 3
	TierDepartment  Tier = 4
	TierSituational Tier = 5
)

// Name returns the lattice label for the tier.
func (t Tier) Name() string {
	switch t {
	case TierRegulatory:
		return "regulatory"
	case TierCoreValues:
		return "core_values"
	case TierCompany:
		return "company"
	case TierDepartment:
		return "department"
	}
	return "situational"
}

// Lattice returns the full priority lattice, label to rank. A compiled
// bundle must cover all five tiers.
func Lattice() map[string]int {
	return map[string]int{
		"regulatory":  int(TierRegulatory),
		"core_values": int(TierCoreValues),
		"company":     int(TierCompany),
		"department":  int(TierDepartment),
		"situational": int(TierSituational),
	}
}

// coreValueDomains are the domains that rank as core values regardless of
// the declared priority label.
var coreValueDomains = map[string]bool{
	"safety":  true,
	"privacy": true,
	"ethics":  true,
}

// priorityAliases maps declared priority labels onto owner scopes.
var priorityAliases = map[string]Tier{
	"company":    TierCompany,
	"corporate":  TierCompany,
	"org":        TierCompany,
	"department": TierDepartment,
	"dept":       TierDepartment,
	"team":       TierDepartment,
}

// DeriveTier maps rule metadata to a priority tier. The checks run in a
// fixed order and the first match wins: regulatory linkage, core-value
// domain, company-wide owner, department-scoped owner, then situational.
// An explicit expiry never preempts a declared priority label; rules
// carrying only an expiry fall into the situational default.
func DeriveTier(md policy.Metadata) Tier {
	if len(md.RegulatoryLinkage) > 0 {
		return TierRegulatory
	}
	if coreValueDomains[strings.ToLower(md.Domain)] {
		return TierCoreValues
	}
	if t, ok := priorityAliases[strings.ToLower(strings.TrimSpace(md.Priority))]; ok {
		return t
	}
	return TierSituational
}

// Mode is a dominance resolution mode.
type Mode string

const (
	// ModeOverride replaces the losing rule's action with the winner's.
	ModeOverride Mode = "override"

	// ModeCompose treats the higher-priority action as a gating step
	// before the lower-priority one, rather than discarding it.
	ModeCompose Mode = "compose"
)

// DominanceRule resolves a conflict between differently-tiered rules.
type DominanceRule struct {
	// Rules is the conflicting pair, sorted ascending.
	Rules [2]string `json:"rules"`

	// Mode is override or compose.
	Mode Mode `json:"mode"`

	// Winner is the dominating rule id (lower tier number).
	Winner string `json:"winner"`

	// WinnerTier and LoserTier record the lattice positions.
	WinnerTier string `json:"winner_tier"`
	LoserTier  string `json:"loser_tier"`
}

// EscalationEntry is an unresolved same-tier conflict routed to the
// rules' owners.
type EscalationEntry struct {
	// Rules is the conflicting pair, sorted ascending.
	Rules [2]string `json:"rules"`

	// Actions are the two conflicting actions, in rule order.
	Actions [2]string `json:"actions"`

	// Tier is the shared lattice label.
	Tier string `json:"tier"`

	// Owners lists the owners to notify, sorted and deduplicated.
	Owners []string `json:"owners"`
}

// actionRelation picks the resolution mode for two conflicting actions.
// Approval-style actions gate refund-style actions rather than replacing
// them.
func actionRelation(a, b string) Mode {
	gating := (strings.Contains(a, "approval") && strings.Contains(b, "refund")) ||
		(strings.Contains(b, "approval") && strings.Contains(a, "refund"))
	if gating {
		return ModeCompose
	}
	return ModeOverride
}

// Resolution is the resolver output: every detected conflict becomes
// exactly one dominance rule or one escalation entry, never both.
type Resolution struct {
	DominanceRules []DominanceRule   `json:"dominance_rules"`
	Escalations    []EscalationEntry `json:"escalations"`
}

// Resolve maps each conflict through the priority lattice. Global
// constraints never pass through here: constraint violations always
// escalate at runtime regardless of tiering.
func Resolve(conflicts []conflict.Conflict, rulesByID map[string]policy.Rule) *Resolution {
	res := &Resolution{}
	seen := make(map[[2]string]bool)

	for _, c := range conflicts {
		pair := [2]string{c.RuleA, c.RuleB}
		if pair[0] > pair[1] {
			pair[0], pair[1] = pair[1], pair[0]
		}
		if seen[pair] {
			continue
		}
		seen[pair] = true

		mdA := rulesByID[c.RuleA].Metadata
		mdB := rulesByID[c.RuleB].Metadata
		tierA, tierB := DeriveTier(mdA), DeriveTier(mdB)

		if tierA == tierB {
			res.Escalations = append(res.Escalations, EscalationEntry{
				Rules:   pair,
				Actions: c.Actions,
				Tier:    tierA.Name(),
				Owners:  ownerSet(mdA, mdB),
			})
			continue
		}

		winner, winTier, loseTier := c.RuleA, tierA, tierB
		if tierB < tierA {
			winner, winTier, loseTier = c.RuleB, tierB, tierA
		}
		res.DominanceRules = append(res.DominanceRules, DominanceRule{
			Rules:      pair,
			Mode:       actionRelation(c.Actions[0], c.Actions[1]),
			Winner:     winner,
			WinnerTier: winTier.Name(),
			LoserTier:  loseTier.Name(),
		})
	}

	return res
}

// ownerSet merges and sorts the owners of two rules.
func ownerSet(a, b policy.Metadata) []string {
	set := make(map[string]bool, 2)
	for _, o := range []string{a.Owner, b.Owner} {
		if o == "" {
			o = "unknown_owner"
		}
		set[o] = true
	}
	owners := make([]string, 0, len(set))
	for o := range set {
		owners = append(owners, o)
	}
	sort.Strings(owners)
	return owners
}
