package enforce

import (
	"time"

	"meridian-hq/meridian/pkg/compiler/graph"
	"meridian-hq/meridian/pkg/compiler/priority"
	"meridian-hq/meridian/pkg/policy"
)

// Context is the per-request enforcement state: the classified query, the
// dominance-filtered rule set, and the scaffold built from it. It is
// owned exclusively by the request's execution and discarded after the
// request completes, surviving only as fields folded into audit entries.
type Context struct {
	SessionID string
	Query     string
	Timestamp time.Time

	Domain     string
	Intent     string
	Confidence float64

	// Rules and Paths are the retrieved set after dominance filtering.
	Rules []policy.Rule
	Paths []graph.CompiledPath

	// Constraints merges always-scoped and domain-scoped constraints.
	Constraints []policy.Constraint

	// Dominance records the dominance rules applied during filtering.
	Dominance []priority.DominanceRule

	// EscalationFlagged holds retrieved equal-tier pairs with no recorded
	// resolution. The pipeline still runs, but the flag is carried into
	// the decision rather than silently picking a winner.
	EscalationFlagged [][2]string

	// Owners lists escalation contacts for the retrieved rules.
	Owners []string

	// Scaffold is the deterministic generation scaffold.
	Scaffold *Scaffold
}

// RuleIDs returns the retrieved rule ids in order.
func (c *Context) RuleIDs() []string {
	ids := make([]string, len(c.Rules))
	for i, r := range c.Rules {
		ids[i] = r.ID
	}
	return ids
}
