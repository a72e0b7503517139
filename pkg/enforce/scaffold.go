package enforce

import (
	"fmt"
	"sort"
	"strings"

	"meridian-hq/meridian/pkg/compiler/graph"
	"meridian-hq/meridian/pkg/compiler/priority"
	"meridian-hq/meridian/pkg/policy"
)

// priorityGuidance states the lattice ordering for the generation request.
const priorityGuidance = "PRIORITY: regulatory > core_values > company > department > situational."

// Scaffold is the deterministic instruction sequence injected into the
// generation request. Identical retrieved-rule sets always produce
// byte-identical scaffold text — the coverage check and golden-output
// tests depend on it.
type Scaffold struct {
	// Steps is the numbered instruction sequence, one step per decision
	// node in canonical order plus a terminal citation step.
	Steps []string

	// Invariants is the imperative constraint block for the system
	// portion of the request.
	Invariants []string

	// RequiredNodes is the ordered set of decision-node variables the
	// scaffold instructs on; the coverage check measures against it.
	RequiredNodes []string
}

// BuildScaffold serializes the filtered paths into scaffold steps.
// Variables follow the bundle's canonical decision-node order; within a
// variable, branches follow rule id ascending. An empty path set yields a
// scaffold with zero steps.
func BuildScaffold(paths []graph.CompiledPath, schema policy.Schema, decisionNodes []string, applied []priority.DominanceRule, constraints []policy.Constraint) *Scaffold {
	s := &Scaffold{Invariants: serializeInvariants(constraints)}
	if len(paths) == 0 {
		return s
	}

	inPaths := make(map[string]bool)
	for _, p := range paths {
		for _, step := range p.Steps {
			inPaths[step.Var] = true
		}
	}

	var ordered []string
	for _, v := range decisionNodes {
		if inPaths[v] {
			ordered = append(ordered, v)
			delete(inPaths, v)
		}
	}
	// Variables missing from the node order still get steps, after the
	// ordered ones, sorted by name.
	var rest []string
	for v := range inPaths {
		rest = append(rest, v)
	}
	sort.Strings(rest)
	ordered = append(ordered, rest...)
	s.RequiredNodes = ordered

	sortedPaths := make([]graph.CompiledPath, len(paths))
	copy(sortedPaths, paths)
	sort.Slice(sortedPaths, func(i, j int) bool { return sortedPaths[i].RuleID < sortedPaths[j].RuleID })

	num := 1
	for _, v := range ordered {
		s.Steps = append(s.Steps, nodeStep(num, v, schema[v]))
		num++

		for _, p := range sortedPaths {
			for _, step := range p.Steps {
				if step.Var != v {
					continue
				}
				for _, t := range step.Tests {
					s.Steps = append(s.Steps, branchStep(v, t, p))
				}
			}
		}
	}

	for _, dr := range applied {
		s.Steps = append(s.Steps, fmt.Sprintf(
			"NOTE: When rules %s and %s conflict, mode=%s, enforce=%s.",
			dr.Rules[0], dr.Rules[1], dr.Mode, dr.Winner,
		))
	}

	s.Steps = append(s.Steps, fmt.Sprintf("STEP %d: FINAL — State the action and cite the rule source.", num))
	return s
}

// nodeStep renders the instruction for one decision node.
func nodeStep(num int, v string, schema policy.Variable) string {
	switch schema.Type {
	case policy.TypeBool:
		return fmt.Sprintf("STEP %d: Check variable %s. If unknown, ask the user; DO NOT assume.", num, v)
	case policy.TypeEnum:
		vals := "unknown"
		if len(schema.Values) > 0 {
			vals = strings.Join(schema.Values, ", ")
		}
		return fmt.Sprintf("STEP %d: Determine %s. Must be one of: %s.", num, v, vals)
	}
	return fmt.Sprintf("STEP %d: Check %s.", num, v)
}

// branchStep renders one conditional branch with its rule citation.
func branchStep(v string, t graph.Test, p graph.CompiledPath) string {
	eff := p.Metadata.EffectiveDate
	if eff == "" {
		eff = "N/A"
	}
	return fmt.Sprintf("  If %s %s %v THEN ACTION => %s (per %s, source: %s, effective: %s).",
		v, t.Op, t.Value, p.Action, p.RuleID, p.Metadata.Source, eff)
}

// serializeInvariants renders constraints as a short imperative list.
// NOT(x) becomes "NEVER x" with underscores read as spaces; anything else
// becomes an ALWAYS directive.
func serializeInvariants(constraints []policy.Constraint) []string {
	lines := make([]string, 0, len(constraints))
	for i, c := range constraints {
		if inner, ok := c.Forbidden(); ok {
			lines = append(lines, fmt.Sprintf("%d) NEVER %s.", i+1, strings.ReplaceAll(inner, "_", " ")))
		} else {
			lines = append(lines, fmt.Sprintf("%d) ALWAYS comply with: %s.", i+1, c.Expression))
		}
	}
	return lines
}

// Text returns the scaffold steps as one block.
func (s *Scaffold) Text() string {
	return strings.Join(s.Steps, "\n")
}

// SystemText returns the system-prompt block: the invariant list and the
// priority guidance, framed for the highest-priority request position.
func (s *Scaffold) SystemText() string {
	var b strings.Builder
	b.WriteString("---BEGIN POLICY ENFORCEMENT---\n")
	if len(s.Invariants) > 0 {
		b.WriteString("- INVARIANTS:\n")
		for _, line := range s.Invariants {
			b.WriteString("  " + line + "\n")
		}
	}
	b.WriteString("- " + priorityGuidance + "\n")
	b.WriteString("---END POLICY ENFORCEMENT---")
	return b.String()
}
