package enforce

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"meridian-hq/meridian/pkg/compiler/graph"
	"meridian-hq/meridian/pkg/compiler/solver"
	"meridian-hq/meridian/pkg/policy"
)

// Formal-check scores for the non-binary outcomes: a response asserting
// no extractable facts is penalized for uncertainty rather than failed,
// and facts matching no compiled path score half.
const (
	scoreNoFacts       = 0.8
	scoreUncoveredPath = 0.5
)

// extractorCoverageFloor is the fraction of schema variables regex
// extraction must cover before the external extractor fallback is
// skipped.
const extractorCoverageFloor = 0.5

var (
	daysRe   = regexp.MustCompile(`(\d+)\s*days?\b`)
	dollarRe = regexp.MustCompile(`\$\s*([\d,.]+)`)
)

// ExtractFacts pulls stated variable values out of a response. Regex
// extraction runs first per variable type; when it covers less than half
// the schema and an external extractor is available, the extractor fills
// in variables regex missed. Extracted values are typed per the schema.
func ExtractFacts(ctx context.Context, response string, schema policy.Schema, extractor FactExtractor) solver.Assignment {
	facts := make(solver.Assignment)
	lower := strings.ToLower(response)

	names := make([]string, 0, len(schema))
	for name := range schema {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		v := schema[name]
		readable := strings.ReplaceAll(name, "_", " ")

		switch v.Type {
		case policy.TypeBool:
			if b, ok := extractBool(response, readable); ok {
				facts[name] = b
			}
		case policy.TypeInt:
			if n, ok := extractInt(response, lower, name, readable); ok {
				facts[name] = n
			}
		case policy.TypeFloat:
			if f, ok := extractFloat(response, name, readable); ok {
				facts[name] = f
			}
		case policy.TypeEnum:
			for _, val := range v.Values {
				if strings.Contains(lower, strings.ToLower(val)) {
					facts[name] = val
					break
				}
			}
		}
	}

	if extractor != nil && float64(len(facts)) < float64(len(schema))*extractorCoverageFloor {
		ext, err := extractor.Extract(ctx, response, schema)
		if err != nil {
			slog.Default().With("component", "enforce.formal").Warn("fact extractor fallback failed", "error", err)
			return facts
		}
		for name, value := range ext {
			if _, known := schema[name]; !known {
				continue
			}
			if _, already := facts[name]; already {
				continue
			}
			facts[name] = value
		}
	}
	return facts
}

func extractBool(response, readable string) (bool, bool) {
	positive := []string{
		`(?i)\b` + regexp.QuoteMeta(readable) + `\b.*\b(?:true|yes|provided|has|confirmed|verified)\b`,
		`(?i)\b(?:has|have|with)\s+` + regexp.QuoteMeta(readable) + `\b`,
	}
	negative := []string{
		`(?i)\b` + regexp.QuoteMeta(readable) + `\b.*\b(?:false|no|missing|without|not)\b`,
		`(?i)\bno\s+` + regexp.QuoteMeta(readable) + `\b`,
		`(?i)\bwithout\s+` + regexp.QuoteMeta(readable) + `\b`,
	}
	// Negations first: "no receipt provided" must not read as positive.
	for _, pat := range negative {
		if regexp.MustCompile(pat).MatchString(response) {
			return false, true
		}
	}
	for _, pat := range positive {
		if regexp.MustCompile(pat).MatchString(response) {
			return true, true
		}
	}
	return false, false
}

func extractInt(response, lower, name, readable string) (int64, bool) {
	pat := `(?i)(?:` + regexp.QuoteMeta(readable) + `|` + regexp.QuoteMeta(name) + `)\D*?(\d+)`
	if m := regexp.MustCompile(pat).FindStringSubmatch(response); m != nil {
		if n, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			return n, true
		}
	}
	if strings.Contains(name, "day") {
		if m := daysRe.FindStringSubmatch(lower); m != nil {
			if n, err := strconv.ParseInt(m[1], 10, 64); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

func extractFloat(response, name, readable string) (float64, bool) {
	pat := `(?i)(?:` + regexp.QuoteMeta(readable) + `|` + regexp.QuoteMeta(name) + `)\D*?([\d,.]+)`
	if m := regexp.MustCompile(pat).FindStringSubmatch(response); m != nil {
		if f, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64); err == nil {
			return f, true
		}
	}
	if strings.Contains(name, "amount") {
		if m := dollarRe.FindStringSubmatch(response); m != nil {
			if f, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

// FormalCheck verifies the response's stated facts against the active
// constraints and compiled paths. Outcomes: a breached constraint scores
// zero; facts matching no compiled path score half; no extractable facts
// scores 0.8; otherwise full. The solver is a hard dependency — a check
// failure is fatal to the request, never degraded.
func FormalCheck(ctx context.Context, response string, ec *Context, schema policy.Schema, extractor FactExtractor) CheckResult {
	facts := ExtractFacts(ctx, response, schema, extractor)
	if len(facts) == 0 {
		return okResult("formal", scoreNoFacts, []string{"no facts extracted from response"})
	}

	var flags []string

	// Constraint breaches: a NOT(x) constraint is violated when the
	// forbidden action surfaces among the stated facts.
	for _, c := range ec.Constraints {
		inner, ok := c.Forbidden()
		if !ok {
			continue
		}
		forbidden := strings.ToLower(strings.ReplaceAll(inner, "_", " "))
		if factsMention(facts, forbidden) {
			flags = append(flags, fmt.Sprintf("constraint_breach: %s (%s)", c.ID, c.Expression))
		}
	}
	if len(flags) > 0 {
		return okResult("formal", 0, flags)
	}

	// Path traversal: the facts must jointly satisfy every test of at
	// least one retrieved path.
	if len(ec.Paths) > 0 {
		satisfied, err := anyPathSatisfied(ctx, facts, ec.Paths, schema)
		if err != nil {
			return fatalResult("formal", &CheckFatalError{Check: "formal", Cause: err})
		}
		if !satisfied {
			return okResult("formal", scoreUncoveredPath,
				[]string{"uncovered_case: response facts match no compiled decision path"})
		}
	}

	return okResult("formal", 1.0, nil)
}

// factsMention reports whether the forbidden phrase appears in a fact
// name (readable form) or a fact value.
func factsMention(facts solver.Assignment, forbidden string) bool {
	for name, value := range facts {
		readable := strings.ToLower(strings.ReplaceAll(name, "_", " "))
		if strings.Contains(readable, forbidden) {
			return true
		}
		if s, ok := value.(string); ok && strings.Contains(strings.ToLower(s), forbidden) {
			return true
		}
	}
	return false
}

// anyPathSatisfied checks the facts against each path with a fresh solver
// context. A path counts only when the facts cover every variable it
// tests and the conjunction of facts and tests is satisfiable.
func anyPathSatisfied(ctx context.Context, facts solver.Assignment, paths []graph.CompiledPath, schema policy.Schema) (bool, error) {
	for _, p := range paths {
		covered := true
		for _, step := range p.Steps {
			if _, ok := facts[step.Var]; !ok {
				covered = false
				break
			}
		}
		if !covered {
			continue
		}

		sctx := solver.NewContext(schema)
		assertFailed := false
		for name, value := range facts {
			if _, known := schema[name]; !known {
				continue
			}
			if err := sctx.AssertFact(name, value); err != nil {
				// A fact the solver cannot type cannot satisfy any path.
				assertFailed = true
				break
			}
		}
		if assertFailed {
			continue
		}
		if err := sctx.AssertAll(p.Conditions()); err != nil {
			continue
		}

		res, err := sctx.Check(ctx)
		if err != nil {
			return false, err
		}
		if res.Sat {
			return true, nil
		}
	}
	return false, nil
}
