package enforce

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"meridian-hq/meridian/pkg/policy"
)

// forbiddenPattern is one named disallowed-disclosure pattern.
type forbiddenPattern struct {
	name string
	re   *regexp.Regexp

	// pii marks identifier-class patterns whose match sets the hard
	// override.
	pii bool
}

// defaultForbiddenPatterns are always applied, independent of the
// retrieved constraint set.
var defaultForbiddenPatterns = []forbiddenPattern{
	{name: "ssn", re: regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`), pii: true},
	{name: "email", re: regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), pii: true},
	{name: "credit_card", re: regexp.MustCompile(`\b(?:\d{4}[- ]?){3}\d{4}\b`), pii: true},
	{name: "password_disclosure", re: regexp.MustCompile(`(?i)\bpassword\s*[:=]\s*\S+`), pii: true},
	{name: "guarantee_promise", re: regexp.MustCompile(`(?i)\bI\s+(?:guarantee|promise)\s+(?:you|that)\b`)},
	{name: "unconditional_commit", re: regexp.MustCompile(`(?i)\bwe\s+will\s+definitely\b`)},
}

// constraintPatterns derives forbidden-phrase patterns from NOT(x)
// constraints: the inner action becomes a case-insensitive word search
// with underscores matching either whitespace or a literal underscore.
// PII-shaped constraints are already covered by the default set.
func constraintPatterns(constraints []policy.Constraint) []forbiddenPattern {
	var out []forbiddenPattern
	for _, c := range constraints {
		if strings.Contains(strings.ToLower(c.Expression), "pii") {
			continue
		}
		inner, ok := c.Forbidden()
		if !ok {
			continue
		}
		expr := `(?i)\b` + strings.ReplaceAll(regexp.QuoteMeta(inner), "_", `[\s_]`) + `\b`
		re, err := regexp.Compile(expr)
		if err != nil {
			continue
		}
		out = append(out, forbiddenPattern{name: "constraint_" + c.ID, re: re})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// PatternCheck runs the regex tier of verification: the default forbidden
// patterns plus constraint-derived ones. Binary score — any match fails.
// A match on a PII-class pattern additionally sets the hard override.
func PatternCheck(response string, constraints []policy.Constraint) CheckResult {
	var flags []string
	hard := false

	all := append([]forbiddenPattern{}, defaultForbiddenPatterns...)
	all = append(all, constraintPatterns(constraints)...)

	for _, p := range all {
		loc := p.re.FindStringIndex(response)
		if loc == nil {
			continue
		}
		flags = append(flags, fmt.Sprintf("%s: matched %q at pos %d", p.name, response[loc[0]:loc[1]], loc[0]))
		if p.pii {
			hard = true
		}
	}

	score := 1.0
	if len(flags) > 0 {
		score = 0.0
	}
	r := okResult("pattern", score, flags)
	r.HardOverride = hard
	return r
}
