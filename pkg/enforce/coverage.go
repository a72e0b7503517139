package enforce

import (
	"fmt"
	"strings"
)

// CoverageCheck measures what fraction of the scaffold's required
// decision nodes the response textually addresses, matching either the
// variable name or its readable form (underscores as spaces). A scaffold
// with zero steps has no required nodes; coverage is then zero, not
// vacuously full — an uncovered query must not score as covered.
func CoverageCheck(response string, required []string) CheckResult {
	if len(required) == 0 {
		return okResult("coverage", 0, []string{"no required decision nodes (empty scaffold)"})
	}

	lower := strings.ToLower(response)
	covered := 0
	var missing []string
	for _, node := range required {
		readable := strings.ReplaceAll(node, "_", " ")
		if strings.Contains(lower, strings.ToLower(node)) || strings.Contains(lower, strings.ToLower(readable)) {
			covered++
		} else {
			missing = append(missing, node)
		}
	}

	var flags []string
	if len(missing) > 0 {
		flags = append(flags, fmt.Sprintf("unaddressed decision nodes: %s", strings.Join(missing, ", ")))
	}
	return okResult("coverage", float64(covered)/float64(len(required)), flags)
}
