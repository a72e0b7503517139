package enforce

import (
	"context"
	"log/slog"
	"time"

	"meridian-hq/meridian/pkg/policy"
)

// VerifierConfig bounds the post-generation checks.
type VerifierConfig struct {
	// FormalTimeout bounds the formal check's solver budget.
	// Default: 5 seconds.
	FormalTimeout time.Duration

	// SemanticTimeout bounds the judge call.
	// Default: 10 seconds.
	SemanticTimeout time.Duration
}

// DefaultVerifierConfig returns the default verifier configuration.
func DefaultVerifierConfig() *VerifierConfig {
	return &VerifierConfig{
		FormalTimeout:   5 * time.Second,
		SemanticTimeout: 10 * time.Second,
	}
}

// Report aggregates the four check results for one response.
type Report struct {
	Pattern  CheckResult
	Formal   CheckResult
	Coverage CheckResult
	Semantic CheckResult
}

// HardOverride reports whether any check set the hard-override flag.
func (r *Report) HardOverride() bool {
	return r.Pattern.HardOverride
}

// Fatal returns the first fatal check result, if any.
func (r *Report) Fatal() *CheckResult {
	for _, c := range []*CheckResult{&r.Pattern, &r.Formal, &r.Coverage, &r.Semantic} {
		if c.Status == CheckFatal {
			return c
		}
	}
	return nil
}

// Caveats lists the degradation reasons across all checks.
func (r *Report) Caveats() []string {
	var caveats []string
	for _, c := range []CheckResult{r.Pattern, r.Formal, r.Coverage, r.Semantic} {
		if c.Status == CheckDegraded {
			caveats = append(caveats, c.Name+": "+c.Reason)
		}
	}
	return caveats
}

// Violations flattens every check's flags, prefixed by check name.
func (r *Report) Violations() []string {
	var out []string
	for _, c := range []CheckResult{r.Pattern, r.Formal, r.Coverage, r.Semantic} {
		for _, f := range c.Flags {
			out = append(out, c.Name+": "+f)
		}
	}
	return out
}

// Verifier runs the four post-generation checks concurrently. The
// pattern and coverage checks are local and effectively instant; the
// formal check runs on a bounded solver budget; the semantic check is a
// network call with its own timeout and neutral fallback. No check may
// block the others.
type Verifier struct {
	schema    policy.Schema
	config    *VerifierConfig
	judge     Judge
	extractor FactExtractor
	logger    *slog.Logger
}

// NewVerifier creates a verifier over the bundle's variable schema.
func NewVerifier(schema policy.Schema, config *VerifierConfig, judge Judge, extractor FactExtractor) *Verifier {
	if config == nil {
		config = DefaultVerifierConfig()
	}
	return &Verifier{
		schema:    schema,
		config:    config,
		judge:     judge,
		extractor: extractor,
		logger:    slog.Default().With("component", "enforce.verifier"),
	}
}

// Verify runs all four checks against one response and collects their
// tagged results. The request context's deadline propagates into every
// check; a cancelled context surfaces as a fatal formal result or a
// degraded semantic result, never a hang.
func (v *Verifier) Verify(ctx context.Context, response string, ec *Context) *Report {
	report := &Report{}

	type slot struct {
		dst *CheckResult
		run func() CheckResult
	}
	slots := []slot{
		{&report.Pattern, func() CheckResult {
			return PatternCheck(response, ec.Constraints)
		}},
		{&report.Formal, func() CheckResult {
			fctx, cancel := context.WithTimeout(ctx, v.config.FormalTimeout)
			defer cancel()
			return FormalCheck(fctx, response, ec, v.schema, v.extractor)
		}},
		{&report.Coverage, func() CheckResult {
			return CoverageCheck(response, ec.Scaffold.RequiredNodes)
		}},
		{&report.Semantic, func() CheckResult {
			sctx, cancel := context.WithTimeout(ctx, v.config.SemanticTimeout)
			defer cancel()
			return SemanticCheck(sctx, response, ec, v.judge)
		}},
	}

	done := make(chan struct{})
	for _, s := range slots {
		s := s
		go func() {
			start := time.Now()
			res := s.run()
			res.Duration = time.Since(start)
			*s.dst = res
			done <- struct{}{}
		}()
	}
	for range slots {
		<-done
	}

	v.logger.Debug("postgen checks complete",
		"session_id", ec.SessionID,
		"pattern", report.Pattern.Score,
		"formal", report.Formal.Score,
		"coverage", report.Coverage.Score,
		"semantic", report.Semantic.Score,
		"hard_override", report.HardOverride(),
	)
	return report
}
