package enforce

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"meridian-hq/meridian/pkg/audit"
	"meridian-hq/meridian/pkg/bundle"
	"meridian-hq/meridian/pkg/telemetry/metrics"
)

// maxDirectiveHints bounds how many violation hints feed a retry.
const maxDirectiveHints = 5

// Config controls the enforcement loop.
type Config struct {
	// MaxAutoCorrectRetries bounds retries from AUTO_CORRECT.
	// Default: 1.
	MaxAutoCorrectRetries int

	// MaxRegenerateRetries bounds retries from REGENERATE.
	// Default: 2.
	MaxRegenerateRetries int

	// Budget is the total enforcement latency budget. Exceeding it at
	// any retry boundary forces ESCALATE.
	// Default: 30 seconds.
	Budget time.Duration

	// ClassifierTimeout bounds the fallback classification call.
	// Default: 5 seconds.
	ClassifierTimeout time.Duration

	// Verifier configures the post-generation checks.
	Verifier *VerifierConfig
}

// DefaultConfig returns the default enforcement configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxAutoCorrectRetries: 1,
		MaxRegenerateRetries:  2,
		Budget:                30 * time.Second,
		ClassifierTimeout:     5 * time.Second,
		Verifier:              DefaultVerifierConfig(),
	}
}

// Decision is the terminal outcome of one enforcement run.
type Decision struct {
	SessionID string  `json:"session_id"`
	Query     string  `json:"query"`
	Domain    string  `json:"domain"`
	Intent    string  `json:"intent"`
	Response  string  `json:"response"`
	Score     float64 `json:"score"`
	Action    Action  `json:"action"`

	Violations []string `json:"violations,omitempty"`
	Caveats    []string `json:"caveats,omitempty"`

	// Retries is the number of retry generations consumed.
	Retries int `json:"retries"`

	// Owners lists the contacts notified on escalation.
	Owners []string `json:"owners,omitempty"`

	Duration time.Duration `json:"duration_ns"`

	// Report is the last attempt's check report, nil when the pipeline
	// escalated before verification.
	Report *Report `json:"-"`
}

// Enforcer drives the per-request pipeline against a loaded bundle
// index. The index is swappable for hot reload; each request works from
// the snapshot taken at its start.
type Enforcer struct {
	generator  Generator
	judge      Judge
	classifier Classifier
	extractor  FactExtractor
	audits     *audit.Writer
	metrics    *metrics.Metrics
	config     *Config
	logger     *slog.Logger

	mu       sync.RWMutex
	index    *bundle.Index
	verifier *Verifier
}

// NewEnforcer creates an enforcer. The audit writer is required — every
// decision must land in the chain. Judge, classifier, extractor, and
// metrics may be nil; their absence degrades the relevant stages.
func NewEnforcer(idx *bundle.Index, gen Generator, audits *audit.Writer, config *Config) *Enforcer {
	if config == nil {
		config = DefaultConfig()
	}
	e := &Enforcer{
		generator: gen,
		audits:    audits,
		config:    config,
		logger:    slog.Default().With("component", "enforce"),
	}
	e.SetIndex(idx)
	return e
}

// WithJudge sets the semantic judge client.
func (e *Enforcer) WithJudge(j Judge) *Enforcer {
	e.judge = j
	e.rebuildVerifier()
	return e
}

// WithClassifier sets the fallback classifier client.
func (e *Enforcer) WithClassifier(c Classifier) *Enforcer {
	e.classifier = c
	return e
}

// WithExtractor sets the fact-extraction fallback client.
func (e *Enforcer) WithExtractor(x FactExtractor) *Enforcer {
	e.extractor = x
	e.rebuildVerifier()
	return e
}

// WithMetrics sets the metrics collector.
func (e *Enforcer) WithMetrics(m *metrics.Metrics) *Enforcer {
	e.metrics = m
	return e
}

// SetIndex swaps in a new bundle index. In-flight requests keep the
// snapshot they started with.
func (e *Enforcer) SetIndex(idx *bundle.Index) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.index = idx
	e.verifier = NewVerifier(idx.Bundle().Variables, e.config.Verifier, e.judge, e.extractor)
}

func (e *Enforcer) rebuildVerifier() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.index != nil {
		e.verifier = NewVerifier(e.index.Bundle().Variables, e.config.Verifier, e.judge, e.extractor)
	}
}

func (e *Enforcer) snapshot() (*bundle.Index, *Verifier) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.index, e.verifier
}

// Enforce runs the full pipeline for one query. Request-level failures
// never surface as errors: they degrade to an ESCALATE decision with the
// failure recorded as a caveat and audited. The returned error is
// reserved for the pipeline being unusable (nil generator).
func (e *Enforcer) Enforce(ctx context.Context, query string) (*Decision, error) {
	if e.generator == nil {
		return nil, fmt.Errorf("enforcer has no generator configured")
	}
	if e.audits == nil {
		return nil, fmt.Errorf("enforcer has no audit writer configured")
	}

	start := time.Now()
	deadline := start.Add(e.config.Budget)
	ctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	idx, verifier := e.snapshot()

	ec := &Context{
		SessionID: uuid.New().String(),
		Query:     query,
		Timestamp: start.UTC(),
	}

	// --- Classification ---
	cctx, ccancel := context.WithTimeout(ctx, e.config.ClassifierTimeout)
	cls, err := ClassifyQuery(cctx, query, idx.Bundle().Domains(), e.classifier)
	ccancel()
	ec.Domain, ec.Intent, ec.Confidence = cls.Domain, cls.Intent, cls.Confidence
	if err != nil {
		// Never guess a default domain: an unclassifiable query escalates.
		return e.escalateEarly(ctx, ec, start, fmt.Sprintf("classification failed: %v", err)), nil
	}

	// --- Retrieval, dominance, scaffold ---
	ret := Retrieve(idx, ec.Domain, start)
	dom := ApplyDominance(idx, ret)
	ec.Rules, ec.Paths = dom.Rules, dom.Paths
	ec.Constraints = ret.Constraints
	ec.Dominance = dom.Applied
	ec.EscalationFlagged = dom.Flagged
	ec.Owners = EscalationContacts(idx, dom.Rules)
	ec.Scaffold = BuildScaffold(dom.Paths, idx.Bundle().Variables, idx.Bundle().DecisionNodes, dom.Applied, ret.Constraints)

	e.logger.Info("pregen complete",
		"session_id", ec.SessionID,
		"domain", ec.Domain,
		"intent", ec.Intent,
		"confidence", ec.Confidence,
		"rules", len(ec.Rules),
		"constraints", len(ec.Constraints),
		"flagged_pairs", len(ec.EscalationFlagged),
	)

	// --- Generate / verify / route loop ---
	var (
		directives []string
		retries    int
		autoUsed   int
		regenUsed  int
		afterAuto  bool
		caveats    []string
		attempt    int
		decision   *Decision
	)

	for _, pair := range ec.EscalationFlagged {
		caveats = append(caveats, fmt.Sprintf("unresolved equal-tier pair: %s / %s", pair[0], pair[1]))
	}

	for {
		if time.Now().After(deadline) || ctx.Err() != nil {
			terr := &EnforcementTimeoutError{SessionID: ec.SessionID, Budget: e.config.Budget, Stage: fmt.Sprintf("attempt %d", attempt)}
			caveats = append(caveats, terr.Error())
			decision = e.terminal(ec, "", nil, 0, ActionEscalate, caveats, retries, start)
			e.appendAudit(ctx, ec, decision, attempt)
			break
		}

		response, genErr := e.generator.Generate(ctx, &GenerationRequest{
			System:     ec.Scaffold.SystemText(),
			Scaffold:   ec.Scaffold.Text(),
			Query:      query,
			Directives: directives,
		})
		if genErr != nil || response == "" {
			if genErr == nil {
				genErr = fmt.Errorf("empty response")
			}
			caveats = append(caveats, (&GenerationError{Attempt: attempt, Cause: genErr}).Error())
			decision = e.terminal(ec, "", nil, 0, ActionEscalate, caveats, retries, start)
			e.appendAudit(ctx, ec, decision, attempt)
			break
		}

		report := verifier.Verify(ctx, response, ec)
		e.observeChecks(report)
		caveats = append(caveats, report.Caveats()...)

		if fatal := report.Fatal(); fatal != nil {
			caveats = append(caveats, fatal.Name+" check fatal: "+fatal.Reason)
			decision = e.terminal(ec, response, report, 0, ActionEscalate, caveats, retries, start)
			e.appendAudit(ctx, ec, decision, attempt)
			break
		}

		score := ComputeScore(report)
		action := RouteAction(score, report.HardOverride())

		// An auto-correct retry either reaches PASS or falls through to
		// ESCALATE; there is no second chance.
		if afterAuto && action != ActionPass {
			action = ActionEscalate
		}

		e.logger.Info("attempt scored",
			"session_id", ec.SessionID,
			"attempt", attempt,
			"score", score,
			"action", string(action),
			"hard_override", report.HardOverride(),
		)

		switch action {
		case ActionPass, ActionEscalate:
			decision = e.terminal(ec, response, report, score, action, caveats, retries, start)
			e.appendAudit(ctx, ec, decision, attempt)

		case ActionAutoCorrect:
			if autoUsed >= e.config.MaxAutoCorrectRetries {
				decision = e.terminal(ec, response, report, score, ActionEscalate, caveats, retries, start)
				e.appendAudit(ctx, ec, decision, attempt)
				break
			}
			e.auditAttempt(ctx, ec, response, report, score, action, caveats, retries, attempt)
			e.metrics.ObserveRetry("auto_correct")
			autoUsed++
			retries++
			afterAuto = true
			directives = correctionHints(report.Violations())

		case ActionRegenerate:
			if regenUsed >= e.config.MaxRegenerateRetries {
				decision = e.terminal(ec, response, report, score, ActionEscalate, caveats, retries, start)
				e.appendAudit(ctx, ec, decision, attempt)
				break
			}
			e.auditAttempt(ctx, ec, response, report, score, action, caveats, retries, attempt)
			e.metrics.ObserveRetry("regenerate")
			regenUsed++
			retries++
			// Progressively stricter: directives accumulate across
			// regeneration retries.
			directives = append(directives, negativeDirectives(report.Violations())...)
		}

		if decision != nil {
			break
		}
		attempt++
	}

	e.metrics.ObserveDecision(string(decision.Action), decision.Score, decision.Duration)
	return decision, nil
}

// terminal assembles the final decision.
func (e *Enforcer) terminal(ec *Context, response string, report *Report, score float64, action Action, caveats []string, retries int, start time.Time) *Decision {
	d := &Decision{
		SessionID: ec.SessionID,
		Query:     ec.Query,
		Domain:    ec.Domain,
		Intent:    ec.Intent,
		Response:  response,
		Score:     score,
		Action:    action,
		Caveats:   caveats,
		Retries:   retries,
		Duration:  time.Since(start),
		Report:    report,
	}
	if report != nil {
		d.Violations = report.Violations()
	}
	if action == ActionEscalate {
		d.Owners = ec.Owners
	}
	return d
}

// escalateEarly builds and audits an escalation for failures before
// generation (unclassifiable query).
func (e *Enforcer) escalateEarly(ctx context.Context, ec *Context, start time.Time, caveat string) *Decision {
	d := e.terminal(ec, "", nil, 0, ActionEscalate, []string{caveat}, 0, start)
	e.appendAudit(ctx, ec, d, 0)
	e.metrics.ObserveDecision(string(d.Action), d.Score, d.Duration)
	return d
}

// auditAttempt records one non-terminal retry attempt in the chain.
func (e *Enforcer) auditAttempt(ctx context.Context, ec *Context, response string, report *Report, score float64, action Action, caveats []string, retries, attempt int) {
	d := &Decision{
		SessionID: ec.SessionID,
		Query:     ec.Query,
		Domain:    ec.Domain,
		Intent:    ec.Intent,
		Response:  response,
		Score:     score,
		Action:    action,
		Caveats:   caveats,
		Retries:   retries,
		Report:    report,
	}
	e.appendAudit(ctx, ec, d, attempt)
}

// appendAudit folds a decision into an audit entry. Append failures are
// logged, never propagated: a broken audit backend must not change the
// enforcement outcome the caller sees.
func (e *Enforcer) appendAudit(ctx context.Context, ec *Context, d *Decision, attempt int) {
	entry := &audit.Entry{
		SessionID:        ec.SessionID,
		Timestamp:        ec.Timestamp,
		Query:            ec.Query,
		Domain:           ec.Domain,
		Intent:           ec.Intent,
		RetrievedRuleIDs: ec.RuleIDs(),
		Scores:           audit.Scores{Final: d.Score},
		Action:           string(d.Action),
		Attempt:          attempt,
		Retries:          d.Retries,
		Caveats:          d.Caveats,
		DurationMS:       d.Duration.Milliseconds(),
	}
	if ec.Scaffold != nil {
		entry.ScaffoldHash = audit.HashText(ec.Scaffold.Text())
	}
	if d.Response != "" {
		entry.ResponseHash = audit.HashText(d.Response)
	}
	if d.Report != nil {
		entry.Scores.Formal = d.Report.Formal.Score
		entry.Scores.Semantic = d.Report.Semantic.Score
		entry.Scores.Pattern = d.Report.Pattern.Score
		entry.Scores.Coverage = d.Report.Coverage.Score
	}
	if d.Action == ActionEscalate {
		entry.OwnersNotified = d.Owners
	}

	if err := e.audits.Append(ctx, entry); err != nil {
		e.logger.Error("failed to append audit entry",
			"session_id", ec.SessionID,
			"error", err,
		)
		e.metrics.ObserveAuditFailure()
	}
}

func (e *Enforcer) observeChecks(r *Report) {
	for _, c := range []CheckResult{r.Pattern, r.Formal, r.Coverage, r.Semantic} {
		e.metrics.ObserveCheck(c.Name, c.Status.String(), c.Duration)
	}
}

// correctionHints turns violations into FIX directives for an
// auto-correct retry.
func correctionHints(violations []string) []string {
	hints := make([]string, 0, maxDirectiveHints)
	for _, v := range violations {
		if len(hints) == maxDirectiveHints {
			break
		}
		hints = append(hints, "FIX: "+v)
	}
	return hints
}

// negativeDirectives turns violations into DO NOT directives for a
// regeneration retry.
func negativeDirectives(violations []string) []string {
	out := make([]string, 0, maxDirectiveHints)
	for _, v := range violations {
		if len(out) == maxDirectiveHints {
			break
		}
		out = append(out, "DO NOT: "+v)
	}
	return out
}
