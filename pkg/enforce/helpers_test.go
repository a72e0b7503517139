package enforce

import (
	"context"
	"sync"
	"testing"

	"meridian-hq/meridian/pkg/audit"
	"meridian-hq/meridian/pkg/bundle"
	"meridian-hq/meridian/pkg/compiler"
	"meridian-hq/meridian/pkg/policy"
)

func refundRuleSet() *policy.RuleSet {
	return &policy.RuleSet{
		Variables: policy.Schema{
			"has_receipt":         {Name: "has_receipt", Type: policy.TypeBool},
			"days_since_purchase": {Name: "days_since_purchase", Type: policy.TypeInt},
			"customer_tier":       {Name: "customer_tier", Type: policy.TypeEnum, Values: []string{"standard", "gold"}},
		},
		Rules: []policy.Rule{
			{
				ID: "refund-001",
				Conditions: []policy.Condition{
					{Var: "has_receipt", Op: policy.OpEq, Value: true},
					{Var: "days_since_purchase", Op: policy.OpLe, Value: 7.0},
				},
				Action:   policy.Action{Type: "allow", Value: "full_refund"},
				Metadata: policy.Metadata{Domain: "refund", Priority: "company", Owner: "cs@example.com", Source: "refund_policy.md"},
			},
			{
				ID: "refund-002",
				Conditions: []policy.Condition{
					{Var: "days_since_purchase", Op: policy.OpLe, Value: 14.0},
				},
				Action:   policy.Action{Type: "allow", Value: "store_credit"},
				Metadata: policy.Metadata{Domain: "refund", Priority: "department", Owner: "returns@example.com", Source: "returns_faq.md"},
			},
		},
		Constraints: []policy.Constraint{
			{ID: "c-001", Expression: "NOT(share_pii)", Scope: "always", Metadata: policy.Metadata{Domain: "privacy"}},
			{ID: "c-002", Expression: "NOT(unauthorized_discount)", Scope: "refund", Metadata: policy.Metadata{Domain: "refund"}},
		},
	}
}

// testIndex compiles the refund rule set and indexes the bundle.
func testIndex(t *testing.T) *bundle.Index {
	t.Helper()
	b, err := compiler.New(nil).Compile(context.Background(), refundRuleSet())
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	idx, err := bundle.NewIndex(b)
	if err != nil {
		t.Fatalf("NewIndex() error = %v", err)
	}
	return idx
}

// memStorage is an in-memory audit backend for tests.
type memStorage struct {
	mu      sync.Mutex
	entries []*audit.Entry
}

func (s *memStorage) Append(ctx context.Context, e *audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *e
	s.entries = append(s.entries, &clone)
	return nil
}

func (s *memStorage) Replay(ctx context.Context, fn func(e *audit.Entry) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

func (s *memStorage) Close() error { return nil }

func (s *memStorage) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func testWriter(t *testing.T, storage *memStorage) *audit.Writer {
	t.Helper()
	w, err := audit.NewWriter(storage)
	if err != nil {
		t.Fatalf("audit.NewWriter() error = %v", err)
	}
	return w
}

// fakeGenerator returns canned responses in order, repeating the last.
type fakeGenerator struct {
	mu        sync.Mutex
	responses []string
	err       error
	calls     int
	requests  []*GenerationRequest
}

func (g *fakeGenerator) Generate(ctx context.Context, req *GenerationRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	if g.err != nil {
		return "", g.err
	}
	i := g.calls
	g.calls++
	if i >= len(g.responses) {
		i = len(g.responses) - 1
	}
	return g.responses[i], nil
}

// fakeJudge returns canned scores in order, repeating the last.
type fakeJudge struct {
	mu     sync.Mutex
	scores []float64
	err    error
	calls  int
}

func (j *fakeJudge) Evaluate(ctx context.Context, req *JudgeRequest) (*JudgeVerdict, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.err != nil {
		return nil, j.err
	}
	i := j.calls
	j.calls++
	if i >= len(j.scores) {
		i = len(j.scores) - 1
	}
	return &JudgeVerdict{Score: j.scores[i]}, nil
}

// fakeClassifier returns a fixed classification or error.
type fakeClassifier struct {
	result *Classification
	err    error
}

func (c *fakeClassifier) Classify(ctx context.Context, query string, domains []string) (*Classification, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.result, nil
}

// compliantResponse satisfies refund-001: receipt confirmed, within the
// seven-day window, decision nodes named in readable form.
const compliantResponse = "The customer has receipt confirmed and days since purchase is 5, " +
	"so the action is full refund per refund-001."
