// Package conflict detects logical conflicts between compiled policy
// paths: pairs of rules whose condition sets are jointly satisfiable while
// naming different terminal actions.
package conflict

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"meridian-hq/meridian/pkg/compiler/graph"
	"meridian-hq/meridian/pkg/compiler/solver"
	"meridian-hq/meridian/pkg/policy"
)

// Conflict is an unordered pair of rules that can fire simultaneously with
// differing actions, plus a satisfying witness. Conflicts are derived
// data: recomputed on every compile, never persisted independently.
type Conflict struct {
	// RuleA and RuleB are the conflicting rule ids, RuleA < RuleB.
	RuleA string `json:"rule_a"`
	RuleB string `json:"rule_b"`

	// Actions are the two differing terminal actions, in rule order.
	Actions [2]string `json:"actions"`

	// Witness is a concrete assignment satisfying both condition sets.
	Witness solver.Assignment `json:"witness"`
}

// Config controls conflict detection.
type Config struct {
	// PairTimeout is the solver budget per path pair.
	// Default: 2 seconds.
	PairTimeout time.Duration

	// Workers is the number of concurrent pair checks. Each check uses
	// its own solver context, so no solver state is shared.
	// Default: 4.
	Workers int
}

// DefaultConfig returns the default detection configuration.
func DefaultConfig() *Config {
	return &Config{
		PairTimeout: 2 * time.Second,
		Workers:     4,
	}
}

// Detector runs the pairwise conflict scan.
type Detector struct {
	schema policy.Schema
	config *Config
	logger *slog.Logger
}

// NewDetector creates a detector for the given variable schema.
func NewDetector(schema policy.Schema, config *Config) *Detector {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Workers < 1 {
		config.Workers = 1
	}
	return &Detector{
		schema: schema,
		config: config,
		logger: slog.Default().With("component", "compiler.conflict"),
	}
}

// pair is one unit of work in the scan.
type pair struct {
	a, b graph.CompiledPath
	idx  int
}

// Detect checks every unordered pair of compiled paths, iterated in
// rule-id-sorted order. Pairs with identical actions are never conflicts;
// pairs sharing no variable are skipped before invoking the solver. A
// solver timeout on any pair fails the whole run with DetectionTimeoutError:
// an undetected conflict is a correctness failure, not a degradable one.
//
// The result ordering is deterministic regardless of worker count.
func (d *Detector) Detect(ctx context.Context, g *graph.Graph) ([]Conflict, error) {
	paths := g.Paths // already sorted by rule id

	var work []pair
	idx := 0
	skipped := 0
	for i := 0; i < len(paths); i++ {
		for j := i + 1; j < len(paths); j++ {
			if paths[i].Action == paths[j].Action {
				continue
			}
			if !paths[i].SharesVariable(paths[j]) {
				skipped++
				continue
			}
			work = append(work, pair{a: paths[i], b: paths[j], idx: idx})
			idx++
		}
	}

	results := make([]*Conflict, idx)
	workCh := make(chan pair)
	errCh := make(chan error, d.config.Workers)

	scanCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for w := 0; w < d.config.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range workCh {
				c, err := d.checkPair(scanCtx, p.a, p.b)
				if err != nil {
					select {
					case errCh <- err:
					default:
					}
					cancel()
					return
				}
				results[p.idx] = c
			}
		}()
	}

	for _, p := range work {
		select {
		case <-scanCtx.Done():
		case workCh <- p:
		}
	}
	close(workCh)
	wg.Wait()

	select {
	case err := <-errCh:
		return nil, err
	default:
	}
	// The compile-level deadline, not a per-pair budget: leave Budget
	// unset so the message names the right limit.
	if err := ctx.Err(); err != nil {
		return nil, &DetectionTimeoutError{Cause: err}
	}

	var conflicts []Conflict
	for _, c := range results {
		if c != nil {
			conflicts = append(conflicts, *c)
		}
	}

	d.logger.Info("conflict scan complete",
		"paths", len(paths),
		"pairs_checked", len(work),
		"pairs_prefiltered", skipped,
		"conflicts", len(conflicts),
	)
	return conflicts, nil
}

// checkPair decides whether two paths can fire on the same assignment.
// Each invocation builds a fresh solver context, so pair checks are
// independent and safe to run in parallel.
func (d *Detector) checkPair(ctx context.Context, a, b graph.CompiledPath) (*Conflict, error) {
	pairCtx, cancel := context.WithTimeout(ctx, d.config.PairTimeout)
	defer cancel()

	sctx := solver.NewContext(d.schema)
	if err := sctx.AssertAll(a.Conditions()); err != nil {
		return nil, err
	}
	if err := sctx.AssertAll(b.Conditions()); err != nil {
		return nil, err
	}

	res, err := sctx.Check(pairCtx)
	if err != nil {
		var cancelled *solver.CheckCancelledError
		if errors.As(err, &cancelled) {
			return nil, &DetectionTimeoutError{RuleA: a.RuleID, RuleB: b.RuleID, Budget: d.config.PairTimeout, Cause: err}
		}
		return nil, err
	}
	if !res.Sat {
		return nil, nil
	}

	return &Conflict{
		RuleA:   a.RuleID,
		RuleB:   b.RuleID,
		Actions: [2]string{a.Action, b.Action},
		Witness: res.Witness,
	}, nil
}
