package compiler

import (
	"context"
	"log/slog"
	"time"

	"meridian-hq/meridian/pkg/bundle"
	"meridian-hq/meridian/pkg/compiler/conflict"
	"meridian-hq/meridian/pkg/compiler/graph"
	"meridian-hq/meridian/pkg/compiler/priority"
	"meridian-hq/meridian/pkg/policy"
)

// Config controls a compile run.
type Config struct {
	// Conflict configures the pairwise conflict scan.
	Conflict *conflict.Config
}

// DefaultConfig returns the default compiler configuration.
func DefaultConfig() *Config {
	return &Config{
		Conflict: conflict.DefaultConfig(),
	}
}

// Compiler runs the compile pipeline.
type Compiler struct {
	config *Config
	logger *slog.Logger
}

// New creates a compiler.
func New(config *Config) *Compiler {
	if config == nil {
		config = DefaultConfig()
	}
	return &Compiler{
		config: config,
		logger: slog.Default().With("component", "compiler"),
	}
}

// Compile runs the full pipeline over a parsed rule set and returns the
// compiled bundle. The rule set is validated first; no stage runs against
// unvalidated input. Conflict detection failures (including solver
// timeouts) abort the compile: an unexamined pair is treated as a
// potential undetected conflict.
func (c *Compiler) Compile(ctx context.Context, rs *policy.RuleSet) (*bundle.Bundle, error) {
	start := time.Now()

	if err := rs.Validate(); err != nil {
		return nil, err
	}

	g, err := graph.Build(rs.Variables, rs.Rules)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("decision graph built",
		"nodes", len(g.DecisionNodes),
		"paths", len(g.Paths),
		"leaves", len(g.LeafActions),
	)

	detector := conflict.NewDetector(rs.Variables, c.config.Conflict)
	conflicts, err := detector.Detect(ctx, g)
	if err != nil {
		return nil, err
	}

	res := priority.Resolve(conflicts, rs.RulesByID())
	c.logger.Debug("conflicts resolved",
		"dominance_rules", len(res.DominanceRules),
		"escalations", len(res.Escalations),
	)

	b, err := bundle.New(rs, g, res, len(conflicts))
	if err != nil {
		return nil, err
	}

	c.logger.Info("compile complete",
		"rules", len(rs.Rules),
		"constraints", len(rs.Constraints),
		"paths", len(g.Paths),
		"conflicts", len(conflicts),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return b, nil
}

// CompileFile parses, validates, and compiles a rule-set file.
func (c *Compiler) CompileFile(ctx context.Context, path string) (*bundle.Bundle, error) {
	rs, err := policy.ParseRuleSetFile(path)
	if err != nil {
		return nil, err
	}
	return c.Compile(ctx, rs)
}
