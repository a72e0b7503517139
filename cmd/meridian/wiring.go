package main

import (
	"fmt"

	"meridian-hq/meridian/pkg/audit"
	"meridian-hq/meridian/pkg/bundle"
	"meridian-hq/meridian/pkg/clients"
	"meridian-hq/meridian/pkg/config"
	"meridian-hq/meridian/pkg/enforce"
	"meridian-hq/meridian/pkg/telemetry/metrics"
)

// buildAuditStorage opens the configured audit backend.
func buildAuditStorage(cfg *config.Config) (audit.Storage, error) {
	switch cfg.Audit.Backend {
	case "jsonl":
		return audit.NewJSONLStorage(cfg.Audit.Path)
	case "sqlite":
		sc := audit.DefaultSQLiteConfig()
		sc.Path = cfg.Audit.Path
		return audit.NewSQLiteStorage(sc)
	default:
		return nil, fmt.Errorf("unknown audit backend %q", cfg.Audit.Backend)
	}
}

func clientConfig(c config.ClientConfig) *clients.Config {
	cc := clients.DefaultConfig(c.BaseURL)
	cc.APIKey = c.APIKey
	if c.Timeout > 0 {
		cc.Timeout = c.Timeout
	}
	return cc
}

// buildEnforcer wires the full enforcement pipeline from configuration:
// bundle index, external clients, audit writer, and metrics. Judge,
// classifier, and extractor are attached only when their base URLs are
// configured; the pipeline degrades without them.
func buildEnforcer(cfg *config.Config, m *metrics.Metrics) (*enforce.Enforcer, *bundle.Index, *audit.Writer, error) {
	b, err := bundle.ReadFile(cfg.Bundle.Path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load bundle: %w", err)
	}
	idx, err := bundle.NewIndex(b)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to index bundle: %w", err)
	}

	storage, err := buildAuditStorage(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open audit storage: %w", err)
	}
	writer, err := audit.NewWriter(storage)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open audit chain: %w", err)
	}

	gen := clients.NewGenerationClient(clientConfig(cfg.Clients.Generation))

	ecfg := &enforce.Config{
		MaxAutoCorrectRetries: cfg.Enforcement.MaxAutoCorrectRetries,
		MaxRegenerateRetries:  cfg.Enforcement.MaxRegenerateRetries,
		Budget:                cfg.Enforcement.Budget,
		ClassifierTimeout:     cfg.Enforcement.ClassifierTimeout,
		Verifier: &enforce.VerifierConfig{
			FormalTimeout:   cfg.Enforcement.FormalTimeout,
			SemanticTimeout: cfg.Enforcement.SemanticTimeout,
		},
	}

	enforcer := enforce.NewEnforcer(idx, gen, writer, ecfg)
	if cfg.Clients.Judge.BaseURL != "" {
		enforcer = enforcer.WithJudge(clients.NewJudgeClient(clientConfig(cfg.Clients.Judge)))
	}
	if cfg.Clients.Classifier.BaseURL != "" {
		enforcer = enforcer.WithClassifier(clients.NewClassifierClient(clientConfig(cfg.Clients.Classifier)))
	}
	if cfg.Clients.Extractor.BaseURL != "" {
		enforcer = enforcer.WithExtractor(clients.NewExtractorClient(clientConfig(cfg.Clients.Extractor)))
	}
	if m != nil {
		enforcer = enforcer.WithMetrics(m)
	}

	return enforcer, idx, writer, nil
}
