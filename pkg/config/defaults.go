package config

import "time"

// ApplyDefaults fills unset fields with default values.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = "127.0.0.1:8750"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 120 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Bundle.Path == "" {
		cfg.Bundle.Path = "data/bundle.json"
	}

	if cfg.Compiler.ConflictPairTimeout == 0 {
		cfg.Compiler.ConflictPairTimeout = 2 * time.Second
	}
	if cfg.Compiler.ConflictWorkers == 0 {
		cfg.Compiler.ConflictWorkers = 4
	}

	if cfg.Enforcement.Budget == 0 {
		cfg.Enforcement.Budget = 30 * time.Second
	}
	if cfg.Enforcement.MaxAutoCorrectRetries == 0 {
		cfg.Enforcement.MaxAutoCorrectRetries = 1
	}
	if cfg.Enforcement.MaxRegenerateRetries == 0 {
		cfg.Enforcement.MaxRegenerateRetries = 2
	}
	if cfg.Enforcement.FormalTimeout == 0 {
		cfg.Enforcement.FormalTimeout = 5 * time.Second
	}
	if cfg.Enforcement.SemanticTimeout == 0 {
		cfg.Enforcement.SemanticTimeout = 10 * time.Second
	}
	if cfg.Enforcement.ClassifierTimeout == 0 {
		cfg.Enforcement.ClassifierTimeout = 5 * time.Second
	}

	for _, c := range []*ClientConfig{
		&cfg.Clients.Generation,
		&cfg.Clients.Judge,
		&cfg.Clients.Classifier,
		&cfg.Clients.Extractor,
	} {
		if c.Timeout == 0 {
			c.Timeout = 30 * time.Second
		}
	}

	if cfg.Audit.Backend == "" {
		cfg.Audit.Backend = "jsonl"
	}
	if cfg.Audit.Path == "" {
		cfg.Audit.Path = "data/audit.jsonl"
	}

	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = "meridian"
	}
	if cfg.Metrics.Subsystem == "" {
		cfg.Metrics.Subsystem = "enforce"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}
