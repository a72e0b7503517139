package config

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

// Validate checks the configuration for inconsistencies. It is called
// after defaults and again after environment overrides.
func Validate(cfg *Config) error {
	if cfg.Server.ListenAddress == "" {
		return fmt.Errorf("server.listen_address must not be empty")
	}
	if cfg.Bundle.Path == "" {
		return fmt.Errorf("bundle.path must not be empty")
	}

	if cfg.Compiler.ConflictPairTimeout <= 0 {
		return fmt.Errorf("compiler.conflict_pair_timeout must be positive")
	}
	if cfg.Compiler.ConflictWorkers < 1 {
		return fmt.Errorf("compiler.conflict_workers must be at least 1")
	}

	if cfg.Enforcement.Budget <= 0 {
		return fmt.Errorf("enforcement.budget must be positive")
	}
	if cfg.Enforcement.MaxAutoCorrectRetries < 0 || cfg.Enforcement.MaxRegenerateRetries < 0 {
		return fmt.Errorf("enforcement retry limits must not be negative")
	}

	switch cfg.Audit.Backend {
	case "jsonl", "sqlite":
	default:
		return fmt.Errorf("audit.backend must be jsonl or sqlite, got %q", cfg.Audit.Backend)
	}
	if cfg.Audit.Path == "" {
		return fmt.Errorf("audit.path must not be empty")
	}
	if cfg.Audit.VerifySchedule != "" {
		if _, err := cron.ParseStandard(cfg.Audit.VerifySchedule); err != nil {
			return fmt.Errorf("audit.verify_schedule is not a valid cron expression: %w", err)
		}
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", cfg.Logging.Level)
	}
	switch cfg.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format must be json or text, got %q", cfg.Logging.Format)
	}

	return nil
}
