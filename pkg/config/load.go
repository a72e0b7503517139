package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a YAML file, applies defaults and
// MERIDIAN_* environment overrides, and validates the result. An empty
// path yields the default configuration (env overrides still apply).
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	}

	ApplyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// applyEnvOverrides applies MERIDIAN_SECTION_FIELD environment variable
// overrides. Environment values always win over file values.
func applyEnvOverrides(cfg *Config) {
	setString(&cfg.Server.ListenAddress, "MERIDIAN_SERVER_LISTEN_ADDRESS")
	setDuration(&cfg.Server.ReadTimeout, "MERIDIAN_SERVER_READ_TIMEOUT")
	setDuration(&cfg.Server.WriteTimeout, "MERIDIAN_SERVER_WRITE_TIMEOUT")
	setDuration(&cfg.Server.ShutdownTimeout, "MERIDIAN_SERVER_SHUTDOWN_TIMEOUT")

	setString(&cfg.Bundle.Path, "MERIDIAN_BUNDLE_PATH")
	setBool(&cfg.Bundle.Watch, "MERIDIAN_BUNDLE_WATCH")

	setDuration(&cfg.Compiler.ConflictPairTimeout, "MERIDIAN_COMPILER_CONFLICT_PAIR_TIMEOUT")
	setInt(&cfg.Compiler.ConflictWorkers, "MERIDIAN_COMPILER_CONFLICT_WORKERS")

	setDuration(&cfg.Enforcement.Budget, "MERIDIAN_ENFORCEMENT_BUDGET")
	setInt(&cfg.Enforcement.MaxAutoCorrectRetries, "MERIDIAN_ENFORCEMENT_MAX_AUTO_CORRECT_RETRIES")
	setInt(&cfg.Enforcement.MaxRegenerateRetries, "MERIDIAN_ENFORCEMENT_MAX_REGENERATE_RETRIES")
	setDuration(&cfg.Enforcement.FormalTimeout, "MERIDIAN_ENFORCEMENT_FORMAL_TIMEOUT")
	setDuration(&cfg.Enforcement.SemanticTimeout, "MERIDIAN_ENFORCEMENT_SEMANTIC_TIMEOUT")
	setDuration(&cfg.Enforcement.ClassifierTimeout, "MERIDIAN_ENFORCEMENT_CLASSIFIER_TIMEOUT")

	applyClientEnvOverrides(&cfg.Clients.Generation, "GENERATION")
	applyClientEnvOverrides(&cfg.Clients.Judge, "JUDGE")
	applyClientEnvOverrides(&cfg.Clients.Classifier, "CLASSIFIER")
	applyClientEnvOverrides(&cfg.Clients.Extractor, "EXTRACTOR")

	setString(&cfg.Audit.Backend, "MERIDIAN_AUDIT_BACKEND")
	setString(&cfg.Audit.Path, "MERIDIAN_AUDIT_PATH")
	setString(&cfg.Audit.VerifySchedule, "MERIDIAN_AUDIT_VERIFY_SCHEDULE")

	setBool(&cfg.Metrics.Enabled, "MERIDIAN_METRICS_ENABLED")

	setString(&cfg.Logging.Level, "MERIDIAN_LOGGING_LEVEL")
	setString(&cfg.Logging.Format, "MERIDIAN_LOGGING_FORMAT")
}

func applyClientEnvOverrides(c *ClientConfig, name string) {
	setString(&c.BaseURL, "MERIDIAN_CLIENTS_"+name+"_BASE_URL")
	setString(&c.APIKey, "MERIDIAN_CLIENTS_"+name+"_API_KEY")
	setDuration(&c.Timeout, "MERIDIAN_CLIENTS_"+name+"_TIMEOUT")
}

func setString(dst *string, key string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func setInt(dst *int, key string) {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func setBool(dst *bool, key string) {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}
