package config

import "time"

// Config is the root configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Bundle      BundleConfig      `yaml:"bundle"`
	Compiler    CompilerConfig    `yaml:"compiler"`
	Enforcement EnforcementConfig `yaml:"enforcement"`
	Clients     ClientsConfig     `yaml:"clients"`
	Audit       AuditConfig       `yaml:"audit"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ServerConfig configures the HTTP enforcement server.
type ServerConfig struct {
	// ListenAddress is the host:port to bind.
	ListenAddress string `yaml:"listen_address"`

	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// BundleConfig configures bundle loading.
type BundleConfig struct {
	// Path is the compiled bundle file.
	Path string `yaml:"path"`

	// Watch enables hot reload on bundle file changes.
	Watch bool `yaml:"watch"`
}

// CompilerConfig configures compile runs.
type CompilerConfig struct {
	// ConflictPairTimeout is the solver budget per path pair.
	ConflictPairTimeout time.Duration `yaml:"conflict_pair_timeout"`

	// ConflictWorkers is the number of concurrent pair checks.
	ConflictWorkers int `yaml:"conflict_workers"`
}

// EnforcementConfig configures the enforcement loop.
type EnforcementConfig struct {
	// Budget is the total enforcement latency budget per request.
	Budget time.Duration `yaml:"budget"`

	// MaxAutoCorrectRetries and MaxRegenerateRetries bound the retry
	// state machine.
	MaxAutoCorrectRetries int `yaml:"max_auto_correct_retries"`
	MaxRegenerateRetries  int `yaml:"max_regenerate_retries"`

	// FormalTimeout and SemanticTimeout bound individual checks.
	FormalTimeout   time.Duration `yaml:"formal_timeout"`
	SemanticTimeout time.Duration `yaml:"semantic_timeout"`

	// ClassifierTimeout bounds the fallback classification call.
	ClassifierTimeout time.Duration `yaml:"classifier_timeout"`
}

// ClientConfig configures one external service client.
type ClientConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// ClientsConfig configures the external services. Judge, classifier,
// and extractor are optional; their absence degrades the relevant
// pipeline stages.
type ClientsConfig struct {
	Generation ClientConfig `yaml:"generation"`
	Judge      ClientConfig `yaml:"judge"`
	Classifier ClientConfig `yaml:"classifier"`
	Extractor  ClientConfig `yaml:"extractor"`
}

// AuditConfig configures the audit chain.
type AuditConfig struct {
	// Backend is "jsonl" or "sqlite".
	Backend string `yaml:"backend"`

	// Path is the JSONL file or SQLite database path.
	Path string `yaml:"path"`

	// VerifySchedule is a cron expression for background chain
	// verification; empty disables it.
	VerifySchedule string `yaml:"verify_schedule"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
	Subsystem string `yaml:"subsystem"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is debug, info, warn, or error.
	Level string `yaml:"level"`

	// Format is "json" or "text".
	Format string `yaml:"format"`
}
