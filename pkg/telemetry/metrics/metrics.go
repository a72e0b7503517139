package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config contains metrics configuration.
type Config struct {
	// Enabled toggles collection.
	Enabled bool `yaml:"enabled"`

	// Namespace and Subsystem prefix every metric name.
	Namespace string `yaml:"namespace"`
	Subsystem string `yaml:"subsystem"`
}

// DefaultConfig returns the default metrics configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:   true,
		Namespace: "meridian",
		Subsystem: "enforce",
	}
}

// Metrics holds the enforcement runtime's Prometheus instruments. A nil
// *Metrics is valid and records nothing, so callers never need to guard
// observation sites.
type Metrics struct {
	config   *Config
	registry *prometheus.Registry

	decisionsTotal *prometheus.CounterVec
	scoreHist      prometheus.Histogram
	decisionDur    prometheus.Histogram

	checkDuration *prometheus.HistogramVec
	checkStatus   *prometheus.CounterVec

	retriesTotal *prometheus.CounterVec

	auditFailures prometheus.Counter
}

// New creates and registers the metrics. A nil registry gets a fresh one.
func New(cfg *Config, registry *prometheus.Registry) *Metrics {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		config:   cfg,
		registry: registry,

		decisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "decisions_total",
				Help:      "Total enforcement decisions by terminal action",
			},
			[]string{"action"},
		),

		scoreHist: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "compliance_score",
				Help:      "Distribution of weighted compliance scores",
				Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.70, 0.85, 0.95, 1.0},
			},
		),

		decisionDur: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "decision_duration_seconds",
				Help:      "Total enforcement pipeline duration including retries",
				Buckets:   []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
			},
		),

		checkDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "check_duration_seconds",
				Help:      "Duration of individual post-generation checks",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
			[]string{"check"},
		),

		checkStatus: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "check_results_total",
				Help:      "Check outcomes by status (ok, degraded, fatal)",
			},
			[]string{"check", "status"},
		),

		retriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "retries_total",
				Help:      "Retry generations by kind (auto_correct, regenerate)",
			},
			[]string{"kind"},
		),

		auditFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "audit_append_failures_total",
				Help:      "Audit entries that failed to append",
			},
		),
	}

	registry.MustRegister(
		m.decisionsTotal,
		m.scoreHist,
		m.decisionDur,
		m.checkDuration,
		m.checkStatus,
		m.retriesTotal,
		m.auditFailures,
	)
	return m
}

// ObserveDecision records a terminal decision.
func (m *Metrics) ObserveDecision(action string, score float64, d time.Duration) {
	if m == nil || !m.config.Enabled {
		return
	}
	m.decisionsTotal.WithLabelValues(action).Inc()
	m.scoreHist.Observe(score)
	m.decisionDur.Observe(d.Seconds())
}

// ObserveCheck records one post-generation check result.
func (m *Metrics) ObserveCheck(check, status string, d time.Duration) {
	if m == nil || !m.config.Enabled {
		return
	}
	m.checkDuration.WithLabelValues(check).Observe(d.Seconds())
	m.checkStatus.WithLabelValues(check, status).Inc()
}

// ObserveRetry records one retry generation.
func (m *Metrics) ObserveRetry(kind string) {
	if m == nil || !m.config.Enabled {
		return
	}
	m.retriesTotal.WithLabelValues(kind).Inc()
}

// ObserveAuditFailure records a failed audit append.
func (m *Metrics) ObserveAuditFailure() {
	if m == nil || !m.config.Enabled {
		return
	}
	m.auditFailures.Inc()
}

// Handler returns the Prometheus scrape handler for the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}
