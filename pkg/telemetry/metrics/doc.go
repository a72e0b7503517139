// Package metrics exposes Prometheus metrics for the enforcement
// runtime: decisions by action, compliance score distribution, per-check
// durations and degradations, retries, and audit chain health.
package metrics
