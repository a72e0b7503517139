// Package health aggregates per-component readiness checks behind a
// single HTTP probe endpoint.
package health
