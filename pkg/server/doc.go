// Package server provides the HTTP enforcement server: a thin surface
// over the enforcer exposing POST /v1/enforce, a health endpoint, and
// the Prometheus scrape endpoint, with graceful shutdown and optional
// bundle hot reload.
package server
