// Package clients implements the HTTP clients for the external services
// the enforcement runtime depends on: the generation service, the
// semantic judge, the fallback query classifier, and the fact-extraction
// fallback. Every client pins deterministic parameters (temperature
// zero) and carries its own timeout; fallback behavior on failure is the
// caller's policy, not the client's.
package clients
