// Package logging configures the process-wide structured logger and
// redacts PII from log output. Enforcement queries and generated
// responses routinely carry user text, so every string attribute is
// scrubbed before it reaches the handler.
package logging
