// Package enforce is the request-time enforcement runtime.
//
// Each request flows through a fixed pipeline: query classification,
// domain-indexed rule retrieval with dominance filtering, deterministic
// scaffold construction, external generation, and four concurrent
// post-generation checks whose weighted scores drive a bounded
// retry/escalation state machine. Every terminal outcome, including each
// retry attempt, is appended to the audit chain.
//
// The loaded bundle index is shared, read-only, and immutable; requests
// never mutate it. The only shared mutable state is the audit writer,
// which serializes its own appends.
package enforce
