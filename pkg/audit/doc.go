// Package audit provides the tamper-evident decision log.
//
// Every terminal enforcement outcome, including each retry attempt,
// appends one entry. Entries form a hash chain: each entry's hash is the
// SHA-256 of the previous entry's hash concatenated with the entry's
// canonical (RFC 8785) JSON form. Replaying the chain and recomputing
// hashes detects any mutation, deletion, or reordering of stored entries.
//
// The chain has a single logical writer per process. The writer is an
// injected, explicitly owned object: opened at process start, closed at
// shutdown. Cross-process writers require external serialization.
package audit
