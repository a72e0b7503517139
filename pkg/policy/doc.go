// Package policy defines the core policy data model shared by the compiler
// and the enforcement runtime: typed variables, atomic conditions,
// conditional rules with closed metadata, and global constraints.
//
// The model is the input contract of the compiler. Rule ids are globally
// unique and stable across recompiles of the same source; duplicate ids and
// unknown metadata fields are rejected at ingestion rather than silently
// merged or dropped.
package policy
