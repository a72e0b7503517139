// Package bundle defines the compiled policy bundle: the single immutable
// artifact the compiler emits and the sole contract boundary to the
// enforcement runtime.
//
// A bundle is compiled once offline and consumed read-only by any number
// of runtime instances; recompilation produces a new bundle, never an
// in-place mutation. The package covers aggregation and integrity
// validation (compile side), the versioned JSON wire format with schema
// checking (both sides), load-time indexing into O(1) lookup tables, and
// a file watcher for hot reload in serving processes.
package bundle
