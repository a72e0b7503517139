// Package solver provides constraint encoding and satisfiability checking
// for policy conditions.
//
// A Context holds one solver term per schema variable, created once and
// reused for every assertion against that variable. Conditions are encoded
// structurally: a boolean equality maps onto the term itself, an enum
// equality onto a symbolic value test, and numeric comparisons onto
// interval bounds. Because policy conditions are conjunctions of atomic
// comparisons over independent typed variables, joint satisfiability
// reduces to per-variable domain propagation, which this package decides
// completely and deterministically, returning a concrete witness
// assignment on SAT.
//
// Contexts are single-use and not safe for concurrent use; callers that
// check many condition sets in parallel create one Context per check.
package solver
