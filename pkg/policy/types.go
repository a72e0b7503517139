package policy

import (
	"fmt"
	"time"
)

// VariableType is the type of a policy variable.
type VariableType string

const (
	// TypeBool is a boolean variable.
	TypeBool VariableType = "bool"

	// TypeInt is an integer variable.
	TypeInt VariableType = "int"

	// TypeFloat is a real-valued variable.
	TypeFloat VariableType = "float"

	// TypeEnum is a variable over a finite set of symbolic values.
	TypeEnum VariableType = "enum"
)

// Valid reports whether t is one of the supported variable types.
func (t VariableType) Valid() bool {
	switch t {
	case TypeBool, TypeInt, TypeFloat, TypeEnum:
		return true
	}
	return false
}

// Numeric reports whether t is int or float.
func (t VariableType) Numeric() bool {
	return t == TypeInt || t == TypeFloat
}

// Variable is a typed decision variable. Variables are immutable once part
// of a compiled bundle; new variables only appear on recompile.
type Variable struct {
	// Name is the unique variable name.
	Name string `json:"name"`

	// Type is the variable type.
	Type VariableType `json:"type"`

	// Description is a human-readable description, used by the coverage
	// check to match the variable's readable form in responses.
	Description string `json:"description,omitempty"`

	// Values is the enum value set (enum type only).
	Values []string `json:"values,omitempty"`
}

// Schema maps variable names to their definitions.
type Schema map[string]Variable

// Operator is a comparison operator in a condition.
type Operator string

const (
	OpEq Operator = "=="
	OpNe Operator = "!="
	OpLt Operator = "<"
	OpLe Operator = "<="
	OpGt Operator = ">"
	OpGe Operator = ">="
)

// Valid reports whether op is a supported operator.
func (op Operator) Valid() bool {
	switch op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return true
	}
	return false
}

// Ordering reports whether op is an ordering operator (<, <=, >, >=).
// Ordering operators are only valid on numeric variables.
func (op Operator) Ordering() bool {
	switch op {
	case OpLt, OpLe, OpGt, OpGe:
		return true
	}
	return false
}

// Condition is a pure predicate over a single variable. The literal value
// is one of bool, float64, int64, or string depending on the variable type
// (JSON numbers decode as float64).
type Condition struct {
	Var   string      `json:"var"`
	Op    Operator    `json:"op"`
	Value interface{} `json:"value"`
}

// String renders the condition in "var op value" form.
func (c Condition) String() string {
	return fmt.Sprintf("%s %s %v", c.Var, c.Op, c.Value)
}

// Action is a rule's terminal action.
type Action struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Normalized renders the action in canonical "type:value" form. This form
// is what conflict detection compares and what scaffolds cite.
func (a Action) Normalized() string {
	return a.Type + ":" + a.Value
}

// Metadata is the closed, typed metadata attached to a rule or constraint.
// Unknown fields are rejected at ingestion.
type Metadata struct {
	// Domain is the business domain (e.g. "refund", "privacy").
	Domain string `json:"domain"`

	// Priority is the declared priority label. It feeds tier derivation
	// but never overrides regulatory linkage or core-value domains.
	Priority string `json:"priority,omitempty"`

	// Owner identifies the owning party, notified on escalation.
	Owner string `json:"owner,omitempty"`

	// Source cites the originating policy document.
	Source string `json:"source,omitempty"`

	// EffectiveDate is the ISO date from which the rule is active.
	// Rules with a future effective date stay in the bundle but are
	// never retrieved at runtime.
	EffectiveDate string `json:"effective_date,omitempty"`

	// Expires is an optional ISO expiry date. An expiry alone does not
	// lower a rule's tier; the declared priority label still applies.
	Expires string `json:"expires,omitempty"`

	// RegulatoryLinkage lists regulations the rule implements.
	RegulatoryLinkage []string `json:"regulatory_linkage,omitempty"`
}

// EffectiveAt reports whether the metadata's effective date is unset or at
// or before the given time. Malformed dates count as effective.
func (m Metadata) EffectiveAt(now time.Time) bool {
	if m.EffectiveDate == "" {
		return true
	}
	eff, err := time.Parse("2006-01-02", m.EffectiveDate)
	if err != nil {
		return true
	}
	return !eff.After(now)
}

// Rule is one extracted policy: a conjunction of conditions leading to a
// single terminal action.
type Rule struct {
	// ID is globally unique and stable across recompiles of the same
	// source.
	ID string `json:"id"`

	// Conditions is the ordered conjunctive condition list.
	Conditions []Condition `json:"conditions"`

	// Action is the terminal action.
	Action Action `json:"action"`

	// Metadata carries domain, priority, ownership, and dates.
	Metadata Metadata `json:"metadata"`
}

// ConstraintScopeAlways marks a constraint that applies to every request.
const ConstraintScopeAlways = "always"

// Constraint is a global invariant not tied to one rule. Constraints are
// never subject to priority resolution; violating one always escalates.
type Constraint struct {
	// ID is the unique constraint id.
	ID string `json:"id"`

	// Expression is the invariant, typically in "NOT(action)" form.
	Expression string `json:"expression"`

	// Scope is "always" or a specific domain.
	Scope string `json:"scope"`

	// Metadata carries provenance.
	Metadata Metadata `json:"metadata"`
}

// Forbidden returns the inner action of a "NOT(x)" expression and true,
// or ("", false) when the expression has another shape.
func (c Constraint) Forbidden() (string, bool) {
	const prefix, suffix = "NOT(", ")"
	e := c.Expression
	if len(e) > len(prefix)+len(suffix) && e[:len(prefix)] == prefix && e[len(e)-1:] == suffix {
		return e[len(prefix) : len(e)-1], true
	}
	return "", false
}
