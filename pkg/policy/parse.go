package policy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// RuleSet is the compiler's input document: a variable schema plus the
// extracted rules and global constraints.
type RuleSet struct {
	Variables   Schema       `json:"variables"`
	Rules       []Rule       `json:"rules"`
	Constraints []Constraint `json:"constraints,omitempty"`
}

// ParseRuleSet decodes and validates a rule-set document. Unknown fields
// anywhere in the document fail the parse: the metadata schema is closed,
// and dropping fields silently would hide tier-relevant information.
func ParseRuleSet(r io.Reader) (*RuleSet, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var rs RuleSet
	if err := dec.Decode(&rs); err != nil {
		return nil, &UnknownFieldError{RuleID: "input", Cause: err}
	}

	if err := rs.Validate(); err != nil {
		return nil, err
	}
	return &rs, nil
}

// ParseRuleSetFile reads and parses a rule-set document from disk.
func ParseRuleSetFile(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule set %q: %w", path, err)
	}
	rs, err := ParseRuleSet(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse rule set %q: %w", path, err)
	}
	return rs, nil
}

// RulesByID builds a rule lookup map.
func (rs *RuleSet) RulesByID() map[string]Rule {
	m := make(map[string]Rule, len(rs.Rules))
	for _, r := range rs.Rules {
		m[r.ID] = r
	}
	return m
}

// Validate checks structural invariants of the rule set: unique ids,
// well-formed variables, supported operators, and non-empty actions.
// Type compatibility between conditions and variables is the encoder's
// responsibility, not the parser's.
func (rs *RuleSet) Validate() error {
	for name, v := range rs.Variables {
		if v.Name == "" {
			v.Name = name
			rs.Variables[name] = v
		}
		if v.Name != name {
			return &MalformedRuleError{RuleID: name, Reason: fmt.Sprintf("variable name %q does not match schema key", v.Name)}
		}
		if !v.Type.Valid() {
			return &MalformedRuleError{RuleID: name, Reason: fmt.Sprintf("unsupported variable type %q", v.Type)}
		}
		if v.Type == TypeEnum && len(v.Values) == 0 {
			return &MalformedRuleError{RuleID: name, Reason: "enum variable has no value set"}
		}
	}

	seen := make(map[string]bool, len(rs.Rules))
	for _, r := range rs.Rules {
		if r.ID == "" {
			return &MalformedRuleError{RuleID: "?", Reason: "missing rule id"}
		}
		if seen[r.ID] {
			return &DuplicateIDError{ID: r.ID}
		}
		seen[r.ID] = true

		if r.Action.Type == "" {
			return &MalformedRuleError{RuleID: r.ID, Reason: "missing terminal action"}
		}
		for _, c := range r.Conditions {
			if c.Var == "" {
				return &MalformedRuleError{RuleID: r.ID, Reason: "condition with empty variable name"}
			}
			if !c.Op.Valid() {
				return &MalformedRuleError{RuleID: r.ID, Reason: fmt.Sprintf("unsupported operator %q", c.Op)}
			}
		}
	}

	cseen := make(map[string]bool, len(rs.Constraints))
	for _, c := range rs.Constraints {
		if c.ID == "" {
			return &MalformedRuleError{RuleID: "?", Reason: "missing constraint id"}
		}
		if cseen[c.ID] || seen[c.ID] {
			return &DuplicateIDError{ID: c.ID}
		}
		cseen[c.ID] = true
		if c.Expression == "" {
			return &MalformedRuleError{RuleID: c.ID, Reason: "empty constraint expression"}
		}
		if c.Scope == "" {
			return &MalformedRuleError{RuleID: c.ID, Reason: "constraint has no scope"}
		}
	}

	return nil
}
