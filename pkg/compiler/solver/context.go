package solver

import (
	"context"
	"fmt"
	"sort"

	"meridian-hq/meridian/pkg/policy"
)

// Term is the solver-native representation of one schema variable.
// Exactly one term exists per variable per Context.
type Term struct {
	Name string
	Type policy.VariableType

	boolDom *boolDomain
	enumDom *enumDomain
	numDom  *numDomain
}

// Assignment is a concrete variable assignment. Values are bool, int64,
// float64, or string depending on variable type.
type Assignment map[string]interface{}

// Result is the outcome of a satisfiability check.
type Result struct {
	// Sat reports whether all assertions are jointly satisfiable.
	Sat bool

	// Witness is a satisfying assignment covering every asserted
	// variable. Nil when Sat is false.
	Witness Assignment
}

// Context holds the solver terms for one satisfiability problem.
// Assertions accumulate; Check evaluates the conjunction of everything
// asserted so far.
type Context struct {
	schema   policy.Schema
	terms    map[string]*Term
	asserted map[string]bool
	names    []string
}

// NewContext creates a fresh context with one term per schema variable.
func NewContext(schema policy.Schema) *Context {
	c := &Context{
		schema:   schema,
		terms:    make(map[string]*Term, len(schema)),
		asserted: make(map[string]bool, len(schema)),
		names:    make([]string, 0, len(schema)),
	}
	for name, v := range schema {
		t := &Term{Name: name, Type: v.Type}
		switch v.Type {
		case policy.TypeBool:
			t.boolDom = newBoolDomain()
		case policy.TypeEnum:
			t.enumDom = newEnumDomain(v.Values)
		case policy.TypeInt:
			t.numDom = newNumDomain(true)
		case policy.TypeFloat:
			t.numDom = newNumDomain(false)
		}
		c.terms[name] = t
		c.names = append(c.names, name)
	}
	sort.Strings(c.names)
	return c
}

// Term returns the term for the named variable.
func (c *Context) Term(name string) (*Term, bool) {
	t, ok := c.terms[name]
	return t, ok
}

// Assert encodes a condition and adds it to the context. The encoding is
// purely structural: bool equality maps to the term itself, enum equality
// to a symbolic value test, and numeric comparisons to interval bounds.
func (c *Context) Assert(cond policy.Condition) error {
	t, ok := c.terms[cond.Var]
	if !ok {
		return &EncodingError{Var: cond.Var, Op: string(cond.Op), Reason: "variable not in schema"}
	}
	if !cond.Op.Valid() {
		return &EncodingError{Var: cond.Var, Op: string(cond.Op), Reason: "unsupported operator"}
	}

	switch t.Type {
	case policy.TypeBool:
		if cond.Op.Ordering() {
			return &EncodingError{Var: cond.Var, Op: string(cond.Op), Reason: "ordering operator on bool variable"}
		}
		b, ok := cond.Value.(bool)
		if !ok {
			return &EncodingError{Var: cond.Var, Op: string(cond.Op), Reason: fmt.Sprintf("bool variable compared to %T literal", cond.Value)}
		}
		if cond.Op == policy.OpEq {
			t.boolDom.assertEq(b)
		} else {
			t.boolDom.assertNe(b)
		}

	case policy.TypeEnum:
		if cond.Op.Ordering() {
			return &EncodingError{Var: cond.Var, Op: string(cond.Op), Reason: "ordering operator on enum variable"}
		}
		s, ok := cond.Value.(string)
		if !ok {
			return &EncodingError{Var: cond.Var, Op: string(cond.Op), Reason: fmt.Sprintf("enum variable compared to %T literal", cond.Value)}
		}
		if cond.Op == policy.OpEq {
			t.enumDom.assertEq(s)
		} else {
			t.enumDom.assertNe(s)
		}

	case policy.TypeInt, policy.TypeFloat:
		f, ok := numericLiteral(cond.Value)
		if !ok {
			return &EncodingError{Var: cond.Var, Op: string(cond.Op), Reason: fmt.Sprintf("numeric variable compared to %T literal", cond.Value)}
		}
		switch cond.Op {
		case policy.OpEq:
			t.numDom.assertEq(f)
		case policy.OpNe:
			t.numDom.assertNe(f)
		case policy.OpLt:
			t.numDom.assertLt(f)
		case policy.OpLe:
			t.numDom.assertLe(f)
		case policy.OpGt:
			t.numDom.assertGt(f)
		case policy.OpGe:
			t.numDom.assertGe(f)
		}
	}

	c.asserted[cond.Var] = true
	return nil
}

// AssertAll asserts every condition in order, stopping at the first
// encoding failure.
func (c *Context) AssertAll(conds []policy.Condition) error {
	for _, cond := range conds {
		if err := c.Assert(cond); err != nil {
			return err
		}
	}
	return nil
}

// AssertFact asserts variable == value. Used by the formal verifier to
// pin extracted response facts before checking rule conditions.
func (c *Context) AssertFact(name string, value interface{}) error {
	return c.Assert(policy.Condition{Var: name, Op: policy.OpEq, Value: value})
}

// Check decides joint satisfiability of all assertions. The witness
// covers every asserted variable, with values typed per the schema, and
// is identical across runs for identical assertion sets. Check observes
// the context deadline between variables.
func (c *Context) Check(ctx context.Context) (*Result, error) {
	witness := make(Assignment, len(c.asserted))

	for _, name := range c.names {
		if err := ctx.Err(); err != nil {
			return nil, &CheckCancelledError{Cause: err}
		}
		if !c.asserted[name] {
			continue
		}

		t := c.terms[name]
		switch t.Type {
		case policy.TypeBool:
			v, ok := t.boolDom.witness()
			if !ok {
				return &Result{Sat: false}, nil
			}
			witness[name] = v
		case policy.TypeEnum:
			v, ok := t.enumDom.witness()
			if !ok {
				return &Result{Sat: false}, nil
			}
			witness[name] = v
		case policy.TypeInt:
			v, ok := t.numDom.witness()
			if !ok {
				return &Result{Sat: false}, nil
			}
			witness[name] = int64(v)
		case policy.TypeFloat:
			v, ok := t.numDom.witness()
			if !ok {
				return &Result{Sat: false}, nil
			}
			witness[name] = v
		}
	}

	return &Result{Sat: true, Witness: witness}, nil
}

// numericLiteral converts a JSON-decoded literal to float64.
func numericLiteral(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	}
	return 0, false
}
