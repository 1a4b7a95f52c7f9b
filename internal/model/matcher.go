package model

import (
	"fmt"
	"regexp"
)

// Op is a matcher comparison operator
type Op string

const (
	OpEq Op = "="
	OpNe Op = "!="
	OpGt Op = ">"
	OpLt Op = "<"
	OpGe Op = ">="
	OpLe Op = "<="
	OpIn Op = "in"
)

// Operators in parse order: longer tokens first so ">=" is not read as ">"
var Operators = []Op{OpGe, OpLe, OpNe, OpEq, OpGt, OpLt, OpIn}

// Expr reads a value off the candidate fact or off an already bound fact
type Expr interface {
	Eval(candidate Fact, bound []Fact) (any, bool)
	String() string
}

// FactField reads a field of the candidate fact
type FactField struct {
	Field string
}

func (e FactField) Eval(candidate Fact, _ []Fact) (any, bool) {
	return candidate.Field(e.Field)
}

func (e FactField) String() string {
	return "fact." + e.Field
}

// RefField reads a field of a fact bound by an earlier rule (0-based)
type RefField struct {
	Index int
	Field string
}

func (e RefField) Eval(_ Fact, bound []Fact) (any, bool) {
	if e.Index < 0 || e.Index >= len(bound) {
		return nil, false
	}
	return bound[e.Index].Field(e.Field)
}

func (e RefField) String() string {
	return fmt.Sprintf("all[%d].%s", e.Index, e.Field)
}

// ValueSet is the right-hand side of an "in" matcher
type ValueSet []any

// Matcher is one predicate of a template rule
type Matcher struct {
	LHS   Expr
	Op    Op
	Value any  // literal right-hand side (string, float64, bool or ValueSet)
	RHS   Expr // set instead of Value when the right-hand side reads a fact

	pattern *regexp.Regexp
}

// NewMatcher builds a matcher against a literal value. A string value used
// with "=" is a regular expression that must match the whole field.
func NewMatcher(lhs Expr, op Op, value any) (Matcher, error) {
	if !validOp(op) {
		return Matcher{}, fmt.Errorf("invalid matcher operator %q", op)
	}
	m := Matcher{LHS: lhs, Op: op, Value: value}
	if s, ok := value.(string); ok && op == OpEq {
		re, err := regexp.Compile("^(?:" + s + ")$")
		if err != nil {
			return Matcher{}, fmt.Errorf("compile pattern %q: %w", s, err)
		}
		m.pattern = re
	}
	if op == OpIn {
		if _, ok := value.(ValueSet); !ok {
			m.Value = ValueSet{value}
		}
	}
	return m, nil
}

// NewExprMatcher builds a matcher whose right-hand side is another expression.
// Values read this way are compared exactly.
func NewExprMatcher(lhs Expr, op Op, rhs Expr) (Matcher, error) {
	if !validOp(op) || op == OpIn {
		return Matcher{}, fmt.Errorf("invalid matcher operator %q for expression value", op)
	}
	return Matcher{LHS: lhs, Op: op, RHS: rhs}, nil
}

// MustMatcher is NewMatcher that panics on error
func MustMatcher(lhs Expr, op Op, value any) Matcher {
	m, err := NewMatcher(lhs, op, value)
	if err != nil {
		panic(err)
	}
	return m
}

// Match evaluates the predicate against candidate
func (m Matcher) Match(candidate Fact, bound []Fact) bool {
	left, ok := m.LHS.Eval(candidate, bound)
	if !ok {
		return false
	}

	right := m.Value
	if m.RHS != nil {
		right, ok = m.RHS.Eval(candidate, bound)
		if !ok {
			return false
		}
	}

	switch m.Op {
	case OpEq:
		if m.pattern != nil {
			return m.pattern.MatchString(FormatValue(left))
		}
		return valuesEqual(left, right)
	case OpNe:
		return !valuesEqual(left, right)
	case OpGt:
		c, ok := compareValues(left, right)
		return ok && c > 0
	case OpLt:
		c, ok := compareValues(left, right)
		return ok && c < 0
	case OpGe:
		c, ok := compareValues(left, right)
		return ok && c >= 0
	case OpLe:
		c, ok := compareValues(left, right)
		return ok && c <= 0
	case OpIn:
		set, _ := right.(ValueSet)
		for _, v := range set {
			if valuesEqual(left, v) {
				return true
			}
		}
		return false
	}
	return false
}

func (m Matcher) String() string {
	if m.RHS != nil {
		return fmt.Sprintf("%s %s %s", m.LHS, m.Op, m.RHS)
	}
	return fmt.Sprintf("%s %s %v", m.LHS, m.Op, m.Value)
}

func validOp(op Op) bool {
	for _, o := range Operators {
		if o == op {
			return true
		}
	}
	return false
}

func toNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func valuesEqual(a, b any) bool {
	if x, ok := toNumber(a); ok {
		if y, ok := toNumber(b); ok {
			return x == y
		}
	}
	sa, aIsString := a.(string)
	sb, bIsString := b.(string)
	if aIsString && bIsString {
		return sa == sb
	}
	return FormatValue(a) == FormatValue(b)
}

// compareValues orders numbers numerically and strings lexically
func compareValues(a, b any) (int, bool) {
	if x, ok := toNumber(a); ok {
		if y, ok := toNumber(b); ok {
			switch {
			case x < y:
				return -1, true
			case x > y:
				return 1, true
			}
			return 0, true
		}
		return 0, false
	}
	sa, aIsString := a.(string)
	sb, bIsString := b.(string)
	if !aIsString || !bIsString {
		return 0, false
	}
	switch {
	case sa < sb:
		return -1, true
	case sa > sb:
		return 1, true
	}
	return 0, true
}
