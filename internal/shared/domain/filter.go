package domain

import (
	"fmt"
	"reflect"
	"strings"
)

// ---------------- Operators ----------------

// Operator is the neutral comparison operator of a compiled condition.
type Operator string

const (
	OpEq        Operator = "="
	OpNeq       Operator = "!="
	OpGt        Operator = ">"
	OpGte       Operator = ">="
	OpLt        Operator = "<"
	OpLte       Operator = "<="
	OpIn        Operator = "IN"
	OpNotIn     Operator = "NOT IN"
	OpIsNull    Operator = "IS NULL"
	OpIsNotNull Operator = "IS NOT NULL"
	OpLike      Operator = "LIKE"
	OpILike     Operator = "ILIKE"
	OpIsNot     Operator = "IS NOT"
)

type LogicalOperator string

const (
	OpAnd LogicalOperator = "AND"
	OpOr  LogicalOperator = "OR"
)

// ---------------- Filters ----------------

// Filter is one key/value pair of the filter map. Keys follow the
// operator-suffix micro-DSL:
//
//	name                  equality
//	created_at__gte       explicit operator
//	pickups___liters__gt  join-qualified (relation___field__operator)
type Filter struct {
	Key   string
	Value any
}

// Filters is an ordered sequence of filter pairs. Order is preserved all
// the way into the compiled predicate.
type Filters []Filter

// F builds a single filter pair.
func F(key string, value any) Filter { return Filter{Key: key, Value: value} }

// ---------------- Condition ----------------

// Condition is a parsed, store-neutral predicate on one field.
// Relation is empty for conditions on the base entity.
type Condition struct {
	Relation string
	Field    string
	Op       Operator
	Value    any
}

const (
	operatorSeparator = "__"
	relationSeparator = "___"
)

// ParseCondition turns a raw filter key/value into a Condition.
// The key is split at the first "__"; no separator means equality.
// Keys containing "___" are join-qualified: the relation name is split
// off first and the remainder is parsed against the related entity.
func ParseCondition(key string, value any) (Condition, error) {
	if strings.Contains(key, relationSeparator) {
		parts := strings.SplitN(key, relationSeparator, 2)
		cond, err := ParseCondition(parts[1], value)
		if err != nil {
			return Condition{}, err
		}
		cond.Relation = parts[0]
		return cond, nil
	}

	field := key
	opName := ""
	if idx := strings.Index(key, operatorSeparator); idx >= 0 {
		field = key[:idx]
		opName = key[idx+len(operatorSeparator):]
	}
	if opName == "" {
		return Condition{Field: field, Op: OpEq, Value: value}, nil
	}

	switch opName {
	case "neq":
		return Condition{Field: field, Op: OpNeq, Value: value}, nil
	case "gt":
		return Condition{Field: field, Op: OpGt, Value: value}, nil
	case "gte":
		return Condition{Field: field, Op: OpGte, Value: value}, nil
	case "lt":
		return Condition{Field: field, Op: OpLt, Value: value}, nil
	case "lte":
		return Condition{Field: field, Op: OpLte, Value: value}, nil
	case "in", "not_in":
		values, ok := toSlice(value)
		if !ok {
			return Condition{}, fmt.Errorf("%w: %q requires a sequence value", ErrInvalidFilterOperator, opName)
		}
		op := OpIn
		if opName == "not_in" {
			op = OpNotIn
		}
		return Condition{Field: field, Op: op, Value: values}, nil
	case "isnull":
		if value == true {
			return Condition{Field: field, Op: OpIsNull}, nil
		}
		return Condition{Field: field, Op: OpIsNotNull}, nil
	case "isempty":
		if value == true {
			return Condition{Field: field, Op: OpEq, Value: ""}, nil
		}
		return Condition{Field: field, Op: OpNeq, Value: ""}, nil
	case "like", "ilike":
		s, ok := value.(string)
		if !ok {
			return Condition{}, fmt.Errorf("%w: %q requires a string value", ErrInvalidFilterOperator, opName)
		}
		op := OpLike
		if opName == "ilike" {
			op = OpILike
		}
		return Condition{Field: field, Op: op, Value: wrapWildcard(s)}, nil
	case "not":
		return Condition{Field: field, Op: OpIsNot, Value: value}, nil
	default:
		return Condition{}, fmt.Errorf("%w: %q", ErrInvalidFilterOperator, opName)
	}
}

// wrapWildcard adds % on both ends unless the caller already supplied a
// wildcard, so re-wrapping an already-wrapped value is a no-op.
func wrapWildcard(value string) string {
	if strings.Contains(value, "%") {
		return value
	}
	return "%" + value + "%"
}

func toSlice(value any) ([]any, bool) {
	if vs, ok := value.([]any); ok {
		return vs, true
	}
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || rv.Kind() != reflect.Slice {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
