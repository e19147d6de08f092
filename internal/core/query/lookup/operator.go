package lookup

import (
	"fmt"

	"github.com/satishbabariya/queryset/internal/core/meta"
)

// Operator is a comparison applied to the terminal column of a lookup.
type Operator string

const (
	// Exact compares for equality; a nil value matches NULL.
	Exact Operator = "exact"
	// Contains matches a substring with LIKE.
	Contains Operator = "contains"
	// Gt compares with >.
	Gt Operator = "gt"
	// Lt compares with <.
	Lt Operator = "lt"
	// IsNull tests for NULL, or NOT NULL when the value is false.
	IsNull Operator = "isnull"
)

var operators = map[string]Operator{
	string(Exact):    Exact,
	string(Contains): Contains,
	string(Gt):       Gt,
	string(Lt):       Lt,
	string(IsNull):   IsNull,
}

// Operators returns the operator vocabulary in declaration order.
func Operators() []Operator {
	return []Operator{Exact, Contains, Gt, Lt, IsNull}
}

// ParseOperator reports whether s names an operator.
func ParseOperator(s string) (Operator, bool) {
	op, ok := operators[s]
	return op, ok
}

// Predicate renders the condition op applies to column, together with the
// parameters it binds.
func Predicate(op Operator, column string, value any) (string, []any, error) {
	switch op {
	case Exact:
		if value == nil {
			return column + " IS NULL", nil, nil
		}
		return column + " = ?", []any{value}, nil
	case Contains:
		return column + " LIKE ?", []any{fmt.Sprintf("%%%v%%", value)}, nil
	case Gt:
		return column + " > ?", []any{value}, nil
	case Lt:
		return column + " < ?", []any{value}, nil
	case IsNull:
		if b, ok := value.(bool); ok && !b {
			return column + " IS NOT NULL", nil, nil
		}
		return column + " IS NULL", nil, nil
	default:
		return "", nil, fmt.Errorf("%w: unknown operator %q", meta.ErrConfiguration, op)
	}
}
