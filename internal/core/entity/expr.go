package entity

import "strings"

// SQLFunc is a SQL function call used as an attribute value. It is rendered
// inline on write, with its arguments bound as parameters.
type SQLFunc struct {
	Name string
	Args []any
}

// Func builds a SQL function value, e.g. Func("NOW").
func Func(name string, args ...any) SQLFunc {
	return SQLFunc{Name: name, Args: args}
}

// SQL implements domain.Expression.
func (f SQLFunc) SQL() (string, []any) {
	marks := make([]string, len(f.Args))
	for i := range marks {
		marks[i] = "?"
	}
	return f.Name + "(" + strings.Join(marks, ", ") + ")", f.Args
}

// Keyword is a bare SQL keyword used as a value.
type Keyword string

// CurrentTimestamp is the SQL CURRENT_TIMESTAMP keyword.
const CurrentTimestamp Keyword = "CURRENT_TIMESTAMP"

// SQL implements domain.Expression.
func (k Keyword) SQL() (string, []any) {
	return string(k), nil
}
