package compiler

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/queryset/internal/core/meta"
	"github.com/satishbabariya/queryset/internal/core/query/domain"
	"github.com/satishbabariya/queryset/internal/core/query/lookup"
	"github.com/satishbabariya/queryset/internal/debug"
)

// Assignment pairs a column with a value.
type Assignment struct {
	Column string
	Value  any
}

// CompileInsert renders an INSERT of the given columns.
func (c *Compiler) CompileInsert(m *meta.Meta, values []Assignment) (*Statement, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("insert into %s: %w", m.Table, ErrNoColumns)
	}

	var args []any
	columns := make([]string, len(values))
	placeholders := make([]string, len(values))
	for i, a := range values {
		columns[i] = lookup.QuoteIdent(a.Column)
		placeholders[i] = bind(a.Value, &args)
	}

	stmt := &Statement{
		SQL: fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			lookup.QuoteIdent(m.Table), strings.Join(columns, ", "), strings.Join(placeholders, ", ")),
		Args: args,
	}
	debug.Debug("compiled insert", "model", m.Name, "sql", stmt.SQL)
	return stmt, nil
}

// CompileUpdate renders an UPDATE of set restricted to the row matching key.
func (c *Compiler) CompileUpdate(m *meta.Meta, set, key []Assignment) (*Statement, error) {
	if len(set) == 0 {
		return nil, fmt.Errorf("update %s: %w", m.Table, ErrNoColumns)
	}

	var args []any
	assignments := make([]string, len(set))
	for i, a := range set {
		assignments[i] = lookup.QuoteIdent(a.Column) + " = " + bind(a.Value, &args)
	}

	where, err := keyClause(m, key, &args)
	if err != nil {
		return nil, err
	}

	stmt := &Statement{
		SQL: fmt.Sprintf("UPDATE %s SET %s WHERE %s",
			lookup.QuoteIdent(m.Table), strings.Join(assignments, ", "), where),
		Args: args,
	}
	debug.Debug("compiled update", "model", m.Name, "sql", stmt.SQL)
	return stmt, nil
}

// CompileDelete renders a DELETE of the row matching key.
func (c *Compiler) CompileDelete(m *meta.Meta, key []Assignment) (*Statement, error) {
	var args []any
	where, err := keyClause(m, key, &args)
	if err != nil {
		return nil, err
	}

	stmt := &Statement{
		SQL:  fmt.Sprintf("DELETE FROM %s WHERE %s", lookup.QuoteIdent(m.Table), where),
		Args: args,
	}
	debug.Debug("compiled delete", "model", m.Name, "sql", stmt.SQL)
	return stmt, nil
}

// keyClause renders the equality conditions identifying one row. A NULL key
// value cannot identify a row and is rejected.
func keyClause(m *meta.Meta, key []Assignment, args *[]any) (string, error) {
	if len(key) == 0 {
		return "", fmt.Errorf("%s: %w", m.Table, ErrMissingKey)
	}

	conds := make([]string, len(key))
	for i, a := range key {
		if a.Column == "" || a.Value == nil {
			return "", fmt.Errorf("%s: no value for key column %q: %w", m.Table, a.Column, ErrMissingKey)
		}
		conds[i] = lookup.QuoteIdent(a.Column) + " = ?"
		*args = append(*args, a.Value)
	}
	return strings.Join(conds, " AND "), nil
}

// bind returns the placeholder for v, or the inline SQL of an expression.
func bind(v any, args *[]any) string {
	if expr, ok := v.(domain.Expression); ok {
		sql, exprArgs := expr.SQL()
		*args = append(*args, exprArgs...)
		return sql
	}
	*args = append(*args, v)
	return "?"
}
