// Package compiler renders query builder state and entity writes into
// parameterized SQL.
package compiler

import (
	"fmt"
	"math"
	"strings"

	"github.com/satishbabariya/queryset/internal/core/meta"
	"github.com/satishbabariya/queryset/internal/core/query/domain"
	"github.com/satishbabariya/queryset/internal/core/query/lookup"
	"github.com/satishbabariya/queryset/internal/debug"
)

// Statement is one compiled SQL statement.
type Statement struct {
	SQL   string
	Args  []any
	Joins []lookup.Join
}

// Compiler compiles queries against the models of one registry.
type Compiler struct {
	registry *meta.Registry
	resolver *lookup.Resolver
}

// New creates a compiler for reg.
func New(reg *meta.Registry) *Compiler {
	return &Compiler{
		registry: reg,
		resolver: lookup.NewResolver(reg),
	}
}

// Registry returns the registry the compiler resolves against.
func (c *Compiler) Registry() *meta.Registry {
	return c.registry
}

// CompileSelect renders the SELECT described by s on model m.
func (c *Compiler) CompileSelect(m *meta.Meta, s *domain.State) (*Statement, error) {
	if s == nil {
		s = &domain.State{}
	}
	joins := newJoinSet()

	where, args, err := c.buildWhere(m, s, joins)
	if err != nil {
		return nil, err
	}

	order, err := c.buildOrder(m, s, joins)
	if err != nil {
		return nil, err
	}

	columns, err := c.buildColumns(m, s, joins)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(columns, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(lookup.QuoteIdent(m.Table))
	joins.writeTo(&sb)

	if where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}
	if len(order) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(order, ", "))
	}

	switch {
	case s.Limit != nil:
		fmt.Fprintf(&sb, " LIMIT %d", *s.Limit)
	case s.Offset != nil:
		fmt.Fprintf(&sb, " LIMIT %d", int64(math.MaxInt64))
	}
	if s.Offset != nil {
		fmt.Fprintf(&sb, " OFFSET %d", *s.Offset)
	}

	stmt := &Statement{SQL: sb.String(), Args: args, Joins: joins.list}
	debug.Debug("compiled select", "model", m.Name, "sql", stmt.SQL, "args", len(stmt.Args))
	return stmt, nil
}

// CompileCount renders SELECT COUNT(*) with the joins and conditions of s.
// Ordering, projection and pagination are ignored.
func (c *Compiler) CompileCount(m *meta.Meta, s *domain.State) (*Statement, error) {
	if s == nil {
		s = &domain.State{}
	}
	joins := newJoinSet()

	where, args, err := c.buildWhere(m, s, joins)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT COUNT(*) FROM ")
	sb.WriteString(lookup.QuoteIdent(m.Table))
	joins.writeTo(&sb)
	if where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}

	stmt := &Statement{SQL: sb.String(), Args: args, Joins: joins.list}
	debug.Debug("compiled count", "model", m.Name, "sql", stmt.SQL)
	return stmt, nil
}

func (c *Compiler) buildOrder(m *meta.Meta, s *domain.State, joins *joinSet) ([]string, error) {
	refs := s.Ordering
	if len(refs) == 0 {
		refs = m.Ordering
	}

	order := make([]string, 0, len(refs))
	for _, ref := range refs {
		path, dir := domain.ParseOrder(ref)
		res, err := c.resolver.Resolve(m, path)
		if err != nil {
			return nil, err
		}
		if res.Operator != lookup.Exact {
			return nil, fmt.Errorf("%w: operator in order reference %q", meta.ErrConfiguration, ref)
		}
		joins.add(res.Joins...)
		order = append(order, res.Column+" "+string(dir))
	}
	return order, nil
}

// buildColumns picks the column list. Related tables win over projected
// values when both are set.
func (c *Compiler) buildColumns(m *meta.Meta, s *domain.State, joins *joinSet) ([]string, error) {
	switch {
	case len(s.Related) > 0:
		columns := []string{lookup.QuoteIdent(m.Table) + ".*"}
		for _, path := range s.Related {
			res, err := c.resolver.ResolveTable(m, path)
			if err != nil {
				return nil, err
			}
			joins.add(res.Joins...)
			columns = append(columns, lookup.QuoteIdent(res.Model.Table)+".*")
		}
		return columns, nil

	case len(s.Values) > 0:
		columns := make([]string, 0, len(s.Values))
		for _, path := range s.Values {
			res, err := c.resolver.Resolve(m, path)
			if err != nil {
				return nil, err
			}
			if res.Operator != lookup.Exact {
				return nil, fmt.Errorf("%w: operator in projected column %q", meta.ErrConfiguration, path)
			}
			joins.add(res.Joins...)
			columns = append(columns, res.Column)
		}
		return columns, nil

	default:
		return []string{lookup.QuoteIdent(m.Table) + ".*"}, nil
	}
}

// joinSet keeps joins unique by their rendered text, in first-seen order.
type joinSet struct {
	seen map[string]bool
	list []lookup.Join
}

func newJoinSet() *joinSet {
	return &joinSet{seen: make(map[string]bool)}
}

func (j *joinSet) add(joins ...lookup.Join) {
	for _, join := range joins {
		if j.seen[join.SQL] {
			continue
		}
		j.seen[join.SQL] = true
		j.list = append(j.list, join)
	}
}

func (j *joinSet) writeTo(sb *strings.Builder) {
	for _, join := range j.list {
		sb.WriteString(" ")
		sb.WriteString(join.SQL)
	}
}
