// Package lookup turns double-underscore lookup paths such as
// "list__name__contains" into a join chain, a qualified column and an
// operator.
package lookup

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/queryset/internal/core/meta"
)

// Separator splits the segments of a lookup path.
const Separator = "__"

// Join is one rendered join clause.
type Join struct {
	Table string
	Outer bool
	SQL   string
}

// Resolution is the result of resolving one lookup path.
type Resolution struct {
	// Joins needed to reach Model, in order.
	Joins []Join

	// Model owning the terminal column.
	Model *meta.Meta

	// Column is the quoted, table-qualified terminal column. It is empty for
	// table-only resolutions.
	Column string

	Operator Operator
}

// Resolver resolves lookup paths against a registry.
type Resolver struct {
	registry *meta.Registry
}

// NewResolver creates a resolver over reg.
func NewResolver(reg *meta.Registry) *Resolver {
	return &Resolver{registry: reg}
}

// Resolve resolves a column lookup starting at origin. A trailing segment
// naming an operator is split off; a single segment is always a column.
func (r *Resolver) Resolve(origin *meta.Meta, path string) (*Resolution, error) {
	segments, err := split(path)
	if err != nil {
		return nil, err
	}

	op := Exact
	if len(segments) > 1 {
		if parsed, ok := ParseOperator(segments[len(segments)-1]); ok {
			op = parsed
			segments = segments[:len(segments)-1]
		}
	}

	column := segments[len(segments)-1]
	res, err := r.walk(origin, segments[:len(segments)-1], path)
	if err != nil {
		return nil, err
	}
	res.Column = QuoteIdent(res.Model.Table) + "." + QuoteIdent(column)
	res.Operator = op
	return res, nil
}

// ResolveTable resolves a path made only of relation names, as used by
// select-related.
func (r *Resolver) ResolveTable(origin *meta.Meta, path string) (*Resolution, error) {
	segments, err := split(path)
	if err != nil {
		return nil, err
	}
	return r.walk(origin, segments, path)
}

func (r *Resolver) walk(origin *meta.Meta, relations []string, path string) (*Resolution, error) {
	res := &Resolution{Model: origin}
	cur := origin

	for _, name := range relations {
		rel, ok := cur.Relation(name)
		if !ok {
			return nil, fmt.Errorf("%w: model %s has no relation %q (lookup %q)",
				meta.ErrConfiguration, cur.Name, name, path)
		}
		target, err := r.registry.Target(rel)
		if err != nil {
			return nil, err
		}
		res.Joins = append(res.Joins, renderJoin(cur, target, rel))
		cur = target
	}

	res.Model = cur
	return res, nil
}

func renderJoin(from, to *meta.Meta, rel meta.Relation) Join {
	conds := make([]string, len(rel.On))
	for i, p := range rel.On {
		conds[i] = fmt.Sprintf("%s.%s = %s.%s",
			QuoteIdent(from.Table), QuoteIdent(p.Local),
			QuoteIdent(to.Table), QuoteIdent(p.Foreign))
	}

	keyword := "JOIN"
	if rel.Nullable {
		keyword = "LEFT JOIN"
	}

	return Join{
		Table: to.Table,
		Outer: rel.Nullable,
		SQL:   fmt.Sprintf("%s %s ON (%s)", keyword, QuoteIdent(to.Table), strings.Join(conds, " AND ")),
	}
}

func split(path string) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty lookup", meta.ErrConfiguration)
	}
	segments := strings.Split(path, Separator)
	for _, s := range segments {
		if s == "" {
			return nil, fmt.Errorf("%w: empty segment in lookup %q", meta.ErrConfiguration, path)
		}
	}
	return segments, nil
}

// QuoteIdent quotes an identifier with backticks.
func QuoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
