package compiler

import (
	"strings"

	"github.com/satishbabariya/queryset/internal/core/meta"
	"github.com/satishbabariya/queryset/internal/core/query/domain"
	"github.com/satishbabariya/queryset/internal/core/query/lookup"
)

// buildWhere renders filter groups followed by negated exclusion groups, all
// AND-joined. Parameters are returned in placeholder order.
func (c *Compiler) buildWhere(m *meta.Meta, s *domain.State, joins *joinSet) (string, []any, error) {
	var (
		clauses []string
		args    []any
	)

	for _, g := range s.Filters {
		clause, groupArgs, err := c.buildGroup(m, g, joins)
		if err != nil {
			return "", nil, err
		}
		if clause == "" {
			continue
		}
		clauses = append(clauses, clause)
		args = append(args, groupArgs...)
	}

	for _, g := range s.Exclusions {
		clause, groupArgs, err := c.buildGroup(m, g, joins)
		if err != nil {
			return "", nil, err
		}
		if clause == "" {
			continue
		}
		clauses = append(clauses, "NOT ("+clause+")")
		args = append(args, groupArgs...)
	}

	return strings.Join(clauses, " AND "), args, nil
}

// buildGroup OR-joins the members of one call, parenthesizing when there is
// more than one.
func (c *Compiler) buildGroup(m *meta.Meta, g domain.Group, joins *joinSet) (string, []any, error) {
	if len(g) == 0 {
		return "", nil, nil
	}

	var args []any
	members := make([]string, 0, len(g))
	for _, q := range g {
		clause, qArgs, err := c.buildQ(m, q, joins)
		if err != nil {
			return "", nil, err
		}
		members = append(members, clause)
		args = append(args, qArgs...)
	}

	if len(members) == 1 {
		return members[0], args, nil
	}
	return "(" + strings.Join(members, " OR ") + ")", args, nil
}

// buildQ AND-joins the pairs of one map in sorted key order.
func (c *Compiler) buildQ(m *meta.Meta, q domain.Q, joins *joinSet) (string, []any, error) {
	if len(q) == 0 {
		return "1 = 1", nil, nil
	}

	var args []any
	preds := make([]string, 0, len(q))
	for _, key := range q.Keys() {
		res, err := c.resolver.Resolve(m, key)
		if err != nil {
			return "", nil, err
		}
		pred, predArgs, err := lookup.Predicate(res.Operator, res.Column, q[key])
		if err != nil {
			return "", nil, err
		}
		joins.add(res.Joins...)
		preds = append(preds, pred)
		args = append(args, predArgs...)
	}

	if len(preds) == 1 {
		return preds[0], args, nil
	}
	return "(" + strings.Join(preds, " AND ") + ")", args, nil
}
