package lookup_test

import (
	"testing"

	"github.com/satishbabariya/queryset/internal/core/meta"
	"github.com/satishbabariya/queryset/internal/core/query/lookup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry(t *testing.T) *meta.Registry {
	t.Helper()
	reg, err := meta.NewRegistry(
		&meta.Meta{
			Name:  "Book",
			Table: "book",
			PK:    []string{"id"},
			Relations: map[string]meta.Relation{
				"author":    {Model: "Author", On: []meta.Pair{{Local: "author_id", Foreign: "id"}}},
				"publisher": {Model: "Publisher", On: []meta.Pair{{Local: "publisher_id", Foreign: "id"}}, Nullable: true},
			},
		},
		&meta.Meta{
			Name:  "Author",
			Table: "author",
			PK:    []string{"id"},
			Relations: map[string]meta.Relation{
				"country": {Model: "Country", On: []meta.Pair{{Local: "country", Foreign: "code"}, {Local: "region", Foreign: "region"}}},
			},
		},
		&meta.Meta{Name: "Publisher", Table: "publisher", PK: []string{"id"}},
		&meta.Meta{Name: "Country", Table: "country", PK: []string{"code"}},
	)
	require.NoError(t, err)
	return reg
}

func TestResolve(t *testing.T) {
	reg := testRegistry(t)
	book, err := reg.Model("Book")
	require.NoError(t, err)
	r := lookup.NewResolver(reg)

	tests := []struct {
		path   string
		column string
		op     lookup.Operator
		joins  []string
	}{
		{path: "title", column: "`book`.`title`", op: lookup.Exact},
		{path: "title__contains", column: "`book`.`title`", op: lookup.Contains},
		{path: "isnull", column: "`book`.`isnull`", op: lookup.Exact},
		{
			path:   "author__name__contains",
			column: "`author`.`name`",
			op:     lookup.Contains,
			joins:  []string{"JOIN `author` ON (`book`.`author_id` = `author`.`id`)"},
		},
		{
			path:   "publisher__id__isnull",
			column: "`publisher`.`id`",
			op:     lookup.IsNull,
			joins:  []string{"LEFT JOIN `publisher` ON (`book`.`publisher_id` = `publisher`.`id`)"},
		},
		{
			path:   "author__country__name",
			column: "`country`.`name`",
			op:     lookup.Exact,
			joins: []string{
				"JOIN `author` ON (`book`.`author_id` = `author`.`id`)",
				"JOIN `country` ON (`author`.`country` = `country`.`code` AND `author`.`region` = `country`.`region`)",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			res, err := r.Resolve(book, tt.path)
			require.NoError(t, err)

			assert.Equal(t, tt.column, res.Column)
			assert.Equal(t, tt.op, res.Operator)

			var joins []string
			for _, j := range res.Joins {
				joins = append(joins, j.SQL)
			}
			assert.Equal(t, tt.joins, joins)
		})
	}
}

func TestResolve_Errors(t *testing.T) {
	reg := testRegistry(t)
	book, err := reg.Model("Book")
	require.NoError(t, err)
	r := lookup.NewResolver(reg)

	for _, path := range []string{"", "editor__name", "author__", "__name", "author____gt"} {
		t.Run(path, func(t *testing.T) {
			_, err := r.Resolve(book, path)
			assert.ErrorIs(t, err, meta.ErrConfiguration)
		})
	}
}

func TestResolveTable(t *testing.T) {
	reg := testRegistry(t)
	book, err := reg.Model("Book")
	require.NoError(t, err)
	r := lookup.NewResolver(reg)

	res, err := r.ResolveTable(book, "author__country")
	require.NoError(t, err)
	assert.Equal(t, "country", res.Model.Table)
	assert.Len(t, res.Joins, 2)
	assert.Empty(t, res.Column)

	_, err = r.ResolveTable(book, "author__nope")
	assert.ErrorIs(t, err, meta.ErrConfiguration)
}

func TestPredicate(t *testing.T) {
	tests := []struct {
		name  string
		op    lookup.Operator
		value any
		sql   string
		args  []any
	}{
		{name: "exact", op: lookup.Exact, value: 3, sql: "c = ?", args: []any{3}},
		{name: "exact nil", op: lookup.Exact, value: nil, sql: "c IS NULL"},
		{name: "contains", op: lookup.Contains, value: "ab", sql: "c LIKE ?", args: []any{"%ab%"}},
		{name: "gt", op: lookup.Gt, value: 1, sql: "c > ?", args: []any{1}},
		{name: "lt", op: lookup.Lt, value: 1, sql: "c < ?", args: []any{1}},
		{name: "isnull true", op: lookup.IsNull, value: true, sql: "c IS NULL"},
		{name: "isnull false", op: lookup.IsNull, value: false, sql: "c IS NOT NULL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := lookup.Predicate(tt.op, "c", tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.sql, sql)
			assert.Equal(t, tt.args, args)
		})
	}

	_, _, err := lookup.Predicate(lookup.Operator("regex"), "c", "x")
	assert.ErrorIs(t, err, meta.ErrConfiguration)
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, "`list`", lookup.QuoteIdent("list"))
	assert.Equal(t, "`a``b`", lookup.QuoteIdent("a`b"))
}

func TestOperators(t *testing.T) {
	for _, op := range lookup.Operators() {
		parsed, ok := lookup.ParseOperator(string(op))
		assert.True(t, ok, op)
		assert.Equal(t, op, parsed)
	}
	_, ok := lookup.ParseOperator("startswith")
	assert.False(t, ok)
}
