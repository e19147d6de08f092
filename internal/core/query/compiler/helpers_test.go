package compiler_test

import (
	"testing"

	"github.com/satishbabariya/queryset/internal/core/meta"
	"github.com/satishbabariya/queryset/internal/core/query/compiler"
	"github.com/stretchr/testify/require"
)

func bookRegistry(t *testing.T) *meta.Registry {
	t.Helper()
	reg, err := meta.NewRegistry(
		&meta.Meta{
			Name:     "Book",
			Table:    "book",
			PK:       []string{"id"},
			Ordering: []string{"title"},
			Relations: map[string]meta.Relation{
				"author":    {Model: "Author", On: []meta.Pair{{Local: "author_id", Foreign: "id"}}},
				"publisher": {Model: "Publisher", On: []meta.Pair{{Local: "publisher_id", Foreign: "id"}}, Nullable: true},
			},
		},
		&meta.Meta{Name: "Author", Table: "author", PK: []string{"id"}, Ordering: []string{"-created"}},
		&meta.Meta{Name: "Publisher", Table: "publisher", PK: []string{"id"}},
		&meta.Meta{Name: "Grant", Table: "grant", PK: []string{"user_id", "role_id"}},
	)
	require.NoError(t, err)
	return reg
}

func newCompiler(t *testing.T) (*compiler.Compiler, *meta.Registry) {
	t.Helper()
	reg := bookRegistry(t)
	return compiler.New(reg), reg
}

func model(t *testing.T, reg *meta.Registry, name string) *meta.Meta {
	t.Helper()
	m, err := reg.Model(name)
	require.NoError(t, err)
	return m
}

func intp(n int) *int { return &n }

type now struct{}

func (now) SQL() (string, []any) { return "NOW()", nil }
