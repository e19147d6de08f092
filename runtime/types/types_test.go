package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/queryset/runtime/client"
	"github.com/satishbabariya/queryset/runtime/types"
)

func TestRegistryThroughAliases(t *testing.T) {
	reg, err := types.NewRegistry(
		&types.Meta{Name: "Author", Table: "authors", PK: []string{"id"}},
		&types.Meta{
			Name:     "Book",
			Table:    "books",
			PK:       []string{"id"},
			Ordering: []string{"-id"},
			Relations: map[string]types.Relation{
				"author": {Model: "Author", On: []types.Pair{{Local: "author_id", Foreign: "id"}}},
			},
		},
	)
	require.NoError(t, err)

	books := client.New(reg, nil).MustModel("Book")
	var qs *types.QuerySet = books.Objects().Filter(types.Q{"author__name": "Ann"})

	sql, err := qs.SQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT `books`.* FROM `books` JOIN `authors` ON (`books`.`author_id` = `authors`.`id`) WHERE `authors`.`name` = ? ORDER BY `books`.`id` DESC", sql)

	var e *types.Entity = books.Create(map[string]any{"title": "Sword"})
	assert.True(t, e.IsNew())
}

func TestRegistryErrors(t *testing.T) {
	_, err := types.NewRegistry(&types.Meta{Name: "Book", Table: "books"})
	assert.ErrorIs(t, err, types.ErrConfiguration)
}

func TestFunc(t *testing.T) {
	var expr types.Expression = types.Func("COALESCE", "a", 1)

	sql, args := expr.SQL()
	assert.Equal(t, "COALESCE(?, ?)", sql)
	assert.Equal(t, []any{"a", 1}, args)
}
