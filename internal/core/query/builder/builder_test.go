package builder_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/satishbabariya/queryset/internal/adapters/database"
	"github.com/satishbabariya/queryset/internal/adapters/telemetry"
	"github.com/satishbabariya/queryset/internal/core/entity"
	"github.com/satishbabariya/queryset/internal/core/meta"
	"github.com/satishbabariya/queryset/internal/core/query/builder"
	"github.com/satishbabariya/queryset/internal/core/query/compiler"
	"github.com/satishbabariya/queryset/internal/core/query/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store *entity.Store
	mock  sqlmock.Sqlmock
	stats *telemetry.Stats
	item  *meta.Meta
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reg, err := meta.NewRegistry(
		&meta.Meta{Name: "List", Table: "list", PK: []string{"id"}, Ordering: []string{"name"}},
		&meta.Meta{
			Name:     "ListItem",
			Table:    "list_items",
			PK:       []string{"id"},
			Ordering: []string{"sort"},
			Relations: map[string]meta.Relation{
				"list": {Model: "List", On: []meta.Pair{{Local: "list_id", Foreign: "id"}}, Nullable: true},
			},
		},
	)
	require.NoError(t, err)

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})

	stats := telemetry.NewStats()
	f := &fixture{
		store: entity.NewStore(compiler.New(reg), &database.Base{DB: db, Telemetry: stats}),
		mock:  mock,
		stats: stats,
	}
	f.item, _ = reg.Model("ListItem")
	return f
}

func (f *fixture) items() *builder.QuerySet {
	return builder.New(f.store, f.item)
}

func itemRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "list_id", "value", "sort"}).
		AddRow(int64(1), int64(3), "red", int64(1)).
		AddRow(int64(2), int64(3), "green", int64(2))
}

func TestQuerySet_Chaining(t *testing.T) {
	f := newFixture(t)
	qs := f.items()

	assert.Same(t, qs, qs.Filter(domain.Q{"list__name": "colors"}))
	assert.Same(t, qs, qs.Exclude(domain.Q{"value": "red"}))
	assert.Same(t, qs, qs.OrderBy("-sort"))
	assert.Same(t, qs, qs.Limit(5))
	assert.Same(t, qs, qs.Offset(10))
	assert.Same(t, qs, qs.Values("id"))
	assert.Same(t, qs, qs.SelectRelated("list"))
	assert.Same(t, qs, qs.Filter())

	state := qs.State()
	assert.Len(t, state.Filters, 1)
	assert.Len(t, state.Exclusions, 1)
	assert.Equal(t, 5, *state.Limit)
	assert.Equal(t, 10, *state.Offset)
}

func TestQuerySet_StatementMemoized(t *testing.T) {
	f := newFixture(t)
	qs := f.items().Filter(domain.Q{"list__name": "colors"})

	first, err := qs.Statement()
	require.NoError(t, err)
	second, err := qs.Statement()
	require.NoError(t, err)
	assert.Same(t, first, second)

	qs.OrderBy("-id")
	third, err := qs.Statement()
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t,
		"SELECT `list_items`.* FROM `list_items` LEFT JOIN `list` ON (`list_items`.`list_id` = `list`.`id`) WHERE `list`.`name` = ? ORDER BY `list_items`.`id` DESC",
		third.SQL)
}

func TestQuerySet_AllRunsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	qs := f.items().Filter(domain.Q{"list_id": 3})

	f.mock.ExpectQuery("SELECT `list_items`.* FROM `list_items` WHERE `list_items`.`list_id` = ? ORDER BY `list_items`.`sort` ASC").
		WithArgs(3).
		WillReturnRows(itemRows())

	items, err := qs.All(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "red", items[0].Get("value"))
	assert.False(t, items[0].IsNew())
	assert.False(t, items[0].IsDirty())

	again, err := qs.All(ctx)
	require.NoError(t, err)
	assert.Len(t, again, 2)

	e, err := qs.At(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, e)

	assert.Equal(t, 1, f.stats.Count("ListItem", "SELECT"))
}

func TestQuerySet_First(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectQuery("SELECT `list_items`.* FROM `list_items` WHERE `list_items`.`value` = ? ORDER BY `list_items`.`sort` ASC LIMIT 1").
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	e, err := f.items().Filter(domain.Q{"value": "nope"}).First(context.Background())
	require.NoError(t, err)
	assert.Nil(t, e)
}

func TestQuerySet_AtRunsSingleRowQuery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	qs := f.items().Offset(2).Limit(5)

	rows := sqlmock.NewRows([]string{"id", "value"}).AddRow(int64(6), "cyan")
	f.mock.ExpectQuery("SELECT `list_items`.* FROM `list_items` ORDER BY `list_items`.`sort` ASC LIMIT 1 OFFSET 5").
		WillReturnRows(rows).
		RowsWillBeClosed()

	e, err := qs.At(ctx, 3)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "cyan", e.Get("value"))

	// Past the limit nothing is executed.
	e, err = qs.At(ctx, 5)
	require.NoError(t, err)
	assert.Nil(t, e)

	e, err = qs.At(ctx, -1)
	require.NoError(t, err)
	assert.Nil(t, e)

	assert.False(t, qs.Iterator().Started())
	assert.Equal(t, 1, f.stats.Count("ListItem", "SELECT"))
}

func TestQuerySet_Close(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	qs := f.items()

	f.mock.ExpectQuery("SELECT `list_items`.* FROM `list_items` ORDER BY `list_items`.`sort` ASC").
		WillReturnRows(itemRows()).
		RowsWillBeClosed()

	it := qs.Iterator()
	require.True(t, it.Next(ctx))
	require.NoError(t, qs.Close())
	assert.True(t, it.Exhausted())

	// The cached row is still served without another query.
	e, err := qs.First(ctx)
	require.NoError(t, err)
	assert.Equal(t, "red", e.Get("value"))

	e, err = qs.At(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, e)
}

func TestQuerySet_ValuesList(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectQuery("SELECT `list_items`.`value`, `list`.`name` FROM `list_items` LEFT JOIN `list` ON (`list_items`.`list_id` = `list`.`id`) ORDER BY `list_items`.`sort` ASC").
		WillReturnRows(sqlmock.NewRows([]string{"value", "name"}).
			AddRow("red", "colors").
			AddRow([]byte("green"), "colors"))

	rows, err := f.items().Values("value", "list__name").ValuesList(context.Background())
	require.NoError(t, err)
	assert.Equal(t, [][]any{{"red", "colors"}, {"green", "colors"}}, rows)
}

func TestQuerySet_SelectRelatedWinsOverValues(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectQuery("SELECT `list_items`.*, `list`.* FROM `list_items` LEFT JOIN `list` ON (`list_items`.`list_id` = `list`.`id`) ORDER BY `list_items`.`sort` ASC").
		WillReturnRows(sqlmock.NewRows([]string{"id", "list_id", "value", "id", "name"}).
			AddRow(int64(1), int64(3), "red", int64(3), "colors"))

	qs := f.items().Values("value").SelectRelated("list")
	rows, err := qs.ValuesList(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Len(t, rows[0], 5)
}

func TestQuerySet_RelatedColumnsDoNotShadow(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectQuery("SELECT `list_items`.*, `list`.* FROM `list_items` LEFT JOIN `list` ON (`list_items`.`list_id` = `list`.`id`) ORDER BY `list_items`.`sort` ASC LIMIT 1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "list_id", "value", "id", "name"}).
			AddRow(int64(1), int64(3), "red", int64(3), "colors"))

	e, err := f.items().SelectRelated("list").First(context.Background())
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, int64(1), e.Get("id"))
	assert.Equal(t, "colors", e.Get("name"))
}

func TestQuerySet_Clone(t *testing.T) {
	f := newFixture(t)
	base := f.items().Filter(domain.Q{"list_id": 3})

	red := base.Clone().Filter(domain.Q{"value": "red"})
	limited := base.Clone().Limit(1)

	baseSQL, err := base.SQL()
	require.NoError(t, err)
	redSQL, err := red.SQL()
	require.NoError(t, err)
	limitedSQL, err := limited.SQL()
	require.NoError(t, err)

	assert.Equal(t, "SELECT `list_items`.* FROM `list_items` WHERE `list_items`.`list_id` = ? ORDER BY `list_items`.`sort` ASC", baseSQL)
	assert.Equal(t, "SELECT `list_items`.* FROM `list_items` WHERE `list_items`.`list_id` = ? AND `list_items`.`value` = ? ORDER BY `list_items`.`sort` ASC", redSQL)
	assert.Equal(t, baseSQL+" LIMIT 1", limitedSQL)
}

func TestQuerySet_CountAndExists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	qs := f.items().Filter(domain.Q{"list_id": 3}).OrderBy("-sort").Limit(1)

	f.mock.ExpectQuery("SELECT COUNT(*) FROM `list_items` WHERE `list_items`.`list_id` = ?").
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(int64(2)))

	n, err := qs.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	f.mock.ExpectQuery("SELECT `list_items`.* FROM `list_items` WHERE `list_items`.`list_id` = ? ORDER BY `list_items`.`sort` DESC LIMIT 1").
		WithArgs(3).
		WillReturnRows(itemRows())

	ok, err := qs.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestQuerySet_Find(t *testing.T) {
	f := newFixture(t)

	sql, err := f.items().Find(domain.Q{"value__contains": "re"}, "-id", 10, 20).SQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT `list_items`.* FROM `list_items` WHERE `list_items`.`value` LIKE ? ORDER BY `list_items`.`id` DESC LIMIT 10 OFFSET 20", sql)

	sql, err = f.items().Find(nil, "", 0, 0).SQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT `list_items`.* FROM `list_items` ORDER BY `list_items`.`sort` ASC", sql)
}

func TestQuerySet_CompileErrorSurfaces(t *testing.T) {
	f := newFixture(t)
	qs := f.items().Filter(domain.Q{"owner__name": "x"})

	_, err := qs.All(context.Background())
	assert.ErrorIs(t, err, meta.ErrConfiguration)

	_, err = qs.Count(context.Background())
	assert.ErrorIs(t, err, meta.ErrConfiguration)
}
