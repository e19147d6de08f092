package postgres_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/satishbabariya/queryset/internal/adapters/database"
	"github.com/satishbabariya/queryset/internal/adapters/database/postgres"
	"github.com/satishbabariya/queryset/internal/adapters/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebind(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{
			in:   "SELECT `list`.* FROM `list` WHERE `list`.`id` = ? AND `list`.`name` LIKE ?",
			want: `SELECT "list".* FROM "list" WHERE "list"."id" = $1 AND "list"."name" LIKE $2`,
		},
		{
			in:   "SELECT 'what?' FROM `t` WHERE `a` = ?",
			want: `SELECT 'what?' FROM "t" WHERE "a" = $1`,
		},
		{
			in:   "SELECT 'it''s `here`' WHERE `b` > ?",
			want: "SELECT 'it''s `here`' WHERE \"b\" > $1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, postgres.Rebind(tt.in))
		})
	}
}

func newAdapter(t *testing.T) (*postgres.Adapter, sqlmock.Sqlmock, *telemetry.Stats) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	stats := telemetry.NewStats()
	a := postgres.New(database.Config{Provider: "postgresql"}, stats)
	a.DB = db
	return a, mock, stats
}

func TestAdapter_InsertReturnsLastval(t *testing.T) {
	a, mock, stats := newAdapter(t)
	ctx := context.Background()

	mock.ExpectExec(`INSERT INTO "list" ("name") VALUES ($1)`).
		WithArgs("colors").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT lastval()").
		WillReturnRows(sqlmock.NewRows([]string{"lastval"}).AddRow(int64(42)))

	res, err := a.Execute(ctx, "INSERT INTO `list` (`name`) VALUES (?)", "colors")
	require.NoError(t, err)

	id, err := res.LastInsertId()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	n, err := res.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	assert.Equal(t, 1, stats.Count("", "INSERT"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_UpdateIsRebound(t *testing.T) {
	a, mock, _ := newAdapter(t)

	mock.ExpectExec(`UPDATE "list" SET "name" = $1 WHERE "id" = $2`).
		WithArgs("shapes", 3).
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := a.Execute(context.Background(), "UPDATE `list` SET `name` = ? WHERE `id` = ?", "shapes", 3)
	require.NoError(t, err)
	assert.Equal(t, database.PostgreSQL, a.GetDialect())
	assert.NoError(t, mock.ExpectationsWereMet())
}
