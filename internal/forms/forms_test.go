package forms_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/queryset/internal/adapters/database"
	"github.com/satishbabariya/queryset/internal/adapters/telemetry"
	"github.com/satishbabariya/queryset/internal/core/entity"
	"github.com/satishbabariya/queryset/internal/core/meta"
	"github.com/satishbabariya/queryset/internal/forms"
	"github.com/satishbabariya/queryset/runtime/client"
)

var schema = []string{
	"CREATE TABLE `form_section` (`id` INTEGER PRIMARY KEY AUTOINCREMENT, `title` TEXT, `instructions` TEXT, `created` DATETIME, `updated` DATETIME)",
	"CREATE TABLE `form_field` (`id` INTEGER PRIMARY KEY AUTOINCREMENT, `section_id` INTEGER, `name` TEXT, `label` TEXT, `sort` INTEGER, `created` DATETIME, `updated` DATETIME)",
	"CREATE TABLE `list` (`id` INTEGER PRIMARY KEY AUTOINCREMENT, `name` TEXT, `plural_name` TEXT, `sort_mode` TEXT, `created` DATETIME, `updated` DATETIME)",
	"CREATE TABLE `list_items` (`id` INTEGER PRIMARY KEY AUTOINCREMENT, `list_id` INTEGER, `value` TEXT, `sort` INTEGER)",
}

func setup(t *testing.T) (*forms.Forms, *telemetry.Stats) {
	t.Helper()
	ctx := context.Background()

	reg, err := meta.NewRegistry(forms.Models()...)
	require.NoError(t, err)

	stats := telemetry.NewStats()
	c, err := client.Open(ctx, database.Config{Provider: "sqlite", URL: ":memory:"}, reg, client.WithTelemetry(stats))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close(ctx) })

	for _, stmt := range schema {
		_, err := c.Adapter().Execute(ctx, stmt)
		require.NoError(t, err)
	}

	f, err := forms.New(c)
	require.NoError(t, err)
	return f, stats
}

func TestNew_RequiresModels(t *testing.T) {
	reg, err := meta.NewRegistry(forms.Models()[:1]...)
	require.NoError(t, err)
	_, err = forms.New(client.New(reg, nil))
	assert.ErrorIs(t, err, meta.ErrConfiguration)
}

func TestSection(t *testing.T) {
	ctx := context.Background()
	f, stats := setup(t)

	s := f.CreateSection(map[string]any{"title": "Contact", "instructions": "How to reach you"})
	assert.True(t, s.IsNew())
	assert.Equal(t, entity.CurrentTimestamp, s.Get("created"))
	require.NoError(t, s.Save(ctx))
	assert.Equal(t, int64(1), s.Get("id"))
	assert.Equal(t, 1, stats.Count(forms.SectionModel, "INSERT"))

	found, err := f.LookupSection(ctx, "1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Contact", found.Title())
	assert.Equal(t, "How to reach you", found.Instructions())
	assert.NotNil(t, found.Get("created"))
	assert.NotNil(t, found.Get("updated"))

	for _, id := range []any{"abc", 0, nil, 99} {
		none, err := f.LookupSection(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, none, id)
	}

	// A clean save does not touch the update stamp.
	require.NoError(t, found.Save(ctx))
	assert.Equal(t, 0, stats.Count(forms.SectionModel, "UPDATE"))

	found.Set("title", "Contact details")
	require.NoError(t, found.Save(ctx))
	assert.Equal(t, 1, stats.Count(forms.SectionModel, "UPDATE"))
	assert.False(t, found.IsDirty())
}

func TestField_Validation(t *testing.T) {
	ctx := context.Background()
	f, stats := setup(t)

	fl := f.CreateField(map[string]any{"section_id": 1, "name": "full name", "sort": "first"})
	err := fl.Save(ctx)
	assert.ErrorIs(t, err, entity.ErrValidation)
	assert.Equal(t, map[string]string{
		"sort": "Enter a number",
		"name": "Name cannot contain spaces",
	}, fl.Errors())
	assert.Equal(t, 0, stats.Count(forms.FieldModel, "INSERT"))

	fl.Set("name", "full_name")
	fl.Set("sort", "2")
	require.NoError(t, fl.Save(ctx))
	assert.Empty(t, fl.Errors())
	assert.False(t, fl.IsNew())

	loaded, err := f.LookupField(ctx, fl.Get("id"))
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "full_name", loaded.Name())

	loaded.Set("sort", nil)
	assert.ErrorIs(t, loaded.Save(ctx), entity.ErrValidation)
	assert.Contains(t, loaded.Errors(), "sort")
}

func TestSection_FieldsAndSoftDelete(t *testing.T) {
	ctx := context.Background()
	f, _ := setup(t)

	s := f.CreateSection(map[string]any{"title": "Contact"})
	require.NoError(t, s.Save(ctx))

	for i, name := range []string{"phone", "email"} {
		fl := f.CreateField(map[string]any{"section_id": s.Get("id"), "name": name, "label": name, "sort": 2 - i})
		require.NoError(t, fl.Save(ctx))
	}

	fields, err := s.Fields(ctx)
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.Equal(t, "email", fields[0].Name(), "ordered by sort")
	assert.Equal(t, "phone", fields[1].Label())

	require.NoError(t, fields[0].Delete(ctx))

	cached, err := s.Fields(ctx)
	require.NoError(t, err)
	assert.Len(t, cached, 2, "fields stay cached until ResetCache")

	s.ResetCache()
	fresh, err := s.Fields(ctx)
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, "phone", fresh[0].Name())

	detached, err := f.LookupField(ctx, fields[0].Get("id"))
	require.NoError(t, err)
	require.NotNil(t, detached, "unlinked fields keep their row")
	assert.Equal(t, int64(0), detached.Get("section_id"))
}

func TestList_Items(t *testing.T) {
	ctx := context.Background()
	f, _ := setup(t)

	l := f.CreateList(map[string]any{"name": "Color", "sort_mode": "SortCol"})
	require.NoError(t, l.Save(ctx))
	assert.Equal(t, "Colors", l.PluralName())

	for i, value := range []string{"green", "blue", "red"} {
		require.NoError(t, l.AddItem(map[string]any{"value": value, "sort": i}).Save(ctx))
	}

	values := func() []string {
		rows, err := l.Items().All(ctx)
		require.NoError(t, err)
		out := make([]string, len(rows))
		for i, e := range rows {
			out[i] = forms.Item(e).String()
		}
		return out
	}
	assert.Equal(t, []string{"green", "blue", "red"}, values())

	l.Set("sort_mode", "Alpha")
	assert.Equal(t, []string{"blue", "green", "red"}, values())
	l.Set("sort_mode", "-Alpha")
	assert.Equal(t, []string{"red", "green", "blue"}, values())
	require.NoError(t, l.Save(ctx))

	n, err := l.ItemCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	first, err := l.Items().First(ctx)
	require.NoError(t, err)
	item := forms.Item(first)
	require.NoError(t, item.Delete(ctx))
	assert.Nil(t, item.Get("list_id"))

	n, err = l.ItemCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	parent, err := forms.Item(first).Related(ctx, "list")
	require.NoError(t, err)
	assert.Nil(t, parent)

	reloaded, err := f.LookupList(ctx, l.Get("id"))
	require.NoError(t, err)
	assert.Equal(t, "-Alpha", reloaded.Get("sort_mode"))
	assert.Equal(t, "Color", reloaded.Name())
}
