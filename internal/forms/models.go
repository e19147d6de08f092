// Package forms holds the dynamic form records: form sections with their
// fields, and selection lists with their items.
package forms

import (
	"fmt"
	"strconv"

	"github.com/satishbabariya/queryset/internal/core/entity"
	"github.com/satishbabariya/queryset/internal/core/meta"
	"github.com/satishbabariya/queryset/runtime/client"
)

// Model names.
const (
	SectionModel  = "FormSection"
	FieldModel    = "FormField"
	ListModel     = "List"
	ListItemModel = "ListItem"
)

// Models returns the metadata of every form record type.
func Models() []*meta.Meta {
	return []*meta.Meta{
		{
			Name:     SectionModel,
			Table:    "form_section",
			PK:       []string{"id"},
			Ordering: []string{"title"},
		},
		{
			Name:     FieldModel,
			Table:    "form_field",
			PK:       []string{"id"},
			Ordering: []string{"sort"},
			Relations: map[string]meta.Relation{
				"section": {Model: SectionModel, On: []meta.Pair{{Local: "section_id", Foreign: "id"}}, Nullable: true},
			},
		},
		{
			Name:     ListModel,
			Table:    "list",
			PK:       []string{"id"},
			Ordering: []string{"name"},
		},
		{
			Name:  ListItemModel,
			Table: "list_items",
			PK:    []string{"id"},
			Relations: map[string]meta.Relation{
				"list": {Model: ListModel, On: []meta.Pair{{Local: "list_id", Foreign: "id"}}, Nullable: true},
			},
		},
	}
}

// Forms creates and looks up form records through one client.
type Forms struct {
	sections *client.Manager
	fields   *client.Manager
	lists    *client.Manager
	items    *client.Manager
}

// New binds the form records to c, whose registry must include Models.
func New(c *client.Client) (*Forms, error) {
	f := &Forms{}
	for name, dst := range map[string]**client.Manager{
		SectionModel:  &f.sections,
		FieldModel:    &f.fields,
		ListModel:     &f.lists,
		ListItemModel: &f.items,
	} {
		mgr, err := c.Model(name)
		if err != nil {
			return nil, fmt.Errorf("forms: %w", err)
		}
		*dst = mgr
	}
	return f, nil
}

// stamp marks a dirty record as updated now.
func stamp(e *entity.Entity) {
	if e.IsDirty() {
		e.Set("updated", entity.CurrentTimestamp)
	}
}

// numericID accepts integer ids and their decimal spelling.
func numericID(id any) (int64, bool) {
	switch v := id.(type) {
	case int:
		return int64(v), v > 0
	case int64:
		return v, v > 0
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil && n > 0
	default:
		return 0, false
	}
}

func text(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}
