package forms

import (
	"context"
	"maps"
	"strconv"
	"strings"

	"github.com/satishbabariya/queryset/internal/core/entity"
)

// Field is one field template of a form section.
type Field struct {
	*entity.Entity
	errors map[string]string
}

func (f *Forms) field(e *entity.Entity) *Field {
	if e == nil {
		return nil
	}
	fl := &Field{Entity: e}
	e.Bind(fl)
	return fl
}

// CreateField returns a new unsaved field stamped as created now.
func (f *Forms) CreateField(attrs map[string]any) *Field {
	e := f.fields.Create(attrs)
	e.Set("created", entity.CurrentTimestamp)
	return f.field(e)
}

// LookupField returns the field with a positive numeric id, or nil.
func (f *Forms) LookupField(ctx context.Context, id any) (*Field, error) {
	n, ok := numericID(id)
	if !ok {
		return nil, nil
	}
	e, err := f.fields.Lookup(ctx, n)
	if err != nil {
		return nil, err
	}
	return f.field(e), nil
}

// Name returns the field's machine name.
func (fl *Field) Name() string { return text(fl.Get("name")) }

// Label returns the field's display label.
func (fl *Field) Label() string { return text(fl.Get("label")) }

// IsValid checks the template: sort must be numeric and name must not
// contain spaces. Details are available from Errors.
func (fl *Field) IsValid() bool {
	fl.errors = make(map[string]string)
	if !isNumeric(fl.Get("sort")) {
		fl.errors["sort"] = "Enter a number"
	}
	if strings.Contains(fl.Name(), " ") {
		fl.errors["name"] = "Name cannot contain spaces"
	}
	return len(fl.errors) == 0
}

// Errors returns the problems found by the last IsValid, keyed by column.
func (fl *Field) Errors() map[string]string {
	return maps.Clone(fl.errors)
}

// Save stamps the update time when anything changed, then saves.
func (fl *Field) Save(ctx context.Context) error {
	stamp(fl.Entity)
	return fl.Entity.Save(ctx)
}

// Delete detaches the field from its section instead of removing the row,
// so answers already given to it keep their field.
func (fl *Field) Delete(ctx context.Context) error {
	fl.Set("section_id", 0)
	return fl.Save(ctx)
}

func isNumeric(v any) bool {
	switch n := v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	case string:
		_, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return err == nil
	default:
		return false
	}
}
