package forms

import (
	"context"

	"github.com/satishbabariya/queryset/internal/core/entity"
	"github.com/satishbabariya/queryset/internal/core/query/domain"
)

// Section is a form template: a titled group of fields.
type Section struct {
	*entity.Entity
	forms *Forms
}

func (f *Forms) section(e *entity.Entity) *Section {
	if e == nil {
		return nil
	}
	return &Section{Entity: e, forms: f}
}

// CreateSection returns a new unsaved section stamped as created now.
func (f *Forms) CreateSection(attrs map[string]any) *Section {
	e := f.sections.Create(attrs)
	e.Set("created", entity.CurrentTimestamp)
	return f.section(e)
}

// LookupSection returns the section with a positive numeric id, or nil.
func (f *Forms) LookupSection(ctx context.Context, id any) (*Section, error) {
	n, ok := numericID(id)
	if !ok {
		return nil, nil
	}
	e, err := f.sections.Lookup(ctx, n)
	if err != nil {
		return nil, err
	}
	return f.section(e), nil
}

// Title returns the section title.
func (s *Section) Title() string { return text(s.Get("title")) }

// Instructions returns the text shown above the fields.
func (s *Section) Instructions() string { return text(s.Get("instructions")) }

// Fields returns the fields attached to the section in sort order. The
// result is cached until ResetCache.
func (s *Section) Fields(ctx context.Context) ([]*Field, error) {
	v, err := s.Cached("fields", func() (any, error) {
		rows, err := s.forms.fields.Objects().Filter(domain.Q{"section_id": s.Get("id")}).All(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]*Field, len(rows))
		for i, e := range rows {
			out[i] = s.forms.field(e)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*Field), nil
}

// Save stamps the update time when anything changed, then saves.
func (s *Section) Save(ctx context.Context) error {
	stamp(s.Entity)
	return s.Entity.Save(ctx)
}
