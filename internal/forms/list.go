package forms

import (
	"context"

	"github.com/satishbabariya/queryset/internal/core/entity"
	"github.com/satishbabariya/queryset/internal/core/query/builder"
	"github.com/satishbabariya/queryset/internal/core/query/domain"
)

// SortMode is a way a list orders its items.
type SortMode struct {
	Key   string
	Label string
}

// SortModes are the values a list's sort_mode may take.
var SortModes = []SortMode{
	{Key: "Alpha", Label: "Alphabetical"},
	{Key: "-Alpha", Label: "Alphabetical (Reversed)"},
	{Key: "SortCol", Label: "By Sort column"},
}

// List is a named set of selection items.
type List struct {
	*entity.Entity
	forms *Forms
}

func (f *Forms) list(e *entity.Entity) *List {
	if e == nil {
		return nil
	}
	return &List{Entity: e, forms: f}
}

// CreateList returns a new unsaved list stamped as created now.
func (f *Forms) CreateList(attrs map[string]any) *List {
	e := f.lists.Create(attrs)
	e.Set("created", entity.CurrentTimestamp)
	return f.list(e)
}

// LookupList returns the list with a positive numeric id, or nil.
func (f *Forms) LookupList(ctx context.Context, id any) (*List, error) {
	n, ok := numericID(id)
	if !ok {
		return nil, nil
	}
	e, err := f.lists.Lookup(ctx, n)
	if err != nil {
		return nil, err
	}
	return f.list(e), nil
}

// Name returns the list name.
func (l *List) Name() string { return text(l.Get("name")) }

// PluralName returns plural_name, or the name with an "s" appended.
func (l *List) PluralName() string {
	if name := text(l.Get("plural_name")); name != "" {
		return name
	}
	return l.Name() + "s"
}

// OrderBy returns the item order reference for the list's sort mode, or ""
// when none is set.
func (l *List) OrderBy() string {
	switch l.Get("sort_mode") {
	case "Alpha":
		return "value"
	case "-Alpha":
		return "-value"
	case "SortCol":
		return "sort"
	default:
		return ""
	}
}

// Items returns the list's items in the list's sort order.
func (l *List) Items() *builder.QuerySet {
	qs := l.forms.items.Objects().Filter(domain.Q{"list_id": l.Get("id")})
	if order := l.OrderBy(); order != "" {
		qs.OrderBy(order)
	}
	return qs
}

// ItemCount counts the list's items.
func (l *List) ItemCount(ctx context.Context) (int64, error) {
	return l.forms.items.Objects().Filter(domain.Q{"list_id": l.Get("id")}).Count(ctx)
}

// AddItem returns a new unsaved item attached to the list.
func (l *List) AddItem(attrs map[string]any) *ListItem {
	e := l.forms.items.Create(attrs)
	e.Set("list_id", l.Get("id"))
	return &ListItem{Entity: e}
}

// Save stamps the update time when anything changed, then saves.
func (l *List) Save(ctx context.Context) error {
	stamp(l.Entity)
	return l.Entity.Save(ctx)
}

// ListItem is one selectable value of a list.
type ListItem struct {
	*entity.Entity
}

// Item wraps a row returned by List.Items.
func Item(e *entity.Entity) *ListItem {
	return &ListItem{Entity: e}
}

// String returns the item value.
func (i *ListItem) String() string { return text(i.Get("value")) }

// Delete detaches the item from its list instead of removing the row.
func (i *ListItem) Delete(ctx context.Context) error {
	i.Set("list_id", nil)
	return i.Save(ctx)
}
