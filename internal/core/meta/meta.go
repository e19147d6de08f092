// Package meta describes record types: their table, key, default ordering
// and relations to other record types.
package meta

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Pair is one equality condition of a relation: the local column of the
// current model equals the foreign column of the target model.
type Pair struct {
	Local   string
	Foreign string
}

// Relation points from one model to another.
type Relation struct {
	// Model is the registered name of the target model.
	Model string

	// On lists the equality pairs joining the two tables.
	On []Pair

	// Nullable relations are joined with LEFT JOIN.
	Nullable bool
}

// Meta is the metadata of one record type.
type Meta struct {
	// Name is the registry key, e.g. "DynamicListItem".
	Name string

	// Table is the backing table.
	Table string

	// PK lists the primary key columns in order.
	PK []string

	// Ordering is the default order; a "-" prefix means descending.
	Ordering []string

	// Relations maps relation names to their definitions.
	Relations map[string]Relation
}

// Validate checks the metadata in isolation.
func (m *Meta) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("%w: model without a name", ErrConfiguration)
	}
	if m.Table == "" {
		return fmt.Errorf("%w: model %s has no table", ErrConfiguration, m.Name)
	}
	if len(m.PK) == 0 {
		return fmt.Errorf("%w: model %s has no primary key", ErrConfiguration, m.Name)
	}
	for _, col := range m.PK {
		if col == "" {
			return fmt.Errorf("%w: model %s has an empty primary key column", ErrConfiguration, m.Name)
		}
	}
	for name, rel := range m.Relations {
		if name == "" || strings.Contains(name, "__") {
			return fmt.Errorf("%w: model %s has invalid relation name %q", ErrConfiguration, m.Name, name)
		}
		if len(rel.On) == 0 {
			return fmt.Errorf("%w: relation %s.%s has no join columns", ErrConfiguration, m.Name, name)
		}
	}
	return nil
}

// Relation returns the named relation.
func (m *Meta) Relation(name string) (Relation, bool) {
	rel, ok := m.Relations[name]
	return rel, ok
}

// RelationNames returns the relation names in sorted order.
func (m *Meta) RelationNames() []string {
	names := make([]string, 0, len(m.Relations))
	for name := range m.Relations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsPrimaryKey reports whether col is part of the primary key.
func (m *Meta) IsPrimaryKey(col string) bool {
	return slices.Contains(m.PK, col)
}

func (m *Meta) clone() *Meta {
	c := &Meta{
		Name:     m.Name,
		Table:    m.Table,
		PK:       slices.Clone(m.PK),
		Ordering: slices.Clone(m.Ordering),
	}
	if m.Relations != nil {
		c.Relations = make(map[string]Relation, len(m.Relations))
		for name, rel := range m.Relations {
			rel.On = slices.Clone(rel.On)
			c.Relations[name] = rel
		}
	}
	return c
}
