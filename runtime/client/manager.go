package client

import (
	"context"

	"github.com/satishbabariya/queryset/internal/core/entity"
	"github.com/satishbabariya/queryset/internal/core/meta"
	"github.com/satishbabariya/queryset/internal/core/query/builder"
	"github.com/satishbabariya/queryset/internal/core/query/domain"
)

// Manager is the per-model entry point for creating, loading and querying
// records.
type Manager struct {
	store *entity.Store
	meta  *meta.Meta
}

// Meta returns the managed model.
func (m *Manager) Meta() *meta.Meta {
	return m.meta
}

// Objects starts a query set over every row of the model.
func (m *Manager) Objects() *builder.QuerySet {
	return builder.New(m.store, m.meta)
}

// Create returns a new unsaved record. Every initial attribute is dirty.
func (m *Manager) Create(attrs map[string]any) *entity.Entity {
	return entity.New(m.store, m.meta, attrs)
}

// Load wraps attributes read elsewhere as a clean, persisted record.
func (m *Manager) Load(attrs map[string]any) *entity.Entity {
	return entity.Load(m.store, m.meta, attrs)
}

// Lookup returns the one record matching v, or nil. A Q (or plain map) is
// used as a filter; any other value matches the first primary-key column.
func (m *Manager) Lookup(ctx context.Context, v any) (*entity.Entity, error) {
	var q domain.Q
	switch where := v.(type) {
	case domain.Q:
		q = where
	case map[string]any:
		q = domain.Q(where)
	default:
		q = domain.Q{m.meta.PK[0]: v}
	}
	return m.store.FindOne(ctx, m.meta, q)
}
