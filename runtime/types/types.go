// Package types re-exports the mapping layer's public types for code outside
// this module.
package types

import (
	"github.com/satishbabariya/queryset/internal/core/entity"
	"github.com/satishbabariya/queryset/internal/core/meta"
	"github.com/satishbabariya/queryset/internal/core/query/builder"
	"github.com/satishbabariya/queryset/internal/core/query/domain"
)

// Q is an attribute map of lookups to values.
type Q = domain.Q

// Meta describes one record type.
type Meta = meta.Meta

// Relation is a declared join from one model to another.
type Relation = meta.Relation

// Pair is one local = foreign column equality of a relation.
type Pair = meta.Pair

// Registry holds every declared model.
type Registry = meta.Registry

// Entity is one record instance.
type Entity = entity.Entity

// Validator gates Entity.Save.
type Validator = entity.Validator

// QuerySet is a lazily evaluated query on one model.
type QuerySet = builder.QuerySet

// Expression is a value rendered as SQL instead of being bound.
type Expression = domain.Expression

var (
	ErrConfiguration = meta.ErrConfiguration
	ErrValidation    = entity.ErrValidation
	ErrConcurrency   = entity.ErrConcurrency
	ErrKeyChanged    = entity.ErrKeyChanged
	ErrNotFound      = entity.ErrNotFound
)

// NewRegistry validates models and registers them.
func NewRegistry(models ...*Meta) (*Registry, error) {
	return meta.NewRegistry(models...)
}

// Func renders a SQL function call such as NOW().
func Func(name string, args ...any) entity.SQLFunc {
	return entity.Func(name, args...)
}
