// Package entity implements records that remember which attributes changed
// since they were loaded, so that saving writes only the difference.
package entity

import (
	"context"
	"fmt"
	"maps"
	"reflect"
	"sort"

	"github.com/satishbabariya/queryset/internal/core/meta"
	"github.com/satishbabariya/queryset/internal/core/query/compiler"
	"github.com/satishbabariya/queryset/internal/core/query/domain"
)

// Validator is consulted by Save before anything is written.
type Validator interface {
	IsValid() bool
}

// Entity is one row of a model. It is not safe for concurrent use.
type Entity struct {
	meta      *meta.Meta
	store     *Store
	attrs     map[string]any
	dirty     map[string]any
	isNew     bool
	cache     map[string]any
	validator Validator
}

// New creates an unsaved entity. Every initial attribute counts as changed;
// nothing touches storage until Save.
func New(store *Store, m *meta.Meta, attrs map[string]any) *Entity {
	e := &Entity{
		meta:  m,
		store: store,
		attrs: make(map[string]any, len(attrs)),
		dirty: make(map[string]any, len(attrs)),
		isNew: true,
	}
	for field, value := range attrs {
		e.attrs[field] = value
		e.dirty[field] = nil
	}
	return e
}

// Load wraps attributes read from storage.
func Load(store *Store, m *meta.Meta, attrs map[string]any) *Entity {
	return &Entity{
		meta:  m,
		store: store,
		attrs: maps.Clone(attrs),
		dirty: make(map[string]any),
	}
}

// Meta returns the entity's model.
func (e *Entity) Meta() *meta.Meta { return e.meta }

// Store returns the store the entity persists through.
func (e *Entity) Store() *Store { return e.store }

// Bind sets the validator consulted by Save. Record types bind themselves.
func (e *Entity) Bind(v Validator) { e.validator = v }

// Get returns the current value of field, nil when unset.
func (e *Entity) Get(field string) any {
	return e.attrs[field]
}

// Has reports whether field is set.
func (e *Entity) Has(field string) bool {
	_, ok := e.attrs[field]
	return ok
}

// Set changes field and records its prior value. Setting the current value
// again is a no-op; setting a changed field again keeps the first prior
// value.
func (e *Entity) Set(field string, value any) {
	old := e.attrs[field]
	if equal(old, value) {
		return
	}
	if _, dirty := e.dirty[field]; !dirty {
		e.dirty[field] = old
	}
	e.attrs[field] = value
}

// SetAll calls Set for every pair, in key order.
func (e *Entity) SetAll(values map[string]any) {
	fields := make([]string, 0, len(values))
	for f := range values {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		e.Set(f, values[f])
	}
}

// Attributes returns a copy of every attribute.
func (e *Entity) Attributes() map[string]any {
	return maps.Clone(e.attrs)
}

// IsNew reports whether the entity has never been inserted.
func (e *Entity) IsNew() bool { return e.isNew }

// IsDirty reports whether any attribute changed since load or the last
// save. With field names, only those are checked.
func (e *Entity) IsDirty(fields ...string) bool {
	if len(fields) == 0 {
		return len(e.dirty) > 0
	}
	for _, f := range fields {
		if _, ok := e.dirty[f]; ok {
			return true
		}
	}
	return false
}

// DirtyFields returns the changed attribute names in sorted order.
func (e *Entity) DirtyFields() []string {
	fields := make([]string, 0, len(e.dirty))
	for f := range e.dirty {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// Prior returns the value field had before it was first changed.
func (e *Entity) Prior(field string) (any, bool) {
	v, ok := e.dirty[field]
	return v, ok
}

// PK returns the current primary key values.
func (e *Entity) PK() []any {
	out := make([]any, len(e.meta.PK))
	for i, col := range e.meta.PK {
		out[i] = e.attrs[col]
	}
	return out
}

// Save writes the changed attributes: an INSERT for a new entity, otherwise
// an UPDATE bound to the primary key that must hit exactly one row.
func (e *Entity) Save(ctx context.Context) error {
	if e.validator != nil && !e.validator.IsValid() {
		return fmt.Errorf("save %s: %w", e.meta.Name, ErrValidation)
	}
	if len(e.dirty) == 0 {
		return nil
	}
	if e.isNew {
		return e.insert(ctx)
	}
	return e.update(ctx)
}

func (e *Entity) insert(ctx context.Context) error {
	fields := e.DirtyFields()
	values := make([]compiler.Assignment, len(fields))
	for i, f := range fields {
		values[i] = compiler.Assignment{Column: f, Value: e.attrs[f]}
	}

	stmt, err := e.store.compiler.CompileInsert(e.meta, values)
	if err != nil {
		return err
	}
	res, affected, err := e.store.exec(ctx, e.meta, stmt)
	if err != nil {
		return err
	}
	if affected != 1 {
		return fmt.Errorf("insert %s: %d rows affected: %w", e.meta.Name, affected, ErrConcurrency)
	}

	if len(e.meta.PK) == 1 && e.attrs[e.meta.PK[0]] == nil {
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert %s: reading generated key: %w", e.meta.Name, err)
		}
		e.attrs[e.meta.PK[0]] = id
	}

	e.isNew = false
	e.dirty = make(map[string]any)
	return nil
}

func (e *Entity) update(ctx context.Context) error {
	var set []compiler.Assignment
	for _, f := range e.DirtyFields() {
		if e.meta.IsPrimaryKey(f) {
			return fmt.Errorf("update %s: column %s: %w", e.meta.Name, f, ErrKeyChanged)
		}
		set = append(set, compiler.Assignment{Column: f, Value: e.attrs[f]})
	}

	stmt, err := e.store.compiler.CompileUpdate(e.meta, set, e.key(e.meta.PK))
	if err != nil {
		return err
	}
	_, affected, err := e.store.exec(ctx, e.meta, stmt)
	if err != nil {
		return err
	}
	if affected != 1 {
		return fmt.Errorf("update %s: %d rows affected: %w", e.meta.Name, affected, ErrConcurrency)
	}

	e.dirty = make(map[string]any)
	return nil
}

// Delete removes the row identified by the primary key, or by columns when
// given. Exactly one row must be removed.
func (e *Entity) Delete(ctx context.Context, columns ...string) error {
	if len(columns) == 0 {
		columns = e.meta.PK
	}

	stmt, err := e.store.compiler.CompileDelete(e.meta, e.key(columns))
	if err != nil {
		return err
	}
	_, affected, err := e.store.exec(ctx, e.meta, stmt)
	if err != nil {
		return err
	}
	if affected != 1 {
		return fmt.Errorf("delete %s: %d rows affected: %w", e.meta.Name, affected, ErrConcurrency)
	}
	return nil
}

// Refresh reloads every attribute from storage, discarding pending changes
// and cached relations.
func (e *Entity) Refresh(ctx context.Context) error {
	q := domain.Q{}
	for _, a := range e.key(e.meta.PK) {
		if a.Value == nil {
			return fmt.Errorf("refresh %s: %w", e.meta.Name, compiler.ErrMissingKey)
		}
		q[a.Column] = a.Value
	}

	fresh, err := e.store.FindOne(ctx, e.meta, q)
	if err != nil {
		return err
	}
	if fresh == nil {
		return fmt.Errorf("refresh %s: %w", e.meta.Name, ErrNotFound)
	}

	e.attrs = fresh.attrs
	e.dirty = make(map[string]any)
	e.isNew = false
	e.ResetCache()
	return nil
}

// Related returns the entity a declared relation points at, or nil when the
// local columns are NULL or nothing matches. The result is cached until
// ResetCache.
func (e *Entity) Related(ctx context.Context, name string) (*Entity, error) {
	v, err := e.Cached("related:"+name, func() (any, error) {
		rel, ok := e.meta.Relation(name)
		if !ok {
			return nil, fmt.Errorf("%w: model %s has no relation %q", meta.ErrConfiguration, e.meta.Name, name)
		}
		target, err := e.store.Registry().Target(rel)
		if err != nil {
			return nil, err
		}

		q := domain.Q{}
		for _, p := range rel.On {
			v := e.attrs[p.Local]
			if v == nil {
				return (*Entity)(nil), nil
			}
			q[p.Foreign] = v
		}
		return e.store.FindOne(ctx, target, q)
	})
	if err != nil {
		return nil, err
	}
	related, _ := v.(*Entity)
	return related, nil
}

// Cached returns the value stored under key, computing it with fn the first
// time. Errors are not cached.
func (e *Entity) Cached(key string, fn func() (any, error)) (any, error) {
	if v, ok := e.cache[key]; ok {
		return v, nil
	}
	v, err := fn()
	if err != nil {
		return nil, err
	}
	if e.cache == nil {
		e.cache = make(map[string]any)
	}
	e.cache[key] = v
	return v, nil
}

// ResetCache drops every cached derived value.
func (e *Entity) ResetCache() {
	e.cache = nil
}

// key pairs columns with the values that identify the stored row, which for
// changed columns of a saved entity are their prior values.
func (e *Entity) key(columns []string) []compiler.Assignment {
	key := make([]compiler.Assignment, len(columns))
	for i, col := range columns {
		v := e.attrs[col]
		if prior, ok := e.dirty[col]; ok && !e.isNew {
			v = prior
		}
		key[i] = compiler.Assignment{Column: col, Value: v}
	}
	return key
}

// equal compares attribute values. Integers compare by value across widths,
// as drivers return int64 where callers often pass int. Expressions never
// compare equal.
func equal(a, b any) bool {
	if _, ok := a.(domain.Expression); ok {
		return false
	}
	if _, ok := b.(domain.Expression); ok {
		return false
	}

	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if isInt(ra) && isInt(rb) {
		return ra.Int() == rb.Int()
	}
	if isNumber(ra) && isNumber(rb) {
		return toFloat(ra) == toFloat(rb)
	}
	return reflect.DeepEqual(a, b)
}

func isInt(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isNumber(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return isInt(v)
}

func toFloat(v reflect.Value) float64 {
	switch {
	case isInt(v):
		return float64(v.Int())
	case v.Kind() == reflect.Float32 || v.Kind() == reflect.Float64:
		return v.Float()
	default:
		return float64(v.Uint())
	}
}
