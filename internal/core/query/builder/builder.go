// Package builder provides the lazily evaluated, chainable query set.
package builder

import (
	"context"
	"maps"

	"github.com/satishbabariya/queryset/internal/core/entity"
	"github.com/satishbabariya/queryset/internal/core/meta"
	"github.com/satishbabariya/queryset/internal/core/query/compiler"
	"github.com/satishbabariya/queryset/internal/core/query/domain"
	"github.com/satishbabariya/queryset/internal/core/query/iterator"
)

// QuerySet describes a query on one model. Chained methods mutate the
// receiver and return it; nothing runs until results are requested. The
// compiled statement and its iterators are built once and reused until the
// description changes again.
//
// A QuerySet is not safe for concurrent use. Use Clone to branch off
// independent refinements.
type QuerySet struct {
	store *entity.Store
	model *meta.Meta
	state *domain.State

	stmt     *compiler.Statement
	entities *iterator.Iterator[*entity.Entity]
	tuples   *iterator.Iterator[[]any]
}

// New creates a query set over every row of m.
func New(store *entity.Store, m *meta.Meta) *QuerySet {
	return &QuerySet{store: store, model: m, state: &domain.State{}}
}

// Model returns the queried model.
func (qs *QuerySet) Model() *meta.Meta {
	return qs.model
}

// State returns a copy of the accumulated description.
func (qs *QuerySet) State() *domain.State {
	return qs.state.Clone()
}

// Filter keeps rows matching at least one of the given maps. Successive
// calls must all hold. A call without maps is ignored.
func (qs *QuerySet) Filter(where ...domain.Q) *QuerySet {
	if g := group(where); g != nil {
		qs.state.Filters = append(qs.state.Filters, g)
		qs.reset()
	}
	return qs
}

// Exclude drops rows matching at least one of the given maps.
func (qs *QuerySet) Exclude(where ...domain.Q) *QuerySet {
	if g := group(where); g != nil {
		qs.state.Exclusions = append(qs.state.Exclusions, g)
		qs.reset()
	}
	return qs
}

// OrderBy appends order references such as "name" or "-created". Without
// any, the model's default ordering applies.
func (qs *QuerySet) OrderBy(refs ...string) *QuerySet {
	if len(refs) > 0 {
		qs.state.Ordering = append(qs.state.Ordering, refs...)
		qs.reset()
	}
	return qs
}

// Limit caps the number of rows.
func (qs *QuerySet) Limit(n int) *QuerySet {
	qs.state.Limit = &n
	qs.reset()
	return qs
}

// Offset skips rows.
func (qs *QuerySet) Offset(n int) *QuerySet {
	qs.state.Offset = &n
	qs.reset()
	return qs
}

// SelectRelated adds the columns of the tables reached through the given
// relation paths. It takes precedence over Values.
func (qs *QuerySet) SelectRelated(paths ...string) *QuerySet {
	if len(paths) > 0 {
		qs.state.Related = append(qs.state.Related, paths...)
		qs.reset()
	}
	return qs
}

// Values restricts the selected columns, for use with ValuesList and
// ValuesIterator.
func (qs *QuerySet) Values(columns ...string) *QuerySet {
	if len(columns) > 0 {
		qs.state.Values = append(qs.state.Values, columns...)
		qs.reset()
	}
	return qs
}

// Find applies a filter, an order reference and a window in one call. Empty
// and zero arguments are skipped.
func (qs *QuerySet) Find(where domain.Q, order string, limit, offset int) *QuerySet {
	if where != nil {
		qs.Filter(where)
	}
	if order != "" {
		qs.OrderBy(order)
	}
	if limit > 0 {
		qs.Limit(limit)
	}
	if offset > 0 {
		qs.Offset(offset)
	}
	return qs
}

// Clone returns an independent copy without any compiled state.
func (qs *QuerySet) Clone() *QuerySet {
	return &QuerySet{store: qs.store, model: qs.model, state: qs.state.Clone()}
}

// Statement compiles the query, once.
func (qs *QuerySet) Statement() (*compiler.Statement, error) {
	if qs.stmt != nil {
		return qs.stmt, nil
	}
	stmt, err := qs.store.Compiler().CompileSelect(qs.model, qs.state)
	if err != nil {
		return nil, err
	}
	qs.stmt = stmt
	return stmt, nil
}

// SQL returns the compiled statement text.
func (qs *QuerySet) SQL() (string, error) {
	stmt, err := qs.Statement()
	if err != nil {
		return "", err
	}
	return stmt.SQL, nil
}

// Iterator returns the entity iterator bound to this query set.
func (qs *QuerySet) Iterator() *iterator.Iterator[*entity.Entity] {
	if qs.entities == nil {
		qs.entities = iterator.New(qs.opener(), qs.store.Hydrator(qs.model))
	}
	return qs.entities
}

// ValuesIterator returns the tuple iterator bound to this query set. Tuples
// follow the selected column order.
func (qs *QuerySet) ValuesIterator() *iterator.Iterator[[]any] {
	if qs.tuples == nil {
		qs.tuples = iterator.New(qs.opener(), iterator.Tuple)
	}
	return qs.tuples
}

// All returns every matching entity.
func (qs *QuerySet) All(ctx context.Context) ([]*entity.Entity, error) {
	return qs.Iterator().All(ctx)
}

// ValuesList returns every matching row as a tuple.
func (qs *QuerySet) ValuesList(ctx context.Context) ([][]any, error) {
	return qs.ValuesIterator().All(ctx)
}

// At returns the entity at index, or nil past the end. Once the query set's
// iterator has run, the row comes from its cache. Otherwise a single-row
// query is executed and its cursor closed before At returns.
func (qs *QuerySet) At(ctx context.Context, index int) (*entity.Entity, error) {
	if index < 0 {
		return nil, nil
	}
	if qs.entities != nil && qs.entities.Started() {
		e, ok, err := qs.entities.At(ctx, index)
		if err != nil || !ok {
			return nil, err
		}
		return e, nil
	}

	if lim := qs.state.Limit; lim != nil && index >= *lim {
		return nil, nil
	}
	single := qs.Clone()
	if index > 0 {
		offset := 0
		if qs.state.Offset != nil {
			offset = *qs.state.Offset
		}
		single.Offset(offset + index)
	}
	single.Limit(1)

	it := single.Iterator()
	defer it.Close()
	e, ok, err := it.At(ctx, 0)
	if err != nil || !ok {
		return nil, err
	}
	return e, nil
}

// First returns the first entity, or nil when nothing matches.
func (qs *QuerySet) First(ctx context.Context) (*entity.Entity, error) {
	return qs.At(ctx, 0)
}

// Close releases any cursor still held by the query set's iterators. Rows
// already fetched stay cached.
func (qs *QuerySet) Close() error {
	var err error
	if qs.entities != nil {
		err = qs.entities.Close()
	}
	if qs.tuples != nil {
		if terr := qs.tuples.Close(); err == nil {
			err = terr
		}
	}
	return err
}

// Count returns the number of matching rows, ignoring ordering, projection
// and pagination.
func (qs *QuerySet) Count(ctx context.Context) (int64, error) {
	return qs.store.Count(ctx, qs.model, qs.state)
}

// Exists reports whether at least one row matches.
func (qs *QuerySet) Exists(ctx context.Context) (bool, error) {
	probe := qs.Clone().Limit(1)
	_, ok, err := probe.ValuesIterator().At(ctx, 0)
	if err != nil {
		return false, err
	}
	probe.ValuesIterator().Close()
	return ok, nil
}

// opener binds the current statement; a compile error surfaces on first
// access.
func (qs *QuerySet) opener() iterator.Opener {
	stmt, err := qs.Statement()
	if err != nil {
		return func(context.Context) (iterator.Cursor, error) { return nil, err }
	}
	return qs.store.Opener(qs.model, stmt)
}

func (qs *QuerySet) reset() {
	qs.stmt = nil
	qs.entities = nil
	qs.tuples = nil
}

func group(where []domain.Q) domain.Group {
	if len(where) == 0 {
		return nil
	}
	g := make(domain.Group, len(where))
	for i, q := range where {
		g[i] = maps.Clone(q)
		if g[i] == nil {
			g[i] = domain.Q{}
		}
	}
	return g
}
