// Package iterator executes a compiled statement once and hands out its rows
// sequentially or by index, caching every row it has hydrated.
package iterator

import (
	"context"
	"fmt"
	"iter"
	"math"
)

// Cursor is the subset of *sql.Rows the iterator reads from.
type Cursor interface {
	Columns() ([]string, error)
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// Opener executes the statement and returns its cursor.
type Opener func(ctx context.Context) (Cursor, error)

// Hydrator turns one raw row into a result value.
type Hydrator[T any] func(columns []string, values []any) (T, error)

// Iterator is a lazy, single-execution result set. It is not safe for
// concurrent use.
type Iterator[T any] struct {
	open    Opener
	hydrate Hydrator[T]

	opened  bool
	cursor  Cursor
	columns []string
	cache   []T
	pos     int
	current T
	err     error
}

// New creates an iterator that runs open on first access.
func New[T any](open Opener, hydrate Hydrator[T]) *Iterator[T] {
	return &Iterator[T]{open: open, hydrate: hydrate}
}

// FillTo fetches rows until the row at index is cached or the cursor is
// exhausted.
func (it *Iterator[T]) FillTo(ctx context.Context, index int) error {
	if index < len(it.cache) {
		return nil
	}
	if err := it.start(ctx); err != nil {
		return err
	}

	for it.cursor != nil && len(it.cache) <= index {
		if err := ctx.Err(); err != nil {
			it.fail(err)
			return err
		}
		if !it.cursor.Next() {
			if err := it.cursor.Err(); err != nil {
				it.fail(fmt.Errorf("reading rows: %w", err))
				return it.err
			}
			it.finish()
			break
		}
		row, err := it.scan()
		if err != nil {
			it.fail(err)
			return err
		}
		it.cache = append(it.cache, row)
	}
	return it.err
}

// At returns the row at index. ok is false when the result set has fewer
// rows.
func (it *Iterator[T]) At(ctx context.Context, index int) (row T, ok bool, err error) {
	if index < 0 {
		return row, false, nil
	}
	if err := it.FillTo(ctx, index); err != nil {
		return row, false, err
	}
	if index >= len(it.cache) {
		return row, false, nil
	}
	return it.cache[index], true, nil
}

// All drains the cursor and returns every row.
func (it *Iterator[T]) All(ctx context.Context) ([]T, error) {
	if err := it.FillTo(ctx, math.MaxInt-1); err != nil {
		return nil, err
	}
	out := make([]T, len(it.cache))
	copy(out, it.cache)
	return out, nil
}

// Next advances to the next row. It returns false at the end of the result
// set or on error; check Err afterwards.
func (it *Iterator[T]) Next(ctx context.Context) bool {
	row, ok, err := it.At(ctx, it.pos)
	if err != nil || !ok {
		var zero T
		it.current = zero
		return false
	}
	it.current = row
	it.pos++
	return true
}

// Value returns the row Next advanced to.
func (it *Iterator[T]) Value() T {
	return it.current
}

// Err returns the first error the iterator hit.
func (it *Iterator[T]) Err() error {
	return it.err
}

// Rows yields the remaining rows in order, advancing the same position as
// Next. Iteration stops after yielding the first error.
func (it *Iterator[T]) Rows(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for it.Next(ctx) {
			if !yield(it.current, nil) {
				return
			}
		}
		if it.err != nil {
			var zero T
			yield(zero, it.err)
		}
	}
}

// Cached returns the number of rows fetched so far.
func (it *Iterator[T]) Cached() int {
	return len(it.cache)
}

// Started reports whether the statement has been executed.
func (it *Iterator[T]) Started() bool {
	return it.opened
}

// Exhausted reports whether the cursor has been fully read or abandoned.
func (it *Iterator[T]) Exhausted() bool {
	return it.opened && it.cursor == nil
}

// Columns returns the column names of the result set once it is open.
func (it *Iterator[T]) Columns() []string {
	return it.columns
}

// Close releases the cursor early. Cached rows stay available.
func (it *Iterator[T]) Close() error {
	it.opened = true
	if it.cursor == nil {
		return nil
	}
	err := it.cursor.Close()
	it.cursor = nil
	return err
}

func (it *Iterator[T]) start(ctx context.Context) error {
	if it.opened {
		return it.err
	}
	it.opened = true

	cursor, err := it.open(ctx)
	if err != nil {
		it.err = err
		return err
	}
	columns, err := cursor.Columns()
	if err != nil {
		cursor.Close()
		it.err = fmt.Errorf("reading columns: %w", err)
		return it.err
	}

	it.cursor = cursor
	it.columns = columns
	return nil
}

func (it *Iterator[T]) scan() (T, error) {
	values := make([]any, len(it.columns))
	dest := make([]any, len(it.columns))
	for i := range values {
		dest[i] = &values[i]
	}

	if err := it.cursor.Scan(dest...); err != nil {
		var zero T
		return zero, fmt.Errorf("scanning row: %w", err)
	}
	for i, v := range values {
		if b, ok := v.([]byte); ok {
			values[i] = string(b)
		}
	}
	return it.hydrate(it.columns, values)
}

func (it *Iterator[T]) finish() {
	it.cursor.Close()
	it.cursor = nil
}

func (it *Iterator[T]) fail(err error) {
	if it.err == nil {
		it.err = err
	}
	if it.cursor != nil {
		it.cursor.Close()
		it.cursor = nil
	}
}

// Tuple hydrates a row as its raw values in column order.
func Tuple(_ []string, values []any) ([]any, error) {
	return values, nil
}

// Record hydrates a row as a column map. The first occurrence of a repeated
// column name wins.
func Record(columns []string, values []any) (map[string]any, error) {
	out := make(map[string]any, len(columns))
	for i, col := range columns {
		if _, seen := out[col]; seen {
			continue
		}
		out[col] = values[i]
	}
	return out, nil
}
