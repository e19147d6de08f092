package entity

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/satishbabariya/queryset/internal/adapters/database"
	"github.com/satishbabariya/queryset/internal/adapters/telemetry"
	"github.com/satishbabariya/queryset/internal/core/meta"
	"github.com/satishbabariya/queryset/internal/core/query/compiler"
	"github.com/satishbabariya/queryset/internal/core/query/domain"
	"github.com/satishbabariya/queryset/internal/core/query/iterator"
	"github.com/satishbabariya/queryset/internal/debug"
)

// Store binds a compiler to the executor its statements run on.
type Store struct {
	compiler *compiler.Compiler
	db       database.Executor
}

// NewStore creates a store.
func NewStore(c *compiler.Compiler, db database.Executor) *Store {
	return &Store{compiler: c, db: db}
}

// Compiler returns the store's compiler.
func (s *Store) Compiler() *compiler.Compiler {
	return s.compiler
}

// Registry returns the models the store knows.
func (s *Store) Registry() *meta.Registry {
	return s.compiler.Registry()
}

// Opener returns a function running stmt, for use with iterator.New.
func (s *Store) Opener(m *meta.Meta, stmt *compiler.Statement) iterator.Opener {
	return func(ctx context.Context) (iterator.Cursor, error) {
		rows, err := s.db.Query(telemetry.WithModel(ctx, m.Name), stmt.SQL, stmt.Args...)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", m.Name, err)
		}
		return rows, nil
	}
}

// Hydrator returns a row hydrator producing loaded entities of m.
func (s *Store) Hydrator(m *meta.Meta) iterator.Hydrator[*Entity] {
	return func(columns []string, values []any) (*Entity, error) {
		attrs, err := iterator.Record(columns, values)
		if err != nil {
			return nil, err
		}
		return Load(s, m, attrs), nil
	}
}

// Count runs the COUNT(*) form of state.
func (s *Store) Count(ctx context.Context, m *meta.Meta, state *domain.State) (int64, error) {
	stmt, err := s.compiler.CompileCount(m, state)
	if err != nil {
		return 0, err
	}

	it := iterator.New(s.Opener(m, stmt), iterator.Tuple)
	row, ok, err := it.At(ctx, 0)
	if err != nil {
		return 0, err
	}
	it.Close()
	if !ok || len(row) == 0 {
		return 0, nil
	}
	return toInt64(row[0])
}

// FindOne returns the first entity of m matching q, or nil.
func (s *Store) FindOne(ctx context.Context, m *meta.Meta, q domain.Q) (*Entity, error) {
	limit := 1
	stmt, err := s.compiler.CompileSelect(m, &domain.State{
		Filters: []domain.Group{{q}},
		Limit:   &limit,
	})
	if err != nil {
		return nil, err
	}

	it := iterator.New(s.Opener(m, stmt), s.Hydrator(m))
	e, ok, err := it.At(ctx, 0)
	if err != nil {
		return nil, err
	}
	it.Close()
	if !ok {
		return nil, nil
	}
	return e, nil
}

func (s *Store) exec(ctx context.Context, m *meta.Meta, stmt *compiler.Statement) (sql.Result, int64, error) {
	verb := database.Verb(stmt.SQL)
	res, err := s.db.Execute(telemetry.WithModel(ctx, m.Name), stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%s %s: %w", verb, m.Name, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, 0, fmt.Errorf("%s %s: rows affected: %w", verb, m.Name, err)
	}
	debug.Debug("entity write", "model", m.Name, "op", verb, "rows", affected)
	return res, affected, nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case string:
		var out int64
		_, err := fmt.Sscan(n, &out)
		return out, err
	default:
		return 0, fmt.Errorf("unexpected count value %T", v)
	}
}
