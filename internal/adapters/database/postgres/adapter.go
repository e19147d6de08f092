// Package postgres implements the PostgreSQL database adapter.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/satishbabariya/queryset/internal/adapters/database"
	"github.com/satishbabariya/queryset/internal/adapters/telemetry"
)

// Adapter implements the database.Adapter interface for PostgreSQL.
type Adapter struct {
	database.Base
}

// New creates a new PostgreSQL adapter.
func New(config database.Config, t telemetry.Telemetry) *Adapter {
	return &Adapter{Base: database.Base{Config: config, Telemetry: t, Rebind: Rebind}}
}

// Connect establishes a connection to the PostgreSQL database.
func (a *Adapter) Connect(ctx context.Context) error {
	dsn := a.Config.URL
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		parsed, err := pq.ParseURL(dsn)
		if err != nil {
			return fmt.Errorf("invalid postgres url: %w", err)
		}
		dsn = parsed
	}
	return a.Open(ctx, "postgres", dsn)
}

// Execute runs the statement. INSERTs run on a dedicated connection followed
// by SELECT lastval() so that LastInsertId works as it does on other
// drivers.
func (a *Adapter) Execute(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if database.Verb(query) != "INSERT" {
		return a.Base.Execute(ctx, query, args...)
	}
	if a.DB == nil {
		return nil, fmt.Errorf("database not connected")
	}

	conn, err := a.DB.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	query = Rebind(query)
	start := time.Now()
	res, err := conn.ExecContext(ctx, query, args...)
	var affected int64
	if err == nil {
		affected, _ = res.RowsAffected()
	}
	a.Record(ctx, query, start, err, affected)
	if err != nil {
		return nil, fmt.Errorf("failed to execute statement: %w", err)
	}

	out := &insertResult{Result: res}
	// lastval fails when the insert touched no sequence; the error surfaces
	// from LastInsertId.
	out.idErr = conn.QueryRowContext(ctx, "SELECT lastval()").Scan(&out.id)
	return out, nil
}

// GetDialect returns the SQL dialect.
func (a *Adapter) GetDialect() database.SQLDialect {
	return database.PostgreSQL
}

type insertResult struct {
	sql.Result
	id    int64
	idErr error
}

func (r *insertResult) LastInsertId() (int64, error) {
	return r.id, r.idErr
}

// Rebind rewrites ? placeholders to $n and backtick-quoted identifiers to
// double-quoted ones, leaving single-quoted literals untouched.
func Rebind(query string) string {
	var sb strings.Builder
	sb.Grow(len(query) + 8)

	n := 0
	inLiteral := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inLiteral = !inLiteral
			sb.WriteByte(c)
		case inLiteral:
			sb.WriteByte(c)
		case c == '?':
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
		case c == '`':
			sb.WriteByte('"')
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// Ensure Adapter implements database.Adapter.
var _ database.Adapter = (*Adapter)(nil)
