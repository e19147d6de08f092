package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/satishbabariya/queryset/internal/adapters/telemetry"
	"github.com/satishbabariya/queryset/internal/debug"
)

// Base provides the database/sql plumbing shared by every adapter. Embed it
// and set Rebind when the driver expects a different SQL spelling.
type Base struct {
	DB        *sql.DB
	Config    Config
	Telemetry telemetry.Telemetry

	// Rebind rewrites compiled SQL before it reaches the driver.
	Rebind func(string) string
}

// Open opens driverName, applies the pool settings and pings the database.
func (b *Base) Open(ctx context.Context, driverName, dsn string) error {
	start := time.Now()

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		b.connection(ctx, "connect", start, false)
		return fmt.Errorf("failed to open database: %w", err)
	}

	if b.Config.MaxConnections > 0 {
		db.SetMaxOpenConns(b.Config.MaxConnections)
		db.SetMaxIdleConns(max(b.Config.MaxConnections/2, 1))
	}
	if b.Config.MaxIdleTime > 0 {
		db.SetConnMaxIdleTime(time.Duration(b.Config.MaxIdleTime) * time.Second)
	}

	pingCtx := ctx
	if b.Config.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, time.Duration(b.Config.ConnectTimeout)*time.Second)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		b.connection(ctx, "connect", start, false)
		return fmt.Errorf("failed to ping database: %w", err)
	}

	b.DB = db
	b.connection(ctx, "connect", start, true)
	debug.Debug("database connected", "provider", b.Config.Provider)
	return nil
}

// Disconnect closes the database connection.
func (b *Base) Disconnect(ctx context.Context) error {
	if b.DB == nil {
		return nil
	}
	start := time.Now()
	err := b.DB.Close()
	b.DB = nil
	b.connection(ctx, "disconnect", start, err == nil)
	return err
}

// Execute executes a statement that returns no rows.
func (b *Base) Execute(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database not connected")
	}

	query = b.rebind(query)
	start := time.Now()
	res, err := b.DB.ExecContext(ctx, query, args...)
	var affected int64
	if err == nil {
		affected, _ = res.RowsAffected()
	}
	b.Record(ctx, query, start, err, affected)
	if err != nil {
		return nil, fmt.Errorf("failed to execute statement: %w", err)
	}
	return res, nil
}

// Query executes a query that returns rows.
func (b *Base) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database not connected")
	}

	query = b.rebind(query)
	start := time.Now()
	rows, err := b.DB.QueryContext(ctx, query, args...)
	b.Record(ctx, query, start, err, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return rows, nil
}

// QueryRow executes a query that returns a single row.
func (b *Base) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	if b.DB == nil {
		return nil
	}
	return b.DB.QueryRowContext(ctx, b.rebind(query), args...)
}

// Ping checks if the database connection is alive.
func (b *Base) Ping(ctx context.Context) error {
	if b.DB == nil {
		return fmt.Errorf("database not connected")
	}
	return b.DB.PingContext(ctx)
}

// Record reports one statement execution to telemetry.
func (b *Base) Record(ctx context.Context, query string, start time.Time, err error, affected int64) {
	model := telemetry.ModelFrom(ctx)
	op := Verb(query)
	debug.Debug("statement executed", "model", model, "op", op, "duration", time.Since(start), "error", err)

	t := b.telemetry()
	t.RecordQuery(ctx, telemetry.QueryInfo{
		Model:        model,
		Operation:    op,
		Duration:     time.Since(start),
		Success:      err == nil,
		RowsAffected: affected,
	})
	if err != nil {
		t.RecordError(ctx, telemetry.ErrorInfo{Error: err, Model: model, Operation: op, Query: query})
	}
}

func (b *Base) connection(ctx context.Context, event string, start time.Time, ok bool) {
	b.telemetry().RecordConnection(ctx, telemetry.ConnectionInfo{
		Event:    event,
		Provider: b.Config.Provider,
		Duration: time.Since(start),
		Success:  ok,
	})
}

func (b *Base) telemetry() telemetry.Telemetry {
	if b.Telemetry == nil {
		return telemetry.NewNoopTelemetry()
	}
	return b.Telemetry
}

func (b *Base) rebind(query string) string {
	if b.Rebind == nil {
		return query
	}
	return b.Rebind(query)
}

// Verb returns the upper-cased first keyword of a statement.
func Verb(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(fields[0])
}
