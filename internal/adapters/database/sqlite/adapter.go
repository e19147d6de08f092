// Package sqlite implements the SQLite database adapter.
package sqlite

import (
	"context"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/satishbabariya/queryset/internal/adapters/database"
	"github.com/satishbabariya/queryset/internal/adapters/telemetry"
)

// Adapter implements the database.Adapter interface for SQLite. SQLite reads
// backtick-quoted identifiers and ? placeholders natively.
type Adapter struct {
	database.Base
}

// New creates a new SQLite adapter.
func New(config database.Config, t telemetry.Telemetry) *Adapter {
	return &Adapter{Base: database.Base{Config: config, Telemetry: t}}
}

// Connect opens the database file, or an in-memory database for ":memory:".
func (a *Adapter) Connect(ctx context.Context) error {
	// One connection: an in-memory database lives and dies with it.
	a.Config.MaxConnections = 1
	if err := a.Open(ctx, "sqlite3", DSN(a.Config.URL)); err != nil {
		return err
	}

	if _, err := a.DB.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		a.DB.Close()
		a.DB = nil
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	return nil
}

// GetDialect returns the SQL dialect.
func (a *Adapter) GetDialect() database.SQLDialect {
	return database.SQLite
}

// DSN strips a sqlite:// scheme from a configured URL.
func DSN(url string) string {
	for _, prefix := range []string{"sqlite://", "sqlite3://", "sqlite:"} {
		if rest, ok := strings.CutPrefix(url, prefix); ok {
			return rest
		}
	}
	return url
}

// Ensure Adapter implements database.Adapter.
var _ database.Adapter = (*Adapter)(nil)
