// Package mysql implements the MySQL database adapter.
package mysql

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	driver "github.com/go-sql-driver/mysql"
	"github.com/satishbabariya/queryset/internal/adapters/database"
	"github.com/satishbabariya/queryset/internal/adapters/telemetry"
)

// Adapter implements the database.Adapter interface for MySQL, whose SQL
// spelling (backticks, ? placeholders) is what the compiler emits.
type Adapter struct {
	database.Base
}

// New creates a new MySQL adapter.
func New(config database.Config, t telemetry.Telemetry) *Adapter {
	return &Adapter{Base: database.Base{Config: config, Telemetry: t}}
}

// Connect establishes a connection to the MySQL database.
func (a *Adapter) Connect(ctx context.Context) error {
	dsn, err := DSN(a.Config.URL)
	if err != nil {
		return err
	}
	return a.Open(ctx, "mysql", dsn)
}

// GetDialect returns the SQL dialect.
func (a *Adapter) GetDialect() database.SQLDialect {
	return database.MySQL
}

// DSN converts a mysql:// URL into a driver DSN. Native DSNs are validated
// and passed through. Time columns are parsed into time.Time, and UPDATE
// reports matched rather than changed rows so that rewriting a row with
// identical values still counts as one affected row.
func DSN(raw string) (string, error) {
	var cfg *driver.Config

	if strings.HasPrefix(raw, "mysql://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", fmt.Errorf("invalid mysql url: %w", err)
		}
		cfg = driver.NewConfig()
		cfg.Net = "tcp"
		cfg.Addr = u.Host
		cfg.DBName = strings.TrimPrefix(u.Path, "/")
		if u.User != nil {
			cfg.User = u.User.Username()
			cfg.Passwd, _ = u.User.Password()
		}
		for key, values := range u.Query() {
			if len(values) == 0 {
				continue
			}
			if cfg.Params == nil {
				cfg.Params = make(map[string]string)
			}
			cfg.Params[key] = values[0]
		}
	} else {
		parsed, err := driver.ParseDSN(raw)
		if err != nil {
			return "", fmt.Errorf("invalid mysql dsn: %w", err)
		}
		cfg = parsed
	}

	cfg.ParseTime = true
	cfg.ClientFoundRows = true
	return cfg.FormatDSN(), nil
}

// Ensure Adapter implements database.Adapter.
var _ database.Adapter = (*Adapter)(nil)
