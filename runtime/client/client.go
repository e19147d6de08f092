// Package client provides the runtime entry point: it connects an adapter,
// binds it to a model registry and hands out per-model managers.
package client

import (
	"context"
	"fmt"

	"github.com/satishbabariya/queryset/internal/adapters/database"
	"github.com/satishbabariya/queryset/internal/adapters/database/mysql"
	"github.com/satishbabariya/queryset/internal/adapters/database/postgres"
	"github.com/satishbabariya/queryset/internal/adapters/database/sqlite"
	"github.com/satishbabariya/queryset/internal/adapters/telemetry"
	"github.com/satishbabariya/queryset/internal/core/entity"
	"github.com/satishbabariya/queryset/internal/core/meta"
	"github.com/satishbabariya/queryset/internal/core/query/compiler"
)

// Client is the main database client.
type Client struct {
	registry  *meta.Registry
	adapter   database.Adapter
	store     *entity.Store
	telemetry telemetry.Telemetry
}

// Option configures a Client.
type Option func(*Client)

// WithTelemetry records every executed statement on t.
func WithTelemetry(t telemetry.Telemetry) Option {
	return func(c *Client) {
		c.telemetry = t
	}
}

// Open creates the adapter for cfg.Provider, connects it and binds it to
// reg.
func Open(ctx context.Context, cfg database.Config, reg *meta.Registry, opts ...Option) (*Client, error) {
	c := &Client{registry: reg}
	c.apply(opts)

	adapter, err := NewAdapter(cfg, c.telemetry)
	if err != nil {
		return nil, err
	}
	if err := adapter.Connect(ctx); err != nil {
		return nil, err
	}

	c.adapter = adapter
	c.store = entity.NewStore(compiler.New(reg), adapter)
	return c, nil
}

// New binds an existing executor to reg. Close leaves db untouched.
func New(reg *meta.Registry, db database.Executor, opts ...Option) *Client {
	c := &Client{registry: reg}
	c.apply(opts)
	c.store = entity.NewStore(compiler.New(reg), db)
	return c
}

// NewAdapter maps a provider name to its adapter. The adapter is not yet
// connected.
func NewAdapter(cfg database.Config, t telemetry.Telemetry) (database.Adapter, error) {
	dialect, err := database.ParseDialect(cfg.Provider)
	if err != nil {
		return nil, err
	}

	switch dialect {
	case database.PostgreSQL:
		return postgres.New(cfg, t), nil
	case database.MySQL:
		return mysql.New(cfg, t), nil
	case database.SQLite:
		return sqlite.New(cfg, t), nil
	default:
		return nil, fmt.Errorf("unsupported database provider: %q", cfg.Provider)
	}
}

func (c *Client) apply(opts []Option) {
	for _, opt := range opts {
		opt(c)
	}
	if c.telemetry == nil {
		c.telemetry = telemetry.NewNoopTelemetry()
	}
}

// Close flushes telemetry and disconnects an adapter opened by Open.
func (c *Client) Close(ctx context.Context) error {
	if err := c.telemetry.Flush(ctx); err != nil {
		return err
	}
	if c.adapter == nil {
		return nil
	}
	return c.adapter.Disconnect(ctx)
}

// Model returns the manager of a registered model.
func (c *Client) Model(name string) (*Manager, error) {
	m, err := c.registry.Model(name)
	if err != nil {
		return nil, err
	}
	return &Manager{store: c.store, meta: m}, nil
}

// MustModel is like Model but panics on an unknown name.
func (c *Client) MustModel(name string) *Manager {
	mgr, err := c.Model(name)
	if err != nil {
		panic(err)
	}
	return mgr
}

// Registry returns the bound model registry.
func (c *Client) Registry() *meta.Registry {
	return c.registry
}

// Telemetry returns the recorder statements are reported to.
func (c *Client) Telemetry() telemetry.Telemetry {
	return c.telemetry
}

// Adapter returns the connected adapter, or nil for a client built with New.
func (c *Client) Adapter() database.Adapter {
	return c.adapter
}

// Store returns the store managers share.
func (c *Client) Store() *entity.Store {
	return c.store
}
