// Package telemetry records statement executions.
package telemetry

import (
	"context"
	"time"
)

// Telemetry defines the telemetry adapter interface.
type Telemetry interface {
	// RecordQuery records a statement execution.
	RecordQuery(ctx context.Context, info QueryInfo)

	// RecordError records an error.
	RecordError(ctx context.Context, info ErrorInfo)

	// RecordConnection records a connection event.
	RecordConnection(ctx context.Context, info ConnectionInfo)

	// Flush flushes any buffered telemetry data.
	Flush(ctx context.Context) error

	// Close closes the telemetry adapter.
	Close(ctx context.Context) error
}

// QueryInfo contains information about a statement execution.
type QueryInfo struct {
	// Model is the model the statement was issued for, if known.
	Model string

	// Operation is the statement verb (SELECT, INSERT, UPDATE, DELETE).
	Operation string

	Duration time.Duration
	Success  bool

	// RowsAffected is set for statements without a result set.
	RowsAffected int64
}

// ErrorInfo contains information about an error.
type ErrorInfo struct {
	Error     error
	Model     string
	Operation string
	Query     string
}

// ConnectionInfo contains information about a connection event.
type ConnectionInfo struct {
	// Event is the event type (connect, disconnect).
	Event    string
	Provider string
	Duration time.Duration
	Success  bool
}

// Config holds telemetry configuration.
type Config struct {
	// Type is the telemetry type (noop, memory).
	Type string
}

type modelKey struct{}

// WithModel tags ctx with the model name that statements run under it
// belong to.
func WithModel(ctx context.Context, model string) context.Context {
	return context.WithValue(ctx, modelKey{}, model)
}

// ModelFrom returns the model name set by WithModel.
func ModelFrom(ctx context.Context) string {
	model, _ := ctx.Value(modelKey{}).(string)
	return model
}
