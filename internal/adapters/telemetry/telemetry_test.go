package telemetry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/satishbabariya/queryset/internal/adapters/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTelemetry(t *testing.T) {
	tests := []struct {
		name    string
		config  *telemetry.Config
		want    any
		wantErr bool
	}{
		{name: "nil config", config: nil, want: &telemetry.NoopTelemetry{}},
		{name: "empty type", config: &telemetry.Config{}, want: &telemetry.NoopTelemetry{}},
		{name: "memory", config: &telemetry.Config{Type: "memory"}, want: &telemetry.Stats{}},
		{name: "unknown", config: &telemetry.Config{Type: "statsd"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := telemetry.NewTelemetry(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, got)
		})
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	s := telemetry.NewStats()

	s.RecordQuery(ctx, telemetry.QueryInfo{Model: "List", Operation: "SELECT", Duration: time.Millisecond, Success: true})
	s.RecordQuery(ctx, telemetry.QueryInfo{Model: "List", Operation: "SELECT", Duration: time.Millisecond, Success: false})
	s.RecordQuery(ctx, telemetry.QueryInfo{Model: "ListItem", Operation: "SELECT", Success: true})
	s.RecordQuery(ctx, telemetry.QueryInfo{Operation: "SELECT", Success: true})
	s.RecordQuery(ctx, telemetry.QueryInfo{Model: "List", Operation: "UPDATE", Success: true})
	s.RecordError(ctx, telemetry.ErrorInfo{Error: errors.New("boom"), Model: "List"})
	s.RecordConnection(ctx, telemetry.ConnectionInfo{Event: "connect", Success: true})

	assert.Equal(t, 2, s.Count("List", "SELECT"))
	assert.Equal(t, 1, s.Failures("List", "SELECT"))
	assert.Equal(t, 4, s.Count("", "SELECT"))
	assert.Equal(t, 1, s.Count("", "UPDATE"))
	assert.Len(t, s.Errors(), 1)
	assert.Equal(t, 1, s.Connections("connect"))

	rows := s.Summary()
	require.Len(t, rows, 4)
	assert.Equal(t, "List.SELECT", rows[0].Label)
	assert.Equal(t, 2*time.Millisecond, rows[0].Total)
	assert.NoError(t, s.Flush(ctx))
	assert.NoError(t, s.Close(ctx))
}

func TestModelContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, telemetry.ModelFrom(ctx))
	assert.Equal(t, "List", telemetry.ModelFrom(telemetry.WithModel(ctx, "List")))
}
