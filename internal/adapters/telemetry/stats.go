package telemetry

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// Stats keeps per model and operation counters in memory. It backs the CLI
// summary line and lets tests observe how many statements actually ran.
type Stats struct {
	mu          sync.RWMutex
	queries     map[string]int
	failures    map[string]int
	durations   map[string]time.Duration
	errors      []ErrorInfo
	connections map[string]int
}

// NewStats creates an empty in-memory recorder.
func NewStats() *Stats {
	return &Stats{
		queries:     make(map[string]int),
		failures:    make(map[string]int),
		durations:   make(map[string]time.Duration),
		connections: make(map[string]int),
	}
}

func label(model, operation string) string {
	if model == "" {
		return operation
	}
	return model + "." + operation
}

// RecordQuery counts one execution.
func (s *Stats) RecordQuery(ctx context.Context, info QueryInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := label(info.Model, info.Operation)
	s.queries[l]++
	s.durations[l] += info.Duration
	if !info.Success {
		s.failures[l]++
	}
}

// RecordError keeps the error for later inspection.
func (s *Stats) RecordError(ctx context.Context, info ErrorInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, info)
}

// RecordConnection counts connection events.
func (s *Stats) RecordConnection(ctx context.Context, info ConnectionInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connections[info.Event]++
}

// Flush is a no-op; counters are updated on each record.
func (s *Stats) Flush(ctx context.Context) error {
	return nil
}

// Close is a no-op.
func (s *Stats) Close(ctx context.Context) error {
	return nil
}

// Count returns how many statements ran for model and operation. An empty
// model sums over every model.
func (s *Stats) Count(model, operation string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if model != "" {
		return s.queries[label(model, operation)]
	}
	total := 0
	for l, n := range s.queries {
		if l == operation || strings.HasSuffix(l, "."+operation) {
			total += n
		}
	}
	return total
}

// Failures returns how many statements failed for model and operation.
func (s *Stats) Failures(model, operation string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.failures[label(model, operation)]
}

// Errors returns the recorded errors.
func (s *Stats) Errors() []ErrorInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ErrorInfo, len(s.errors))
	copy(out, s.errors)
	return out
}

// Connections returns how many times event was recorded.
func (s *Stats) Connections(event string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connections[event]
}

// Row is one line of a stats summary.
type Row struct {
	Label    string
	Count    int
	Failures int
	Total    time.Duration
}

// Summary returns one row per label, sorted by label.
func (s *Stats) Summary() []Row {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]Row, 0, len(s.queries))
	for l, n := range s.queries {
		rows = append(rows, Row{Label: l, Count: n, Failures: s.failures[l], Total: s.durations[l]})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Label < rows[j].Label })
	return rows
}

// Ensure Stats implements Telemetry interface.
var _ Telemetry = (*Stats)(nil)
