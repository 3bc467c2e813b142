// Package audit records who changed what.
package audit

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Recorder appends an entry to the audit trail.
type Recorder interface {
	Record(ctx context.Context, entityType string, entityID uuid.UUID, action string, details map[string]any) error
}

// LogRecorder writes audit entries as structured log lines.
type LogRecorder struct {
	logger *slog.Logger
}

// NewLogRecorder creates a LogRecorder.
func NewLogRecorder(logger *slog.Logger) *LogRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogRecorder{logger: logger.With("component", "audit")}
}

// Record implements Recorder.
func (r *LogRecorder) Record(ctx context.Context, entityType string, entityID uuid.UUID, action string, details map[string]any) error {
	attrs := make([]any, 0, 3+len(details))
	attrs = append(attrs,
		slog.String("entity_type", entityType),
		slog.String("entity_id", entityID.String()),
		slog.String("action", action),
	)
	if len(details) > 0 {
		group := make([]any, 0, len(details))
		for k, v := range details {
			group = append(group, slog.Any(k, v))
		}
		attrs = append(attrs, slog.Group("details", group...))
	}
	r.logger.InfoContext(ctx, "audit", attrs...)
	return nil
}

// Entry is an audit record captured by MemoryRecorder.
type Entry struct {
	EntityType string
	EntityID   uuid.UUID
	Action     string
	Details    map[string]any
}

// MemoryRecorder keeps audit entries in memory.
type MemoryRecorder struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemoryRecorder creates an empty MemoryRecorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

// Record implements Recorder.
func (r *MemoryRecorder) Record(_ context.Context, entityType string, entityID uuid.UUID, action string, details map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{EntityType: entityType, EntityID: entityID, Action: action, Details: details})
	return nil
}

// Entries returns a copy of the recorded entries.
func (r *MemoryRecorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}
