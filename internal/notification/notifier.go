// Package notification delivers scheduling news to students and instructors.
package notification

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Type categorises a notification.
type Type string

const (
	TypeConflictDetected    Type = "weather_conflict"
	TypeConflictResolved    Type = "conflict_resolved"
	TypeRescheduleSuggested Type = "reschedule_options"
	TypeRescheduleAccepted  Type = "reschedule_confirmed"
	TypeRescheduleRejected  Type = "reschedule_declined"
)

// Notifier sends a notification to one recipient.
type Notifier interface {
	Notify(ctx context.Context, recipientID uuid.UUID, typ Type, payload json.RawMessage) error
}

// LogNotifier writes notifications as structured log lines. It is the
// default until a delivery channel is configured.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger.With("component", "notifier")}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(ctx context.Context, recipientID uuid.UUID, typ Type, payload json.RawMessage) error {
	n.logger.InfoContext(ctx, "notification",
		"recipient_id", recipientID,
		"type", string(typ),
		"payload", string(payload),
	)
	return nil
}

// Sent is a notification captured by MemoryNotifier.
type Sent struct {
	RecipientID uuid.UUID
	Type        Type
	Payload     json.RawMessage
}

// MemoryNotifier keeps notifications in memory.
type MemoryNotifier struct {
	mu   sync.Mutex
	sent []Sent
}

// NewMemoryNotifier creates an empty MemoryNotifier.
func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{}
}

// Notify implements Notifier.
func (n *MemoryNotifier) Notify(_ context.Context, recipientID uuid.UUID, typ Type, payload json.RawMessage) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, Sent{RecipientID: recipientID, Type: typ, Payload: payload})
	return nil
}

// Sent returns a copy of everything sent so far.
func (n *MemoryNotifier) Sent() []Sent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Sent(nil), n.sent...)
}
