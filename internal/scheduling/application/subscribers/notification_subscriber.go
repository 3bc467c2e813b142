// Package subscribers reacts to scheduling events after they leave the outbox.
package subscribers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/flightwatch/internal/audit"
	"github.com/felixgeelhaar/flightwatch/internal/notification"
	"github.com/felixgeelhaar/flightwatch/internal/scheduling/domain"
	"github.com/felixgeelhaar/flightwatch/internal/shared/infrastructure/eventbus"
)

var notificationTypes = map[string]notification.Type{
	domain.RoutingKeyConflictDetected:    notification.TypeConflictDetected,
	domain.RoutingKeyConflictResolved:    notification.TypeConflictResolved,
	domain.RoutingKeyRescheduleSuggested: notification.TypeRescheduleSuggested,
	domain.RoutingKeyRescheduleAccepted:  notification.TypeRescheduleAccepted,
	domain.RoutingKeyRescheduleRejected:  notification.TypeRescheduleRejected,
}

// NotificationSubscriber tells the student and instructor of a booking about
// every scheduling event and writes the matching audit entry.
type NotificationSubscriber struct {
	notifier notification.Notifier
	recorder audit.Recorder
	logger   *slog.Logger
}

// NewNotificationSubscriber creates a NotificationSubscriber.
func NewNotificationSubscriber(notifier notification.Notifier, recorder audit.Recorder, logger *slog.Logger) *NotificationSubscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationSubscriber{
		notifier: notifier,
		recorder: recorder,
		logger:   logger,
	}
}

// EventTypes returns the routing keys this subscriber handles.
func (s *NotificationSubscriber) EventTypes() []string {
	return []string{
		domain.RoutingKeyConflictDetected,
		domain.RoutingKeyConflictResolved,
		domain.RoutingKeyRescheduleSuggested,
		domain.RoutingKeyRescheduleAccepted,
		domain.RoutingKeyRescheduleRejected,
	}
}

type eventPayload struct {
	domain.Recipients
	BookingID uuid.UUID `json:"booking_id"`
}

// Handle notifies recipients and records the audit entry. Malformed payloads
// are logged and dropped; delivery failures are returned so the event is
// retried.
func (s *NotificationSubscriber) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	typ, ok := notificationTypes[event.RoutingKey]
	if !ok {
		s.logger.Warn("unknown event type", "routing_key", event.RoutingKey)
		return nil
	}

	var payload eventPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		s.logger.Error("failed to decode event payload",
			"routing_key", event.RoutingKey,
			"event_id", event.EventID,
			"error", err,
		)
		return nil
	}

	var errs []error
	for _, recipient := range []uuid.UUID{payload.StudentID, payload.InstructorID} {
		if recipient == uuid.Nil {
			continue
		}
		if err := s.notifier.Notify(ctx, recipient, typ, event.Payload); err != nil {
			errs = append(errs, fmt.Errorf("notify %s: %w", recipient, err))
		}
	}

	details := map[string]any{
		"event_id":   event.EventID.String(),
		"booking_id": payload.BookingID.String(),
	}
	if event.Metadata.Actor != "" {
		details["actor"] = event.Metadata.Actor
	}
	if event.Metadata.CorrelationID != "" {
		details["correlation_id"] = event.Metadata.CorrelationID
	}
	if err := s.recorder.Record(ctx, event.AggregateType, event.AggregateID, auditAction(event.RoutingKey), details); err != nil {
		errs = append(errs, fmt.Errorf("record audit: %w", err))
	}

	return errors.Join(errs...)
}

// auditAction strips the context prefix: scheduling.conflict.detected
// becomes conflict.detected.
func auditAction(routingKey string) string {
	_, action, found := strings.Cut(routingKey, ".")
	if !found {
		return routingKey
	}
	return action
}
