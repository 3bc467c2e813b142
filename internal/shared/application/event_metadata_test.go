package application

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/flightwatch/internal/shared/domain"
)

type testEvent struct {
	domain.BaseEvent
}

func TestNewEventMetadata(t *testing.T) {
	t.Run("keeps provided correlation id", func(t *testing.T) {
		metadata := NewEventMetadata("corr-1", "cli")

		assert.Equal(t, "corr-1", metadata.CorrelationID)
		assert.Equal(t, "cli", metadata.Actor)
		assert.NotEmpty(t, metadata.CausationID)
	})

	t.Run("generates correlation id when empty", func(t *testing.T) {
		m1 := NewEventMetadata("", "worker")
		m2 := NewEventMetadata("", "worker")

		assert.NotEmpty(t, m1.CorrelationID)
		assert.NotEqual(t, m1.CorrelationID, m2.CorrelationID)
	})
}

func TestApplyEventMetadata(t *testing.T) {
	t.Run("applies metadata to every event", func(t *testing.T) {
		now := time.Now().UTC()
		e1 := &testEvent{BaseEvent: domain.NewBaseEvent(uuid.New(), "Conflict", "a", now)}
		e2 := &testEvent{BaseEvent: domain.NewBaseEvent(uuid.New(), "Conflict", "b", now)}
		metadata := NewEventMetadata("corr", "worker")

		ApplyEventMetadata([]domain.DomainEvent{e1, e2}, metadata)

		assert.Equal(t, metadata, e1.Metadata())
		assert.Equal(t, metadata, e2.Metadata())
	})

	t.Run("handles nil event list", func(t *testing.T) {
		require.NotPanics(t, func() {
			ApplyEventMetadata(nil, NewEventMetadata("", "cli"))
		})
	})
}
