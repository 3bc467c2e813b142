package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/felixgeelhaar/flightwatch/internal/shared/domain"
)

type testAggregate struct {
	domain.BaseAggregateRoot
}

type testEvent struct {
	domain.BaseEvent
	Data string
}

func TestNewBaseEntity(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	entity := domain.NewBaseEntity(now)

	assert.NotEqual(t, uuid.Nil, entity.ID())
	assert.Equal(t, now, entity.CreatedAt())
	assert.Equal(t, now, entity.UpdatedAt())

	later := now.Add(time.Minute)
	entity.Touch(later)
	assert.Equal(t, now, entity.CreatedAt())
	assert.Equal(t, later, entity.UpdatedAt())
}

func TestBaseEntity_SetID(t *testing.T) {
	entity := domain.NewBaseEntity(time.Now())
	id := uuid.New()

	entity.SetID(id)

	assert.Equal(t, id, entity.ID())
}

func TestBaseAggregateRoot_Events(t *testing.T) {
	now := time.Now().UTC()
	agg := &testAggregate{BaseAggregateRoot: domain.NewBaseAggregateRoot(now)}
	assert.Empty(t, agg.DomainEvents())

	agg.AddDomainEvent(&testEvent{BaseEvent: domain.NewBaseEvent(agg.ID(), "Test", "test.created", now)})
	agg.AddDomainEvent(&testEvent{BaseEvent: domain.NewBaseEvent(agg.ID(), "Test", "test.updated", now)})
	assert.Len(t, agg.DomainEvents(), 2)
	assert.Equal(t, "test.created", agg.DomainEvents()[0].RoutingKey())

	agg.ClearDomainEvents()
	assert.Empty(t, agg.DomainEvents())
}

func TestBaseEvent(t *testing.T) {
	aggregateID := uuid.New()
	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	event := domain.NewBaseEvent(aggregateID, "Conflict", "scheduling.conflict.detected", at)
	event.SetMetadata(domain.EventMetadata{CorrelationID: "corr-1", Actor: "worker"})

	assert.NotEqual(t, uuid.Nil, event.EventID())
	assert.Equal(t, aggregateID, event.AggregateID())
	assert.Equal(t, "Conflict", event.AggregateType())
	assert.Equal(t, "scheduling.conflict.detected", event.RoutingKey())
	assert.Equal(t, at, event.OccurredAt())
	assert.Equal(t, "corr-1", event.Metadata().CorrelationID)
	assert.Equal(t, "worker", event.Metadata().Actor)
}

func TestFixedClock(t *testing.T) {
	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, at, domain.FixedClock{At: at}.Now())
	assert.Equal(t, time.UTC, domain.SystemClock{}.Now().Location())
}
