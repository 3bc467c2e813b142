// Package commands implements the scheduling use cases. Each state change
// and the events it raises commit in one unit of work.
package commands

import (
	"context"

	sharedApplication "github.com/felixgeelhaar/flightwatch/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/flightwatch/internal/shared/domain"
	"github.com/felixgeelhaar/flightwatch/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/flightwatch/pkg/observability"
)

type eventSource interface {
	DomainEvents() []sharedDomain.DomainEvent
}

// enqueue writes the pending events of every source to the outbox within
// the unit of work carried by ctx.
func enqueue(ctx context.Context, repo outbox.Repository, actor string, sources ...eventSource) error {
	var events []sharedDomain.DomainEvent
	for _, s := range sources {
		events = append(events, s.DomainEvents()...)
	}
	if len(events) == 0 {
		return nil
	}

	metadata := sharedApplication.NewEventMetadata(observability.CorrelationIDFromContext(ctx), actor)
	sharedApplication.ApplyEventMetadata(events, metadata)

	msgs, err := outbox.NewMessages(events)
	if err != nil {
		return err
	}
	return repo.SaveBatch(ctx, msgs)
}

func actorOr(actor string) string {
	if actor == "" {
		return "system"
	}
	return actor
}
