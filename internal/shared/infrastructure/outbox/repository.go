package outbox

import (
	"context"
	"time"
)

// Repository persists outbox messages. SaveBatch joins the unit of work in ctx
// so that events commit or roll back together with the state change.
type Repository interface {
	SaveBatch(ctx context.Context, msgs []*Message) error

	// GetUnpublished returns pending messages whose retry time has come, oldest first.
	GetUnpublished(ctx context.Context, now time.Time, limit int) ([]*Message, error)

	MarkPublished(ctx context.Context, id int64, at time.Time) error
	MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error
	MarkDead(ctx context.Context, id int64, reason string, at time.Time) error

	// DeleteOld removes published messages older than before.
	DeleteOld(ctx context.Context, before time.Time) (int64, error)
}
