package observability

import (
	"context"
	"log/slog"
	"time"
)

// TimeOperation runs fn, logs its outcome and records the operation metrics
// under the operation tag.
func TimeOperation(ctx context.Context, logger *slog.Logger, metrics Metrics, operation string, fn func(ctx context.Context) error) error {
	ctx = WithOperation(ctx, operation)
	start := time.Now()

	err := fn(ctx)

	duration := time.Since(start)
	tag := T("operation", operation)
	metrics.Timing(MetricOperationDuration, duration, tag)
	metrics.Counter(MetricOperationTotal, 1, tag)

	if err != nil {
		metrics.Counter(MetricOperationErrors, 1, tag)
		logger.ErrorContext(ctx, "operation failed", DurationKey, duration.Milliseconds(), "error", err)
		return err
	}
	logger.DebugContext(ctx, "operation completed", DurationKey, duration.Milliseconds())
	return nil
}
