package attendance

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
)

var defaultRetryBackoff = []time.Duration{50 * time.Millisecond, 100 * time.Millisecond, 200 * time.Millisecond}

// withRetry runs fn and re-runs it after each backoff step while it fails with
// ErrConcurrencyConflict. Other errors are returned immediately.
func (a *AttendanceServiceImpl) withRetry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	for attempt, wait := range a.retryBackoff {
		if !errors.Is(err, attendance.ErrConcurrencyConflict) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		slog.Debug("retrying after concurrency conflict", "op", op, "attempt", attempt+1, "backoff", wait)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		err = fn(ctx)
	}
	if errors.Is(err, attendance.ErrConcurrencyConflict) {
		slog.Warn("giving up after concurrency conflicts", "op", op, "retries", len(a.retryBackoff))
	}
	return err
}

// inTx runs fn in one transaction, retrying the whole transaction on conflict.
func (a *AttendanceServiceImpl) inTx(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	return a.withRetry(ctx, op, func(ctx context.Context) error {
		return a.tx.WithinTransaction(ctx, fn)
	})
}
