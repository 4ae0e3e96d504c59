package attendance

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/stretchr/testify/assert"
)

func TestWithRetry_RetriesConflictsThenSucceeds(t *testing.T) {
	h := newHarness()
	calls := 0

	err := h.svc.withRetry(context.Background(), "test", func(context.Context) error {
		calls++
		if calls < 3 {
			return fmt.Errorf("update attendance: %w", attendance.ErrConcurrencyConflict)
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_GivesUpAfterThreeRetries(t *testing.T) {
	h := newHarness()
	calls := 0

	err := h.svc.withRetry(context.Background(), "test", func(context.Context) error {
		calls++
		return attendance.ErrConcurrencyConflict
	})
	assert.ErrorIs(t, err, attendance.ErrConcurrencyConflict)
	assert.Equal(t, 4, calls)
}

func TestWithRetry_OtherErrorsAreNotRetried(t *testing.T) {
	h := newHarness()
	calls := 0
	boom := errors.New("boom")

	err := h.svc.withRetry(context.Background(), "test", func(context.Context) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_StopsOnCancellation(t *testing.T) {
	h := newHarness()
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	err := h.svc.withRetry(ctx, "test", func(context.Context) error {
		calls++
		cancel()
		return attendance.ErrConcurrencyConflict
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestInTx_RetriesWholeTransaction(t *testing.T) {
	h := newHarness()
	calls := 0

	err := h.svc.inTx(context.Background(), "test", func(context.Context) error {
		calls++
		if calls == 1 {
			return attendance.ErrConcurrencyConflict
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, h.tx.calls)
}
