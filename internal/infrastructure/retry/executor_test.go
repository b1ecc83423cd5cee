package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedsync/backend/internal/domain/feed"
)

func newTestExecutor() (*Executor, *[]time.Duration) {
	delays := &[]time.Duration{}
	e := NewExecutor()
	e.sleep = func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
	return e, delays
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	e, delays := newTestExecutor()
	calls := 0

	err := e.Do(context.Background(), func() error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, *delays)
}

func TestDo_RetriesWithExponentialBackoff(t *testing.T) {
	e, delays := newTestExecutor()
	calls := 0

	err := e.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return feed.ErrFeedUnavailable
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{500 * time.Millisecond, time.Second}, *delays)
}

func TestDo_RetryBudgetIsOnTopOfFirstAttempt(t *testing.T) {
	e, delays := newTestExecutor()
	calls := 0

	err := e.Do(context.Background(), func() error {
		calls++
		return feed.ErrFeedUnavailable
	})

	assert.ErrorIs(t, err, feed.ErrFeedUnavailable)
	assert.Equal(t, 4, calls, "initial attempt plus three retries")
	assert.Equal(t, []time.Duration{500 * time.Millisecond, time.Second, 2 * time.Second}, *delays)
}

func TestDo_ExhaustsAttemptsAndReturnsLastError(t *testing.T) {
	e, delays := newTestExecutor()
	calls := 0
	wrapped := fmt.Errorf("page 3: %w", feed.ErrFeedRateLimited)

	err := e.Do(context.Background(), func() error {
		calls++
		return wrapped
	})

	assert.Equal(t, wrapped, err, "last error must be returned unmodified")
	assert.Equal(t, 4, calls)
	assert.Equal(t, []time.Duration{500 * time.Millisecond, time.Second, 2 * time.Second}, *delays)
}

func TestDo_TerminalErrorNotRetried(t *testing.T) {
	e, delays := newTestExecutor()
	calls := 0

	err := e.Do(context.Background(), func() error {
		calls++
		return feed.ErrFeedAuthFailed
	})

	assert.ErrorIs(t, err, feed.ErrFeedAuthFailed)
	assert.Equal(t, 1, calls)
	assert.Empty(t, *delays)
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	e := NewExecutor()
	ctx, cancel := context.WithCancel(context.Background())
	e.sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}
	calls := 0

	err := e.Do(ctx, func() error {
		calls++
		return feed.ErrFeedUnavailable
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextAlreadyCancelled(t *testing.T) {
	e, _ := newTestExecutor()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := e.Do(ctx, func() error {
		t.Fatal("op must not run")
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestDo_CustomClassifier(t *testing.T) {
	e, _ := newTestExecutor()
	transient := errors.New("transient")
	e.Retryable = func(err error) bool { return errors.Is(err, transient) }
	calls := 0

	err := e.Do(context.Background(), func() error {
		calls++
		if calls == 1 {
			return transient
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
