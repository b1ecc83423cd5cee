// Package retry provides bounded retry with exponential backoff for
// operations against flaky upstreams.
package retry

import (
	"context"
	"time"

	"github.com/feedsync/backend/internal/domain/feed"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = 500 * time.Millisecond
)

// Executor runs an operation once and retries it up to MaxAttempts more
// times, sleeping BaseDelay * 2^(n-1) before the n-th retry. Only errors
// the classifier marks retryable are retried; terminal errors and
// exhausted attempts return the last error unmodified.
type Executor struct {
	// MaxAttempts is the number of retries after the initial attempt.
	MaxAttempts int
	BaseDelay   time.Duration

	// Retryable classifies errors; defaults to feed.IsRetryable.
	Retryable func(error) bool

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewExecutor creates an executor with the default attempt budget.
func NewExecutor() *Executor {
	return &Executor{
		MaxAttempts: defaultMaxAttempts,
		BaseDelay:   defaultBaseDelay,
	}
}

// Do runs op until it succeeds, fails terminally, or the attempt budget is
// spent. Context cancellation during backoff aborts with ctx.Err().
func (e *Executor) Do(ctx context.Context, op func() error) error {
	maxAttempts := e.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	baseDelay := e.BaseDelay
	if baseDelay <= 0 {
		baseDelay = defaultBaseDelay
	}
	retryable := e.Retryable
	if retryable == nil {
		retryable = feed.IsRetryable
	}
	sleep := e.sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	for attempt := 0; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) || attempt == maxAttempts {
			return lastErr
		}
		delay := baseDelay * time.Duration(1<<attempt)
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
	return lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
