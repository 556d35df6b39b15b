package governance

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrMaxRetriesExceeded is returned when all retry attempts have been exhausted.
var ErrMaxRetriesExceeded = errors.New("max retries exceeded")

// LinearRetry retries an operation with a delay of attempt × Unit between attempts.
type LinearRetry struct {
	// MaxAttempts is the total number of attempts (not retries). Values <= 0 mean 1.
	MaxAttempts int
	// Unit is the backoff step; attempt n waits n × Unit before attempt n+1.
	Unit time.Duration
	// Sleep waits for d or until ctx ends. Defaults to SleepContext.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Backoff returns the delay after the given 1-based attempt.
func (r LinearRetry) Backoff(attempt int) time.Duration {
	return time.Duration(attempt) * r.Unit
}

// Do runs fn until it succeeds or the attempt budget is spent. fn receives the
// 1-based attempt number. The last error is wrapped in ErrMaxRetriesExceeded.
func (r LinearRetry) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) error {
	attempts := r.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	sleep := r.Sleep
	if sleep == nil {
		sleep = SleepContext
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if lastErr = fn(ctx, attempt); lastErr == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		if err := sleep(ctx, r.Backoff(attempt)); err != nil {
			return fmt.Errorf("%w: %v (last error: %v)", ErrMaxRetriesExceeded, err, lastErr)
		}
	}
	return fmt.Errorf("%w: %w", ErrMaxRetriesExceeded, lastErr)
}

// SleepContext waits for d, returning early with ctx.Err() if ctx ends first.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
