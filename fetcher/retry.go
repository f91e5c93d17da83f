package fetcher

import (
	"context"
	"fmt"
	"log"
	"time"
)

// RetryConfig controls retry behavior.
type RetryConfig struct {
	Attempts int
	Delay    time.Duration
	// Sleep waits between attempts; nil uses a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryConfig makes ten attempts one second apart.
var DefaultRetryConfig = RetryConfig{
	Attempts: 10,
	Delay:    time.Second,
}

// RetryDo calls fn up to Attempts times, sleeping Delay before every attempt
// including the first. Every error is retried; the last one is returned.
// OnRetry, when non-nil, is called before each attempt after the first.
func RetryDo[T any](ctx context.Context, rc RetryConfig, onRetry func(attempt int, err error), fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	sleep := rc.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	attempts := rc.Attempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 && onRetry != nil {
			onRetry(attempt, lastErr)
		}
		if err := sleep(ctx, rc.Delay); err != nil {
			if lastErr != nil {
				return zero, fmt.Errorf("%w (last error: %v)", err, lastErr)
			}
			return zero, err
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err
		log.Printf("[WARN] Attempt %d/%d failed: %v", attempt, attempts, err)
	}
	return zero, fmt.Errorf("giving up after %d attempts: %w", attempts, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
