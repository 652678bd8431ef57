package transport

import (
	"context"
	"fmt"
	"time"
)

// RetryConfig bounds the retry loop around idempotent provider calls
type RetryConfig struct {
	MaxAttempts int
	// BaseDelay is the fixed wait between attempts; no backoff growth.
	BaseDelay time.Duration
}

// DefaultRetryConfig returns the retry settings shared by catalog fetch
// and order-status polling
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   2 * time.Second,
	}
}

// Retry attempts op up to MaxAttempts times, waiting BaseDelay between
// attempts. On final failure it returns the last error annotated with the
// attempt count.
func Retry[T any](ctx context.Context, cfg RetryConfig, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if attempt > 1 && cfg.BaseDelay > 0 {
			timer := time.NewTimer(cfg.BaseDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			case <-timer.C:
			}
		}

		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
	}

	return zero, fmt.Errorf("after %d attempts: %w", cfg.MaxAttempts, lastErr)
}
