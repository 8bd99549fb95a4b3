package embedder

import (
	"context"
	"time"
)

// RetryConfig tunes exponential backoff for embedding API calls
type RetryConfig struct {
	MaxRetries int           // Total attempts, not additional retries
	BaseDelay  time.Duration // Delay before the second attempt
	MaxDelay   time.Duration // Backoff growth cap
	Multiplier float64
}

// DefaultRetryConfig returns the backoff settings used by the HTTP providers
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: MaxRetries,
		BaseDelay:  InitialBackoffMs * time.Millisecond,
		MaxDelay:   MaxBackoffMs * time.Millisecond,
		Multiplier: BackoffMultiplier,
	}
}

// retryWithBackoff runs fn until it succeeds or the attempt budget is spent,
// sleeping between attempts with exponential growth. Context cancellation
// wins over the remaining attempts.
func retryWithBackoff[T any](ctx context.Context, config RetryConfig, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	delay := config.BaseDelay
	for attempt := 1; attempt <= config.MaxRetries; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		if attempt == config.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * config.Multiplier)
		if delay > config.MaxDelay {
			delay = config.MaxDelay
		}
	}
	return zero, lastErr
}
