package content

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

type RetryOptions struct {
	MaxRetries     int
	InitialBackoff time.Duration
}

func DefaultRetryOptions() RetryOptions {
	return RetryOptions{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
	}
}

// WithRetry re-issues fn on transient upstream failures with exponential
// backoff and jitter. Permanent failures (4xx other than 408/429) return
// immediately.
func WithRetry(ctx context.Context, opts RetryOptions, fn func() error) error {
	var lastErr error
	backoff := opts.InitialBackoff
	if backoff <= 0 {
		backoff = 50 * time.Millisecond
	}

	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn()
		if err == nil {
			return nil
		}

		if ClassifyError(err) == ErrorClassPermanent {
			return err
		}

		if attempt == opts.MaxRetries {
			return fmt.Errorf("max retries (%d) exceeded: %w", opts.MaxRetries, err)
		}

		lastErr = err

		jitter := time.Duration(rand.Int63n(int64(backoff/4) + 1))
		sleepDuration := backoff + jitter

		select {
		case <-time.After(sleepDuration):
		case <-ctx.Done():
			return ctx.Err()
		}

		backoff *= 2
	}

	return lastErr
}
