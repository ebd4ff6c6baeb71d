package executor

import (
	"context"
	"time"
)

// withFixedRetry runs fn up to attempts times with a fixed delay between
// tries, returning nil on the first success and the last error otherwise.
// Context cancellation aborts the wait immediately.
func withFixedRetry(ctx context.Context, attempts int, delay time.Duration, fn func(context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
		if err = fn(ctx); err == nil {
			return nil
		}
	}
	return err
}
