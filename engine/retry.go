package engine

import (
	"context"
	"log/slog"
	"time"
)

// retry runs op up to attempts times, waiting delay after the first failure
// and doubling the wait after each further one. It returns the last error from
// op, or the context error if ctx ends first.
func retry(ctx context.Context, logger *slog.Logger, attempts int, delay time.Duration, op func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op()
		if lastErr == nil {
			if attempt > 1 {
				logger.Debug("embedding succeeded after retry", "attempt", attempt)
			}
			return nil
		}
		if attempt == attempts {
			break
		}

		logger.Warn("embedding failed, will retry", "attempt", attempt, "max_attempts", attempts,
			"delay", delay, "err", lastErr)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}

	return lastErr
}
