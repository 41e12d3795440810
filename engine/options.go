package engine

import (
	"io"
	"log/slog"
	"time"
)

const (
	// DefaultBatchSize is the number of catalog texts sent per embedding call.
	DefaultBatchSize = 32

	// DefaultQueryCacheSize is the number of query embeddings kept in memory.
	DefaultQueryCacheSize = 1024
)

// Option configures an Engine.
type Option func(*Engine) error

// WithBatchSize sets the number of texts per embedding call.
// Values below 1 are treated as 1. Batch size never changes the resulting vectors.
func WithBatchSize(size int) Option {
	return func(e *Engine) error {
		if size < 1 {
			size = 1
		}
		e.batchSize = size
		return nil
	}
}

// WithConcurrency sets how many embedding batches may be in flight at once.
// Default is 1.
func WithConcurrency(workers int) Option {
	return func(e *Engine) error {
		if workers < 1 {
			workers = 1
		}
		e.concurrency = workers
		return nil
	}
}

// WithRetry retries a failed embedding batch up to attempts times in total,
// waiting delay before the second attempt and doubling it after each failure.
// Default is a single attempt.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(e *Engine) error {
		if attempts < 1 {
			attempts = 1
		}
		e.attempts = attempts
		e.retryDelay = delay
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// WithProgress writes catalog embedding progress to w.
func WithProgress(w io.Writer) Option {
	return func(e *Engine) error {
		e.progress = w
		return nil
	}
}

// WithQueryCache sets how many query embeddings are cached. 0 disables the cache.
func WithQueryCache(maxEntries int) Option {
	return func(e *Engine) error {
		if maxEntries < 0 {
			maxEntries = 0
		}
		e.cacheSize = maxEntries
		return nil
	}
}

// WithMonitor installs hooks that observe every recommendation.
func WithMonitor(monitor Monitor) Option {
	return func(e *Engine) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		e.monitor = monitor
		return nil
	}
}
