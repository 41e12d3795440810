// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package recommendit recommends assessment products for job descriptions.
//
// A Recommender is built once per process from a catalog file and shared by
// every caller; construction embeds the whole catalog and is the expensive step.
package recommendit

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/recommendit/ai"
	"github.com/poiesic/recommendit/ai/local"
	"github.com/poiesic/recommendit/ai/openai"
	"github.com/poiesic/recommendit/catalog"
	"github.com/poiesic/recommendit/core"
	"github.com/poiesic/recommendit/engine"
)

// Recommender owns a loaded catalog and the engine built over it.
type Recommender struct {
	catalog *catalog.Catalog
	engine  *engine.Engine
	logger  *slog.Logger
}

// Option configures a Recommender.
type Option func(*options)

type options struct {
	aiConfig    *ai.Config
	embedder    ai.Embedder
	batchSize   int
	concurrency int
	progress    io.Writer
	attempts    int
	retryDelay  time.Duration
	logger      *slog.Logger
}

// WithAIConfig selects and configures the embedding backend.
// Default is ai.DefaultConfig().
func WithAIConfig(config *ai.Config) Option {
	return func(o *options) {
		o.aiConfig = config
	}
}

// WithEmbedder uses embedder directly and ignores the AI configuration.
func WithEmbedder(embedder ai.Embedder) Option {
	return func(o *options) {
		o.embedder = embedder
	}
}

// WithBatchSize sets the number of catalog texts per embedding call.
func WithBatchSize(size int) Option {
	return func(o *options) {
		o.batchSize = size
	}
}

// WithConcurrency sets how many embedding calls may run at once during construction.
func WithConcurrency(workers int) Option {
	return func(o *options) {
		o.concurrency = workers
	}
}

// WithRetry retries failed catalog embedding calls with exponential backoff.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(o *options) {
		o.attempts = attempts
		o.retryDelay = delay
	}
}

// WithProgress writes catalog embedding progress to w.
func WithProgress(w io.Writer) Option {
	return func(o *options) {
		o.progress = w
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New loads the catalog at catalogPath and embeds it.
// Any failure is returned; no partially built Recommender is ever handed out.
func New(ctx context.Context, catalogPath string, opts ...Option) (*Recommender, error) {
	// Apply options
	options := &options{
		aiConfig:    ai.DefaultConfig(), // Default if not provided
		batchSize:   engine.DefaultBatchSize,
		concurrency: 1,
		attempts:    1,
	}
	for _, opt := range opts {
		opt(options)
	}
	logger := options.logger
	if logger == nil {
		logger = slog.Default()
	}

	cat, err := catalog.Load(catalogPath, catalog.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	embedder := options.embedder
	if embedder == nil {
		embedder, err = NewEmbedder(options.aiConfig)
		if err != nil {
			return nil, err
		}
	}

	eng, err := engine.New(ctx, cat, embedder,
		engine.WithBatchSize(options.batchSize),
		engine.WithConcurrency(options.concurrency),
		engine.WithProgress(options.progress),
		engine.WithRetry(options.attempts, options.retryDelay),
		engine.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	return &Recommender{
		catalog: cat,
		engine:  eng,
		logger:  logger,
	}, nil
}

// NewEmbedder creates the embedder selected by config.Backend.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	if config == nil {
		config = ai.DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Backend {
	case ai.BackendLocal:
		return local.NewEmbedder(config)
	case ai.BackendOpenAI:
		return openai.NewEmbedder(config)
	default:
		return nil, fmt.Errorf("ai config: unknown backend %q", config.Backend)
	}
}

// Recommend ranks catalog items for q. See engine.Engine.Recommend.
func (r *Recommender) Recommend(ctx context.Context, q core.Query) (*core.Result, error) {
	return r.engine.Recommend(ctx, q)
}

// Catalog returns the loaded catalog.
func (r *Recommender) Catalog() *catalog.Catalog {
	return r.catalog
}

// Export writes the result's items as CSV. A nil or empty result writes only the header.
func (r *Recommender) Export(w io.Writer, result *core.Result) error {
	var items []core.Recommendation
	if result != nil {
		items = result.Items
	}
	if err := catalog.WriteCSV(w, items); err != nil {
		r.logger.Error("error exporting recommendations", "err", err)
		return err
	}
	return nil
}

// Close releases the engine's query cache.
func (r *Recommender) Close() error {
	r.engine.Close()
	return nil
}
