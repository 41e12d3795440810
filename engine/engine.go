package engine

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/recommendit/ai"
	"github.com/poiesic/recommendit/catalog"
	"github.com/poiesic/recommendit/core"
)

// Engine recommends catalog items for free-text queries.
// The catalog and its embedding matrix are immutable after New, so
// Recommend is safe for concurrent use whenever the embedder is.
type Engine struct {
	catalog  *catalog.Catalog
	items    []core.CatalogItem
	vectors  [][]float32 // Unit length, one row per item
	dim      int
	embedder ai.Embedder
	cache    *queryCache
	monitor  Monitor
	logger   *slog.Logger

	batchSize   int
	concurrency int
	progress    io.Writer
	cacheSize   int
	attempts    int
	retryDelay  time.Duration
	closeOnce   sync.Once
}

// New embeds every catalog item and returns a ready engine.
// Any embedding failure is fatal; no partially built engine is returned.
func New(ctx context.Context, cat *catalog.Catalog, embedder ai.Embedder, opts ...Option) (*Engine, error) {
	if cat == nil {
		return nil, ErrCatalogRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	e := &Engine{
		catalog:     cat,
		items:       cat.Items(),
		embedder:    embedder,
		monitor:     &noopMonitor{},
		logger:      slog.Default(),
		batchSize:   DefaultBatchSize,
		concurrency: 1,
		cacheSize:   DefaultQueryCacheSize,
		attempts:    1,
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	e.logger = e.logger.With("component", "engine")

	raw, err := e.embedCatalog(ctx, cat.SearchTexts())
	if err != nil {
		e.logger.Error("error embedding catalog", "items", len(e.items), "err", err)
		return nil, err
	}

	e.vectors, e.dim, err = normalizeMatrix(raw)
	if err != nil {
		e.logger.Error("error embedding catalog", "items", len(e.items), "err", err)
		return nil, err
	}

	e.cache, err = newQueryCache(e.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating query cache: %w", err)
	}

	e.logger.Info("engine ready", "items", len(e.items), "dimensions", e.dim,
		"batch_size", e.batchSize, "concurrency", e.concurrency)
	return e, nil
}

// embedCatalog embeds texts in batches of batchSize on a pool of concurrency
// workers. Each batch writes only its own rows, so the result does not depend
// on batch size, worker count or completion order.
func (e *Engine) embedCatalog(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	if len(texts) == 0 {
		return vectors, nil
	}

	pool, err := ants.NewPool(e.concurrency)
	if err != nil {
		return nil, fmt.Errorf("creating embedding pool: %w", err)
	}
	defer pool.Release()

	batchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	progress := newProgressTracker(e.progress, len(texts), e.batchSize)
	progress.Start()
	defer progress.Finish()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
	}

	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))
		batch := texts[start:end]

		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if batchCtx.Err() != nil {
				return
			}

			var out [][]float32
			err := retry(batchCtx, e.logger, e.attempts, e.retryDelay, func() error {
				var embedErr error
				out, embedErr = e.embedder.EmbedTexts(batchCtx, batch)
				return embedErr
			})
			if err != nil {
				fail(fmt.Errorf("%w: batch at item %d: %w", core.ErrEmbedding, start, err))
				return
			}
			if len(out) != len(batch) {
				fail(fmt.Errorf("%w: batch at item %d returned %d vectors for %d texts",
					core.ErrEmbedding, start, len(out), len(batch)))
				return
			}
			copy(vectors[start:end], out)
			progress.Increment(len(batch))
		})
		if submitErr != nil {
			wg.Done()
			fail(fmt.Errorf("%w: %w", core.ErrEmbedding, submitErr))
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrEmbedding, err)
	}
	return vectors, nil
}

// normalizeMatrix checks every row has the same non-zero dimension and
// returns unit-length copies.
func normalizeMatrix(raw [][]float32) ([][]float32, int, error) {
	if len(raw) == 0 {
		return raw, 0, nil
	}

	dim := len(raw[0])
	if dim == 0 {
		return nil, 0, fmt.Errorf("%w: item 0 has an empty vector", core.ErrEmbedding)
	}

	vectors := make([][]float32, len(raw))
	for i, v := range raw {
		if len(v) != dim {
			return nil, 0, fmt.Errorf("%w: item %d has dimension %d, expected %d",
				core.ErrEmbedding, i, len(v), dim)
		}
		if !isFinite(v) {
			return nil, 0, fmt.Errorf("%w: item %d has a non-finite component", core.ErrEmbedding, i)
		}
		vectors[i] = NormalizeVector(v)
	}
	return vectors, dim, nil
}

// Recommend ranks catalog items for q.
//
// Invalid queries are returned as errors wrapping core.ErrInvalidQuery.
// Every other failure is logged and reported as a core.StageFailed result
// with no items and a nil error.
func (e *Engine) Recommend(ctx context.Context, q core.Query) (result *core.Result, err error) {
	if err := core.ValidateQuery(q); err != nil {
		return nil, err
	}
	if q.TopK == 0 {
		q.TopK = core.DefaultTopK
	}

	defer func() {
		if r := recover(); r != nil {
			result = e.failed(q, fmt.Errorf("%w: %v", ErrRecommendation, r))
			err = nil
		}
		e.monitor.Finish(result)
	}()
	e.monitor.Start(q)

	scores, scoreErr := e.score(ctx, q.Text)
	if scoreErr != nil {
		return e.failed(q, scoreErr), nil
	}
	e.monitor.AfterScoring(scores)

	candidates := e.filter(q)
	e.monitor.AfterFilter(len(candidates))

	// At most two passes: the requested threshold, then the relaxed floor.
	stage, minScore := core.StageStrict, q.MinScore
	for {
		passing := make([]core.Recommendation, 0, len(candidates))
		for _, i := range candidates {
			if scores[i] >= minScore {
				passing = append(passing, e.recommendation(i, scores[i]))
			}
		}
		if len(passing) >= q.TopK {
			return e.served(q, stage, topK(passing, q.TopK)), nil
		}
		if stage == core.StageRelaxed || minScore <= core.RelaxedMinScore {
			break
		}
		stage, minScore = core.StageRelaxed, core.RelaxedMinScore
		e.monitor.Relaxed(minScore)
	}

	tokens := keywordTokens(q.Text)
	matches := e.keywordMatches(tokens, q.TopK)
	e.monitor.KeywordFallback(tokens, len(matches))
	if len(matches) > 0 {
		return e.served(q, core.StageKeyword, matches), nil
	}

	e.monitor.LastResort(len(candidates))
	ranked := make([]core.Recommendation, 0, len(candidates))
	for _, i := range candidates {
		ranked = append(ranked, e.recommendation(i, scores[i]))
	}
	return e.served(q, core.StageLastResort, topK(ranked, q.TopK)), nil
}

// score returns the cosine similarity of the query to every item.
func (e *Engine) score(ctx context.Context, text string) ([]float32, error) {
	scores := make([]float32, len(e.items))
	if len(e.items) == 0 {
		return scores, nil
	}

	query, err := e.embedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	for i, row := range e.vectors {
		scores[i] = cosine(query, row)
	}
	return scores, nil
}

// embedQuery returns the unit-length query vector, consulting the cache first.
func (e *Engine) embedQuery(ctx context.Context, text string) ([]float32, error) {
	if vector, ok := e.cache.get(text); ok {
		return vector, nil
	}

	raw, err := e.embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %w", core.ErrEmbedding, err)
	}
	if len(raw) != e.dim {
		return nil, fmt.Errorf("%w: query has dimension %d, catalog has %d",
			core.ErrEmbedding, len(raw), e.dim)
	}
	if !isFinite(raw) {
		return nil, fmt.Errorf("%w: query has a non-finite component", core.ErrEmbedding)
	}

	vector := NormalizeVector(raw)
	e.cache.set(text, vector)
	return vector, nil
}

// filter returns the indices of items eligible for the query's level and
// categories, in catalog order.
func (e *Engine) filter(q core.Query) []int {
	var categories map[string]bool
	if len(q.Categories) > 0 {
		categories = make(map[string]bool, len(q.Categories))
		for _, category := range q.Categories {
			categories[category] = true
		}
	}

	candidates := make([]int, 0, len(e.items))
	for i := range e.items {
		item := &e.items[i]
		if !item.MatchesLevel(q.ExperienceLevel) {
			continue
		}
		if categories != nil && !categories[item.Category] {
			continue
		}
		candidates = append(candidates, i)
	}
	return candidates
}

// keywordMatches scans the whole catalog, ignoring filters, and returns up to
// limit items whose keywords contain any token.
func (e *Engine) keywordMatches(tokens []string, limit int) []core.Recommendation {
	if len(tokens) == 0 {
		return nil
	}
	var matches []core.Recommendation
	for i := range e.items {
		if !matchesAnyToken(e.items[i].Keywords, tokens) {
			continue
		}
		matches = append(matches, e.recommendation(i, core.KeywordScore))
		if len(matches) == limit {
			break
		}
	}
	return matches
}

func (e *Engine) recommendation(i int, score float32) core.Recommendation {
	return core.Recommendation{Item: e.items[i], Score: score}
}

// topK sorts recs by descending score, keeping catalog order among ties,
// and truncates to k.
func topK(recs []core.Recommendation, k int) []core.Recommendation {
	slices.SortStableFunc(recs, func(a, b core.Recommendation) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if len(recs) > k {
		recs = recs[:k]
	}
	return recs
}

func (e *Engine) served(q core.Query, stage core.Stage, items []core.Recommendation) *core.Result {
	e.logger.Debug("recommendation served", "stage", stage.String(), "items", len(items),
		"top_k", q.TopK, "min_score", q.MinScore)
	return &core.Result{Stage: stage, Items: items}
}

func (e *Engine) failed(q core.Query, err error) *core.Result {
	e.logger.Error("error serving recommendation", "query", q.Text, "err", err)
	return &core.Result{Stage: core.StageFailed, Items: []core.Recommendation{}, Err: err}
}

// Catalog returns the catalog the engine was built from.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Len returns the number of embedded items.
func (e *Engine) Len() int {
	return len(e.items)
}

// Dimensions returns the embedding dimension, 0 for an empty catalog.
func (e *Engine) Dimensions() int {
	return e.dim
}

// Close releases the query cache. Recommend must not be called afterwards.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.cache.close()
	})
}
