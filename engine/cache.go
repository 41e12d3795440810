package engine

import (
	"slices"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/poiesic/recommendit/core"
)

// queryCache memoizes query embeddings keyed by a content hash of the query text.
// A nil cache is valid and never hits.
type queryCache struct {
	cache *ristretto.Cache[uint64, []float32]
}

// newQueryCache returns a nil cache when maxEntries is 0.
func newQueryCache(maxEntries int) (*queryCache, error) {
	if maxEntries <= 0 {
		return nil, nil
	}
	// Cost counts entries, not bytes
	cache, err := ristretto.NewCache(&ristretto.Config[uint64, []float32]{
		NumCounters:        int64(maxEntries) * 10,
		MaxCost:            int64(maxEntries),
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &queryCache{cache: cache}, nil
}

func (c *queryCache) get(text string) ([]float32, bool) {
	if c == nil {
		return nil, false
	}
	return c.cache.Get(core.HashText(text))
}

// set stores a copy so callers may keep mutating their slice.
// Admission is asynchronous and may be refused by the eviction policy.
func (c *queryCache) set(text string, vector []float32) {
	if c == nil {
		return
	}
	c.cache.Set(core.HashText(text), slices.Clone(vector), 1)
}

// wait blocks until buffered writes are applied.
func (c *queryCache) wait() {
	if c == nil {
		return
	}
	c.cache.Wait()
}

func (c *queryCache) close() {
	if c == nil {
		return
	}
	c.cache.Close()
}
