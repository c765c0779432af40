package catalog

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/dermage/skin-analysis-api/internal/model"
)

// Cache holds parsed catalog documents keyed by CatalogKey ID. It is
// populated lazily and never invalidated within the process lifetime:
// catalog documents are immutable per deployment.
//
// Concurrency contract: concurrent reads are safe; inserts are idempotent.
// Two requests racing on the same missing key may both parse the document,
// which wastes a parse but is harmless since the results are identical.
type Cache struct {
	mu      sync.RWMutex
	entries map[string][]model.ProductRecord
}

// NewCache creates an empty catalog cache. The composition root owns the
// instance and passes it by reference.
func NewCache() *Cache {
	return &Cache{entries: make(map[string][]model.ProductRecord)}
}

func (c *Cache) get(key string) ([]model.ProductRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	recs, ok := c.entries[key]
	return recs, ok
}

func (c *Cache) put(key string, recs []model.ProductRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = recs
}

// Len reports the number of cached catalog keys.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Resolver maps a CatalogKey to its parsed product records, cache-first.
type Resolver struct {
	store DocumentStore
	cache *Cache
}

// NewResolver creates a Resolver over a document store and a shared cache.
func NewResolver(store DocumentStore, cache *Cache) *Resolver {
	return &Resolver{store: store, cache: cache}
}

// Resolve returns the product records for a key, possibly empty. A missing
// document is an expected condition: it is logged, cached as empty so the
// store is not re-queried, and returned as an empty slice.
func (r *Resolver) Resolve(ctx context.Context, key model.CatalogKey) ([]model.ProductRecord, error) {
	id := key.ID()

	if recs, ok := r.cache.get(id); ok {
		return recs, nil
	}

	raw, err := r.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			zap.L().Warn("catalog document missing",
				zap.String("key", id),
			)
			// Cache the miss too, so repeated lookups stay cheap.
			r.cache.put(id, nil)
			return nil, nil
		}
		return nil, err
	}

	recs := Parse(raw)
	if len(recs) == 0 {
		zap.L().Warn("catalog document yielded no parseable products",
			zap.String("key", id),
		)
	}
	r.cache.put(id, recs)
	return recs, nil
}

// Warm resolves every key in the manifest up front so first requests don't
// pay the parse cost. Missing documents are tolerated; genuine store
// failures are not.
func (r *Resolver) Warm(ctx context.Context, keys []model.CatalogKey, concurrency int) error {
	return warm(ctx, r, keys, concurrency)
}
