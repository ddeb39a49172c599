// Package productcache is a read-through cache between the document
// catalog and its callers. Entries are a derived, time-bounded view:
// the catalog stays the source of truth and is never mutated here.
package productcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"MiniShop/internal/catalog"
	"MiniShop/internal/kv"
	"MiniShop/pkg/kit"
)

const (
	// DefaultTTL matches the reference cache expiration of 60 time
	// units. The TTL is set on miss-fill only; a hit never extends it.
	DefaultTTL = 60 * time.Second

	dataPrefix = "product:data:"
	namePrefix = "product:name:"

	// scanBatch bounds each SCAN iteration so bulk invalidation never
	// blocks the store with one giant enumeration.
	scanBatch = 100
)

type Cache struct {
	kv      kv.Store
	catalog catalog.Store
	ttl     time.Duration
	log     *zap.Logger
	metrics *kit.Metrics
}

func New(store kv.Store, cat catalog.Store, ttl time.Duration, log *zap.Logger, metrics *kit.Metrics) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{kv: store, catalog: cat, ttl: ttl, log: log, metrics: metrics}
}

func dataKey(collection string, id int64) string {
	return dataPrefix + collection + ":" + strconv.FormatInt(id, 10)
}

func nameKey(collection string, id int64) string {
	return namePrefix + collection + ":" + strconv.FormatInt(id, 10)
}

// GetDetails returns the product document for (collection, id). A
// cache hit costs no catalog access and no TTL refresh. On miss the
// catalog is queried exactly once; a found document populates both
// the data key and the name key with the shared TTL, and a missing
// one is reported via found=false without caching the negative.
func (c *Cache) GetDetails(ctx context.Context, collection string, id int64) (catalog.Document, bool, error) {
	key := dataKey(collection, id)

	raw, err := c.kv.Get(ctx, key)
	switch {
	case err == nil:
		var doc catalog.Document
		if uerr := json.Unmarshal(raw, &doc); uerr == nil {
			c.countHit()
			return doc, true, nil
		}
		// Corrupt entry: drop it and fall through to the catalog.
		c.log.Warn("dropping undecodable cache entry", zap.String("key", key))
		_ = c.kv.Delete(ctx, key, nameKey(collection, id))

	case errors.Is(err, kv.ErrNotFound):
		// miss

	case errors.Is(err, kv.ErrUnavailable):
		// Degrade to a direct catalog read instead of propagating the
		// transport failure; skip the fill, it would fail the same way.
		c.log.Warn("cache unavailable, bypassing", zap.Error(err))
		return c.catalog.GetByID(ctx, collection, id)

	default:
		return nil, false, fmt.Errorf("cache read: %w", err)
	}

	c.countMiss()

	doc, found, err := c.catalog.GetByID(ctx, collection, id)
	if err != nil || !found {
		return nil, false, err
	}

	c.fill(ctx, collection, id, doc)
	return doc, true, nil
}

// DisplayName returns just the cached display name, falling back to a
// full read-through when the name key is cold.
func (c *Cache) DisplayName(ctx context.Context, collection string, id int64) (string, bool, error) {
	name, err := c.kv.Get(ctx, nameKey(collection, id))
	if err == nil {
		c.countHit()
		return string(name), true, nil
	}
	if !errors.Is(err, kv.ErrNotFound) && !errors.Is(err, kv.ErrUnavailable) {
		return "", false, fmt.Errorf("cache read: %w", err)
	}

	doc, found, err := c.GetDetails(ctx, collection, id)
	if err != nil || !found {
		return "", false, err
	}
	return doc.Name(), true, nil
}

func (c *Cache) fill(ctx context.Context, collection string, id int64, doc catalog.Document) {
	data, err := json.Marshal(doc)
	if err != nil {
		c.log.Warn("cache fill marshal failed", zap.Error(err))
		return
	}

	// Fill failures degrade to uncached reads; the caller already has
	// the document.
	if err := c.kv.Set(ctx, dataKey(collection, id), data, c.ttl); err != nil {
		c.log.Warn("cache fill failed", zap.Error(err))
		return
	}
	if err := c.kv.Set(ctx, nameKey(collection, id), []byte(doc.Name()), c.ttl); err != nil {
		c.log.Warn("cache name fill failed", zap.Error(err))
	}
}

// InvalidateAll bulk-deletes every entry in both cache namespaces
// with an incremental cursor scan, deleting in bounded batches per
// iteration. It reports how many keys were removed.
func (c *Cache) InvalidateAll(ctx context.Context) (int64, error) {
	var total int64

	for _, pattern := range []string{dataPrefix + "*", namePrefix + "*"} {
		n, err := c.deleteMatching(ctx, pattern)
		total += n
		if err != nil {
			return total, fmt.Errorf("invalidate %s: %w", pattern, err)
		}
	}

	if c.metrics != nil {
		c.metrics.CacheInvalidations.Add(float64(total))
	}
	return total, nil
}

func (c *Cache) deleteMatching(ctx context.Context, pattern string) (int64, error) {
	var (
		cursor uint64
		total  int64
	)
	for {
		keys, next, err := c.kv.Scan(ctx, cursor, pattern, scanBatch)
		if err != nil {
			return total, err
		}
		if len(keys) > 0 {
			if err := c.kv.Delete(ctx, keys...); err != nil {
				return total, err
			}
			total += int64(len(keys))
		}
		if next == 0 {
			return total, nil
		}
		cursor = next
	}
}

func (c *Cache) countHit() {
	if c.metrics != nil {
		c.metrics.CacheHits.Inc()
	}
}

func (c *Cache) countMiss() {
	if c.metrics != nil {
		c.metrics.CacheMisses.Inc()
	}
}
