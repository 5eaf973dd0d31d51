package textstore

import (
	"context"
	"errors"
	"sync"
	"time"

	"stock-insight/internal/errs"
	"stock-insight/internal/interfaces"
	"stock-insight/internal/types"
)

// Cache is an in-memory TTL cache
type Cache[V any] struct {
	ttl     time.Duration
	now     func() time.Time
	mu      sync.RWMutex
	entries map[string]cacheEntry[V]
}

type cacheEntry[V any] struct {
	value   V
	expires time.Time
}

func NewCache[V any](ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry[V]),
	}
}

// Get returns the value for key if present and not expired
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().After(e.expires) {
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *Cache[V]) Set(key string, v V) {
	c.mu.Lock()
	c.entries[key] = cacheEntry[V]{value: v, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// CleanupExpired removes expired entries
func (c *Cache[V]) CleanupExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for k, e := range c.entries {
		if now.After(e.expires) {
			delete(c.entries, k)
		}
	}
}

// GetOrFetch returns the cached value or calls fetch and caches its result.
// Errors are not cached.
func (c *Cache[V]) GetOrFetch(key string, fetch func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := fetch()
	if err != nil {
		return v, err
	}
	c.Set(key, v)
	return v, nil
}

// Cached wraps a store so repeated lookups within ttl skip the backend.
// Unknown companies are cached too, so a missing ticker does not hit the backend every run.
type Cached struct {
	next        interfaces.SentimentTextStore
	influencers *Cache[[]types.Influencer]
	unknown     *Cache[struct{}]
	texts       *Cache[[]string]
}

var _ interfaces.SentimentTextStore = (*Cached)(nil)

func NewCached(next interfaces.SentimentTextStore, ttl time.Duration) *Cached {
	return &Cached{
		next:        next,
		influencers: NewCache[[]types.Influencer](ttl),
		unknown:     NewCache[struct{}](ttl),
		texts:       NewCache[[]string](ttl),
	}
}

func (c *Cached) GetInfluencers(ctx context.Context, ticker string) ([]types.Influencer, error) {
	key := normalizeTicker(ticker)
	if _, ok := c.unknown.Get(key); ok {
		return nil, errs.ErrNotFound
	}
	infs, err := c.influencers.GetOrFetch(key, func() ([]types.Influencer, error) {
		return c.next.GetInfluencers(ctx, ticker)
	})
	if errors.Is(err, errs.ErrNotFound) {
		c.unknown.Set(key, struct{}{})
	}
	return infs, err
}

func (c *Cached) GetTexts(ctx context.Context, influencer string) ([]string, error) {
	return c.texts.GetOrFetch(influencer, func() ([]string, error) {
		return c.next.GetTexts(ctx, influencer)
	})
}
