package blueprint

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/untillpro/goutils/logger"

	"github.com/reoring/blueprint/loader"
)

// DefaultCacheSize bounds a Cache created with size <= 0.
const DefaultCacheSize = 128

// Cache memoizes loaded Blueprints by name and variant. Cached values are
// indexed before they are stored, so hits never pay for indexing. A Cache is
// safe for concurrent use; two goroutines missing the same key may both load
// it, and the first stored value wins.
type Cache struct {
	mu     sync.Mutex
	lru    *lru.Cache[string, *Blueprint]
	loader *loader.Loader
	opts   []Options
}

// NewCache returns a Cache loading through l.
func NewCache(size int, l *loader.Loader, opts ...Options) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[string, *Blueprint](size)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: c, loader: l, opts: opts}, nil
}

func cacheKey(name, variant string) string { return name + "\x00" + variant }

// Get returns the Blueprint for name under variant, loading it on a miss.
// Failed loads are not cached.
func (c *Cache) Get(ctx context.Context, name, variant string) (*Blueprint, error) {
	key := cacheKey(name, variant)
	if b, ok := c.lru.Get(key); ok {
		return b, nil
	}
	b, err := LoadContext(ctx, c.loader, name, variant, c.opts...)
	if err != nil {
		return nil, err
	}
	if _, err := b.Index(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.lru.Get(key); ok {
		return prev, nil
	}
	c.lru.Add(key, b)
	logger.Verbose(fmt.Sprintf("blueprint cache: stored %s (variant %q)", name, variant))
	return b, nil
}

// Forget drops one entry.
func (c *Cache) Forget(name, variant string) { c.lru.Remove(cacheKey(name, variant)) }

// Purge drops every entry.
func (c *Cache) Purge() { c.lru.Purge() }

func (c *Cache) Len() int { return c.lru.Len() }
