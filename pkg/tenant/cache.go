package tenant

import (
	"context"
	"sync"
	"time"
)

// DefaultCacheSize is the default maximum number of cached tenants.
const DefaultCacheSize = 1000

// DefaultCacheTTL is the default lifetime of a cached tenant entry.
const DefaultCacheTTL = 5 * time.Minute

// CachedRegistry decorates a Registry with an in-memory TTL cache for
// FindByID, the hot call on every request. ListActive always goes to the
// underlying registry because scan iteration must see the current catalog.
type CachedRegistry struct {
	next Registry

	mu      sync.Mutex
	items   map[int64]cacheItem
	lru     []int64
	maxSize int
	ttl     time.Duration

	stop   chan struct{}
	done   chan struct{}
	closed bool
}

type cacheItem struct {
	tenant    *Tenant
	expiresAt time.Time
}

// NewCachedRegistry wraps a registry with a cache of the given size and TTL.
// Non-positive arguments select the package defaults.
func NewCachedRegistry(next Registry, maxSize int, ttl time.Duration) *CachedRegistry {
	if maxSize <= 0 {
		maxSize = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	c := &CachedRegistry{
		next:    next,
		items:   make(map[int64]cacheItem),
		lru:     make([]int64, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go c.cleanup()
	return c
}

// FindByID implements Registry. Cache misses and expired entries fall
// through to the underlying registry; ErrTenantNotFound is not cached so a
// freshly provisioned tenant becomes visible immediately.
func (c *CachedRegistry) FindByID(ctx context.Context, id int64) (*Tenant, error) {
	if t, ok := c.get(id); ok {
		return t, nil
	}

	t, err := c.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.set(id, t)
	return t, nil
}

// ListActive implements Registry by delegating to the underlying registry.
func (c *CachedRegistry) ListActive(ctx context.Context, pageSize int, pageToken string) (Page, error) {
	return c.next.ListActive(ctx, pageSize, pageToken)
}

// Invalidate drops a tenant from the cache, e.g. after a status change.
func (c *CachedRegistry) Invalidate(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, id)
	c.removeLRU(id)
}

func (c *CachedRegistry) get(id int64) (*Tenant, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, exists := c.items[id]
	if !exists {
		return nil, false
	}
	if time.Now().After(item.expiresAt) {
		delete(c.items, id)
		c.removeLRU(id)
		return nil, false
	}
	c.updateLRU(id)
	return item.tenant, true
}

func (c *CachedRegistry) set(id int64, t *Tenant) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[id]; !exists && len(c.items) >= c.maxSize {
		if len(c.lru) > 0 {
			evict := c.lru[0]
			delete(c.items, evict)
			c.lru = c.lru[1:]
		}
	}

	c.items[id] = cacheItem{tenant: t, expiresAt: time.Now().Add(c.ttl)}
	c.updateLRU(id)
}

// cleanup periodically removes expired entries.
func (c *CachedRegistry) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	defer close(c.done)

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stop:
			return
		}
	}
}

func (c *CachedRegistry) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for id, item := range c.items {
		if now.After(item.expiresAt) {
			delete(c.items, id)
			c.removeLRU(id)
		}
	}
}

func (c *CachedRegistry) updateLRU(id int64) {
	for i, k := range c.lru {
		if k == id {
			c.lru = append(c.lru[:i], c.lru[i+1:]...)
			break
		}
	}
	c.lru = append(c.lru, id)
}

func (c *CachedRegistry) removeLRU(id int64) {
	for i, k := range c.lru {
		if k == id {
			c.lru = append(c.lru[:i], c.lru[i+1:]...)
			return
		}
	}
}

// Close stops the cleanup goroutine and waits for it to finish.
func (c *CachedRegistry) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	close(c.stop)
	<-c.done
	return nil
}
