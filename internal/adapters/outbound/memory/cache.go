// cache.go provides an in-memory implementation of ProductCache.
//
// Entries expire lazily on read. For production, use the Redis adapter.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/freshmart/orderflow/internal/domain/entity"
	"github.com/freshmart/orderflow/internal/ports/outbound"
)

// Compile-time check that ProductCache implements outbound.ProductCache
var _ outbound.ProductCache = (*ProductCache)(nil)

type cacheEntry struct {
	product   entity.Product
	expiresAt time.Time
}

// ProductCache is an in-memory implementation of the ProductCache port for
// testing. A zero TTL means entries never expire.
type ProductCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
}

// NewProductCache creates a new in-memory product cache for testing.
func NewProductCache(ttl time.Duration) *ProductCache {
	return &ProductCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
}

// GetProduct returns the cached product, or nil on a cache miss.
func (c *ProductCache) GetProduct(ctx context.Context, productID string) (*entity.Product, error) {
	c.mu.RLock()
	entry, ok := c.entries[productID]
	c.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, productID)
		c.mu.Unlock()
		return nil, nil
	}
	cp := entry.product
	return &cp, nil
}

// SetProduct caches a product with the configured TTL.
func (c *ProductCache) SetProduct(ctx context.Context, product *entity.Product) error {
	entry := cacheEntry{product: *product}
	if c.ttl > 0 {
		entry.expiresAt = time.Now().Add(c.ttl)
	}

	c.mu.Lock()
	c.entries[product.ID] = entry
	c.mu.Unlock()
	return nil
}

// Invalidate removes a product from the cache.
func (c *ProductCache) Invalidate(ctx context.Context, productID string) error {
	c.mu.Lock()
	delete(c.entries, productID)
	c.mu.Unlock()
	return nil
}

// Ping reports the cache as reachable.
func (c *ProductCache) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close clears the cache.
func (c *ProductCache) Close() error {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
	return nil
}

// Len returns the number of live entries. Test helper.
func (c *ProductCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
