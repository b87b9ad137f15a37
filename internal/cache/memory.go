package cache

import (
	"context"
	"sync"
	"time"

	"skinvault-api/internal/model"
)

// priceEntry is a cached price with expiration.
type priceEntry struct {
	price     float64
	expiresAt time.Time
}

func (e *priceEntry) isExpired() bool {
	return time.Now().After(e.expiresAt)
}

// MemoryPriceCache is an in-memory implementation of PriceCache.
// Use this for development/testing or single-instance deployments.
type MemoryPriceCache struct {
	mu      sync.RWMutex
	entries map[string]*priceEntry
	ttl     time.Duration

	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once
}

// NewMemoryPriceCache creates an in-memory price cache with automatic
// cleanup of expired entries.
func NewMemoryPriceCache(ttl time.Duration) *MemoryPriceCache {
	c := &MemoryPriceCache{
		entries:         make(map[string]*priceEntry),
		ttl:             ttl,
		cleanupInterval: time.Minute,
		stopCleanup:     make(chan struct{}),
	}

	go c.cleanup()

	return c
}

// Get retrieves a cached price.
func (c *MemoryPriceCache) Get(ctx context.Context, key model.ItemKey) (float64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[key.String()]
	if !exists || entry.isExpired() {
		return 0, ErrCacheMiss
	}
	return entry.price, nil
}

// Set stores a price under the configured TTL.
func (c *MemoryPriceCache) Set(ctx context.Context, key model.ItemKey, price float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key.String()] = &priceEntry{
		price:     price,
		expiresAt: time.Now().Add(c.ttl),
	}
	return nil
}

// Delete removes a cached price.
func (c *MemoryPriceCache) Delete(ctx context.Context, key model.ItemKey) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key.String())
	return nil
}

// Clear removes all cached prices.
func (c *MemoryPriceCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*priceEntry)
	return nil
}

// Close stops the background cleanup goroutine.
func (c *MemoryPriceCache) Close() error {
	c.stopOnce.Do(func() { close(c.stopCleanup) })
	return nil
}

// cleanup periodically removes expired entries.
func (c *MemoryPriceCache) cleanup() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stopCleanup:
			return
		}
	}
}

func (c *MemoryPriceCache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.entries {
		if entry.isExpired() {
			delete(c.entries, key)
		}
	}
}

// Ensure MemoryPriceCache implements PriceCache
var _ PriceCache = (*MemoryPriceCache)(nil)
