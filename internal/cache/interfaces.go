package cache

import (
	"context"

	"skinvault-api/internal/model"
)

// PriceCache is the process-local, short-TTL first tier of the price
// lookup hierarchy. This abstraction allows swapping between memory
// cache (development) and Redis cache (production) without changing
// business logic.
type PriceCache interface {
	// Get retrieves a cached price. Returns ErrCacheMiss if not found
	// or expired.
	Get(ctx context.Context, key model.ItemKey) (float64, error)

	// Set stores a price under the cache's configured TTL.
	Set(ctx context.Context, key model.ItemKey, price float64) error

	// Delete removes a cached price.
	Delete(ctx context.Context, key model.ItemKey) error

	// Clear removes all cached prices.
	Clear(ctx context.Context) error

	// Close releases cache resources.
	Close() error
}

// CacheError is a cache failure class.
type CacheError string

func (e CacheError) Error() string { return string(e) }

// ErrCacheMiss indicates the key was not found in cache.
const ErrCacheMiss CacheError = "cache miss"
