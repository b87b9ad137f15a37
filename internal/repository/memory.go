package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"skinvault-api/internal/model"
)

// MemoryPriceRepository implements PriceRepository with a plain map.
// It backs degraded mode: when the persistent store is unreachable the
// price service keeps writing here so resolved prices survive for the
// lifetime of the outage. Also used in tests.
type MemoryPriceRepository struct {
	mu       sync.RWMutex
	prices   map[string]model.PriceRecord
	metadata map[string]model.Metadata
}

// NewMemoryPriceRepository creates an empty in-memory price repository.
func NewMemoryPriceRepository() *MemoryPriceRepository {
	return &MemoryPriceRepository{
		prices:   make(map[string]model.PriceRecord),
		metadata: make(map[string]model.Metadata),
	}
}

// Ping always succeeds.
func (r *MemoryPriceRepository) Ping(ctx context.Context) error { return nil }

// GetPrice returns the record for the key, or nil when absent.
func (r *MemoryPriceRepository) GetPrice(ctx context.Context, key model.ItemKey) (*model.PriceRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.prices[key.String()]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// SavePrice upserts the price for the key.
func (r *MemoryPriceRepository) SavePrice(ctx context.Context, key model.ItemKey, price float64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key.String()
	rec, ok := r.prices[k]
	if !ok {
		rec = model.PriceRecord{Key: key}
	}
	rec.Price = price
	rec.LastUpdated = at
	rec.LastScraped = at
	rec.UpdateCount++
	r.prices[k] = rec
	return nil
}

// GetOutdated returns the oldest stale records, oldest first.
func (r *MemoryPriceRepository) GetOutdated(ctx context.Context, olderThan time.Time, limit int) ([]model.PriceRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var records []model.PriceRecord
	for _, rec := range r.prices {
		if rec.LastUpdated.Before(olderThan) {
			records = append(records, rec)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].LastUpdated.Before(records[j].LastUpdated)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// GetStats summarizes the held prices.
func (r *MemoryPriceRepository) GetStats(ctx context.Context) (*model.StoreStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &model.StoreStats{DatabaseType: "memory", TotalSkins: len(r.prices)}
	recent := time.Now().Add(-7 * 24 * time.Hour)

	var sum float64
	for _, rec := range r.prices {
		sum += rec.Price
		if rec.LastUpdated.After(recent) {
			stats.RecentlyUpdated++
		}
		if stats.LastUpdate == nil || rec.LastUpdated.After(*stats.LastUpdate) {
			t := rec.LastUpdated
			stats.LastUpdate = &t
		}
	}
	if len(r.prices) > 0 {
		stats.AveragePrice = sum / float64(len(r.prices))
	}
	return stats, nil
}

// SetMetadata upserts a bookkeeping key/value pair.
func (r *MemoryPriceRepository) SetMetadata(ctx context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.metadata[key] = model.Metadata{Key: key, Value: value, UpdatedAt: time.Now()}
	return nil
}

// GetMetadata returns the value for the key, or def when absent.
func (r *MemoryPriceRepository) GetMetadata(ctx context.Context, key, def string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if m, ok := r.metadata[key]; ok {
		return m.Value, nil
	}
	return def, nil
}

// Close is a no-op.
func (r *MemoryPriceRepository) Close() error { return nil }

// Ensure MemoryPriceRepository implements PriceRepository
var _ PriceRepository = (*MemoryPriceRepository)(nil)
