package repository

import (
	"context"
	"time"

	"skinvault-api/internal/model"
)

// RepoError is a persistent-store failure class.
type RepoError string

func (e RepoError) Error() string { return string(e) }

// ErrStoreUnavailable indicates the persistent store cannot be
// reached. The price service absorbs it by degrading to the in-memory
// store; it is never user-visible.
const ErrStoreUnavailable RepoError = "persistent store unavailable"

// PriceRepository defines persisted price data access. One row per
// ItemKey; concurrent upserts resolve last-writer-wins.
type PriceRepository interface {
	// Ping reports store health. Consulted once per operation by the
	// price service to decide between this store and the in-memory
	// fallback.
	Ping(ctx context.Context) error

	// GetPrice returns the record for the key, or nil when absent.
	GetPrice(ctx context.Context, key model.ItemKey) (*model.PriceRecord, error)

	// SavePrice upserts the price for the key, refreshing both
	// timestamps and incrementing the update count.
	SavePrice(ctx context.Context, key model.ItemKey, price float64, at time.Time) error

	// GetOutdated returns up to limit records with last_updated older
	// than the cutoff, oldest first.
	GetOutdated(ctx context.Context, olderThan time.Time, limit int) ([]model.PriceRecord, error)

	// GetStats summarizes the price table.
	GetStats(ctx context.Context) (*model.StoreStats, error)

	// SetMetadata upserts a bookkeeping key/value pair.
	SetMetadata(ctx context.Context, key, value string) error

	// GetMetadata returns the value for the key, or def when absent.
	GetMetadata(ctx context.Context, key, def string) (string, error)

	// Close closes the repository connection.
	Close() error
}
