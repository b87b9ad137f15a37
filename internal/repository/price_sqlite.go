package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"skinvault-api/internal/model"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// SQLitePriceRepository implements PriceRepository using SQLite.
// Thread-safe with WAL mode for high-concurrency reads.
type SQLitePriceRepository struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLitePriceRepository creates a new SQLite price repository.
// dbPath is the path to the SQLite database file (e.g., "./data/prices.db")
func NewSQLitePriceRepository(dbPath string) (*SQLitePriceRepository, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// SQLite only supports 1 writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := createSQLiteTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[SQLitePriceRepository] Initialized with database: %s", dbPath)
	return &SQLitePriceRepository{db: db}, nil
}

func createSQLiteTables(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS skin_prices (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		market_hash_name TEXT NOT NULL,
		price REAL NOT NULL,
		currency INTEGER NOT NULL,
		app_id INTEGER NOT NULL,
		last_updated DATETIME NOT NULL,
		last_scraped DATETIME NOT NULL,
		update_count INTEGER DEFAULT 1,
		UNIQUE(market_hash_name, currency, app_id)
	);
	CREATE INDEX IF NOT EXISTS idx_skin_prices_name ON skin_prices(market_hash_name);
	CREATE INDEX IF NOT EXISTS idx_skin_prices_updated ON skin_prices(last_updated);
	CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`
	_, err := db.Exec(query)
	return err
}

// Ping reports store health.
func (r *SQLitePriceRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// GetPrice returns the record for the key, or nil when absent.
func (r *SQLitePriceRepository) GetPrice(ctx context.Context, key model.ItemKey) (*model.PriceRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `
		SELECT price, last_updated, last_scraped, update_count FROM skin_prices
		WHERE market_hash_name = ? AND currency = ? AND app_id = ?`

	rec := model.PriceRecord{Key: key}
	err := r.db.QueryRowContext(ctx, query, key.MarketHashName, key.Currency, key.AppID).
		Scan(&rec.Price, &rec.LastUpdated, &rec.LastScraped, &rec.UpdateCount)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get price: %w", err)
	}
	return &rec, nil
}

// SavePrice upserts the price for the key.
func (r *SQLitePriceRepository) SavePrice(ctx context.Context, key model.ItemKey, price float64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	query := `
		INSERT INTO skin_prices (market_hash_name, price, currency, app_id, last_updated, last_scraped, update_count)
		VALUES (?, ?, ?, ?, ?, ?, 1)
		ON CONFLICT(market_hash_name, currency, app_id) DO UPDATE SET
			price = excluded.price,
			last_updated = excluded.last_updated,
			last_scraped = excluded.last_scraped,
			update_count = update_count + 1`

	_, err := r.db.ExecContext(ctx, query, key.MarketHashName, price, key.Currency, key.AppID, at, at)
	if err != nil {
		return fmt.Errorf("failed to upsert price: %w", err)
	}
	return nil
}

// GetOutdated returns the oldest stale records, oldest first.
func (r *SQLitePriceRepository) GetOutdated(ctx context.Context, olderThan time.Time, limit int) ([]model.PriceRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `
		SELECT market_hash_name, price, currency, app_id, last_updated, last_scraped, update_count
		FROM skin_prices
		WHERE last_updated < ?
		ORDER BY last_updated ASC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, olderThan, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query outdated prices: %w", err)
	}
	defer rows.Close()

	var records []model.PriceRecord
	for rows.Next() {
		var rec model.PriceRecord
		if err := rows.Scan(&rec.Key.MarketHashName, &rec.Price, &rec.Key.Currency, &rec.Key.AppID,
			&rec.LastUpdated, &rec.LastScraped, &rec.UpdateCount); err != nil {
			return nil, fmt.Errorf("failed to scan outdated price: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetStats summarizes the price table.
func (r *SQLitePriceRepository) GetStats(ctx context.Context) (*model.StoreStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &model.StoreStats{DatabaseType: "sqlite"}

	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*), COALESCE(AVG(price), 0) FROM skin_prices").
		Scan(&stats.TotalSkins, &stats.AveragePrice); err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}

	recent := time.Now().Add(-7 * 24 * time.Hour)
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM skin_prices WHERE last_updated > ?", recent).
		Scan(&stats.RecentlyUpdated); err != nil {
		return nil, fmt.Errorf("failed to count recent updates: %w", err)
	}

	var last sql.NullTime
	if err := r.db.QueryRowContext(ctx, "SELECT MAX(last_updated) FROM skin_prices").Scan(&last); err == nil && last.Valid {
		stats.LastUpdate = &last.Time
	}

	return stats, nil
}

// SetMetadata upserts a bookkeeping key/value pair.
func (r *SQLitePriceRepository) SetMetadata(ctx context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	query := `
		INSERT INTO metadata (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`

	if _, err := r.db.ExecContext(ctx, query, key, value, time.Now()); err != nil {
		return fmt.Errorf("failed to set metadata: %w", err)
	}
	return nil
}

// GetMetadata returns the value for the key, or def when absent.
func (r *SQLitePriceRepository) GetMetadata(ctx context.Context, key, def string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return def, nil
		}
		return def, fmt.Errorf("failed to get metadata: %w", err)
	}
	return value, nil
}

// Close closes the database connection.
func (r *SQLitePriceRepository) Close() error {
	return r.db.Close()
}

// Ensure SQLitePriceRepository implements PriceRepository
var _ PriceRepository = (*SQLitePriceRepository)(nil)
