package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"skinvault-api/internal/model"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

// MySQLPriceRepository implements PriceRepository using MySQL.
type MySQLPriceRepository struct {
	db *sql.DB
}

// NewMySQLPriceRepository creates a new MySQL price repository.
// dsn format: "user:password@tcp(host:port)/dbname?parseTime=true"
func NewMySQLPriceRepository(dsn string) (*MySQLPriceRepository, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	if err := createMySQLTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[MySQLPriceRepository] Initialized")
	return &MySQLPriceRepository{db: db}, nil
}

func createMySQLTables(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS skin_prices (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			market_hash_name VARCHAR(255) NOT NULL,
			price DOUBLE NOT NULL,
			currency INT NOT NULL,
			app_id INT NOT NULL,
			last_updated DATETIME NOT NULL,
			last_scraped DATETIME NOT NULL,
			update_count INT DEFAULT 1,
			UNIQUE KEY uniq_item (market_hash_name, currency, app_id),
			KEY idx_last_updated (last_updated)
		)`,
		`CREATE TABLE IF NOT EXISTS metadata (
			` + "`key`" + ` VARCHAR(255) PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Ping reports store health.
func (r *MySQLPriceRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// GetPrice returns the record for the key, or nil when absent.
func (r *MySQLPriceRepository) GetPrice(ctx context.Context, key model.ItemKey) (*model.PriceRecord, error) {
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
func (r *MySQLPriceRepository) SavePrice(ctx context.Context, key model.ItemKey, price float64, at time.Time) error {
	query := `
		INSERT INTO skin_prices (market_hash_name, price, currency, app_id, last_updated, last_scraped, update_count)
		VALUES (?, ?, ?, ?, ?, ?, 1)
		ON DUPLICATE KEY UPDATE
			price = VALUES(price),
			last_updated = VALUES(last_updated),
			last_scraped = VALUES(last_scraped),
			update_count = update_count + 1`

	if _, err := r.db.ExecContext(ctx, query, key.MarketHashName, price, key.Currency, key.AppID, at, at); err != nil {
		return fmt.Errorf("failed to upsert price: %w", err)
	}
	return nil
}

// GetOutdated returns the oldest stale records, oldest first.
func (r *MySQLPriceRepository) GetOutdated(ctx context.Context, olderThan time.Time, limit int) ([]model.PriceRecord, error) {
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
func (r *MySQLPriceRepository) GetStats(ctx context.Context) (*model.StoreStats, error) {
	stats := &model.StoreStats{DatabaseType: "mysql"}

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
func (r *MySQLPriceRepository) SetMetadata(ctx context.Context, key, value string) error {
	query := "INSERT INTO metadata (`key`, value, updated_at) VALUES (?, ?, ?) " +
		"ON DUPLICATE KEY UPDATE value = VALUES(value), updated_at = VALUES(updated_at)"

	if _, err := r.db.ExecContext(ctx, query, key, value, time.Now()); err != nil {
		return fmt.Errorf("failed to set metadata: %w", err)
	}
	return nil
}

// GetMetadata returns the value for the key, or def when absent.
func (r *MySQLPriceRepository) GetMetadata(ctx context.Context, key, def string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE `key` = ?", key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return def, nil
		}
		return def, fmt.Errorf("failed to get metadata: %w", err)
	}
	return value, nil
}

// Close closes the database connection.
func (r *MySQLPriceRepository) Close() error {
	return r.db.Close()
}

// Ensure MySQLPriceRepository implements PriceRepository
var _ PriceRepository = (*MySQLPriceRepository)(nil)
