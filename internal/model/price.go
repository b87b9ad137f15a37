package model

import (
	"fmt"
	"time"
)

// ItemKey uniquely addresses a price: one marketplace item definition
// in one currency for one app.
type ItemKey struct {
	MarketHashName string `json:"market_hash_name"`
	Currency       int    `json:"currency"`
	AppID          int    `json:"app_id"`
}

// NewItemKey builds a key, filling zero currency and app id with the
// Steam defaults (USD, CS2).
func NewItemKey(marketHashName string, currency, appID int) ItemKey {
	if currency == 0 {
		currency = 1
	}
	if appID == 0 {
		appID = 730
	}
	return ItemKey{MarketHashName: marketHashName, Currency: currency, AppID: appID}
}

// String renders the key in cache-key form.
func (k ItemKey) String() string {
	return fmt.Sprintf("%s_%d_%d", k.MarketHashName, k.Currency, k.AppID)
}

// PriceRecord is one persisted price row, one per ItemKey.
type PriceRecord struct {
	Key         ItemKey   `json:"key"`
	Price       float64   `json:"price"`
	LastUpdated time.Time `json:"last_updated"`
	LastScraped time.Time `json:"last_scraped"`
	UpdateCount int       `json:"update_count"`
}

// IsFresh reports whether the record is younger than the staleness
// threshold and can be served without re-scraping.
func (r *PriceRecord) IsFresh(now time.Time, staleness time.Duration) bool {
	return now.Sub(r.LastUpdated) < staleness
}

// PriceHistoryEntry is one observed price sample. Entries are never
// persisted; the in-process history is rebuilt from repeated
// resolutions.
type PriceHistoryEntry struct {
	Price     float64
	Timestamp time.Time
}

// Metadata is a generic key/value row used for scheduler bookkeeping.
type Metadata struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StoreStats summarizes the persisted price table.
type StoreStats struct {
	TotalSkins      int        `json:"total_skins"`
	AveragePrice    float64    `json:"average_price"`
	RecentlyUpdated int        `json:"recently_updated"`
	LastUpdate      *time.Time `json:"last_update,omitempty"`
	DatabaseType    string     `json:"database_type"`
}

// RefreshStats is the outcome of one batch refresh run.
type RefreshStats struct {
	TotalSkins         int       `json:"total_skins"`
	UpdatedSkins       int       `json:"updated_skins"`
	FailedSkins        int       `json:"failed_skins"`
	TotalValueBefore   float64   `json:"total_value_before"`
	TotalValueAfter    float64   `json:"total_value_after"`
	AveragePriceChange float64   `json:"average_price_change"`
	StartTime          time.Time `json:"start_time"`
	EndTime            time.Time `json:"end_time"`
}
