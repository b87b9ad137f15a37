package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"skinvault-api/internal/model"
)

// Error is an inventory-provider failure class.
type Error string

func (e Error) Error() string { return string(e) }

const (
	// ErrInventoryPrivate indicates the owner's collection is not
	// publicly accessible.
	ErrInventoryPrivate Error = "inventory is private or inaccessible"

	// ErrInventoryUnavailable indicates a network or HTTP-level
	// failure against the inventory provider.
	ErrInventoryUnavailable Error = "inventory provider unreachable"
)

// pageSize is the per-request asset count the community endpoint
// accepts.
const pageSize = 2000

// Inventory is one owner's full raw collection accumulated across
// pages.
type Inventory struct {
	Assets       []model.InventoryAsset
	Descriptions []model.ItemDescription
	TotalCount   int
}

// inventoryPage mirrors one response of the community inventory
// endpoint.
type inventoryPage struct {
	Assets              []model.InventoryAsset  `json:"assets"`
	Descriptions        []model.ItemDescription `json:"descriptions"`
	MoreItems           int                     `json:"more_items"`
	LastAssetID         string                  `json:"last_assetid"`
	TotalInventoryCount int                     `json:"total_inventory_count"`
	Success             int                     `json:"success"`
}

// Config holds inventory client settings.
type Config struct {
	BaseURL     string        // default https://steamcommunity.com
	HTTPTimeout time.Duration
	PageDelay   time.Duration // mandatory wait between page fetches
	MaxPages    int           // hard bound so a lying more_items flag cannot loop forever
}

// InventoryClient fetches a user's raw item collection page by page,
// keyed by the last asset id of the previous page.
type InventoryClient struct {
	http      *http.Client
	baseURL   string
	pageDelay time.Duration
	maxPages  int
	sleep     func(time.Duration)
}

// NewInventoryClient creates an inventory client. Zero config fields
// fall back to safe defaults.
func NewInventoryClient(cfg Config) *InventoryClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://steamcommunity.com"
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 10
	}
	return &InventoryClient{
		http:      &http.Client{Timeout: cfg.HTTPTimeout},
		baseURL:   cfg.BaseURL,
		pageDelay: cfg.PageDelay,
		maxPages:  cfg.MaxPages,
		sleep:     time.Sleep,
	}
}

// FetchAll retrieves the owner's complete inventory, following the
// pagination cursor until the provider reports no more items or the
// page bound is hit.
func (c *InventoryClient) FetchAll(ctx context.Context, steamID string, appID int) (*Inventory, error) {
	inv := &Inventory{}
	cursor := ""

	for page := 0; page < c.maxPages; page++ {
		if page > 0 && c.pageDelay > 0 {
			c.sleep(c.pageDelay)
		}

		p, err := c.fetchPage(ctx, steamID, appID, cursor)
		if err != nil {
			return nil, err
		}

		inv.Assets = append(inv.Assets, p.Assets...)
		inv.Descriptions = append(inv.Descriptions, p.Descriptions...)
		inv.TotalCount = p.TotalInventoryCount

		if p.MoreItems != 1 || p.LastAssetID == "" {
			break
		}
		cursor = p.LastAssetID
	}

	return inv, nil
}

func (c *InventoryClient) fetchPage(ctx context.Context, steamID string, appID int, cursor string) (*inventoryPage, error) {
	// Context 2 is the default community inventory context.
	pageURL := fmt.Sprintf("%s/inventory/%s/%d/2?l=english&count=%d", c.baseURL, steamID, appID, pageSize)
	if cursor != "" {
		pageURL += "&start_assetid=" + cursor
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInventoryUnavailable, err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInventoryUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusForbidden, http.StatusUnauthorized:
		return nil, ErrInventoryPrivate
	default:
		return nil, fmt.Errorf("%w: status %d", ErrInventoryUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrInventoryUnavailable, err)
	}

	var page inventoryPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInventoryUnavailable, err)
	}
	if page.Success != 1 {
		return nil, ErrInventoryPrivate
	}
	return &page, nil
}
