package scraper

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"sync"
	"time"

	"skinvault-api/internal/model"
)

// Error is a scrape failure class.
type Error string

func (e Error) Error() string { return string(e) }

const (
	// ErrUnreachable indicates a network or HTTP-level failure.
	ErrUnreachable Error = "marketplace unreachable"

	// ErrParseFailed indicates no plausible price could be extracted.
	ErrParseFailed Error = "no parseable price candidates"

	// ErrBudgetExceeded indicates the daily request budget is spent.
	ErrBudgetExceeded Error = "daily request budget exceeded"
)

// Candidate is one currency-tagged price string extracted from a page,
// tagged with the strategy that produced it.
type Candidate struct {
	Price    float64
	Currency string
	Source   string
}

// userAgents is the rotating set of client identifiers. On HTTP failure
// the request is retried once with the next identifier.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
}

// Config holds scraper client settings.
type Config struct {
	BaseURL      string        // marketplace root, default https://steamcommunity.com
	RequestDelay time.Duration // minimum interval between any two requests
	MaxJitter    time.Duration // random extra wait added to the delay
	HTTPTimeout  time.Duration
	DailyLimit   int // 0 disables the budget
}

// Client fetches and extracts price quotes from marketplace listing
// pages. All requests, from any goroutine, serialize onto one shared
// cadence: a single last-request timestamp guarded by a mutex.
type Client struct {
	http    *http.Client
	baseURL string
	delay   time.Duration
	jitter  time.Duration
	limit   int

	mu          sync.Mutex
	lastRequest time.Time
	uaIndex     int
	requests    int
	budgetDay   time.Time
	rng         *rand.Rand
	sleep       func(time.Duration)
}

// NewClient creates a scraper client. Zero config fields fall back to
// safe defaults.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://steamcommunity.com"
	}
	if cfg.RequestDelay <= 0 {
		cfg.RequestDelay = 1800 * time.Millisecond
	}
	if cfg.MaxJitter < 0 {
		cfg.MaxJitter = 0
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}
	return &Client{
		http:    &http.Client{Timeout: cfg.HTTPTimeout},
		baseURL: cfg.BaseURL,
		delay:   cfg.RequestDelay,
		jitter:  cfg.MaxJitter,
		limit:   cfg.DailyLimit,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:   time.Sleep,
	}
}

// acquire blocks until the shared request cadence allows another
// request, then claims the slot. A small random jitter avoids lock-step
// patterns against the target site.
func (c *Client) acquire() error {
	c.mu.Lock()

	if c.limit > 0 {
		day := time.Now().Truncate(24 * time.Hour)
		if !day.Equal(c.budgetDay) {
			c.budgetDay = day
			c.requests = 0
		}
		if c.requests >= c.limit {
			c.mu.Unlock()
			return ErrBudgetExceeded
		}
		c.requests++
	}

	wait := c.delay - time.Since(c.lastRequest)
	if c.jitter > 0 {
		wait += time.Duration(c.rng.Int63n(int64(c.jitter)))
	}
	if wait < 0 {
		wait = 0
	}
	c.lastRequest = time.Now().Add(wait)
	c.mu.Unlock()

	if wait > 0 {
		c.sleep(wait)
	}
	return nil
}

// BudgetUsage reports requests made today against the daily limit.
// limit is 0 when the budget is disabled.
func (c *Client) BudgetUsage() (used, limit int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !time.Now().Truncate(24 * time.Hour).Equal(c.budgetDay) {
		return 0, c.limit
	}
	return c.requests, c.limit
}

// nextUserAgent rotates through the identifier set.
func (c *Client) nextUserAgent() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ua := userAgents[c.uaIndex%len(userAgents)]
	c.uaIndex++
	return ua
}

// FetchCandidates fetches the listings page for the item and extracts
// every currency-tagged price it can find, across all strategies. On
// HTTP failure the request is retried once with an alternate client
// identifier before giving up.
func (c *Client) FetchCandidates(ctx context.Context, key model.ItemKey) ([]Candidate, error) {
	pageURL := fmt.Sprintf("%s/market/listings/%d/%s",
		c.baseURL, key.AppID, url.PathEscape(key.MarketHashName))

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if err := c.acquire(); err != nil {
			return nil, err
		}

		body, err := c.get(ctx, pageURL)
		if err != nil {
			lastErr = err
			continue
		}

		candidates := extractCandidates(body)
		if len(candidates) == 0 {
			lastErr = ErrParseFailed
			continue
		}
		return candidates, nil
	}
	return nil, lastErr
}

// FetchPrice resolves the item to a single conservative price: the
// candidate pool is filtered for plausibility, candidates more than 2x
// the median are excluded, and the lowest survivor wins.
func (c *Client) FetchPrice(ctx context.Context, key model.ItemKey) (float64, error) {
	candidates, err := c.FetchCandidates(ctx, key)
	if err != nil {
		return 0, err
	}
	return ReducePrice(candidates)
}

func (c *Client) get(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	req.Header.Set("User-Agent", c.nextUserAgent())
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", ErrUnreachable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrUnreachable, resp.StatusCode)
	}
	return string(body), nil
}
