package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"skinvault-api/internal/model"
)

var testKey = model.ItemKey{MarketHashName: "AK-47 | Redline (Field-Tested)", Currency: 1, AppID: 730}

const listingsPage = `
<html><body>
<span class="market_listing_price market_listing_price_with_fee">
	$12.34 USD
</span>
<span class="market_listing_price market_listing_price_without_fee">$11.80</span>
<span class="market_listing_price">$12.90</span>
<script>
	var g_rgListingInfo = {"lowest_price":"$12.10","median_price":"$12.45","sell_price_text":"$12.34"};
</script>
</body></html>`

func newTestClient(serverURL string) *Client {
	c := NewClient(Config{
		BaseURL:      serverURL,
		RequestDelay: time.Millisecond,
		HTTPTimeout:  5 * time.Second,
	})
	c.sleep = func(time.Duration) {}
	return c
}

func TestFetchCandidates_PoolsAllStrategies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(listingsPage))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	candidates, err := c.FetchCandidates(context.Background(), testKey)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) < 5 {
		t.Fatalf("expected candidates from every strategy, got %d", len(candidates))
	}

	sources := map[string]bool{}
	for _, cand := range candidates {
		sources[cand.Source] = true
	}
	for _, want := range []string{"price_element", "listing_span", "script_lowest", "script_median"} {
		if !sources[want] {
			t.Errorf("missing candidates from strategy %q", want)
		}
	}
}

func TestFetchPrice_ChoosesLowestPlausible(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(listingsPage))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	price, err := c.FetchPrice(context.Background(), testKey)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if price != 11.80 {
		t.Errorf("expected lowest plausible candidate 11.80, got %.2f", price)
	}
}

func TestFetchPrice_RetriesWithAlternateIdentifier(t *testing.T) {
	var calls int32
	var agents []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agents = append(agents, r.Header.Get("User-Agent"))
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(listingsPage))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	if _, err := c.FetchPrice(context.Background(), testKey); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}
	if agents[0] == agents[1] {
		t.Error("expected the retry to use an alternate client identifier")
	}
}

func TestFetchPrice_TotalFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>There are no listings for this item.</body></html>"))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	if _, err := c.FetchPrice(context.Background(), testKey); err == nil {
		t.Fatal("expected an explicit failure, got a price")
	}
}

func TestRateLimit_SerializesRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(listingsPage))
	}))
	defer srv.Close()

	delay := 30 * time.Millisecond
	c := NewClient(Config{BaseURL: srv.URL, RequestDelay: delay})

	const n = 4
	start := time.Now()
	for i := 0; i < n; i++ {
		if _, err := c.FetchPrice(context.Background(), testKey); err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed < (n-1)*delay {
		t.Errorf("expected %d requests to take at least %v, took %v", n, (n-1)*delay, elapsed)
	}
}

func TestJitterVariesRequestSpacing(t *testing.T) {
	c := NewClient(Config{RequestDelay: time.Millisecond, MaxJitter: 50 * time.Millisecond})
	c.delay = 0

	var total time.Duration
	c.sleep = func(d time.Duration) { total += d }

	const n = 5
	for i := 0; i < n; i++ {
		if err := c.acquire(); err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
	}
	if total == 0 {
		t.Fatal("expected jittered waits between requests, got lock-step spacing")
	}
}

func TestDailyBudget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(listingsPage))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	c.limit = 1

	if _, err := c.FetchPrice(context.Background(), testKey); err != nil {
		t.Fatalf("first request should pass: %v", err)
	}
	if _, err := c.FetchPrice(context.Background(), testKey); err != ErrBudgetExceeded {
		t.Errorf("expected ErrBudgetExceeded, got %v", err)
	}
}

func TestParsePriceString(t *testing.T) {
	cases := []struct {
		in    string
		price float64
		ok    bool
	}{
		{"$12.34 USD", 12.34, true},
		{"R$ 1.234,56", 1234.56, true},
		{"12,34€", 12.34, true},
		{"1,234.56", 1234.56, true},
		{"Sold!", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		price, _, ok := parsePriceString(tc.in)
		if ok != tc.ok || (ok && price != tc.price) {
			t.Errorf("parsePriceString(%q) = %.2f,%v; want %.2f,%v", tc.in, price, ok, tc.price, tc.ok)
		}
	}
}

func TestReducePrice_ExcludesOutliersAndArtifacts(t *testing.T) {
	pool := []Candidate{
		{Price: 12.5}, {Price: 13.0}, {Price: 12.8},
		{Price: 150},  // quantity artifact: round multiple of 50
		{Price: 90.0}, // > 2x median, flagged as outlier
		{Price: 0},
	}
	price, err := ReducePrice(pool)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if price != 12.5 {
		t.Errorf("expected lowest surviving candidate 12.5, got %.2f", price)
	}
}

func TestReducePrice_EmptyPool(t *testing.T) {
	if _, err := ReducePrice(nil); err != ErrParseFailed {
		t.Errorf("expected ErrParseFailed, got %v", err)
	}
}
