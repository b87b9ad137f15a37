package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"skinvault-api/internal/cache"
	"skinvault-api/internal/history"
	"skinvault-api/internal/model"
	"skinvault-api/internal/repository"
)

type fakeScraper struct {
	price float64
	err   error
	calls int
}

func (f *fakeScraper) FetchPrice(_ context.Context, _ model.ItemKey) (float64, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	return f.price, nil
}

// failingRepository wraps the in-memory repository but reports itself
// unreachable, optionally recovering after a number of pings.
type failingRepository struct {
	*repository.MemoryPriceRepository
	pings        int
	recoverAfter int
}

func (r *failingRepository) Ping(_ context.Context) error {
	r.pings++
	if r.recoverAfter > 0 && r.pings > r.recoverAfter {
		return nil
	}
	return repository.ErrStoreUnavailable
}

func newTestService(store repository.PriceRepository, scraper Scraper) *PriceService {
	c := cache.NewMemoryPriceCache(time.Hour)
	h := history.NewStore(100, 30*24*time.Hour)
	return NewPriceService(c, store, scraper, h, 7*24*time.Hour)
}

func TestResolveCachesWithinStaleness(t *testing.T) {
	scraper := &fakeScraper{price: 12.5}
	svc := newTestService(repository.NewMemoryPriceRepository(), scraper)
	key := model.NewItemKey("AK-47 | Redline (Field-Tested)", 0, 0)

	first, err := svc.Resolve(context.Background(), key)
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	second, err := svc.Resolve(context.Background(), key)
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if first != second {
		t.Errorf("expected identical prices, got %v then %v", first, second)
	}
	if scraper.calls != 1 {
		t.Errorf("expected exactly 1 scrape, got %d", scraper.calls)
	}
}

func TestResolveUsesStoredFreshRecord(t *testing.T) {
	store := repository.NewMemoryPriceRepository()
	key := model.NewItemKey("Glock-18 | Fade (Factory New)", 0, 0)
	if err := store.SavePrice(context.Background(), key, 450.0, time.Now().Add(-time.Hour)); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	scraper := &fakeScraper{price: 999}
	svc := newTestService(store, scraper)

	price, err := svc.Resolve(context.Background(), key)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if price != 450.0 {
		t.Errorf("expected stored price 450.0, got %v", price)
	}
	if scraper.calls != 0 {
		t.Errorf("fresh stored record should prevent scraping, got %d calls", scraper.calls)
	}
}

func TestResolveScrapesWhenStoredStale(t *testing.T) {
	store := repository.NewMemoryPriceRepository()
	key := model.NewItemKey("M4A4 | Asiimov (Battle-Scarred)", 0, 0)
	if err := store.SavePrice(context.Background(), key, 30.0, time.Now().Add(-8*24*time.Hour)); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	scraper := &fakeScraper{price: 35.0}
	svc := newTestService(store, scraper)

	price, err := svc.Resolve(context.Background(), key)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if scraper.calls != 1 {
		t.Fatalf("stale record should trigger a scrape, got %d calls", scraper.calls)
	}
	if price != 35.0 {
		t.Errorf("expected scraped price 35.0, got %v", price)
	}

	rec, err := store.GetPrice(context.Background(), key)
	if err != nil || rec == nil {
		t.Fatalf("expected updated record, got %v, %v", rec, err)
	}
	if rec.Price != 35.0 {
		t.Errorf("store not updated, price = %v", rec.Price)
	}
	if rec.UpdateCount != 2 {
		t.Errorf("expected update_count 2, got %d", rec.UpdateCount)
	}
}

func TestResolveServesStaleOnScrapeFailure(t *testing.T) {
	store := repository.NewMemoryPriceRepository()
	key := model.NewItemKey("AWP | Dragon Lore (Minimal Wear)", 0, 0)
	if err := store.SavePrice(context.Background(), key, 8000.0, time.Now().Add(-30*24*time.Hour)); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	scraper := &fakeScraper{err: errors.New("listings unreachable")}
	svc := newTestService(store, scraper)

	price, err := svc.Resolve(context.Background(), key)
	if err != nil {
		t.Fatalf("expected stale fallback, got error: %v", err)
	}
	if price != 8000.0 {
		t.Errorf("expected stale price 8000.0, got %v", price)
	}
}

func TestResolveUnresolvable(t *testing.T) {
	scraper := &fakeScraper{err: errors.New("listings unreachable")}
	svc := newTestService(repository.NewMemoryPriceRepository(), scraper)
	key := model.NewItemKey("Nonexistent Item", 0, 0)

	_, err := svc.Resolve(context.Background(), key)
	if !errors.Is(err, ErrUnresolvable) {
		t.Errorf("expected ErrUnresolvable, got %v", err)
	}
}

func TestDegradedModeDurability(t *testing.T) {
	store := &failingRepository{MemoryPriceRepository: repository.NewMemoryPriceRepository()}
	scraper := &fakeScraper{price: 21.0}
	svc := newTestService(store, scraper)
	key := model.NewItemKey("USP-S | Kill Confirmed (Well-Worn)", 0, 0)

	price, err := svc.Resolve(context.Background(), key)
	if err != nil {
		t.Fatalf("resolve with unreachable store: %v", err)
	}
	if price != 21.0 {
		t.Fatalf("expected 21.0, got %v", price)
	}
	if !svc.Degraded() {
		t.Error("expected degraded flag after failed ping")
	}

	// Drain the cache so the second lookup exercises the repository
	// tier. The in-memory fallback must still hold the value.
	if err := svc.cache.Clear(context.Background()); err != nil {
		t.Fatalf("clear cache: %v", err)
	}
	price, err = svc.Resolve(context.Background(), key)
	if err != nil {
		t.Fatalf("resolve from memory fallback: %v", err)
	}
	if price != 21.0 {
		t.Errorf("expected in-memory value 21.0, got %v", price)
	}
	if scraper.calls != 1 {
		t.Errorf("fallback record should prevent re-scraping, got %d calls", scraper.calls)
	}
}

func TestDegradedModeRecovers(t *testing.T) {
	store := &failingRepository{
		MemoryPriceRepository: repository.NewMemoryPriceRepository(),
		recoverAfter:          2,
	}
	scraper := &fakeScraper{price: 5.0}
	svc := newTestService(store, scraper)
	key := model.NewItemKey("P250 | Sand Dune (Field-Tested)", 0, 0)

	if _, err := svc.Resolve(context.Background(), key); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !svc.Degraded() {
		t.Fatal("expected degraded after first ping failure")
	}

	if _, err := svc.Stats(context.Background()); err != nil {
		t.Fatalf("stats: %v", err)
	}
	if svc.Degraded() {
		t.Error("expected recovery once ping succeeds again")
	}
}

func TestRepriceBypassesFreshness(t *testing.T) {
	store := repository.NewMemoryPriceRepository()
	key := model.NewItemKey("Desert Eagle | Blaze (Factory New)", 0, 0)
	if err := store.SavePrice(context.Background(), key, 400.0, time.Now()); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	scraper := &fakeScraper{price: 410.0}
	svc := newTestService(store, scraper)

	price, err := svc.Reprice(context.Background(), key)
	if err != nil {
		t.Fatalf("reprice: %v", err)
	}
	if scraper.calls != 1 {
		t.Errorf("reprice must scrape even for fresh records, got %d calls", scraper.calls)
	}
	if price != 410.0 {
		t.Errorf("expected 410.0, got %v", price)
	}
}
