package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"skinvault-api/internal/cache"
	"skinvault-api/internal/history"
	"skinvault-api/internal/model"
	"skinvault-api/internal/repository"
)

// ServiceError is a resolution failure class.
type ServiceError string

func (e ServiceError) Error() string { return string(e) }

// ErrUnresolvable indicates every resolution tier was exhausted without
// producing a usable price. Callers get this error, never a guessed
// value.
const ErrUnresolvable ServiceError = "price could not be resolved"

// Scraper resolves an item to a single market price.
type Scraper interface {
	FetchPrice(ctx context.Context, key model.ItemKey) (float64, error)
}

// PriceService is the only entry point other components use to get a
// price. Lookup runs through three tiers: process-local cache,
// persistent store, then a live scrape corrected against history.
//
// When the persistent store is unreachable the service degrades to an
// in-memory repository behind the same interface. Health is
// re-evaluated per operation, so a recovered store is picked up again
// without a restart. Writes always land in the in-memory repository
// and opportunistically in the store.
type PriceService struct {
	cache     cache.PriceCache
	store     repository.PriceRepository // nil when running memory-only
	fallback  *repository.MemoryPriceRepository
	scraper   Scraper
	history   *history.Store
	staleness time.Duration
	now       func() time.Time

	mu       sync.Mutex
	degraded bool
}

// NewPriceService creates a price service. store may be nil, in which
// case the service runs on the in-memory repository alone.
func NewPriceService(
	priceCache cache.PriceCache,
	store repository.PriceRepository,
	scraper Scraper,
	hist *history.Store,
	staleness time.Duration,
) *PriceService {
	if staleness <= 0 {
		staleness = 7 * 24 * time.Hour
	}
	return &PriceService{
		cache:     priceCache,
		store:     store,
		fallback:  repository.NewMemoryPriceRepository(),
		scraper:   scraper,
		history:   hist,
		staleness: staleness,
		now:       time.Now,
	}
}

// SetClock overrides the time source. Test hook.
func (s *PriceService) SetClock(now func() time.Time) { s.now = now }

// Degraded reports whether the last store health check failed.
func (s *PriceService) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

func (s *PriceService) setDegraded(d bool) {
	s.mu.Lock()
	if d != s.degraded {
		if d {
			log.Printf("[PriceService] Persistent store unreachable, degrading to in-memory store")
		} else {
			log.Printf("[PriceService] Persistent store reachable again")
		}
	}
	s.degraded = d
	s.mu.Unlock()
}

// storeHealthy checks the persistent store once for the current
// operation and updates the degraded flag.
func (s *PriceService) storeHealthy(ctx context.Context) bool {
	if s.store == nil {
		return false
	}
	healthy := s.store.Ping(ctx) == nil
	s.setDegraded(!healthy)
	return healthy
}

// Resolve returns the price for the item, consulting tiers in order:
// local cache, persistent store (fresh records only), live scrape. The
// scraped value is corrected against history before being persisted
// and returned.
func (s *PriceService) Resolve(ctx context.Context, key model.ItemKey) (float64, error) {
	if price, err := s.cache.Get(ctx, key); err == nil {
		return price, nil
	}

	now := s.now()
	stored := s.lookupStored(ctx, key)
	if stored != nil && stored.IsFresh(now, s.staleness) {
		_ = s.cache.Set(ctx, key, stored.Price)
		return stored.Price, nil
	}

	price, err := s.scrapeAndCorrect(ctx, key)
	if err != nil {
		// A stale stored value still beats no value at all.
		if stored != nil {
			log.Printf("[PriceService] Scrape failed for %s, serving stale price: %v", key.MarketHashName, err)
			return stored.Price, nil
		}
		// Keep the cause visible so callers can tell a missing item
		// from an exhausted budget or an unreachable upstream.
		return 0, fmt.Errorf("%w: %w", ErrUnresolvable, err)
	}

	_ = s.cache.Set(ctx, key, price)
	return price, nil
}

// Reprice forces a live resolution, bypassing the freshness
// short-circuit. Used by the batch refresher.
func (s *PriceService) Reprice(ctx context.Context, key model.ItemKey) (float64, error) {
	price, err := s.scrapeAndCorrect(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrUnresolvable, err)
	}
	_ = s.cache.Set(ctx, key, price)
	return price, nil
}

// lookupStored reads the record from the persistent store when healthy,
// falling back to the in-memory repository. Returns nil when neither
// tier has it.
func (s *PriceService) lookupStored(ctx context.Context, key model.ItemKey) *model.PriceRecord {
	if s.storeHealthy(ctx) {
		rec, err := s.store.GetPrice(ctx, key)
		if err == nil && rec != nil {
			return rec
		}
		if err != nil {
			s.setDegraded(true)
		}
	}
	rec, _ := s.fallback.GetPrice(ctx, key)
	return rec
}

// scrapeAndCorrect fetches a raw quote, feeds it through the history
// store's outlier correction and persists the corrected value.
func (s *PriceService) scrapeAndCorrect(ctx context.Context, key model.ItemKey) (float64, error) {
	raw, err := s.scraper.FetchPrice(ctx, key)
	if err != nil {
		return 0, err
	}

	now := s.now()
	s.history.Add(key, raw, now)
	price, ok := s.history.Corrected(key)
	if !ok {
		price = raw
	}

	s.persist(ctx, key, price, now)
	return price, nil
}

// persist writes the record to the in-memory repository always, and to
// the persistent store when it is reachable.
func (s *PriceService) persist(ctx context.Context, key model.ItemKey, price float64, at time.Time) {
	_ = s.fallback.SavePrice(ctx, key, price, at)

	if s.storeHealthy(ctx) {
		if err := s.store.SavePrice(ctx, key, price, at); err != nil {
			log.Printf("[PriceService] Store write failed for %s: %v", key.MarketHashName, err)
			s.setDegraded(true)
		}
	}
}

// Stats summarizes the active price store.
func (s *PriceService) Stats(ctx context.Context) (*model.StoreStats, error) {
	if s.storeHealthy(ctx) {
		return s.store.GetStats(ctx)
	}
	return s.fallback.GetStats(ctx)
}

// CleanHistory drops expired history samples. Run periodically by the
// scheduler.
func (s *PriceService) CleanHistory() int {
	return s.history.CleanExpired()
}
