package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"skinvault-api/internal/config"
	"skinvault-api/internal/model"
	"skinvault-api/internal/repository"
)

// metadata key recording when the last scheduled refresh completed.
const lastRefreshKey = "last_weekly_update"

// Repricer forces a fresh resolution for one item.
type Repricer interface {
	Reprice(ctx context.Context, key model.ItemKey) (float64, error)
	CleanHistory() int
	Stats(ctx context.Context) (*model.StoreStats, error)
}

// SchedulerStatus is the admin view of the refresher.
type SchedulerStatus struct {
	Enabled    bool              `json:"enabled"`
	Running    bool              `json:"running"`
	LastUpdate string            `json:"last_update,omitempty"`
	NextUpdate string            `json:"next_update,omitempty"`
	Store      *model.StoreStats `json:"store,omitempty"`
}

// RefreshService re-prices the oldest stored records on a cron
// schedule so the whole corpus cycles through a refresh over time.
type RefreshService struct {
	repo      repository.PriceRepository
	prices    Repricer
	cron      *cron.Cron
	cfg       config.SchedulerConfig
	staleness time.Duration
	now       func() time.Time
	sleep     func(time.Duration)

	mu           sync.Mutex
	running      bool
	refreshEntry cron.EntryID
}

// NewRefreshService creates the refresher. Call Register then Start to
// arm the schedule.
func NewRefreshService(repo repository.PriceRepository, prices Repricer, cfg config.SchedulerConfig, staleness time.Duration) *RefreshService {
	if staleness <= 0 {
		staleness = 7 * 24 * time.Hour
	}
	return &RefreshService{
		repo:      repo,
		prices:    prices,
		cron:      cron.New(cron.WithSeconds()),
		cfg:       cfg,
		staleness: staleness,
		now:       time.Now,
		sleep:     time.Sleep,
	}
}

// Register installs the refresh and history-cleanup cron entries.
func (s *RefreshService) Register(ctx context.Context) error {
	id, err := s.cron.AddFunc(s.cfg.CronSpec, func() {
		if _, err := s.RefreshBatch(ctx, s.cfg.BatchSize); err != nil {
			log.Printf("[RefreshService] Scheduled refresh failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	s.refreshEntry = id
	// History samples age out daily at 04:00.
	if _, err := s.cron.AddFunc("0 0 4 * * *", func() {
		if n := s.prices.CleanHistory(); n > 0 {
			log.Printf("[RefreshService] Dropped %d expired history samples", n)
		}
	}); err != nil {
		return fmt.Errorf("register history cleanup: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *RefreshService) Start() {
	s.cron.Start()
	log.Printf("[RefreshService] Scheduler started, spec %q", s.cfg.CronSpec)
}

// Stop stops the cron scheduler gracefully.
func (s *RefreshService) Stop() {
	s.cron.Stop()
	log.Printf("[RefreshService] Scheduler stopped")
}

// RunNow triggers a refresh outside the schedule.
func (s *RefreshService) RunNow(ctx context.Context, maxItems int) (*model.RefreshStats, error) {
	if maxItems <= 0 {
		maxItems = s.cfg.BatchSize
	}
	return s.RefreshBatch(ctx, maxItems)
}

// RefreshBatch re-prices up to maxItems of the oldest records. Only
// one batch runs at a time; overlapping triggers are rejected.
func (s *RefreshService) RefreshBatch(ctx context.Context, maxItems int) (*model.RefreshStats, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, fmt.Errorf("refresh already in progress")
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	start := s.now()
	stats := &model.RefreshStats{StartTime: start}

	// Only records past the staleness window qualify; oldest first, so
	// each batch picks up where the last one left off.
	records, err := s.repo.GetOutdated(ctx, start.Add(-s.staleness), maxItems)
	if err != nil {
		return nil, fmt.Errorf("list outdated records: %w", err)
	}
	stats.TotalSkins = len(records)
	log.Printf("[RefreshService] Refreshing %d records", len(records))

	var changeSum float64
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			break
		}
		stats.TotalValueBefore += rec.Price

		price, err := s.prices.Reprice(ctx, rec.Key)
		if err != nil {
			log.Printf("[RefreshService] Refresh failed for %s: %v", rec.Key.MarketHashName, err)
			stats.FailedSkins++
			stats.TotalValueAfter += rec.Price
		} else {
			stats.UpdatedSkins++
			stats.TotalValueAfter += price
			changeSum += price - rec.Price
		}

		if s.cfg.ItemDelay > 0 && i < len(records)-1 {
			s.sleep(s.cfg.ItemDelay)
		}
	}

	if stats.UpdatedSkins > 0 {
		stats.AveragePriceChange = changeSum / float64(stats.UpdatedSkins)
	}
	stats.EndTime = s.now()

	if err := s.repo.SetMetadata(ctx, lastRefreshKey, stats.EndTime.UTC().Format(time.RFC3339)); err != nil {
		log.Printf("[RefreshService] Failed to record refresh timestamp: %v", err)
	}
	log.Printf("[RefreshService] Refresh done: %d updated, %d failed in %s",
		stats.UpdatedSkins, stats.FailedSkins, stats.EndTime.Sub(stats.StartTime))
	return stats, nil
}

// Status reports schedule state for the admin surface.
func (s *RefreshService) Status(ctx context.Context) *SchedulerStatus {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	status := &SchedulerStatus{Enabled: s.cfg.Enabled, Running: running}

	if last, err := s.repo.GetMetadata(ctx, lastRefreshKey, ""); err == nil && last != "" {
		status.LastUpdate = last
	}
	// Report the refresh entry specifically, not whichever cron job
	// happens to fire next.
	if entry := s.cron.Entry(s.refreshEntry); entry.Valid() && !entry.Next.IsZero() {
		status.NextUpdate = entry.Next.UTC().Format(time.RFC3339)
	}
	if st, err := s.prices.Stats(ctx); err == nil {
		status.Store = st
	}
	return status
}
