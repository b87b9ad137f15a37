package history

import (
	"math"
	"sort"
	"sync"
	"time"

	"skinvault-api/internal/model"
)

const (
	// DefaultCapacity bounds how many samples are kept per item.
	DefaultCapacity = 100

	// DefaultMaxAge bounds how old a sample may be before eviction.
	DefaultMaxAge = 30 * 24 * time.Hour

	// minWeight is the decay floor for the oldest samples.
	minWeight = 0.2

	// trendWindow is how many recent samples the monotonic check uses.
	trendWindow = 5

	// correlationThreshold is the minimum |r| that counts as a trend.
	correlationThreshold = 0.6
)

// Store keeps a bounded, age-limited price history per item and derives
// an outlier-corrected price from it. Samples are never persisted; the
// history rebuilds itself from repeated resolutions.
type Store struct {
	mu       sync.Mutex
	entries  map[string][]model.PriceHistoryEntry
	capacity int
	maxAge   time.Duration
	now      func() time.Time
}

// NewStore creates a history store with the given bounds. Zero values
// fall back to the defaults.
func NewStore(capacity int, maxAge time.Duration) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Store{
		entries:  make(map[string][]model.PriceHistoryEntry),
		capacity: capacity,
		maxAge:   maxAge,
		now:      time.Now,
	}
}

// SetClock overrides the time source. Test hook.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Add appends one observed price sample for the item. When capacity is
// exceeded the oldest samples by timestamp are trimmed.
func (s *Store) Add(key model.ItemKey, price float64, ts time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key.String()
	samples := append(s.entries[k], model.PriceHistoryEntry{Price: price, Timestamp: ts})
	sort.Slice(samples, func(i, j int) bool { return samples[i].Timestamp.Before(samples[j].Timestamp) })
	if len(samples) > s.capacity {
		samples = samples[len(samples)-s.capacity:]
	}
	s.entries[k] = samples
}

// Len returns the number of live samples held for the item.
func (s *Store) Len(key model.ItemKey) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.fresh(key.String()))
}

// CleanExpired drops samples older than the max age across all items.
func (s *Store) CleanExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k, samples := range s.entries {
		kept := s.freshOf(samples)
		removed += len(samples) - len(kept)
		if len(kept) == 0 {
			delete(s.entries, k)
			continue
		}
		s.entries[k] = kept
	}
	return removed
}

// Corrected returns the outlier-corrected price for the item, or false
// when no usable samples exist.
//
// Policy by live sample count:
//
//	0    -> no value
//	1    -> the sample itself
//	2..4 -> median
//	>=5  -> time-decay weighted IQR filter, then trend-aware percentile
func (s *Store) Corrected(key model.ItemKey) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	samples := s.fresh(key.String())
	switch n := len(samples); {
	case n == 0:
		return 0, false
	case n == 1:
		return samples[0].Price, true
	case n < 5:
		return median(prices(samples)), true
	}

	filtered := s.filterOutliers(samples)

	switch detectTrend(filtered) {
	case trendUp:
		return percentile(prices(filtered), 75), true
	case trendDown:
		return percentile(prices(filtered), 25), true
	default:
		return median(prices(filtered)), true
	}
}

// fresh returns the item's samples with expired ones dropped, without
// mutating the stored slice. Caller must hold the lock.
func (s *Store) fresh(k string) []model.PriceHistoryEntry {
	return s.freshOf(s.entries[k])
}

func (s *Store) freshOf(samples []model.PriceHistoryEntry) []model.PriceHistoryEntry {
	cutoff := s.now().Add(-s.maxAge)
	kept := make([]model.PriceHistoryEntry, 0, len(samples))
	for _, e := range samples {
		if e.Timestamp.After(cutoff) {
			kept = append(kept, e)
		}
	}
	return kept
}

// filterOutliers drops samples outside the weighted Tukey fences. Each
// sample is weighted by linear time decay (1.0 fresh down to 0.2 at max
// age) and replicated round(weight*5) times into the working multiset
// the quartiles are computed over; the fences then apply to the raw
// samples. If everything gets filtered out, the 5 most recent raw
// samples are used instead.
func (s *Store) filterOutliers(samples []model.PriceHistoryEntry) []model.PriceHistoryEntry {
	now := s.now()

	var working []float64
	for _, e := range samples {
		age := now.Sub(e.Timestamp)
		frac := float64(age) / float64(s.maxAge)
		if frac < 0 {
			frac = 0
		}
		w := 1.0 - (1.0-minWeight)*frac
		if w < minWeight {
			w = minWeight
		}
		copies := int(math.Round(w * 5))
		for i := 0; i < copies; i++ {
			working = append(working, e.Price)
		}
	}

	q1 := percentile(working, 25)
	q3 := percentile(working, 75)
	iqr := q3 - q1
	lo := q1 - 1.5*iqr
	hi := q3 + 1.5*iqr

	kept := make([]model.PriceHistoryEntry, 0, len(samples))
	for _, e := range samples {
		if e.Price >= lo && e.Price <= hi {
			kept = append(kept, e)
		}
	}
	if len(kept) == 0 {
		// Fences rejected everything; trust the recent tail instead.
		tail := len(samples) - 5
		if tail < 0 {
			tail = 0
		}
		kept = append(kept, samples[tail:]...)
	}
	return kept
}

type trend int

const (
	trendNone trend = iota
	trendUp
	trendDown
)

// detectTrend classifies the time-ordered samples as rising, falling or
// flat. Strictly monotonic last-5 prices decide immediately; otherwise
// the correlation between normalized elapsed time and price is used.
func detectTrend(samples []model.PriceHistoryEntry) trend {
	if len(samples) >= trendWindow {
		recent := samples[len(samples)-trendWindow:]
		increasing, decreasing := true, true
		for i := 1; i < len(recent); i++ {
			if recent[i].Price <= recent[i-1].Price {
				increasing = false
			}
			if recent[i].Price >= recent[i-1].Price {
				decreasing = false
			}
		}
		if increasing {
			return trendUp
		}
		if decreasing {
			return trendDown
		}
	}

	r := timeCorrelation(samples)
	switch {
	case r > correlationThreshold:
		return trendUp
	case r < -correlationThreshold:
		return trendDown
	default:
		return trendNone
	}
}

// timeCorrelation is the Pearson correlation between normalized elapsed
// time and price over the samples.
func timeCorrelation(samples []model.PriceHistoryEntry) float64 {
	if len(samples) < 2 {
		return 0
	}

	t0 := samples[0].Timestamp
	span := samples[len(samples)-1].Timestamp.Sub(t0)
	if span <= 0 {
		return 0
	}

	n := float64(len(samples))
	var meanT, meanP float64
	ts := make([]float64, len(samples))
	for i, e := range samples {
		ts[i] = float64(e.Timestamp.Sub(t0)) / float64(span)
		meanT += ts[i]
		meanP += e.Price
	}
	meanT /= n
	meanP /= n

	var cov, varT, varP float64
	for i, e := range samples {
		dt := ts[i] - meanT
		dp := e.Price - meanP
		cov += dt * dp
		varT += dt * dt
		varP += dp * dp
	}
	if varT == 0 || varP == 0 {
		return 0
	}
	return cov / math.Sqrt(varT*varP)
}

func prices(samples []model.PriceHistoryEntry) []float64 {
	out := make([]float64, len(samples))
	for i, e := range samples {
		out[i] = e.Price
	}
	return out
}

func median(values []float64) float64 {
	return percentile(values, 50)
}

// percentile computes the p-th percentile with linear interpolation
// between closest ranks.
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	rank := p / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}
	frac := rank - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}
