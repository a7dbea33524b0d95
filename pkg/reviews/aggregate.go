package reviews

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/epfpro/reviewscope/internal/utils"
	"github.com/epfpro/reviewscope/pkg/places"
)

// ErrConfiguration means the shared API credential is absent. It fails
// the whole aggregation before any per-place work starts; everything
// else degrades per place instead.
var ErrConfiguration = errors.New("reviews: no Google API key configured")

// FetchFunc fetches the raw upstream payload for one place ID. The
// production implementation is a gplaces client method; tests substitute
// call-counting fakes.
type FetchFunc func(ctx context.Context, placeID string) (string, error)

// AggregatorConfig wires an Aggregator. Cache may be shared with other
// aggregators keyed on the same place IDs.
type AggregatorConfig struct {
	APIKey    string
	Fetch     FetchFunc
	Cache     *Cache
	ReviewCap int
	CacheTTL  time.Duration
}

// Aggregator resolves the full reputation view across the configured
// identities: concurrent per-place fetches, per-place failure recovery,
// and a combined rating for the structured-data block.
type Aggregator struct {
	apiKey    string
	fetch     FetchFunc
	cache     *Cache
	reviewCap int
	ttl       time.Duration
}

func NewAggregator(cfg AggregatorConfig) *Aggregator {
	a := &Aggregator{
		apiKey:    cfg.APIKey,
		fetch:     cfg.Fetch,
		cache:     cfg.Cache,
		reviewCap: cfg.ReviewCap,
		ttl:       cfg.CacheTTL,
	}
	if a.cache == nil {
		a.cache = NewCache(nil)
	}
	if a.reviewCap <= 0 {
		a.reviewCap = DefaultReviewCap
	}
	if a.ttl <= 0 {
		a.ttl = 4 * time.Hour
	}
	return a
}

// Aggregate resolves every identity concurrently and waits for all of
// them to settle. One place failing never hides another place's result:
// the output always has one entry per identity, in input order. The only
// whole-operation failure is a missing credential, checked once up
// front with zero outbound calls made.
func (a *Aggregator) Aggregate(ctx context.Context, ids []places.Identity) (AggregateResult, error) {
	if a.apiKey == "" {
		return AggregateResult{}, ErrConfiguration
	}

	results := make([]PlaceSummary, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id places.Identity) {
			defer wg.Done()
			results[i] = a.resolve(ctx, id)
		}(i, id)
	}
	wg.Wait()

	return Combine(results), nil
}

// resolve produces one summary per place. Failures are logged and
// recovered locally: stale cache if we have it, placeholder otherwise.
func (a *Aggregator) resolve(ctx context.Context, id places.Identity) PlaceSummary {
	if !id.Configured() {
		return Placeholder(id, StatusNotConfigured)
	}

	if s, ok := a.cache.Get(id.PlaceID); ok {
		s.Identity = id
		return s
	}

	body, err := a.fetch(ctx, id.PlaceID)
	if err == nil {
		var s PlaceSummary
		s, err = Normalize(body, id, a.reviewCap)
		if err == nil {
			a.cache.Put(id.PlaceID, s, a.ttl)
			return s
		}
	}

	utils.Log.WithError(err).Warnf("place %q (%s): fetch failed", id.Label, id.PlaceID)

	// A slightly outdated rating hurts less than an empty card.
	if s, _, ok := a.cache.GetStale(id.PlaceID); ok {
		s.Identity = id
		s.Status = StatusStale
		return s
	}
	return Placeholder(id, StatusUnavailable)
}

// Combine derives the aggregate numbers across per-place summaries.
// Places without any rating data are skipped; if none have any, the
// combined rating defaults to 5 so the listing never shows a zero-star
// business.
func Combine(summaries []PlaceSummary) AggregateResult {
	var sum float64
	rated := 0
	count := 0
	for _, s := range summaries {
		if s.Rating != nil {
			sum += *s.Rating
			rated++
		}
		count += s.ReviewCount
	}

	rating := 5.0
	if rated > 0 {
		rating = utils.Round1(sum / float64(rated))
	}

	return AggregateResult{
		CombinedRating:      rating,
		CombinedReviewCount: count,
		Places:              summaries,
	}
}
