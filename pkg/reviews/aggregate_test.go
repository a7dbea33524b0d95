package reviews

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epfpro/reviewscope/pkg/gplaces"
	"github.com/epfpro/reviewscope/pkg/places"
)

// countingFetcher is a fake upstream that records which place IDs were
// requested and answers from a canned map.
type countingFetcher struct {
	mu        sync.Mutex
	calls     []string
	responses map[string]string
	errs      map[string]error
}

func (f *countingFetcher) fetch(ctx context.Context, placeID string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, placeID)
	f.mu.Unlock()
	if err, ok := f.errs[placeID]; ok {
		return "", err
	}
	return f.responses[placeID], nil
}

func (f *countingFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func v1Body(name string, rating float64, count int) string {
	return fmt.Sprintf(`{"displayName":{"text":%q},"rating":%g,"userRatingCount":%d}`, name, rating, count)
}

func TestAggregatePreservesOrderOnPartialFailure(t *testing.T) {
	f := &countingFetcher{
		responses: map[string]string{
			"P1": v1Body("Place One", 4.5, 10),
			"P3": v1Body("Place Three", 5, 20),
		},
		errs: map[string]error{
			"P2": &gplaces.UpstreamError{Status: 503, Detail: "down"},
		},
	}
	agg := NewAggregator(AggregatorConfig{APIKey: "k", Fetch: f.fetch})

	ids := []places.Identity{
		{Label: "A", PlaceID: "P1"},
		{Label: "B", PlaceID: "P2"},
		{Label: "C", PlaceID: "P3"},
	}
	result, err := agg.Aggregate(context.Background(), ids)
	require.NoError(t, err)
	require.Len(t, result.Places, 3, "one entry per configured identity, always")

	assert.Equal(t, "A", result.Places[0].Identity.Label)
	assert.Equal(t, "B", result.Places[1].Identity.Label)
	assert.Equal(t, "C", result.Places[2].Identity.Label)

	// The failed position holds the documented placeholder.
	failed := result.Places[1]
	assert.Equal(t, StatusUnavailable, failed.Status)
	assert.Nil(t, failed.Rating)
	assert.Equal(t, 0, failed.ReviewCount)
	assert.Empty(t, failed.Reviews)

	assert.Equal(t, StatusOK, result.Places[0].Status)
	assert.Equal(t, StatusOK, result.Places[2].Status)
}

func TestAggregateMissingCredential(t *testing.T) {
	f := &countingFetcher{responses: map[string]string{"P1": v1Body("X", 5, 1)}}
	agg := NewAggregator(AggregatorConfig{APIKey: "", Fetch: f.fetch})

	_, err := agg.Aggregate(context.Background(), []places.Identity{{Label: "A", PlaceID: "P1"}})
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Equal(t, 0, f.callCount(), "no outbound calls when the credential is absent")
}

func TestAggregateSkipsUnconfiguredPlaces(t *testing.T) {
	f := &countingFetcher{responses: map[string]string{"P1": v1Body("Place One", 4.5, 10)}}
	agg := NewAggregator(AggregatorConfig{APIKey: "k", Fetch: f.fetch})

	ids := []places.Identity{
		{Label: "A", PlaceID: "P1"},
		{Label: "B"},
		{Label: "C", PlaceID: "REPLACE_WITH_YOUR_SECOND_PLACE_ID"},
	}
	result, err := agg.Aggregate(context.Background(), ids)
	require.NoError(t, err)
	require.Len(t, result.Places, 3)

	assert.Equal(t, StatusOK, result.Places[0].Status)
	assert.Equal(t, StatusNotConfigured, result.Places[1].Status)
	assert.Equal(t, StatusNotConfigured, result.Places[2].Status)

	assert.Equal(t, []string{"P1"}, f.calls, "no fetch attempted for unconfigured places")
}

func TestAggregateUsesCache(t *testing.T) {
	f := &countingFetcher{responses: map[string]string{"P1": v1Body("Place One", 4.5, 10)}}
	agg := NewAggregator(AggregatorConfig{APIKey: "k", Fetch: f.fetch})

	ids := []places.Identity{{Label: "A", PlaceID: "P1"}}
	_, err := agg.Aggregate(context.Background(), ids)
	require.NoError(t, err)
	_, err = agg.Aggregate(context.Background(), ids)
	require.NoError(t, err)

	assert.Equal(t, 1, f.callCount(), "second aggregation within the TTL is served from cache")
}

func TestAggregateServesStaleOnFailure(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	cache := NewCache(func() time.Time { return now })

	f := &countingFetcher{responses: map[string]string{"P1": v1Body("Place One", 4.5, 10)}}
	agg := NewAggregator(AggregatorConfig{APIKey: "k", Fetch: f.fetch, Cache: cache, CacheTTL: time.Hour})

	ids := []places.Identity{{Label: "A", PlaceID: "P1"}}
	_, err := agg.Aggregate(context.Background(), ids)
	require.NoError(t, err)

	// Expire the entry, then break the upstream.
	now = now.Add(2 * time.Hour)
	f.errs = map[string]error{"P1": &gplaces.UpstreamError{Status: 502, Detail: "down"}}

	result, err := agg.Aggregate(context.Background(), ids)
	require.NoError(t, err)
	require.Len(t, result.Places, 1)
	got := result.Places[0]
	assert.Equal(t, StatusStale, got.Status, "an outdated rating beats an empty card")
	assert.Equal(t, "Place One", got.Name)
	require.NotNil(t, got.Rating)
	assert.Equal(t, 4.5, *got.Rating)
}

func TestCombine(t *testing.T) {
	r1, r2 := 4.5, 5.0
	result := Combine([]PlaceSummary{
		{Rating: &r1, ReviewCount: 10},
		{Rating: &r2, ReviewCount: 30},
		{Rating: nil, ReviewCount: 0, Status: StatusNotConfigured},
	})
	assert.Equal(t, 4.8, result.CombinedRating, "simple mean of rated places, one decimal")
	assert.Equal(t, 40, result.CombinedReviewCount)
	assert.Len(t, result.Places, 3)
}

func TestCombineDefaultsToFiveWithoutRatings(t *testing.T) {
	result := Combine([]PlaceSummary{
		{Rating: nil, Status: StatusNotConfigured},
		{Rating: nil, Status: StatusUnavailable},
	})
	assert.Equal(t, 5.0, result.CombinedRating, "unrated aggregate defaults to the neutral maximum")
	assert.Equal(t, 0, result.CombinedReviewCount)
}
