package reviews

import (
	"time"

	"github.com/epfpro/reviewscope/pkg/places"
)

// DefaultReviewCap bounds how many individual reviews a summary keeps.
// Upstream returns at most five either way; the cards render three.
const DefaultReviewCap = 3

// Status records how a summary was produced.
type Status string

const (
	StatusOK            Status = "ok"
	StatusNotConfigured Status = "not_configured"
	StatusUnavailable   Status = "unavailable"
	StatusStale         Status = "stale"
)

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ReviewEntry is one normalized review regardless of which upstream
// shape it came from.
type ReviewEntry struct {
	Author          string   `json:"author"`
	ProfilePhotoURL string   `json:"profilePhotoUrl"`
	Rating          *float64 `json:"rating"`
	RelativeTime    string   `json:"relativeTime"`
	Text            string   `json:"text,omitempty"`
}

// PlaceSummary is the canonical per-place result. It is built fresh on
// every successful fetch and replaced whole, never patched in place.
type PlaceSummary struct {
	Identity       places.Identity `json:"identity"`
	Name           string          `json:"name"`
	Address        string          `json:"address,omitempty"`
	Rating         *float64        `json:"rating"`
	ReviewCount    int             `json:"reviewCount"`
	Coordinate     *Coordinate     `json:"coordinate"`
	Reviews        []ReviewEntry   `json:"reviews"`
	MapsURL        string          `json:"mapsUrl,omitempty"`
	WriteReviewURL string          `json:"writeReviewUrl,omitempty"`
	FetchedAt      time.Time       `json:"fetchedAt"`
	Status         Status          `json:"status"`
}

// AggregateResult combines N places into the numbers the structured-data
// block needs. Places keeps the configured order.
type AggregateResult struct {
	CombinedRating      float64        `json:"combinedRating"`
	CombinedReviewCount int            `json:"combinedReviewCount"`
	Places              []PlaceSummary `json:"places"`
}

// Placeholder builds the summary used when a place has no usable data.
// It still carries working call-to-action links so the card renders.
func Placeholder(id places.Identity, status Status) PlaceSummary {
	return PlaceSummary{
		Identity:       id,
		Name:           id.Label,
		Rating:         nil,
		ReviewCount:    0,
		Reviews:        []ReviewEntry{},
		MapsURL:        id.MapsURL(),
		WriteReviewURL: id.WriteReviewURL(),
		FetchedAt:      time.Now().UTC(),
		Status:         status,
	}
}
