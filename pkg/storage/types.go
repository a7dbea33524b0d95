package storage

import "time"

// Snapshot is one recorded rating observation for a place.
type Snapshot struct {
	PlaceID     string    `json:"placeId"`
	Label       string    `json:"label"`
	Name        string    `json:"name"`
	Rating      *float64  `json:"rating"`
	ReviewCount int       `json:"reviewCount"`
	FetchedAt   time.Time `json:"fetchedAt"`
}

// FetchEvent logs one upstream fetch attempt for auditing.
type FetchEvent struct {
	PlaceID    string    `json:"placeId"`
	OccurredAt time.Time `json:"occurredAt"`
	OK         bool      `json:"ok"`
	Detail     string    `json:"detail,omitempty"`
}

// PlaceStats summarizes the recorded history of one place.
type PlaceStats struct {
	PlaceID       string     `json:"placeId"`
	Label         string     `json:"label"`
	Snapshots     int        `json:"snapshots"`
	LatestRating  *float64   `json:"latestRating"`
	LatestCount   int        `json:"latestCount"`
	LastFetchedAt *time.Time `json:"lastFetchedAt"`
}
