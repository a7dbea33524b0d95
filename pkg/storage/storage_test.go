package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSnapshotRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	r1, r2 := 4.7, 4.8
	older := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	newer := older.Add(4 * time.Hour)

	require.NoError(t, db.RecordSnapshot(ctx, Snapshot{
		PlaceID: "P1", Label: "Mississauga", Name: "EPF Pro Services",
		Rating: &r1, ReviewCount: 120, FetchedAt: older,
	}))
	require.NoError(t, db.RecordSnapshot(ctx, Snapshot{
		PlaceID: "P1", Label: "Mississauga", Name: "EPF Pro Services",
		Rating: &r2, ReviewCount: 127, FetchedAt: newer,
	}))
	require.NoError(t, db.RecordSnapshot(ctx, Snapshot{
		PlaceID: "P2", Label: "Second", Name: "Second Location",
		ReviewCount: 0, FetchedAt: newer,
	}))

	snaps, err := db.ListSnapshots(ctx, "P1", 10)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, 127, snaps[0].ReviewCount, "newest first")
	require.NotNil(t, snaps[0].Rating)
	assert.Equal(t, 4.8, *snaps[0].Rating)
	assert.Equal(t, 120, snaps[1].ReviewCount)

	// A place with no rating stores and reads back NULL, not zero.
	snaps, err = db.ListSnapshots(ctx, "P2", 10)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Nil(t, snaps[0].Rating)
}

func TestFetchLog(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.RecordFetch(ctx, FetchEvent{PlaceID: "P1", OK: true, Detail: "ok"}))
	require.NoError(t, db.RecordFetch(ctx, FetchEvent{PlaceID: "P1", OK: false, Detail: "unavailable"}))
}

func TestStats(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	r1, r2 := 4.7, 4.8
	older := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, db.RecordSnapshot(ctx, Snapshot{
		PlaceID: "P1", Label: "Mississauga", Name: "EPF Pro Services",
		Rating: &r1, ReviewCount: 120, FetchedAt: older,
	}))
	require.NoError(t, db.RecordSnapshot(ctx, Snapshot{
		PlaceID: "P1", Label: "Mississauga", Name: "EPF Pro Services",
		Rating: &r2, ReviewCount: 127, FetchedAt: older.Add(time.Hour),
	}))

	stats, err := db.Stats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, "P1", stats[0].PlaceID)
	assert.Equal(t, 2, stats[0].Snapshots)
	require.NotNil(t, stats[0].LatestRating)
	assert.Equal(t, 4.8, *stats[0].LatestRating)
	assert.Equal(t, 127, stats[0].LatestCount)
	require.NotNil(t, stats[0].LastFetchedAt)
}
