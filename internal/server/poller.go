package server

import (
	"context"
	"time"

	"github.com/epfpro/reviewscope/internal/utils"
	"github.com/epfpro/reviewscope/pkg/reviews"
	"github.com/epfpro/reviewscope/pkg/storage"
)

// startBackgroundRefresher re-runs the aggregation on a fixed interval
// so page renders hit a warm cache, and samples rating history into the
// database while it's at it.
func (s *Server) startBackgroundRefresher() {
	utils.Log.Infof("starting background refresher (interval: %d hours)", s.cfg.PollIntervalHours)

	// Run immediately on startup
	s.runRefreshCycle()

	ticker := time.NewTicker(time.Duration(s.cfg.PollIntervalHours) * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		s.runRefreshCycle()
	}
}

func (s *Server) runRefreshCycle() {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	result, err := s.agg.Aggregate(ctx, s.cfg.Identities)
	if err != nil {
		utils.Log.WithError(err).Warn("refresher: aggregation skipped")
		return
	}

	for _, p := range result.Places {
		s.recordPlace(ctx, p)
	}

	utils.Log.Infof("refresher: cycle completed in %s (%d places)",
		time.Since(start).Round(time.Millisecond), len(result.Places))
}

func (s *Server) recordPlace(ctx context.Context, p reviews.PlaceSummary) {
	if s.cfg.DB == nil || p.Status == reviews.StatusNotConfigured {
		return
	}

	ok := p.Status == reviews.StatusOK
	if err := s.cfg.DB.RecordFetch(ctx, storage.FetchEvent{
		PlaceID:    p.Identity.PlaceID,
		OccurredAt: time.Now().UTC(),
		OK:         ok,
		Detail:     string(p.Status),
	}); err != nil {
		utils.Log.WithError(err).Warn("refresher: recording fetch event")
	}

	if !ok {
		return
	}
	if err := s.cfg.DB.RecordSnapshot(ctx, storage.Snapshot{
		PlaceID:     p.Identity.PlaceID,
		Label:       p.Identity.Label,
		Name:        p.Name,
		Rating:      p.Rating,
		ReviewCount: p.ReviewCount,
		FetchedAt:   p.FetchedAt,
	}); err != nil {
		utils.Log.WithError(err).Warn("refresher: recording snapshot")
	}
}
