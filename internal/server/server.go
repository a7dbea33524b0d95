package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/epfpro/reviewscope/internal/utils"
	"github.com/epfpro/reviewscope/pkg/gplaces"
	"github.com/epfpro/reviewscope/pkg/places"
	"github.com/epfpro/reviewscope/pkg/reviews"
	"github.com/epfpro/reviewscope/pkg/storage"
)

// Config holds everything the web server needs.
type Config struct {
	ListenAddr string
	APIKey     string
	Identities []places.Identity
	ReviewCap  int

	// SingleTTL caches the lightweight single-place lookups (map chip),
	// WallTTL the heavier multi-place review wall.
	SingleTTL time.Duration
	WallTTL   time.Duration

	// PollIntervalHours > 0 enables the background refresher that keeps
	// the cache warm and appends rating history.
	PollIntervalHours int

	// DB is optional; without it the history endpoint is disabled.
	DB *storage.DB
}

// Server serves the read-only reputation API.
type Server struct {
	cfg    Config
	client *gplaces.Client
	agg    *reviews.Aggregator
	single *reviews.Cache
}

func New(cfg Config) *Server {
	if cfg.SingleTTL <= 0 {
		cfg.SingleTTL = time.Hour
	}
	if cfg.WallTTL <= 0 {
		cfg.WallTTL = 4 * time.Hour
	}
	if cfg.ReviewCap <= 0 {
		cfg.ReviewCap = reviews.DefaultReviewCap
	}

	client := gplaces.NewClient(cfg.APIKey, gplaces.DefaultTimeout)
	agg := reviews.NewAggregator(reviews.AggregatorConfig{
		APIKey: cfg.APIKey,
		Fetch: func(ctx context.Context, placeID string) (string, error) {
			return client.Details(ctx, placeID, gplaces.VariantLegacy)
		},
		ReviewCap: cfg.ReviewCap,
		CacheTTL:  cfg.WallTTL,
	})

	return &Server{
		cfg:    cfg,
		client: client,
		agg:    agg,
		single: reviews.NewCache(nil),
	}
}

// Router builds the chi router. Split out so tests can drive the
// handlers without a listening socket.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/api/places", s.handlePlace)
	r.Get("/api/reputation", s.handleReputation)
	r.Get("/api/history", s.handleHistory)
	r.Get("/healthz", s.handleHealthz)

	return r
}

// Run starts the background refresher (if enabled) and blocks serving
// HTTP.
func (s *Server) Run() error {
	if s.cfg.PollIntervalHours > 0 {
		go s.startBackgroundRefresher()
	}
	utils.Log.Infof("listening on %s", s.cfg.ListenAddr)
	return http.ListenAndServe(s.cfg.ListenAddr, s.Router())
}
