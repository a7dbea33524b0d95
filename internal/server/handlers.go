package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/epfpro/reviewscope/internal/utils"
	"github.com/epfpro/reviewscope/pkg/gplaces"
	"github.com/epfpro/reviewscope/pkg/places"
	"github.com/epfpro/reviewscope/pkg/reviews"
	"github.com/epfpro/reviewscope/pkg/storage"
)

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		utils.Log.WithError(err).Error("encoding response")
	}
}

// handlePlace serves GET /api/places?placeId=… — one place via the v1
// endpoint, cached for SingleTTL. The three status codes are a contract:
// callers branch on 400 (bad request), 500 (server not configured) and
// 502 (upstream down).
func (s *Server) handlePlace(w http.ResponseWriter, r *http.Request) {
	placeID := r.URL.Query().Get("placeId")
	if placeID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "placeId required"})
		return
	}
	if s.cfg.APIKey == "" {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "API key missing"})
		return
	}

	if summary, ok := s.single.Get(placeID); ok {
		writeJSON(w, http.StatusOK, summary)
		return
	}

	id := s.lookupIdentity(placeID)
	body, err := s.client.Details(r.Context(), placeID, gplaces.VariantV1)
	if err == nil {
		var summary reviews.PlaceSummary
		summary, err = reviews.Normalize(body, id, s.cfg.ReviewCap)
		if err == nil {
			s.single.Put(placeID, summary, s.cfg.SingleTTL)
			writeJSON(w, http.StatusOK, summary)
			return
		}
	}

	s.writeFetchError(w, placeID, err)
}

func (s *Server) writeFetchError(w http.ResponseWriter, placeID string, err error) {
	utils.Log.WithError(err).Warnf("fetch for %s failed", placeID)

	var ue *gplaces.UpstreamError
	switch {
	case errors.Is(err, gplaces.ErrMissingCredential):
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "API key missing"})
	case errors.Is(err, gplaces.ErrInvalidRequest):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "placeId required"})
	case errors.As(err, &ue):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "Places API error", Details: ue.Detail})
	case errors.Is(err, gplaces.ErrMalformed):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "Places API error", Details: "unexpected payload shape"})
	default:
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "Places API error"})
	}
}

// handleReputation serves GET /api/reputation — the aggregate across all
// configured locations via the legacy endpoint, cached for WallTTL.
func (s *Server) handleReputation(w http.ResponseWriter, r *http.Request) {
	result, err := s.agg.Aggregate(r.Context(), s.cfg.Identities)
	if err != nil {
		// Only the missing credential fails the whole operation.
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "API key missing"})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleHistory serves GET /api/history?placeId=… — recorded rating
// snapshots, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	placeID := r.URL.Query().Get("placeId")
	if placeID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "placeId required"})
		return
	}
	if s.cfg.DB == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "history disabled"})
		return
	}

	snaps, err := s.cfg.DB.ListSnapshots(r.Context(), placeID, 100)
	if err != nil {
		utils.Log.WithError(err).Error("listing snapshots")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}
	if snaps == nil {
		snaps = []storage.Snapshot{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"placeId": placeID, "snapshots": snaps})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// lookupIdentity matches a raw place ID back to its configured identity
// so the summary carries the human label. Unknown IDs are still served;
// they just get an empty label.
func (s *Server) lookupIdentity(placeID string) places.Identity {
	for _, id := range s.cfg.Identities {
		if id.PlaceID == placeID {
			return id
		}
	}
	return places.Identity{PlaceID: placeID}
}
