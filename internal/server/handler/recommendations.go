package handler

import (
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/lottostats/internal/service"
)

// RecommendationHandler serves recommendation generation and lookup.
type RecommendationHandler struct {
	svc    *service.AnalysisService
	logger *slog.Logger
}

// NewRecommendationHandler creates a RecommendationHandler.
func NewRecommendationHandler(svc *service.AnalysisService, logger *slog.Logger) *RecommendationHandler {
	return &RecommendationHandler{svc: svc, logger: logHandler(logger, "recommendations")}
}

// Recommend samples sets for the requested window and strategy.
// POST /api/recommendations
func (h *RecommendationHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req service.RecommendRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	rec, err := h.svc.Recommend(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Latest returns the memoised recommendation without sampling.
// GET /api/recommendations/latest?period=&strategy=
func (h *RecommendationHandler) Latest(w http.ResponseWriter, r *http.Request) {
	period, err := queryInt(r, "period", 0)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	rec, err := h.svc.Latest(r.Context(), period, r.URL.Query().Get("strategy"))
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// History lists stored recommendations, newest first.
// GET /api/recommendations/history?limit=
func (h *RecommendationHandler) History(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)
	recs, err := h.svc.History(r.Context(), opts.Limit)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recommendations": recs, "count": len(recs)})
}

// Audit lists audit log entries, newest first.
// GET /api/audit?limit=&offset=
func (h *RecommendationHandler) Audit(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.AuditLog(r.Context(), parseListOpts(r))
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries, "count": len(entries)})
}
