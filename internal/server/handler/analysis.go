package handler

import (
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/lottostats/internal/domain"
	"github.com/alanyoungcy/lottostats/internal/service"
)

// AnalysisHandler serves frequency statistics and set analysis.
type AnalysisHandler struct {
	svc    *service.AnalysisService
	logger *slog.Logger
}

// NewAnalysisHandler creates an AnalysisHandler.
func NewAnalysisHandler(svc *service.AnalysisService, logger *slog.Logger) *AnalysisHandler {
	return &AnalysisHandler{svc: svc, logger: logHandler(logger, "analysis")}
}

type frequencyView struct {
	Number int    `json:"number"`
	Count  int    `json:"count"`
	Color  string `json:"color"`
}

type analysisResponse struct {
	domain.Analysis
	Period      int             `json:"period"`
	Mode        string          `json:"mode"`
	Mean        float64         `json:"mean"`
	Frequencies []frequencyView `json:"frequencies"`
	Buckets     []domain.Bucket `json:"buckets"`
}

// GetAnalysis returns the memoised analysis with a per-number view under the
// requested count mode.
// GET /api/analysis?period=N&mode=main
func (h *AnalysisHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	period, err := queryInt(r, "period", h.svc.Config().Period)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	mode := h.svc.Config().Mode
	if raw := r.URL.Query().Get("mode"); raw != "" {
		if mode, err = domain.ParseCountMode(raw); err != nil {
			writeServiceError(w, h.logger, r, err)
			return
		}
	}

	a, err := h.svc.Analyze(r.Context(), period)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}

	freqs := make([]frequencyView, 0, domain.NumberCount)
	for n := domain.MinNumber; n <= domain.MaxNumber; n++ {
		freqs = append(freqs, frequencyView{Number: n, Count: a.Table.Count(n, mode), Color: domain.BallColor(n)})
	}
	writeJSON(w, http.StatusOK, analysisResponse{
		Analysis:    a,
		Period:      period,
		Mode:        mode.String(),
		Mean:        a.Table.Mean(mode),
		Frequencies: freqs,
		Buckets:     domain.Buckets,
	})
}

type refreshRequest struct {
	Period *int `json:"period"`
}

// Refresh invalidates the memo for one period, or everything when no period
// is given.
// POST /api/analysis/refresh
func (h *AnalysisHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}

	var err error
	scope := "all"
	if req.Period != nil {
		scope = "period"
		err = h.svc.Invalidate(r.Context(), *req.Period)
	} else {
		err = h.svc.InvalidateAll(r.Context())
	}
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"invalidated": scope, "period": req.Period})
}

type analyzeSetRequest struct {
	Numbers []int `json:"numbers"`
	Period  int   `json:"period"`
}

// AnalyzeSet describes a user-chosen set.
// POST /api/sets/analyze
func (h *AnalysisHandler) AnalyzeSet(w http.ResponseWriter, r *http.Request) {
	var req analyzeSetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	rep, err := h.svc.AnalyzeSet(r.Context(), req.Period, req.Numbers)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// Odds lists the prize tiers.
// GET /api/odds
func (h *AnalysisHandler) Odds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tiers": domain.PrizeTiers})
}
