package handler

import (
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/lottostats/internal/domain"
	"github.com/alanyoungcy/lottostats/internal/service"
)

// DrawHandler serves draw history and synthetic generation.
type DrawHandler struct {
	svc    *service.AnalysisService
	logger *slog.Logger
}

// NewDrawHandler creates a DrawHandler.
func NewDrawHandler(svc *service.AnalysisService, logger *slog.Logger) *DrawHandler {
	return &DrawHandler{svc: svc, logger: logHandler(logger, "draws")}
}

type drawView struct {
	Round   int      `json:"round"`
	Date    string   `json:"date"`
	Numbers []int    `json:"numbers"`
	Bonus   int      `json:"bonus"`
	Colors  []string `json:"colors"`
}

// ListDraws returns the analysis window, newest first. limit trims the
// response without changing the window.
// GET /api/draws?period=N&limit=M
func (h *DrawHandler) ListDraws(w http.ResponseWriter, r *http.Request) {
	period, err := queryInt(r, "period", h.svc.Config().Period)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	limit, err := queryInt(r, "limit", period)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}

	draws, err := h.svc.Draws(r.Context(), period)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	if limit > 0 && limit < len(draws) {
		draws = draws[:limit]
	}

	out := make([]drawView, 0, len(draws))
	for _, d := range draws {
		colors := make([]string, 0, len(d.Numbers)+1)
		for _, n := range d.Numbers {
			colors = append(colors, domain.BallColor(n))
		}
		colors = append(colors, domain.BallColor(d.Bonus))
		out = append(out, drawView{
			Round:   d.Round,
			Date:    d.DateString(),
			Numbers: d.Numbers,
			Bonus:   d.Bonus,
			Colors:  colors,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"period": period,
		"count":  len(out),
		"draws":  out,
	})
}

type generateRequest struct {
	Count int       `json:"count"`
	Bias  []float64 `json:"bias"`
	Seed  uint64    `json:"seed"`
}

// GenerateDraws returns a fresh synthetic history. It does not replace the
// history used for analysis.
// POST /api/draws/generate
func (h *DrawHandler) GenerateDraws(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	res, err := h.svc.GenerateDraws(r.Context(), req.Count, req.Bias, req.Seed)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
