package handler

import (
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/lottostats/internal/i18n"
	"github.com/alanyoungcy/lottostats/internal/strategy"
)

// StrategyHandler lists the available strategies with localised text.
type StrategyHandler struct {
	registry *strategy.Registry
	catalog  *i18n.Catalog
	logger   *slog.Logger
}

// NewStrategyHandler creates a StrategyHandler.
func NewStrategyHandler(registry *strategy.Registry, catalog *i18n.Catalog, logger *slog.Logger) *StrategyHandler {
	return &StrategyHandler{registry: registry, catalog: catalog, logger: logHandler(logger, "strategies")}
}

type strategyView struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// ListStrategies returns every registered strategy.
// GET /api/strategies?lang=ko
func (h *StrategyHandler) ListStrategies(w http.ResponseWriter, r *http.Request) {
	tag := i18n.ResolveTag(r)
	kinds := h.registry.List()
	out := make([]strategyView, 0, len(kinds))
	for _, k := range kinds {
		label, desc, err := h.catalog.StrategyText(tag, k.String())
		if err != nil {
			writeServiceError(w, h.logger, r, err)
			return
		}
		out = append(out, strategyView{Name: k.String(), Label: label, Description: desc})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"lang":       tag.String(),
		"strategies": out,
	})
}
