package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Check probes one backing service.
type Check struct {
	Name string
	Fn   func(ctx context.Context) error
}

// HealthHandler serves the health-check endpoint.
type HealthHandler struct {
	checks []Check
	logger *slog.Logger
}

// NewHealthHandler creates a HealthHandler that runs checks on every request.
func NewHealthHandler(logger *slog.Logger, checks ...Check) *HealthHandler {
	return &HealthHandler{checks: checks, logger: logHandler(logger, "health")}
}

// HealthCheck reports "ok" when every check passes and "degraded" otherwise.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	components := make(map[string]string, len(h.checks))
	for _, c := range h.checks {
		if err := c.Fn(ctx); err != nil {
			status = "degraded"
			components[c.Name] = err.Error()
			h.logger.WarnContext(ctx, "health check failed",
				slog.String("check", c.Name),
				slog.String("error", err.Error()),
			)
			continue
		}
		components[c.Name] = "ok"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":     status,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"components": components,
	})
}
