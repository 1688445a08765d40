// Package server exposes the analysis service over HTTP and WebSocket.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/lottostats/internal/domain"
	"github.com/alanyoungcy/lottostats/internal/server/handler"
	"github.com/alanyoungcy/lottostats/internal/server/middleware"
	"github.com/alanyoungcy/lottostats/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	// APIKey guards mutating routes; empty disables authentication.
	APIKey     string
	RateLimit  int
	RateWindow time.Duration
	// TrustProxy keys the rate limit on X-Forwarded-For / X-Real-IP.
	TrustProxy bool
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health          *handler.HealthHandler
	Draws           *handler.DrawHandler
	Analysis        *handler.AnalysisHandler
	Strategies      *handler.StrategyHandler
	Recommendations *handler.RecommendationHandler
	Archives        *handler.ArchiveHandler
}

// Server is the HTTP + WebSocket API server.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer registers every route and builds the middleware chain
// CORS, Logging, RateLimit, Auth. limiter and wsHub may be nil.
func NewServer(cfg Config, handlers Handlers, limiter domain.RateLimiter, wsHub *ws.Hub, logger *slog.Logger) *Server {
	logger = logger.With(slog.String("component", "server"))
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      NewHandler(cfg, handlers, limiter, wsHub, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return &Server{httpServer: srv, logger: logger}
}

// NewHandler returns the fully wrapped router.
func NewHandler(cfg Config, handlers Handlers, limiter domain.RateLimiter, wsHub *ws.Hub, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	mux.HandleFunc("GET /api/draws", handlers.Draws.ListDraws)
	mux.HandleFunc("POST /api/draws/generate", handlers.Draws.GenerateDraws)

	mux.HandleFunc("GET /api/analysis", handlers.Analysis.GetAnalysis)
	mux.HandleFunc("POST /api/analysis/refresh", handlers.Analysis.Refresh)
	mux.HandleFunc("POST /api/sets/analyze", handlers.Analysis.AnalyzeSet)
	mux.HandleFunc("GET /api/odds", handlers.Analysis.Odds)

	mux.HandleFunc("GET /api/strategies", handlers.Strategies.ListStrategies)

	mux.HandleFunc("POST /api/recommendations", handlers.Recommendations.Recommend)
	mux.HandleFunc("GET /api/recommendations/latest", handlers.Recommendations.Latest)
	mux.HandleFunc("GET /api/recommendations/history", handlers.Recommendations.History)
	mux.HandleFunc("GET /api/audit", handlers.Recommendations.Audit)

	if handlers.Archives != nil {
		mux.HandleFunc("GET /api/archives", handlers.Archives.ListArchives)
		mux.HandleFunc("GET /api/archives/{key...}", handlers.Archives.GetArchive)
	}

	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Wrapped innermost first.
	var h http.Handler = mux
	h = middleware.Auth(cfg.APIKey)(h)
	if limiter != nil && cfg.RateLimit > 0 {
		h = middleware.RateLimit(limiter, cfg.RateLimit, cfg.RateWindow, cfg.TrustProxy, logger)(h)
	}
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)
	return h
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("starting", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
