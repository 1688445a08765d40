package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/lottostats/internal/domain"
	"github.com/alanyoungcy/lottostats/internal/pipeline"
	"github.com/alanyoungcy/lottostats/internal/platform/dhlottery"
	"github.com/alanyoungcy/lottostats/internal/server"
	"github.com/alanyoungcy/lottostats/internal/server/handler"
	"github.com/alanyoungcy/lottostats/internal/server/ws"
	"github.com/alanyoungcy/lottostats/internal/service"
)

// ServeMode starts the HTTP API and, when Redis is wired, the WebSocket hub.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode")

	svc, err := a.newAnalysisService(deps)
	if err != nil {
		return fmt.Errorf("serve mode: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	a.startHTTPServer(ctx, g, deps, svc)
	return g.Wait()
}

// GenerateMode produces one recommendation with the configured defaults and
// writes it to stdout as JSON.
func (a *App) GenerateMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting generate mode")

	svc, err := a.newAnalysisService(deps)
	if err != nil {
		return fmt.Errorf("generate mode: %w", err)
	}
	rec, err := svc.Recommend(ctx, service.RecommendRequest{
		Seed:  a.cfg.Generator.Seed,
		Fresh: true,
	})
	if err != nil {
		return fmt.Errorf("generate mode: %w", err)
	}

	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return fmt.Errorf("generate mode: write output: %w", err)
	}
	return nil
}

// CollectMode runs the draw collector once and exits.
func (a *App) CollectMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting collect mode")

	svc, err := a.newAnalysisService(deps)
	if err != nil {
		return fmt.Errorf("collect mode: %w", err)
	}
	collector, err := a.newCollector(deps, svc)
	if err != nil {
		return fmt.Errorf("collect mode: %w", err)
	}
	n, err := collector.Run(ctx)
	if err != nil {
		return fmt.Errorf("collect mode: %w", err)
	}
	a.logger.InfoContext(ctx, "collect mode finished", slog.Int("collected", n))
	return nil
}

// FullMode starts the HTTP server together with the scheduled collector and
// archiver.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	svc, err := a.newAnalysisService(deps)
	if err != nil {
		return fmt.Errorf("full mode: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	a.startHTTPServer(ctx, g, deps, svc)

	if err := a.startDataPipeline(ctx, g, deps, svc); err != nil {
		return fmt.Errorf("full mode: %w", err)
	}

	return g.Wait()
}

// newAnalysisService builds the service with whatever collaborators Wire
// connected.
func (a *App) newAnalysisService(deps *Dependencies) (*service.AnalysisService, error) {
	ac := a.cfg.Analysis
	mode, err := domain.ParseCountMode(ac.CountMode)
	if err != nil {
		return nil, err
	}
	return service.NewAnalysisService(service.AnalysisConfig{
		Period:    ac.Period,
		Source:    strings.ToLower(ac.Source),
		Strategy:  ac.Strategy,
		Sets:      ac.Sets,
		Mode:      mode,
		MaxPeriod: ac.MaxPeriod,
		MaxSets:   ac.MaxSets,
		BaseRound: a.cfg.Generator.BaseRound,
		Seed:      a.cfg.Generator.Seed,
		Biased:    a.cfg.Generator.Biased,
	}, deps.Sampler, a.logger,
		service.WithDrawStore(deps.DrawStore),
		service.WithRecommendationStore(deps.RecommendationStore),
		service.WithAuditStore(deps.AuditStore),
		service.WithCache(deps.AnalysisCache),
		service.WithBus(deps.SignalBus),
		service.WithNotifier(deps.Notifier),
	), nil
}

// newCollector builds a collector that invalidates svc after new draws land.
func (a *App) newCollector(deps *Dependencies, svc *service.AnalysisService) (*pipeline.Collector, error) {
	if deps.DrawStore == nil {
		return nil, fmt.Errorf("collector requires a storage driver: %w", domain.ErrUnavailable)
	}
	cc := a.cfg.Collector
	return pipeline.NewCollector(deps.Fetcher, deps.DrawStore, pipeline.CollectorConfig{
		StartRound: cc.StartRound,
		MaxRounds:  cc.MaxRounds,
		LockTTL:    cc.LockTTL.Duration,
	}, a.logger,
		pipeline.WithLock(deps.LockManager),
		pipeline.WithInvalidator(svc),
		pipeline.WithBus(deps.SignalBus),
		pipeline.WithNotifier(deps.Notifier),
	), nil
}

// startHTTPServer registers the API routes and runs the server and the
// WebSocket hub inside g until ctx is cancelled.
func (a *App) startHTTPServer(
	ctx context.Context,
	g *errgroup.Group,
	deps *Dependencies,
	svc *service.AnalysisService,
) {
	handlers := server.Handlers{
		Health:          handler.NewHealthHandler(a.logger, deps.HealthChecks...),
		Draws:           handler.NewDrawHandler(svc, a.logger),
		Analysis:        handler.NewAnalysisHandler(svc, a.logger),
		Strategies:      handler.NewStrategyHandler(deps.Registry, deps.Catalog, a.logger),
		Recommendations: handler.NewRecommendationHandler(svc, a.logger),
		Archives:        handler.NewArchiveHandler(deps.BlobReader, a.logger),
	}

	// WebSocket hub: requires only the SignalBus.
	var hub *ws.Hub
	if deps.SignalBus != nil {
		hub = ws.NewHub(deps.SignalBus, a.cfg.Mode, a.logger)
		g.Go(func() error {
			return hub.Run(ctx)
		})
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      deps.APIKey,
		RateLimit:   a.cfg.Server.RateLimit,
		RateWindow:  a.cfg.Server.RateWindow.Duration,
		TrustProxy:  a.cfg.Server.TrustProxy,
	}, handlers, deps.RateLimiter, hub, a.logger)

	g.Go(func() error {
		port := a.cfg.Server.Port
		a.logger.InfoContext(ctx, "HTTP server listening",
			slog.Int("port", port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", port)))
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		a.logger.InfoContext(ctx, "HTTP server shutting down")
		return srv.Shutdown(shutCtx)
	})
}

// startDataPipeline schedules the collector and archiver when enabled.
func (a *App) startDataPipeline(ctx context.Context, g *errgroup.Group, deps *Dependencies, svc *service.AnalysisService) error {
	schedule := pipeline.Schedule{Location: dhlottery.Location}

	var collector *pipeline.Collector
	if a.cfg.Collector.Enabled {
		c, err := a.newCollector(deps, svc)
		if err != nil {
			return err
		}
		collector = c
		schedule.Collect = a.cfg.Collector.Schedule
	}

	var archiver *pipeline.Archiver
	if a.cfg.Archive.Enabled {
		if deps.Archiver == nil {
			a.logger.WarnContext(ctx, "archive enabled but no archiver wired (needs s3 and a storage driver)")
		} else {
			archiver = pipeline.NewArchiver(deps.Archiver, a.cfg.Archive.RetentionDays, deps.Notifier, a.logger)
			schedule.Archive = a.cfg.Archive.Schedule
		}
	}

	if collector == nil && archiver == nil {
		a.logger.InfoContext(ctx, "data pipeline disabled")
		return nil
	}

	orch := pipeline.NewOrchestrator(collector, archiver, schedule, deps.Notifier, a.logger)
	g.Go(func() error {
		return orch.Run(ctx)
	})
	return nil
}
