package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	s3blob "github.com/alanyoungcy/lottostats/internal/blob/s3"
	"github.com/alanyoungcy/lottostats/internal/cache/redis"
	"github.com/alanyoungcy/lottostats/internal/config"
	"github.com/alanyoungcy/lottostats/internal/crypto"
	"github.com/alanyoungcy/lottostats/internal/domain"
	"github.com/alanyoungcy/lottostats/internal/i18n"
	"github.com/alanyoungcy/lottostats/internal/notify"
	"github.com/alanyoungcy/lottostats/internal/platform/dhlottery"
	"github.com/alanyoungcy/lottostats/internal/server/handler"
	"github.com/alanyoungcy/lottostats/internal/store/postgres"
	"github.com/alanyoungcy/lottostats/internal/store/sqlite"
	"github.com/alanyoungcy/lottostats/internal/strategy"
)

// Dependencies bundles every domain-level dependency that the application modes
// need to operate. It is constructed by Wire and torn down by the returned
// cleanup function. Every store, cache and blob field may be nil.
type Dependencies struct {
	// Stores
	DrawStore           domain.DrawStore
	RecommendationStore domain.RecommendationStore
	AuditStore          domain.AuditStore

	// Caches
	AnalysisCache domain.AnalysisCache
	RateLimiter   domain.RateLimiter
	LockManager   domain.LockManager
	SignalBus     domain.SignalBus

	// Blob storage
	BlobWriter domain.BlobWriter
	BlobReader domain.BlobReader
	Archiver   domain.Archiver

	// Recommendation engine
	Registry *strategy.Registry
	Sampler  *strategy.Sampler
	Catalog  *i18n.Catalog

	// Official results
	Fetcher *dhlottery.Client

	// Notifications
	Notifier *notify.Notifier

	// APIKey guards mutating routes; empty disables authentication.
	APIKey string

	// HealthChecks probe the connected backing services.
	HealthChecks []handler.Check
}

// needsRedis returns true for modes that use the shared cache, limiter or bus.
func needsRedis(mode string) bool {
	switch mode {
	case "serve", "collect", "full":
		return true
	default:
		return false
	}
}

// needsS3 returns true for modes that read or write cold storage.
func needsS3(mode string) bool {
	switch mode {
	case "serve", "full":
		return true
	default:
		return false
	}
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()
	mode := strings.ToLower(cfg.Mode)

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*Dependencies, func(), error) {
		cleanup()
		return nil, nil, err
	}

	deps := &Dependencies{}

	// --- Persistence ---
	switch strings.ToLower(cfg.Storage.Driver) {
	case "postgres":
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			return fail(fmt.Errorf("wire: postgres: %w", err))
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				return fail(fmt.Errorf("wire: postgres migrations: %w", err))
			}
		}

		pool := pgClient.Pool()
		deps.DrawStore = postgres.NewDrawStore(pool)
		deps.RecommendationStore = postgres.NewRecommendationStore(pool)
		deps.AuditStore = postgres.NewAuditStore(pool)
		deps.HealthChecks = append(deps.HealthChecks, handler.Check{Name: "postgres", Fn: pgClient.Ping})

	case "sqlite":
		store, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return fail(fmt.Errorf("wire: sqlite: %w", err))
		}
		closers = append(closers, func() { _ = store.Close() })

		deps.DrawStore = store.Draws()
		deps.RecommendationStore = store.Recommendations()
		deps.AuditStore = store.Audit()
	}

	// --- Redis ---
	if cfg.Redis.Enabled && needsRedis(mode) {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			return fail(fmt.Errorf("wire: redis: %w", err))
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.AnalysisCache = redis.NewAnalysisCache(redisClient, cfg.Redis.CacheTTL.Duration)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
		deps.LockManager = redis.NewLockManager(redisClient)
		deps.SignalBus = redis.NewSignalBus(redisClient)
		deps.HealthChecks = append(deps.HealthChecks, handler.Check{Name: "redis", Fn: redisClient.Ping})
	}

	// --- S3 blob storage ---
	if cfg.S3.Enabled && needsS3(mode) {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			return fail(fmt.Errorf("wire: s3: %w", err))
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.BlobWriter = s3blob.NewWriter(s3Client)
		deps.BlobReader = s3blob.NewReader(s3Client)
		deps.HealthChecks = append(deps.HealthChecks, handler.Check{Name: "s3", Fn: s3Client.Health})
		// Archiver: only when there is a store to export from.
		if deps.DrawStore != nil && deps.RecommendationStore != nil {
			deps.Archiver = s3blob.NewArchiver(
				deps.BlobWriter,
				deps.BlobReader,
				deps.DrawStore,
				deps.RecommendationStore,
				deps.AuditStore,
			)
		}
	}

	// --- Recommendation engine ---
	deps.Registry = strategy.DefaultRegistry()
	deps.Sampler = strategy.NewSampler(deps.Registry)
	catalog, err := i18n.NewCatalog()
	if err != nil {
		return fail(fmt.Errorf("wire: i18n: %w", err))
	}
	deps.Catalog = catalog

	deps.Fetcher = dhlottery.NewClient(cfg.Collector.BaseURL, cfg.Collector.Timeout.Duration)

	// --- API key ---
	apiKey, err := crypto.LoadAPIKey(crypto.APIKeyConfig{
		Raw:           cfg.Server.APIKey,
		EncryptedPath: cfg.Server.EncryptedAPIKeyPath,
		Password:      cfg.Server.APIKeyPassword,
	})
	switch {
	case errors.Is(err, crypto.ErrNoKey):
		if mode == "serve" || mode == "full" {
			logger.WarnContext(ctx, "no API key configured; mutating routes are unauthenticated")
		}
	case err != nil:
		return fail(fmt.Errorf("wire: api key: %w", err))
	default:
		deps.APIKey = apiKey
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			"",
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
