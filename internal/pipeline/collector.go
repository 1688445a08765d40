package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/lottostats/internal/domain"
	"github.com/alanyoungcy/lottostats/internal/notify"
	"github.com/alanyoungcy/lottostats/internal/platform/dhlottery"
)

// collectorLockKey serialises collection across instances.
const collectorLockKey = "collector"

// DrawFetcher retrieves one official result by round.
type DrawFetcher interface {
	Draw(ctx context.Context, round int) (domain.Draw, error)
}

// Invalidator drops memoised analyses once new draws land.
type Invalidator interface {
	InvalidateAll(ctx context.Context) error
}

// Notifier delivers operator notifications.
type Notifier interface {
	Notify(ctx context.Context, event notify.Event, title, message string) error
}

// CollectorConfig bounds a collection run.
type CollectorConfig struct {
	// StartRound is the first round fetched into an empty store.
	StartRound int
	// MaxRounds caps the rounds fetched per run.
	MaxRounds int
	LockTTL   time.Duration
}

// DrawEvent is published on the draws channel after a run stores new draws.
type DrawEvent struct {
	Event       string `json:"event"`
	Collected   int    `json:"collected"`
	LatestRound int    `json:"latest_round"`
}

// Collector copies official results into the draw store. Rounds are stored
// as a contiguous run: the first round that fails ends the pass, and the next
// pass retries it.
type Collector struct {
	fetcher     DrawFetcher
	store       domain.DrawStore
	lock        domain.LockManager
	invalidator Invalidator
	bus         domain.SignalBus
	notifier    Notifier
	cfg         CollectorConfig
	estimate    func(time.Time) int
	now         func() time.Time
	logger      *slog.Logger
}

// CollectorOption configures optional Collector collaborators.
type CollectorOption func(*Collector)

// WithLock guards runs with a distributed lock.
func WithLock(lock domain.LockManager) CollectorOption {
	return func(c *Collector) { c.lock = lock }
}

// WithInvalidator clears the analysis memo after new draws are stored.
func WithInvalidator(inv Invalidator) CollectorOption {
	return func(c *Collector) { c.invalidator = inv }
}

// WithBus publishes a DrawEvent after each productive run.
func WithBus(bus domain.SignalBus) CollectorOption {
	return func(c *Collector) { c.bus = bus }
}

// WithNotifier sends draws_collected notifications.
func WithNotifier(n Notifier) CollectorOption {
	return func(c *Collector) { c.notifier = n }
}

// WithRoundEstimator overrides how the newest drawn round is estimated.
func WithRoundEstimator(fn func(time.Time) int) CollectorOption {
	return func(c *Collector) { c.estimate = fn }
}

// NewCollector creates a Collector.
func NewCollector(fetcher DrawFetcher, store domain.DrawStore, cfg CollectorConfig, logger *slog.Logger, opts ...CollectorOption) *Collector {
	if cfg.StartRound < 1 {
		cfg.StartRound = 1
	}
	if cfg.MaxRounds < 1 {
		cfg.MaxRounds = 100
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 10 * time.Minute
	}
	c := &Collector{
		fetcher:  fetcher,
		store:    store,
		cfg:      cfg,
		estimate: dhlottery.EstimateLatestRound,
		now:      time.Now,
		logger:   logger.With(slog.String("component", "collector")),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run performs a single collection pass and returns the number of draws
// stored. A run that finds the lock held by another instance does nothing.
func (c *Collector) Run(ctx context.Context) (int, error) {
	if c.lock != nil {
		unlock, err := c.lock.Acquire(ctx, collectorLockKey, c.cfg.LockTTL)
		if errors.Is(err, domain.ErrLockHeld) {
			c.logger.InfoContext(ctx, "collection already running elsewhere")
			return 0, nil
		}
		if err != nil {
			return 0, fmt.Errorf("pipeline: acquire collector lock: %w", err)
		}
		defer unlock()
	}

	latest, err := c.store.LatestRound(ctx)
	if err != nil {
		return 0, fmt.Errorf("pipeline: latest stored round: %w", err)
	}
	from := max(latest+1, c.cfg.StartRound)
	to := min(c.estimate(c.now()), from+c.cfg.MaxRounds-1)
	if to < from {
		c.logger.DebugContext(ctx, "draw store is up to date", slog.Int("latest_round", latest))
		return 0, nil
	}

	c.logger.InfoContext(ctx, "collecting draws", slog.Int("from", from), slog.Int("to", to))

	batch := make([]domain.Draw, 0, to-from+1)
	for round := from; round <= to; round++ {
		if err := ctx.Err(); err != nil {
			return 0, fmt.Errorf("pipeline: collector cancelled: %w", err)
		}
		d, err := c.fetcher.Draw(ctx, round)
		if errors.Is(err, domain.ErrNotFound) {
			// Estimated round not drawn yet.
			break
		}
		if err != nil {
			// Keep the store gap-free: the next run resumes at this round.
			c.logger.WarnContext(ctx, "round unavailable, stopping until next run",
				slog.Int("round", round),
				slog.String("error", err.Error()),
			)
			break
		}
		batch = append(batch, d)
	}

	if len(batch) == 0 {
		c.logger.InfoContext(ctx, "no new draws collected")
		return 0, nil
	}
	if err := c.store.UpsertBatch(ctx, batch); err != nil {
		return 0, fmt.Errorf("pipeline: store %d draws: %w", len(batch), err)
	}
	newest := batch[len(batch)-1].Round
	c.logger.InfoContext(ctx, "draws collected",
		slog.Int("count", len(batch)),
		slog.Int("latest_round", newest),
	)

	c.afterCollect(ctx, len(batch), newest)
	return len(batch), nil
}

// afterCollect fans out side effects; failures are logged only.
func (c *Collector) afterCollect(ctx context.Context, n, newest int) {
	if c.invalidator != nil {
		if err := c.invalidator.InvalidateAll(ctx); err != nil {
			c.logger.WarnContext(ctx, "invalidate memo failed", slog.String("error", err.Error()))
		}
	}
	if c.bus != nil {
		payload, _ := json.Marshal(DrawEvent{Event: string(notify.EventDrawsCollected), Collected: n, LatestRound: newest})
		if err := c.bus.Publish(ctx, domain.ChannelDraws, payload); err != nil {
			c.logger.WarnContext(ctx, "publish draw event failed", slog.String("error", err.Error()))
		}
	}
	if c.notifier != nil {
		title, msg := notify.DrawsCollectedMessage(n, newest)
		if err := c.notifier.Notify(ctx, notify.EventDrawsCollected, title, msg); err != nil {
			c.logger.WarnContext(ctx, "notify failed", slog.String("error", err.Error()))
		}
	}
}
