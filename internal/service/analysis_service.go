package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/lottostats/internal/domain"
	"github.com/alanyoungcy/lottostats/internal/lotto"
	"github.com/alanyoungcy/lottostats/internal/notify"
	"github.com/alanyoungcy/lottostats/internal/strategy"
)

// Draw sources.
const (
	SourceSynthetic = "synthetic"
	SourceStore     = "store"
	SourceAuto      = "auto"
)

// AnalysisConfig holds request defaults and limits.
type AnalysisConfig struct {
	Period    int
	Source    string
	Strategy  string
	Sets      int
	Mode      domain.CountMode
	MaxPeriod int
	MaxSets   int
	// BaseRound numbers synthetic history.
	BaseRound int
	// Seed fixes synthetic history; 0 draws a fresh seed once per process.
	Seed   uint64
	Biased bool
}

// RecommendRequest is the input to Recommend. Zero values select the
// configured defaults.
type RecommendRequest struct {
	Period   int    `json:"period"`
	Strategy string `json:"strategy"`
	Sets     int    `json:"sets"`
	Mode     string `json:"mode"`
	// Seed reproduces an earlier result; it always bypasses the memo.
	Seed  uint64 `json:"seed"`
	Fresh bool   `json:"fresh"`
}

// GeneratedDraws is a synthetic history with the seed that produced it.
type GeneratedDraws struct {
	Seed  uint64        `json:"seed"`
	Draws []domain.Draw `json:"draws"`
}

// SetReport describes a user-chosen set against an analysis window.
type SetReport struct {
	Stats      domain.SetStats            `json:"stats"`
	Comparison domain.SelectionComparison `json:"comparison"`
	Period     int                        `json:"period"`
}

// RecommendationEvent is published on the recommendations channel.
type RecommendationEvent struct {
	Event          string                `json:"event"`
	Recommendation domain.Recommendation `json:"recommendation"`
}

// window says where the draws of an analysis window come from. scope names
// the history in the shared cache; shared is false when no other process can
// hold the same history, which keeps such results out of the shared cache.
type window struct {
	source string
	scope  string
	shared bool
}

type recKey struct {
	period   int
	strategy string
}

// AnalysisService memoises analyses and recommendations per draw window.
// Every collaborator except the sampler is optional.
type AnalysisService struct {
	cfg      AnalysisConfig
	sampler  *strategy.Sampler
	draws    domain.DrawStore
	recs     domain.RecommendationStore
	audit    domain.AuditStore
	cache    domain.AnalysisCache
	bus      domain.SignalBus
	notifier Notifier
	now      func() time.Time
	logger   *slog.Logger

	historyMu    sync.Mutex
	history      []domain.Draw
	historyScope string

	mu       sync.Mutex
	analyses map[int]domain.Analysis
	memoRecs map[recKey]domain.Recommendation
}

// Notifier delivers operator notifications.
type Notifier interface {
	Notify(ctx context.Context, event notify.Event, title, message string) error
}

// Option configures optional AnalysisService collaborators.
type Option func(*AnalysisService)

// WithDrawStore reads collected draws for the store and auto sources.
func WithDrawStore(s domain.DrawStore) Option {
	return func(a *AnalysisService) { a.draws = s }
}

// WithRecommendationStore persists every new recommendation.
func WithRecommendationStore(s domain.RecommendationStore) Option {
	return func(a *AnalysisService) { a.recs = s }
}

// WithAuditStore records recommendation and invalidation events.
func WithAuditStore(s domain.AuditStore) Option {
	return func(a *AnalysisService) { a.audit = s }
}

// WithCache adds a shared second-level memo.
func WithCache(c domain.AnalysisCache) Option {
	return func(a *AnalysisService) { a.cache = c }
}

// WithBus publishes new recommendations.
func WithBus(b domain.SignalBus) Option {
	return func(a *AnalysisService) { a.bus = b }
}

// WithNotifier sends recommendation_generated notifications.
func WithNotifier(n Notifier) Option {
	return func(a *AnalysisService) { a.notifier = n }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(a *AnalysisService) { a.now = now }
}

// NewAnalysisService creates an AnalysisService.
func NewAnalysisService(cfg AnalysisConfig, sampler *strategy.Sampler, logger *slog.Logger, opts ...Option) *AnalysisService {
	if cfg.Source == "" {
		cfg.Source = SourceSynthetic
	}
	if cfg.MaxPeriod <= 0 {
		cfg.MaxPeriod = 2000
	}
	if cfg.MaxSets <= 0 {
		cfg.MaxSets = 50
	}
	if cfg.Period <= 0 {
		cfg.Period = min(100, cfg.MaxPeriod)
	}
	if cfg.Sets <= 0 {
		cfg.Sets = 5
	}
	if cfg.Strategy == "" {
		cfg.Strategy = strategy.Balanced.String()
	}
	if cfg.BaseRound <= 0 {
		cfg.BaseRound = lotto.DefaultBaseRound
	}
	s := &AnalysisService{
		cfg:      cfg,
		sampler:  sampler,
		now:      time.Now,
		logger:   logger.With(slog.String("component", "analysis_service")),
		analyses: make(map[int]domain.Analysis),
		memoRecs: make(map[recKey]domain.Recommendation),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the effective defaults and limits.
func (s *AnalysisService) Config() AnalysisConfig {
	return s.cfg
}

// GenerateDraws produces n synthetic draws. A zero seed draws a fresh one;
// the seed used is returned so the history can be reproduced.
func (s *AnalysisService) GenerateDraws(ctx context.Context, n int, bias []float64, seed uint64) (GeneratedDraws, error) {
	if n > s.cfg.MaxPeriod {
		return GeneratedDraws{}, fmt.Errorf("service: generate %d draws exceeds limit %d: %w", n, s.cfg.MaxPeriod, domain.ErrInvalidInput)
	}
	seed, err := resolveSeed(seed)
	if err != nil {
		return GeneratedDraws{}, err
	}
	gen := lotto.NewGenerator(lotto.NewSource(seed),
		lotto.WithBaseRound(s.cfg.BaseRound),
		lotto.WithClock(s.now),
	)
	draws, err := gen.Generate(n, bias)
	if err != nil {
		return GeneratedDraws{}, fmt.Errorf("service: generate draws: %w", err)
	}
	s.logger.DebugContext(ctx, "generated synthetic draws", slog.Int("count", n), slog.Uint64("seed", seed))
	return GeneratedDraws{Seed: seed, Draws: draws}, nil
}

// Draws returns the period most recent draws, newest first, from the
// configured source.
func (s *AnalysisService) Draws(ctx context.Context, period int) ([]domain.Draw, error) {
	if err := s.checkPeriod(period); err != nil {
		return nil, err
	}
	w, err := s.window(ctx, period)
	if err != nil {
		return nil, err
	}
	return s.drawsFrom(ctx, w, period)
}

// window resolves the source for period: auto reads the store once it holds
// enough draws.
func (s *AnalysisService) window(ctx context.Context, period int) (window, error) {
	source := s.cfg.Source
	if source == SourceAuto {
		source = SourceSynthetic
		if s.draws != nil {
			n, err := s.draws.Count(ctx)
			if err != nil {
				return window{}, fmt.Errorf("service: count draws: %w", err)
			}
			if n >= int64(period) {
				source = SourceStore
			}
		}
	}
	if source == SourceStore {
		return window{source: SourceStore, scope: SourceStore, shared: true}, nil
	}

	if _, err := s.syntheticHistory(); err != nil {
		return window{}, err
	}
	s.historyMu.Lock()
	scope := s.historyScope
	s.historyMu.Unlock()
	return window{source: SourceSynthetic, scope: scope, shared: s.cfg.Seed != 0}, nil
}

func (s *AnalysisService) drawsFrom(ctx context.Context, w window, period int) ([]domain.Draw, error) {
	if w.source == SourceStore {
		return s.storedDraws(ctx, period)
	}
	history, err := s.syntheticHistory()
	if err != nil {
		return nil, err
	}
	return slices.Clone(history[:period]), nil
}

func (s *AnalysisService) storedDraws(ctx context.Context, period int) ([]domain.Draw, error) {
	if s.draws == nil {
		return nil, fmt.Errorf("service: draw store not configured: %w", domain.ErrUnavailable)
	}
	draws, err := s.draws.ListRecent(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("service: list draws: %w", err)
	}
	if len(draws) < period {
		return nil, fmt.Errorf("service: %d stored draws, need %d: %w", len(draws), period, domain.ErrNotFound)
	}
	return draws, nil
}

// syntheticHistory returns the process-wide history generated on first use,
// so every window is a prefix of the same sequence. Its scope covers every
// input that shapes it, including the generation date the draw dates count
// back from.
func (s *AnalysisService) syntheticHistory() ([]domain.Draw, error) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	if s.history != nil {
		return s.history, nil
	}
	seed, err := resolveSeed(s.cfg.Seed)
	if err != nil {
		return nil, err
	}
	var bias []float64
	if s.cfg.Biased {
		bias = lotto.DefaultBias()
	}
	now := s.now()
	gen := lotto.NewGenerator(lotto.NewSource(seed),
		lotto.WithBaseRound(s.cfg.BaseRound),
		lotto.WithClock(func() time.Time { return now }),
	)
	history, err := gen.Generate(s.cfg.MaxPeriod, bias)
	if err != nil {
		return nil, fmt.Errorf("service: synthetic history: %w", err)
	}
	s.history = history
	s.historyScope = fmt.Sprintf("%s:%d:%d:%d:%t:%s", SourceSynthetic,
		seed, s.cfg.BaseRound, s.cfg.MaxPeriod, s.cfg.Biased, now.UTC().Format(time.DateOnly))
	s.logger.Info("synthetic history generated",
		slog.Int("draws", len(history)),
		slog.Uint64("seed", seed),
	)
	return s.history, nil
}

// Analyze returns the memoised analysis for the period most recent draws.
func (s *AnalysisService) Analyze(ctx context.Context, period int) (domain.Analysis, error) {
	if err := s.checkPeriod(period); err != nil {
		return domain.Analysis{}, err
	}
	w, err := s.window(ctx, period)
	if err != nil {
		return domain.Analysis{}, err
	}
	return s.analyze(ctx, w, period)
}

func (s *AnalysisService) analyze(ctx context.Context, w window, period int) (domain.Analysis, error) {
	s.mu.Lock()
	a, ok := s.analyses[period]
	s.mu.Unlock()
	if ok {
		return a, nil
	}

	if s.cache != nil && w.shared {
		a, err := s.cache.GetAnalysis(ctx, w.scope, period)
		switch {
		case err == nil:
			s.mu.Lock()
			s.analyses[period] = a
			s.mu.Unlock()
			return a, nil
		case !errors.Is(err, domain.ErrNotFound):
			s.logger.WarnContext(ctx, "analysis cache read failed", slog.String("error", err.Error()))
		}
	}

	draws, err := s.drawsFrom(ctx, w, period)
	if err != nil {
		return domain.Analysis{}, err
	}
	a, err = lotto.Analyze(draws)
	if err != nil {
		return domain.Analysis{}, fmt.Errorf("service: analyze: %w", err)
	}

	s.mu.Lock()
	s.analyses[period] = a
	s.mu.Unlock()
	if s.cache != nil && w.shared {
		if err := s.cache.SetAnalysis(ctx, w.scope, period, a); err != nil {
			s.logger.WarnContext(ctx, "analysis cache write failed", slog.String("error", err.Error()))
		}
	}
	return a, nil
}

// Recommend returns sets for the request. Without Fresh or Seed a memoised
// recommendation for the same window, strategy, mode and set count is reused.
func (s *AnalysisService) Recommend(ctx context.Context, req RecommendRequest) (domain.Recommendation, error) {
	req, kind, mode, err := s.normalise(req)
	if err != nil {
		return domain.Recommendation{}, err
	}

	w, err := s.window(ctx, req.Period)
	if err != nil {
		return domain.Recommendation{}, err
	}

	if !req.Fresh && req.Seed == 0 {
		if rec, err := s.lookup(ctx, w, req.Period, kind.String()); err == nil &&
			rec.Mode == mode.String() && len(rec.Sets) == req.Sets {
			return rec, nil
		}
	}

	analysis, err := s.analyze(ctx, w, req.Period)
	if err != nil {
		return domain.Recommendation{}, err
	}
	seed, err := resolveSeed(req.Seed)
	if err != nil {
		return domain.Recommendation{}, err
	}
	sets, err := s.sampler.Recommend(lotto.NewSource(seed), analysis.Table, kind.String(), req.Sets, mode)
	if err != nil {
		return domain.Recommendation{}, fmt.Errorf("service: recommend: %w", err)
	}

	rec := domain.Recommendation{
		ID:        uuid.NewString(),
		Strategy:  kind.String(),
		Period:    req.Period,
		Mode:      mode.String(),
		Seed:      seed,
		Sets:      sets,
		CreatedAt: s.now().UTC(),
	}
	s.remember(ctx, w, rec)
	s.publish(ctx, rec)
	return rec, nil
}

// Latest returns the memoised recommendation for period and strategy.
func (s *AnalysisService) Latest(ctx context.Context, period int, name string) (domain.Recommendation, error) {
	if period == 0 {
		period = s.cfg.Period
	}
	if name == "" {
		name = s.cfg.Strategy
	}
	kind, err := strategy.ParseKind(name)
	if err != nil {
		return domain.Recommendation{}, err
	}
	if err := s.checkPeriod(period); err != nil {
		return domain.Recommendation{}, err
	}
	w, err := s.window(ctx, period)
	if err != nil {
		return domain.Recommendation{}, err
	}
	return s.lookup(ctx, w, period, kind.String())
}

// History lists persisted recommendations, newest first.
func (s *AnalysisService) History(ctx context.Context, limit int) ([]domain.Recommendation, error) {
	if s.recs == nil {
		return nil, fmt.Errorf("service: recommendation store not configured: %w", domain.ErrUnavailable)
	}
	recs, err := s.recs.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("service: list recommendations: %w", err)
	}
	return recs, nil
}

// AuditLog lists the newest audit entries.
func (s *AnalysisService) AuditLog(ctx context.Context, opts domain.ListOpts) ([]domain.AuditEntry, error) {
	if s.audit == nil {
		return nil, fmt.Errorf("service: audit store not configured: %w", domain.ErrUnavailable)
	}
	entries, err := s.audit.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("service: list audit: %w", err)
	}
	return entries, nil
}

// AnalyzeSet describes numbers and compares them with the period window. A
// zero period selects the default window.
func (s *AnalysisService) AnalyzeSet(ctx context.Context, period int, numbers []int) (SetReport, error) {
	if period == 0 {
		period = s.cfg.Period
	}
	stats, err := lotto.AnalyzeSet(numbers)
	if err != nil {
		return SetReport{}, err
	}
	a, err := s.Analyze(ctx, period)
	if err != nil {
		return SetReport{}, err
	}
	cmp, err := lotto.CompareSelection(numbers, a.Table, s.cfg.Mode)
	if err != nil {
		return SetReport{}, err
	}
	return SetReport{Stats: stats, Comparison: cmp, Period: period}, nil
}

// Invalidate drops the memoised analysis and recommendations for period.
func (s *AnalysisService) Invalidate(ctx context.Context, period int) error {
	s.mu.Lock()
	delete(s.analyses, period)
	for k := range s.memoRecs {
		if k.period == period {
			delete(s.memoRecs, k)
		}
	}
	s.mu.Unlock()

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, period); err != nil {
			return fmt.Errorf("service: invalidate period %d: %w", period, err)
		}
	}
	s.logAudit(ctx, "memo_invalidated", map[string]any{"period": period})
	return nil
}

// InvalidateAll clears every memoised entry.
func (s *AnalysisService) InvalidateAll(ctx context.Context) error {
	s.mu.Lock()
	clear(s.analyses)
	clear(s.memoRecs)
	s.mu.Unlock()

	if s.cache != nil {
		if err := s.cache.InvalidateAll(ctx); err != nil {
			return fmt.Errorf("service: invalidate all: %w", err)
		}
	}
	s.logAudit(ctx, "memo_invalidated", map[string]any{"period": "all"})
	return nil
}

func (s *AnalysisService) normalise(req RecommendRequest) (RecommendRequest, strategy.Kind, domain.CountMode, error) {
	if req.Period == 0 {
		req.Period = s.cfg.Period
	}
	if req.Sets == 0 {
		req.Sets = s.cfg.Sets
	}
	if req.Strategy == "" {
		req.Strategy = s.cfg.Strategy
	}
	if err := s.checkPeriod(req.Period); err != nil {
		return req, 0, 0, err
	}
	if req.Sets < 1 || req.Sets > s.cfg.MaxSets {
		return req, 0, 0, fmt.Errorf("service: sets %d outside 1-%d: %w", req.Sets, s.cfg.MaxSets, domain.ErrInvalidInput)
	}
	if req.Seed > lotto.MaxSeed {
		return req, 0, 0, fmt.Errorf("service: seed %d above %d: %w", req.Seed, uint64(lotto.MaxSeed), domain.ErrInvalidInput)
	}
	kind, err := strategy.ParseKind(req.Strategy)
	if err != nil {
		return req, 0, 0, err
	}
	mode := s.cfg.Mode
	if req.Mode != "" {
		if mode, err = domain.ParseCountMode(req.Mode); err != nil {
			return req, 0, 0, err
		}
	}
	return req, kind, mode, nil
}

func (s *AnalysisService) checkPeriod(period int) error {
	if period < 1 || period > s.cfg.MaxPeriod {
		return fmt.Errorf("service: period %d outside 1-%d: %w", period, s.cfg.MaxPeriod, domain.ErrInvalidInput)
	}
	return nil
}

func (s *AnalysisService) lookup(ctx context.Context, w window, period int, kind string) (domain.Recommendation, error) {
	key := recKey{period: period, strategy: kind}
	s.mu.Lock()
	rec, ok := s.memoRecs[key]
	s.mu.Unlock()
	if ok {
		return rec, nil
	}
	if s.cache == nil || !w.shared {
		return domain.Recommendation{}, fmt.Errorf("service: recommendation %s/%d: %w", kind, period, domain.ErrNotFound)
	}
	rec, err := s.cache.GetRecommendation(ctx, w.scope, period, kind)
	if err != nil {
		return domain.Recommendation{}, fmt.Errorf("service: recommendation %s/%d: %w", kind, period, err)
	}
	s.mu.Lock()
	s.memoRecs[key] = rec
	s.mu.Unlock()
	return rec, nil
}

// remember stores rec in both memo levels and the optional stores. Storage
// failures are logged; the caller still gets its recommendation.
func (s *AnalysisService) remember(ctx context.Context, w window, rec domain.Recommendation) {
	s.mu.Lock()
	s.memoRecs[recKey{period: rec.Period, strategy: rec.Strategy}] = rec
	s.mu.Unlock()

	if s.cache != nil && w.shared {
		if err := s.cache.SetRecommendation(ctx, w.scope, rec.Period, rec); err != nil {
			s.logger.WarnContext(ctx, "recommendation cache write failed", slog.String("error", err.Error()))
		}
	}
	if s.recs != nil {
		if err := s.recs.Create(ctx, rec); err != nil {
			s.logger.WarnContext(ctx, "persist recommendation failed",
				slog.String("id", rec.ID),
				slog.String("error", err.Error()),
			)
		}
	}
	s.logAudit(ctx, string(notify.EventRecommendationGenerated), map[string]any{
		"id":       rec.ID,
		"strategy": rec.Strategy,
		"period":   rec.Period,
		"sets":     len(rec.Sets),
		"seed":     fmt.Sprintf("%d", rec.Seed),
	})
}

func (s *AnalysisService) publish(ctx context.Context, rec domain.Recommendation) {
	if s.bus != nil {
		payload, err := json.Marshal(RecommendationEvent{
			Event:          string(notify.EventRecommendationGenerated),
			Recommendation: rec,
		})
		if err == nil {
			err = s.bus.Publish(ctx, domain.ChannelRecommendations, payload)
		}
		if err != nil {
			s.logger.WarnContext(ctx, "publish recommendation failed", slog.String("error", err.Error()))
		}
	}
	if s.notifier != nil {
		title, msg := notify.RecommendationMessage(rec)
		if err := s.notifier.Notify(ctx, notify.EventRecommendationGenerated, title, msg); err != nil {
			s.logger.WarnContext(ctx, "notify failed", slog.String("error", err.Error()))
		}
	}
}

func (s *AnalysisService) logAudit(ctx context.Context, event string, detail map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Log(ctx, event, detail); err != nil {
		s.logger.WarnContext(ctx, "audit log failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}

// resolveSeed keeps seeds within lotto.MaxSeed so they survive a JSON round
// trip through the dashboard; zero draws a fresh one.
func resolveSeed(seed uint64) (uint64, error) {
	if seed > lotto.MaxSeed {
		return 0, fmt.Errorf("service: seed %d above %d: %w", seed, uint64(lotto.MaxSeed), domain.ErrInvalidInput)
	}
	if seed != 0 {
		return seed, nil
	}
	seed, err := lotto.NewSeed()
	if err != nil {
		return 0, fmt.Errorf("service: seed: %w", err)
	}
	return seed, nil
}
