package domain

import (
	"context"
	"time"
)

// AnalysisCache is a shared second-level memo for analyses and
// recommendations. Entries are partitioned by scope, an identity of the draw
// history they were computed from, so instances on different histories never
// read each other's results. Misses return ErrNotFound.
type AnalysisCache interface {
	GetAnalysis(ctx context.Context, scope string, period int) (Analysis, error)
	SetAnalysis(ctx context.Context, scope string, period int, a Analysis) error
	GetRecommendation(ctx context.Context, scope string, period int, strategy string) (Recommendation, error)
	SetRecommendation(ctx context.Context, scope string, period int, rec Recommendation) error
	// Invalidate drops the analysis and every recommendation for period in
	// every scope.
	Invalidate(ctx context.Context, period int) error
	InvalidateAll(ctx context.Context) error
}

// RateLimiter provides distributed rate limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// LockManager provides distributed locking.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// SignalBus provides pub/sub between instances and WebSocket clients.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// Bus channels.
const (
	ChannelRecommendations = "recommendations"
	ChannelDraws           = "draws"
)
