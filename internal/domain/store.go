package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// DrawStore persists collected draw results.
type DrawStore interface {
	UpsertBatch(ctx context.Context, draws []Draw) error
	GetByRound(ctx context.Context, round int) (Draw, error)
	// ListRecent returns up to limit draws, newest round first.
	ListRecent(ctx context.Context, limit int) ([]Draw, error)
	// LatestRound returns 0 when the store is empty.
	LatestRound(ctx context.Context) (int, error)
	Count(ctx context.Context) (int64, error)
}

// RecommendationStore persists generated recommendations.
type RecommendationStore interface {
	Create(ctx context.Context, rec Recommendation) error
	GetByID(ctx context.Context, id string) (Recommendation, error)
	ListRecent(ctx context.Context, limit int) ([]Recommendation, error)
	ListBefore(ctx context.Context, before time.Time) ([]Recommendation, error)
}

// AuditEntry is a single audit log row.
type AuditEntry struct {
	ID        int64          `json:"id"`
	Event     string         `json:"event"`
	Detail    map[string]any `json:"detail"`
	CreatedAt time.Time      `json:"created_at"`
}

// AuditStore persists an append-only audit log.
type AuditStore interface {
	Log(ctx context.Context, event string, detail map[string]any) error
	List(ctx context.Context, opts ListOpts) ([]AuditEntry, error)
}
