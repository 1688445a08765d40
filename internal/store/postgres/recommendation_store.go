package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/lottostats/internal/domain"
)

// RecommendationStore implements domain.RecommendationStore using PostgreSQL.
type RecommendationStore struct {
	pool *pgxpool.Pool
}

// NewRecommendationStore creates a new RecommendationStore backed by the given
// connection pool.
func NewRecommendationStore(pool *pgxpool.Pool) *RecommendationStore {
	return &RecommendationStore{pool: pool}
}

// uniqueViolation is the SQLSTATE for a duplicate key.
const uniqueViolation = "23505"

// Create inserts rec. A duplicate ID returns domain.ErrAlreadyExists.
func (s *RecommendationStore) Create(ctx context.Context, rec domain.Recommendation) error {
	sets, err := json.Marshal(rec.Sets)
	if err != nil {
		return fmt.Errorf("postgres: marshal sets %s: %w", rec.ID, err)
	}
	const query = `
		INSERT INTO recommendations (id, strategy, period, mode, seed, sets, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err = s.pool.Exec(ctx, query,
		rec.ID, rec.Strategy, rec.Period, rec.Mode, int64(rec.Seed), sets, rec.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("postgres: recommendation %s: %w", rec.ID, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("postgres: create recommendation %s: %w", rec.ID, err)
	}
	return nil
}

const selectRecommendation = `SELECT id, strategy, period, mode, seed, sets, created_at FROM recommendations`

func scanRecommendation(row pgx.Row) (domain.Recommendation, error) {
	var rec domain.Recommendation
	var seed int64
	var sets []byte
	if err := row.Scan(&rec.ID, &rec.Strategy, &rec.Period, &rec.Mode, &seed, &sets, &rec.CreatedAt); err != nil {
		return domain.Recommendation{}, err
	}
	rec.Seed = uint64(seed)
	if err := json.Unmarshal(sets, &rec.Sets); err != nil {
		return domain.Recommendation{}, fmt.Errorf("unmarshal sets: %w", err)
	}
	return rec, nil
}

// GetByID returns the recommendation with id or domain.ErrNotFound.
func (s *RecommendationStore) GetByID(ctx context.Context, id string) (domain.Recommendation, error) {
	rec, err := scanRecommendation(s.pool.QueryRow(ctx, selectRecommendation+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Recommendation{}, domain.ErrNotFound
		}
		return domain.Recommendation{}, fmt.Errorf("postgres: get recommendation %s: %w", id, err)
	}
	return rec, nil
}

// ListRecent returns up to limit recommendations, newest first.
func (s *RecommendationStore) ListRecent(ctx context.Context, limit int) ([]domain.Recommendation, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.list(ctx, selectRecommendation+` ORDER BY created_at DESC LIMIT $1`, limit)
}

// ListBefore returns every recommendation created before t, oldest first.
func (s *RecommendationStore) ListBefore(ctx context.Context, before time.Time) ([]domain.Recommendation, error) {
	return s.list(ctx, selectRecommendation+` WHERE created_at < $1 ORDER BY created_at`, before)
}

func (s *RecommendationStore) list(ctx context.Context, query string, args ...any) ([]domain.Recommendation, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recommendations: %w", err)
	}
	defer rows.Close()

	var recs []domain.Recommendation
	for rows.Next() {
		rec, err := scanRecommendation(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan recommendation: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list recommendations rows: %w", err)
	}
	return recs, nil
}

// Compile-time interface check.
var _ domain.RecommendationStore = (*RecommendationStore)(nil)
