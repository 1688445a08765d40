package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alanyoungcy/lottostats/internal/domain"
)

// RecommendationStore implements domain.RecommendationStore on SQLite.
type RecommendationStore struct {
	db *sql.DB
}

// Create inserts rec. A duplicate ID returns domain.ErrAlreadyExists.
func (s *RecommendationStore) Create(ctx context.Context, rec domain.Recommendation) error {
	sets, err := json.Marshal(rec.Sets)
	if err != nil {
		return fmt.Errorf("sqlite: marshal sets %s: %w", rec.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO recommendations (id, strategy, period, mode, seed, sets, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Strategy, rec.Period, rec.Mode, int64(rec.Seed), string(sets), toMillis(rec.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("sqlite: recommendation %s: %w", rec.ID, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("sqlite: create recommendation %s: %w", rec.ID, err)
	}
	return nil
}

const selectRecommendation = `SELECT id, strategy, period, mode, seed, sets, created_at FROM recommendations`

func scanRecommendation(row rowScanner) (domain.Recommendation, error) {
	var (
		rec     domain.Recommendation
		seed    int64
		sets    string
		created int64
	)
	if err := row.Scan(&rec.ID, &rec.Strategy, &rec.Period, &rec.Mode, &seed, &sets, &created); err != nil {
		return domain.Recommendation{}, err
	}
	rec.Seed = uint64(seed)
	rec.CreatedAt = fromMillis(created)
	if err := json.Unmarshal([]byte(sets), &rec.Sets); err != nil {
		return domain.Recommendation{}, fmt.Errorf("unmarshal sets: %w", err)
	}
	return rec, nil
}

// GetByID returns the recommendation with id or domain.ErrNotFound.
func (s *RecommendationStore) GetByID(ctx context.Context, id string) (domain.Recommendation, error) {
	rec, err := scanRecommendation(s.db.QueryRowContext(ctx, selectRecommendation+` WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Recommendation{}, domain.ErrNotFound
		}
		return domain.Recommendation{}, fmt.Errorf("sqlite: get recommendation %s: %w", id, err)
	}
	return rec, nil
}

// ListRecent returns up to limit recommendations, newest first.
func (s *RecommendationStore) ListRecent(ctx context.Context, limit int) ([]domain.Recommendation, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.list(ctx, selectRecommendation+` ORDER BY created_at DESC, id LIMIT ?`, limit)
}

// ListBefore returns every recommendation created before t, oldest first.
func (s *RecommendationStore) ListBefore(ctx context.Context, before time.Time) ([]domain.Recommendation, error) {
	return s.list(ctx, selectRecommendation+` WHERE created_at < ? ORDER BY created_at, id`, toMillis(before))
}

func (s *RecommendationStore) list(ctx context.Context, query string, args ...any) ([]domain.Recommendation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list recommendations: %w", err)
	}
	defer rows.Close()

	var recs []domain.Recommendation
	for rows.Next() {
		rec, err := scanRecommendation(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan recommendation: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list recommendations rows: %w", err)
	}
	return recs, nil
}

var _ domain.RecommendationStore = (*RecommendationStore)(nil)
