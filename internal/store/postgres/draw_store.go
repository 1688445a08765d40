package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/lottostats/internal/domain"
)

// DrawStore implements domain.DrawStore using PostgreSQL.
type DrawStore struct {
	pool *pgxpool.Pool
}

// NewDrawStore creates a new DrawStore backed by the given connection pool.
func NewDrawStore(pool *pgxpool.Pool) *DrawStore {
	return &DrawStore{pool: pool}
}

const upsertDraw = `
	INSERT INTO draws (round, draw_date, numbers, bonus)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (round) DO UPDATE SET
		draw_date    = EXCLUDED.draw_date,
		numbers      = EXCLUDED.numbers,
		bonus        = EXCLUDED.bonus,
		collected_at = NOW()`

// UpsertBatch inserts or replaces draws in a single batch. Every draw is
// validated first; nothing is written if any is invalid.
func (s *DrawStore) UpsertBatch(ctx context.Context, draws []domain.Draw) error {
	if len(draws) == 0 {
		return nil
	}
	for _, d := range draws {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("postgres: upsert draws: %w", err)
		}
	}

	batch := &pgx.Batch{}
	for _, d := range draws {
		batch.Queue(upsertDraw, d.Round, d.Date, d.Numbers, d.Bonus)
	}
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for _, d := range draws {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: upsert draw %d: %w", d.Round, err)
		}
	}
	return nil
}

const selectDraw = `SELECT round, draw_date, numbers, bonus FROM draws`

func scanDraw(row pgx.Row) (domain.Draw, error) {
	var d domain.Draw
	if err := row.Scan(&d.Round, &d.Date, &d.Numbers, &d.Bonus); err != nil {
		return domain.Draw{}, err
	}
	d.Date = domain.CalendarDate(d.Date)
	return d, nil
}

// GetByRound returns the draw for round or domain.ErrNotFound.
func (s *DrawStore) GetByRound(ctx context.Context, round int) (domain.Draw, error) {
	d, err := scanDraw(s.pool.QueryRow(ctx, selectDraw+` WHERE round = $1`, round))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Draw{}, domain.ErrNotFound
		}
		return domain.Draw{}, fmt.Errorf("postgres: get draw %d: %w", round, err)
	}
	return d, nil
}

// ListRecent returns up to limit draws, newest round first. A non-positive
// limit returns every draw.
func (s *DrawStore) ListRecent(ctx context.Context, limit int) ([]domain.Draw, error) {
	query := selectDraw + ` ORDER BY round DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list draws: %w", err)
	}
	defer rows.Close()

	var draws []domain.Draw
	for rows.Next() {
		d, err := scanDraw(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan draw: %w", err)
		}
		draws = append(draws, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list draws rows: %w", err)
	}
	return draws, nil
}

// LatestRound returns the highest stored round, or 0 when empty.
func (s *DrawStore) LatestRound(ctx context.Context) (int, error) {
	var round int
	if err := s.pool.QueryRow(ctx, `SELECT COALESCE(MAX(round), 0) FROM draws`).Scan(&round); err != nil {
		return 0, fmt.Errorf("postgres: latest round: %w", err)
	}
	return round, nil
}

// Count returns the number of stored draws.
func (s *DrawStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM draws`).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count draws: %w", err)
	}
	return n, nil
}

// Compile-time interface check.
var _ domain.DrawStore = (*DrawStore)(nil)
