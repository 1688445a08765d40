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

// DrawStore implements domain.DrawStore on SQLite.
type DrawStore struct {
	db  *sql.DB
	now func() time.Time
}

// UpsertBatch inserts or replaces draws in one transaction.
func (s *DrawStore) UpsertBatch(ctx context.Context, draws []domain.Draw) error {
	if len(draws) == 0 {
		return nil
	}
	for _, d := range draws {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("sqlite: upsert draws: %w", err)
		}
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin upsert draws: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO draws (round, draw_date, numbers, bonus, collected_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (round) DO UPDATE SET
			draw_date    = excluded.draw_date,
			numbers      = excluded.numbers,
			bonus        = excluded.bonus,
			collected_at = excluded.collected_at`)
	if err != nil {
		return fmt.Errorf("sqlite: prepare upsert draw: %w", err)
	}
	defer stmt.Close()

	collected := toMillis(s.now())
	for _, d := range draws {
		numbers, err := json.Marshal(d.Numbers)
		if err != nil {
			return fmt.Errorf("sqlite: marshal draw %d: %w", d.Round, err)
		}
		if _, err := stmt.ExecContext(ctx, d.Round, d.DateString(), string(numbers), d.Bonus, collected); err != nil {
			return fmt.Errorf("sqlite: upsert draw %d: %w", d.Round, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit draws: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDraw(row rowScanner) (domain.Draw, error) {
	var (
		d       domain.Draw
		date    string
		numbers string
	)
	if err := row.Scan(&d.Round, &date, &numbers, &d.Bonus); err != nil {
		return domain.Draw{}, err
	}
	t, err := time.Parse(domain.DateLayout, date)
	if err != nil {
		return domain.Draw{}, fmt.Errorf("parse date %q: %w", date, err)
	}
	d.Date = t
	if err := json.Unmarshal([]byte(numbers), &d.Numbers); err != nil {
		return domain.Draw{}, fmt.Errorf("unmarshal numbers: %w", err)
	}
	return d, nil
}

// GetByRound returns the draw for round or domain.ErrNotFound.
func (s *DrawStore) GetByRound(ctx context.Context, round int) (domain.Draw, error) {
	d, err := scanDraw(s.db.QueryRowContext(ctx,
		`SELECT round, draw_date, numbers, bonus FROM draws WHERE round = ?`, round))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Draw{}, domain.ErrNotFound
		}
		return domain.Draw{}, fmt.Errorf("sqlite: get draw %d: %w", round, err)
	}
	return d, nil
}

// ListRecent returns up to limit draws, newest round first. A non-positive
// limit returns every draw.
func (s *DrawStore) ListRecent(ctx context.Context, limit int) ([]domain.Draw, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT round, draw_date, numbers, bonus FROM draws ORDER BY round DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list draws: %w", err)
	}
	defer rows.Close()

	var draws []domain.Draw
	for rows.Next() {
		d, err := scanDraw(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan draw: %w", err)
		}
		draws = append(draws, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list draws rows: %w", err)
	}
	return draws, nil
}

// LatestRound returns the highest stored round, or 0 when empty.
func (s *DrawStore) LatestRound(ctx context.Context) (int, error) {
	var round int
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(round), 0) FROM draws`).Scan(&round); err != nil {
		return 0, fmt.Errorf("sqlite: latest round: %w", err)
	}
	return round, nil
}

// Count returns the number of stored draws.
func (s *DrawStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM draws`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: count draws: %w", err)
	}
	return n, nil
}

var _ domain.DrawStore = (*DrawStore)(nil)
