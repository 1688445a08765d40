package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/lottostats/internal/domain"
	"github.com/alanyoungcy/lottostats/internal/notify"
)

// ArchiveResult summarises one archive run.
type ArchiveResult struct {
	Draws           int64
	Recommendations int64
	Cutoff          time.Time
}

// Archiver snapshots draws and exports old recommendations to cold storage.
type Archiver struct {
	blobArchiver  domain.Archiver
	retentionDays int
	notifier      Notifier
	now           func() time.Time
	logger        *slog.Logger
}

// NewArchiver creates a new Archiver. notifier may be nil.
func NewArchiver(blobArchiver domain.Archiver, retentionDays int, notifier Notifier, logger *slog.Logger) *Archiver {
	return &Archiver{
		blobArchiver:  blobArchiver,
		retentionDays: retentionDays,
		notifier:      notifier,
		now:           time.Now,
		logger:        logger.With(slog.String("component", "archiver")),
	}
}

// Run executes a single archive run: a full draw snapshot, then every
// recommendation older than the retention window.
func (a *Archiver) Run(ctx context.Context) (ArchiveResult, error) {
	cutoff := a.now().UTC().AddDate(0, 0, -a.retentionDays)
	a.logger.InfoContext(ctx, "starting archive run",
		slog.Time("cutoff", cutoff),
		slog.Int("retention_days", a.retentionDays),
	)

	res := ArchiveResult{Cutoff: cutoff}
	var err error
	res.Draws, err = a.blobArchiver.ArchiveDraws(ctx)
	if err != nil {
		return res, fmt.Errorf("pipeline: archiving draws: %w", err)
	}
	res.Recommendations, err = a.blobArchiver.ArchiveRecommendations(ctx, cutoff)
	if err != nil {
		return res, fmt.Errorf("pipeline: archiving recommendations before %v: %w", cutoff, err)
	}

	a.logger.InfoContext(ctx, "archive run complete",
		slog.Int64("draws_archived", res.Draws),
		slog.Int64("recommendations_archived", res.Recommendations),
	)
	if a.notifier != nil {
		title, msg := notify.ArchiveMessage(res.Draws, res.Recommendations, cutoff)
		if err := a.notifier.Notify(ctx, notify.EventArchiveCompleted, title, msg); err != nil {
			a.logger.WarnContext(ctx, "notify failed", slog.String("error", err.Error()))
		}
	}
	return res, nil
}
