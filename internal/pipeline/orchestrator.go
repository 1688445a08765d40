// Package pipeline runs the background jobs of the full mode: best-effort
// draw collection and cold-storage archiving, each on a cron schedule.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/lottostats/internal/notify"
)

// Schedule pairs a job with its cron spec. An empty spec disables the job.
type Schedule struct {
	Collect string
	Archive string
	// Location is the zone the specs are evaluated in; nil means UTC.
	Location *time.Location
}

// Orchestrator schedules the collector and archiver.
type Orchestrator struct {
	collector *Collector
	archiver  *Archiver
	schedule  Schedule
	notifier  Notifier
	logger    *slog.Logger
}

// NewOrchestrator creates an Orchestrator. collector, archiver and notifier
// may each be nil.
func NewOrchestrator(collector *Collector, archiver *Archiver, schedule Schedule, notifier Notifier, logger *slog.Logger) *Orchestrator {
	if schedule.Location == nil {
		schedule.Location = time.UTC
	}
	return &Orchestrator{
		collector: collector,
		archiver:  archiver,
		schedule:  schedule,
		notifier:  notifier,
		logger:    logger.With(slog.String("component", "orchestrator")),
	}
}

// Run collects once immediately, then runs the scheduled jobs until ctx is
// cancelled. In-flight jobs finish before Run returns.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.logger.InfoContext(ctx, "pipeline orchestrator starting",
		slog.String("collect_schedule", o.schedule.Collect),
		slog.String("archive_schedule", o.schedule.Archive),
	)

	c := cron.New(
		cron.WithLocation(o.schedule.Location),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{o.logger})),
	)
	if o.collector != nil && o.schedule.Collect != "" {
		if _, err := c.AddJob(o.schedule.Collect, o.job(ctx, "collector", o.collect)); err != nil {
			return fmt.Errorf("pipeline: collect schedule %q: %w", o.schedule.Collect, err)
		}
	}
	if o.archiver != nil && o.schedule.Archive != "" {
		if _, err := c.AddJob(o.schedule.Archive, o.job(ctx, "archiver", o.archive)); err != nil {
			return fmt.Errorf("pipeline: archive schedule %q: %w", o.schedule.Archive, err)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	if o.collector != nil {
		g.Go(func() error {
			o.job(ctx, "collector", o.collect).Run()
			return nil
		})
	}
	g.Go(func() error {
		c.Start()
		<-ctx.Done()
		<-c.Stop().Done()
		return nil
	})

	if err := g.Wait(); err != nil {
		o.logger.Error("pipeline orchestrator stopped with error", slog.String("error", err.Error()))
		return err
	}
	o.logger.Info("pipeline orchestrator stopped cleanly")
	return nil
}

func (o *Orchestrator) collect(ctx context.Context) error {
	_, err := o.collector.Run(ctx)
	return err
}

func (o *Orchestrator) archive(ctx context.Context) error {
	_, err := o.archiver.Run(ctx)
	return err
}

// job adapts fn to cron.Job, logging and notifying failures.
func (o *Orchestrator) job(ctx context.Context, name string, fn func(context.Context) error) cron.Job {
	return cron.FuncJob(func() {
		if ctx.Err() != nil {
			return
		}
		if err := fn(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			o.logger.ErrorContext(ctx, "job failed",
				slog.String("job", name),
				slog.String("error", err.Error()),
			)
			if o.notifier != nil {
				title, msg := notify.ErrorMessage(name, err)
				_ = o.notifier.Notify(ctx, notify.EventError, title, msg)
			}
		}
	})
}

// cronLogger routes cron's internal messages through slog.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error(msg, append(keysAndValues, slog.String("error", err.Error()))...)
}
