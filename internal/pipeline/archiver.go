package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// EventArchiver exports old trade events to cold storage.
type EventArchiver interface {
	ArchiveEvents(ctx context.Context) (int64, error)
}

// Archiver schedules archive runs.
type Archiver struct {
	archiver EventArchiver
	logger   *slog.Logger
}

// NewArchiver creates an Archiver.
func NewArchiver(archiver EventArchiver, logger *slog.Logger) *Archiver {
	return &Archiver{
		archiver: archiver,
		logger:   logger,
	}
}

// Run executes a single archive run.
func (a *Archiver) Run(ctx context.Context) error {
	started := time.Now()
	n, err := a.archiver.ArchiveEvents(ctx)
	if err != nil {
		return fmt.Errorf("archiver: %w", err)
	}
	a.logger.InfoContext(ctx, "archiver: run complete",
		slog.Int64("events_archived", n),
		slog.Duration("took", time.Since(started)),
	)
	return nil
}

// RunCron runs the archiver on a five-field cron schedule (UTC) until ctx is
// cancelled, e.g. "0 3 * * *" for 03:00 daily.
func (a *Archiver) RunCron(ctx context.Context, cronExpr string) error {
	a.logger.Info("archiver: cron started", slog.String("cron", cronExpr))

	for {
		next, err := nextCronTime(cronExpr, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("archiver: %w", err)
		}

		waitDuration := time.Until(next)
		a.logger.Debug("archiver: waiting for next run",
			slog.Time("next_run", next),
			slog.Duration("wait", waitDuration),
		)

		timer := time.NewTimer(waitDuration)
		select {
		case <-ctx.Done():
			timer.Stop()
			a.logger.Info("archiver: cron stopped")
			return ctx.Err()
		case <-timer.C:
			if err := a.Run(ctx); err != nil {
				a.logger.Error("archiver: run failed", slog.String("error", err.Error()))
			}
		}
	}
}
