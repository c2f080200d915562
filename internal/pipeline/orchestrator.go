package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Orchestrator runs the indexer loop and the archive schedule together.
type Orchestrator struct {
	indexer       *Indexer
	archiver      *Archiver
	indexInterval time.Duration
	archiveCron   string
	logger        *slog.Logger
}

// NewOrchestrator creates an Orchestrator. archiver may be nil when cold
// storage is not configured.
func NewOrchestrator(
	indexer *Indexer,
	archiver *Archiver,
	indexInterval time.Duration,
	archiveCron string,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		indexer:       indexer,
		archiver:      archiver,
		indexInterval: indexInterval,
		archiveCron:   archiveCron,
		logger:        logger,
	}
}

// Run blocks until ctx is cancelled or a loop fails.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.logger.Info("pipeline: starting",
		slog.Duration("index_interval", o.indexInterval),
		slog.String("archive_cron", o.archiveCron),
		slog.Bool("archive_enabled", o.archiver != nil),
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := o.indexer.RunLoop(ctx, o.indexInterval)
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("indexer: %w", err)
	})

	if o.archiver != nil {
		g.Go(func() error {
			err := o.archiver.RunCron(ctx, o.archiveCron)
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("archiver: %w", err)
		})
	}

	if err := g.Wait(); err != nil {
		o.logger.Error("pipeline: stopped with error", slog.String("error", err.Error()))
		return err
	}
	o.logger.Info("pipeline: stopped")
	return nil
}
