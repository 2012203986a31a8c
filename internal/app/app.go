// Package app wires configuration into the running services.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"newsweave/internal/collector"
	"newsweave/internal/config"
	"newsweave/internal/digest"
	"newsweave/internal/infrastructure/cache"
	"newsweave/internal/infrastructure/llm"
	"newsweave/internal/infrastructure/scheduler"
	"newsweave/internal/infrastructure/storage"
	"newsweave/internal/ingest"
	"newsweave/internal/logging"
)

// Application owns the ingestion pipeline, the digest aggregator, and
// their schedulers.
type Application struct {
	cfg        config.Config
	logger     *slog.Logger
	db         *storage.DB
	seenCache  *cache.SeenCache
	pipeline   *ingest.Pipeline
	aggregator *digest.Aggregator
	schedulers []*scheduler.IntervalScheduler
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging)
	}

	db, err := storage.Open(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	articles := storage.NewArticleStore(db)
	digests := storage.NewDigestStore(db)
	seenCache := cache.New(cfg.Redis, baseLogger.With("component", "cache"))

	filters, err := ingest.NewDropFilters(cfg.Ingest.Filters)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("compile filters: %w", err)
	}

	registry := collector.NewRegistry()
	for _, site := range cfg.Sites {
		siteLogger := baseLogger.With("component", "collector", "site", site.Name)
		switch site.Collector {
		case "feed":
			registry.Register(collector.NewFeed(site, siteLogger))
		default:
			registry.Register(collector.NewSelector(site, nil, siteLogger))
		}
	}

	coord := ingest.NewCoordinator(ingest.CoordinatorDeps{
		Store:      articles,
		Cache:      seenCache,
		Filters:    filters,
		MaxRetries: cfg.Ingest.Retries(),
		Logger:     baseLogger.With("component", "coordinator"),
	})

	pipeline := ingest.NewPipeline(registry, coord, cfg.Ingest.RequestDelay(),
		baseLogger.With("component", "pipeline"))

	aggregator := digest.NewAggregator(digest.AggregatorDeps{
		Articles:   articles,
		Digests:    digests,
		Summarizer: llm.NewClient(cfg.Summarizer),
		Location:   cfg.Scheduler.Location(),
		Window:     cfg.Digest.WindowSize(),
		Logger:     baseLogger.With("component", "aggregator"),
	})

	return &Application{
		cfg:        cfg,
		logger:     baseLogger,
		db:         db,
		seenCache:  seenCache,
		pipeline:   pipeline,
		aggregator: aggregator,
	}, nil
}

// RunOnce performs a single ingestion pass followed by a digest run.
func (a *Application) RunOnce(ctx context.Context) error {
	if err := a.pipeline.RunOnce(ctx); err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	if err := a.aggregator.Run(ctx); err != nil {
		return fmt.Errorf("digest: %w", err)
	}
	return nil
}

// Start launches the recurring ingest and digest jobs.
func (a *Application) Start(ctx context.Context) error {
	ingestDriver := scheduler.NewInterval(a.cfg.Scheduler.IngestEvery())
	digestDriver := scheduler.NewInterval(a.cfg.Scheduler.DigestEvery())
	a.schedulers = append(a.schedulers, ingestDriver, digestDriver)

	err := ingestDriver.Start(ctx, func(_ time.Time) {
		if err := a.pipeline.RunOnce(ctx); err != nil {
			a.logger.Error("ingest run failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	err = digestDriver.Start(ctx, func(_ time.Time) {
		if err := a.aggregator.Run(ctx); err != nil {
			a.logger.Error("digest run failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	return nil
}

// Stop tears down schedulers and closes connections.
func (a *Application) Stop(ctx context.Context) error {
	for _, s := range a.schedulers {
		_ = s.Stop(ctx)
	}
	if a.seenCache != nil {
		_ = a.seenCache.Close()
	}
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
