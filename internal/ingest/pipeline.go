package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"newsweave/internal/collector"
	"newsweave/internal/ports"
)

// Pipeline walks every registered collector and hands its raw articles to
// the coordinator. Failures of one section or one record are contained;
// only store unavailability aborts the run.
type Pipeline struct {
	registry *collector.Registry
	coord    *Coordinator
	delay    time.Duration
	logger   *slog.Logger
}

// NewPipeline constructs the ingestion workflow.
func NewPipeline(registry *collector.Registry, coord *Coordinator, delay time.Duration, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		registry: registry,
		coord:    coord,
		delay:    delay,
		logger:   logger,
	}
}

// RunOnce performs a full collection pass.
func (p *Pipeline) RunOnce(ctx context.Context) error {
	if p.registry == nil || p.coord == nil {
		return nil
	}

	for _, col := range p.registry.All() {
		if err := p.runCollector(ctx, col); err != nil {
			return fmt.Errorf("collector %s: %w", col.Name(), err)
		}
	}

	return nil
}

func (p *Pipeline) runCollector(ctx context.Context, col collector.Collector) error {
	for i, section := range col.ListSections() {
		if i > 0 && p.delay > 0 {
			select {
			case <-time.After(p.delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		raws, err := col.FetchSection(ctx, section)
		if err != nil {
			p.warn("section fetch failed", "site", col.Name(), "section", section.Name, "error", err)
			continue
		}

		saved := 0
		for _, raw := range raws {
			result, err := p.coord.Ingest(ctx, raw)
			switch {
			case errors.Is(err, ports.ErrValidation):
				p.debug("record rejected", "site", col.Name(), "error", err)
			case errors.Is(err, ports.ErrTransient):
				p.warn("record not committed", "site", col.Name(), "title", raw.Title, "error", err)
			case err != nil:
				return err
			case result.Dropped || result.Skipped:
				p.debug("record skipped", "site", col.Name(), "id", raw.ID,
					"dropped", result.Dropped, "serial", result.SerialNumber)
			default:
				saved++
			}
		}

		p.info("section ingested", "site", col.Name(), "section", section.Name,
			"fetched", len(raws), "saved", saved)
	}

	return nil
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}

func (p *Pipeline) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}
