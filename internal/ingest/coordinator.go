// Package ingest turns raw collector output into committed article
// records with stable identifiers and gap-free per-category serial
// numbers.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"newsweave/internal/domain"
	"newsweave/internal/hash"
	"newsweave/internal/ports"
)

// Placeholder values written when a collector could not extract the field.
const (
	PlaceholderSummary = "No summary available."
	PlaceholderImage   = "https://placehold.co/600x400?text=Newsweave"
)

const fallbackCategory = "Uncategorized"

// CoordinatorDeps wires the driven adapters into the coordinator.
type CoordinatorDeps struct {
	Store      ports.ArticleStore
	Cache      ports.SeenCache
	Filters    []DropFilter
	MaxRetries int
	Logger     *slog.Logger
}

// Coordinator deduplicates raw articles against the store and assigns
// serial numbers. Safe under concurrent calls: correctness comes from the
// store's (category, serialNumber) uniqueness constraint plus the bounded
// retry loop, not from any in-process lock or counter.
//
// The find-then-insert sequence has a benign race: two concurrent first
// ingestions of the same title can both miss the lookup and insert twice
// with different serial numbers, since id carries no uniqueness
// constraint. Accepted as non-fatal duplication.
type Coordinator struct {
	store      ports.ArticleStore
	cache      ports.SeenCache
	filters    []DropFilter
	maxRetries int
	logger     *slog.Logger
	now        func() time.Time
}

// NewCoordinator constructs the coordinator.
func NewCoordinator(deps CoordinatorDeps) *Coordinator {
	retries := deps.MaxRetries
	if retries <= 0 {
		retries = 5
	}
	return &Coordinator{
		store:      deps.Store,
		cache:      deps.Cache,
		filters:    deps.Filters,
		maxRetries: retries,
		logger:     deps.Logger,
		now:        time.Now,
	}
}

// Ingest commits one raw article. Re-ingestion of a known identifier is a
// no-op returning the existing serial number. A failed insert never
// consumes a serial number; the candidate is re-read from committed state
// on every retry.
func (c *Coordinator) Ingest(ctx context.Context, raw domain.RawArticle) (domain.IngestResult, error) {
	title := strings.TrimSpace(raw.Title)
	if title == "" {
		return domain.IngestResult{}, fmt.Errorf("%w: empty title", ports.ErrValidation)
	}

	// The incoming id is authoritative when present: the collector hashed
	// the title exactly as scraped, and recomputing here from a
	// normalized copy could miss the original insertion.
	id := raw.ID
	if id == "" {
		id = hash.Article(raw.Title)
	}

	if c.cache != nil {
		if serial, ok := c.cache.Lookup(ctx, id); ok {
			return domain.IngestResult{SerialNumber: serial, Skipped: true}, nil
		}
	}

	existing, err := c.store.FindByID(ctx, id)
	if err != nil {
		return domain.IngestResult{}, fmt.Errorf("lookup %s: %w", id, err)
	}
	if existing != nil {
		c.remember(ctx, id, existing.SerialNumber)
		return domain.IngestResult{SerialNumber: existing.SerialNumber, Skipped: true}, nil
	}

	for _, filter := range c.filters {
		if filter.Drops(raw) {
			c.debug("record dropped by filter", "id", id, "source", raw.Source, "image", raw.Image)
			return domain.IngestResult{Dropped: true}, nil
		}
	}

	article := c.normalize(raw, id, title)

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		serial, err := c.store.NextSerial(ctx, article.Category)
		if err != nil {
			return domain.IngestResult{}, fmt.Errorf("next serial for %s: %w", article.Category, err)
		}

		article.SerialNumber = serial
		article.CreatedAt = c.now()

		err = c.store.Insert(ctx, article)
		if err == nil {
			c.remember(ctx, id, serial)
			return domain.IngestResult{SerialNumber: serial}, nil
		}
		if !errors.Is(err, ports.ErrDuplicateKey) {
			return domain.IngestResult{}, err
		}

		c.debug("serial number claimed concurrently, retrying",
			"category", article.Category, "serial", serial, "attempt", attempt+1)
	}

	return domain.IngestResult{}, fmt.Errorf(
		"%w: insert retries exhausted for category %s", ports.ErrTransient, raw.Category)
}

func (c *Coordinator) normalize(raw domain.RawArticle, id, title string) domain.Article {
	summary := strings.TrimSpace(raw.Summary)
	if summary == "" {
		summary = PlaceholderSummary
	}

	image := raw.Image
	if image == "" {
		image = PlaceholderImage
	}

	category := raw.Category
	if category == "" {
		category = fallbackCategory
	}

	return domain.Article{
		ID:       id,
		Title:    title,
		Summary:  summary,
		Link:     raw.Link,
		Image:    image,
		Category: category,
		Source:   raw.Source,
	}
}

func (c *Coordinator) remember(ctx context.Context, id string, serial int) {
	if c.cache != nil {
		c.cache.Store(ctx, id, serial)
	}
}

func (c *Coordinator) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
