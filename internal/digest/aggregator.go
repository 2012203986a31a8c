// Package digest builds the per-category daily summaries. At most one
// digest exists per category per calendar day; the day is computed in the
// aggregator's configured location and the store's unique
// (category, dayBucket) constraint is the authoritative guard.
package digest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"newsweave/internal/domain"
	"newsweave/internal/ports"
)

const dayBucketFormat = "2006-01-02"

// sectionExpr splits the collaborator's free text on top-level
// numbered-list markers.
var sectionExpr = regexp.MustCompile(`\d+\.`)

// AggregatorDeps wires the driven adapters into the aggregator.
type AggregatorDeps struct {
	Articles   ports.ArticleStore
	Digests    ports.DigestStore
	Summarizer ports.Summarizer
	Location   *time.Location
	Window     int
	Logger     *slog.Logger
}

// Aggregator produces one digest per category per day.
type Aggregator struct {
	articles   ports.ArticleStore
	digests    ports.DigestStore
	summarizer ports.Summarizer
	loc        *time.Location
	window     int
	logger     *slog.Logger
	now        func() time.Time
}

// NewAggregator constructs the aggregator.
func NewAggregator(deps AggregatorDeps) *Aggregator {
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	window := deps.Window
	if window <= 0 {
		window = 25
	}
	return &Aggregator{
		articles:   deps.Articles,
		digests:    deps.Digests,
		summarizer: deps.Summarizer,
		loc:        loc,
		window:     window,
		logger:     deps.Logger,
		now:        time.Now,
	}
}

// Run builds digests for every category in the store. One category's
// summarization failure never aborts the batch; store unavailability does.
func (a *Aggregator) Run(ctx context.Context) error {
	categories, err := a.articles.Categories(ctx)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}

	for _, category := range categories {
		outcome, err := a.BuildDigest(ctx, category)
		switch {
		case errors.Is(err, ports.ErrSummarization):
			a.warn("digest failed", "category", category, "error", err)
		case err != nil:
			return fmt.Errorf("category %s: %w", category, err)
		case outcome.Created:
			a.info("digest created", "category", category,
				"articles", len(outcome.Digest.SerialNumbers))
		default:
			a.debug("digest skipped", "category", category)
		}
	}

	return nil
}

// BuildDigest produces today's digest for one category. Called twice on
// the same calendar day, the second call reports Created=false and leaves
// the store unchanged.
func (a *Aggregator) BuildDigest(ctx context.Context, category string) (domain.DigestOutcome, error) {
	now := a.now().In(a.loc)
	bucket := now.Format(dayBucketFormat)

	existing, err := a.digests.FindByDay(ctx, category, bucket)
	if err != nil {
		return domain.DigestOutcome{}, fmt.Errorf("same-day check: %w", err)
	}
	if existing != nil {
		return domain.DigestOutcome{Digest: existing}, nil
	}

	population, err := a.articles.TopArticles(ctx, category, a.window)
	if err != nil {
		return domain.DigestOutcome{}, fmt.Errorf("load window: %w", err)
	}
	if len(population) == 0 {
		return domain.DigestOutcome{}, nil
	}

	output, err := a.summarizer.Complete(ctx, buildPrompt(population))
	if err != nil {
		if errors.Is(err, ports.ErrSummarization) {
			return domain.DigestOutcome{}, err
		}
		return domain.DigestOutcome{}, fmt.Errorf("%w: %v", ports.ErrSummarization, err)
	}

	keyInsights, comprehensiveSummary := parseSections(output)

	record := domain.Digest{
		ID:                   uuid.NewString(),
		Category:             category,
		Timestamp:            now,
		KeyInsights:          keyInsights,
		ComprehensiveSummary: comprehensiveSummary,
		SerialNumbers:        serialNumbers(population),
		DayBucket:            bucket,
	}

	if err := a.digests.Insert(ctx, record); err != nil {
		// Lost the race against a concurrent aggregation for the same
		// category and day; their digest stands.
		if errors.Is(err, ports.ErrDuplicateKey) {
			winner, findErr := a.digests.FindByDay(ctx, category, bucket)
			if findErr != nil {
				return domain.DigestOutcome{}, fmt.Errorf("reload after race: %w", findErr)
			}
			return domain.DigestOutcome{Digest: winner}, nil
		}
		return domain.DigestOutcome{}, fmt.Errorf("persist digest: %w", err)
	}

	return domain.DigestOutcome{Digest: &record, Created: true}, nil
}

// buildPrompt formats the population the way the collaborator expects:
// an indexed list of titles and summaries it can cite as [Article X].
func buildPrompt(articles []domain.Article) string {
	var b strings.Builder
	b.WriteString("Please analyze these articles and provide:\n")
	b.WriteString("1. Key insights and trends across all articles\n")
	b.WriteString("2. A comprehensive summary of the main topics covered\n\n")
	b.WriteString("IMPORTANT: For each insight or point you make, please cite the ")
	b.WriteString("specific article(s) you're referencing using [Article X] format. ")
	b.WriteString("Only make claims that are directly supported by the provided articles.\n\n")
	b.WriteString("Here are the articles:\n\n")

	for i, article := range articles {
		fmt.Fprintf(&b, "[Article %d]\nTitle: %s\nSummary: %s\n\n",
			i+1, article.Title, article.Summary)
	}

	return b.String()
}

// parseSections splits the response on numbered-list markers. A response
// without the expected sections yields empty strings, never an error: a
// digest with blank text still records which articles were covered today.
func parseSections(output string) (keyInsights, comprehensiveSummary string) {
	sections := sectionExpr.Split(output, -1)
	if len(sections) > 1 {
		keyInsights = strings.TrimSpace(sections[1])
	}
	if len(sections) > 2 {
		comprehensiveSummary = strings.TrimSpace(sections[2])
	}
	return keyInsights, comprehensiveSummary
}

func serialNumbers(articles []domain.Article) []int {
	serials := make([]int, 0, len(articles))
	for _, article := range articles {
		serials = append(serials, article.SerialNumber)
	}
	return serials
}

func (a *Aggregator) info(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Info(msg, args...)
	}
}

func (a *Aggregator) warn(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Warn(msg, args...)
	}
}

func (a *Aggregator) debug(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}
