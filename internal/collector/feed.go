package collector

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mmcdole/gofeed"

	"newsweave/internal/config"
	"newsweave/internal/domain"
	"newsweave/internal/hash"
)

// FeedCollector pulls a publisher's RSS/Atom feeds. Section URLs point at
// feed endpoints instead of HTML pages.
type FeedCollector struct {
	name     string
	sections []Section
	parser   *gofeed.Parser
	logger   *slog.Logger
}

var _ Collector = (*FeedCollector)(nil)

// NewFeed builds a collector from site configuration.
func NewFeed(site config.SiteConfig, logger *slog.Logger) *FeedCollector {
	return &FeedCollector{
		name:     site.Name,
		sections: toSections(site.Sections),
		parser:   gofeed.NewParser(),
		logger:   logger,
	}
}

// Name identifies the publisher.
func (c *FeedCollector) Name() string {
	return c.name
}

// ListSections returns the configured feed endpoints.
func (c *FeedCollector) ListSections() []Section {
	return c.sections
}

// FetchSection parses the feed and maps each item to a raw article.
func (c *FeedCollector) FetchSection(ctx context.Context, section Section) ([]domain.RawArticle, error) {
	feed, err := c.parser.ParseURLWithContext(section.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("section %s: parse feed: %w", section.Name, err)
	}

	var articles []domain.RawArticle
	for _, item := range feed.Items {
		title := strings.TrimSpace(item.Title)
		if title == "" || item.Link == "" {
			continue
		}

		articles = append(articles, domain.RawArticle{
			ID:       hash.Article(title),
			Title:    title,
			Summary:  strings.TrimSpace(item.Description),
			Link:     item.Link,
			Image:    itemImage(item),
			Category: section.Category,
			Source:   c.name,
		})
	}

	c.debug("feed parsed", "site", c.name, "section", section.Name, "count", len(articles))
	return articles, nil
}

func itemImage(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if strings.HasPrefix(enc.Type, "image/") && enc.URL != "" {
			return enc.URL
		}
	}
	return ""
}

func (c *FeedCollector) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
