package collector

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"newsweave/internal/config"
	"newsweave/internal/domain"
	"newsweave/internal/hash"
)

// SelectorCollector scrapes a publisher's section pages with configured
// CSS selectors. One instance per site; the selector set is the only
// thing that varies between publishers.
type SelectorCollector struct {
	name      string
	sections  []Section
	selectors config.SelectorConfig
	client    *http.Client
	logger    *slog.Logger
}

var _ Collector = (*SelectorCollector)(nil)

// NewSelector builds a collector from site configuration.
func NewSelector(site config.SiteConfig, client *http.Client, logger *slog.Logger) *SelectorCollector {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &SelectorCollector{
		name:      site.Name,
		sections:  toSections(site.Sections),
		selectors: site.Selectors,
		client:    client,
		logger:    logger,
	}
}

// Name identifies the publisher.
func (c *SelectorCollector) Name() string {
	return c.name
}

// ListSections returns the configured section endpoints.
func (c *SelectorCollector) ListSections() []Section {
	return c.sections
}

// FetchSection loads the section page and extracts one raw article per
// matched element. Records without a title or link are dropped here,
// before they ever reach the coordinator.
func (c *SelectorCollector) FetchSection(ctx context.Context, section Section) ([]domain.RawArticle, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, section.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("section %s: new request: %w", section.Name, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("section %s: fetch: %w", section.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("section %s: unexpected status %s", section.Name, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("section %s: parse html: %w", section.Name, err)
	}

	var articles []domain.RawArticle
	doc.Find(c.selectors.Article).Each(func(_ int, el *goquery.Selection) {
		title := strings.TrimSpace(el.Find(c.selectors.Title).First().Text())
		link := firstAttr(el.Find(c.selectors.Link).First(), "href")
		if title == "" || link == "" {
			return
		}

		articles = append(articles, domain.RawArticle{
			ID:       hash.Article(title),
			Title:    title,
			Summary:  strings.TrimSpace(el.Find(c.selectors.Summary).First().Text()),
			Link:     absoluteURL(section.URL, link),
			Image:    firstAttr(el.Find(c.selectors.Image).First(), "src", "data-src"),
			Category: section.Category,
			Source:   c.name,
		})
	})

	c.debug("section scraped", "site", c.name, "section", section.Name, "count", len(articles))
	return articles, nil
}

func firstAttr(sel *goquery.Selection, names ...string) string {
	for _, name := range names {
		if value, ok := sel.Attr(name); ok && value != "" {
			return value
		}
	}
	return ""
}

func absoluteURL(base, href string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(ref).String()
}

func toSections(cfg []config.SectionConfig) []Section {
	sections := make([]Section, 0, len(cfg))
	for _, s := range cfg {
		category := s.Category
		if category == "" {
			category = "Uncategorized"
		}
		sections = append(sections, Section{Name: s.Name, URL: s.URL, Category: category})
	}
	return sections
}

func (c *SelectorCollector) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
