package ingest

import (
	"fmt"
	"regexp"

	"newsweave/internal/config"
	"newsweave/internal/domain"
)

// DropFilter rejects records before insert. It replaces the old pattern
// of periodically deleting already-stored rows (e.g. a source's
// default-image stubs), which left serial-number gaps behind.
type DropFilter struct {
	source  string
	pattern *regexp.Regexp
}

// NewDropFilters compiles the configured filters.
func NewDropFilters(cfgs []config.FilterConfig) ([]DropFilter, error) {
	filters := make([]DropFilter, 0, len(cfgs))
	for _, cfg := range cfgs {
		if cfg.ImagePattern == "" {
			continue
		}
		pattern, err := regexp.Compile(cfg.ImagePattern)
		if err != nil {
			return nil, fmt.Errorf("filter for source %q: %w", cfg.Source, err)
		}
		filters = append(filters, DropFilter{source: cfg.Source, pattern: pattern})
	}
	return filters, nil
}

// Drops reports whether the record should be rejected. An empty source
// matches every source.
func (f DropFilter) Drops(raw domain.RawArticle) bool {
	if f.source != "" && f.source != raw.Source {
		return false
	}
	return f.pattern.MatchString(raw.Image)
}
