// Package collector defines the capability every publisher integration
// exposes to the ingestion pipeline: list sections, fetch one section.
// The pipeline never depends on a concrete collector type.
package collector

import (
	"context"

	"newsweave/internal/domain"
)

// Section is a publisher URL path mapped to a canonical category.
type Section struct {
	Name     string
	URL      string
	Category string
}

// Collector produces raw article records for one publisher.
type Collector interface {
	Name() string
	ListSections() []Section
	FetchSection(ctx context.Context, section Section) ([]domain.RawArticle, error)
}

// Registry keeps the collectors built from site configuration.
type Registry struct {
	collectors []Collector
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a collector.
func (r *Registry) Register(c Collector) {
	if c != nil {
		r.collectors = append(r.collectors, c)
	}
}

// All returns the registered collectors in registration order.
func (r *Registry) All() []Collector {
	return r.collectors
}
