// Package scraper fetches and normalizes product listings from retailer
// catalog pages. Each Scraper implementation handles a family of sources;
// the Registry picks the right one per source.
package scraper

import (
	"context"

	"github.com/outfity/trend-radar/internal/sources"
)

// Item is a normalized product record as extracted from one catalog page.
// Optional fields stay nil when the source does not expose them.
type Item struct {
	Name        string
	Brand       string
	Category    string
	Material    string
	Price       float64
	ImageURL    string
	Description string
	SourceURL   string

	TrendGrowthPercent *float64
	TrendLabel         *string

	Composition      *string
	CareInstructions *string
	Color            *string
	Sizes            *string
	OriginCountry    *string
	ArticleNumber    *string
	MarkdownPercent  *float64
	StockOutRisk     *string
}

// Scraper fetches normalized items for one source.
type Scraper interface {
	CanHandle(src sources.Source) bool
	Fetch(ctx context.Context, src sources.Source) ([]Item, error)
}

// Registry keeps the available scrapers and picks one per source.
type Registry struct {
	scrapers []Scraper
}

// NewRegistry creates a scraper registry.
func NewRegistry(scrapers ...Scraper) *Registry {
	return &Registry{scrapers: scrapers}
}

// FindScraper returns the first scraper that can handle the source, or nil.
func (r *Registry) FindScraper(src sources.Source) Scraper {
	for _, s := range r.scrapers {
		if s.CanHandle(src) {
			return s
		}
	}
	return nil
}
