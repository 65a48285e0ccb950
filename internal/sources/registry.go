// Package sources holds the registry of scrape targets. The registry is an
// immutable value constructed at startup and injected into the services,
// so tests and per-environment deployments can swap the source set without
// touching package-level state.
package sources

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/outfity/trend-radar/internal/model"
)

// ReplaceStrategy controls how a source's scraped batch is persisted.
type ReplaceStrategy string

const (
	// ReplaceUpsert merges each scraped item into the existing row for its
	// dedup triple, bumping updated_at.
	ReplaceUpsert ReplaceStrategy = "upsert"

	// ReplaceFull deletes every existing row for the source's
	// (brand, zone, segment) before inserting the fresh batch.
	ReplaceFull ReplaceStrategy = "full-replace"
)

// SelectorSet holds the CSS selectors used to extract product fields from a
// source's catalog page.
type SelectorSet struct {
	Item        string
	Name        string
	Price       string
	Image       string
	Description string
}

// Source describes one scrape target: a brand catalog in one city/zone/segment.
type Source struct {
	ID         string
	Brand      string
	City       string
	MarketZone model.MarketZone
	Segment    model.Segment
	BaseURL    string
	Path       string
	Strategy   ReplaceStrategy
	Selectors  SelectorSet
}

// URL joins the base URL and path template of the source.
func (s Source) URL() string {
	return strings.TrimRight(s.BaseURL, "/") + s.Path
}

// Registry is an immutable collection of scrape sources.
type Registry struct {
	sources []Source
	byID    map[string]Source
}

// NewRegistry builds a registry from the given sources. IDs must be unique.
func NewRegistry(srcs []Source) (*Registry, error) {
	byID := make(map[string]Source, len(srcs))
	for _, src := range srcs {
		if src.ID == "" {
			return nil, fmt.Errorf("source with empty ID (brand %q)", src.Brand)
		}
		if _, exists := byID[src.ID]; exists {
			return nil, fmt.Errorf("duplicate source ID %q", src.ID)
		}
		if src.Strategy == "" {
			src.Strategy = ReplaceUpsert
		}
		byID[src.ID] = src
	}
	copied := make([]Source, 0, len(srcs))
	for _, src := range srcs {
		copied = append(copied, byID[src.ID])
	}
	return &Registry{sources: copied, byID: byID}, nil
}

// All returns every registered source.
func (r *Registry) All() []Source {
	out := make([]Source, len(r.sources))
	copy(out, r.sources)
	return out
}

// Active returns the sources whose city is in the allowlist. An empty
// allowlist means every source is active.
func (r *Registry) Active(cities []string) []Source {
	if len(cities) == 0 {
		return r.All()
	}
	allowed := make(map[string]bool, len(cities))
	for _, city := range cities {
		allowed[strings.ToLower(city)] = true
	}
	var out []Source
	for _, src := range r.sources {
		if allowed[strings.ToLower(src.City)] {
			out = append(out, src)
		}
	}
	return out
}

// FindByID looks up a source by its ID.
func (r *Registry) FindByID(id string) (Source, bool) {
	src, ok := r.byID[id]
	return src, ok
}

// ByBrand returns every source for a brand (case-insensitive).
func (r *Registry) ByBrand(brand string) []Source {
	var out []Source
	for _, src := range r.sources {
		if strings.EqualFold(src.Brand, brand) {
			out = append(out, src)
		}
	}
	return out
}

// Recognize maps a raw URL to a registered source by host. Returns false for
// URLs from retailers the registry knows nothing about.
func (r *Registry) Recognize(rawURL string) (Source, bool) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return Source{}, false
	}
	host := strings.TrimPrefix(strings.ToLower(parsed.Host), "www.")
	for _, src := range r.sources {
		base, err := url.Parse(src.BaseURL)
		if err != nil {
			continue
		}
		srcHost := strings.TrimPrefix(strings.ToLower(base.Host), "www.")
		if srcHost == host {
			return src, true
		}
	}
	return Source{}, false
}

// defaultSelectors matches the common product-card markup of the retailers
// in the default registry.
var defaultSelectors = SelectorSet{
	Item:        "article.product-card",
	Name:        ".product-card__name",
	Price:       ".product-card__price",
	Image:       "img",
	Description: ".product-card__description",
}

// Default returns the built-in source registry. ASOS runs full-replace:
// its listings rotate completely between scrapes, so stale rows are cleared
// instead of merged.
func Default() *Registry {
	registry, err := NewRegistry([]Source{
		{
			ID: "zara-paris-femme", Brand: "Zara", City: "paris",
			MarketZone: model.ZoneFR, Segment: model.SegmentWomen,
			BaseURL: "https://www.zara.com", Path: "/fr/fr/femme-nouveautes-l1180.html",
			Strategy: ReplaceUpsert, Selectors: defaultSelectors,
		},
		{
			ID: "zara-paris-homme", Brand: "Zara", City: "paris",
			MarketZone: model.ZoneFR, Segment: model.SegmentMen,
			BaseURL: "https://www.zara.com", Path: "/fr/fr/homme-nouveautes-l711.html",
			Strategy: ReplaceUpsert, Selectors: defaultSelectors,
		},
		{
			ID: "asos-london-femme", Brand: "ASOS", City: "london",
			MarketZone: model.ZoneEU, Segment: model.SegmentWomen,
			BaseURL: "https://www.asos.com", Path: "/women/new-in/cat/?cid=27108",
			Strategy: ReplaceFull, Selectors: defaultSelectors,
		},
		{
			ID: "asos-london-homme", Brand: "ASOS", City: "london",
			MarketZone: model.ZoneEU, Segment: model.SegmentMen,
			BaseURL: "https://www.asos.com", Path: "/men/new-in/cat/?cid=27110",
			Strategy: ReplaceFull, Selectors: defaultSelectors,
		},
		{
			ID: "nordstrom-nyc-femme", Brand: "Nordstrom", City: "new-york",
			MarketZone: model.ZoneUS, Segment: model.SegmentWomen,
			BaseURL: "https://www.nordstrom.com", Path: "/browse/women/new",
			Strategy: ReplaceUpsert, Selectors: defaultSelectors,
		},
		{
			ID: "uniqlo-tokyo-homme", Brand: "Uniqlo", City: "tokyo",
			MarketZone: model.ZoneASIA, Segment: model.SegmentMen,
			BaseURL: "https://www.uniqlo.com", Path: "/jp/ja/men/new-arrivals",
			Strategy: ReplaceUpsert, Selectors: defaultSelectors,
		},
	})
	if err != nil {
		// the built-in list is static; a failure here is a programming error
		panic(err)
	}
	return registry
}
