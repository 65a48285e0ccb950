package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/outfity/trend-radar/internal/metrics"
	"github.com/outfity/trend-radar/internal/model"
	"github.com/outfity/trend-radar/internal/scoring"
	"github.com/outfity/trend-radar/internal/scraper"
	"github.com/outfity/trend-radar/internal/sources"
)

// ErrUnknownSource is returned when a scrape request references a source the
// registry does not know. The HTTP layer maps it to a 400.
var ErrUnknownSource = errors.New("unknown source")

// TrendWriter persists scraped products together with their outbox events.
type TrendWriter interface {
	UpsertProductWithEvent(ctx context.Context, product *model.TrendProduct) (bool, error)
	DeleteBySource(ctx context.Context, brand string, zone model.MarketZone, segment model.Segment) (int64, error)
}

// ScrapeRequest selects which sources to scrape and whether results are
// persisted. SourceID, Brand and CustomURL are mutually exclusive selectors;
// when all are empty, every active source is scraped.
type ScrapeRequest struct {
	SourceID     string
	Brand        string
	CustomURL    string
	Segment      string
	SaveToTrends bool
}

// SourceResult summarizes the outcome for one scraped source.
type SourceResult struct {
	SourceID   string `json:"sourceId"`
	Brand      string `json:"brand"`
	MarketZone string `json:"marketZone"`
	Segment    string `json:"segment"`
	Items      int    `json:"items"`
	Saved      int    `json:"saved"`
	Error      string `json:"error,omitempty"`
}

// ScrapeReport aggregates the outcome of one scrape run.
type ScrapeReport struct {
	TotalItems    int
	SavedToTrends int
	Results       []SourceResult
}

// TrendService orchestrates scraping sources and persisting the results.
type TrendService struct {
	registry *sources.Registry
	scrapers *scraper.Registry
	writer   TrendWriter
	cities   []string
}

// NewTrendService creates a new TrendService. cities is the active-city
// allowlist applied when a request doesn't select specific sources.
func NewTrendService(registry *sources.Registry, scrapers *scraper.Registry, writer TrendWriter, cities []string) *TrendService {
	return &TrendService{
		registry: registry,
		scrapers: scrapers,
		writer:   writer,
		cities:   cities,
	}
}

// ScrapeSources scrapes the sources selected by the request. One failing
// source never aborts the run: its error is recorded in the report and the
// remaining sources still execute.
func (ts *TrendService) ScrapeSources(ctx context.Context, req ScrapeRequest) (*ScrapeReport, error) {
	srcs, err := ts.resolveSources(req)
	if err != nil {
		return nil, err
	}

	report := &ScrapeReport{}
	for _, src := range srcs {
		result := SourceResult{
			SourceID:   src.ID,
			Brand:      src.Brand,
			MarketZone: string(src.MarketZone),
			Segment:    string(src.Segment),
		}

		items, err := ts.scrapeSource(ctx, src)
		if err != nil {
			metrics.ScrapeFailures.Inc()
			slog.Error("Source scrape failed",
				slog.String("source_id", src.ID),
				slog.String("brand", src.Brand),
				slog.Any("err", err),
			)
			result.Error = err.Error()
			report.Results = append(report.Results, result)
			continue
		}

		result.Items = len(items)
		report.TotalItems += len(items)

		if req.SaveToTrends {
			saved, err := ts.persistBatch(ctx, src, items)
			if err != nil {
				result.Error = err.Error()
			}
			result.Saved = saved
			report.SavedToTrends += saved
		}

		report.Results = append(report.Results, result)
	}

	return report, nil
}

// resolveSources maps the request selectors onto registered sources.
func (ts *TrendService) resolveSources(req ScrapeRequest) ([]sources.Source, error) {
	var srcs []sources.Source

	switch {
	case req.CustomURL != "":
		src, ok := ts.registry.Recognize(req.CustomURL)
		if !ok {
			return nil, fmt.Errorf("custom URL %q: %w", req.CustomURL, ErrUnknownSource)
		}
		srcs = []sources.Source{src}
	case req.SourceID != "":
		src, ok := ts.registry.FindByID(req.SourceID)
		if !ok {
			return nil, fmt.Errorf("source ID %q: %w", req.SourceID, ErrUnknownSource)
		}
		srcs = []sources.Source{src}
	case req.Brand != "":
		srcs = ts.registry.ByBrand(req.Brand)
		if len(srcs) == 0 {
			return nil, fmt.Errorf("brand %q: %w", req.Brand, ErrUnknownSource)
		}
	default:
		srcs = ts.registry.Active(ts.cities)
	}

	if req.Segment != "" {
		var filtered []sources.Source
		for _, src := range srcs {
			if string(src.Segment) == req.Segment {
				filtered = append(filtered, src)
			}
		}
		srcs = filtered
	}

	return srcs, nil
}

func (ts *TrendService) scrapeSource(ctx context.Context, src sources.Source) ([]scraper.Item, error) {
	s := ts.scrapers.FindScraper(src)
	if s == nil {
		return nil, fmt.Errorf("no scraper can handle source %s", src.ID)
	}
	return s.Fetch(ctx, src)
}

// persistBatch writes one source's items. Full-replace sources clear their
// previous rows first; upsert sources merge into existing rows. Items without
// a name or source URL are skipped.
func (ts *TrendService) persistBatch(ctx context.Context, src sources.Source, items []scraper.Item) (int, error) {
	if src.Strategy == sources.ReplaceFull {
		cleared, err := ts.writer.DeleteBySource(ctx, src.Brand, src.MarketZone, src.Segment)
		if err != nil {
			return 0, fmt.Errorf("failed to clear rows for full-replace source %s: %w", src.ID, err)
		}
		slog.Info("Cleared rows for full-replace source",
			slog.String("source_id", src.ID),
			slog.Int64("cleared", cleared),
		)
	}

	saved := 0
	for _, item := range items {
		if item.Name == "" || item.SourceURL == "" {
			metrics.ItemsSkipped.Inc()
			continue
		}

		product := buildProduct(src, item)
		inserted, err := ts.writer.UpsertProductWithEvent(ctx, product)
		if err != nil {
			slog.Error("Failed to persist scraped item",
				slog.String("source_id", src.ID),
				slog.String("name", item.Name),
				slog.Any("err", err),
			)
			continue
		}

		if inserted {
			metrics.TrendsCreated.Inc()
		} else {
			metrics.TrendsUpdated.Inc()
		}
		saved++
	}

	return saved, nil
}

// buildProduct converts a scraped item into a TrendProduct for its source.
// The brand comes from the item when the page exposes one, then from the
// product name, then from the source itself.
func buildProduct(src sources.Source, item scraper.Item) *model.TrendProduct {
	brand := item.Brand
	if brand == "" {
		brand = scraper.InferBrand(item.Name)
	}
	if brand == "" {
		brand = src.Brand
	}

	return &model.TrendProduct{
		Name:         item.Name,
		Category:     item.Category,
		Material:     item.Material,
		AveragePrice: item.Price,
		ImageURL:     item.ImageURL,
		Description:  item.Description,
		Segment:      src.Segment,
		MarketZone:   src.MarketZone,
		SourceURL:    item.SourceURL,
		SourceBrand:  brand,

		TrendScore:         scoring.InitialScore(item.TrendGrowthPercent, item.TrendLabel),
		TrendGrowthPercent: item.TrendGrowthPercent,
		TrendLabel:         item.TrendLabel,
		Saturability:       scoring.Saturability(item.TrendGrowthPercent, item.MarkdownPercent),

		Composition:      item.Composition,
		CareInstructions: item.CareInstructions,
		Color:            item.Color,
		Sizes:            item.Sizes,
		OriginCountry:    item.OriginCountry,
		ArticleNumber:    item.ArticleNumber,
		MarkdownPercent:  item.MarkdownPercent,
		StockOutRisk:     item.StockOutRisk,
	}
}
