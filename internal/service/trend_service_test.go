package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/outfity/trend-radar/internal/model"
	"github.com/outfity/trend-radar/internal/scraper"
	"github.com/outfity/trend-radar/internal/service"
	"github.com/outfity/trend-radar/internal/sources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTrendWriter is a mock implementation of service.TrendWriter
type MockTrendWriter struct {
	mock.Mock
}

func (m *MockTrendWriter) UpsertProductWithEvent(ctx context.Context, product *model.TrendProduct) (bool, error) {
	args := m.Called(ctx, product)
	return args.Bool(0), args.Error(1)
}

func (m *MockTrendWriter) DeleteBySource(ctx context.Context, brand string, zone model.MarketZone, segment model.Segment) (int64, error) {
	args := m.Called(ctx, brand, zone, segment)
	return args.Get(0).(int64), args.Error(1)
}

// stubScraper returns canned items per source ID.
type stubScraper struct {
	items map[string][]scraper.Item
	errs  map[string]error
}

func (s *stubScraper) CanHandle(sources.Source) bool { return true }

func (s *stubScraper) Fetch(_ context.Context, src sources.Source) ([]scraper.Item, error) {
	if err := s.errs[src.ID]; err != nil {
		return nil, err
	}
	return s.items[src.ID], nil
}

func testRegistry(t *testing.T) *sources.Registry {
	t.Helper()
	registry, err := sources.NewRegistry([]sources.Source{
		{
			ID: "zara-paris-femme", Brand: "Zara", City: "paris",
			MarketZone: model.ZoneFR, Segment: model.SegmentWomen,
			BaseURL: "https://www.zara.com", Path: "/fr",
		},
		{
			ID: "zara-paris-homme", Brand: "Zara", City: "paris",
			MarketZone: model.ZoneFR, Segment: model.SegmentMen,
			BaseURL: "https://www.zara.com", Path: "/fr/homme",
		},
		{
			ID: "asos-london-femme", Brand: "ASOS", City: "london",
			MarketZone: model.ZoneEU, Segment: model.SegmentWomen,
			BaseURL: "https://www.asos.com", Path: "/women",
			Strategy: sources.ReplaceFull,
		},
	})
	require.NoError(t, err)
	return registry
}

func growthPtr(v float64) *float64 { return &v }

func TestTrendService_ScrapeSources(t *testing.T) {
	ctx := context.Background()

	t.Run("scrapes one source by ID and persists valid items", func(t *testing.T) {
		// given
		items := []scraper.Item{
			{
				Name: "Zara Oversized Blazer", Price: 59.95,
				SourceURL:          "https://www.zara.com/p/1",
				TrendGrowthPercent: growthPtr(40),
			},
			{Name: "", SourceURL: "https://www.zara.com/p/2"}, // skipped: no name
			{Name: "Robe satinée", SourceURL: ""},             // skipped: no URL
		}
		scrapers := scraper.NewRegistry(&stubScraper{items: map[string][]scraper.Item{"zara-paris-femme": items}})

		writer := new(MockTrendWriter)
		writer.On("UpsertProductWithEvent", ctx, mock.AnythingOfType("*model.TrendProduct")).Return(true, nil).Once()

		ts := service.NewTrendService(testRegistry(t), scrapers, writer, nil)

		// when
		report, err := ts.ScrapeSources(ctx, service.ScrapeRequest{SourceID: "zara-paris-femme", SaveToTrends: true})

		// then
		require.NoError(t, err)
		assert.Equal(t, 3, report.TotalItems)
		assert.Equal(t, 1, report.SavedToTrends)
		require.Len(t, report.Results, 1)
		assert.Equal(t, "zara-paris-femme", report.Results[0].SourceID)
		assert.Equal(t, 1, report.Results[0].Saved)

		product := writer.Calls[0].Arguments.Get(1).(*model.TrendProduct)
		assert.Equal(t, "Zara Oversized Blazer", product.Name)
		assert.Equal(t, "Zara", product.SourceBrand)
		assert.Equal(t, model.ZoneFR, product.MarketZone)
		assert.Equal(t, model.SegmentWomen, product.Segment)
		// intake heuristic: 50 baseline + 40/2 growth
		assert.Equal(t, 70, product.TrendScore)
		writer.AssertExpectations(t)
	})

	t.Run("does not persist when saveToTrends is false", func(t *testing.T) {
		// given
		scrapers := scraper.NewRegistry(&stubScraper{items: map[string][]scraper.Item{
			"zara-paris-femme": {{Name: "Blazer", SourceURL: "https://www.zara.com/p/1"}},
		}})
		writer := new(MockTrendWriter)
		ts := service.NewTrendService(testRegistry(t), scrapers, writer, nil)

		// when
		report, err := ts.ScrapeSources(ctx, service.ScrapeRequest{SourceID: "zara-paris-femme"})

		// then
		require.NoError(t, err)
		assert.Equal(t, 1, report.TotalItems)
		assert.Equal(t, 0, report.SavedToTrends)
		writer.AssertNotCalled(t, "UpsertProductWithEvent", mock.Anything, mock.Anything)
	})

	t.Run("full-replace source clears its rows before inserting", func(t *testing.T) {
		// given
		scrapers := scraper.NewRegistry(&stubScraper{items: map[string][]scraper.Item{
			"asos-london-femme": {{Name: "ASOS Design Midi Dress", SourceURL: "https://www.asos.com/p/9"}},
		}})
		writer := new(MockTrendWriter)
		writer.On("DeleteBySource", ctx, "ASOS", model.ZoneEU, model.SegmentWomen).Return(int64(4), nil).Once()
		writer.On("UpsertProductWithEvent", ctx, mock.AnythingOfType("*model.TrendProduct")).Return(true, nil).Once()

		ts := service.NewTrendService(testRegistry(t), scrapers, writer, nil)

		// when
		report, err := ts.ScrapeSources(ctx, service.ScrapeRequest{SourceID: "asos-london-femme", SaveToTrends: true})

		// then
		require.NoError(t, err)
		assert.Equal(t, 1, report.SavedToTrends)
		writer.AssertExpectations(t)
	})

	t.Run("brand selector with segment filter", func(t *testing.T) {
		// given
		scrapers := scraper.NewRegistry(&stubScraper{items: map[string][]scraper.Item{
			"zara-paris-homme": {{Name: "Bomber", SourceURL: "https://www.zara.com/p/3"}},
		}})
		writer := new(MockTrendWriter)
		ts := service.NewTrendService(testRegistry(t), scrapers, writer, nil)

		// when
		report, err := ts.ScrapeSources(ctx, service.ScrapeRequest{Brand: "zara", Segment: "homme"})

		// then
		require.NoError(t, err)
		require.Len(t, report.Results, 1)
		assert.Equal(t, "zara-paris-homme", report.Results[0].SourceID)
	})

	t.Run("custom URL resolves to a registered source by host", func(t *testing.T) {
		// given
		scrapers := scraper.NewRegistry(&stubScraper{items: map[string][]scraper.Item{
			"zara-paris-femme": {{Name: "Trench", SourceURL: "https://www.zara.com/p/4"}},
		}})
		ts := service.NewTrendService(testRegistry(t), scrapers, new(MockTrendWriter), nil)

		// when
		report, err := ts.ScrapeSources(ctx, service.ScrapeRequest{CustomURL: "https://zara.com/fr/special"})

		// then
		require.NoError(t, err)
		require.Len(t, report.Results, 1)
		assert.Equal(t, "zara-paris-femme", report.Results[0].SourceID)
	})

	t.Run("unknown custom URL returns ErrUnknownSource", func(t *testing.T) {
		ts := service.NewTrendService(testRegistry(t), scraper.NewRegistry(), new(MockTrendWriter), nil)

		_, err := ts.ScrapeSources(ctx, service.ScrapeRequest{CustomURL: "https://unknown-shop.example.com/x"})

		require.ErrorIs(t, err, service.ErrUnknownSource)
	})

	t.Run("unknown source ID returns ErrUnknownSource", func(t *testing.T) {
		ts := service.NewTrendService(testRegistry(t), scraper.NewRegistry(), new(MockTrendWriter), nil)

		_, err := ts.ScrapeSources(ctx, service.ScrapeRequest{SourceID: "nope"})

		require.ErrorIs(t, err, service.ErrUnknownSource)
	})

	t.Run("one failing source does not abort the others", func(t *testing.T) {
		// given
		scrapers := scraper.NewRegistry(&stubScraper{
			items: map[string][]scraper.Item{
				"zara-paris-homme": {{Name: "Bomber", SourceURL: "https://www.zara.com/p/3"}},
			},
			errs: map[string]error{"zara-paris-femme": errors.New("fetch failed: unexpected status 503")},
		})
		writer := new(MockTrendWriter)
		ts := service.NewTrendService(testRegistry(t), scrapers, writer, nil)

		// when
		report, err := ts.ScrapeSources(ctx, service.ScrapeRequest{Brand: "Zara"})

		// then
		require.NoError(t, err)
		require.Len(t, report.Results, 2)
		assert.Contains(t, report.Results[0].Error, "503")
		assert.Empty(t, report.Results[1].Error)
		assert.Equal(t, 1, report.TotalItems)
	})

	t.Run("city allowlist limits the default source set", func(t *testing.T) {
		// given
		scrapers := scraper.NewRegistry(&stubScraper{items: map[string][]scraper.Item{}})
		ts := service.NewTrendService(testRegistry(t), scrapers, new(MockTrendWriter), []string{"london"})

		// when
		report, err := ts.ScrapeSources(ctx, service.ScrapeRequest{})

		// then
		require.NoError(t, err)
		require.Len(t, report.Results, 1)
		assert.Equal(t, "asos-london-femme", report.Results[0].SourceID)
	})
}
