package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TrendsCreated counts trend products inserted for the first time.
	TrendsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trend_radar_trends_created_total",
		Help: "The total number of newly created trend products",
	})

	// TrendsUpdated counts trend products refreshed by a re-scrape.
	TrendsUpdated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trend_radar_trends_updated_total",
		Help: "The total number of updated trend products",
	})

	// TrendsDeleted counts trend products removed by the cleanup job.
	TrendsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trend_radar_trends_deleted_total",
		Help: "The total number of deleted trend products",
	})

	// ScrapeFailures counts per-source scrape attempts that errored.
	ScrapeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trend_radar_scrape_failures_total",
		Help: "The total number of failed source scrapes",
	})

	// ItemsSkipped counts scraped items dropped before persistence.
	ItemsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trend_radar_items_skipped_total",
		Help: "The total number of scraped items skipped during persistence",
	})
)
