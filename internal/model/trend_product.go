package model

import (
	"time"

	"github.com/google/uuid"
)

// MarketZone is a coarse geography bucket used to group scrape sources
// and to measure multi-zone presence of a product.
type MarketZone string

const (
	ZoneFR   MarketZone = "FR"
	ZoneEU   MarketZone = "EU"
	ZoneUS   MarketZone = "US"
	ZoneASIA MarketZone = "ASIA"
)

// Segment identifies the catalog a product was scraped from.
type Segment string

const (
	SegmentMen   Segment = "homme"
	SegmentWomen Segment = "femme"
)

// TrendProduct represents a scraped product listing tracked by the trend radar.
// A row is uniquely identified by the (SourceURL, MarketZone, SourceBrand)
// triple; re-scraping the same triple updates the row in place.
type TrendProduct struct {
	ID           uuid.UUID
	Name         string
	Category     string
	Material     string
	AveragePrice float64
	ImageURL     string
	Description  string
	Segment      Segment
	MarketZone   MarketZone
	SourceURL    string
	SourceBrand  string

	TrendScore         int
	TrendGrowthPercent *float64
	TrendLabel         *string
	Saturability       int
	DaysInRadar        int

	// Technical fields passed through verbatim from scraper output.
	Composition      *string
	CareInstructions *string
	Color            *string
	Sizes            *string
	OriginCountry    *string
	ArticleNumber    *string
	MarkdownPercent  *float64
	StockOutRisk     *string

	UpdatedAt time.Time
	CreatedAt time.Time
}

// InitMeta initializes the product metadata including ID and timestamps.
func (p *TrendProduct) InitMeta() {
	p.ID = uuid.New()
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
}
