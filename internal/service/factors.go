package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/outfity/trend-radar/internal/model"
	"github.com/outfity/trend-radar/internal/scoring"
)

// SignatureOf normalizes a product name into the key used to match the same
// product across zones, segments and brands.
func SignatureOf(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

type signatureLister interface {
	ListSignatureMatches(ctx context.Context, signature string) ([]*model.TrendProduct, error)
}

type favoriteCounter interface {
	CountByProduct(ctx context.Context, productID uuid.UUID) (int, error)
}

// FactorGatherer assembles the scoring factors for one product from its
// signature matches and engagement data.
type FactorGatherer struct {
	products  signatureLister
	favorites favoriteCounter
	now       func() time.Time
}

// NewFactorGatherer creates a new FactorGatherer.
func NewFactorGatherer(products signatureLister, favorites favoriteCounter) *FactorGatherer {
	return &FactorGatherer{
		products:  products,
		favorites: favorites,
		now:       time.Now,
	}
}

// Gather collects the observed factors for one product. Recurrence, zone
// spread and segment spread come from the product's signature matches across
// the whole table; engagement comes from the favorites count.
func (fg *FactorGatherer) Gather(ctx context.Context, product *model.TrendProduct) (scoring.Factors, error) {
	matches, err := fg.products.ListSignatureMatches(ctx, SignatureOf(product.Name))
	if err != nil {
		return scoring.Factors{}, fmt.Errorf("failed to list signature matches: %w", err)
	}

	// A product always matches its own signature; an empty result means the
	// row was removed between listing and gathering.
	if len(matches) == 0 {
		matches = []*model.TrendProduct{product}
	}

	firstSeen := product.CreatedAt
	lastSeen := product.UpdatedAt
	zones := make(map[model.MarketZone]bool)
	segments := make(map[model.Segment]bool)
	for _, match := range matches {
		if match.CreatedAt.Before(firstSeen) {
			firstSeen = match.CreatedAt
		}
		if match.UpdatedAt.After(lastSeen) {
			lastSeen = match.UpdatedAt
		}
		zones[match.MarketZone] = true
		segments[match.Segment] = true
	}

	favorites, err := fg.favorites.CountByProduct(ctx, product.ID)
	if err != nil {
		return scoring.Factors{}, fmt.Errorf("failed to count favorites: %w", err)
	}

	now := fg.now()
	return scoring.Factors{
		RecurrenceCount:    len(matches),
		DaysSinceFirstSeen: daysBetween(firstSeen, now),
		DaysSinceLastSeen:  daysBetween(lastSeen, now),
		MarketZoneCount:    len(zones),

		SourceGrowthPercent: product.TrendGrowthPercent,
		FavoritesCount:      &favorites,
		MultiSegment:        len(segments) > 1,
	}, nil
}

func daysBetween(from, to time.Time) int {
	days := int(to.Sub(from).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
