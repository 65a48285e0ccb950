package integration

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/outfity/trend-radar/internal/model"
	"github.com/outfity/trend-radar/internal/repository"
	reposql "github.com/outfity/trend-radar/internal/repository/sql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTrendRepository_Integration exercises the trend product persistence
// layer against a real PostgreSQL container.
// Run with: go test -v ./integration/...
func TestTrendRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	tdb := SetupTestDB(t)
	defer tdb.Cleanup(t)

	ctx := context.Background()
	trendRepo := reposql.NewTrendProductRepository(tdb.DB)
	txRepo := reposql.NewTransactionalRepository(tdb.DB)
	eventRepo := reposql.NewTrendEventRepository(tdb.DB)
	favoriteRepo := reposql.NewFavoriteRepository(tdb.DB)

	newProduct := func(sourceURL string, zone model.MarketZone, brand string, segment model.Segment) *model.TrendProduct {
		return &model.TrendProduct{
			Name:         "Oversized Blazer",
			AveragePrice: 59.95,
			Segment:      segment,
			MarketZone:   zone,
			SourceURL:    sourceURL,
			SourceBrand:  brand,
			TrendScore:   70,
		}
	}

	t.Run("upsert dedups on the source triple", func(t *testing.T) {
		tdb.TruncateTables(t)

		first := newProduct("https://www.zara.com/p/1", model.ZoneFR, "Zara", model.SegmentWomen)
		inserted, err := txRepo.UpsertProductWithEvent(ctx, first)
		require.NoError(t, err)
		assert.True(t, inserted)

		// same triple again: must update in place, not duplicate
		second := newProduct("https://www.zara.com/p/1", model.ZoneFR, "Zara", model.SegmentWomen)
		second.AveragePrice = 49.95
		inserted, err = txRepo.UpsertProductWithEvent(ctx, second)
		require.NoError(t, err)
		assert.False(t, inserted)
		assert.Equal(t, first.ID, second.ID)

		all, err := trendRepo.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, 49.95, all[0].AveragePrice)
		// the insert-time score survives the update
		assert.Equal(t, 70, all[0].TrendScore)

		// one created and one updated event in the outbox
		query := repository.NewQuery().With(repository.StatusField, string(model.EventStatusPending))
		query.Limit = 10
		events, err := eventRepo.List(ctx, *query)
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, model.EventTrendCreated, events[0].(*model.TrendEvent).EventType)
		assert.Equal(t, model.EventTrendUpdated, events[1].(*model.TrendEvent).EventType)
	})

	t.Run("same listing in another zone is a separate row", func(t *testing.T) {
		tdb.TruncateTables(t)

		_, err := txRepo.UpsertProductWithEvent(ctx, newProduct("https://www.zara.com/p/1", model.ZoneFR, "Zara", model.SegmentWomen))
		require.NoError(t, err)
		_, err = txRepo.UpsertProductWithEvent(ctx, newProduct("https://www.zara.com/p/1", model.ZoneEU, "Zara", model.SegmentWomen))
		require.NoError(t, err)

		matches, err := trendRepo.ListSignatureMatches(ctx, "oversized blazer")
		require.NoError(t, err)
		assert.Len(t, matches, 2)
	})

	t.Run("full-replace clears only its own source", func(t *testing.T) {
		tdb.TruncateTables(t)

		_, err := txRepo.UpsertProductWithEvent(ctx, newProduct("https://www.asos.com/p/1", model.ZoneEU, "ASOS", model.SegmentWomen))
		require.NoError(t, err)
		_, err = txRepo.UpsertProductWithEvent(ctx, newProduct("https://www.zara.com/p/1", model.ZoneFR, "Zara", model.SegmentWomen))
		require.NoError(t, err)

		cleared, err := txRepo.DeleteBySource(ctx, "ASOS", model.ZoneEU, model.SegmentWomen)
		require.NoError(t, err)
		assert.Equal(t, int64(1), cleared)

		all, err := trendRepo.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "Zara", all[0].SourceBrand)
	})

	t.Run("favorites enforce one per user per product", func(t *testing.T) {
		tdb.TruncateTables(t)

		product := newProduct("https://www.zara.com/p/1", model.ZoneFR, "Zara", model.SegmentWomen)
		_, err := txRepo.UpsertProductWithEvent(ctx, product)
		require.NoError(t, err)

		userID := uuid.New()
		_, err = favoriteRepo.Create(ctx, &model.Favorite{UserID: userID, ProductID: product.ID})
		require.NoError(t, err)

		_, err = favoriteRepo.Create(ctx, &model.Favorite{UserID: userID, ProductID: product.ID})
		require.Error(t, err)
		var uniqueErr *repository.UniqueConstraintError
		assert.ErrorAs(t, err, &uniqueErr)

		count, err := favoriteRepo.CountByProduct(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("batch delete records deletion events", func(t *testing.T) {
		tdb.TruncateTables(t)

		product := newProduct("https://www.zara.com/p/1", model.ZoneFR, "Zara", model.SegmentWomen)
		_, err := txRepo.UpsertProductWithEvent(ctx, product)
		require.NoError(t, err)

		deleted, err := txRepo.DeleteProductsWithEvents(ctx, []*model.TrendProduct{product})
		require.NoError(t, err)
		assert.Equal(t, int64(1), deleted)

		all, err := trendRepo.ListAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)

		query := repository.NewQuery().With(repository.StatusField, string(model.EventStatusPending))
		query.Limit = 10
		events, err := eventRepo.List(ctx, *query)
		require.NoError(t, err)
		require.Len(t, events, 2) // created + deleted
		assert.Equal(t, model.EventTrendDeleted, events[1].(*model.TrendEvent).EventType)
	})
}
