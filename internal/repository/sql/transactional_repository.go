package sql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/outfity/trend-radar/internal/model"
)

// TrendEventPayload is the JSON body stored with trend lifecycle events.
type TrendEventPayload struct {
	ProductID   string  `json:"product_id"`
	Name        string  `json:"name"`
	MarketZone  string  `json:"market_zone"`
	Segment     string  `json:"segment"`
	SourceBrand string  `json:"source_brand"`
	TrendScore  int     `json:"trend_score"`
	Price       float64 `json:"price"`
}

// TransactionalRepository couples trend product writes with their outbox
// events so a product change and its event are committed atomically.
type TransactionalRepository struct {
	db *sql.DB
}

// NewTransactionalRepository creates a new TransactionalRepository.
func NewTransactionalRepository(db *sql.DB) *TransactionalRepository {
	return &TransactionalRepository{db: db}
}

func payloadFor(product *model.TrendProduct) TrendEventPayload {
	return TrendEventPayload{
		ProductID:   product.ID.String(),
		Name:        product.Name,
		MarketZone:  string(product.MarketZone),
		Segment:     string(product.Segment),
		SourceBrand: product.SourceBrand,
		TrendScore:  product.TrendScore,
		Price:       product.AveragePrice,
	}
}

// UpsertProductWithEvent upserts a product and records a trend.created or
// trend.updated outbox event in the same transaction. Returns true when a
// new row was inserted.
func (tr *TransactionalRepository) UpsertProductWithEvent(ctx context.Context, product *model.TrendProduct) (bool, error) {
	tx, err := tr.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}

	productRepo := &TrendProductRepository{db: tr.db, txn: tx}
	eventRepo := &TrendEventRepository{db: tr.db, txn: tx}

	inserted, err := productRepo.Upsert(ctx, product)
	if err != nil {
		tx.Rollback()
		return false, fmt.Errorf("failed to upsert trend product: %w", err)
	}

	eventType := model.EventTrendUpdated
	if inserted {
		eventType = model.EventTrendCreated
	}
	event, err := NewTrendEvent(eventType, payloadFor(product))
	if err != nil {
		tx.Rollback()
		return false, err
	}
	if _, err := eventRepo.Create(ctx, event); err != nil {
		tx.Rollback()
		return false, fmt.Errorf("failed to create trend event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return inserted, nil
}

// DeleteProductsWithEvents removes a batch of products and records a
// trend.deleted outbox event for each, all in one transaction.
func (tr *TransactionalRepository) DeleteProductsWithEvents(ctx context.Context, products []*model.TrendProduct) (int64, error) {
	if len(products) == 0 {
		return 0, nil
	}

	tx, err := tr.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}

	productRepo := &TrendProductRepository{db: tr.db, txn: tx}
	eventRepo := &TrendEventRepository{db: tr.db, txn: tx}

	ids := make([]uuid.UUID, len(products))
	for i, product := range products {
		ids[i] = product.ID
	}

	deleted, err := productRepo.DeleteByIDs(ctx, ids)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("failed to delete trend products: %w", err)
	}

	for _, product := range products {
		event, err := NewTrendEvent(model.EventTrendDeleted, payloadFor(product))
		if err != nil {
			tx.Rollback()
			return 0, err
		}
		if _, err := eventRepo.Create(ctx, event); err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("failed to create trend event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return deleted, nil
}

// DeleteBySource removes every row for a (brand, zone, segment) combination.
// Full-replace sources call this before inserting their fresh batch.
func (tr *TransactionalRepository) DeleteBySource(ctx context.Context, brand string, zone model.MarketZone, segment model.Segment) (int64, error) {
	repo := &TrendProductRepository{db: tr.db}
	return repo.DeleteBySource(ctx, brand, zone, segment)
}
