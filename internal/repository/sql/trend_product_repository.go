package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/outfity/trend-radar/internal/model"
	"github.com/outfity/trend-radar/internal/repository"
)

// trendProductColumns is the canonical column order used by every SELECT
// against trend_products. Scans must stay in sync with this list.
const trendProductColumns = `id, name, category, material, average_price, image_url, description,
	segment, market_zone, source_url, source_brand, trend_score, trend_growth_percent,
	trend_label, saturability, days_in_radar, composition, care_instructions, color,
	sizes, origin_country, article_number, markdown_percent, stock_out_risk,
	created_at, updated_at`

// TrendProductRepository implements the Repository interface for TrendProduct
// entities, plus the trend-specific operations used by the scrape and cleanup
// paths.
type TrendProductRepository struct {
	db  *sql.DB
	txn *sql.Tx
}

// NewTrendProductRepository creates a new TrendProductRepository instance.
func NewTrendProductRepository(db *sql.DB) *TrendProductRepository {
	return &TrendProductRepository{db: db}
}

// getExecutor returns the active executor (transaction if exists, otherwise db)
func (r *TrendProductRepository) getExecutor() dbExecutor {
	if r.txn != nil {
		return r.txn
	}
	return r.db
}

// WithinTransaction executes a function within a database transaction
func (r *TrendProductRepository) WithinTransaction(ctx context.Context, fn func(repo *TrendProductRepository) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	txRepo := &TrendProductRepository{
		db:  r.db,
		txn: tx,
	}

	if err := fn(txRepo); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("failed to rollback transaction: %w (original error: %v)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Upsert inserts a product or, when a row with the same
// (source_url, market_zone, source_brand) triple already exists, updates the
// descriptive fields in place and bumps updated_at. The conflict target makes
// the dedup check atomic; concurrent scrapes of the same triple cannot
// produce duplicates. Score, saturability and days_in_radar are left alone on
// the update path so the cleanup job stays the only writer of recomputed
// scores. Returns true when a new row was inserted.
func (r *TrendProductRepository) Upsert(ctx context.Context, product *model.TrendProduct) (bool, error) {
	if product.ID == uuid.Nil {
		product.InitMeta()
	}

	query := `INSERT INTO trend_products (` + trendProductColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
	                  $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)
	          ON CONFLICT (source_url, market_zone, source_brand) DO UPDATE SET
	              name = EXCLUDED.name,
	              category = EXCLUDED.category,
	              material = EXCLUDED.material,
	              average_price = EXCLUDED.average_price,
	              image_url = EXCLUDED.image_url,
	              description = EXCLUDED.description,
	              segment = EXCLUDED.segment,
	              trend_growth_percent = EXCLUDED.trend_growth_percent,
	              trend_label = EXCLUDED.trend_label,
	              composition = EXCLUDED.composition,
	              care_instructions = EXCLUDED.care_instructions,
	              color = EXCLUDED.color,
	              sizes = EXCLUDED.sizes,
	              origin_country = EXCLUDED.origin_country,
	              article_number = EXCLUDED.article_number,
	              markdown_percent = EXCLUDED.markdown_percent,
	              stock_out_risk = EXCLUDED.stock_out_risk,
	              updated_at = EXCLUDED.updated_at
	          RETURNING id, created_at, (created_at = updated_at) AS inserted`

	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, query)
	if err != nil {
		return false, fmt.Errorf("failed to prepare upsert statement: %w", err)
	}
	defer stmt.Close()

	var inserted bool
	err = stmt.QueryRowContext(ctx,
		product.ID, product.Name, product.Category, product.Material, product.AveragePrice,
		product.ImageURL, product.Description, product.Segment, product.MarketZone,
		product.SourceURL, product.SourceBrand, product.TrendScore, product.TrendGrowthPercent,
		product.TrendLabel, product.Saturability, product.DaysInRadar, product.Composition,
		product.CareInstructions, product.Color, product.Sizes, product.OriginCountry,
		product.ArticleNumber, product.MarkdownPercent, product.StockOutRisk,
		product.CreatedAt, product.UpdatedAt,
	).Scan(&product.ID, &product.CreatedAt, &inserted)
	if err != nil {
		return false, fmt.Errorf("failed to upsert trend product: %w", err)
	}

	return inserted, nil
}

// Create inserts a new trend product without conflict handling. The scrape
// path goes through Upsert; Create exists for the generic Repository contract.
func (r *TrendProductRepository) Create(ctx context.Context, resource repository.Resource) (repository.Resource, error) {
	product, ok := resource.(*model.TrendProduct)
	if !ok {
		return nil, repository.ErrInvalidType
	}

	if product.ID == uuid.Nil {
		product.InitMeta()
	}

	query := `INSERT INTO trend_products (` + trendProductColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
	                  $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)`

	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx,
		product.ID, product.Name, product.Category, product.Material, product.AveragePrice,
		product.ImageURL, product.Description, product.Segment, product.MarketZone,
		product.SourceURL, product.SourceBrand, product.TrendScore, product.TrendGrowthPercent,
		product.TrendLabel, product.Saturability, product.DaysInRadar, product.Composition,
		product.CareInstructions, product.Color, product.Sizes, product.OriginCountry,
		product.ArticleNumber, product.MarkdownPercent, product.StockOutRisk,
		product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert trend product: %w", err)
	}

	return product, nil
}

// List retrieves trend products based on the provided query. Zone, segment
// and brand filters are supported alongside cursor pagination.
func (r *TrendProductRepository) List(ctx context.Context, query repository.Query) ([]repository.Resource, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString("SELECT " + trendProductColumns + " FROM trend_products WHERE 1=1")

	var args []interface{}
	argIndex := 1

	for field, value := range query.Values {
		switch field {
		case repository.MarketZoneField, repository.SegmentField, repository.SourceBrandField, repository.NameField:
			queryBuilder.WriteString(fmt.Sprintf(" AND %s = $%d", field, argIndex))
			args = append(args, value)
			argIndex++
		}
	}

	if query.Paginator != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", argIndex, argIndex+1))
		args = append(args, query.Paginator.LastCreatedAt, query.Paginator.LastID)
		argIndex += 2
	}

	// Order by created_at DESC, id DESC for consistent pagination
	queryBuilder.WriteString(" ORDER BY created_at DESC, id DESC")

	limit := query.Limit
	if limit <= 0 {
		limit = repository.DefaultPaginationLimit
	}
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argIndex))
	args = append(args, limit)

	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, queryBuilder.String())
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trend products: %w", err)
	}
	defer rows.Close()

	var products []repository.Resource
	for rows.Next() {
		product, err := scanTrendProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return products, nil
}

// ListAll retrieves every stored trend product in one pass. Used by the
// cleanup job, which rescores the whole table.
func (r *TrendProductRepository) ListAll(ctx context.Context) ([]*model.TrendProduct, error) {
	query := "SELECT " + trendProductColumns + " FROM trend_products ORDER BY created_at DESC, id DESC"

	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query trend products: %w", err)
	}
	defer rows.Close()

	var products []*model.TrendProduct
	for rows.Next() {
		product, err := scanTrendProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return products, nil
}

// ListSignatureMatches retrieves all products sharing a normalized name
// signature, across every zone and segment. Feeds the factor-gathering query.
func (r *TrendProductRepository) ListSignatureMatches(ctx context.Context, signature string) ([]*model.TrendProduct, error) {
	query := "SELECT " + trendProductColumns + " FROM trend_products WHERE lower(btrim(name)) = $1"

	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, signature)
	if err != nil {
		return nil, fmt.Errorf("failed to query signature matches: %w", err)
	}
	defer rows.Close()

	var products []*model.TrendProduct
	for rows.Next() {
		product, err := scanTrendProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return products, nil
}

// FindByID retrieves a single trend product by ID.
func (r *TrendProductRepository) FindByID(ctx context.Context, id uuid.UUID) (repository.Resource, error) {
	query := "SELECT " + trendProductColumns + " FROM trend_products WHERE id = $1"

	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	row := stmt.QueryRowContext(ctx, id)
	product, err := scanTrendProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("trend product %s: %w", id, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query trend product: %w", err)
	}

	return product, nil
}

// UpdateScore persists a recomputed trend score for one product. It does not
// touch updated_at, so repeated cleanup runs see stable freshness factors.
func (r *TrendProductRepository) UpdateScore(ctx context.Context, id uuid.UUID, score int) error {
	query := `UPDATE trend_products SET trend_score = $1 WHERE id = $2`

	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare update statement: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, score, id)
	if err != nil {
		return fmt.Errorf("failed to update trend score: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("trend product %s: %w", id, repository.ErrNotFound)
	}

	return nil
}

// DeleteByID deletes a trend product by ID.
func (r *TrendProductRepository) DeleteByID(ctx context.Context, resource repository.Resource) error {
	product, ok := resource.(*model.TrendProduct)
	if !ok {
		return repository.ErrInvalidType
	}

	query := `DELETE FROM trend_products WHERE id = $1`

	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare delete statement: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, product.ID)
	if err != nil {
		return fmt.Errorf("failed to delete trend product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("trend product %s: %w", product.ID, repository.ErrNotFound)
	}

	return nil
}

// DeleteByIDs removes the given products in a single batch statement.
func (r *TrendProductRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf("DELETE FROM trend_products WHERE id IN (%s)", strings.Join(placeholders, ", "))

	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare batch delete statement: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to batch delete trend products: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

// DeleteBySource removes every row for a (brand, zone, segment) combination.
// Used by sources configured with the full-replace strategy, which clear
// their previous batch before inserting a fresh one.
func (r *TrendProductRepository) DeleteBySource(ctx context.Context, brand string, zone model.MarketZone, segment model.Segment) (int64, error) {
	query := `DELETE FROM trend_products WHERE source_brand = $1 AND market_zone = $2 AND segment = $3`

	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare delete statement: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, brand, zone, segment)
	if err != nil {
		return 0, fmt.Errorf("failed to delete trend products by source: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanTrendProduct.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTrendProduct(row rowScanner) (*model.TrendProduct, error) {
	var product model.TrendProduct
	err := row.Scan(
		&product.ID, &product.Name, &product.Category, &product.Material, &product.AveragePrice,
		&product.ImageURL, &product.Description, &product.Segment, &product.MarketZone,
		&product.SourceURL, &product.SourceBrand, &product.TrendScore, &product.TrendGrowthPercent,
		&product.TrendLabel, &product.Saturability, &product.DaysInRadar, &product.Composition,
		&product.CareInstructions, &product.Color, &product.Sizes, &product.OriginCountry,
		&product.ArticleNumber, &product.MarkdownPercent, &product.StockOutRisk,
		&product.CreatedAt, &product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan trend product: %w", err)
	}
	return &product, nil
}
