package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/outfity/trend-radar/internal/model"
	"github.com/outfity/trend-radar/internal/repository"
)

// FavoriteRepository implements the Repository interface for Favorite entities.
type FavoriteRepository struct {
	db *sql.DB
}

// NewFavoriteRepository creates a new FavoriteRepository instance.
func NewFavoriteRepository(db *sql.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// Create inserts a new favorite. A user can favorite a product only once;
// the unique (user_id, product_id) index surfaces as a UniqueConstraintError.
func (r *FavoriteRepository) Create(ctx context.Context, resource repository.Resource) (repository.Resource, error) {
	favorite, ok := resource.(*model.Favorite)
	if !ok {
		return nil, repository.ErrInvalidType
	}

	favorite.InitMeta()

	query := `INSERT INTO favorites (id, user_id, product_id, created_at) VALUES ($1, $2, $3, $4)`

	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, favorite.ID, favorite.UserID, favorite.ProductID, favorite.CreatedAt)
	if err != nil {
		// pgx in production, lib/pq in the integration harness
		var pgxErr *pgconn.PgError
		if errors.As(err, &pgxErr) && pgxErr.Code == pqUniqueViolationErrCode {
			return nil, &repository.UniqueConstraintError{Detail: pgxErr.Detail}
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolationErrCode {
			return nil, &repository.UniqueConstraintError{Detail: pqErr.Detail}
		}
		return nil, fmt.Errorf("failed to insert favorite: %w", err)
	}

	return favorite, nil
}

// List retrieves favorites for one product (IDField filter selects by product).
func (r *FavoriteRepository) List(ctx context.Context, query repository.Query) ([]repository.Resource, error) {
	sqlQuery := `SELECT id, user_id, product_id, created_at FROM favorites WHERE product_id = $1 ORDER BY created_at DESC`

	productID, err := uuid.Parse(query.Values[repository.IDField])
	if err != nil {
		return nil, fmt.Errorf("invalid product ID: %w", err)
	}

	stmt, err := r.db.PrepareContext(ctx, sqlQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorites: %w", err)
	}
	defer rows.Close()

	var favorites []repository.Resource
	for rows.Next() {
		var favorite model.Favorite
		if err := rows.Scan(&favorite.ID, &favorite.UserID, &favorite.ProductID, &favorite.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		favorites = append(favorites, &favorite)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return favorites, nil
}

// FindByID retrieves a single favorite by ID.
func (r *FavoriteRepository) FindByID(ctx context.Context, id uuid.UUID) (repository.Resource, error) {
	query := `SELECT id, user_id, product_id, created_at FROM favorites WHERE id = $1`

	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	var favorite model.Favorite
	err = stmt.QueryRowContext(ctx, id).Scan(&favorite.ID, &favorite.UserID, &favorite.ProductID, &favorite.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("favorite %s: %w", id, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query favorite: %w", err)
	}

	return &favorite, nil
}

// DeleteByID deletes a favorite by ID.
func (r *FavoriteRepository) DeleteByID(ctx context.Context, resource repository.Resource) error {
	favorite, ok := resource.(*model.Favorite)
	if !ok {
		return repository.ErrInvalidType
	}

	query := `DELETE FROM favorites WHERE id = $1`

	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare delete statement: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, favorite.ID)
	if err != nil {
		return fmt.Errorf("failed to delete favorite: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("favorite %s: %w", favorite.ID, repository.ErrNotFound)
	}

	return nil
}

// CountByProduct returns the number of favorites for one product.
func (r *FavoriteRepository) CountByProduct(ctx context.Context, productID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM favorites WHERE product_id = $1`

	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare count statement: %w", err)
	}
	defer stmt.Close()

	var count int
	if err := stmt.QueryRowContext(ctx, productID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count favorites: %w", err)
	}

	return count, nil
}
