package sql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/outfity/trend-radar/internal/model"
	"github.com/outfity/trend-radar/internal/repository"
)

// TrendEventRepository implements the Repository interface for TrendEvent
// entities in the outbox table.
type TrendEventRepository struct {
	db  *sql.DB
	txn *sql.Tx
}

// NewTrendEventRepository creates a new TrendEventRepository instance.
func NewTrendEventRepository(db *sql.DB) *TrendEventRepository {
	return &TrendEventRepository{db: db}
}

// getExecutor returns the active executor (transaction if exists, otherwise db)
func (r *TrendEventRepository) getExecutor() dbExecutor {
	if r.txn != nil {
		return r.txn
	}
	return r.db
}

// Create inserts a new event into the outbox.
func (r *TrendEventRepository) Create(ctx context.Context, resource repository.Resource) (repository.Resource, error) {
	event, ok := resource.(*model.TrendEvent)
	if !ok {
		return nil, repository.ErrInvalidType
	}

	event.InitMeta()

	query := `INSERT INTO trend_events (id, event_type, event_data, status, created_at, processed_at)
	          VALUES ($1, $2, $3, $4, $5, $6)`

	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, event.ID, event.EventType, event.EventData, event.Status, event.CreatedAt, event.ProcessedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert trend event: %w", err)
	}

	return event, nil
}

// List retrieves events, optionally filtered by status, oldest first so the
// outbox worker publishes in creation order.
func (r *TrendEventRepository) List(ctx context.Context, query repository.Query) ([]repository.Resource, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString("SELECT id, event_type, event_data, status, created_at, processed_at FROM trend_events WHERE 1=1")

	var args []interface{}
	argIndex := 1

	if status, ok := query.Values[repository.StatusField]; ok {
		queryBuilder.WriteString(fmt.Sprintf(" AND status = $%d", argIndex))
		args = append(args, status)
		argIndex++
	}

	queryBuilder.WriteString(" ORDER BY created_at ASC")

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
		return nil, fmt.Errorf("failed to query trend events: %w", err)
	}
	defer rows.Close()

	var events []repository.Resource
	for rows.Next() {
		var event model.TrendEvent
		err := rows.Scan(&event.ID, &event.EventType, &event.EventData, &event.Status, &event.CreatedAt, &event.ProcessedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trend event: %w", err)
		}
		events = append(events, &event)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return events, nil
}

// FindByID retrieves a single event by ID.
func (r *TrendEventRepository) FindByID(ctx context.Context, id uuid.UUID) (repository.Resource, error) {
	query := `SELECT id, event_type, event_data, status, created_at, processed_at FROM trend_events WHERE id = $1`

	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	var event model.TrendEvent
	err = stmt.QueryRowContext(ctx, id).Scan(&event.ID, &event.EventType, &event.EventData, &event.Status, &event.CreatedAt, &event.ProcessedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("trend event %s: %w", id, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query trend event: %w", err)
	}

	return &event, nil
}

// DeleteByID deletes an event by ID.
func (r *TrendEventRepository) DeleteByID(ctx context.Context, resource repository.Resource) error {
	event, ok := resource.(*model.TrendEvent)
	if !ok {
		return repository.ErrInvalidType
	}

	query := `DELETE FROM trend_events WHERE id = $1`

	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare delete statement: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("failed to delete trend event: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("trend event %s: %w", event.ID, repository.ErrNotFound)
	}

	return nil
}

// UpdateStatus updates the status and processed_at time of an event.
func (r *TrendEventRepository) UpdateStatus(ctx context.Context, eventID uuid.UUID, status model.EventStatus) error {
	query := `UPDATE trend_events SET status = $1, processed_at = CURRENT_TIMESTAMP WHERE id = $2`

	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare update statement: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, status, eventID)
	if err != nil {
		return fmt.Errorf("failed to update trend event status: %w", err)
	}

	return nil
}

// NewTrendEvent builds a pending outbox event with a JSON payload.
func NewTrendEvent(eventType string, eventData interface{}) (*model.TrendEvent, error) {
	data, err := json.Marshal(eventData)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event data: %w", err)
	}

	return &model.TrendEvent{
		EventType: eventType,
		EventData: data,
		Status:    model.EventStatusPending,
	}, nil
}
