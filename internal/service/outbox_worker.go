package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/outfity/trend-radar/internal/model"
	"github.com/outfity/trend-radar/internal/repository"
	reposql "github.com/outfity/trend-radar/internal/repository/sql"
	"github.com/outfity/trend-radar/internal/sqs"
)

type eventStore interface {
	List(ctx context.Context, query repository.Query) ([]repository.Resource, error)
	UpdateStatus(ctx context.Context, eventID uuid.UUID, status model.EventStatus) error
}

type trendPublisher interface {
	PublishTrendMessage(ctx context.Context, msg sqs.TrendMessage) error
}

// OutboxWorker handles processing of pending events from the outbox table.
type OutboxWorker struct {
	events    eventStore
	publisher trendPublisher
	interval  time.Duration
}

// NewOutboxWorker creates a new OutboxWorker instance.
func NewOutboxWorker(events eventStore, publisher trendPublisher, interval time.Duration) *OutboxWorker {
	return &OutboxWorker{
		events:    events,
		publisher: publisher,
		interval:  interval,
	}
}

// Start begins the worker loop that processes pending events.
func (ow *OutboxWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(ow.interval)
	defer ticker.Stop()

	slog.Info("Outbox worker started", slog.Duration("interval", ow.interval))

	for {
		select {
		case <-ctx.Done():
			slog.Info("Outbox worker stopping")
			return
		case <-ticker.C:
			if err := ow.processPendingEvents(ctx); err != nil {
				slog.Error("Failed to process pending events", slog.Any("err", err))
			}
		}
	}
}

// processPendingEvents fetches and processes all pending events.
func (ow *OutboxWorker) processPendingEvents(ctx context.Context) error {
	query := repository.NewQuery().With(repository.StatusField, string(model.EventStatusPending))
	query.Limit = 100 // Process up to 100 events at a time

	resources, err := ow.events.List(ctx, *query)
	if err != nil {
		return err
	}

	for _, resource := range resources {
		event, ok := resource.(*model.TrendEvent)
		if !ok {
			slog.Error("Invalid resource type", slog.Any("resource", resource))
			continue
		}

		if err := ow.processEvent(ctx, event); err != nil {
			slog.Error("Failed to process event", slog.String("event_id", event.ID.String()), slog.Any("err", err))
			if updateErr := ow.events.UpdateStatus(ctx, event.ID, model.EventStatusFailed); updateErr != nil {
				slog.Error("Failed to update event status to failed", slog.String("event_id", event.ID.String()), slog.Any("err", updateErr))
			}
		} else {
			if updateErr := ow.events.UpdateStatus(ctx, event.ID, model.EventStatusProcessed); updateErr != nil {
				slog.Error("Failed to update event status to processed", slog.String("event_id", event.ID.String()), slog.Any("err", updateErr))
			}
		}
	}

	return nil
}

// processEvent publishes a single event to SQS.
func (ow *OutboxWorker) processEvent(ctx context.Context, event *model.TrendEvent) error {
	var payload reposql.TrendEventPayload
	if err := json.Unmarshal(event.EventData, &payload); err != nil {
		return err
	}

	msg := sqs.TrendMessage{
		Action:      event.EventType,
		ProductID:   payload.ProductID,
		Name:        payload.Name,
		MarketZone:  payload.MarketZone,
		Segment:     payload.Segment,
		SourceBrand: payload.SourceBrand,
		TrendScore:  payload.TrendScore,
		Price:       payload.Price,
	}

	if ow.publisher != nil {
		if err := ow.publisher.PublishTrendMessage(ctx, msg); err != nil {
			return err
		}
		slog.Info("Event published to SQS", slog.String("event_id", event.ID.String()), slog.String("event_type", event.EventType))
	}

	return nil
}
