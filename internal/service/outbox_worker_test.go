package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/outfity/trend-radar/internal/model"
	"github.com/outfity/trend-radar/internal/repository"
	"github.com/outfity/trend-radar/internal/sqs"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockEventStore is a mock implementation of the outbox event store.
type MockEventStore struct {
	mock.Mock
}

func (m *MockEventStore) List(ctx context.Context, query repository.Query) ([]repository.Resource, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.Resource), args.Error(1)
}

func (m *MockEventStore) UpdateStatus(ctx context.Context, eventID uuid.UUID, status model.EventStatus) error {
	args := m.Called(ctx, eventID, status)
	return args.Error(0)
}

// MockTrendPublisher is a mock implementation of the SQS publisher.
type MockTrendPublisher struct {
	mock.Mock
}

func (m *MockTrendPublisher) PublishTrendMessage(ctx context.Context, msg sqs.TrendMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func pendingEvent(t *testing.T, eventType string) *model.TrendEvent {
	t.Helper()
	data, err := json.Marshal(map[string]interface{}{
		"product_id":   "6ba7b810-9dad-11d1-80b4-00c04fd430c8",
		"name":         "Oversized Blazer",
		"market_zone":  "FR",
		"segment":      "femme",
		"source_brand": "Zara",
		"trend_score":  80,
		"price":        59.95,
	})
	require.NoError(t, err)

	return &model.TrendEvent{
		ID:        uuid.New(),
		EventType: eventType,
		EventData: data,
		Status:    model.EventStatusPending,
		CreatedAt: time.Now().UTC(),
	}
}

func TestOutboxWorker_ProcessPendingEvents(t *testing.T) {
	ctx := context.Background()

	t.Run("publishes pending events and marks them processed", func(t *testing.T) {
		// given
		event := pendingEvent(t, model.EventTrendCreated)

		events := new(MockEventStore)
		events.On("List", ctx, mock.AnythingOfType("repository.Query")).Return([]repository.Resource{event}, nil)
		events.On("UpdateStatus", ctx, event.ID, model.EventStatusProcessed).Return(nil).Once()

		publisher := new(MockTrendPublisher)
		publisher.On("PublishTrendMessage", ctx, sqs.TrendMessage{
			Action:      model.EventTrendCreated,
			ProductID:   "6ba7b810-9dad-11d1-80b4-00c04fd430c8",
			Name:        "Oversized Blazer",
			MarketZone:  "FR",
			Segment:     "femme",
			SourceBrand: "Zara",
			TrendScore:  80,
			Price:       59.95,
		}).Return(nil).Once()

		worker := NewOutboxWorker(events, publisher, time.Second)

		// when
		err := worker.processPendingEvents(ctx)

		// then
		require.NoError(t, err)
		events.AssertExpectations(t)
		publisher.AssertExpectations(t)
	})

	t.Run("marks events failed when publishing fails", func(t *testing.T) {
		// given
		event := pendingEvent(t, model.EventTrendDeleted)

		events := new(MockEventStore)
		events.On("List", ctx, mock.AnythingOfType("repository.Query")).Return([]repository.Resource{event}, nil)
		events.On("UpdateStatus", ctx, event.ID, model.EventStatusFailed).Return(nil).Once()

		publisher := new(MockTrendPublisher)
		publisher.On("PublishTrendMessage", ctx, mock.AnythingOfType("sqs.TrendMessage")).Return(errors.New("queue unavailable"))

		worker := NewOutboxWorker(events, publisher, time.Second)

		// when
		err := worker.processPendingEvents(ctx)

		// then
		require.NoError(t, err)
		events.AssertExpectations(t)
	})

	t.Run("marks events failed when the payload is not valid JSON", func(t *testing.T) {
		// given
		event := &model.TrendEvent{
			ID:        uuid.New(),
			EventType: model.EventTrendUpdated,
			EventData: json.RawMessage(`not-json`),
			Status:    model.EventStatusPending,
		}

		events := new(MockEventStore)
		events.On("List", ctx, mock.AnythingOfType("repository.Query")).Return([]repository.Resource{event}, nil)
		events.On("UpdateStatus", ctx, event.ID, model.EventStatusFailed).Return(nil).Once()

		worker := NewOutboxWorker(events, new(MockTrendPublisher), time.Second)

		// when
		err := worker.processPendingEvents(ctx)

		// then
		require.NoError(t, err)
		events.AssertExpectations(t)
	})

	t.Run("returns error when listing pending events fails", func(t *testing.T) {
		events := new(MockEventStore)
		events.On("List", ctx, mock.AnythingOfType("repository.Query")).Return(nil, errors.New("db down"))

		worker := NewOutboxWorker(events, new(MockTrendPublisher), time.Second)

		err := worker.processPendingEvents(ctx)

		require.Error(t, err)
	})
}

func TestOutboxWorker_StartStopsOnContextCancel(t *testing.T) {
	events := new(MockEventStore)
	events.On("List", mock.Anything, mock.AnythingOfType("repository.Query")).Return([]repository.Resource{}, nil).Maybe()

	worker := NewOutboxWorker(events, new(MockTrendPublisher), 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after context cancellation")
	}
}
