package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mfgadmin/backend/internal/domain/shared"
	"github.com/mfgadmin/backend/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockEventHandler is a mock implementation of shared.EventHandler
type MockEventHandler struct {
	mock.Mock
}

func (m *MockEventHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventHandler) EventTypes() []string {
	args := m.Called()
	return args.Get(0).([]string)
}

// MockIdempotencyStore is a mock implementation of shared.IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockIdempotencyStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

func TestIdempotentHandler_Handle_NewEvent(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()

	mockHandler := new(MockEventHandler)
	event := newTestEvent("test.event")
	mockHandler.On("Handle", mock.Anything, event).Return(nil)

	handler := NewIdempotentHandler(mockHandler, store, zap.NewNop())
	err := handler.Handle(context.Background(), event)

	require.NoError(t, err)
	mockHandler.AssertExpectations(t)
	assert.Equal(t, int64(1), handler.GetMetrics().Stats().EventsProcessed)

	processed, err := store.IsProcessed(context.Background(), EventIDKey(event))
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestIdempotentHandler_Handle_DuplicateEvent(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()

	mockHandler := new(MockEventHandler)
	event := newTestEvent("test.event")
	mockHandler.On("Handle", mock.Anything, event).Return(nil).Once()

	handler := NewIdempotentHandler(mockHandler, store, zap.NewNop())
	require.NoError(t, handler.Handle(context.Background(), event))
	require.NoError(t, handler.Handle(context.Background(), event))

	mockHandler.AssertNumberOfCalls(t, "Handle", 1)
	stats := handler.GetMetrics().Stats()
	assert.Equal(t, int64(1), stats.EventsProcessed)
	assert.Equal(t, int64(1), stats.EventsDuplicate)
}

func TestIdempotentHandler_Handle_HandlerErrorReleasesKey(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()

	mockHandler := new(MockEventHandler)
	event := newTestEvent("test.event")
	mockHandler.On("Handle", mock.Anything, event).Return(errors.New("boom")).Once()
	mockHandler.On("Handle", mock.Anything, event).Return(nil).Once()

	handler := NewIdempotentHandler(mockHandler, store, zap.NewNop())

	err := handler.Handle(context.Background(), event)
	assert.EqualError(t, err, "boom")
	assert.Equal(t, int64(1), handler.GetMetrics().Stats().EventsFailed)

	require.NoError(t, handler.Handle(context.Background(), event))
	mockHandler.AssertNumberOfCalls(t, "Handle", 2)
}

func TestIdempotentHandler_Handle_StoreError(t *testing.T) {
	store := new(MockIdempotencyStore)
	mockHandler := new(MockEventHandler)
	event := newTestEvent("test.event")

	store.On("MarkProcessed", mock.Anything, EventIDKey(event), mock.Anything).Return(false, errors.New("redis down"))
	mockHandler.On("Handle", mock.Anything, event).Return(nil)

	handler := NewIdempotentHandler(mockHandler, store, zap.NewNop())
	err := handler.Handle(context.Background(), event)

	require.NoError(t, err)
	mockHandler.AssertExpectations(t)
}

func TestIdempotentHandler_Handle_Disabled(t *testing.T) {
	store := new(MockIdempotencyStore)
	mockHandler := new(MockEventHandler)
	event := newTestEvent("test.event")
	mockHandler.On("Handle", mock.Anything, event).Return(nil).Twice()

	handler := NewIdempotentHandler(mockHandler, store, zap.NewNop(),
		WithIdempotencyConfig(shared.IdempotencyConfig{Enabled: false}),
	)
	require.NoError(t, handler.Handle(context.Background(), event))
	require.NoError(t, handler.Handle(context.Background(), event))

	mockHandler.AssertExpectations(t)
	store.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything, mock.Anything)
}

func TestIdempotentHandler_DailyAggregateKey(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()

	clock := &movableClock{at: time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)}
	inner := newTestHandler("StockLowDetected")
	handler := NewIdempotentHandler(inner, store, zap.NewNop(), WithKeyFunc(DailyAggregateKey(clock)))

	itemID := uuid.New()
	raise := func() *testEvent {
		return &testEvent{BaseDomainEvent: shared.NewBaseDomainEvent("StockLowDetected", "StorageItem", itemID)}
	}

	require.NoError(t, handler.Handle(context.Background(), raise()))
	require.NoError(t, handler.Handle(context.Background(), raise()))
	assert.Len(t, inner.getHandled(), 1, "same item, same day")

	other := &testEvent{BaseDomainEvent: shared.NewBaseDomainEvent("StockLowDetected", "StorageItem", uuid.New())}
	require.NoError(t, handler.Handle(context.Background(), other))
	assert.Len(t, inner.getHandled(), 2, "another item")

	clock.at = clock.at.Add(24 * time.Hour)
	require.NoError(t, handler.Handle(context.Background(), raise()))
	assert.Len(t, inner.getHandled(), 3, "next day")
}

func TestIdempotentHandler_EventTypes(t *testing.T) {
	mockHandler := new(MockEventHandler)
	mockHandler.On("EventTypes").Return([]string{"a", "b"})

	handler := NewIdempotentHandler(mockHandler, new(MockIdempotencyStore), zap.NewNop())

	assert.Equal(t, []string{"a", "b"}, handler.EventTypes())
}

func TestIdempotentHandler_ConcurrentDuplicates(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()

	inner := newTestHandler("test.event")
	handler := NewIdempotentHandler(inner, store, zap.NewNop())
	event := newTestEvent("test.event")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = handler.Handle(context.Background(), event)
		}()
	}
	wg.Wait()

	assert.Len(t, inner.getHandled(), 1)
	assert.Equal(t, int64(19), handler.GetMetrics().Stats().EventsDuplicate)
}

type movableClock struct {
	at time.Time
}

func (c *movableClock) Now() time.Time { return c.at }
