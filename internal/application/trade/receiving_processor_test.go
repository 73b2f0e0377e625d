package trade

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mfgadmin/backend/internal/domain/inventory"
	"github.com/mfgadmin/backend/internal/domain/shared"
	"github.com/mfgadmin/backend/internal/domain/trade"
	"github.com/mfgadmin/backend/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestProcessor(rs *repoSet) (*ReceivingProcessor, *recordingPublisher) {
	p := NewReceivingProcessor(rs.scope, zap.NewNop())
	p.SetClock(shared.FixedClock{At: testToday})
	pub := &recordingPublisher{}
	p.SetEventPublisher(pub)
	return p, pub
}

// newSentOrder returns a sent order with one line per storage item
func newSentOrder(t *testing.T, qty int, items ...*inventory.StorageItem) *trade.PurchaseOrder {
	t.Helper()
	order := newTestOrder(t, uuid.New(), qty, items...)
	require.NoError(t, order.Send(testToday, trade.DeliveryEstimate{}))
	order.ClearDomainEvents()
	return order
}

func expectReceipt(rs *repoSet, order *trade.PurchaseOrder, items ...*inventory.StorageItem) {
	rs.orders.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)
	rs.orders.On("SaveWithLock", mock.Anything, order).Return(nil)
	for _, item := range items {
		rs.storageItems.On("FindByIDForUpdate", mock.Anything, item.ID).Return(item, nil)
		rs.storageItems.On("SaveWithLock", mock.Anything, item).Return(nil)
	}
}

func TestReceivingProcessor_ReceiveItem(t *testing.T) {
	ctx := context.Background()

	t.Run("partial receipts move the order to received", func(t *testing.T) {
		rs := newRepoSet()
		p, pub := newTestProcessor(rs)
		item := newTestStorageItem(t, "Drill")
		order := newSentOrder(t, 10, item)
		lineID := order.Items[0].ID
		expectReceipt(rs, order, item)

		first, err := p.ReceiveItem(ctx, order.ID, lineID, ReceiveItemRequest{QuantityReceived: 6}, "")
		require.NoError(t, err)
		assert.Equal(t, "partially_received", first.Order.Status)
		assert.False(t, first.IsFullyReceived)
		assert.Equal(t, 4, first.Order.Items[0].RemainingQuantity)
		assert.Equal(t, 6, item.QuantityNew)
		assert.Nil(t, first.Order.ActualDeliveryDate)

		second, err := p.ReceiveItem(ctx, order.ID, lineID, ReceiveItemRequest{
			QuantityReceived:   4,
			ActualDeliveryDate: strPtr("2025-03-12"),
		}, "")
		require.NoError(t, err)
		assert.Equal(t, "received", second.Order.Status)
		assert.True(t, second.IsFullyReceived)
		require.NotNil(t, second.Order.ActualDeliveryDate)
		assert.Equal(t, "2025-03-12", *second.Order.ActualDeliveryDate)
		assert.Equal(t, 10, item.QuantityNew)
		require.Len(t, second.Receipts, 1)
		assert.Equal(t, 4, second.Receipts[0].Quantity)

		assert.Equal(t, []string{
			trade.EventTypePurchaseOrderGoodsReceived, inventory.EventTypeStockReceived,
			trade.EventTypePurchaseOrderGoodsReceived, inventory.EventTypeStockReceived,
		}, pub.types())
		rs.assertExpectations(t)
	})

	t.Run("credits the requested condition bucket and keeps the note", func(t *testing.T) {
		rs := newRepoSet()
		p, _ := newTestProcessor(rs)
		item := newTestStorageItem(t, "Insert")
		order := newSentOrder(t, 5, item)
		expectReceipt(rs, order, item)

		result, err := p.ReceiveItem(ctx, order.ID, order.Items[0].ID, ReceiveItemRequest{
			QuantityReceived: 3,
			Condition:        "reground",
			Notes:            "two boxes dented",
		}, "")

		require.NoError(t, err)
		assert.Equal(t, 0, item.QuantityNew)
		assert.Equal(t, 3, item.QuantityReground)
		assert.Equal(t, "two boxes dented", result.Order.Items[0].Notes)
	})

	t.Run("rejects over-delivery without touching stock", func(t *testing.T) {
		rs := newRepoSet()
		p, pub := newTestProcessor(rs)
		item := newTestStorageItem(t, "Tap")
		order := newSentOrder(t, 10, item)
		rs.orders.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)

		_, err := p.ReceiveItem(ctx, order.ID, order.Items[0].ID, ReceiveItemRequest{QuantityReceived: 11}, "")

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, shared.CodeInvalidQuantity, domainErr.Code)
		assert.Equal(t, 0, order.Items[0].QuantityReceived)
		assert.Equal(t, 0, item.QuantityNew)
		rs.storageItems.AssertNotCalled(t, "FindByIDForUpdate", mock.Anything, mock.Anything)
		rs.orders.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
		assert.Empty(t, pub.types())
	})

	t.Run("rejects receipts on a draft", func(t *testing.T) {
		rs := newRepoSet()
		p, _ := newTestProcessor(rs)
		order := newTestOrder(t, uuid.New(), 2, newTestStorageItem(t, "Reamer"))
		rs.orders.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)

		_, err := p.ReceiveItem(ctx, order.ID, order.Items[0].ID, ReceiveItemRequest{QuantityReceived: 1}, "")

		assert.True(t, shared.IsStateError(err))
	})

	t.Run("rejects an unknown condition before opening a transaction", func(t *testing.T) {
		rs := newRepoSet()
		p, _ := newTestProcessor(rs)

		_, err := p.ReceiveItem(ctx, uuid.New(), uuid.New(), ReceiveItemRequest{QuantityReceived: 1, Condition: "broken"}, "")

		assert.True(t, shared.IsValidationError(err))
		rs.orders.AssertNotCalled(t, "FindByIDForUpdate", mock.Anything, mock.Anything)
	})

	t.Run("reports a dangling storage item as a consistency violation", func(t *testing.T) {
		rs := newRepoSet()
		p, _ := newTestProcessor(rs)
		item := newTestStorageItem(t, "Gone")
		order := newSentOrder(t, 2, item)
		rs.orders.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)
		rs.storageItems.On("FindByIDForUpdate", mock.Anything, item.ID).Return(nil, shared.ErrNotFound)

		_, err := p.ReceiveItem(ctx, order.ID, order.Items[0].ID, ReceiveItemRequest{QuantityReceived: 1}, "")

		assert.True(t, shared.IsConsistencyError(err))
		rs.orders.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})
}

func TestReceivingProcessor_ReceiveAll(t *testing.T) {
	ctx := context.Background()

	t.Run("receives everything outstanding with per-line conditions", func(t *testing.T) {
		rs := newRepoSet()
		p, pub := newTestProcessor(rs)
		a := newTestStorageItem(t, "A")
		b := newTestStorageItem(t, "B")
		order := newSentOrder(t, 4, a, b)
		_, err := order.ReceiveItem(order.Items[0].ID, 1, testToday)
		require.NoError(t, err)
		order.ClearDomainEvents()
		expectReceipt(rs, order, a, b)

		result, err := p.ReceiveAll(ctx, order.ID, ReceivePurchaseOrderRequest{
			Condition: "used",
			Items:     []ReceiveItemInput{{ItemID: order.Items[1].ID, QuantityReceived: 4, Condition: "new"}},
		}, "")

		require.NoError(t, err)
		assert.True(t, result.IsFullyReceived)
		assert.Equal(t, "received", result.Order.Status)
		require.Len(t, result.Receipts, 2)
		assert.Equal(t, 3, result.Receipts[0].Quantity)
		assert.Equal(t, 3, a.QuantityUsed)
		assert.Equal(t, 4, b.QuantityNew)
		assert.Equal(t, "2025-03-10", *result.Order.ActualDeliveryDate)
		assert.Equal(t, []string{
			trade.EventTypePurchaseOrderGoodsReceived, inventory.EventTypeStockReceived, inventory.EventTypeStockReceived,
		}, pub.types())
		rs.assertExpectations(t)
	})

	t.Run("rejects a line stating less than ordered", func(t *testing.T) {
		rs := newRepoSet()
		p, _ := newTestProcessor(rs)
		item := newTestStorageItem(t, "A")
		order := newSentOrder(t, 4, item)
		rs.orders.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)

		_, err := p.ReceiveAll(ctx, order.ID, ReceivePurchaseOrderRequest{
			Items: []ReceiveItemInput{{ItemID: order.Items[0].ID, QuantityReceived: 3}},
		}, "")

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, shared.CodeInvalidQuantity, domainErr.Code)
		assert.Equal(t, trade.PurchaseOrderStatusSent, order.Status)
	})

	t.Run("accepts the outstanding quantity on a partially received line", func(t *testing.T) {
		rs := newRepoSet()
		p, _ := newTestProcessor(rs)
		item := newTestStorageItem(t, "A")
		order := newSentOrder(t, 10, item)
		_, err := order.ReceiveItem(order.Items[0].ID, 6, testToday)
		require.NoError(t, err)
		order.ClearDomainEvents()
		expectReceipt(rs, order, item)

		result, err := p.ReceiveAll(ctx, order.ID, ReceivePurchaseOrderRequest{
			Items: []ReceiveItemInput{{ItemID: order.Items[0].ID, QuantityReceived: 4, Condition: "reground"}},
		}, "")

		require.NoError(t, err)
		assert.Equal(t, "received", result.Order.Status)
		require.Len(t, result.Receipts, 1)
		assert.Equal(t, 4, result.Receipts[0].Quantity)
		assert.Equal(t, 4, item.QuantityReground)
		assert.Equal(t, 10, order.Items[0].QuantityReceived)
	})

	t.Run("rejects a line stating neither ordered nor outstanding", func(t *testing.T) {
		rs := newRepoSet()
		p, _ := newTestProcessor(rs)
		item := newTestStorageItem(t, "A")
		order := newSentOrder(t, 10, item)
		_, err := order.ReceiveItem(order.Items[0].ID, 6, testToday)
		require.NoError(t, err)
		rs.orders.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)

		_, err = p.ReceiveAll(ctx, order.ID, ReceivePurchaseOrderRequest{
			Items: []ReceiveItemInput{{ItemID: order.Items[0].ID, QuantityReceived: 3}},
		}, "")

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, shared.CodeInvalidQuantity, domainErr.Code)
		assert.Equal(t, 6, order.Items[0].QuantityReceived)
	})

	t.Run("rejects a line of another order", func(t *testing.T) {
		rs := newRepoSet()
		p, _ := newTestProcessor(rs)
		order := newSentOrder(t, 4, newTestStorageItem(t, "A"))
		rs.orders.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)

		_, err := p.ReceiveAll(ctx, order.ID, ReceivePurchaseOrderRequest{
			Items: []ReceiveItemInput{{ItemID: uuid.New()}},
		}, "")

		assert.True(t, shared.IsNotFoundError(err))
	})

	t.Run("maps a missing order to not found", func(t *testing.T) {
		rs := newRepoSet()
		p, _ := newTestProcessor(rs)
		id := uuid.New()
		rs.orders.On("FindByIDForUpdate", mock.Anything, id).Return(nil, shared.ErrNotFound)

		_, err := p.ReceiveAll(ctx, id, ReceivePurchaseOrderRequest{}, "")

		assert.True(t, shared.IsNotFoundError(err))
	})
}

func TestReceivingProcessor_Idempotency(t *testing.T) {
	ctx := context.Background()

	t.Run("a replayed key is rejected and stock is unchanged", func(t *testing.T) {
		rs := newRepoSet()
		p, _ := newTestProcessor(rs)
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()
		p.SetIdempotencyStore(store, shared.DefaultIdempotencyConfig())

		item := newTestStorageItem(t, "A")
		order := newSentOrder(t, 10, item)
		expectReceipt(rs, order, item)

		_, err := p.ReceiveItem(ctx, order.ID, order.Items[0].ID, ReceiveItemRequest{QuantityReceived: 2}, "key-1")
		require.NoError(t, err)

		_, err = p.ReceiveItem(ctx, order.ID, order.Items[0].ID, ReceiveItemRequest{QuantityReceived: 2}, "key-1")

		assert.ErrorIs(t, err, shared.ErrDuplicateRequest)
		assert.Equal(t, 2, item.QuantityNew)
		assert.Equal(t, 2, order.Items[0].QuantityReceived)
		rs.orders.AssertNumberOfCalls(t, "FindByIDForUpdate", 1)
	})

	t.Run("the same key may be used on another order", func(t *testing.T) {
		rs := newRepoSet()
		p, _ := newTestProcessor(rs)
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()
		p.SetIdempotencyStore(store, shared.DefaultIdempotencyConfig())

		item := newTestStorageItem(t, "A")
		first := newSentOrder(t, 5, item)
		second := newSentOrder(t, 5, item)
		expectReceipt(rs, first, item)
		expectReceipt(rs, second)

		_, err := p.ReceiveAll(ctx, first.ID, ReceivePurchaseOrderRequest{}, "shared-key")
		require.NoError(t, err)
		_, err = p.ReceiveAll(ctx, second.ID, ReceivePurchaseOrderRequest{}, "shared-key")
		require.NoError(t, err)

		assert.Equal(t, 10, item.QuantityNew)
	})

	t.Run("a failed receipt releases the key for a retry", func(t *testing.T) {
		rs := newRepoSet()
		p, _ := newTestProcessor(rs)
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()
		p.SetIdempotencyStore(store, shared.DefaultIdempotencyConfig())

		item := newTestStorageItem(t, "A")
		order := newSentOrder(t, 10, item)
		rs.orders.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)
		rs.storageItems.On("FindByIDForUpdate", mock.Anything, item.ID).Return(item, nil)
		rs.storageItems.On("SaveWithLock", mock.Anything, item).Return(shared.ErrConcurrencyConflict).Once()

		_, err := p.ReceiveItem(ctx, order.ID, order.Items[0].ID, ReceiveItemRequest{QuantityReceived: 2}, "retry-key")
		require.ErrorIs(t, err, shared.ErrConcurrencyConflict)

		processed, err := store.IsProcessed(ctx, receiptKeyPrefix+order.ID.String()+":retry-key")
		require.NoError(t, err)
		assert.False(t, processed)
	})

	t.Run("a broken store does not block receiving", func(t *testing.T) {
		rs := newRepoSet()
		p, _ := newTestProcessor(rs)
		p.SetIdempotencyStore(failingStore{}, shared.DefaultIdempotencyConfig())

		item := newTestStorageItem(t, "A")
		order := newSentOrder(t, 3, item)
		expectReceipt(rs, order, item)

		_, err := p.ReceiveAll(ctx, order.ID, ReceivePurchaseOrderRequest{}, "key")

		require.NoError(t, err)
		assert.Equal(t, 3, item.QuantityNew)
	})
}

type failingStore struct{}

func (failingStore) MarkProcessed(context.Context, string, time.Duration) (bool, error) {
	return false, errors.New("redis unavailable")
}

func (failingStore) IsProcessed(context.Context, string) (bool, error) {
	return false, errors.New("redis unavailable")
}

func (failingStore) Release(context.Context, string) error { return nil }

func (failingStore) Close() error { return nil }

func TestReceivingProcessor_ReceiptDateIsUTCDay(t *testing.T) {
	p := NewReceivingProcessor(newRepoSet().scope, zap.NewNop())
	// 23:30 in New York is already the next day in UTC
	p.SetClock(shared.FixedClock{At: time.Date(2025, 3, 10, 23, 30, 0, 0, time.FixedZone("EST", -5*3600))})

	today, err := p.receiptDate(nil)
	require.NoError(t, err)
	requested := "2025-03-11"
	stated, err := p.receiptDate(&requested)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), today)
	assert.Equal(t, today, stated)
}
