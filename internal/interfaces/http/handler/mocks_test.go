package handler

import (
	"context"

	"github.com/google/uuid"
	inventoryapp "github.com/mfgadmin/backend/internal/application/inventory"
	tradeapp "github.com/mfgadmin/backend/internal/application/trade"
	"github.com/stretchr/testify/mock"
)

type mockOrderService struct {
	mock.Mock
}

func (m *mockOrderService) order(args mock.Arguments) (*tradeapp.PurchaseOrderResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.PurchaseOrderResponse), args.Error(1)
}

func (m *mockOrderService) Create(ctx context.Context, req tradeapp.CreatePurchaseOrderRequest) (*tradeapp.PurchaseOrderResponse, error) {
	return m.order(m.Called(ctx, req))
}

func (m *mockOrderService) GetByID(ctx context.Context, id uuid.UUID) (*tradeapp.PurchaseOrderResponse, error) {
	return m.order(m.Called(ctx, id))
}

func (m *mockOrderService) List(ctx context.Context, filter tradeapp.PurchaseOrderListFilter) ([]tradeapp.PurchaseOrderListItemResponse, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]tradeapp.PurchaseOrderListItemResponse), args.Get(1).(int64), args.Error(2)
}

func (m *mockOrderService) Update(ctx context.Context, id uuid.UUID, req tradeapp.UpdatePurchaseOrderRequest) (*tradeapp.PurchaseOrderResponse, error) {
	return m.order(m.Called(ctx, id, req))
}

func (m *mockOrderService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockOrderService) Send(ctx context.Context, id uuid.UUID) (*tradeapp.PurchaseOrderResponse, error) {
	return m.order(m.Called(ctx, id))
}

func (m *mockOrderService) Confirm(ctx context.Context, id uuid.UUID) (*tradeapp.PurchaseOrderResponse, error) {
	return m.order(m.Called(ctx, id))
}

func (m *mockOrderService) Cancel(ctx context.Context, id uuid.UUID, req tradeapp.CancelPurchaseOrderRequest) (*tradeapp.PurchaseOrderResponse, error) {
	return m.order(m.Called(ctx, id, req))
}

func (m *mockOrderService) PreviewDeliveryEstimate(ctx context.Context, id uuid.UUID) (*tradeapp.DeliveryEstimateResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.DeliveryEstimateResponse), args.Error(1)
}

func (m *mockOrderService) GetStatusSummary(ctx context.Context) (*tradeapp.PurchaseOrderStatusSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.PurchaseOrderStatusSummary), args.Error(1)
}

type mockReceivingService struct {
	mock.Mock
}

func (m *mockReceivingService) ReceiveAll(ctx context.Context, orderID uuid.UUID, req tradeapp.ReceivePurchaseOrderRequest, key string) (*tradeapp.ReceiveResultResponse, error) {
	args := m.Called(ctx, orderID, req, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.ReceiveResultResponse), args.Error(1)
}

func (m *mockReceivingService) ReceiveItem(ctx context.Context, orderID, itemID uuid.UUID, req tradeapp.ReceiveItemRequest, key string) (*tradeapp.ReceiveResultResponse, error) {
	args := m.Called(ctx, orderID, itemID, req, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.ReceiveResultResponse), args.Error(1)
}

type mockStorageItemService struct {
	mock.Mock
}

func (m *mockStorageItemService) GetByID(ctx context.Context, id uuid.UUID) (*inventoryapp.StorageItemResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventoryapp.StorageItemResponse), args.Error(1)
}

func (m *mockStorageItemService) List(ctx context.Context, filter inventoryapp.StorageItemListFilter) ([]inventoryapp.StorageItemResponse, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]inventoryapp.StorageItemResponse), args.Get(1).(int64), args.Error(2)
}

func (m *mockStorageItemService) ListLowStock(ctx context.Context) ([]inventoryapp.StorageItemResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventoryapp.StorageItemResponse), args.Error(1)
}

func (m *mockStorageItemService) ExportAll(ctx context.Context, filter inventoryapp.StorageItemListFilter) ([]inventoryapp.StorageItemResponse, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventoryapp.StorageItemResponse), args.Error(1)
}

func (m *mockStorageItemService) UpdateCustomFields(ctx context.Context, id uuid.UUID, req inventoryapp.UpdateCustomFieldsRequest) (*inventoryapp.StorageItemResponse, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventoryapp.StorageItemResponse), args.Error(1)
}

type recordingObserver struct {
	seen []string
}

func (o *recordingObserver) ObserveReceipt(mode, outcome string) {
	o.seen = append(o.seen, mode+":"+outcome)
}
