package trade

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mfgadmin/backend/internal/domain/inventory"
	"github.com/mfgadmin/backend/internal/domain/partner"
	"github.com/mfgadmin/backend/internal/domain/shared"
	"github.com/mfgadmin/backend/internal/domain/trade"
	"github.com/stretchr/testify/mock"
)

// MockPurchaseOrderRepository is a mock implementation of PurchaseOrderRepository
type MockPurchaseOrderRepository struct {
	mock.Mock
}

func (m *MockPurchaseOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.PurchaseOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.PurchaseOrder), args.Error(1)
}

func (m *MockPurchaseOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*trade.PurchaseOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.PurchaseOrder), args.Error(1)
}

func (m *MockPurchaseOrderRepository) FindAll(ctx context.Context, filter trade.PurchaseOrderFilter) ([]trade.PurchaseOrder, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]trade.PurchaseOrder), args.Error(1)
}

func (m *MockPurchaseOrderRepository) Count(ctx context.Context, filter trade.PurchaseOrderFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPurchaseOrderRepository) CountByStatus(ctx context.Context) (map[trade.PurchaseOrderStatus]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[trade.PurchaseOrderStatus]int64), args.Error(1)
}

func (m *MockPurchaseOrderRepository) Save(ctx context.Context, order *trade.PurchaseOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockPurchaseOrderRepository) SaveWithLock(ctx context.Context, order *trade.PurchaseOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockPurchaseOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPurchaseOrderRepository) GenerateOrderNumber(ctx context.Context, day time.Time) (string, error) {
	args := m.Called(ctx, day)
	return args.String(0), args.Error(1)
}

// MockStorageItemRepository is a mock implementation of StorageItemRepository
type MockStorageItemRepository struct {
	mock.Mock
}

func (m *MockStorageItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StorageItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.StorageItem), args.Error(1)
}

func (m *MockStorageItemRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*inventory.StorageItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.StorageItem), args.Error(1)
}

func (m *MockStorageItemRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]inventory.StorageItem, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.StorageItem), args.Error(1)
}

func (m *MockStorageItemRepository) FindAll(ctx context.Context, filter shared.Filter) ([]inventory.StorageItem, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.StorageItem), args.Error(1)
}

func (m *MockStorageItemRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStorageItemRepository) FindAlertCandidates(ctx context.Context) ([]inventory.StorageItem, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.StorageItem), args.Error(1)
}

func (m *MockStorageItemRepository) Save(ctx context.Context, item *inventory.StorageItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockStorageItemRepository) SaveWithLock(ctx context.Context, item *inventory.StorageItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

// MockSupplierRepository is a mock implementation of SupplierRepository
type MockSupplierRepository struct {
	mock.Mock
}

func (m *MockSupplierRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Supplier, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Supplier), args.Error(1)
}

func (m *MockSupplierRepository) Save(ctx context.Context, supplier *partner.Supplier) error {
	args := m.Called(ctx, supplier)
	return args.Error(0)
}

// MockSupplierItemRepository is a mock implementation of SupplierItemRepository
type MockSupplierItemRepository struct {
	mock.Mock
}

func (m *MockSupplierItemRepository) FindBySupplierAndStorageItems(ctx context.Context, supplierID uuid.UUID, storageItemIDs []uuid.UUID) ([]partner.SupplierItem, error) {
	args := m.Called(ctx, supplierID, storageItemIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]partner.SupplierItem), args.Error(1)
}

func (m *MockSupplierItemRepository) FindPreferred(ctx context.Context, storageItemID uuid.UUID) (*partner.SupplierItem, error) {
	args := m.Called(ctx, storageItemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.SupplierItem), args.Error(1)
}

func (m *MockSupplierItemRepository) Save(ctx context.Context, item *partner.SupplierItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockSupplierItemRepository) SetPreferred(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// recordingPublisher collects published events
type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

// repoSet bundles the mocks behind a NoOpTransactionScope
type repoSet struct {
	orders        *MockPurchaseOrderRepository
	storageItems  *MockStorageItemRepository
	suppliers     *MockSupplierRepository
	supplierItems *MockSupplierItemRepository
	scope         *NoOpTransactionScope
}

func newRepoSet() *repoSet {
	rs := &repoSet{
		orders:        new(MockPurchaseOrderRepository),
		storageItems:  new(MockStorageItemRepository),
		suppliers:     new(MockSupplierRepository),
		supplierItems: new(MockSupplierItemRepository),
	}
	rs.scope = NewNoOpTransactionScope(rs.orders, rs.storageItems, rs.suppliers, rs.supplierItems)
	return rs
}

func (rs *repoSet) assertExpectations(t mock.TestingT) {
	rs.orders.AssertExpectations(t)
	rs.storageItems.AssertExpectations(t)
	rs.suppliers.AssertExpectations(t)
	rs.supplierItems.AssertExpectations(t)
}
