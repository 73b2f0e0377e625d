package trade

import (
	"context"

	"github.com/mfgadmin/backend/internal/domain/inventory"
	"github.com/mfgadmin/backend/internal/domain/partner"
	"github.com/mfgadmin/backend/internal/domain/trade"
)

// TransactionScope provides transactional access to the repositories touched
// by purchase order transitions. All repository operations made through the
// repositories handed to fn are committed or rolled back together.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to repositories within a transaction.
// All repositories returned share the same underlying database transaction.
//
// The purchase order is the aggregate being transitioned. Storage items are
// separate aggregates; goods receipt locks and saves each touched storage item
// in the same transaction so on-hand and received quantities move together.
type TransactionalRepositories interface {
	// PurchaseOrderRepo returns the purchase order repository scoped to the current transaction
	PurchaseOrderRepo() trade.PurchaseOrderRepository
	// StorageItemRepo returns the storage item repository scoped to the current transaction
	StorageItemRepo() inventory.StorageItemRepository
	// SupplierRepo returns the supplier repository scoped to the current transaction
	SupplierRepo() partner.SupplierRepository
	// SupplierItemRepo returns the supplier link repository scoped to the current transaction
	SupplierItemRepo() partner.SupplierItemRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use transactions.
// This is useful for testing or when transaction support is not required.
type NoOpTransactionScope struct {
	orderRepo        trade.PurchaseOrderRepository
	storageItemRepo  inventory.StorageItemRepository
	supplierRepo     partner.SupplierRepository
	supplierItemRepo partner.SupplierItemRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	orderRepo trade.PurchaseOrderRepository,
	storageItemRepo inventory.StorageItemRepository,
	supplierRepo partner.SupplierRepository,
	supplierItemRepo partner.SupplierItemRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		orderRepo:        orderRepo,
		storageItemRepo:  storageItemRepo,
		supplierRepo:     supplierRepo,
		supplierItemRepo: supplierItemRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// PurchaseOrderRepo returns the purchase order repository.
func (s *NoOpTransactionScope) PurchaseOrderRepo() trade.PurchaseOrderRepository {
	return s.orderRepo
}

// StorageItemRepo returns the storage item repository.
func (s *NoOpTransactionScope) StorageItemRepo() inventory.StorageItemRepository {
	return s.storageItemRepo
}

// SupplierRepo returns the supplier repository.
func (s *NoOpTransactionScope) SupplierRepo() partner.SupplierRepository {
	return s.supplierRepo
}

// SupplierItemRepo returns the supplier link repository.
func (s *NoOpTransactionScope) SupplierItemRepo() partner.SupplierItemRepository {
	return s.supplierItemRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
