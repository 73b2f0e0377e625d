package partner

import (
	"context"

	"github.com/google/uuid"
)

// SupplierRepository reads suppliers
type SupplierRepository interface {
	// FindByID finds a supplier by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Supplier, error)

	// Save creates or updates a supplier
	Save(ctx context.Context, supplier *Supplier) error
}

// SupplierItemRepository reads and maintains supplier links of storage items
type SupplierItemRepository interface {
	// FindBySupplierAndStorageItems finds the links of one supplier to the given storage items
	FindBySupplierAndStorageItems(ctx context.Context, supplierID uuid.UUID, storageItemIDs []uuid.UUID) ([]SupplierItem, error)

	// FindPreferred finds the preferred link of a storage item, if any
	FindPreferred(ctx context.Context, storageItemID uuid.UUID) (*SupplierItem, error)

	// Save creates or updates a supplier link
	Save(ctx context.Context, item *SupplierItem) error

	// SetPreferred marks one link as preferred and clears the flag on every
	// other link of the same storage item
	SetPreferred(ctx context.Context, id uuid.UUID) error
}
