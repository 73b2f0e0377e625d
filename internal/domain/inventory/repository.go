package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/mfgadmin/backend/internal/domain/shared"
)

// StorageItemRepository defines the interface for storage item persistence
type StorageItemRepository interface {
	// FindByID finds a storage item by ID
	FindByID(ctx context.Context, id uuid.UUID) (*StorageItem, error)

	// FindByIDForUpdate finds a storage item and locks its row until the
	// surrounding transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*StorageItem, error)

	// FindByIDs finds all storage items with the given IDs
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]StorageItem, error)

	// FindAll finds storage items with filtering and pagination.
	// Supported filters: item_type, category_id, low_stock_alert (bool)
	FindAll(ctx context.Context, filter shared.Filter) ([]StorageItem, error)

	// Count counts storage items matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// FindAlertCandidates finds weighted items that have the low-stock alert
	// enabled and a reorder point set
	FindAlertCandidates(ctx context.Context) ([]StorageItem, error)

	// Save creates or updates a storage item
	Save(ctx context.Context, item *StorageItem) error

	// SaveWithLock updates a storage item only if its version is unchanged
	// since it was loaded, and bumps the version
	SaveWithLock(ctx context.Context, item *StorageItem) error
}
