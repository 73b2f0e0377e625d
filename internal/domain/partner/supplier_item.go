package partner

import (
	"github.com/google/uuid"
	"github.com/mfgadmin/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// SupplierItem links a supplier to a storage item it delivers. LeadTimeDays,
// when set, overrides the supplier's default for that item.
type SupplierItem struct {
	shared.BaseEntity
	SupplierID    uuid.UUID
	StorageItemID uuid.UUID
	LeadTimeDays  *int
	UnitPrice     decimal.Decimal
	IsPreferred   bool
}

// NewSupplierItem creates a supplier link for a storage item
func NewSupplierItem(supplierID, storageItemID uuid.UUID, unitPrice decimal.Decimal, leadTimeDays *int) (*SupplierItem, error) {
	if supplierID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_SUPPLIER", "Supplier ID cannot be empty")
	}
	if storageItemID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_STORAGE_ITEM", "Storage item ID cannot be empty")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewValidationError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if leadTimeDays != nil && *leadTimeDays < 0 {
		return nil, shared.NewValidationError("INVALID_LEAD_TIME", "Lead time cannot be negative")
	}
	return &SupplierItem{
		BaseEntity:    shared.NewBaseEntity(),
		SupplierID:    supplierID,
		StorageItemID: storageItemID,
		LeadTimeDays:  leadTimeDays,
		UnitPrice:     unitPrice,
	}, nil
}

// LeadTimesByStorageItem indexes the lead times of links by storage item
func LeadTimesByStorageItem(links []SupplierItem) map[uuid.UUID]*int {
	out := make(map[uuid.UUID]*int, len(links))
	for i := range links {
		out[links[i].StorageItemID] = links[i].LeadTimeDays
	}
	return out
}
