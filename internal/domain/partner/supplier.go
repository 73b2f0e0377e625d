package partner

import (
	"strings"

	"github.com/mfgadmin/backend/internal/domain/shared"
)

// Supplier is a vendor purchase orders are placed with. Master data is
// maintained elsewhere; this context reads the name, the active flag and the
// default delivery lead time.
type Supplier struct {
	shared.BaseEntity
	Name             string
	DeliveryTimeDays *int
	IsActive         bool
}

// NewSupplier creates an active supplier
func NewSupplier(name string, deliveryTimeDays *int) (*Supplier, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewValidationError("INVALID_SUPPLIER_NAME", "Supplier name cannot be empty")
	}
	if deliveryTimeDays != nil && *deliveryTimeDays < 0 {
		return nil, shared.NewValidationError("INVALID_DELIVERY_TIME", "Delivery time cannot be negative")
	}
	return &Supplier{
		BaseEntity:       shared.NewBaseEntity(),
		Name:             name,
		DeliveryTimeDays: deliveryTimeDays,
		IsActive:         true,
	}, nil
}
