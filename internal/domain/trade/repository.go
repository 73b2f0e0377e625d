package trade

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PurchaseOrderFilter narrows a purchase order listing
type PurchaseOrderFilter struct {
	Status     *PurchaseOrderStatus
	SupplierID *uuid.UUID
	DateFrom   *time.Time // inclusive, compared with order_date
	DateTo     *time.Time // inclusive, compared with order_date
	Limit      int
	Offset     int
}

// PurchaseOrderRepository defines the interface for purchase order persistence
type PurchaseOrderRepository interface {
	// FindByID finds a purchase order with its items
	FindByID(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)

	// FindByIDForUpdate finds a purchase order with its items and locks the
	// order row until the surrounding transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)

	// FindAll finds purchase orders matching the filter, newest order date first
	FindAll(ctx context.Context, filter PurchaseOrderFilter) ([]PurchaseOrder, error)

	// Count counts purchase orders matching the filter, ignoring Limit and Offset
	Count(ctx context.Context, filter PurchaseOrderFilter) (int64, error)

	// CountByStatus counts purchase orders per status
	CountByStatus(ctx context.Context) (map[PurchaseOrderStatus]int64, error)

	// Save creates or updates a purchase order and its items
	Save(ctx context.Context, order *PurchaseOrder) error

	// SaveWithLock updates a purchase order and its items only if its version
	// is unchanged since it was loaded, and bumps the version
	SaveWithLock(ctx context.Context, order *PurchaseOrder) error

	// Delete deletes a purchase order and its items
	Delete(ctx context.Context, id uuid.UUID) error

	// GenerateOrderNumber generates the next order number for the given day
	GenerateOrderNumber(ctx context.Context, day time.Time) (string, error)
}
