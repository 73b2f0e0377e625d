package trade

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mfgadmin/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PurchaseOrderItem represents a line item in a purchase order
type PurchaseOrderItem struct {
	ID               uuid.UUID
	OrderID          uuid.UUID
	StorageItemID    uuid.UUID
	QuantityOrdered  int
	QuantityReceived int
	UnitPrice        decimal.Decimal
	LineTotal        decimal.Decimal
	Notes            string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// OrderLine is the caller's description of one item of a draft order
type OrderLine struct {
	StorageItemID uuid.UUID
	Quantity      int
	UnitPrice     decimal.Decimal
	Notes         string
}

// Validate checks the line on its own
func (l OrderLine) Validate() error {
	if l.StorageItemID == uuid.Nil {
		return shared.NewValidationError("INVALID_STORAGE_ITEM", "Every order item needs a storage item")
	}
	if l.Quantity <= 0 {
		return shared.NewValidationError(shared.CodeInvalidQuantity, "Ordered quantity must be positive")
	}
	if l.UnitPrice.IsNegative() {
		return shared.NewValidationError("INVALID_PRICE", "Unit price cannot be negative")
	}
	return nil
}

// NewPurchaseOrderItem creates a new purchase order item
func NewPurchaseOrderItem(orderID uuid.UUID, line OrderLine) (*PurchaseOrderItem, error) {
	if err := line.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	item := &PurchaseOrderItem{
		ID:              uuid.New(),
		OrderID:         orderID,
		StorageItemID:   line.StorageItemID,
		QuantityOrdered: line.Quantity,
		UnitPrice:       line.UnitPrice,
		Notes:           line.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	item.recomputeLineTotal()
	return item, nil
}

func (i *PurchaseOrderItem) recomputeLineTotal() {
	i.LineTotal = decimal.NewFromInt(int64(i.QuantityOrdered)).Mul(i.UnitPrice)
}

// RemainingQuantity returns the quantity still to be received
func (i *PurchaseOrderItem) RemainingQuantity() int {
	remaining := i.QuantityOrdered - i.QuantityReceived
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsFullyReceived returns true if all ordered quantity has been received
func (i *PurchaseOrderItem) IsFullyReceived() bool {
	return i.QuantityReceived >= i.QuantityOrdered
}

// addReceived records quantity as received. Callers validate against the
// remaining quantity first; reaching the error here means that check was
// skipped.
func (i *PurchaseOrderItem) addReceived(quantity int) error {
	if quantity <= 0 || i.QuantityReceived+quantity > i.QuantityOrdered {
		return shared.NewConsistencyError(fmt.Sprintf(
			"Receiving %d would exceed the ordered quantity %d of item %s (already received %d)",
			quantity, i.QuantityOrdered, i.ID, i.QuantityReceived))
	}
	i.QuantityReceived += quantity
	i.UpdatedAt = time.Now()
	return nil
}
