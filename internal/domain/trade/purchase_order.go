package trade

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mfgadmin/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const maxNotesLength = 2000

// OrderDraft is the editable content of a purchase order, used both to
// create an order and to replace the content of a draft
type OrderDraft struct {
	SupplierID           uuid.UUID
	ExpectedDeliveryDate *time.Time
	Notes                string
	Lines                []OrderLine
}

// Validate checks every line before anything is written so a bulk create or
// update either applies completely or not at all
func (d OrderDraft) Validate() error {
	if d.SupplierID == uuid.Nil {
		return shared.NewValidationError("INVALID_SUPPLIER", "Supplier is required")
	}
	if len(d.Lines) == 0 {
		return shared.NewValidationError("NO_ITEMS", "Purchase order needs at least one item")
	}
	if len(d.Notes) > maxNotesLength {
		return shared.NewValidationError("INVALID_NOTES", fmt.Sprintf("Notes cannot exceed %d characters", maxNotesLength))
	}

	seen := make(map[uuid.UUID]struct{}, len(d.Lines))
	for idx, line := range d.Lines {
		if err := line.Validate(); err != nil {
			return itemError(idx, err)
		}
		if _, dup := seen[line.StorageItemID]; dup {
			return shared.NewValidationError("DUPLICATE_ITEM", fmt.Sprintf("Item %d: storage item %s is already on the order", idx+1, line.StorageItemID))
		}
		seen[line.StorageItemID] = struct{}{}
	}
	return nil
}

func itemError(idx int, err error) error {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return shared.NewValidationError(domainErr.Code, fmt.Sprintf("Item %d: %s", idx+1, domainErr.Message))
	}
	return err
}

// Receipt is the quantity credited to one order item by a goods receipt
type Receipt struct {
	ItemID        uuid.UUID `json:"item_id"`
	StorageItemID uuid.UUID `json:"storage_item_id"`
	Quantity      int       `json:"quantity"`
}

// PurchaseOrder represents a purchase order aggregate root.
// It manages the lifecycle of a supplier order from draft to receipt.
type PurchaseOrder struct {
	shared.BaseAggregateRoot
	OrderNumber          string
	SupplierID           uuid.UUID
	Status               PurchaseOrderStatus
	OrderDate            time.Time
	ExpectedDeliveryDate *time.Time
	SentDate             *time.Time
	ActualDeliveryDate   *time.Time
	TotalAmount          decimal.Decimal
	Notes                string
	CancelReason         string
	CancelledAt          *time.Time
	Items                []PurchaseOrderItem
}

// NewPurchaseOrder creates a new draft purchase order
func NewPurchaseOrder(orderNumber string, orderDate time.Time, draft OrderDraft) (*PurchaseOrder, error) {
	if strings.TrimSpace(orderNumber) == "" {
		return nil, shared.NewValidationError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if len(orderNumber) > 50 {
		return nil, shared.NewValidationError("INVALID_ORDER_NUMBER", "Order number cannot exceed 50 characters")
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	order := &PurchaseOrder{
		BaseAggregateRoot:    shared.NewBaseAggregateRoot(),
		OrderNumber:          orderNumber,
		SupplierID:           draft.SupplierID,
		Status:               PurchaseOrderStatusDraft,
		OrderDate:            shared.DateOf(orderDate),
		ExpectedDeliveryDate: draft.ExpectedDeliveryDate,
		Notes:                draft.Notes,
		Items:                make([]PurchaseOrderItem, 0, len(draft.Lines)),
	}
	for _, line := range draft.Lines {
		item, err := NewPurchaseOrderItem(order.ID, line)
		if err != nil {
			return nil, err
		}
		order.Items = append(order.Items, *item)
	}
	order.RecomputeTotals()

	order.AddDomainEvent(NewPurchaseOrderCreatedEvent(order))
	return order, nil
}

// Update replaces supplier, expected date, notes and items of a draft.
// Items for a storage item already on the order keep their ID.
func (o *PurchaseOrder) Update(draft OrderDraft) error {
	if err := o.Status.Guard(ActionUpdate); err != nil {
		return err
	}
	if err := draft.Validate(); err != nil {
		return err
	}

	existing := make(map[uuid.UUID]PurchaseOrderItem, len(o.Items))
	for _, item := range o.Items {
		existing[item.StorageItemID] = item
	}

	items := make([]PurchaseOrderItem, 0, len(draft.Lines))
	now := time.Now()
	for _, line := range draft.Lines {
		if prev, ok := existing[line.StorageItemID]; ok {
			prev.QuantityOrdered = line.Quantity
			prev.UnitPrice = line.UnitPrice
			prev.Notes = line.Notes
			prev.UpdatedAt = now
			prev.recomputeLineTotal()
			items = append(items, prev)
			continue
		}
		item, err := NewPurchaseOrderItem(o.ID, line)
		if err != nil {
			return err
		}
		items = append(items, *item)
	}

	o.SupplierID = draft.SupplierID
	o.ExpectedDeliveryDate = draft.ExpectedDeliveryDate
	o.Notes = draft.Notes
	o.Items = items
	o.RecomputeTotals()
	o.UpdatedAt = now
	return nil
}

// RecomputeTotals recomputes every line total and the order total. It must
// run after any change to the item list, quantities or prices.
func (o *PurchaseOrder) RecomputeTotals() {
	total := decimal.Zero
	for idx := range o.Items {
		o.Items[idx].recomputeLineTotal()
		total = total.Add(o.Items[idx].LineTotal)
	}
	o.TotalAmount = total
}

// EnsureDeletable returns a StateError unless the order may be deleted
func (o *PurchaseOrder) EnsureDeletable() error {
	return o.Status.Guard(ActionDelete)
}

// Send commits the draft to the supplier. The expected delivery date is
// taken from estimate, recomputed by the caller with today as anchor, and
// falls back to today when no lead time is known.
func (o *PurchaseOrder) Send(today time.Time, estimate DeliveryEstimate) error {
	if err := o.Status.Guard(ActionSend); err != nil {
		return err
	}
	if len(o.Items) == 0 {
		return shared.NewValidationError("NO_ITEMS", "Cannot send a purchase order without items")
	}
	for idx, item := range o.Items {
		if item.StorageItemID == uuid.Nil {
			return shared.NewValidationError("INVALID_STORAGE_ITEM", fmt.Sprintf("Item %d has no storage item", idx+1))
		}
	}

	day := shared.DateOf(today)
	expected := day
	if estimate.ExpectedDate != nil {
		expected = shared.DateOf(*estimate.ExpectedDate)
	}

	o.Status, _ = TargetOf(ActionSend)
	o.SentDate = &day
	o.ExpectedDeliveryDate = &expected
	o.UpdatedAt = time.Now()

	o.AddDomainEvent(NewPurchaseOrderSentEvent(o, estimate))
	return nil
}

// Confirm records that the supplier acknowledged the order
func (o *PurchaseOrder) Confirm() error {
	if err := o.Status.Guard(ActionConfirm); err != nil {
		return err
	}
	o.Status, _ = TargetOf(ActionConfirm)
	o.UpdatedAt = time.Now()

	o.AddDomainEvent(NewPurchaseOrderConfirmedEvent(o))
	return nil
}

// ReceiveAll receives the remaining quantity of every item and completes
// the order. It returns one receipt per item that still had something
// outstanding.
func (o *PurchaseOrder) ReceiveAll(receivedOn time.Time) ([]Receipt, error) {
	if err := o.Status.Guard(ActionReceive); err != nil {
		return nil, err
	}

	receipts := make([]Receipt, 0, len(o.Items))
	for _, item := range o.Items {
		if remaining := item.RemainingQuantity(); remaining > 0 {
			receipts = append(receipts, Receipt{ItemID: item.ID, StorageItemID: item.StorageItemID, Quantity: remaining})
		}
	}
	if len(receipts) == 0 {
		return nil, shared.NewValidationError("NOTHING_TO_RECEIVE", "Every item of this order is already fully received")
	}

	for _, r := range receipts {
		if err := o.GetItem(r.ItemID).addReceived(r.Quantity); err != nil {
			return nil, err
		}
	}
	o.recomputeStatus(receivedOn)

	o.AddDomainEvent(NewPurchaseOrderGoodsReceivedEvent(o, receipts))
	return receipts, nil
}

// ReceiveItem receives quantity of a single item. The quantity must be
// positive and not exceed what is still outstanding on the item.
func (o *PurchaseOrder) ReceiveItem(itemID uuid.UUID, quantity int, receivedOn time.Time) (Receipt, error) {
	if err := o.Status.Guard(ActionReceive); err != nil {
		return Receipt{}, err
	}
	item := o.GetItem(itemID)
	if item == nil {
		return Receipt{}, shared.NewDomainError(shared.CodeItemNotFound, "Order item not found")
	}

	remaining := item.RemainingQuantity()
	if quantity <= 0 {
		return Receipt{}, shared.NewValidationError(shared.CodeInvalidQuantity, "Received quantity must be positive")
	}
	if quantity > remaining {
		return Receipt{}, shared.NewValidationError(shared.CodeInvalidQuantity,
			fmt.Sprintf("Cannot receive %d, only %d remaining", quantity, remaining))
	}

	if err := item.addReceived(quantity); err != nil {
		return Receipt{}, err
	}
	o.recomputeStatus(receivedOn)

	receipt := Receipt{ItemID: item.ID, StorageItemID: item.StorageItemID, Quantity: quantity}
	o.AddDomainEvent(NewPurchaseOrderGoodsReceivedEvent(o, []Receipt{receipt}))
	return receipt, nil
}

// AddItemNote appends a note, such as a remark made at goods receipt, to an
// item's notes
func (o *PurchaseOrder) AddItemNote(itemID uuid.UUID, note string) error {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil
	}
	item := o.GetItem(itemID)
	if item == nil {
		return shared.NewDomainError(shared.CodeItemNotFound, "Order item not found")
	}
	if item.Notes != "" {
		note = item.Notes + "\n" + note
	}
	if len(note) > maxNotesLength {
		return shared.NewValidationError("INVALID_NOTES", fmt.Sprintf("Item notes cannot exceed %d characters", maxNotesLength))
	}
	item.Notes = note
	item.UpdatedAt = time.Now()
	return nil
}

// Cancel cancels an order nothing has been received for yet. Stock is never
// touched by a cancellation.
func (o *PurchaseOrder) Cancel(reason string) error {
	if err := o.Status.Guard(ActionCancel); err != nil {
		return err
	}
	if o.hasReceivedAnyGoods() {
		return shared.NewStateError("Cannot cancel purchase order after goods have been received")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewValidationError("INVALID_REASON", "Cancel reason is required")
	}
	if len(reason) > 500 {
		return shared.NewValidationError("INVALID_REASON", "Cancel reason cannot exceed 500 characters")
	}

	wasSent := o.Status != PurchaseOrderStatusDraft
	now := time.Now()
	o.Status, _ = TargetOf(ActionCancel)
	o.CancelReason = reason
	o.CancelledAt = &now
	o.UpdatedAt = now

	o.AddDomainEvent(NewPurchaseOrderCancelledEvent(o, wasSent))
	return nil
}

// recomputeStatus derives the receiving status from the item quantities
func (o *PurchaseOrder) recomputeStatus(receivedOn time.Time) {
	if o.isAllItemsReceived() {
		o.Status = PurchaseOrderStatusReceived
		day := shared.DateOf(receivedOn)
		o.ActualDeliveryDate = &day
	} else {
		o.Status = PurchaseOrderStatusPartiallyReceived
	}
	o.UpdatedAt = time.Now()
}

// isAllItemsReceived checks if all items have been fully received
func (o *PurchaseOrder) isAllItemsReceived() bool {
	for _, item := range o.Items {
		if !item.IsFullyReceived() {
			return false
		}
	}
	return len(o.Items) > 0
}

// hasReceivedAnyGoods checks if any goods have been received
func (o *PurchaseOrder) hasReceivedAnyGoods() bool {
	for _, item := range o.Items {
		if item.QuantityReceived > 0 {
			return true
		}
	}
	return false
}

// GetItem returns an item by its ID
func (o *PurchaseOrder) GetItem(itemID uuid.UUID) *PurchaseOrderItem {
	for idx := range o.Items {
		if o.Items[idx].ID == itemID {
			return &o.Items[idx]
		}
	}
	return nil
}

// StorageItemIDs returns the storage items referenced by the order
func (o *PurchaseOrder) StorageItemIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(o.Items))
	for _, item := range o.Items {
		ids = append(ids, item.StorageItemID)
	}
	return ids
}

// ItemCount returns the number of items in the order
func (o *PurchaseOrder) ItemCount() int {
	return len(o.Items)
}

// ReceiveProgress returns the receiving progress as a percentage (0-100)
func (o *PurchaseOrder) ReceiveProgress() decimal.Decimal {
	var ordered, received int64
	for _, item := range o.Items {
		ordered += int64(item.QuantityOrdered)
		received += int64(item.QuantityReceived)
	}
	if ordered == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(received).Div(decimal.NewFromInt(ordered)).Mul(decimal.NewFromInt(100)).Round(2)
}

// CanCancel reports whether Cancel would be accepted for a valid reason
func (o *PurchaseOrder) CanCancel() bool {
	return o.Status.CanCancel() && !o.hasReceivedAnyGoods()
}
