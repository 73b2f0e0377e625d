package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/mfgadmin/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypePurchaseOrder = "PurchaseOrder"

// Event type constants
const (
	EventTypePurchaseOrderCreated       = "PurchaseOrderCreated"
	EventTypePurchaseOrderSent          = "PurchaseOrderSent"
	EventTypePurchaseOrderConfirmed     = "PurchaseOrderConfirmed"
	EventTypePurchaseOrderGoodsReceived = "PurchaseOrderGoodsReceived"
	EventTypePurchaseOrderCancelled     = "PurchaseOrderCancelled"
)

// PurchaseOrderCreatedEvent is raised when a new purchase order is created
type PurchaseOrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	SupplierID  uuid.UUID       `json:"supplier_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// NewPurchaseOrderCreatedEvent creates a new PurchaseOrderCreatedEvent
func NewPurchaseOrderCreatedEvent(order *PurchaseOrder) *PurchaseOrderCreatedEvent {
	return &PurchaseOrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderCreated, AggregateTypePurchaseOrder, order.ID),
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		SupplierID:      order.SupplierID,
		TotalAmount:     order.TotalAmount,
	}
}

// PurchaseOrderSentEvent is raised when a draft is sent to the supplier
type PurchaseOrderSentEvent struct {
	shared.BaseDomainEvent
	OrderID              uuid.UUID  `json:"order_id"`
	OrderNumber          string     `json:"order_number"`
	SupplierID           uuid.UUID  `json:"supplier_id"`
	ExpectedDeliveryDate *time.Time `json:"expected_delivery_date,omitempty"`
	LeadTimeDays         int        `json:"lead_time_days"`
	LeadTimeSource       string     `json:"lead_time_source"`
}

// NewPurchaseOrderSentEvent creates a new PurchaseOrderSentEvent
func NewPurchaseOrderSentEvent(order *PurchaseOrder, estimate DeliveryEstimate) *PurchaseOrderSentEvent {
	return &PurchaseOrderSentEvent{
		BaseDomainEvent:      shared.NewBaseDomainEvent(EventTypePurchaseOrderSent, AggregateTypePurchaseOrder, order.ID),
		OrderID:              order.ID,
		OrderNumber:          order.OrderNumber,
		SupplierID:           order.SupplierID,
		ExpectedDeliveryDate: order.ExpectedDeliveryDate,
		LeadTimeDays:         estimate.LeadTimeDays,
		LeadTimeSource:       estimate.Source,
	}
}

// PurchaseOrderConfirmedEvent is raised when the supplier acknowledges an order
type PurchaseOrderConfirmedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
}

// NewPurchaseOrderConfirmedEvent creates a new PurchaseOrderConfirmedEvent
func NewPurchaseOrderConfirmedEvent(order *PurchaseOrder) *PurchaseOrderConfirmedEvent {
	return &PurchaseOrderConfirmedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderConfirmed, AggregateTypePurchaseOrder, order.ID),
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
	}
}

// PurchaseOrderGoodsReceivedEvent is raised for every goods receipt, full or partial
type PurchaseOrderGoodsReceivedEvent struct {
	shared.BaseDomainEvent
	OrderID      uuid.UUID           `json:"order_id"`
	OrderNumber  string              `json:"order_number"`
	Receipts     []Receipt           `json:"receipts"`
	ResultStatus PurchaseOrderStatus `json:"result_status"`
}

// NewPurchaseOrderGoodsReceivedEvent creates a new PurchaseOrderGoodsReceivedEvent
func NewPurchaseOrderGoodsReceivedEvent(order *PurchaseOrder, receipts []Receipt) *PurchaseOrderGoodsReceivedEvent {
	return &PurchaseOrderGoodsReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderGoodsReceived, AggregateTypePurchaseOrder, order.ID),
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		Receipts:        receipts,
		ResultStatus:    order.Status,
	}
}

// TotalQuantity sums the received quantities of the event
func (e *PurchaseOrderGoodsReceivedEvent) TotalQuantity() int {
	total := 0
	for _, r := range e.Receipts {
		total += r.Quantity
	}
	return total
}

// PurchaseOrderCancelledEvent is raised when a purchase order is cancelled
type PurchaseOrderCancelledEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	Reason      string    `json:"reason"`
	WasSent     bool      `json:"was_sent"`
}

// NewPurchaseOrderCancelledEvent creates a new PurchaseOrderCancelledEvent
func NewPurchaseOrderCancelledEvent(order *PurchaseOrder, wasSent bool) *PurchaseOrderCancelledEvent {
	return &PurchaseOrderCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderCancelled, AggregateTypePurchaseOrder, order.ID),
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		Reason:          order.CancelReason,
		WasSent:         wasSent,
	}
}
