package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/mfgadmin/backend/internal/domain/shared"
	"github.com/mfgadmin/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of calendar dates
const DateLayout = "2006-01-02"

// ==================== Purchase Order DTOs ====================

// PurchaseOrderItemInput represents an item in a create or update request
type PurchaseOrderItemInput struct {
	StorageItemID uuid.UUID        `json:"storage_item_id" binding:"required"`
	Quantity      int              `json:"quantity" binding:"required,gt=0"`
	UnitPrice     *decimal.Decimal `json:"unit_price"` // defaults to the preferred supplier's price
	Notes         string           `json:"notes" binding:"max=500"`
}

// CreatePurchaseOrderRequest represents a request to create a purchase order
type CreatePurchaseOrderRequest struct {
	SupplierID           uuid.UUID                `json:"supplier_id" binding:"required"`
	ExpectedDeliveryDate *string                  `json:"expected_delivery_date" binding:"omitempty,datetime=2006-01-02"`
	Notes                string                   `json:"notes" binding:"max=2000"`
	Items                []PurchaseOrderItemInput `json:"items" binding:"required,min=1,dive"`
}

// UpdatePurchaseOrderRequest replaces the content of a draft purchase order
type UpdatePurchaseOrderRequest CreatePurchaseOrderRequest

// ReceiveItemInput is one line of a full receipt. It exists to let clients
// state a condition per line. A non-zero quantity must equal either the
// ordered quantity or what is still outstanding on the line.
type ReceiveItemInput struct {
	ItemID           uuid.UUID `json:"item_id" binding:"required"`
	QuantityReceived int       `json:"quantity_received" binding:"min=0"`
	Condition        string    `json:"condition" binding:"omitempty,item_condition"`
}

// ReceivePurchaseOrderRequest represents a request to receive everything still outstanding
type ReceivePurchaseOrderRequest struct {
	ActualDeliveryDate *string            `json:"actual_delivery_date" binding:"omitempty,datetime=2006-01-02"`
	Condition          string             `json:"condition" binding:"omitempty,item_condition"`
	Items              []ReceiveItemInput `json:"items" binding:"omitempty,dive"`
}

// ReceiveItemRequest represents a partial receipt of a single order item
type ReceiveItemRequest struct {
	QuantityReceived   int     `json:"quantity_received"`
	Condition          string  `json:"condition" binding:"omitempty,item_condition"`
	Notes              string  `json:"notes" binding:"max=500"`
	ActualDeliveryDate *string `json:"actual_delivery_date" binding:"omitempty,datetime=2006-01-02"`
}

// CancelPurchaseOrderRequest represents a request to cancel a purchase order
type CancelPurchaseOrderRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// PurchaseOrderListFilter represents filter options for purchase order list
type PurchaseOrderListFilter struct {
	Status     string `form:"status" binding:"omitempty,oneof=draft sent confirmed partially_received received cancelled"`
	SupplierID string `form:"supplier_id" binding:"omitempty,uuid"`
	DateFrom   string `form:"date_from" binding:"omitempty,datetime=2006-01-02"`
	DateTo     string `form:"date_to" binding:"omitempty,datetime=2006-01-02"`
	Limit      int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset     int    `form:"offset" binding:"omitempty,min=0"`
}

// PurchaseOrderItemResponse represents a purchase order item in API responses
type PurchaseOrderItemResponse struct {
	ID                uuid.UUID       `json:"id"`
	StorageItemID     uuid.UUID       `json:"storage_item_id"`
	QuantityOrdered   int             `json:"quantity_ordered"`
	QuantityReceived  int             `json:"quantity_received"`
	RemainingQuantity int             `json:"remaining_quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	LineTotal         decimal.Decimal `json:"line_total"`
	Notes             string          `json:"notes,omitempty"`
}

// PurchaseOrderResponse represents a purchase order in API responses
type PurchaseOrderResponse struct {
	ID                   uuid.UUID                   `json:"id"`
	OrderNumber          string                      `json:"order_number"`
	SupplierID           uuid.UUID                   `json:"supplier_id"`
	Status               string                      `json:"status"`
	OrderDate            string                      `json:"order_date"`
	ExpectedDeliveryDate *string                     `json:"expected_delivery_date"`
	SentDate             *string                     `json:"sent_date"`
	ActualDeliveryDate   *string                     `json:"actual_delivery_date"`
	TotalAmount          decimal.Decimal             `json:"total_amount"`
	Notes                string                      `json:"notes"`
	CancelReason         string                      `json:"cancel_reason,omitempty"`
	CancelledAt          *time.Time                  `json:"cancelled_at,omitempty"`
	Items                []PurchaseOrderItemResponse `json:"items"`
	ItemCount            int                         `json:"item_count"`
	ReceiveProgress      decimal.Decimal             `json:"receive_progress"`
	CanEdit              bool                        `json:"can_edit"`
	CanDelete            bool                        `json:"can_delete"`
	CanSend              bool                        `json:"can_send"`
	CanConfirm           bool                        `json:"can_confirm"`
	CanReceive           bool                        `json:"can_receive"`
	CanCancel            bool                        `json:"can_cancel"`
	Version              int                         `json:"version"`
	CreatedAt            time.Time                   `json:"created_at"`
	UpdatedAt            time.Time                   `json:"updated_at"`
}

// PurchaseOrderListItemResponse represents a purchase order in list responses
type PurchaseOrderListItemResponse struct {
	ID                   uuid.UUID       `json:"id"`
	OrderNumber          string          `json:"order_number"`
	SupplierID           uuid.UUID       `json:"supplier_id"`
	Status               string          `json:"status"`
	OrderDate            string          `json:"order_date"`
	ExpectedDeliveryDate *string         `json:"expected_delivery_date"`
	TotalAmount          decimal.Decimal `json:"total_amount"`
	ItemCount            int             `json:"item_count"`
	ReceiveProgress      decimal.Decimal `json:"receive_progress"`
	CreatedAt            time.Time       `json:"created_at"`
}

// ReceiveResultResponse represents the result of a goods receipt
type ReceiveResultResponse struct {
	Order           PurchaseOrderResponse `json:"order"`
	Receipts        []trade.Receipt       `json:"receipts"`
	IsFullyReceived bool                  `json:"is_fully_received"`
}

// DeliveryEstimateResponse represents the lead time an order would get if sent today
type DeliveryEstimateResponse struct {
	LeadTimeDays int     `json:"lead_time_days"`
	ExpectedDate *string `json:"expected_date"`
	Source       string  `json:"source"`
}

// PurchaseOrderStatusSummary represents purchase order counts per status
type PurchaseOrderStatusSummary struct {
	Total             int64 `json:"total"`
	Draft             int64 `json:"draft"`
	Sent              int64 `json:"sent"`
	Confirmed         int64 `json:"confirmed"`
	PartiallyReceived int64 `json:"partially_received"`
	Received          int64 `json:"received"`
	Cancelled         int64 `json:"cancelled"`
	PendingReceipt    int64 `json:"pending_receipt"`
}

// ToPurchaseOrderResponse converts a domain PurchaseOrder to PurchaseOrderResponse
func ToPurchaseOrderResponse(order *trade.PurchaseOrder) PurchaseOrderResponse {
	items := make([]PurchaseOrderItemResponse, len(order.Items))
	for i := range order.Items {
		items[i] = ToPurchaseOrderItemResponse(&order.Items[i])
	}

	return PurchaseOrderResponse{
		ID:                   order.ID,
		OrderNumber:          order.OrderNumber,
		SupplierID:           order.SupplierID,
		Status:               order.Status.String(),
		OrderDate:            order.OrderDate.Format(DateLayout),
		ExpectedDeliveryDate: formatDate(order.ExpectedDeliveryDate),
		SentDate:             formatDate(order.SentDate),
		ActualDeliveryDate:   formatDate(order.ActualDeliveryDate),
		TotalAmount:          order.TotalAmount,
		Notes:                order.Notes,
		CancelReason:         order.CancelReason,
		CancelledAt:          order.CancelledAt,
		Items:                items,
		ItemCount:            order.ItemCount(),
		ReceiveProgress:      order.ReceiveProgress(),
		CanEdit:              order.Status.CanEdit(),
		CanDelete:            order.Status.CanDelete(),
		CanSend:              order.Status.CanSend(),
		CanConfirm:           order.Status.CanConfirm(),
		CanReceive:           order.Status.CanReceive(),
		CanCancel:            order.CanCancel(),
		Version:              order.Version,
		CreatedAt:            order.CreatedAt,
		UpdatedAt:            order.UpdatedAt,
	}
}

// ToPurchaseOrderItemResponse converts a domain PurchaseOrderItem to PurchaseOrderItemResponse
func ToPurchaseOrderItemResponse(item *trade.PurchaseOrderItem) PurchaseOrderItemResponse {
	return PurchaseOrderItemResponse{
		ID:                item.ID,
		StorageItemID:     item.StorageItemID,
		QuantityOrdered:   item.QuantityOrdered,
		QuantityReceived:  item.QuantityReceived,
		RemainingQuantity: item.RemainingQuantity(),
		UnitPrice:         item.UnitPrice,
		LineTotal:         item.LineTotal,
		Notes:             item.Notes,
	}
}

// ToPurchaseOrderListItemResponse converts a domain PurchaseOrder to PurchaseOrderListItemResponse
func ToPurchaseOrderListItemResponse(order *trade.PurchaseOrder) PurchaseOrderListItemResponse {
	return PurchaseOrderListItemResponse{
		ID:                   order.ID,
		OrderNumber:          order.OrderNumber,
		SupplierID:           order.SupplierID,
		Status:               order.Status.String(),
		OrderDate:            order.OrderDate.Format(DateLayout),
		ExpectedDeliveryDate: formatDate(order.ExpectedDeliveryDate),
		TotalAmount:          order.TotalAmount,
		ItemCount:            order.ItemCount(),
		ReceiveProgress:      order.ReceiveProgress(),
		CreatedAt:            order.CreatedAt,
	}
}

// ToDeliveryEstimateResponse converts a domain DeliveryEstimate
func ToDeliveryEstimateResponse(est trade.DeliveryEstimate) DeliveryEstimateResponse {
	return DeliveryEstimateResponse{
		LeadTimeDays: est.LeadTimeDays,
		ExpectedDate: formatDate(est.ExpectedDate),
		Source:       est.Source,
	}
}

// ToStatusSummary converts per-status counts into a summary
func ToStatusSummary(counts map[trade.PurchaseOrderStatus]int64) PurchaseOrderStatusSummary {
	summary := PurchaseOrderStatusSummary{
		Draft:             counts[trade.PurchaseOrderStatusDraft],
		Sent:              counts[trade.PurchaseOrderStatusSent],
		Confirmed:         counts[trade.PurchaseOrderStatusConfirmed],
		PartiallyReceived: counts[trade.PurchaseOrderStatusPartiallyReceived],
		Received:          counts[trade.PurchaseOrderStatusReceived],
		Cancelled:         counts[trade.PurchaseOrderStatusCancelled],
	}
	for _, n := range counts {
		summary.Total += n
	}
	summary.PendingReceipt = summary.Sent + summary.Confirmed + summary.PartiallyReceived
	return summary
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(DateLayout)
	return &s
}

// parseDate parses an optional wire date
func parseDate(field string, s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, *s)
	if err != nil {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, field+" must be a date in YYYY-MM-DD format")
	}
	return &t, nil
}

// toRepoFilter converts list query parameters into a repository filter
func (f PurchaseOrderListFilter) toRepoFilter() (trade.PurchaseOrderFilter, error) {
	out := trade.PurchaseOrderFilter{Limit: f.Limit, Offset: f.Offset}
	if out.Limit <= 0 {
		out.Limit = 20
	}
	if out.Limit > 100 {
		out.Limit = 100
	}
	if out.Offset < 0 {
		out.Offset = 0
	}

	if f.Status != "" {
		status, err := trade.ParsePurchaseOrderStatus(f.Status)
		if err != nil {
			return out, err
		}
		out.Status = &status
	}
	if f.SupplierID != "" {
		id, err := uuid.Parse(f.SupplierID)
		if err != nil {
			return out, shared.NewValidationError(shared.CodeInvalidInput, "supplier_id must be a UUID")
		}
		out.SupplierID = &id
	}

	var err error
	if out.DateFrom, err = parseDate("date_from", &f.DateFrom); err != nil {
		return out, err
	}
	if out.DateTo, err = parseDate("date_to", &f.DateTo); err != nil {
		return out, err
	}
	if out.DateFrom != nil && out.DateTo != nil && out.DateTo.Before(*out.DateFrom) {
		return out, shared.NewValidationError(shared.CodeInvalidInput, "date_to cannot be before date_from")
	}
	return out, nil
}
