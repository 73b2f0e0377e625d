package inventory

import (
	"github.com/google/uuid"
	"github.com/mfgadmin/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeStorageItem = "StorageItem"

// Event type constants
const (
	EventTypeStockReceived    = "StockReceived"
	EventTypeStockLowDetected = "StockLowDetected"
)

// StockReceivedEvent is raised when goods receipt credits a condition bucket
type StockReceivedEvent struct {
	shared.BaseDomainEvent
	StorageItemID  uuid.UUID `json:"storage_item_id"`
	Condition      Condition `json:"condition"`
	Quantity       int       `json:"quantity"`
	QuantityBefore int       `json:"quantity_before"`
	QuantityAfter  int       `json:"quantity_after"`
	SourceOrderID  uuid.UUID `json:"source_order_id"`
}

// NewStockReceivedEvent creates a new StockReceivedEvent
func NewStockReceivedEvent(item *StorageItem, condition Condition, quantity, before int, orderID uuid.UUID) *StockReceivedEvent {
	return &StockReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockReceived, AggregateTypeStorageItem, item.ID),
		StorageItemID:   item.ID,
		Condition:       condition,
		Quantity:        quantity,
		QuantityBefore:  before,
		QuantityAfter:   item.QuantityOf(condition),
		SourceOrderID:   orderID,
	}
}

// StockLowDetectedEvent is raised when an item's effective stock is at or
// below its reorder point
type StockLowDetectedEvent struct {
	shared.BaseDomainEvent
	StorageItemID  uuid.UUID       `json:"storage_item_id"`
	Name           string          `json:"name"`
	ArticleNumber  string          `json:"article_number"`
	ItemType       ItemType        `json:"item_type"`
	TotalQuantity  int             `json:"total_quantity"`
	EffectiveStock decimal.Decimal `json:"effective_stock"`
	ReorderPoint   decimal.Decimal `json:"reorder_point"`
}

// NewStockLowDetectedEvent creates a StockLowDetectedEvent for item. The
// caller is expected to have checked the valuation's low-stock flag.
func NewStockLowDetectedEvent(item *StorageItem, valuation StockValuation) *StockLowDetectedEvent {
	reorder := decimal.Zero
	if item.ReorderPoint != nil {
		reorder = *item.ReorderPoint
	}
	return &StockLowDetectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockLowDetected, AggregateTypeStorageItem, item.ID),
		StorageItemID:   item.ID,
		Name:            item.Name,
		ArticleNumber:   item.ArticleNumber,
		ItemType:        item.ItemType,
		TotalQuantity:   valuation.TotalQuantity,
		EffectiveStock:  valuation.EffectiveStock,
		ReorderPoint:    reorder,
	}
}
