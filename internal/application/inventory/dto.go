package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/mfgadmin/backend/internal/domain/inventory"
	"github.com/mfgadmin/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// StorageItemResponse represents a storage item with its stock valuation
type StorageItemResponse struct {
	ID                  uuid.UUID        `json:"id"`
	Name                string           `json:"name"`
	ArticleNumber       string           `json:"article_number"`
	ItemType            string           `json:"item_type"`
	CategoryID          *uuid.UUID       `json:"category_id,omitempty"`
	QuantityNew         int              `json:"quantity_new"`
	QuantityUsed        int              `json:"quantity_used"`
	QuantityReground    int              `json:"quantity_reground"`
	WeightNew           decimal.Decimal  `json:"weight_new"`
	WeightUsed          decimal.Decimal  `json:"weight_used"`
	WeightReground      decimal.Decimal  `json:"weight_reground"`
	EnableLowStockAlert bool             `json:"enable_low_stock_alert"`
	ReorderPoint        *decimal.Decimal `json:"reorder_point"`
	MaxQuantity         *decimal.Decimal `json:"max_quantity"`
	CustomFields        map[string]any   `json:"custom_fields"`

	// Derived on every read
	TotalQuantity     int              `json:"total_quantity"`
	EffectiveStock    decimal.Decimal  `json:"effective_stock"`
	IsLowStock        bool             `json:"is_low_stock"`
	StockLevelPercent *decimal.Decimal `json:"stock_level_percent"`

	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StorageItemListFilter represents filter options for the storage item list
type StorageItemListFilter struct {
	Search     string `form:"search" binding:"omitempty,max=100"`
	ItemType   string `form:"item_type" binding:"omitempty,oneof=tool insert accessory clamping_device fixture measuring_equipment"`
	CategoryID string `form:"category_id" binding:"omitempty,uuid"`
	AlertOnly  bool   `form:"alert_only"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string `form:"order_by"`
	OrderDir   string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// UpdateCustomFieldsRequest replaces the custom field values of a storage item
type UpdateCustomFieldsRequest struct {
	CustomFields map[string]any `json:"custom_fields" binding:"required"`
	Version      *int           `json:"version"`
}

// LowStockScanResult summarizes one low-stock scan
type LowStockScanResult struct {
	Checked  int         `json:"checked"`
	LowStock int         `json:"low_stock"`
	ItemIDs  []uuid.UUID `json:"item_ids"`
}

// ToStorageItemResponse converts a storage item and evaluates its stock
func ToStorageItemResponse(item *inventory.StorageItem) StorageItemResponse {
	v := item.Valuation()
	fields := item.CustomFields
	if fields == nil {
		fields = map[string]any{}
	}
	return StorageItemResponse{
		ID:                  item.ID,
		Name:                item.Name,
		ArticleNumber:       item.ArticleNumber,
		ItemType:            string(item.ItemType),
		CategoryID:          item.CategoryID,
		QuantityNew:         item.QuantityNew,
		QuantityUsed:        item.QuantityUsed,
		QuantityReground:    item.QuantityReground,
		WeightNew:           weightOrDefault(item.WeightNew, inventory.DefaultWeightNew),
		WeightUsed:          weightOrDefault(item.WeightUsed, inventory.DefaultWeightUsed),
		WeightReground:      weightOrDefault(item.WeightReground, inventory.DefaultWeightReground),
		EnableLowStockAlert: item.EnableLowStockAlert,
		ReorderPoint:        item.ReorderPoint,
		MaxQuantity:         item.MaxQuantity,
		CustomFields:        fields,
		TotalQuantity:       v.TotalQuantity,
		EffectiveStock:      v.EffectiveStock,
		IsLowStock:          v.IsLowStock,
		StockLevelPercent:   v.StockLevelPercent,
		Version:             item.Version,
		CreatedAt:           item.CreatedAt,
		UpdatedAt:           item.UpdatedAt,
	}
}

// ToStorageItemResponses converts a slice of storage items
func ToStorageItemResponses(items []inventory.StorageItem) []StorageItemResponse {
	responses := make([]StorageItemResponse, len(items))
	for i := range items {
		responses[i] = ToStorageItemResponse(&items[i])
	}
	return responses
}

func weightOrDefault(w *decimal.Decimal, def decimal.Decimal) decimal.Decimal {
	if w == nil {
		return def
	}
	return *w
}

// toDomainFilter converts the query filter to a repository filter
func (f StorageItemListFilter) toDomainFilter() shared.Filter {
	filter := shared.DefaultFilter()
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = f.PageSize
	}
	filter.Search = f.Search
	filter.OrderBy = f.OrderBy
	filter.OrderDir = f.OrderDir
	filter.Filters = map[string]any{}
	if f.ItemType != "" {
		filter.Filters["item_type"] = f.ItemType
	}
	if f.CategoryID != "" {
		filter.Filters["category_id"] = f.CategoryID
	}
	if f.AlertOnly {
		filter.Filters["low_stock_alert"] = true
	}
	return filter
}
