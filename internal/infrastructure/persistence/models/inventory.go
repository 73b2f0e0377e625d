package models

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/mfgadmin/backend/internal/domain/inventory"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// StorageItemModel is the persistence model for the StorageItem aggregate root.
// Effective stock is not stored; it is evaluated on every read.
type StorageItemModel struct {
	AggregateModel
	Name                string             `gorm:"type:varchar(200);not null"`
	ArticleNumber       string             `gorm:"type:varchar(100);index"`
	ItemType            inventory.ItemType `gorm:"type:varchar(30);not null;index"`
	CategoryID          *uuid.UUID         `gorm:"type:uuid;index"`
	QuantityNew         int                `gorm:"not null;default:0"`
	QuantityUsed        int                `gorm:"not null;default:0"`
	QuantityReground    int                `gorm:"not null;default:0"`
	WeightNew           *decimal.Decimal   `gorm:"type:decimal(6,3)"`
	WeightUsed          *decimal.Decimal   `gorm:"type:decimal(6,3)"`
	WeightReground      *decimal.Decimal   `gorm:"type:decimal(6,3)"`
	EnableLowStockAlert bool               `gorm:"not null;default:false"`
	ReorderPoint        *decimal.Decimal   `gorm:"type:decimal(18,4)"`
	MaxQuantity         *decimal.Decimal   `gorm:"type:decimal(18,4)"`
	CustomFields        datatypes.JSONMap  `gorm:"type:jsonb"`
}

// TableName returns the table name for GORM
func (StorageItemModel) TableName() string {
	return "storage_items"
}

// ToDomain converts the persistence model to a domain StorageItem
func (m *StorageItemModel) ToDomain() *inventory.StorageItem {
	custom := make(map[string]any, len(m.CustomFields))
	for k, v := range m.CustomFields {
		custom[k] = normalizeJSONValue(v)
	}
	return &inventory.StorageItem{
		BaseAggregateRoot:   m.ToDomainAggregateRoot(),
		Name:                m.Name,
		ArticleNumber:       m.ArticleNumber,
		ItemType:            m.ItemType,
		CategoryID:          m.CategoryID,
		QuantityNew:         m.QuantityNew,
		QuantityUsed:        m.QuantityUsed,
		QuantityReground:    m.QuantityReground,
		WeightNew:           m.WeightNew,
		WeightUsed:          m.WeightUsed,
		WeightReground:      m.WeightReground,
		EnableLowStockAlert: m.EnableLowStockAlert,
		ReorderPoint:        m.ReorderPoint,
		MaxQuantity:         m.MaxQuantity,
		CustomFields:        custom,
	}
}

// FromDomain populates the persistence model from a domain StorageItem
func (m *StorageItemModel) FromDomain(s *inventory.StorageItem) {
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	m.Name = s.Name
	m.ArticleNumber = s.ArticleNumber
	m.ItemType = s.ItemType
	m.CategoryID = s.CategoryID
	m.QuantityNew = s.QuantityNew
	m.QuantityUsed = s.QuantityUsed
	m.QuantityReground = s.QuantityReground
	m.WeightNew = s.WeightNew
	m.WeightUsed = s.WeightUsed
	m.WeightReground = s.WeightReground
	m.EnableLowStockAlert = s.EnableLowStockAlert
	m.ReorderPoint = s.ReorderPoint
	m.MaxQuantity = s.MaxQuantity
	m.CustomFields = datatypes.JSONMap(s.CustomFields)
	if m.CustomFields == nil {
		m.CustomFields = datatypes.JSONMap{}
	}
}

// StorageItemModelFromDomain creates a new persistence model from a domain StorageItem
func StorageItemModelFromDomain(s *inventory.StorageItem) *StorageItemModel {
	m := &StorageItemModel{}
	m.FromDomain(s)
	return m
}

// normalizeJSONValue turns the json.Number produced by JSONMap.Scan back into
// the float64 the domain uses for number fields
func normalizeJSONValue(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}
