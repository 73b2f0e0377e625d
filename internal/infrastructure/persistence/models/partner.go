package models

import (
	"github.com/google/uuid"
	"github.com/mfgadmin/backend/internal/domain/partner"
	"github.com/shopspring/decimal"
)

// SupplierModel is the persistence model for suppliers
type SupplierModel struct {
	BaseModel
	Name             string `gorm:"type:varchar(200);not null"`
	DeliveryTimeDays *int
	IsActive         bool `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (SupplierModel) TableName() string {
	return "suppliers"
}

// ToDomain converts the persistence model to a domain Supplier
func (m *SupplierModel) ToDomain() *partner.Supplier {
	return &partner.Supplier{
		BaseEntity:       m.BaseModel.ToDomain(),
		Name:             m.Name,
		DeliveryTimeDays: m.DeliveryTimeDays,
		IsActive:         m.IsActive,
	}
}

// SupplierModelFromDomain creates a new persistence model from a domain Supplier
func SupplierModelFromDomain(s *partner.Supplier) *SupplierModel {
	m := &SupplierModel{
		Name:             s.Name,
		DeliveryTimeDays: s.DeliveryTimeDays,
		IsActive:         s.IsActive,
	}
	m.FromDomainBaseEntity(s.BaseEntity)
	return m
}

// SupplierItemModel is the persistence model for supplier links of storage items
type SupplierItemModel struct {
	BaseModel
	SupplierID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_supplier_item_pair,priority:1"`
	StorageItemID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_supplier_item_pair,priority:2;index"`
	LeadTimeDays  *int
	UnitPrice     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	IsPreferred   bool            `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (SupplierItemModel) TableName() string {
	return "supplier_items"
}

// ToDomain converts the persistence model to a domain SupplierItem
func (m *SupplierItemModel) ToDomain() *partner.SupplierItem {
	return &partner.SupplierItem{
		BaseEntity:    m.BaseModel.ToDomain(),
		SupplierID:    m.SupplierID,
		StorageItemID: m.StorageItemID,
		LeadTimeDays:  m.LeadTimeDays,
		UnitPrice:     m.UnitPrice,
		IsPreferred:   m.IsPreferred,
	}
}

// SupplierItemModelFromDomain creates a new persistence model from a domain SupplierItem
func SupplierItemModelFromDomain(i *partner.SupplierItem) *SupplierItemModel {
	m := &SupplierItemModel{
		SupplierID:    i.SupplierID,
		StorageItemID: i.StorageItemID,
		LeadTimeDays:  i.LeadTimeDays,
		UnitPrice:     i.UnitPrice,
		IsPreferred:   i.IsPreferred,
	}
	m.FromDomainBaseEntity(i.BaseEntity)
	return m
}
