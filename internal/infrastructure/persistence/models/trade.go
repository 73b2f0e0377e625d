package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/mfgadmin/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// PurchaseOrderModel is the persistence model for the PurchaseOrder aggregate root.
type PurchaseOrderModel struct {
	AggregateModel
	OrderNumber          string                    `gorm:"type:varchar(50);not null;uniqueIndex"`
	SupplierID           uuid.UUID                 `gorm:"type:uuid;not null;index"`
	Status               trade.PurchaseOrderStatus `gorm:"type:varchar(30);not null;default:'draft';index"`
	OrderDate            time.Time                 `gorm:"type:date;not null;index"`
	ExpectedDeliveryDate *time.Time                `gorm:"type:date"`
	SentDate             *time.Time                `gorm:"type:date"`
	ActualDeliveryDate   *time.Time                `gorm:"type:date"`
	TotalAmount          decimal.Decimal           `gorm:"type:decimal(18,4);not null;default:0"`
	Notes                string                    `gorm:"type:text"`
	CancelReason         string                    `gorm:"type:varchar(500)"`
	CancelledAt          *time.Time
	Items                []PurchaseOrderItemModel `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (PurchaseOrderModel) TableName() string {
	return "purchase_orders"
}

// ToDomain converts the persistence model to a domain PurchaseOrder entity.
func (m *PurchaseOrderModel) ToDomain() *trade.PurchaseOrder {
	order := &trade.PurchaseOrder{
		BaseAggregateRoot:    m.ToDomainAggregateRoot(),
		OrderNumber:          m.OrderNumber,
		SupplierID:           m.SupplierID,
		Status:               m.Status,
		OrderDate:            m.OrderDate,
		ExpectedDeliveryDate: m.ExpectedDeliveryDate,
		SentDate:             m.SentDate,
		ActualDeliveryDate:   m.ActualDeliveryDate,
		TotalAmount:          m.TotalAmount,
		Notes:                m.Notes,
		CancelReason:         m.CancelReason,
		CancelledAt:          m.CancelledAt,
		Items:                make([]trade.PurchaseOrderItem, len(m.Items)),
	}
	for i := range m.Items {
		order.Items[i] = *m.Items[i].ToDomain()
	}
	return order
}

// FromDomain populates the persistence model from a domain PurchaseOrder entity.
func (m *PurchaseOrderModel) FromDomain(o *trade.PurchaseOrder) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.OrderNumber = o.OrderNumber
	m.SupplierID = o.SupplierID
	m.Status = o.Status
	m.OrderDate = o.OrderDate
	m.ExpectedDeliveryDate = o.ExpectedDeliveryDate
	m.SentDate = o.SentDate
	m.ActualDeliveryDate = o.ActualDeliveryDate
	m.TotalAmount = o.TotalAmount
	m.Notes = o.Notes
	m.CancelReason = o.CancelReason
	m.CancelledAt = o.CancelledAt
	m.Items = make([]PurchaseOrderItemModel, len(o.Items))
	for i := range o.Items {
		m.Items[i] = *PurchaseOrderItemModelFromDomain(&o.Items[i], i+1)
	}
}

// PurchaseOrderModelFromDomain creates a new persistence model from a domain PurchaseOrder entity.
func PurchaseOrderModelFromDomain(o *trade.PurchaseOrder) *PurchaseOrderModel {
	m := &PurchaseOrderModel{}
	m.FromDomain(o)
	return m
}

// PurchaseOrderItemModel is the persistence model for the PurchaseOrderItem entity.
type PurchaseOrderItemModel struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNo           int             `gorm:"not null;default:0"`
	StorageItemID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	QuantityOrdered  int             `gorm:"not null"`
	QuantityReceived int             `gorm:"not null;default:0"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	LineTotal        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Notes            string          `gorm:"type:varchar(500)"`
	CreatedAt        time.Time       `gorm:"not null"`
	UpdatedAt        time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PurchaseOrderItemModel) TableName() string {
	return "purchase_order_items"
}

// ToDomain converts the persistence model to a domain PurchaseOrderItem entity.
func (m *PurchaseOrderItemModel) ToDomain() *trade.PurchaseOrderItem {
	return &trade.PurchaseOrderItem{
		ID:               m.ID,
		OrderID:          m.OrderID,
		StorageItemID:    m.StorageItemID,
		QuantityOrdered:  m.QuantityOrdered,
		QuantityReceived: m.QuantityReceived,
		UnitPrice:        m.UnitPrice,
		LineTotal:        m.LineTotal,
		Notes:            m.Notes,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

// PurchaseOrderItemModelFromDomain creates a new persistence model from a domain
// PurchaseOrderItem entity at the given 1-based line position.
func PurchaseOrderItemModelFromDomain(i *trade.PurchaseOrderItem, lineNo int) *PurchaseOrderItemModel {
	return &PurchaseOrderItemModel{
		ID:               i.ID,
		OrderID:          i.OrderID,
		LineNo:           lineNo,
		StorageItemID:    i.StorageItemID,
		QuantityOrdered:  i.QuantityOrdered,
		QuantityReceived: i.QuantityReceived,
		UnitPrice:        i.UnitPrice,
		LineTotal:        i.LineTotal,
		Notes:            i.Notes,
		CreatedAt:        i.CreatedAt,
		UpdatedAt:        i.UpdatedAt,
	}
}
