package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mfgadmin/backend/internal/domain/shared"
	"github.com/mfgadmin/backend/internal/domain/trade"
	"github.com/mfgadmin/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPurchaseOrderRepository implements PurchaseOrderRepository using GORM
type GormPurchaseOrderRepository struct {
	db *gorm.DB
}

// NewGormPurchaseOrderRepository creates a new GormPurchaseOrderRepository
func NewGormPurchaseOrderRepository(db *gorm.DB) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{db: db}
}

func orderedItems(db *gorm.DB) *gorm.DB {
	return db.Order("line_no ASC")
}

// FindByID finds a purchase order by its ID
func (r *GormPurchaseOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.PurchaseOrder, error) {
	var model models.PurchaseOrderModel
	if err := r.db.WithContext(ctx).
		Preload("Items", orderedItems).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a purchase order and locks the order row. Items are
// loaded in a second query; they are only ever written together with the
// locked order row.
func (r *GormPurchaseOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*trade.PurchaseOrder, error) {
	db := r.db.WithContext(ctx)

	var model models.PurchaseOrderModel
	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if err := orderedItems(db).Where("order_id = ?", id).Find(&model.Items).Error; err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds purchase orders matching the filter, newest order date first
func (r *GormPurchaseOrderRepository) FindAll(ctx context.Context, filter trade.PurchaseOrderFilter) ([]trade.PurchaseOrder, error) {
	var rows []models.PurchaseOrderModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.PurchaseOrderModel{}), filter).
		Order("order_date DESC").
		Order("created_at DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	if err := query.Preload("Items", orderedItems).Find(&rows).Error; err != nil {
		return nil, err
	}
	orders := make([]trade.PurchaseOrder, len(rows))
	for i := range rows {
		orders[i] = *rows[i].ToDomain()
	}
	return orders, nil
}

// Count counts purchase orders matching the filter
func (r *GormPurchaseOrderRepository) Count(ctx context.Context, filter trade.PurchaseOrderFilter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.PurchaseOrderModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByStatus counts purchase orders per status. Statuses without orders
// are reported with zero.
func (r *GormPurchaseOrderRepository) CountByStatus(ctx context.Context) (map[trade.PurchaseOrderStatus]int64, error) {
	var rows []struct {
		Status trade.PurchaseOrderStatus
		Count  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.PurchaseOrderModel{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[trade.PurchaseOrderStatus]int64, len(trade.AllPurchaseOrderStatuses))
	for _, s := range trade.AllPurchaseOrderStatuses {
		counts[s] = 0
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// Save creates or updates a purchase order and its items
func (r *GormPurchaseOrderRepository) Save(ctx context.Context, order *trade.PurchaseOrder) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.PurchaseOrderModelFromDomain(order)
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			return err
		}
		return r.syncItems(tx, order)
	})
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormPurchaseOrderRepository) SaveWithLock(ctx context.Context, order *trade.PurchaseOrder) error {
	now := time.Now()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.PurchaseOrderModel{}).
			Where("id = ? AND version = ?", order.ID, order.Version).
			Updates(map[string]any{
				"supplier_id":            order.SupplierID,
				"status":                 order.Status,
				"order_date":             order.OrderDate,
				"expected_delivery_date": order.ExpectedDeliveryDate,
				"sent_date":              order.SentDate,
				"actual_delivery_date":   order.ActualDeliveryDate,
				"total_amount":           order.TotalAmount,
				"notes":                  order.Notes,
				"cancel_reason":          order.CancelReason,
				"cancelled_at":           order.CancelledAt,
				"version":                order.Version + 1,
				"updated_at":             now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewDomainError(shared.CodeConcurrencyConflict, "The purchase order has been modified by another request")
		}
		return r.syncItems(tx, order)
	})
	if err != nil {
		return err
	}
	order.Version++
	order.UpdatedAt = now
	return nil
}

// syncItems deletes items no longer on the order and upserts the rest
func (r *GormPurchaseOrderRepository) syncItems(tx *gorm.DB, order *trade.PurchaseOrder) error {
	keep := make([]uuid.UUID, len(order.Items))
	for i := range order.Items {
		keep[i] = order.Items[i].ID
	}

	stale := tx.Where("order_id = ?", order.ID)
	if len(keep) > 0 {
		stale = stale.Where("id NOT IN ?", keep)
	}
	if err := stale.Delete(&models.PurchaseOrderItemModel{}).Error; err != nil {
		return err
	}

	for i := range order.Items {
		order.Items[i].OrderID = order.ID
		if err := tx.Save(models.PurchaseOrderItemModelFromDomain(&order.Items[i], i+1)).Error; err != nil {
			return err
		}
	}
	return nil
}

// Delete deletes a purchase order and its items
func (r *GormPurchaseOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.PurchaseOrderItemModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.PurchaseOrderModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// GenerateOrderNumber generates the next order number of a day.
// Format: PO-YYYYMMDD-NNNN (e.g., PO-20250310-0001)
func (r *GormPurchaseOrderRepository) GenerateOrderNumber(ctx context.Context, day time.Time) (string, error) {
	prefix := fmt.Sprintf("PO-%s-", day.Format("20060102"))

	var last models.PurchaseOrderModel
	err := r.db.WithContext(ctx).
		Model(&models.PurchaseOrderModel{}).
		Select("order_number").
		Where("order_number LIKE ?", prefix+"%").
		Order("order_number DESC").
		Take(&last).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	next := 1
	if err == nil {
		var num int
		if _, scanErr := fmt.Sscanf(strings.TrimPrefix(last.OrderNumber, prefix), "%d", &num); scanErr == nil {
			next = num + 1
		}
	}

	for attempt := 0; attempt < 100; attempt++ {
		candidate := fmt.Sprintf("%s%04d", prefix, next)
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&models.PurchaseOrderModel{}).
			Where("order_number = ?", candidate).
			Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
		next++
	}
	return "", fmt.Errorf("failed to generate unique order number for prefix %s", prefix)
}

func (r *GormPurchaseOrderRepository) applyFilter(query *gorm.DB, filter trade.PurchaseOrderFilter) *gorm.DB {
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.SupplierID != nil {
		query = query.Where("supplier_id = ?", *filter.SupplierID)
	}
	if filter.DateFrom != nil {
		query = query.Where("order_date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("order_date <= ?", *filter.DateTo)
	}
	return query
}

// Ensure GormPurchaseOrderRepository implements PurchaseOrderRepository
var _ trade.PurchaseOrderRepository = (*GormPurchaseOrderRepository)(nil)
