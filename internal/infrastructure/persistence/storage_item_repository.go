package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mfgadmin/backend/internal/domain/inventory"
	"github.com/mfgadmin/backend/internal/domain/shared"
	"github.com/mfgadmin/backend/internal/infrastructure/persistence/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStorageItemRepository implements StorageItemRepository using GORM
type GormStorageItemRepository struct {
	db *gorm.DB
}

// NewGormStorageItemRepository creates a new GormStorageItemRepository
func NewGormStorageItemRepository(db *gorm.DB) *GormStorageItemRepository {
	return &GormStorageItemRepository{db: db}
}

// FindByID finds a storage item by its ID
func (r *GormStorageItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StorageItem, error) {
	return r.findOne(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate finds a storage item and takes a row lock on it
func (r *GormStorageItemRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*inventory.StorageItem, error) {
	return r.findOne(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormStorageItemRepository) findOne(query *gorm.DB, id uuid.UUID) (*inventory.StorageItem, error) {
	var model models.StorageItemModel
	if err := query.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs finds all storage items with the given IDs
func (r *GormStorageItemRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]inventory.StorageItem, error) {
	if len(ids) == 0 {
		return []inventory.StorageItem{}, nil
	}
	var rows []models.StorageItemModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toStorageItems(rows), nil
}

// FindAll finds storage items with filtering and pagination
func (r *GormStorageItemRepository) FindAll(ctx context.Context, filter shared.Filter) ([]inventory.StorageItem, error) {
	var rows []models.StorageItemModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.StorageItemModel{}), filter)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toStorageItems(rows), nil
}

// Count counts storage items matching the filter
func (r *GormStorageItemRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.StorageItemModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindAlertCandidates finds weighted items with the low-stock alert enabled and a reorder point
func (r *GormStorageItemRepository) FindAlertCandidates(ctx context.Context) ([]inventory.StorageItem, error) {
	var rows []models.StorageItemModel
	err := r.db.WithContext(ctx).
		Where("enable_low_stock_alert = ? AND reorder_point IS NOT NULL", true).
		Where("item_type IN ?", weightedItemTypes()).
		Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toStorageItems(rows), nil
}

// Save creates or updates a storage item without a version check
func (r *GormStorageItemRepository) Save(ctx context.Context, item *inventory.StorageItem) error {
	return r.db.WithContext(ctx).Save(models.StorageItemModelFromDomain(item)).Error
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormStorageItemRepository) SaveWithLock(ctx context.Context, item *inventory.StorageItem) error {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&models.StorageItemModel{}).
		Where("id = ? AND version = ?", item.ID, item.Version).
		Updates(map[string]any{
			"name":                   item.Name,
			"article_number":         item.ArticleNumber,
			"category_id":            item.CategoryID,
			"quantity_new":           item.QuantityNew,
			"quantity_used":          item.QuantityUsed,
			"quantity_reground":      item.QuantityReground,
			"weight_new":             item.WeightNew,
			"weight_used":            item.WeightUsed,
			"weight_reground":        item.WeightReground,
			"enable_low_stock_alert": item.EnableLowStockAlert,
			"reorder_point":          item.ReorderPoint,
			"max_quantity":           item.MaxQuantity,
			"custom_fields":          datatypes.JSONMap(item.CustomFields),
			"version":                item.Version + 1,
			"updated_at":             now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError(shared.CodeConcurrencyConflict, "Storage item was modified by another transaction")
	}
	item.Version++
	item.UpdatedAt = now
	return nil
}

func (r *GormStorageItemRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	sortField := ValidateSortField(filter.OrderBy, StorageItemSortFields, "name")
	sortDir := ValidateSortOrder(filter.OrderDir)
	if filter.OrderBy == "" {
		sortDir = "ASC"
	}
	return query.Order(sortField + " " + sortDir).Order("id ASC")
}

func (r *GormStorageItemRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(article_number) LIKE ?", pattern, pattern)
	}
	for key, value := range filter.Filters {
		switch key {
		case "item_type":
			query = query.Where("item_type = ?", value)
		case "category_id":
			query = query.Where("category_id = ?", value)
		case "low_stock_alert":
			if enabled, ok := value.(bool); ok {
				query = query.Where("enable_low_stock_alert = ?", enabled)
			}
		}
	}
	return query
}

func weightedItemTypes() []string {
	var types []string
	for _, t := range inventory.AllItemTypes() {
		if t.IsWeighted() {
			types = append(types, string(t))
		}
	}
	return types
}

func toStorageItems(rows []models.StorageItemModel) []inventory.StorageItem {
	items := make([]inventory.StorageItem, len(rows))
	for i := range rows {
		items[i] = *rows[i].ToDomain()
	}
	return items
}

// Ensure GormStorageItemRepository implements StorageItemRepository
var _ inventory.StorageItemRepository = (*GormStorageItemRepository)(nil)
