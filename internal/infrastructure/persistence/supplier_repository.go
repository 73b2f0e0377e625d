package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/mfgadmin/backend/internal/domain/partner"
	"github.com/mfgadmin/backend/internal/domain/shared"
	"github.com/mfgadmin/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSupplierRepository implements SupplierRepository using GORM
type GormSupplierRepository struct {
	db *gorm.DB
}

// NewGormSupplierRepository creates a new GormSupplierRepository
func NewGormSupplierRepository(db *gorm.DB) *GormSupplierRepository {
	return &GormSupplierRepository{db: db}
}

// FindByID finds a supplier by its ID
func (r *GormSupplierRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Supplier, error) {
	var model models.SupplierModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a supplier
func (r *GormSupplierRepository) Save(ctx context.Context, supplier *partner.Supplier) error {
	return r.db.WithContext(ctx).Save(models.SupplierModelFromDomain(supplier)).Error
}

// GormSupplierItemRepository implements SupplierItemRepository using GORM
type GormSupplierItemRepository struct {
	db *gorm.DB
}

// NewGormSupplierItemRepository creates a new GormSupplierItemRepository
func NewGormSupplierItemRepository(db *gorm.DB) *GormSupplierItemRepository {
	return &GormSupplierItemRepository{db: db}
}

// FindBySupplierAndStorageItems finds the links of one supplier to the given storage items
func (r *GormSupplierItemRepository) FindBySupplierAndStorageItems(ctx context.Context, supplierID uuid.UUID, storageItemIDs []uuid.UUID) ([]partner.SupplierItem, error) {
	if len(storageItemIDs) == 0 {
		return []partner.SupplierItem{}, nil
	}
	var rows []models.SupplierItemModel
	err := r.db.WithContext(ctx).
		Where("supplier_id = ? AND storage_item_id IN ?", supplierID, storageItemIDs).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	links := make([]partner.SupplierItem, len(rows))
	for i := range rows {
		links[i] = *rows[i].ToDomain()
	}
	return links, nil
}

// FindPreferred finds the preferred link of a storage item.
// Returns shared.ErrNotFound when the item has no preferred supplier.
func (r *GormSupplierItemRepository) FindPreferred(ctx context.Context, storageItemID uuid.UUID) (*partner.SupplierItem, error) {
	var model models.SupplierItemModel
	err := r.db.WithContext(ctx).
		Where("storage_item_id = ? AND is_preferred = ?", storageItemID, true).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a supplier link
func (r *GormSupplierItemRepository) Save(ctx context.Context, item *partner.SupplierItem) error {
	return r.db.WithContext(ctx).Save(models.SupplierItemModelFromDomain(item)).Error
}

// SetPreferred marks one link as preferred and clears the flag on the other
// links of the same storage item
func (r *GormSupplierItemRepository) SetPreferred(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var link models.SupplierItemModel
		if err := tx.First(&link, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}
		if err := tx.Model(&models.SupplierItemModel{}).
			Where("storage_item_id = ? AND id <> ?", link.StorageItemID, id).
			Update("is_preferred", false).Error; err != nil {
			return err
		}
		return tx.Model(&models.SupplierItemModel{}).
			Where("id = ?", id).
			Update("is_preferred", true).Error
	})
}

var (
	_ partner.SupplierRepository     = (*GormSupplierRepository)(nil)
	_ partner.SupplierItemRepository = (*GormSupplierItemRepository)(nil)
)
