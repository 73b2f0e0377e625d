package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/mfgadmin/backend/internal/domain/catalog"
	"github.com/mfgadmin/backend/internal/domain/inventory"
	"github.com/mfgadmin/backend/internal/domain/shared"
	"github.com/mfgadmin/backend/internal/infrastructure/logger"
	"github.com/mfgadmin/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// StorageItemService serves the read side of storage items. Every item it
// returns carries a freshly computed stock valuation.
type StorageItemService struct {
	itemRepo        inventory.StorageItemRepository
	categoryRepo    catalog.CategoryRepository
	logger          *zap.Logger
	eventPublisher  shared.EventPublisher
	businessMetrics *telemetry.BusinessMetrics
}

// NewStorageItemService creates a new StorageItemService
func NewStorageItemService(itemRepo inventory.StorageItemRepository, categoryRepo catalog.CategoryRepository, log *zap.Logger) *StorageItemService {
	if log == nil {
		log = zap.NewNop()
	}
	return &StorageItemService{
		itemRepo:     itemRepo,
		categoryRepo: categoryRepo,
		logger:       log,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *StorageItemService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetBusinessMetrics sets the business metrics collector
func (s *StorageItemService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// GetByID retrieves a storage item by ID
func (s *StorageItemService) GetByID(ctx context.Context, id uuid.UUID) (*StorageItemResponse, error) {
	item, err := s.itemRepo.FindByID(ctx, id)
	if err != nil {
		return nil, itemLookupError(err)
	}
	response := ToStorageItemResponse(item)
	return &response, nil
}

// List retrieves a page of storage items
func (s *StorageItemService) List(ctx context.Context, filter StorageItemListFilter) ([]StorageItemResponse, int64, error) {
	domainFilter := filter.toDomainFilter()

	items, err := s.itemRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.itemRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToStorageItemResponses(items), total, nil
}

// ListLowStock returns every item whose effective stock is at or below its
// reorder point
func (s *StorageItemService) ListLowStock(ctx context.Context) ([]StorageItemResponse, error) {
	low, err := s.findLowStock(ctx)
	if err != nil {
		return nil, err
	}
	return ToStorageItemResponses(low), nil
}

// CountLowStock counts the items currently flagged as low on stock
func (s *StorageItemService) CountLowStock(ctx context.Context) (int64, error) {
	low, err := s.findLowStock(ctx)
	if err != nil {
		return 0, err
	}
	return int64(len(low)), nil
}

// ExportAll returns every item matching the filter, ignoring pagination
func (s *StorageItemService) ExportAll(ctx context.Context, filter StorageItemListFilter) ([]StorageItemResponse, error) {
	domainFilter := filter.toDomainFilter()
	domainFilter.Page = 1
	domainFilter.PageSize = 0

	items, err := s.itemRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, err
	}
	return ToStorageItemResponses(items), nil
}

// UpdateCustomFields validates values against the item's category schema
// and stores the normalized result. Items without a category accept no
// custom fields.
func (s *StorageItemService) UpdateCustomFields(ctx context.Context, id uuid.UUID, req UpdateCustomFieldsRequest) (*StorageItemResponse, error) {
	item, err := s.itemRepo.FindByID(ctx, id)
	if err != nil {
		return nil, itemLookupError(err)
	}
	if req.Version != nil && *req.Version != item.Version {
		return nil, shared.ErrConcurrencyConflict
	}

	var schema catalog.FieldSchema
	if item.CategoryID != nil {
		category, err := s.categoryRepo.FindByID(ctx, *item.CategoryID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewConsistencyError("Category of storage item does not exist")
			}
			return nil, err
		}
		schema = category.Fields
	}

	normalized, err := schema.Validate(req.CustomFields)
	if err != nil {
		return nil, err
	}
	item.SetCustomFields(normalized)

	if err := s.itemRepo.SaveWithLock(ctx, item); err != nil {
		return nil, err
	}

	logger.WithLogger(ctx, s.logger).Info("Storage item custom fields updated",
		zap.String("storage_item_id", item.ID.String()),
		zap.Int("fields", len(normalized)),
	)

	response := ToStorageItemResponse(item)
	return &response, nil
}

// ScanLowStock raises a StockLowDetected event for every item currently low
// on stock and refreshes the low-stock gauge
func (s *StorageItemService) ScanLowStock(ctx context.Context) (*LowStockScanResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "storage_item", "scan_low_stock")
	defer span.End()

	candidates, err := s.itemRepo.FindAlertCandidates(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	result := &LowStockScanResult{Checked: len(candidates), ItemIDs: []uuid.UUID{}}
	events := make([]shared.DomainEvent, 0)
	for i := range candidates {
		item := &candidates[i]
		v := item.Valuation()
		if !v.IsLowStock {
			continue
		}
		result.ItemIDs = append(result.ItemIDs, item.ID)
		events = append(events, inventory.NewStockLowDetectedEvent(item, v))
	}
	result.LowStock = len(result.ItemIDs)

	if s.eventPublisher != nil && len(events) > 0 {
		if err := s.eventPublisher.Publish(ctx, events...); err != nil {
			logger.WithLogger(ctx, s.logger).Error("Failed to publish low-stock events", zap.Error(err))
		}
	}
	if s.businessMetrics != nil {
		s.businessMetrics.RecordLowStockCount(ctx, int64(result.LowStock))
	}

	logger.WithLogger(ctx, s.logger).Info("Low-stock scan finished",
		zap.Int("checked", result.Checked),
		zap.Int("low_stock", result.LowStock),
	)
	telemetry.SetOK(span)
	return result, nil
}

func (s *StorageItemService) findLowStock(ctx context.Context) ([]inventory.StorageItem, error) {
	candidates, err := s.itemRepo.FindAlertCandidates(ctx)
	if err != nil {
		return nil, err
	}
	low := make([]inventory.StorageItem, 0, len(candidates))
	for _, item := range candidates {
		if item.Valuation().IsLowStock {
			low = append(low, item)
		}
	}
	return low, nil
}

func itemLookupError(err error) error {
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewNotFoundError("Storage item")
	}
	return err
}

var _ telemetry.LowStockProvider = (*StorageItemService)(nil)
