package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	inventoryapp "github.com/mfgadmin/backend/internal/application/inventory"
	"github.com/mfgadmin/backend/internal/domain/shared"
	"github.com/mfgadmin/backend/internal/infrastructure/export"
	"github.com/mfgadmin/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// StorageItemService is the read side of the stock valuation engine
type StorageItemService interface {
	GetByID(ctx context.Context, id uuid.UUID) (*inventoryapp.StorageItemResponse, error)
	List(ctx context.Context, filter inventoryapp.StorageItemListFilter) ([]inventoryapp.StorageItemResponse, int64, error)
	ListLowStock(ctx context.Context) ([]inventoryapp.StorageItemResponse, error)
	ExportAll(ctx context.Context, filter inventoryapp.StorageItemListFilter) ([]inventoryapp.StorageItemResponse, error)
	UpdateCustomFields(ctx context.Context, id uuid.UUID, req inventoryapp.UpdateCustomFieldsRequest) (*inventoryapp.StorageItemResponse, error)
}

// SnapshotLocator finds archived valuation snapshots
type SnapshotLocator interface {
	Exists(ctx context.Context, key string) (bool, error)
	DownloadURL(ctx context.Context, key string) (string, time.Time, error)
}

// SnapshotResponse points at an archived valuation snapshot
type SnapshotResponse struct {
	Date      string    `json:"date"`
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// StorageItemHandler handles storage item API endpoints
type StorageItemHandler struct {
	BaseHandler
	itemService    StorageItemService
	snapshots      SnapshotLocator
	snapshotPrefix string
	now            func() time.Time
}

// NewStorageItemHandler creates a new StorageItemHandler
func NewStorageItemHandler(itemService StorageItemService) *StorageItemHandler {
	return &StorageItemHandler{
		itemService: itemService,
		now:         time.Now,
	}
}

// SetSnapshotArchive enables snapshot lookups under prefix
func (h *StorageItemHandler) SetSnapshotArchive(locator SnapshotLocator, prefix string) {
	h.snapshots = locator
	h.snapshotPrefix = prefix
}

// List handles GET /storage-items
func (h *StorageItemHandler) List(c *gin.Context) {
	var filter inventoryapp.StorageItemListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	items, total, err := h.itemService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// GetByID handles GET /storage-items/:id
func (h *StorageItemHandler) GetByID(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	item, err := h.itemService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// ListLowStock handles GET /storage-items/low-stock
func (h *StorageItemHandler) ListLowStock(c *gin.Context) {
	items, err := h.itemService.ListLowStock(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// Export handles GET /storage-items/export, streaming every matching item
// as an xlsx workbook. List filters apply; paging does not.
func (h *StorageItemHandler) Export(c *gin.Context) {
	var filter inventoryapp.StorageItemListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	items, err := h.itemService.ExportAll(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.StorageItemsFileName(h.now())))
	c.Header("Content-Type", export.ContentTypeXLSX)
	c.Status(http.StatusOK)
	if err := export.WriteStorageItems(c.Writer, items); err != nil {
		// Headers are already out; all that is left is to log
		logger.GetGinLogger(c).Error("Failed to write storage item export", zap.Error(err))
	}
}

// UpdateCustomFields handles PUT /storage-items/:id/custom-fields
func (h *StorageItemHandler) UpdateCustomFields(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req inventoryapp.UpdateCustomFieldsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	item, err := h.itemService.UpdateCustomFields(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// Snapshot handles GET /storage-items/snapshots/:date with date as YYYY-MM-DD
func (h *StorageItemHandler) Snapshot(c *gin.Context) {
	day, err := time.Parse(time.DateOnly, c.Param("date"))
	if err != nil {
		h.BadRequest(c, "Invalid date format, expected YYYY-MM-DD")
		return
	}
	if h.snapshots == nil {
		h.HandleError(c, shared.NewNotFoundError("snapshot"))
		return
	}

	ctx := c.Request.Context()
	key := h.snapshotPrefix + export.SnapshotFileName(day)
	exists, err := h.snapshots.Exists(ctx, key)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if !exists {
		h.HandleError(c, shared.NewNotFoundError("snapshot"))
		return
	}

	link, expiresAt, err := h.snapshots.DownloadURL(ctx, key)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, SnapshotResponse{
		Date:      day.Format(time.DateOnly),
		Key:       key,
		URL:       link,
		ExpiresAt: expiresAt,
	})
}
