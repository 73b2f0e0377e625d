package handler

import (
	"context"
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	tradeapp "github.com/mfgadmin/backend/internal/application/trade"
	"github.com/mfgadmin/backend/internal/domain/shared"
	"github.com/mfgadmin/backend/internal/infrastructure/logger"
	"github.com/mfgadmin/backend/internal/interfaces/http/dto"
)

const defaultOrderPageSize = 20

// PurchaseOrderService is the part of the order application service the handler uses
type PurchaseOrderService interface {
	Create(ctx context.Context, req tradeapp.CreatePurchaseOrderRequest) (*tradeapp.PurchaseOrderResponse, error)
	GetByID(ctx context.Context, orderID uuid.UUID) (*tradeapp.PurchaseOrderResponse, error)
	List(ctx context.Context, filter tradeapp.PurchaseOrderListFilter) ([]tradeapp.PurchaseOrderListItemResponse, int64, error)
	Update(ctx context.Context, orderID uuid.UUID, req tradeapp.UpdatePurchaseOrderRequest) (*tradeapp.PurchaseOrderResponse, error)
	Delete(ctx context.Context, orderID uuid.UUID) error
	Send(ctx context.Context, orderID uuid.UUID) (*tradeapp.PurchaseOrderResponse, error)
	Confirm(ctx context.Context, orderID uuid.UUID) (*tradeapp.PurchaseOrderResponse, error)
	Cancel(ctx context.Context, orderID uuid.UUID, req tradeapp.CancelPurchaseOrderRequest) (*tradeapp.PurchaseOrderResponse, error)
	PreviewDeliveryEstimate(ctx context.Context, orderID uuid.UUID) (*tradeapp.DeliveryEstimateResponse, error)
	GetStatusSummary(ctx context.Context) (*tradeapp.PurchaseOrderStatusSummary, error)
}

// ReceivingService books goods receipts against purchase orders
type ReceivingService interface {
	ReceiveAll(ctx context.Context, orderID uuid.UUID, req tradeapp.ReceivePurchaseOrderRequest, idempotencyKey string) (*tradeapp.ReceiveResultResponse, error)
	ReceiveItem(ctx context.Context, orderID, itemID uuid.UUID, req tradeapp.ReceiveItemRequest, idempotencyKey string) (*tradeapp.ReceiveResultResponse, error)
}

// ReceiptObserver counts receipt outcomes, typically into Prometheus
type ReceiptObserver interface {
	ObserveReceipt(mode, outcome string)
}

// PurchaseOrderHandler handles purchase order API endpoints
type PurchaseOrderHandler struct {
	BaseHandler
	orderService PurchaseOrderService
	receiving    ReceivingService
	receipts     ReceiptObserver
}

// NewPurchaseOrderHandler creates a new PurchaseOrderHandler
func NewPurchaseOrderHandler(orderService PurchaseOrderService, receiving ReceivingService) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{
		orderService: orderService,
		receiving:    receiving,
	}
}

// SetReceiptObserver sets where receipt outcomes are counted
func (h *PurchaseOrderHandler) SetReceiptObserver(o ReceiptObserver) {
	h.receipts = o
}

// Create handles POST /purchase-orders
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	var req tradeapp.CreatePurchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	order, err := h.orderService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// GetByID handles GET /purchase-orders/:id
func (h *PurchaseOrderHandler) GetByID(c *gin.Context) {
	orderID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// List handles GET /purchase-orders with status, supplier and date filters
func (h *PurchaseOrderHandler) List(c *gin.Context) {
	var filter tradeapp.PurchaseOrderListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultOrderPageSize
	}

	orders, total, err := h.orderService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page, pageSize := dto.PageFromOffset(filter.Limit, filter.Offset)
	h.SuccessWithMeta(c, orders, total, page, pageSize)
}

// Update handles PUT /purchase-orders/:id (draft only)
func (h *PurchaseOrderHandler) Update(c *gin.Context) {
	orderID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req tradeapp.UpdatePurchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	order, err := h.orderService.Update(c.Request.Context(), orderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Delete handles DELETE /purchase-orders/:id (draft only)
func (h *PurchaseOrderHandler) Delete(c *gin.Context) {
	orderID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.orderService.Delete(c.Request.Context(), orderID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Send handles POST /purchase-orders/:id/send
func (h *PurchaseOrderHandler) Send(c *gin.Context) {
	h.transition(c, h.orderService.Send)
}

// Confirm handles POST /purchase-orders/:id/confirm
func (h *PurchaseOrderHandler) Confirm(c *gin.Context) {
	h.transition(c, h.orderService.Confirm)
}

func (h *PurchaseOrderHandler) transition(c *gin.Context, fn func(context.Context, uuid.UUID) (*tradeapp.PurchaseOrderResponse, error)) {
	orderID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	order, err := fn(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Cancel handles POST /purchase-orders/:id/cancel
func (h *PurchaseOrderHandler) Cancel(c *gin.Context) {
	orderID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req tradeapp.CancelPurchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	order, err := h.orderService.Cancel(c.Request.Context(), orderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// DeliveryEstimate handles GET /purchase-orders/:id/delivery-estimate
func (h *PurchaseOrderHandler) DeliveryEstimate(c *gin.Context) {
	orderID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	estimate, err := h.orderService.PreviewDeliveryEstimate(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, estimate)
}

// StatusSummary handles GET /purchase-orders/status-summary
func (h *PurchaseOrderHandler) StatusSummary(c *gin.Context) {
	summary, err := h.orderService.GetStatusSummary(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// Receive handles POST /purchase-orders/:id/receive. An empty body receives
// everything outstanding in new condition. Each entry of items only picks a
// condition for its line; its quantity_received is 0, the ordered quantity,
// or the outstanding quantity, and the whole remainder is received either way.
func (h *PurchaseOrderHandler) Receive(c *gin.Context) {
	orderID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req tradeapp.ReceivePurchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.BindError(c, err)
		return
	}

	result, err := h.receiving.ReceiveAll(c.Request.Context(), orderID, req, c.GetHeader(logger.IdempotencyKeyHeader))
	h.observeReceipt("full", err)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ReceiveItem handles POST /purchase-orders/:id/items/:itemId/receive
func (h *PurchaseOrderHandler) ReceiveItem(c *gin.Context) {
	orderID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	itemID, ok := h.parseUUIDParam(c, "itemId")
	if !ok {
		return
	}

	var req tradeapp.ReceiveItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.receiving.ReceiveItem(c.Request.Context(), orderID, itemID, req, c.GetHeader(logger.IdempotencyKeyHeader))
	h.observeReceipt("item", err)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

func (h *PurchaseOrderHandler) observeReceipt(mode string, err error) {
	if h.receipts == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = dto.ErrCodeInternal
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) {
			outcome = domainErr.Code
		}
	}
	h.receipts.ObserveReceipt(mode, outcome)
}
