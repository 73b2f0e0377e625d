package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	tradeapp "github.com/mfgadmin/backend/internal/application/trade"
	"github.com/mfgadmin/backend/internal/domain/shared"
	"github.com/mfgadmin/backend/internal/infrastructure/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type orderFixture struct {
	orders    *mockOrderService
	receiving *mockReceivingService
	observer  *recordingObserver
	router    *gin.Engine
}

func newOrderFixture() *orderFixture {
	f := &orderFixture{
		orders:    new(mockOrderService),
		receiving: new(mockReceivingService),
		observer:  &recordingObserver{},
	}
	h := NewPurchaseOrderHandler(f.orders, f.receiving)
	h.SetReceiptObserver(f.observer)

	f.router = gin.New()
	g := f.router.Group("/purchase-orders")
	g.GET("", h.List)
	g.GET("/status-summary", h.StatusSummary)
	g.GET("/:id", h.GetByID)
	g.GET("/:id/delivery-estimate", h.DeliveryEstimate)
	g.POST("", h.Create)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/send", h.Send)
	g.POST("/:id/confirm", h.Confirm)
	g.POST("/:id/cancel", h.Cancel)
	g.POST("/:id/receive", h.Receive)
	g.POST("/:id/items/:itemId/receive", h.ReceiveItem)
	return f
}

func (f *orderFixture) do(method, target, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func sampleOrder(id uuid.UUID, status string) *tradeapp.PurchaseOrderResponse {
	return &tradeapp.PurchaseOrderResponse{
		ID:          id,
		OrderNumber: "PO-20250310-0001",
		Status:      status,
		TotalAmount: decimal.NewFromInt(61),
	}
}

func TestPurchaseOrderHandler_Create(t *testing.T) {
	f := newOrderFixture()
	supplierID, itemID := uuid.New(), uuid.New()
	orderID := uuid.New()

	f.orders.On("Create", mock.Anything, mock.MatchedBy(func(req tradeapp.CreatePurchaseOrderRequest) bool {
		return req.SupplierID == supplierID &&
			len(req.Items) == 1 &&
			req.Items[0].Quantity == 10 &&
			req.Items[0].UnitPrice.Equal(decimal.RequireFromString("5.5")) &&
			*req.ExpectedDeliveryDate == "2025-03-20"
	})).Return(sampleOrder(orderID, "draft"), nil)

	body := `{"supplier_id":"` + supplierID.String() + `","expected_delivery_date":"2025-03-20",
		"items":[{"storage_item_id":"` + itemID.String() + `","quantity":10,"unit_price":"5.5"}]}`
	w := f.do(http.MethodPost, "/purchase-orders", body)

	assert.Equal(t, http.StatusCreated, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, "draft", resp.Data.(map[string]any)["status"])
	f.orders.AssertExpectations(t)
}

func TestPurchaseOrderHandler_Create_ValidationDetails(t *testing.T) {
	f := newOrderFixture()

	body := `{"supplier_id":"` + uuid.NewString() + `","items":[{"storage_item_id":"` + uuid.NewString() + `","quantity":0}]}`
	w := f.do(http.MethodPost, "/purchase-orders", body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, shared.CodeValidation, resp.Error.Code)
	require.Len(t, resp.Error.Details, 1)
	assert.Equal(t, "items[0].quantity", resp.Error.Details[0].Field)
	f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestPurchaseOrderHandler_Create_MalformedJSON(t *testing.T) {
	f := newOrderFixture()

	w := f.do(http.MethodPost, "/purchase-orders", `{"supplier_id":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "BAD_REQUEST", decodeResponse(t, w).Error.Code)
}

func TestPurchaseOrderHandler_GetByID(t *testing.T) {
	f := newOrderFixture()
	found, missing := uuid.New(), uuid.New()
	f.orders.On("GetByID", mock.Anything, found).Return(sampleOrder(found, "sent"), nil)
	f.orders.On("GetByID", mock.Anything, missing).Return(nil, shared.NewNotFoundError("Purchase order"))

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/purchase-orders/"+found.String(), "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/purchase-orders/"+missing.String(), "").Code)

	w := f.do(http.MethodGet, "/purchase-orders/42", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, shared.CodeInvalidInput, decodeResponse(t, w).Error.Code)
}

func TestPurchaseOrderHandler_List(t *testing.T) {
	f := newOrderFixture()
	items := []tradeapp.PurchaseOrderListItemResponse{{ID: uuid.New(), Status: "sent"}}
	f.orders.On("List", mock.Anything, tradeapp.PurchaseOrderListFilter{Status: "sent", Limit: 10, Offset: 20}).
		Return(items, int64(35), nil)

	w := f.do(http.MethodGet, "/purchase-orders?status=sent&limit=10&offset=20", "")

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(35), resp.Meta.Total)
	assert.Equal(t, 3, resp.Meta.Page)
	assert.Equal(t, 10, resp.Meta.PageSize)
	assert.Equal(t, 4, resp.Meta.TotalPages)
}

func TestPurchaseOrderHandler_List_Defaults(t *testing.T) {
	f := newOrderFixture()
	f.orders.On("List", mock.Anything, tradeapp.PurchaseOrderListFilter{Limit: 20}).
		Return([]tradeapp.PurchaseOrderListItemResponse{}, int64(0), nil)

	w := f.do(http.MethodGet, "/purchase-orders", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decodeResponse(t, w).Meta.Page)
}

func TestPurchaseOrderHandler_List_InvalidStatus(t *testing.T) {
	f := newOrderFixture()

	w := f.do(http.MethodGet, "/purchase-orders?status=shipped", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "status", decodeResponse(t, w).Error.Details[0].Field)
}

func TestPurchaseOrderHandler_StatusSummaryIsNotAnID(t *testing.T) {
	f := newOrderFixture()
	f.orders.On("GetStatusSummary", mock.Anything).Return(&tradeapp.PurchaseOrderStatusSummary{Total: 3, Sent: 2, Draft: 1}, nil)

	w := f.do(http.MethodGet, "/purchase-orders/status-summary", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decodeResponse(t, w).Data.(map[string]any)["sent"])
}

func TestPurchaseOrderHandler_Transitions(t *testing.T) {
	f := newOrderFixture()
	id := uuid.New()
	f.orders.On("Send", mock.Anything, id).Return(nil, shared.NewStateError("Only draft orders can be sent"))
	f.orders.On("Confirm", mock.Anything, id).Return(sampleOrder(id, "confirmed"), nil)
	f.orders.On("Delete", mock.Anything, id).Return(nil)
	f.orders.On("Cancel", mock.Anything, id, tradeapp.CancelPurchaseOrderRequest{Reason: "supplier out of stock"}).
		Return(sampleOrder(id, "cancelled"), nil)
	f.orders.On("PreviewDeliveryEstimate", mock.Anything, id).
		Return(&tradeapp.DeliveryEstimateResponse{LeadTimeDays: 7, Source: "longest item lead time"}, nil)

	base := "/purchase-orders/" + id.String()

	w := f.do(http.MethodPost, base+"/send", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, shared.CodeInvalidState, decodeResponse(t, w).Error.Code)

	assert.Equal(t, http.StatusOK, f.do(http.MethodPost, base+"/confirm", "").Code)
	assert.Equal(t, http.StatusNoContent, f.do(http.MethodDelete, base, "").Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodPost, base+"/cancel", `{"reason":"supplier out of stock"}`).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, base+"/cancel", `{"reason":""}`).Code)

	w = f.do(http.MethodGet, base+"/delivery-estimate", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(7), decodeResponse(t, w).Data.(map[string]any)["lead_time_days"])
}

func TestPurchaseOrderHandler_Update(t *testing.T) {
	f := newOrderFixture()
	id, supplierID := uuid.New(), uuid.New()
	f.orders.On("Update", mock.Anything, id, mock.MatchedBy(func(req tradeapp.UpdatePurchaseOrderRequest) bool {
		return req.SupplierID == supplierID && req.Notes == "rush"
	})).Return(sampleOrder(id, "draft"), nil)

	body := `{"supplier_id":"` + supplierID.String() + `","notes":"rush","items":[{"storage_item_id":"` + uuid.NewString() + `","quantity":2}]}`
	w := f.do(http.MethodPut, "/purchase-orders/"+id.String(), body)

	assert.Equal(t, http.StatusOK, w.Code)
	f.orders.AssertExpectations(t)
}

func TestPurchaseOrderHandler_Receive_EmptyBody(t *testing.T) {
	f := newOrderFixture()
	id := uuid.New()
	f.receiving.On("ReceiveAll", mock.Anything, id, tradeapp.ReceivePurchaseOrderRequest{}, "key-1").
		Return(&tradeapp.ReceiveResultResponse{Order: *sampleOrder(id, "received"), IsFullyReceived: true}, nil)

	w := f.do(http.MethodPost, "/purchase-orders/"+id.String()+"/receive", "", logger.IdempotencyKeyHeader, "key-1")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeResponse(t, w).Data.(map[string]any)["is_fully_received"])
	assert.Equal(t, []string{"full:ok"}, f.observer.seen)
}

func TestPurchaseOrderHandler_Receive_Duplicate(t *testing.T) {
	f := newOrderFixture()
	id := uuid.New()
	f.receiving.On("ReceiveAll", mock.Anything, id, mock.Anything, "key-1").Return(nil, shared.ErrDuplicateRequest)

	w := f.do(http.MethodPost, "/purchase-orders/"+id.String()+"/receive", `{"condition":"reground"}`, logger.IdempotencyKeyHeader, "key-1")

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, shared.CodeDuplicateRequest, decodeResponse(t, w).Error.Code)
	assert.Equal(t, []string{"full:DUPLICATE_REQUEST"}, f.observer.seen)
}

func TestPurchaseOrderHandler_Receive_InvalidCondition(t *testing.T) {
	f := newOrderFixture()
	id := uuid.New()

	w := f.do(http.MethodPost, "/purchase-orders/"+id.String()+"/receive",
		`{"items":[{"item_id":"`+uuid.NewString()+`","quantity_received":4,"condition":"scrap"}]}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "items[0].condition", decodeResponse(t, w).Error.Details[0].Field)
	f.receiving.AssertNotCalled(t, "ReceiveAll", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, f.observer.seen)
}

func TestPurchaseOrderHandler_ReceiveItem(t *testing.T) {
	f := newOrderFixture()
	orderID, itemID := uuid.New(), uuid.New()
	f.receiving.On("ReceiveItem", mock.Anything, orderID, itemID,
		tradeapp.ReceiveItemRequest{QuantityReceived: 6, Condition: "used", Notes: "box damaged"}, "").
		Return(&tradeapp.ReceiveResultResponse{Order: *sampleOrder(orderID, "partially_received")}, nil)
	f.receiving.On("ReceiveItem", mock.Anything, orderID, itemID,
		tradeapp.ReceiveItemRequest{QuantityReceived: 5}, "").
		Return(nil, shared.NewValidationError(shared.CodeInvalidQuantity, "Cannot receive 5, only 4 outstanding"))

	target := "/purchase-orders/" + orderID.String() + "/items/" + itemID.String() + "/receive"

	w := f.do(http.MethodPost, target, `{"quantity_received":6,"condition":"used","notes":"box damaged"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodPost, target, `{"quantity_received":5}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, shared.CodeInvalidQuantity, decodeResponse(t, w).Error.Code)

	assert.Equal(t, []string{"item:ok", "item:INVALID_QUANTITY"}, f.observer.seen)
}

func TestPurchaseOrderHandler_ReceiveItem_BadItemID(t *testing.T) {
	f := newOrderFixture()

	w := f.do(http.MethodPost, "/purchase-orders/"+uuid.NewString()+"/items/abc/receive", `{"quantity_received":1}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeResponse(t, w).Error.Message, "itemId")
}
