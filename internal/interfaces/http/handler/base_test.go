package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mfgadmin/backend/internal/domain/shared"
	"github.com/mfgadmin/backend/internal/interfaces/http/dto"
	"github.com/mfgadmin/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

func newTestContext(method, target string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, nil)
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestGetRequestID(t *testing.T) {
	c, _ := newTestContext(http.MethodGet, "/")
	assert.Empty(t, getRequestID(c))

	c.Request.Header.Set(middleware.RequestIDHeader, "header-id")
	assert.Equal(t, "header-id", getRequestID(c))

	c.Set(middleware.RequestIDKey, "ctx-id")
	assert.Equal(t, "ctx-id", getRequestID(c))
}

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", shared.NewValidationError(shared.CodeInvalidQuantity, "too many"), http.StatusBadRequest, shared.CodeInvalidQuantity},
		{"state", shared.NewStateError("not sent"), http.StatusUnprocessableEntity, shared.CodeInvalidState},
		{"not found", shared.NewNotFoundError("Purchase order"), http.StatusNotFound, shared.CodeNotFound},
		{"consistency", shared.NewConsistencyError("storage item vanished"), http.StatusConflict, shared.CodeConsistencyViolation},
		{"concurrency", shared.ErrConcurrencyConflict, http.StatusConflict, shared.CodeConcurrencyConflict},
		{"duplicate", shared.ErrDuplicateRequest, http.StatusConflict, shared.CodeDuplicateRequest},
		{"wrapped", fmt.Errorf("receive: %w", shared.ErrInvalidState), http.StatusUnprocessableEntity, shared.CodeInvalidState},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext(http.MethodGet, "/")
			c.Set(middleware.RequestIDKey, "req-9")

			(&BaseHandler{}).HandleError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, "req-9", resp.Error.RequestID)
		})
	}
}

func TestBaseHandler_HandleError_HidesInternalMessage(t *testing.T) {
	c, w := newTestContext(http.MethodGet, "/")
	(&BaseHandler{}).HandleError(c, errors.New("pq: password authentication failed"))

	assert.NotContains(t, w.Body.String(), "password")
}

func TestBaseHandler_HandleError_Nil(t *testing.T) {
	c, w := newTestContext(http.MethodGet, "/")
	(&BaseHandler{}).HandleError(c, nil)
	assert.False(t, c.Writer.Written())
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBaseHandler_Responses(t *testing.T) {
	h := &BaseHandler{}

	c, w := newTestContext(http.MethodGet, "/")
	h.SuccessWithMeta(c, []int{1, 2}, 42, 2, 20)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 3, resp.Meta.TotalPages)

	c, w = newTestContext(http.MethodPost, "/")
	h.Created(c, map[string]string{"id": "1"})
	assert.Equal(t, http.StatusCreated, w.Code)

	c, _ = newTestContext(http.MethodDelete, "/")
	h.NoContent(c)
	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
}

func TestParseUUIDParam(t *testing.T) {
	c, w := newTestContext(http.MethodGet, "/")
	c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}

	_, ok := (&BaseHandler{}).parseUUIDParam(c, "id")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, shared.CodeInvalidInput, decodeResponse(t, w).Error.Code)
}
