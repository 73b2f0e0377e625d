package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mfgadmin/backend/internal/infrastructure/auth"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequirePermission(t *testing.T) {
	svc := newTestJWTService(15 * time.Minute)
	editor, _ := issueTestToken(t, svc, auth.PermissionStorageEdit)
	reader, _ := issueTestToken(t, svc)

	core, logs := observer.New(zap.WarnLevel)
	router := gin.New()
	router.Use(JWTAuthMiddleware(svc))
	router.POST("/orders/:id/send",
		RequirePermissionWithConfig(auth.PermissionStorageEdit, PermissionConfig{Logger: zap.New(core)}),
		func(c *gin.Context) {
			assert.True(t, HasPermission(c, auth.PermissionStorageEdit))
			c.Status(http.StatusOK)
		})

	send := func(token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/orders/1/send", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, send(editor).Code)

	w := send(reader)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, w))
	assert.Equal(t, 1, logs.FilterMessage("Permission denied").Len())
}

func TestRequireAnyPermission_NoClaims(t *testing.T) {
	router := gin.New()
	router.DELETE("/orders/:id", RequireAnyPermission(auth.PermissionStorageDelete, auth.PermissionStorageEdit), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/orders/1", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequirePermission_OnDenied(t *testing.T) {
	var required []string
	router := gin.New()
	router.POST("/x", RequirePermissionWithConfig(auth.PermissionStorageCreate, PermissionConfig{
		OnDenied: func(c *gin.Context, perms []string) {
			required = perms
			c.AbortWithStatus(http.StatusUnauthorized)
		},
	}), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, []string{auth.PermissionStorageCreate}, required)
}
