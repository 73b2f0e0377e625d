package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

type pingFunc func() error

func (f pingFunc) Ping() error { return f() }

func TestSystemHandler_Health(t *testing.T) {
	h := NewSystemHandler("mfgadmin", "1.2.0", pingFunc(func() error { return nil }))

	c, w := newTestContext(http.MethodGet, "/health")
	h.Health(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "ok", data["status"])
	assert.Equal(t, "ok", data["database"])
	assert.Equal(t, "1.2.0", data["version"])
	assert.NotEmpty(t, data["go_version"])
}

func TestSystemHandler_Health_DatabaseDown(t *testing.T) {
	h := NewSystemHandler("mfgadmin", "1.2.0", pingFunc(func() error { return errors.New("dial tcp: refused") }))

	c, w := newTestContext(http.MethodGet, "/health")
	h.Health(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	resp := decodeResponse(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, "unreachable", resp.Data.(map[string]any)["database"])
}

func TestSystemHandler_Health_NoDatabase(t *testing.T) {
	c, w := newTestContext(http.MethodGet, "/health")
	NewSystemHandler("mfgadmin", "dev", nil).Health(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "not_configured", decodeResponse(t, w).Data.(map[string]any)["database"])
}
