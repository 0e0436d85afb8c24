package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubPinger struct {
	err error
}

func (p stubPinger) PingContext(context.Context) error { return p.err }

func systemRouter(db Pinger) *gin.Engine {
	h := NewSystemHandler("progress-billing", "1.2.0", db)
	r := gin.New()
	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)
	r.GET("/system/info", h.GetSystemInfo)
	return r
}

func TestSystemHandler_Health(t *testing.T) {
	w := serve(systemRouter(nil), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w).Data.(map[string]any)
	assert.Equal(t, "ok", data["status"])
}

func TestSystemHandler_Ready(t *testing.T) {
	w := serve(systemRouter(stubPinger{}), httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(systemRouter(stubPinger{err: errors.New("connection refused")}), httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestSystemHandler_GetSystemInfo(t *testing.T) {
	w := serve(systemRouter(nil), httptest.NewRequest(http.MethodGet, "/system/info", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w).Data.(map[string]any)
	assert.Equal(t, "progress-billing", data["name"])
	assert.Equal(t, "1.2.0", data["version"])
	assert.NotEmpty(t, data["go_version"])
}
