package router

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"github.com/erp/progress-billing/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	group := NewDomainGroup("test", "/test")
	group.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	r.Register(group)

	var seen bool
	r.Setup(func(c *gin.Context) {
		seen = true
		c.Next()
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/test/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
	assert.True(t, seen, "api middleware runs")
}

func TestDomainGroup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	order := make([]string, 0, 3)
	group := NewDomainGroup("items", "/items").Use(func(c *gin.Context) {
		order = append(order, "group")
		c.Next()
	})
	group.
		POST("", func(c *gin.Context) { c.Status(http.StatusCreated) }).
		PUT("/:id", func(c *gin.Context) { c.String(http.StatusOK, c.Param("id")) })
	group.Group("notes", "/:id/notes").GET("", func(c *gin.Context) {
		order = append(order, "notes")
		c.Status(http.StatusOK)
	})
	r.Register(group)
	r.Setup()

	assert.Equal(t, "items", group.Name())
	assert.Equal(t, []string{"POST /items", "PUT /items/:id", "GET /items/:id/notes"}, group.Routes())

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/items", nil))
	assert.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/v1/items/42", nil))
	assert.Equal(t, "42", w.Body.String())

	order = order[:0]
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/items/42/notes", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"group", "notes"}, order, "subgroups inherit middleware")
}

func TestRegisterAPI(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)
	RegisterAPI(r, Handlers{
		Project:      handler.NewProjectHandler(nil),
		Payment:      handler.NewProgressPaymentHandler(nil, nil),
		ExchangeRate: handler.NewExchangeRateHandler(nil),
		System:       handler.NewSystemHandler("progress-billing", "test", nil),
		Outbox:       handler.NewOutboxHandler(nil),
	}, BodyLimits{JSON: 1 << 20, Upload: 10 << 20})
	r.Setup()
	RegisterProbes(engine, handler.NewSystemHandler("progress-billing", "test", nil))

	var routes []string
	for _, ri := range engine.Routes() {
		routes = append(routes, ri.Method+" "+ri.Path)
	}
	sort.Strings(routes)

	expected := []string{
		"POST /api/v1/exchange-rates",
		"POST /api/v1/projects",
		"GET /api/v1/projects/:id",
		"PUT /api/v1/projects/:id/customer",
		"POST /api/v1/projects/:id/boq-lines",
		"GET /api/v1/projects/:id/boq-lines",
		"POST /api/v1/projects/:id/boq-lines/import",
		"GET /api/v1/projects/:id/progress-payments",
		"POST /api/v1/projects/:id/progress-payments",
		"GET /api/v1/progress-payments/:id",
		"PUT /api/v1/progress-payments/:id/details/:detailId",
		"PUT /api/v1/progress-payments/:id/deductions",
		"POST /api/v1/progress-payments/:id/approve",
		"GET /api/v1/progress-payments/:id/export",
		"GET /api/v1/progress-payments/:id/ledger",
		"GET /api/v1/system/info",
		"GET /api/v1/system/outbox/stats",
		"GET /api/v1/system/outbox/dead",
		"POST /api/v1/system/outbox/dead/:id/retry",
		"GET /health",
		"GET /ready",
	}
	for _, want := range expected {
		assert.Contains(t, routes, want)
	}
	require.Len(t, routes, len(expected))
}

func TestRegisterAPI_BodyLimit(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)
	RegisterAPI(r, Handlers{
		Project:      handler.NewProjectHandler(nil),
		Payment:      handler.NewProgressPaymentHandler(nil, nil),
		ExchangeRate: handler.NewExchangeRateHandler(nil),
		System:       handler.NewSystemHandler("progress-billing", "test", nil),
	}, BodyLimits{JSON: 16, Upload: 1 << 20})
	r.Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/exchange-rates",
		strings.NewReader(`{"from_currency":"EUR","to_currency":"TRY"}`)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
