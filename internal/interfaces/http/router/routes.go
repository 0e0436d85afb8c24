package router

import (
	"github.com/erp/progress-billing/internal/interfaces/http/handler"
	"github.com/erp/progress-billing/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// Handlers are the API handlers mounted by RegisterAPI
type Handlers struct {
	Project      *handler.ProjectHandler
	Payment      *handler.ProgressPaymentHandler
	ExchangeRate *handler.ExchangeRateHandler
	System       *handler.SystemHandler
	Outbox       *handler.OutboxHandler
}

// BodyLimits caps request bodies. Sheet uploads get their own, larger limit.
type BodyLimits struct {
	JSON   int64
	Upload int64
}

// RegisterAPI registers the billing resources on r
func RegisterAPI(r *Router, h Handlers, limits BodyLimits) {
	jsonLimit := middleware.BodyLimit(limits.JSON)

	projects := NewDomainGroup("projects", "/projects")
	projects.
		POST("", jsonLimit, h.Project.Create).
		GET("/:id", h.Project.Get).
		PUT("/:id/customer", jsonLimit, h.Project.AssignCustomer).
		POST("/:id/boq-lines", jsonLimit, h.Project.AddBoQLine).
		GET("/:id/boq-lines", h.Project.ListBoQLines).
		POST("/:id/boq-lines/import", middleware.BodyLimit(limits.Upload), h.Project.ImportBoQLines).
		GET("/:id/progress-payments", h.Payment.List).
		POST("/:id/progress-payments", jsonLimit, h.Payment.Create)

	payments := NewDomainGroup("progress-payments", "/progress-payments")
	payments.
		GET("/:id", h.Payment.Get).
		PUT("/:id/details/:detailId", jsonLimit, h.Payment.UpdateDetailQuantity).
		PUT("/:id/deductions", jsonLimit, h.Payment.UpdateDeductions).
		POST("/:id/approve", h.Payment.Approve).
		GET("/:id/export", h.Payment.Export).
		GET("/:id/ledger", h.Payment.Ledger)

	rates := NewDomainGroup("exchange-rates", "/exchange-rates")
	rates.POST("", jsonLimit, h.ExchangeRate.Record)

	system := NewDomainGroup("system", "/system")
	system.GET("/info", h.System.GetSystemInfo)
	if h.Outbox != nil {
		system.Group("outbox", "/outbox").
			GET("/stats", h.Outbox.Stats).
			GET("/dead", h.Outbox.ListDead).
			POST("/dead/:id/retry", jsonLimit, h.Outbox.RetryDead)
	}

	r.Register(projects, payments, rates, system)
}

// RegisterProbes mounts the liveness and readiness probes outside the API
// group so they bypass identity and rate limiting.
func RegisterProbes(engine *gin.Engine, sys *handler.SystemHandler) {
	engine.GET("/health", sys.Health)
	engine.GET("/ready", sys.Ready)
}
