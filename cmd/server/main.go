package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/erp/progress-billing/docs"
	billingapp "github.com/erp/progress-billing/internal/application/billing"
	eventapp "github.com/erp/progress-billing/internal/application/event"
	financeapp "github.com/erp/progress-billing/internal/application/finance"
	projectapp "github.com/erp/progress-billing/internal/application/project"
	"github.com/erp/progress-billing/internal/domain/shared/valueobject"
	"github.com/erp/progress-billing/internal/infrastructure/auth"
	"github.com/erp/progress-billing/internal/infrastructure/cache"
	"github.com/erp/progress-billing/internal/infrastructure/config"
	"github.com/erp/progress-billing/internal/infrastructure/currency"
	"github.com/erp/progress-billing/internal/infrastructure/event"
	"github.com/erp/progress-billing/internal/infrastructure/export"
	"github.com/erp/progress-billing/internal/infrastructure/logger"
	"github.com/erp/progress-billing/internal/infrastructure/persistence"
	"github.com/erp/progress-billing/internal/infrastructure/storage"
	"github.com/erp/progress-billing/internal/infrastructure/telemetry"
	"github.com/erp/progress-billing/internal/interfaces/http/handler"
	"github.com/erp/progress-billing/internal/interfaces/http/middleware"
	"github.com/erp/progress-billing/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// Version is overridden at build time with -ldflags "-X main.Version=..."
var Version = "dev"

//	@title			Progress Billing API
//	@version		1.0
//	@description	Progress payment (hakedis) calculation and certificate export for construction contracts.

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx := context.Background()

	tel, err := telemetry.Setup(ctx, cfg.Telemetry, Version, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	if level, err := logger.ParseLevel(cfg.Log.Level); err == nil {
		log = telemetry.BridgeLogger(log, tel, level)
	}

	log.Info("Starting progress billing service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", Version),
	)

	gormLog := logger.NewGormLogger(log, logger.GormLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected successfully")

	meter := tel.Meter("progress-billing")
	if err := telemetry.InstrumentDB(db.DB, telemetry.DBInstrumentation{
		TraceEnabled:       tel.Enabled() && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:         cfg.Telemetry.DBLogFullSQL,
		SlowQueryThreshold: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:           "postgresql",
	}, meter, log); err != nil {
		log.Fatal("Failed to instrument database", zap.Error(err))
	}

	// Repositories
	projectRepo := persistence.NewGormProjectRepository(db.DB)
	paymentRepo := persistence.NewGormProgressPaymentRepository(db.DB)
	rateRepo := persistence.NewGormExchangeRateRepository(db.DB)
	invoiceRepo := persistence.NewGormSalesInvoiceRepository(db.DB)
	receivableRepo := persistence.NewGormAccountReceivableRepository(db.DB)
	outboxRepo := event.NewGormOutboxRepository(db.DB)

	stores, err := cache.NewStores(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to initialize cache", zap.Error(err))
	}

	rates, err := currency.NewProviders(cfg.Currency, cfg.Redis.KeyPrefix, rateRepo, stores.Client, log)
	if err != nil {
		log.Fatal("Failed to initialize currency provider", zap.Error(err))
	}

	// Events are written to the outbox in the same transaction as the aggregate
	serializer := event.NewBillingEventSerializer()
	outboxPublisher := event.NewOutboxPublisher(serializer)
	projectRepo.SetOutboxEventSaver(outboxPublisher)
	txScope := persistence.NewGormTransactionScope(db.DB, outboxPublisher)

	// Application services
	baseCurrency, err := valueobject.ParseCurrency(cfg.Billing.BaseCurrency)
	if err != nil {
		log.Fatal("Invalid base currency", zap.Error(err))
	}
	paymentService := billingapp.NewProgressPaymentService(projectRepo, paymentRepo, txScope, rates.Rates,
		billingapp.ServiceConfig{
			BaseCurrency:        baseCurrency,
			NumberRetryAttempts: cfg.Billing.NumberRetryAttempts,
			RateLookupTimeout:   cfg.Currency.Timeout,
			CompanyName:         cfg.Export.CompanyName,
		}, log)

	billingMetrics, err := telemetry.NewBillingMetrics(meter, log)
	if err != nil {
		log.Fatal("Failed to create billing metrics", zap.Error(err))
	}
	paymentService.SetMetrics(billingMetrics)
	paymentService.SetRenderer(export.NewCertificateRenderer())

	if cfg.Storage.Enabled {
		archive, err := storage.NewS3Archive(ctx, cfg.Storage, log)
		if err != nil {
			log.Fatal("Failed to initialize certificate archive", zap.Error(err))
		}
		if err := archive.EnsureBucket(ctx); err != nil {
			log.Fatal("Certificate bucket unavailable", zap.Error(err))
		}
		paymentService.SetArchive(archive)
	}

	projectService := projectapp.NewProjectService(projectRepo, log)
	rateService := financeapp.NewExchangeRateService(rateRepo, log)
	if rates.Cache != nil {
		rateService.SetCacheInvalidator(rates.Cache)
	}
	ledgerService := financeapp.NewLedgerService(invoiceRepo, receivableRepo)
	outboxService := eventapp.NewOutboxService(outboxRepo, log)

	// Event bus and outbox relay
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewIdempotentHandler(
		"approval-notification",
		billingapp.NewApprovalNotificationHandler(log),
		stores.Idempotency,
		cfg.Event.IdempotencyTTL,
		log,
	))

	var outboxProcessor *event.OutboxProcessor
	if cfg.Event.ProcessorEnabled {
		processorCfg := event.DefaultOutboxProcessorConfig()
		processorCfg.BatchSize = cfg.Event.BatchSize
		processorCfg.PollInterval = cfg.Event.PollInterval
		processorCfg.CleanupEnabled = cfg.Event.CleanupEnabled
		processorCfg.CleanupRetention = cfg.Event.CleanupRetention
		outboxProcessor = event.NewOutboxProcessor(outboxRepo, eventBus, serializer, processorCfg, log)
		if err := outboxProcessor.Start(ctx); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
	}

	// HTTP
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := middleware.SetupValidator(); err != nil {
		log.Fatal("Failed to register validators", zap.Error(err))
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	// Order: recovery, request id, access log, tracing, security headers, CORS
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.RequestID())
	engine.Use(logger.Middleware(log))
	if tel.Enabled() {
		engine.Use(middleware.Tracing(cfg.Telemetry.ServiceName))
	}
	engine.Use(middleware.Secure(cfg.IsProduction()))
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", handler.ArchiveURLHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatal("Failed to access database pool", zap.Error(err))
	}
	systemHandler := handler.NewSystemHandler(cfg.App.Name, Version, sqlDB)
	router.RegisterProbes(engine, systemHandler)
	if cfg.HTTP.SwaggerEnabled {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	var jwtService *auth.JWTService
	if cfg.JWT.Enabled {
		jwtService = auth.NewJWTService(cfg.JWT)
	}

	apiMiddleware := []gin.HandlerFunc{
		middleware.Identity(middleware.IdentityConfig{JWTService: jwtService, Logger: log}),
		middleware.SpanEnricher(),
	}
	var rateLimiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		apiMiddleware = append(apiMiddleware, middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}
	httpMetrics, err := middleware.HTTPMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create HTTP metrics", zap.Error(err))
	}
	apiMiddleware = append(apiMiddleware, httpMetrics)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	router.RegisterAPI(r, router.Handlers{
		Project:      handler.NewProjectHandler(projectService),
		Payment:      handler.NewProgressPaymentHandler(paymentService, ledgerService),
		ExchangeRate: handler.NewExchangeRateHandler(rateService),
		System:       systemHandler,
		Outbox:       handler.NewOutboxHandler(outboxService),
	}, router.BodyLimits{JSON: cfg.HTTP.MaxBodySize, Upload: cfg.HTTP.MaxUploadSize})
	r.Setup(apiMiddleware...)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if rateLimiter != nil {
		rateLimiter.Stop()
	}
	if outboxProcessor != nil {
		if err := outboxProcessor.Stop(shutdownCtx); err != nil {
			log.Error("Error stopping outbox processor", zap.Error(err))
		}
	}
	if err := stores.Close(); err != nil {
		log.Error("Error closing cache", zap.Error(err))
	}
	if err := db.Close(); err != nil {
		log.Error("Error closing database", zap.Error(err))
	}
	if err := tel.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down telemetry", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
