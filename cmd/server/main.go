package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	inventoryapp "github.com/mfgadmin/backend/internal/application/inventory"
	tradeapp "github.com/mfgadmin/backend/internal/application/trade"
	"github.com/mfgadmin/backend/internal/domain/shared"
	"github.com/mfgadmin/backend/internal/infrastructure/auth"
	"github.com/mfgadmin/backend/internal/infrastructure/cache"
	"github.com/mfgadmin/backend/internal/infrastructure/config"
	"github.com/mfgadmin/backend/internal/infrastructure/event"
	"github.com/mfgadmin/backend/internal/infrastructure/logger"
	"github.com/mfgadmin/backend/internal/infrastructure/persistence"
	"github.com/mfgadmin/backend/internal/infrastructure/scheduler"
	"github.com/mfgadmin/backend/internal/infrastructure/storage"
	"github.com/mfgadmin/backend/internal/infrastructure/telemetry"
	"github.com/mfgadmin/backend/internal/interfaces/http/handler"
	"github.com/mfgadmin/backend/internal/interfaces/http/middleware"
	"github.com/mfgadmin/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

var version = "dev"

const (
	lowStockGaugeInterval = time.Minute
	shutdownTimeout       = 30 * time.Second
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	baseLog, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	providers, err := telemetry.Setup(rootCtx, cfg.Telemetry, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	log := providers.BridgeLogger(baseLog)
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting stock valuation service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	profiler, err := telemetry.StartProfiler(cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.Enabled() {
		providers.EnableSpanProfiles()
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected successfully")

	dbInstrumentation, err := telemetry.InstrumentDatabase(db.DB, cfg.Telemetry, providers.Meter("mfgadmin/db"), log)
	if err != nil {
		log.Fatal("Failed to instrument database", zap.Error(err))
	}
	dbInstrumentation.StartPoolStatsCollection(rootCtx, db.DB)

	// Repositories
	orderRepo := persistence.NewGormPurchaseOrderRepository(db.DB)
	storageItemRepo := persistence.NewGormStorageItemRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	supplierRepo := persistence.NewGormSupplierRepository(db.DB)
	supplierItemRepo := persistence.NewGormSupplierItemRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	idempotencyStore := newIdempotencyStore(rootCtx, cfg.Redis, log)
	idempotencyConfig := shared.DefaultIdempotencyConfig()
	if cfg.Redis.IdempotencyTTL > 0 {
		idempotencyConfig.TTL = cfg.Redis.IdempotencyTTL
	}

	// Application services
	itemService := inventoryapp.NewStorageItemService(storageItemRepo, categoryRepo, log)
	orderService := tradeapp.NewPurchaseOrderService(txScope, orderRepo, supplierRepo, supplierItemRepo, log)
	receiving := tradeapp.NewReceivingProcessor(txScope, log)
	receiving.SetIdempotencyStore(idempotencyStore, idempotencyConfig)

	businessMetrics, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:            providers.Meter("mfgadmin/business"),
		Logger:           log,
		LowStockProvider: itemService,
	})
	if err != nil {
		log.Fatal("Failed to create business metrics", zap.Error(err))
	}
	businessMetrics.StartPeriodicCollection(rootCtx, lowStockGaugeInterval)

	// Events
	eventBus := event.NewInMemoryEventBus(log)
	alertHandler := inventoryapp.NewLowStockAlertHandler(log).
		WithNotifier(inventoryapp.NewLoggingStockAlertNotifier(log)).
		WithBusinessMetrics(businessMetrics)
	eventBus.Subscribe(event.NewIdempotentHandler(alertHandler, idempotencyStore, log,
		event.WithKeyFunc(event.DailyAggregateKey(shared.SystemClock{})),
		event.WithIdempotencyConfig(shared.IdempotencyConfig{TTL: 48 * time.Hour, Enabled: true}),
	))
	if err := eventBus.Start(rootCtx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	itemService.SetEventPublisher(eventBus)
	itemService.SetBusinessMetrics(businessMetrics)
	orderService.SetEventPublisher(eventBus)
	orderService.SetBusinessMetrics(businessMetrics)
	receiving.SetEventPublisher(eventBus)
	receiving.SetBusinessMetrics(businessMetrics)

	// Background jobs
	cronScheduler := scheduler.NewCronScheduler(cfg.Scheduler, log)
	if err := scheduler.RegisterLowStockScan(cronScheduler, cfg.Inventory.LowStockScanCron, itemService, log); err != nil {
		log.Fatal("Failed to register low-stock scan", zap.Error(err))
	}
	archive := newSnapshotArchive(rootCtx, cfg.Storage, log)
	if err := scheduler.RegisterStockSnapshot(cronScheduler, cfg.Inventory.SnapshotCron, itemService, archive, cfg.Storage.SnapshotPrefix, log); err != nil {
		log.Fatal("Failed to register stock snapshot", zap.Error(err))
	}
	if err := cronScheduler.Start(rootCtx); err != nil {
		log.Fatal("Failed to start scheduler", zap.Error(err))
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	var httpMetrics *middleware.HTTPMetrics
	if cfg.HTTP.MetricsEnabled {
		httpMetrics = middleware.NewHTTPMetrics("mfg")
	}

	orderHandler := handler.NewPurchaseOrderHandler(orderService, receiving)
	if httpMetrics != nil {
		orderHandler.SetReceiptObserver(httpMetrics)
	}

	storageItemHandler := handler.NewStorageItemHandler(itemService)
	storageItemHandler.SetSnapshotArchive(archive, cfg.Storage.SnapshotPrefix)

	engine, err := router.NewEngine(router.EngineConfig{
		Logger:           log,
		HTTP:             cfg.HTTP,
		Tokens:           auth.NewJWTService(cfg.JWT),
		Metrics:          httpMetrics,
		ServiceName:      cfg.Telemetry.ServiceName,
		TracingEnabled:   providers.Enabled(),
		ProfilingEnabled: profiler.Enabled(),
	}, router.Handlers{
		PurchaseOrders: orderHandler,
		StorageItems:   storageItemHandler,
		System:         handler.NewSystemHandler(cfg.App.Name, version, db),
	})
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

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
			log.Error("Server failed", zap.Error(err))
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := cronScheduler.Stop(ctx); err != nil {
		log.Error("Error stopping scheduler", zap.Error(err))
	}
	if err := eventBus.Stop(ctx); err != nil {
		log.Error("Error stopping event bus", zap.Error(err))
	}
	businessMetrics.Stop()
	dbInstrumentation.Stop()
	if err := idempotencyStore.Close(); err != nil {
		log.Error("Error closing idempotency store", zap.Error(err))
	}
	if err := db.Close(); err != nil {
		log.Error("Error closing database", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Error("Error stopping profiler", zap.Error(err))
	}
	if err := providers.Shutdown(ctx); err != nil {
		log.Error("Error shutting down telemetry", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// newIdempotencyStore uses Redis when it is enabled and reachable and falls
// back to process memory otherwise
func newIdempotencyStore(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) shared.IdempotencyStore {
	if !cfg.Enabled {
		log.Info("Redis disabled, using in-memory idempotency store")
		return cache.NewInMemoryIdempotencyStore()
	}
	store, err := cache.NewRedisIdempotencyStore(ctx, cfg)
	if err != nil {
		log.Warn("Redis unavailable, using in-memory idempotency store", zap.Error(err))
		return cache.NewInMemoryIdempotencyStore()
	}
	log.Info("Redis idempotency store connected", zap.String("addr", cfg.Addr()))
	return store
}

// snapshotArchive is what both the snapshot job and its lookup endpoint need
type snapshotArchive interface {
	scheduler.SnapshotArchive
	handler.SnapshotLocator
}

// newSnapshotArchive uses S3-compatible storage when configured and falls
// back to process memory otherwise
func newSnapshotArchive(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) snapshotArchive {
	if !cfg.Enabled {
		log.Info("Object storage disabled, keeping stock snapshots in memory")
		return storage.NewMemoryArchive()
	}
	archive, err := storage.NewS3Archive(ctx, cfg, storage.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to configure object storage", zap.Error(err))
	}
	if err := archive.EnsureBucket(ctx); err != nil {
		log.Warn("Snapshot bucket not ready", zap.String("bucket", archive.Bucket()), zap.Error(err))
	}
	return archive
}
