package router

import (
	"github.com/gin-gonic/gin"
	"github.com/mfgadmin/backend/internal/infrastructure/auth"
	"github.com/mfgadmin/backend/internal/infrastructure/config"
	"github.com/mfgadmin/backend/internal/infrastructure/logger"
	"github.com/mfgadmin/backend/internal/interfaces/http/handler"
	"github.com/mfgadmin/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// Handlers bundles the HTTP handlers mounted by NewEngine
type Handlers struct {
	PurchaseOrders *handler.PurchaseOrderHandler
	StorageItems   *handler.StorageItemHandler
	System         *handler.SystemHandler
}

// EngineConfig holds what NewEngine needs besides the handlers
type EngineConfig struct {
	Logger           *zap.Logger
	HTTP             config.HTTPConfig
	Tokens           middleware.TokenValidator
	Metrics          *middleware.HTTPMetrics // nil disables /metrics
	ServiceName      string
	TracingEnabled   bool
	ProfilingEnabled bool
}

// NewEngine builds the gin engine with the global middleware chain, the
// unauthenticated health and metrics endpoints and the /api/v1 routes.
func NewEngine(cfg EngineConfig, h Handlers) (*gin.Engine, error) {
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return nil, err
	}

	engine.Use(
		logger.Recovery(cfg.Logger),
		middleware.RequestID(),
		logger.GinMiddleware(cfg.Logger),
		middleware.TracingWithConfig(middleware.TracingConfig{ServiceName: cfg.ServiceName, Enabled: cfg.TracingEnabled}),
		middleware.SpanErrorMarker(),
	)
	if cfg.Metrics != nil {
		engine.Use(cfg.Metrics.Middleware())
	}
	engine.Use(
		middleware.Profiling(cfg.ProfilingEnabled),
		middleware.Secure(),
		middleware.CORSWithConfig(corsConfig(cfg.HTTP)),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
		middleware.Timeout(cfg.HTTP.WriteTimeout),
	)

	engine.GET("/health", h.System.Health)
	if cfg.Metrics != nil {
		engine.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	jwtConfig := middleware.DefaultJWTConfig(cfg.Tokens)
	jwtConfig.Logger = cfg.Logger

	NewRouter(engine, WithAPIMiddleware(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))).
		Register(PurchaseOrderRoutes(h.PurchaseOrders)).
		Register(StorageItemRoutes(h.StorageItems)).
		Setup()

	return engine, nil
}

func corsConfig(httpCfg config.HTTPConfig) middleware.CORSConfig {
	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = httpCfg.CORSAllowOrigins
	if len(httpCfg.CORSAllowMethods) > 0 {
		cors.AllowMethods = httpCfg.CORSAllowMethods
	}
	if len(httpCfg.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = httpCfg.CORSAllowHeaders
	}
	return cors
}

// PurchaseOrderRoutes mounts order reads for any authenticated user and
// guards every mutation with a storage permission
func PurchaseOrderRoutes(h *handler.PurchaseOrderHandler) *DomainGroup {
	create := middleware.RequirePermission(auth.PermissionStorageCreate)
	edit := middleware.RequirePermission(auth.PermissionStorageEdit)
	remove := middleware.RequirePermission(auth.PermissionStorageDelete)

	return NewDomainGroup("purchase-orders", "/purchase-orders").
		GET("", h.List).
		GET("/status-summary", h.StatusSummary).
		GET("/:id", h.GetByID).
		GET("/:id/delivery-estimate", h.DeliveryEstimate).
		POST("", create, h.Create).
		PUT("/:id", edit, h.Update).
		DELETE("/:id", remove, h.Delete).
		POST("/:id/send", edit, h.Send).
		POST("/:id/confirm", edit, h.Confirm).
		POST("/:id/cancel", edit, h.Cancel).
		POST("/:id/receive", edit, h.Receive).
		POST("/:id/items/:itemId/receive", edit, h.ReceiveItem)
}

// StorageItemRoutes mounts the storage item read API and custom-field updates
func StorageItemRoutes(h *handler.StorageItemHandler) *DomainGroup {
	return NewDomainGroup("storage-items", "/storage-items").
		GET("", h.List).
		GET("/low-stock", h.ListLowStock).
		GET("/export", h.Export).
		GET("/snapshots/:date", h.Snapshot).
		GET("/:id", h.GetByID).
		PUT("/:id/custom-fields", middleware.RequirePermission(auth.PermissionStorageEdit), h.UpdateCustomFields)
}

