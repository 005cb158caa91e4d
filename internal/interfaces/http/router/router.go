package router

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/importops/backend/internal/infrastructure/auth"
	"github.com/importops/backend/internal/infrastructure/config"
	"github.com/importops/backend/internal/infrastructure/logger"
	"github.com/importops/backend/internal/interfaces/http/handler"
	"github.com/importops/backend/internal/interfaces/http/middleware"
)

// Handlers groups the handlers wired into the router
type Handlers struct {
	System        *handler.SystemHandler
	PurchaseOrder *handler.PurchaseOrderHandler
	Product       *handler.ProductHandler
	Listing       *handler.ListingHandler
	Channel       *handler.ChannelHandler
}

// Options controls optional router behavior
type Options struct {
	// TracingEnabled adds the otelgin middleware when true
	TracingEnabled bool
	// ServiceName is the name reported on traces
	ServiceName string
	// CORS overrides the default CORS configuration when non-nil
	CORS *middleware.CORSConfig
}

// New builds the gin engine with all middleware and routes registered
func New(cfg *config.Config, log *zap.Logger, jwtService *auth.JWTService, h Handlers, opts Options) *gin.Engine {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(logger.GinMiddleware(log))
	r.Use(logger.Recovery(log))
	if opts.TracingEnabled {
		r.Use(otelgin.Middleware(opts.ServiceName))
	}

	corsCfg := middleware.DefaultCORSConfig()
	if opts.CORS != nil {
		corsCfg = *opts.CORS
	} else if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
		if len(cfg.HTTP.CORSAllowMethods) > 0 {
			corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
		}
		if len(cfg.HTTP.CORSAllowHeaders) > 0 {
			corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders
		}
	}
	r.Use(middleware.CORSWithConfig(corsCfg))

	jwtCfg := middleware.DefaultJWTConfig(jwtService)
	jwtCfg.Logger = log
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtCfg))

	r.GET("/health", h.System.Health)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", h.System.Health)

		system := v1.Group("/system")
		{
			system.GET("/scheduler", h.System.SchedulerStatus)
			system.POST("/scheduler/trigger", h.System.TriggerSync)
		}

		orders := v1.Group("/purchase-orders")
		{
			orders.POST("", h.PurchaseOrder.Create)
			orders.GET("", h.PurchaseOrder.List)
			orders.GET("/:id", h.PurchaseOrder.GetByID)
			orders.GET("/by-number/:number", h.PurchaseOrder.GetByOrderNumber)
			orders.DELETE("/:id", h.PurchaseOrder.Delete)
			orders.POST("/:id/items", h.PurchaseOrder.AddItem)
			orders.DELETE("/:id/items/:itemId", h.PurchaseOrder.RemoveItem)
			orders.POST("/:id/import-costs", h.PurchaseOrder.AddImportCost)
			orders.DELETE("/:id/import-costs/:costId", h.PurchaseOrder.RemoveImportCost)
			orders.POST("/:id/advance", h.PurchaseOrder.Advance)
			orders.GET("/:id/allocation", h.PurchaseOrder.PreviewAllocation)
			orders.POST("/:id/finalize", h.PurchaseOrder.Finalize)
		}

		products := v1.Group("/products")
		{
			products.GET("", h.Product.List)
			products.GET("/:id", h.Product.GetByID)
			products.GET("/by-lead/:leadId", h.Product.GetByLeadID)
			products.GET("/:id/batches", h.Product.ListBatches)
			products.POST("/:id/adjust-stock", h.Product.AdjustStock)
			products.POST("/reprice", h.Product.RepriceAll)
		}

		listings := v1.Group("/listings")
		{
			listings.POST("", h.Listing.Create)
			listings.GET("", h.Listing.List)
			listings.GET("/:id", h.Listing.GetByID)
			listings.DELETE("/:id", h.Listing.Delete)
			listings.POST("/import", h.Listing.Import)
			listings.POST("/publish", h.Listing.Publish)
			listings.POST("/sync-all", h.Listing.SyncAll)
			listings.POST("/retry-failed", h.Listing.RetryFailed)
			listings.POST("/:id/mappings", h.Listing.MapProduct)
			listings.PUT("/:id/mappings", h.Listing.ConnectMappings)
			listings.DELETE("/:id/mappings/:productId", h.Listing.UnmapProduct)
			listings.PUT("/:id/mappings/:productId/enabled", h.Listing.SetMappingEnabled)
			listings.PUT("/:id/sync-enabled", h.Listing.SetSyncEnabled)
			listings.POST("/:id/sync", h.Listing.Sync)
			listings.POST("/:id/push-details", h.Listing.PushDetails)
		}

		channel := v1.Group("/channel")
		{
			channel.GET("/auth-url", h.Channel.AuthURL)
			channel.GET("/callback", h.Channel.Callback)
			channel.POST("/connect", h.Channel.Connect)
			channel.GET("/status", h.Channel.Status)
			channel.DELETE("/credential", h.Channel.Disconnect)
		}
	}

	return r
}
