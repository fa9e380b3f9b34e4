package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/farmacia-pos/internal/config"
	"github.com/sangkips/farmacia-pos/internal/domain/enum"
	domainRepo "github.com/sangkips/farmacia-pos/internal/domain/repository"
	"github.com/sangkips/farmacia-pos/internal/presentation/http/handler"
	"github.com/sangkips/farmacia-pos/internal/presentation/http/middleware"
	"github.com/sangkips/farmacia-pos/pkg/utils"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Session  *handler.SessionHandler
	Catalog  *handler.CatalogHandler
	Checkout *handler.CheckoutHandler
	Sales    *handler.SalesHandler
	Printer  *handler.PrinterHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	JWTManager      *utils.JWTManager
	Capabilities    middleware.CapabilityResolver
	Cfg             *config.Config
	IdempotencyRepo domainRepo.IdempotencyRepository
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware())
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": deps.Cfg.App.Name,
		})
	})

	v1 := router.Group("/api/v1")
	{
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(deps.JWTManager, deps.Capabilities))

		rateLimiter := middleware.NewCashierRateLimiter(rateLimiterConfig(&deps.Cfg.RateLimit))
		protected.Use(rateLimiter.Middleware())

		registerProtectedRoutes(protected, h, deps)
	}

	return router
}

func rateLimiterConfig(cfg *config.RateLimitConfig) middleware.RateLimiterConfig {
	rl := middleware.DefaultRateLimiterConfig()
	if cfg.Requests > 0 && cfg.Duration > 0 {
		rl.RequestsPerSecond = float64(cfg.Requests) / float64(cfg.Duration)
		rl.BurstSize = cfg.Requests
	}
	rl.CleanupInterval = 5 * time.Minute
	rl.EntryTTL = 10 * time.Minute
	return rl
}

func registerProtectedRoutes(protected *gin.RouterGroup, h *Handlers, deps *Deps) {
	protected.GET("/me", h.Session.Me)

	// Catalog
	registerCatalogRoutes(protected, h)

	// Checkout
	registerCheckoutRoutes(protected, h, deps)

	// Sales history
	registerSalesRoutes(protected, h)

	// Printer
	registerPrinterRoutes(protected, h)
}

func registerCatalogRoutes(protected *gin.RouterGroup, h *Handlers) {
	catalog := protected.Group("/catalog")
	catalog.Use(middleware.RequirePermission(enum.PermissionSales))
	{
		catalog.GET("", h.Catalog.Summary)
		catalog.POST("/refresh", h.Catalog.Refresh)
		catalog.GET("/products", h.Catalog.SearchProducts)
		catalog.GET("/clients", h.Catalog.SearchClients)
	}
}

func registerCheckoutRoutes(protected *gin.RouterGroup, h *Handlers, deps *Deps) {
	checkout := protected.Group("/checkout")
	checkout.Use(middleware.RequirePermission(enum.PermissionSales))
	{
		checkout.GET("", h.Checkout.Get)
		checkout.PUT("/date", h.Checkout.SetDate)
		checkout.PUT("/client", h.Checkout.SelectClient)
		checkout.DELETE("/client", h.Checkout.ClearClient)

		cart := checkout.Group("/cart")
		cart.DELETE("", h.Checkout.ClearCart)
		cart.POST("/:product_id/toggle", h.Checkout.Toggle)
		cart.PUT("/:product_id", h.Checkout.SetQuantity)
		cart.POST("/:product_id/increment", h.Checkout.Increment)
		cart.POST("/:product_id/decrement", h.Checkout.Decrement)
		cart.DELETE("/:product_id", h.Checkout.Remove)

		// Submission uses idempotency middleware to prevent duplicate sales
		checkout.POST("/submit", middleware.Idempotency(middleware.IdempotencyConfig{
			Repo:     deps.IdempotencyRepo,
			Required: true,
		}), h.Checkout.Submit)

		checkout.GET("/attempts/orphaned", middleware.RequirePermission(enum.PermissionSalesHistory), h.Checkout.ListOrphaned)
	}
}

func registerSalesRoutes(protected *gin.RouterGroup, h *Handlers) {
	sales := protected.Group("/sales")
	sales.Use(middleware.RequirePermission(enum.PermissionSalesHistory))
	{
		sales.GET("/:id/lines", h.Sales.ListLines)
		sales.POST("/:id/receipt", h.Sales.Reprint)
	}
}

func registerPrinterRoutes(protected *gin.RouterGroup, h *Handlers) {
	printerGroup := protected.Group("/printer")
	{
		printerGroup.GET("/status", h.Printer.GetStatus)
	}
}
