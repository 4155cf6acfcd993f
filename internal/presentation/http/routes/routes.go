package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/atelier-api/internal/config"
	domainRepo "github.com/sangkips/atelier-api/internal/domain/repository"
	"github.com/sangkips/atelier-api/internal/presentation/http/handler"
	"github.com/sangkips/atelier-api/internal/presentation/http/middleware"
	"github.com/sangkips/atelier-api/pkg/utils"
)

// RoleManager may run shop-wide maintenance such as reconciliation
const RoleManager = "manager"

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	CustomOrder *handler.CustomOrderHandler
	Catalog     *handler.CatalogHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	JWTManager      *utils.JWTManager
	Cfg             *config.Config
	IdempotencyRepo domainRepo.IdempotencyRepository
	BranchRepo      domainRepo.BranchRepository
	RateLimiter     *middleware.RateLimiter
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware())
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": deps.Cfg.App.Name,
		})
	})

	v1 := router.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(deps.JWTManager))
	v1.Use(middleware.BranchMiddleware(deps.BranchRepo))

	rateLimiter := deps.RateLimiter
	if rateLimiter == nil {
		rateLimiter = middleware.NewRateLimiter(middleware.RateLimiterConfigFromWindow(
			deps.Cfg.RateLimit.Requests,
			deps.Cfg.RateLimit.Duration,
		))
	}
	v1.Use(rateLimiter.Middleware())

	registerCustomOrderRoutes(v1, h, deps)
	registerCatalogRoutes(v1, h)

	return router
}

func registerCustomOrderRoutes(v1 *gin.RouterGroup, h *Handlers, deps *Deps) {
	idem := middleware.IdempotencyConfig{Repo: deps.IdempotencyRepo}

	orders := v1.Group("/custom-orders")
	{
		orders.GET("", h.CustomOrder.List)
		orders.POST("/create", middleware.Idempotency(idem), h.CustomOrder.Create)
		orders.GET("/completed-orders", h.CustomOrder.ListCompleted)
		orders.GET("/categories/suppliers", h.Catalog.SupplierReport)
		orders.POST("/reconcile", middleware.RequireRole(middleware.RoleAdmin, RoleManager), h.CustomOrder.Reconcile)

		orders.GET("/:id", h.CustomOrder.Get)
		orders.PUT("/:id/status", h.CustomOrder.UpdateStatus)
		orders.PUT("/:id/mark-as-picked-up", h.CustomOrder.MarkPickedUp)

		// Payments
		orders.POST("/:id/payments", middleware.IdempotencyRequired(idem), h.CustomOrder.RecordPayment)
		orders.GET("/:id/payments", h.CustomOrder.Payments)
		orders.POST("/:id/ledger-payments", middleware.Idempotency(idem), h.CustomOrder.RecordLedgerPayment)
		orders.POST("/:id/refresh-payment-status", h.CustomOrder.RefreshPaymentStatus)

		orders.POST("/:id/materials", h.CustomOrder.AddMaterials)
		orders.POST("/:id/images", h.CustomOrder.UploadImages)
		orders.GET("/:id/images", h.CustomOrder.Images)

		// Notifications
		orders.POST("/:id/send-reminder", h.CustomOrder.SendReminder)
		orders.POST("/:id/send-completion-notification", h.CustomOrder.SendCompletionNotification)
		orders.GET("/:id/emails", h.CustomOrder.EmailHistory)
	}
}

func registerCatalogRoutes(v1 *gin.RouterGroup, h *Handlers) {
	branches := v1.Group("/branches")
	{
		branches.GET("", h.Catalog.ListBranches)
		branches.POST("", middleware.RequireRole(middleware.RoleAdmin), h.Catalog.CreateBranch)
		branches.GET("/:id", h.Catalog.GetBranch)
	}

	categories := v1.Group("/categories")
	{
		categories.GET("", h.Catalog.ListCategories)
		categories.POST("", h.Catalog.CreateCategory)
	}

	suppliers := v1.Group("/suppliers")
	{
		suppliers.GET("", h.Catalog.ListSuppliers)
		suppliers.POST("", h.Catalog.CreateSupplier)
	}
}
