package router

import (
	"time"

	"github.com/bamskydbest/pharm-back/internal/config"
	"github.com/bamskydbest/pharm-back/internal/handler"
	"github.com/bamskydbest/pharm-back/internal/infra"
	"github.com/bamskydbest/pharm-back/internal/middleware"
	"github.com/bamskydbest/pharm-back/internal/model"
	"github.com/bamskydbest/pharm-back/internal/repository"
	"github.com/bamskydbest/pharm-back/internal/service"
	"github.com/bamskydbest/pharm-back/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine together
// with the job dispatcher, whose pool the caller starts.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*gin.Engine, *worker.Dispatcher) {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.AllowedOrigins()))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	mailer := infra.NewMailer(cfg)
	smtpCB := infra.NewCircuitBreaker(infra.DefaultCBConfig("smtp"))
	productCache := infra.NewProductCache(rdb)

	// ── Repositories ─────────────────────────────────────────────────────────
	productRepo := repository.NewProductRepository(db)
	batchRepo := repository.NewBatchRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	customerRepo := repository.NewCustomerRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	selector := service.NewFEFOSelector(batchRepo, nil)
	deducter := service.NewStockDeducter(selector, batchRepo, cfg.DeductionMaxRetries)
	customerSvc := service.NewCustomerService(customerRepo, cfg.LoyaltyPointsDivisor)

	// Post-commit side effects go through the dispatcher; handlers are
	// registered here so the pool has every dependency it needs.
	dispatcher := worker.NewDispatcher(rdb, cfg.JobMaxAttempts)
	dispatcher.Register(worker.QueueLoyalty, worker.NewLoyaltyWorker(customerSvc).Process)
	dispatcher.Register(worker.QueueReceiptEmail, worker.NewEmailWorker(saleRepo, mailer, smtpCB, cfg.PharmacyName).Process)

	saleSvc := service.NewSaleService(saleRepo, productRepo, batchRepo, deducter, dispatcher, cfg.PharmacyName)
	inventorySvc := service.NewInventoryService(productRepo, batchRepo, movementRepo, selector, productCache,
		service.ExpiryThresholds{CriticalDays: cfg.ExpiryCriticalDays, WarningDays: cfg.ExpiryWarningDays})
	reportSvc := service.NewReportService(productRepo, batchRepo, movementRepo, saleRepo, ledgerRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	salesH := handler.NewSalesHandler(saleSvc)
	inventoryH := handler.NewInventoryHandler(inventorySvc)
	reportsH := handler.NewReportsHandler(reportSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	anyRole := middleware.RequireRole(model.RoleAdmin, model.RolePharmacist, model.RoleCashier, model.RoleAccountant)

	// Protected routes
	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		sales := v1.Group("/sales")
		{
			sales.POST("", middleware.RequireRole(model.RoleAdmin, model.RoleCashier), salesH.CreateSale)
			sales.GET("", anyRole, salesH.ListSales)
			sales.GET("/:id", anyRole, salesH.GetSale)
			sales.GET("/:id/receipt", anyRole, salesH.Receipt)
		}

		inv := v1.Group("/inventory")
		{
			inv.POST("/stock-in", middleware.RequireRole(model.RoleAdmin, model.RolePharmacist), inventoryH.StockIn)
			inv.POST("/adjust", middleware.RequireRole(model.RoleAdmin, model.RolePharmacist), inventoryH.AdjustStock)
			inv.POST("/products/:id/discontinue", middleware.RequireRole(model.RoleAdmin, model.RolePharmacist), inventoryH.DiscontinueProduct)
			inv.GET("", anyRole, inventoryH.Summary)
			inv.GET("/scan/:barcode", anyRole, inventoryH.Scan)
			inv.GET("/alerts", anyRole, inventoryH.ExpiryAlerts)
			inv.GET("/history", anyRole, inventoryH.History)
		}

		reports := v1.Group("/reports", middleware.RequireRole(model.RoleAdmin, model.RolePharmacist, model.RoleAccountant))
		{
			reports.GET("/stock", reportsH.StockReport)
			reports.GET("/sales", reportsH.SalesReport)
			reports.GET("/ledger", reportsH.Ledger)
		}
	}

	// Swagger UI, only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r, dispatcher
}
