// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"kvtrade/internal/domain"
	"kvtrade/internal/domain/catalogue"
	"kvtrade/internal/domain/pricing"
	"kvtrade/internal/domain/product"
	"kvtrade/internal/domain/quotation"
	"kvtrade/internal/domain/rates"
	"kvtrade/internal/domain/sales"
	"kvtrade/internal/domain/supplier"
	"kvtrade/internal/infrastructure/http/v1/handlers"
	"kvtrade/internal/infrastructure/http/v1/middleware"
	"kvtrade/internal/infrastructure/storage/postgres"
	"kvtrade/internal/infrastructure/storage/postgres/catalog_repo"
	"kvtrade/internal/infrastructure/storage/postgres/document_repo"
	"kvtrade/internal/infrastructure/storage/postgres/report_repo"
	"kvtrade/pkg/numerator"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Pool is the database connection pool (health checks).
	Pool *pgxpool.Pool

	// TxManager runs repository statements and transactions.
	TxManager *postgres.TxManager

	// Numerator issues quotation numbers.
	Numerator *numerator.Service

	// Audit records entity snapshots.
	Audit domain.Auditor
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters).
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger())
	router.Use(middleware.Actor())
	router.Use(middleware.ErrorHandler())

	if cfg.Audit == nil {
		cfg.Audit = domain.NopAuditor{}
	}

	// Services share the TxManager; repositories resolve the active
	// transaction from context per statement.
	catalogueSvc := catalogue.NewService(cfg.TxManager,
		catalog_repo.NewComponentRepo(cfg.TxManager),
		catalog_repo.NewCodeRepo(cfg.TxManager),
		cfg.Audit)
	ratesSvc := rates.NewService(cfg.TxManager,
		catalog_repo.NewRateRepo(cfg.TxManager), cfg.Audit)
	resolver := pricing.NewResolver(ratesSvc)
	supplierSvc := supplier.NewService(cfg.TxManager,
		catalog_repo.NewSupplierRepo(cfg.TxManager), cfg.Audit)
	productSvc := product.NewService(cfg.TxManager,
		catalog_repo.NewProductRepo(cfg.TxManager),
		catalogueSvc, supplierSvc, cfg.Audit)
	quotationSvc := quotation.NewService(cfg.TxManager,
		document_repo.NewQuotationRepo(cfg.TxManager),
		cfg.Numerator, cfg.Audit)
	salesSvc := sales.NewService(cfg.TxManager,
		report_repo.NewTargetRepo(cfg.TxManager),
		report_repo.NewRecordRepo(cfg.TxManager),
		resolver, cfg.Audit)

	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	api := router.Group("/api/v1")
	{
		registerCatalogueRoutes(api, catalogueSvc)
		registerRateRoutes(api, ratesSvc, resolver)
		registerSupplierRoutes(api, supplierSvc)
		registerProductRoutes(api, productSvc)
		registerQuotationRoutes(api, quotationSvc)
		registerSalesRoutes(api, salesSvc)
	}

	return router
}

func registerCatalogueRoutes(rg *gin.RouterGroup, svc *catalogue.Service) {
	componentHandler := handlers.NewComponentHandler(svc)
	components := rg.Group("/components")
	{
		components.PUT("/:category/:level", componentHandler.Upsert)
		components.GET("/:category/:level", componentHandler.List)
		components.GET("/node/:id", componentHandler.Get)
		components.DELETE("/node/:id", componentHandler.Deactivate)
	}

	codeHandler := handlers.NewCodeHandler(svc)
	codes := rg.Group("/codes")
	{
		codes.GET("", codeHandler.List)
		codes.POST("/regenerate", codeHandler.Regenerate)
		codes.GET("/:code", codeHandler.Get)
		codes.POST("/:code/use", codeHandler.Use)
		codes.POST("/:code/release", codeHandler.Release)
	}
}

func registerRateRoutes(rg *gin.RouterGroup, svc *rates.Service, resolver *pricing.Resolver) {
	handler := handlers.NewRateHandler(svc, resolver)
	ratesGroup := rg.Group("/rates")
	{
		ratesGroup.GET("", handler.List)
		ratesGroup.GET("/effective", handler.Effective)
		ratesGroup.PUT("/:year/:base/:target", handler.Put)
		ratesGroup.DELETE("/:year/:base/:target", handler.Delete)
	}
	rg.POST("/pricing/apply", handler.Apply)
}

func registerSupplierRoutes(rg *gin.RouterGroup, svc *supplier.Service) {
	handler := handlers.NewSupplierHandler(svc)
	suppliers := rg.Group("/suppliers")
	{
		suppliers.POST("", handler.Create)
		suppliers.GET("", handler.List)
		suppliers.GET("/:id", handler.Get)
		suppliers.PATCH("/:id", handler.Update)
		suppliers.DELETE("/:id", handler.Inactivate)
	}
}

func registerProductRoutes(rg *gin.RouterGroup, svc *product.Service) {
	handler := handlers.NewProductHandler(svc)
	products := rg.Group("/products")
	{
		products.POST("", handler.Register)
		products.GET("", handler.List)
		products.GET("/code/:code", handler.GetByCode)
		products.GET("/:id", handler.Get)
		products.PATCH("/:id", handler.Update)
		products.DELETE("/:id", handler.Delete)
	}
}

func registerQuotationRoutes(rg *gin.RouterGroup, svc *quotation.Service) {
	handler := handlers.NewQuotationHandler(svc)
	quotations := rg.Group("/quotations")
	{
		quotations.POST("", handler.Create)
		quotations.POST("/save", handler.Save)
		quotations.GET("", handler.Search)
		quotations.GET("/:id", handler.Get)
		quotations.PUT("/:id", handler.Update)
		quotations.DELETE("/:id", handler.Delete)
		quotations.POST("/:id/items", handler.AddItem)
		quotations.POST("/:id/revisions", handler.CreateRevision)
		quotations.GET("/:id/revisions", handler.Revisions)
	}
}

func registerSalesRoutes(rg *gin.RouterGroup, svc *sales.Service) {
	handler := handlers.NewSalesHandler(svc)
	salesGroup := rg.Group("/sales")
	{
		salesGroup.PUT("/targets", handler.UpsertTarget)
		salesGroup.GET("/targets", handler.ListTargets)
		salesGroup.POST("/records", handler.RecordSale)
		salesGroup.GET("/records/:yearMonth", handler.ListRecords)
		salesGroup.GET("/summary/:yearMonth", handler.Summary)
		salesGroup.GET("/target-vs-actual", handler.TargetVsActual)
	}
}
