package router

import (
	"database/sql"

	"cloth_pos_backend/internal/handlers"
	"cloth_pos_backend/internal/middleware"
	"cloth_pos_backend/internal/repositories"
	"cloth_pos_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, db *sql.DB) {
	// Repositories
	txRunner := repositories.NewTxRunner(db)
	authRepo := repositories.NewAuthRepository(db)
	catalogRepo := repositories.NewCatalogRepository(db)
	variantRepo := repositories.NewVariantRepository(db)
	saleRepo := repositories.NewSaleRepository(db)
	returnRepo := repositories.NewReturnRepository(db)
	analyticsRepo := repositories.NewAnalyticsRepository(db)
	adminRepo := repositories.NewAdminRepository(db)

	// Services
	authService := services.NewAuthService(authRepo, txRunner)
	catalogService := services.NewCatalogService(catalogRepo, txRunner)
	variantService := services.NewVariantService(variantRepo, txRunner)
	saleService := services.NewSaleService(saleRepo, variantRepo, txRunner)
	returnService := services.NewReturnService(returnRepo, saleRepo, variantRepo, txRunner)
	analyticsService := services.NewAnalyticsService(analyticsRepo, saleRepo, returnRepo)
	adminService := services.NewAdminService(adminRepo, txRunner)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	variantHandler := handlers.NewVariantHandler(variantService)
	saleHandler := handlers.NewSaleHandler(saleService)
	returnHandler := handlers.NewReturnHandler(returnService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)
	adminHandler := handlers.NewAdminHandler(adminService)

	apiV1 := engine.Group("/api/v1")

	// Public authentication routes
	SetupPublicAuthRoutes(apiV1.Group("/auth"), authHandler)

	// Everything else requires a valid access token
	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	{
		SetupAuthenticatedAuthRoutes(authenticated.Group("/auth"), authHandler)
		SetupCategoryRoutes(authenticated, catalogHandler)
		SetupProductRoutes(authenticated, catalogHandler)
		SetupVariantRoutes(authenticated, variantHandler)
		SetupSaleRoutes(authenticated, saleHandler)
		SetupReturnRoutes(authenticated, returnHandler)
		SetupAnalyticsRoutes(authenticated, analyticsHandler)
		SetupAdminRoutes(authenticated, adminHandler)
	}
}
