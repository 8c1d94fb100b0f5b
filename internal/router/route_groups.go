package router

import (
	"cloth_pos_backend/internal/handlers"

	"github.com/gin-gonic/gin"
)

// SetupPublicAuthRoutes registers the unauthenticated auth endpoints.
func SetupPublicAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.POST("/register", authHandler.Register)
	group.POST("/login", authHandler.Login)
}

// SetupAuthenticatedAuthRoutes registers auth endpoints behind the token check.
func SetupAuthenticatedAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.GET("/me", authHandler.GetCurrentUser)
}

// SetupCategoryRoutes registers category CRUD.
func SetupCategoryRoutes(group *gin.RouterGroup, catalogHandler *handlers.CatalogHandler) {
	categories := group.Group("/categories")
	{
		categories.POST("", catalogHandler.CreateCategory)
		categories.GET("", catalogHandler.GetCategories)
		categories.GET("/:id", catalogHandler.GetCategoryByID)
		categories.PUT("/:id", catalogHandler.UpdateCategory)
		categories.DELETE("/:id", catalogHandler.DeleteCategory)
	}
}

// SetupProductRoutes registers product CRUD.
func SetupProductRoutes(group *gin.RouterGroup, catalogHandler *handlers.CatalogHandler) {
	products := group.Group("/products")
	{
		products.POST("", catalogHandler.CreateProduct)
		products.GET("", catalogHandler.GetProducts)
		products.GET("/:id", catalogHandler.GetProductByID)
		products.PUT("/:id", catalogHandler.UpdateProduct)
		products.DELETE("/:id", catalogHandler.DeleteProduct)
	}
}

// SetupVariantRoutes registers variant CRUD and the low-stock listing.
func SetupVariantRoutes(group *gin.RouterGroup, variantHandler *handlers.VariantHandler) {
	variants := group.Group("/variants")
	{
		variants.POST("", variantHandler.CreateVariant)
		variants.GET("", variantHandler.GetVariants)
		variants.GET("/low-stock", variantHandler.GetLowStockVariants)
		variants.GET("/:id", variantHandler.GetVariantByID)
		variants.PUT("/:id", variantHandler.UpdateVariant)
		variants.DELETE("/:id", variantHandler.DeleteVariant)
	}
}

// SetupSaleRoutes registers the sale engine endpoints.
func SetupSaleRoutes(group *gin.RouterGroup, saleHandler *handlers.SaleHandler) {
	sales := group.Group("/sales")
	{
		sales.POST("", saleHandler.CreateSale)
		sales.GET("", saleHandler.GetSales)
		sales.GET("/:id", saleHandler.GetSaleByID)
	}
}

// SetupAnalyticsRoutes registers the analytics report endpoint under /sales.
func SetupAnalyticsRoutes(group *gin.RouterGroup, analyticsHandler *handlers.AnalyticsHandler) {
	group.GET("/sales/analytics", analyticsHandler.GetSalesAnalytics)
}

// SetupReturnRoutes registers the return engine endpoints.
func SetupReturnRoutes(group *gin.RouterGroup, returnHandler *handlers.ReturnHandler) {
	returns := group.Group("/returns")
	{
		returns.POST("", returnHandler.CreateReturn)
		returns.GET("", returnHandler.GetReturns)
		returns.GET("/:id", returnHandler.GetReturnByID)
	}
}

// SetupAdminRoutes registers administrative endpoints.
func SetupAdminRoutes(group *gin.RouterGroup, adminHandler *handlers.AdminHandler) {
	group.POST("/admin/reset", adminHandler.ResetData)
}
