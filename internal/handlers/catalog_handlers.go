package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"cloth_pos_backend/internal/models"
	"cloth_pos_backend/internal/services"
	"cloth_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// CatalogHandler holds the catalog service for categories and products.
type CatalogHandler struct {
	catalogService services.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(cs services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: cs}
}

// --- Categories ---

// CreateCategory handles creating a new category.
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req services.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "CreateCategory: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	category, err := h.catalogService.CreateCategory(req)
	if err != nil {
		utils.LogError(err, "CreateCategory: Error from catalogService.CreateCategory")
		respondCatalogError(c, err, "category")
		return
	}
	c.JSON(http.StatusCreated, category)
}

// GetCategories handles listing all categories.
func (h *CatalogHandler) GetCategories(c *gin.Context) {
	page, pageSize := parsePagination(c)

	categories, totalCount, err := h.catalogService.GetCategories(page, pageSize)
	if err != nil {
		utils.LogError(err, "GetCategories: Error from catalogService.GetCategories")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch categories.", "Internal error"))
		return
	}

	if categories == nil {
		categories = []models.Category{}
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      categories,
		"total":     totalCount,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetCategoryByID handles fetching a single category.
func (h *CatalogHandler) GetCategoryByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid category ID format.", err.Error()))
		return
	}

	category, err := h.catalogService.GetCategoryByID(id)
	if err != nil {
		utils.LogError(err, "GetCategoryByID: Error from catalogService.GetCategoryByID")
		respondCatalogError(c, err, "category")
		return
	}
	c.JSON(http.StatusOK, category)
}

// UpdateCategory handles renaming a category.
func (h *CatalogHandler) UpdateCategory(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid category ID format.", err.Error()))
		return
	}

	var req services.UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	category, err := h.catalogService.UpdateCategory(id, req)
	if err != nil {
		utils.LogError(err, "UpdateCategory: Error from catalogService.UpdateCategory")
		respondCatalogError(c, err, "category")
		return
	}
	c.JSON(http.StatusOK, category)
}

// DeleteCategory handles deleting a category.
func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid category ID format.", err.Error()))
		return
	}

	if err := h.catalogService.DeleteCategory(id); err != nil {
		utils.LogError(err, "DeleteCategory: Error from catalogService.DeleteCategory")
		respondCatalogError(c, err, "category")
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Products ---

// CreateProduct handles creating a new product.
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req services.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "CreateProduct: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	product, err := h.catalogService.CreateProduct(req)
	if err != nil {
		utils.LogError(err, "CreateProduct: Error from catalogService.CreateProduct")
		respondCatalogError(c, err, "product")
		return
	}
	c.JSON(http.StatusCreated, product)
}

// GetProducts handles listing products with optional category and search
// filters.
func (h *CatalogHandler) GetProducts(c *gin.Context) {
	var filters models.ProductFilters
	if categoryIDStr := c.Query("category_id"); categoryIDStr != "" {
		categoryID, err := strconv.ParseInt(categoryIDStr, 10, 64)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid category_id format.", err.Error()))
			return
		}
		filters.CategoryID = &categoryID
	}
	if search := c.Query("search"); search != "" {
		filters.Search = &search
	}
	filters.Page, filters.PageSize = parsePagination(c)

	products, totalCount, err := h.catalogService.GetProducts(filters)
	if err != nil {
		utils.LogError(err, "GetProducts: Error from catalogService.GetProducts")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch products.", "Internal error"))
		return
	}

	if products == nil {
		products = []models.Product{}
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      products,
		"total":     totalCount,
		"page":      filters.Page,
		"page_size": filters.PageSize,
	})
}

// GetProductByID handles fetching a single product with its variants.
func (h *CatalogHandler) GetProductByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid product ID format.", err.Error()))
		return
	}

	product, err := h.catalogService.GetProductByID(id)
	if err != nil {
		utils.LogError(err, "GetProductByID: Error from catalogService.GetProductByID")
		respondCatalogError(c, err, "product")
		return
	}
	c.JSON(http.StatusOK, product)
}

// UpdateProduct handles updating a product.
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid product ID format.", err.Error()))
		return
	}

	var req services.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	product, err := h.catalogService.UpdateProduct(id, req)
	if err != nil {
		utils.LogError(err, "UpdateProduct: Error from catalogService.UpdateProduct")
		respondCatalogError(c, err, "product")
		return
	}
	c.JSON(http.StatusOK, product)
}

// DeleteProduct handles deleting a product and its variants.
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid product ID format.", err.Error()))
		return
	}

	if err := h.catalogService.DeleteProduct(id); err != nil {
		utils.LogError(err, "DeleteProduct: Error from catalogService.DeleteProduct")
		respondCatalogError(c, err, "product")
		return
	}
	c.Status(http.StatusNoContent)
}

// respondCatalogError maps catalog service errors onto API errors.
func respondCatalogError(c *gin.Context, err error, entity string) {
	switch {
	case errors.Is(err, services.ErrCategoryNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Category not found.", err.Error()))
	case errors.Is(err, services.ErrProductNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Product not found.", err.Error()))
	case errors.Is(err, services.ErrDuplicateCategory), errors.Is(err, services.ErrDuplicateProduct):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeDuplicateEntity, "A "+entity+" with this name already exists.", err.Error()))
	case errors.Is(err, services.ErrBlankName):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Name must not be blank.", err.Error()))
	case errors.Is(err, services.ErrDeleteBlocked):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeDeleteBlocked, "Cannot delete a "+entity+" that appears on past sales.", err.Error()))
	default:
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to process "+entity+" request.", "Internal error"))
	}
}
