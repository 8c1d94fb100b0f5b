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

// VariantHandler holds the variant service.
type VariantHandler struct {
	variantService services.VariantService
}

// NewVariantHandler creates a new VariantHandler.
func NewVariantHandler(vs services.VariantService) *VariantHandler {
	return &VariantHandler{variantService: vs}
}

// CreateVariant handles creating a new size/color variant of a product.
func (h *VariantHandler) CreateVariant(c *gin.Context) {
	var req services.CreateVariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "CreateVariant: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	variant, err := h.variantService.CreateVariant(req)
	if err != nil {
		utils.LogError(err, "CreateVariant: Error from variantService.CreateVariant")
		respondVariantError(c, err)
		return
	}
	c.JSON(http.StatusCreated, variant)
}

// GetVariants handles listing variants with optional product and search
// filters.
func (h *VariantHandler) GetVariants(c *gin.Context) {
	var filters models.VariantFilters
	if productIDStr := c.Query("product_id"); productIDStr != "" {
		productID, err := strconv.ParseInt(productIDStr, 10, 64)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid product_id format.", err.Error()))
			return
		}
		filters.ProductID = &productID
	}
	if search := c.Query("search"); search != "" {
		filters.Search = &search
	}
	filters.Page, filters.PageSize = parsePagination(c)

	variants, totalCount, err := h.variantService.GetVariants(filters)
	if err != nil {
		utils.LogError(err, "GetVariants: Error from variantService.GetVariants")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch variants.", "Internal error"))
		return
	}

	if variants == nil {
		variants = []models.ProductVariant{}
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      variants,
		"total":     totalCount,
		"page":      filters.Page,
		"page_size": filters.PageSize,
	})
}

// GetLowStockVariants handles listing variants at or below a stock threshold.
func (h *VariantHandler) GetLowStockVariants(c *gin.Context) {
	threshold := 0
	if thresholdStr := c.Query("threshold"); thresholdStr != "" {
		t, err := strconv.Atoi(thresholdStr)
		if err != nil || t < 0 {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid threshold format.", "threshold must be a non-negative integer"))
			return
		}
		threshold = t
	}

	variants, err := h.variantService.GetLowStockVariants(threshold)
	if err != nil {
		utils.LogError(err, "GetLowStockVariants: Error from variantService.GetLowStockVariants")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch low stock variants.", "Internal error"))
		return
	}

	if variants == nil {
		variants = []models.ProductVariant{}
	}
	c.JSON(http.StatusOK, gin.H{"data": variants})
}

// GetVariantByID handles fetching a single variant.
func (h *VariantHandler) GetVariantByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid variant ID format.", err.Error()))
		return
	}

	variant, err := h.variantService.GetVariantByID(id)
	if err != nil {
		utils.LogError(err, "GetVariantByID: Error from variantService.GetVariantByID")
		respondVariantError(c, err)
		return
	}
	c.JSON(http.StatusOK, variant)
}

// UpdateVariant handles updating a variant's attributes and prices. Stock is
// not updatable here; it moves only through sales and returns.
func (h *VariantHandler) UpdateVariant(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid variant ID format.", err.Error()))
		return
	}

	var req services.UpdateVariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	variant, err := h.variantService.UpdateVariant(id, req)
	if err != nil {
		utils.LogError(err, "UpdateVariant: Error from variantService.UpdateVariant")
		respondVariantError(c, err)
		return
	}
	c.JSON(http.StatusOK, variant)
}

// DeleteVariant handles deleting a variant.
func (h *VariantHandler) DeleteVariant(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid variant ID format.", err.Error()))
		return
	}

	if err := h.variantService.DeleteVariant(id); err != nil {
		utils.LogError(err, "DeleteVariant: Error from variantService.DeleteVariant")
		respondVariantError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// respondVariantError maps variant service errors onto API errors.
func respondVariantError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrVariantNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Variant not found.", err.Error()))
	case errors.Is(err, services.ErrDuplicateBarcode):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeDuplicateEntity, "Barcode is already assigned to another variant.", err.Error()))
	case errors.Is(err, services.ErrDuplicateVariant):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeDuplicateEntity, "A variant with this size and color already exists for the product.", err.Error()))
	case errors.Is(err, services.ErrDeleteBlocked):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeDeleteBlocked, "Cannot delete a variant that appears on past sales.", err.Error()))
	default:
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to process variant request.", "Internal error"))
	}
}
