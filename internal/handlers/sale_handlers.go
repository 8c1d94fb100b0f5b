package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"cloth_pos_backend/internal/models"
	"cloth_pos_backend/internal/services"
	"cloth_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// SaleHandler holds the sale service.
type SaleHandler struct {
	saleService services.SaleService
}

// NewSaleHandler creates a new SaleHandler.
func NewSaleHandler(ss services.SaleService) *SaleHandler {
	return &SaleHandler{saleService: ss}
}

// CreateSale handles ringing up a new sale with its items.
func (h *SaleHandler) CreateSale(c *gin.Context) {
	var req services.CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "CreateSale: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	var cashierID *int64
	if id, ok := currentUserID(c); ok {
		cashierID = &id
	}

	sale, err := h.saleService.CreateSale(req, cashierID)
	if err != nil {
		utils.LogError(err, "CreateSale: Error from saleService.CreateSale")
		switch {
		case errors.Is(err, services.ErrInsufficientStock):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeInsufficientStock, "Insufficient stock for one or more items.", err.Error()))
		case errors.Is(err, services.ErrVariantNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "One or more product variants not found.", err.Error()))
		case errors.Is(err, services.ErrInvalidPaymentMode), errors.Is(err, services.ErrEmptySale):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid sale request.", err.Error()))
		default:
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to create sale.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, sale)
}

// GetSales handles listing sales with an optional date window, newest first.
func (h *SaleHandler) GetSales(c *gin.Context) {
	var filters models.SaleFilters

	if startStr := c.Query("start_date"); startStr != "" {
		start, err := time.Parse("2006-01-02", startStr)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid start_date format. Use YYYY-MM-DD.", err.Error()))
			return
		}
		filters.StartDate = &start
	}
	if endStr := c.Query("end_date"); endStr != "" {
		end, err := time.Parse("2006-01-02", endStr)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid end_date format. Use YYYY-MM-DD.", err.Error()))
			return
		}
		// Inclusive of the whole end day.
		end = end.Add(24*time.Hour - time.Second)
		filters.EndDate = &end
	}
	filters.Page, filters.PageSize = parsePagination(c)

	sales, totalCount, err := h.saleService.GetSales(filters)
	if err != nil {
		utils.LogError(err, "GetSales: Error from saleService.GetSales")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch sales.", "Internal error"))
		return
	}

	if sales == nil {
		sales = []models.Sale{}
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      sales,
		"total":     totalCount,
		"page":      filters.Page,
		"page_size": filters.PageSize,
	})
}

// GetSaleByID handles fetching a single sale with its items.
func (h *SaleHandler) GetSaleByID(c *gin.Context) {
	saleID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid sale ID format.", err.Error()))
		return
	}

	sale, err := h.saleService.GetSaleByID(saleID)
	if err != nil {
		utils.LogError(err, "GetSaleByID: Error from saleService.GetSaleByID")
		if errors.Is(err, services.ErrSaleNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Sale not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch sale.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, sale)
}

// parsePagination reads page/page_size query parameters with defaults.
func parsePagination(c *gin.Context) (int, int) {
	page := 1
	if pageStr := c.Query("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}
	pageSize := 20
	if sizeStr := c.Query("page_size"); sizeStr != "" {
		if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 {
			pageSize = s
		}
	}
	return page, pageSize
}
