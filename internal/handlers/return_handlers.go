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

// ReturnHandler holds the return service.
type ReturnHandler struct {
	returnService services.ReturnService
}

// NewReturnHandler creates a new ReturnHandler.
func NewReturnHandler(rs services.ReturnService) *ReturnHandler {
	return &ReturnHandler{returnService: rs}
}

// CreateReturn handles processing a customer return against a prior sale.
func (h *ReturnHandler) CreateReturn(c *gin.Context) {
	var req services.CreateReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "CreateReturn: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	ret, err := h.returnService.CreateReturn(req)
	if err != nil {
		utils.LogError(err, "CreateReturn: Error from returnService.CreateReturn")
		switch {
		case errors.Is(err, services.ErrSaleNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Original sale not found.", err.Error()))
		case errors.Is(err, services.ErrSaleItemNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "One or more sale items not found.", err.Error()))
		case errors.Is(err, services.ErrReturnExceedsSold):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Return quantity exceeds the quantity still outstanding on the sale.", err.Error()))
		case errors.Is(err, services.ErrSaleItemMismatch):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Sale item does not belong to the referenced sale.", err.Error()))
		case errors.Is(err, services.ErrInvalidReturnReason), errors.Is(err, services.ErrEmptyReturn):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid return request.", err.Error()))
		default:
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to create return.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, ret)
}

// GetReturns handles listing returns, newest first.
func (h *ReturnHandler) GetReturns(c *gin.Context) {
	page, pageSize := parsePagination(c)

	returns, totalCount, err := h.returnService.GetReturns(page, pageSize)
	if err != nil {
		utils.LogError(err, "GetReturns: Error from returnService.GetReturns")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch returns.", "Internal error"))
		return
	}

	if returns == nil {
		returns = []models.Return{}
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      returns,
		"total":     totalCount,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetReturnByID handles fetching a single return with its items.
func (h *ReturnHandler) GetReturnByID(c *gin.Context) {
	returnID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid return ID format.", err.Error()))
		return
	}

	ret, err := h.returnService.GetReturnByID(returnID)
	if err != nil {
		utils.LogError(err, "GetReturnByID: Error from returnService.GetReturnByID")
		if errors.Is(err, services.ErrReturnNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Return not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch return.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, ret)
}
