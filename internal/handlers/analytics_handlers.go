package handlers

import (
	"net/http"

	"cloth_pos_backend/internal/models"
	"cloth_pos_backend/internal/services"
	"cloth_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AnalyticsHandler holds the analytics service.
type AnalyticsHandler struct {
	analyticsService services.AnalyticsService
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(as services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: as}
}

// GetSalesAnalytics handles the dashboard analytics report.
func (h *AnalyticsHandler) GetSalesAnalytics(c *gin.Context) {
	var params models.AnalyticsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid query parameters: "+err.Error(), err.Error()))
		return
	}

	report, err := h.analyticsService.GetSalesAnalytics(params)
	if err != nil {
		utils.LogError(err, "GetSalesAnalytics: Error from analyticsService.GetSalesAnalytics")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to build analytics report.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, report)
}
