package handlers

import (
	"net/http"

	"cloth_pos_backend/internal/services"
	"cloth_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AdminHandler holds the admin service.
type AdminHandler struct {
	adminService services.AdminService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(as services.AdminService) *AdminHandler {
	return &AdminHandler{adminService: as}
}

// ResetData wipes all catalog and transaction data. User accounts survive.
func (h *AdminHandler) ResetData(c *gin.Context) {
	if err := h.adminService.ResetData(); err != nil {
		utils.LogError(err, "ResetData: Error from adminService.ResetData")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to reset data.", err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All catalog and transaction data cleared."})
}
