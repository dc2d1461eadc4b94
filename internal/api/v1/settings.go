package v1

import (
	"net/http"

	"github.com/feebridge/feebridge/internal/api/dto"
	ierr "github.com/feebridge/feebridge/internal/errors"
	"github.com/feebridge/feebridge/internal/logger"
	"github.com/feebridge/feebridge/internal/service"
	"github.com/gin-gonic/gin"
)

type SettingsHandler struct {
	service service.SettingsService
	log     *logger.Logger
}

func NewSettingsHandler(service service.SettingsService, log *logger.Logger) *SettingsHandler {
	return &SettingsHandler{service: service, log: log}
}

// @Summary Get the tenant's billing settings
// @Tags Settings
// @Produce json
// @Success 200 {object} dto.BillingSettingsResponse
// @Router /settings/billing [get]
func (h *SettingsHandler) GetBillingSettings(c *gin.Context) {
	resp, err := h.service.GetBillingSettings(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Update the tenant's billing settings
// @Tags Settings
// @Accept json
// @Produce json
// @Param settings body dto.UpdateBillingSettingsRequest true "Settings"
// @Success 200 {object} dto.BillingSettingsResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /settings/billing [put]
func (h *SettingsHandler) UpdateBillingSettings(c *gin.Context) {
	var req dto.UpdateBillingSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.UpdateBillingSettings(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
