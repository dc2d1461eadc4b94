package v1

import (
	"net/http"

	"github.com/feebridge/feebridge/internal/api/dto"
	ierr "github.com/feebridge/feebridge/internal/errors"
	"github.com/feebridge/feebridge/internal/logger"
	"github.com/feebridge/feebridge/internal/service"
	"github.com/feebridge/feebridge/internal/types"
	"github.com/gin-gonic/gin"
)

type FeeHandler struct {
	service service.FeeService
	log     *logger.Logger
}

func NewFeeHandler(service service.FeeService, log *logger.Logger) *FeeHandler {
	return &FeeHandler{service: service, log: log}
}

// @Summary Create a new fee
// @Tags Fees
// @Accept json
// @Produce json
// @Param fee body dto.CreateFeeRequest true "Fee configuration"
// @Success 201 {object} dto.FeeResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /fees [post]
func (h *FeeHandler) CreateFee(c *gin.Context) {
	var req dto.CreateFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.CreateFee(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// @Summary Get a fee by ID
// @Tags Fees
// @Produce json
// @Param id path string true "Fee ID"
// @Success 200 {object} dto.FeeResponse
// @Router /fees/{id} [get]
func (h *FeeHandler) GetFee(c *gin.Context) {
	resp, err := h.service.GetFee(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary List fees
// @Tags Fees
// @Produce json
// @Param filter query types.FeeFilter false "Filter"
// @Success 200 {object} dto.ListFeesResponse
// @Router /fees [get]
func (h *FeeHandler) GetFees(c *gin.Context) {
	var filter types.FeeFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid filter parameters").
			Mark(ierr.ErrValidation))
		return
	}
	if filter.QueryFilter == nil {
		filter.QueryFilter = types.NewDefaultQueryFilter()
	}

	resp, err := h.service.GetFees(c.Request.Context(), &filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
