package v1

import (
	"net/http"
	"time"

	"github.com/feebridge/feebridge/internal/api/dto"
	ierr "github.com/feebridge/feebridge/internal/errors"
	"github.com/feebridge/feebridge/internal/logger"
	"github.com/feebridge/feebridge/internal/service"
	"github.com/feebridge/feebridge/internal/types"
	"github.com/gin-gonic/gin"
)

type LedgerHandler struct {
	service service.LedgerService
	log     *logger.Logger
}

func NewLedgerHandler(service service.LedgerService, log *logger.Logger) *LedgerHandler {
	return &LedgerHandler{service: service, log: log}
}

// @Summary Append a manual ledger transaction
// @Tags Ledger
// @Accept json
// @Produce json
// @Param transaction body dto.AppendTransactionRequest true "Transaction"
// @Success 201 {object} dto.TransactionResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /transactions [post]
func (h *LedgerHandler) AppendTransaction(c *gin.Context) {
	var req dto.AppendTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.AppendTransaction(c.Request.Context(), req, time.Now().UTC())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// @Summary Get a ledger transaction by ID
// @Tags Ledger
// @Produce json
// @Param id path string true "Transaction ID"
// @Success 200 {object} dto.TransactionResponse
// @Router /transactions/{id} [get]
func (h *LedgerHandler) GetTransaction(c *gin.Context) {
	resp, err := h.service.GetTransaction(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary List ledger transactions
// @Tags Ledger
// @Produce json
// @Param filter query types.TransactionFilter false "Filter"
// @Success 200 {object} dto.ListTransactionsResponse
// @Router /transactions [get]
func (h *LedgerHandler) GetTransactions(c *gin.Context) {
	var filter types.TransactionFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid filter parameters").
			Mark(ierr.ErrValidation))
		return
	}
	if filter.QueryFilter == nil {
		filter.QueryFilter = types.NewDefaultQueryFilter()
	}

	resp, err := h.service.GetTransactions(c.Request.Context(), &filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Signed ledger balance over an optional time window
// @Tags Ledger
// @Produce json
// @Param filter query types.TransactionFilter false "Filter"
// @Success 200 {object} dto.BalanceResponse
// @Router /transactions/balance [get]
func (h *LedgerHandler) GetBalance(c *gin.Context) {
	var filter types.TransactionFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid filter parameters").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.Balance(c.Request.Context(), &filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
