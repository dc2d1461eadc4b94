package cron

import (
	"net/http"
	"time"

	"github.com/feebridge/feebridge/internal/logger"
	"github.com/feebridge/feebridge/internal/service"
	"github.com/gin-gonic/gin"
)

// BillingHandler exposes the scheduled billing jobs over HTTP so an
// external scheduler can trigger them. Every job is idempotent, so a
// retried trigger is harmless.
type BillingHandler struct {
	billingService      service.BillingService
	invoiceService      service.InvoiceService
	subscriptionService service.SubscriptionService
	logger              *logger.Logger
}

func NewBillingHandler(
	billingService service.BillingService,
	invoiceService service.InvoiceService,
	subscriptionService service.SubscriptionService,
	logger *logger.Logger,
) *BillingHandler {
	return &BillingHandler{
		billingService:      billingService,
		invoiceService:      invoiceService,
		subscriptionService: subscriptionService,
		logger:              logger,
	}
}

// RunBillingCycle materializes recurring fee invoices for the current
// period across all active tenants.
func (h *BillingHandler) RunBillingCycle(c *gin.Context) {
	h.logger.Infow("starting billing cycle cron job")

	response, err := h.billingService.RunBillingCycle(c.Request.Context(), time.Now().UTC())
	if err != nil {
		h.logger.Errorw("billing cycle cron job failed", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// SweepOverdueInvoices marks sent and partially paid invoices past their
// due date as overdue.
func (h *BillingHandler) SweepOverdueInvoices(c *gin.Context) {
	h.logger.Infow("starting overdue invoice sweep cron job")

	response, err := h.invoiceService.SweepOverdue(c.Request.Context(), time.Now().UTC())
	if err != nil {
		h.logger.Errorw("overdue invoice sweep cron job failed", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// SweepExpiredSubscriptions expires active subscriptions whose end date
// has passed.
func (h *BillingHandler) SweepExpiredSubscriptions(c *gin.Context) {
	h.logger.Infow("starting subscription expiry sweep cron job")

	response, err := h.subscriptionService.ExpireDue(c.Request.Context(), time.Now().UTC())
	if err != nil {
		h.logger.Errorw("subscription expiry sweep cron job failed", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}
