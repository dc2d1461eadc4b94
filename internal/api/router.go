package api

import (
	"github.com/feebridge/feebridge/internal/api/cron"
	v1 "github.com/feebridge/feebridge/internal/api/v1"
	"github.com/feebridge/feebridge/internal/rest/middleware"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Plan         *v1.PlanHandler
	Fee          *v1.FeeHandler
	Subscription *v1.SubscriptionHandler
	Invoice      *v1.InvoiceHandler
	Payment      *v1.PaymentHandler
	Ledger       *v1.LedgerHandler
	Settings     *v1.SettingsHandler
	CronBilling  *cron.BillingHandler
}

func NewRouter(handlers Handlers) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware,
		middleware.CORSMiddleware,
		middleware.ErrorHandler(),
		middleware.TenantMiddleware,
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1Group := router.Group("/v1")
	registerV1Routes(v1Group, handlers)

	cronGroup := router.Group("/cron")
	registerCronRoutes(cronGroup, handlers)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	plans := router.Group("/plans")
	{
		plans.POST("", handlers.Plan.CreatePlan)
		plans.GET("", handlers.Plan.GetPlans)
		plans.GET("/active", handlers.Plan.GetActivePlans)
		plans.GET("/:id", handlers.Plan.GetPlan)
		plans.PUT("/:id", handlers.Plan.UpdatePlan)
		plans.POST("/:id/deactivate", handlers.Plan.DeactivatePlan)
	}

	fees := router.Group("/fees")
	{
		fees.POST("", handlers.Fee.CreateFee)
		fees.GET("", handlers.Fee.GetFees)
		fees.GET("/:id", handlers.Fee.GetFee)
	}

	subscriptions := router.Group("/subscriptions")
	{
		subscriptions.POST("", handlers.Subscription.CreateSubscription)
		subscriptions.GET("", handlers.Subscription.GetSubscriptions)
		subscriptions.GET("/:id", handlers.Subscription.GetSubscription)
		subscriptions.POST("/:id/activate", handlers.Subscription.ActivateSubscription)
		subscriptions.POST("/:id/cancel", handlers.Subscription.CancelSubscription)
		subscriptions.POST("/:id/suspend", handlers.Subscription.SuspendSubscription)
		subscriptions.POST("/:id/resume", handlers.Subscription.ResumeSubscription)
	}

	invoices := router.Group("/invoices")
	{
		invoices.POST("", handlers.Invoice.CreateInvoice)
		invoices.GET("", handlers.Invoice.GetInvoices)
		invoices.GET("/:id", handlers.Invoice.GetInvoice)
		invoices.POST("/:id/issue", handlers.Invoice.IssueInvoice)
		invoices.POST("/:id/cancel", handlers.Invoice.CancelInvoice)
		invoices.POST("/:id/mark-paid", handlers.Invoice.MarkPaid)
		invoices.POST("/:id/recompute", handlers.Invoice.RecomputeStatus)
	}

	payments := router.Group("/payments")
	{
		payments.POST("", handlers.Payment.RecordPayment)
		payments.GET("", handlers.Payment.GetPayments)
		payments.GET("/:id", handlers.Payment.GetPayment)
		payments.POST("/:id/process", handlers.Payment.ProcessPayment)
		payments.POST("/:id/complete", handlers.Payment.CompletePayment)
		payments.POST("/:id/fail", handlers.Payment.FailPayment)
		payments.POST("/:id/refund", handlers.Payment.RefundPayment)
	}

	transactions := router.Group("/transactions")
	{
		transactions.POST("", handlers.Ledger.AppendTransaction)
		transactions.GET("", handlers.Ledger.GetTransactions)
		transactions.GET("/balance", handlers.Ledger.GetBalance)
		transactions.GET("/:id", handlers.Ledger.GetTransaction)
	}

	settings := router.Group("/settings")
	{
		settings.GET("/billing", handlers.Settings.GetBillingSettings)
		settings.PUT("/billing", handlers.Settings.UpdateBillingSettings)
	}
}

func registerCronRoutes(router *gin.RouterGroup, handlers Handlers) {
	billing := router.Group("/billing")
	{
		billing.POST("/run", handlers.CronBilling.RunBillingCycle)
	}

	invoices := router.Group("/invoices")
	{
		invoices.POST("/overdue-sweep", handlers.CronBilling.SweepOverdueInvoices)
	}

	subscriptions := router.Group("/subscriptions")
	{
		subscriptions.POST("/expiry-sweep", handlers.CronBilling.SweepExpiredSubscriptions)
	}
}
