package main

import (
	"context"
	"time"

	"github.com/feebridge/feebridge/internal/api"
	"github.com/feebridge/feebridge/internal/api/cron"
	v1 "github.com/feebridge/feebridge/internal/api/v1"
	"github.com/feebridge/feebridge/internal/cache"
	"github.com/feebridge/feebridge/internal/config"
	"github.com/feebridge/feebridge/internal/gateway"
	"github.com/feebridge/feebridge/internal/idempotency"
	"github.com/feebridge/feebridge/internal/logger"
	"github.com/feebridge/feebridge/internal/postgres"
	"github.com/feebridge/feebridge/internal/pubsub/memory"
	"github.com/feebridge/feebridge/internal/repository"
	"github.com/feebridge/feebridge/internal/service"
	"github.com/feebridge/feebridge/internal/validator"
	"github.com/feebridge/feebridge/internal/webhook"
	webhookPublisher "github.com/feebridge/feebridge/internal/webhook/publisher"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

// @title FeeBridge API
// @version 1.0
// @description Billing and subscription ledger for the school platform
// @BasePath /v1

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Validator
			validator.NewValidator,

			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Cache
			cache.NewInMemoryCache,

			// Postgres
			postgres.NewDB,
			postgres.NewClient,

			// PubSub and webhook delivery
			memory.NewPubSub,
			webhookPublisher.NewPublisher,
			webhook.NewConsumer,

			// Payment gateway
			gateway.NewSimulatedGateway,

			// Idempotency keys
			idempotency.NewGenerator,

			// Repositories
			repository.NewPlanRepository,
			repository.NewFeeRepository,
			repository.NewSubscriptionRepository,
			repository.NewInvoiceRepository,
			repository.NewPaymentRepository,
			repository.NewLedgerRepository,
			repository.NewSettingsRepository,
			repository.NewTenantRepository,
		),
	)

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,

			service.NewPlanService,
			service.NewFeeService,
			service.NewSubscriptionService,
			service.NewInvoiceService,
			service.NewPaymentService,
			service.NewLedgerService,
			service.NewSettingsService,
			service.NewBillingService,
		),
	)

	// API layer
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(startServer),
	)

	app := fx.New(opts...)
	app.Run()
}

func provideHandlers(
	logger *logger.Logger,
	planService service.PlanService,
	feeService service.FeeService,
	subscriptionService service.SubscriptionService,
	invoiceService service.InvoiceService,
	paymentService service.PaymentService,
	ledgerService service.LedgerService,
	settingsService service.SettingsService,
	billingService service.BillingService,
) api.Handlers {
	return api.Handlers{
		Plan:         v1.NewPlanHandler(planService, logger),
		Fee:          v1.NewFeeHandler(feeService, logger),
		Subscription: v1.NewSubscriptionHandler(subscriptionService, logger),
		Invoice:      v1.NewInvoiceHandler(invoiceService, logger),
		Payment:      v1.NewPaymentHandler(paymentService, logger),
		Ledger:       v1.NewLedgerHandler(ledgerService, logger),
		Settings:     v1.NewSettingsHandler(settingsService, logger),
		CronBilling:  cron.NewBillingHandler(billingService, invoiceService, subscriptionService, logger),
	}
}

func provideRouter(handlers api.Handlers) *gin.Engine {
	return api.NewRouter(handlers)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	consumer *webhook.Consumer,
	publisher webhookPublisher.WebhookPublisher,
	db *postgres.DB,
	log *logger.Logger,
) {
	startWebhookConsumer(lc, consumer, log)
	startAPIServer(lc, r, cfg, log)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if err := publisher.Close(); err != nil {
				log.Errorw("failed to close webhook publisher", "error", err)
			}
			db.Close()
			return nil
		},
	})
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infof("starting API server on %s", cfg.Server.Address)
			go func() {
				if err := r.Run(cfg.Server.Address); err != nil {
					log.Fatalf("failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down server")
			return nil
		},
	})
}

func startWebhookConsumer(lc fx.Lifecycle, consumer *webhook.Consumer, log *logger.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("starting webhook consumer")
			return consumer.Start(context.Background())
		},
	})
}
