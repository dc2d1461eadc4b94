package service

import (
	"github.com/feebridge/feebridge/internal/config"
	"github.com/feebridge/feebridge/internal/domain/fee"
	"github.com/feebridge/feebridge/internal/domain/invoice"
	"github.com/feebridge/feebridge/internal/domain/ledger"
	"github.com/feebridge/feebridge/internal/domain/payment"
	"github.com/feebridge/feebridge/internal/domain/plan"
	"github.com/feebridge/feebridge/internal/domain/settings"
	"github.com/feebridge/feebridge/internal/domain/subscription"
	"github.com/feebridge/feebridge/internal/domain/tenant"
	"github.com/feebridge/feebridge/internal/gateway"
	"github.com/feebridge/feebridge/internal/idempotency"
	"github.com/feebridge/feebridge/internal/logger"
	"github.com/feebridge/feebridge/internal/postgres"
	webhookPublisher "github.com/feebridge/feebridge/internal/webhook/publisher"
)

// ServiceParams bundles common dependencies injected into services. All
// services take the full bundle, new dependencies only need wiring once.
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     postgres.IClient

	// Repositories
	PlanRepo         plan.Repository
	FeeRepo          fee.Repository
	SubRepo          subscription.Repository
	InvoiceRepo      invoice.Repository
	PaymentRepo      payment.Repository
	LedgerRepo       ledger.Repository
	SettingsRepo     settings.Repository
	TenantRepo       tenant.Repository

	// Boundaries
	Gateway          gateway.PaymentGateway
	WebhookPublisher webhookPublisher.WebhookPublisher
	IdempGen         *idempotency.Generator
}

// Common service params
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db postgres.IClient,
	planRepo plan.Repository,
	feeRepo fee.Repository,
	subRepo subscription.Repository,
	invoiceRepo invoice.Repository,
	paymentRepo payment.Repository,
	ledgerRepo ledger.Repository,
	settingsRepo settings.Repository,
	tenantRepo tenant.Repository,
	paymentGateway gateway.PaymentGateway,
	webhookPub webhookPublisher.WebhookPublisher,
	idempGen *idempotency.Generator,
) ServiceParams {
	return ServiceParams{
		Logger:           logger,
		Config:           config,
		DB:               db,
		PlanRepo:         planRepo,
		FeeRepo:          feeRepo,
		SubRepo:          subRepo,
		InvoiceRepo:      invoiceRepo,
		PaymentRepo:      paymentRepo,
		LedgerRepo:       ledgerRepo,
		SettingsRepo:     settingsRepo,
		TenantRepo:       tenantRepo,
		Gateway:          paymentGateway,
		WebhookPublisher: webhookPub,
		IdempGen:         idempGen,
	}
}
