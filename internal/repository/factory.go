package repository

import (
	"github.com/feebridge/feebridge/internal/cache"
	"github.com/feebridge/feebridge/internal/domain/fee"
	"github.com/feebridge/feebridge/internal/domain/invoice"
	"github.com/feebridge/feebridge/internal/domain/ledger"
	"github.com/feebridge/feebridge/internal/domain/payment"
	"github.com/feebridge/feebridge/internal/domain/plan"
	"github.com/feebridge/feebridge/internal/domain/settings"
	"github.com/feebridge/feebridge/internal/domain/subscription"
	"github.com/feebridge/feebridge/internal/domain/tenant"
	"github.com/feebridge/feebridge/internal/logger"
	"github.com/feebridge/feebridge/internal/postgres"
	postgresRepo "github.com/feebridge/feebridge/internal/repository/postgres"
)

func NewPlanRepository(db *postgres.DB, logger *logger.Logger, cache cache.Cache) plan.Repository {
	return postgresRepo.NewPlanRepository(db, logger, cache)
}

func NewFeeRepository(db *postgres.DB, logger *logger.Logger) fee.Repository {
	return postgresRepo.NewFeeRepository(db, logger)
}

func NewSubscriptionRepository(db *postgres.DB, logger *logger.Logger) subscription.Repository {
	return postgresRepo.NewSubscriptionRepository(db, logger)
}

func NewInvoiceRepository(db *postgres.DB, logger *logger.Logger) invoice.Repository {
	return postgresRepo.NewInvoiceRepository(db, logger)
}

func NewPaymentRepository(db *postgres.DB, logger *logger.Logger) payment.Repository {
	return postgresRepo.NewPaymentRepository(db, logger)
}

func NewLedgerRepository(db *postgres.DB, logger *logger.Logger) ledger.Repository {
	return postgresRepo.NewLedgerRepository(db, logger)
}

func NewSettingsRepository(db *postgres.DB, logger *logger.Logger, cache cache.Cache) settings.Repository {
	return postgresRepo.NewSettingsRepository(db, logger, cache)
}

func NewTenantRepository(db *postgres.DB, logger *logger.Logger) tenant.Repository {
	return postgresRepo.NewTenantRepository(db, logger)
}
