package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/feebridge/feebridge/internal/cache"
	"github.com/feebridge/feebridge/internal/domain/settings"
	ierr "github.com/feebridge/feebridge/internal/errors"
	"github.com/feebridge/feebridge/internal/logger"
	"github.com/feebridge/feebridge/internal/postgres"
	"github.com/feebridge/feebridge/internal/types"
)

type settingsRepository struct {
	db     *postgres.DB
	logger *logger.Logger
	cache  cache.Cache
}

func NewSettingsRepository(db *postgres.DB, logger *logger.Logger, cache cache.Cache) settings.Repository {
	return &settingsRepository{
		db:     db,
		logger: logger,
		cache:  cache,
	}
}

func (r *settingsRepository) Create(ctx context.Context, s *settings.BillingSettings) error {
	r.logger.Debugw("creating billing settings", "tenant_id", s.TenantID)

	query := `
		INSERT INTO billing_settings (
			id, tenant_id, currency, tax_rate, late_fee_rate, grace_period_days,
			auto_generate_invoices, send_reminders, reminder_days_before,
			gateway_enabled, gateway_config,
			status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :tenant_id, :currency, :tax_rate, :late_fee_rate, :grace_period_days,
			:auto_generate_invoices, :send_reminders, :reminder_days_before,
			:gateway_enabled, :gateway_config,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)`

	_, err := r.db.NamedExecContext(ctx, query, s)
	if err != nil {
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("Billing settings already exist for this tenant").
				WithReportableDetails(map[string]any{"tenant_id": s.TenantID}).
				Mark(ierr.ErrAlreadyExists)
		}
		return wrapDBError(err, "Failed to create billing settings")
	}
	return nil
}

func (r *settingsRepository) GetByTenant(ctx context.Context, tenantID string) (*settings.BillingSettings, error) {
	cacheKey := cache.GenerateKey(cache.PrefixBillingSettings, tenantID)
	if cached, ok := r.cache.Get(ctx, cacheKey); ok {
		if s, ok := cached.(*settings.BillingSettings); ok {
			return s, nil
		}
	}

	var s settings.BillingSettings
	query := `
		SELECT * FROM billing_settings
		WHERE tenant_id = $1 AND status = $2`

	err := r.db.Querier(ctx).GetContext(ctx, &s, query, tenantID, types.StatusPublished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewError("billing settings not found").
				WithHintf("No billing settings exist for tenant %s", tenantID).
				WithReportableDetails(map[string]any{"tenant_id": tenantID}).
				Mark(ierr.ErrNotFound)
		}
		return nil, wrapDBError(err, "Failed to get billing settings")
	}

	r.cache.Set(ctx, cacheKey, &s, cache.DefaultExpiration)
	return &s, nil
}

func (r *settingsRepository) Update(ctx context.Context, s *settings.BillingSettings) error {
	r.logger.Debugw("updating billing settings", "tenant_id", s.TenantID)

	query := `
		UPDATE billing_settings SET
			currency = :currency,
			tax_rate = :tax_rate,
			late_fee_rate = :late_fee_rate,
			grace_period_days = :grace_period_days,
			auto_generate_invoices = :auto_generate_invoices,
			send_reminders = :send_reminders,
			reminder_days_before = :reminder_days_before,
			gateway_enabled = :gateway_enabled,
			gateway_config = :gateway_config,
			status = :status,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id`

	result, err := r.db.NamedExecContext(ctx, query, s)
	if err != nil {
		return wrapDBError(err, "Failed to update billing settings")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return wrapDBError(err, "Failed to update billing settings")
	}
	if rows == 0 {
		return ierr.NewError("billing settings not found").
			WithHintf("No billing settings exist for tenant %s", s.TenantID).
			Mark(ierr.ErrNotFound)
	}

	r.cache.Delete(ctx, cache.GenerateKey(cache.PrefixBillingSettings, s.TenantID))
	return nil
}
