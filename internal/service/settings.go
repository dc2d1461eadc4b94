package service

import (
	"context"

	"github.com/feebridge/feebridge/internal/api/dto"
	"github.com/feebridge/feebridge/internal/domain/settings"
	ierr "github.com/feebridge/feebridge/internal/errors"
	"github.com/feebridge/feebridge/internal/types"
	"github.com/shopspring/decimal"
)

type SettingsService interface {
	GetBillingSettings(ctx context.Context) (*dto.BillingSettingsResponse, error)
	UpdateBillingSettings(ctx context.Context, req dto.UpdateBillingSettingsRequest) (*dto.BillingSettingsResponse, error)

	// GetOrDefault returns the tenant's billing settings, falling back to
	// deployment defaults when the tenant has never configured any.
	GetOrDefault(ctx context.Context) (*settings.BillingSettings, error)
}

type settingsService struct {
	ServiceParams
}

func NewSettingsService(params ServiceParams) SettingsService {
	return &settingsService{ServiceParams: params}
}

func (s *settingsService) GetBillingSettings(ctx context.Context) (*dto.BillingSettingsResponse, error) {
	cfg, err := s.GetOrDefault(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewBillingSettingsResponse(cfg), nil
}

func (s *settingsService) UpdateBillingSettings(ctx context.Context, req dto.UpdateBillingSettingsRequest) (*dto.BillingSettingsResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.SettingsRepo.GetByTenant(ctx, types.GetTenantID(ctx))
	if err != nil {
		if !ierr.IsNotFound(err) {
			return nil, err
		}
		existing = s.defaults(ctx)
		req.Apply(existing)
		if err := existing.Validate(); err != nil {
			return nil, err
		}
		if err := s.SettingsRepo.Create(ctx, existing); err != nil {
			return nil, err
		}
		return dto.NewBillingSettingsResponse(existing), nil
	}

	req.Apply(existing)
	existing.UpdatedBy = types.GetUserID(ctx)
	if err := existing.Validate(); err != nil {
		return nil, err
	}
	if err := s.SettingsRepo.Update(ctx, existing); err != nil {
		return nil, err
	}

	s.Logger.Infow("updated billing settings", "tenant_id", existing.TenantID)
	return dto.NewBillingSettingsResponse(existing), nil
}

func (s *settingsService) GetOrDefault(ctx context.Context) (*settings.BillingSettings, error) {
	cfg, err := s.SettingsRepo.GetByTenant(ctx, types.GetTenantID(ctx))
	if err != nil {
		if ierr.IsNotFound(err) {
			return s.defaults(ctx), nil
		}
		return nil, err
	}
	return cfg, nil
}

func (s *settingsService) defaults(ctx context.Context) *settings.BillingSettings {
	return &settings.BillingSettings{
		ID:                   types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BILLING_SETTINGS),
		Currency:             s.Config.Billing.DefaultCurrency,
		TaxRate:              decimal.NewFromFloat(s.Config.Billing.DefaultTaxRate),
		LateFeeRate:          decimal.Zero,
		GracePeriodDays:      s.Config.Billing.GracePeriodDays,
		AutoGenerateInvoices: true,
		SendReminders:        true,
		ReminderDaysBefore:   3,
		GatewayEnabled:       false,
		BaseModel:            types.GetDefaultBaseModel(ctx),
	}
}
