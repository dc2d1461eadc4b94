package service

import (
	"testing"

	"github.com/feebridge/feebridge/internal/api/dto"
	"github.com/feebridge/feebridge/internal/testutil"
	"github.com/feebridge/feebridge/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type SettingsServiceSuite struct {
	testutil.BaseServiceTestSuite
	service SettingsService
}

func TestSettingsService(t *testing.T) {
	suite.Run(t, new(SettingsServiceSuite))
}

func (s *SettingsServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewSettingsService(ServiceParams{
		Logger:           s.GetLogger(),
		Config:           s.GetConfig(),
		DB:               s.GetDB(),
		SettingsRepo:     s.GetStores().SettingsRepo,
		TenantRepo:       s.GetStores().TenantRepo,
		WebhookPublisher: s.GetWebhookPublisher(),
		IdempGen:         s.GetIdempotencyGenerator(),
	})
}

func (s *SettingsServiceSuite) TestGetOrDefaultFallsBackToConfig() {
	cfg, err := s.service.GetOrDefault(s.GetContext())
	s.NoError(err)
	s.Equal(s.GetConfig().Billing.DefaultCurrency, cfg.Currency)
	s.Equal(s.GetConfig().Billing.GracePeriodDays, cfg.GracePeriodDays)
	s.True(cfg.AutoGenerateInvoices)
	s.False(cfg.GatewayEnabled)
}

func (s *SettingsServiceSuite) TestUpdateCreatesWhenMissing() {
	resp, err := s.service.UpdateBillingSettings(s.GetContext(), dto.UpdateBillingSettingsRequest{
		TaxRate:        lo.ToPtr(decimal.NewFromFloat(0.15)),
		GatewayEnabled: lo.ToPtr(true),
	})
	s.NoError(err)
	s.True(resp.TaxRate.Equal(decimal.NewFromFloat(0.15)))
	s.True(resp.GatewayEnabled)
	// untouched fields come from the deployment defaults
	s.Equal(s.GetConfig().Billing.DefaultCurrency, resp.Currency)

	stored, err := s.GetStores().SettingsRepo.GetByTenant(s.GetContext(), types.DefaultTenantID)
	s.NoError(err)
	s.True(stored.TaxRate.Equal(decimal.NewFromFloat(0.15)))
}

func (s *SettingsServiceSuite) TestUpdateOverlaysExisting() {
	_, err := s.service.UpdateBillingSettings(s.GetContext(), dto.UpdateBillingSettingsRequest{
		TaxRate: lo.ToPtr(decimal.NewFromFloat(0.10)),
	})
	s.NoError(err)

	resp, err := s.service.UpdateBillingSettings(s.GetContext(), dto.UpdateBillingSettingsRequest{
		GracePeriodDays: lo.ToPtr(14),
	})
	s.NoError(err)
	s.Equal(14, resp.GracePeriodDays)
	// earlier update survives
	s.True(resp.TaxRate.Equal(decimal.NewFromFloat(0.10)))
}

func (s *SettingsServiceSuite) TestUpdateValidation() {
	testCases := []struct {
		name string
		req  dto.UpdateBillingSettingsRequest
	}{
		{"tax_rate_above_one", dto.UpdateBillingSettingsRequest{TaxRate: lo.ToPtr(decimal.NewFromFloat(1.5))}},
		{"negative_tax_rate", dto.UpdateBillingSettingsRequest{TaxRate: lo.ToPtr(decimal.NewFromFloat(-0.1))}},
		{"negative_late_fee", dto.UpdateBillingSettingsRequest{LateFeeRate: lo.ToPtr(decimal.NewFromFloat(-0.1))}},
		{"bad_currency", dto.UpdateBillingSettingsRequest{Currency: lo.ToPtr("DOLLARS")}},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			resp, err := s.service.UpdateBillingSettings(s.GetContext(), tc.req)
			s.Error(err)
			s.Nil(resp)
		})
	}
}

func (s *SettingsServiceSuite) TestGetBillingSettings() {
	resp, err := s.service.GetBillingSettings(s.GetContext())
	s.NoError(err)
	s.NotNil(resp)
	s.Equal(s.GetConfig().Billing.DefaultCurrency, resp.Currency)
}
