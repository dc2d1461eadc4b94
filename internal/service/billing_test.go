package service

import (
	"sync"
	"testing"

	"github.com/feebridge/feebridge/internal/domain/fee"
	"github.com/feebridge/feebridge/internal/domain/invoice"
	"github.com/feebridge/feebridge/internal/domain/settings"
	"github.com/feebridge/feebridge/internal/domain/tenant"
	"github.com/feebridge/feebridge/internal/testutil"
	"github.com/feebridge/feebridge/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type BillingServiceSuite struct {
	testutil.BaseServiceTestSuite
	service  BillingService
	testData struct {
		tuition   *fee.Fee
		transport *fee.Fee
	}
}

func TestBillingService(t *testing.T) {
	suite.Run(t, new(BillingServiceSuite))
}

func (s *BillingServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.setupService()
	s.setupTestData()
}

func (s *BillingServiceSuite) setupService() {
	s.service = NewBillingService(ServiceParams{
		Logger:           s.GetLogger(),
		Config:           s.GetConfig(),
		DB:               s.GetDB(),
		PlanRepo:         s.GetStores().PlanRepo,
		FeeRepo:          s.GetStores().FeeRepo,
		SubRepo:          s.GetStores().SubRepo,
		InvoiceRepo:      s.GetStores().InvoiceRepo,
		PaymentRepo:      s.GetStores().PaymentRepo,
		LedgerRepo:       s.GetStores().LedgerRepo,
		SettingsRepo:     s.GetStores().SettingsRepo,
		TenantRepo:       s.GetStores().TenantRepo,
		WebhookPublisher: s.GetWebhookPublisher(),
		IdempGen:         s.GetIdempotencyGenerator(),
	})
}

// setupTestData seeds two recurring fees and one one-off fee that the
// billing run must leave alone.
func (s *BillingServiceSuite) setupTestData() {
	s.testData.tuition = &fee.Fee{
		ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_FEE),
		Name:               "Tuition",
		FeeType:            types.FeeTypeTuition,
		Amount:             decimal.NewFromInt(500),
		IsRecurring:        true,
		RecurringFrequency: types.RecurringFrequencyMonthly,
		Active:             true,
		BaseModel:          types.GetDefaultBaseModel(s.GetContext()),
	}
	s.Require().NoError(s.GetStores().FeeRepo.Create(s.GetContext(), s.testData.tuition))

	s.testData.transport = &fee.Fee{
		ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_FEE),
		Name:               "Transport",
		FeeType:            types.FeeTypeTransport,
		Amount:             decimal.NewFromInt(120),
		IsRecurring:        true,
		RecurringFrequency: types.RecurringFrequencyQuarterly,
		Active:             true,
		BaseModel:          types.GetDefaultBaseModel(s.GetContext()),
	}
	s.Require().NoError(s.GetStores().FeeRepo.Create(s.GetContext(), s.testData.transport))

	oneOff := &fee.Fee{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_FEE),
		Name:      "Registration",
		FeeType:   types.FeeTypeRegistration,
		Amount:    decimal.NewFromInt(50),
		Active:    true,
		BaseModel: types.GetDefaultBaseModel(s.GetContext()),
	}
	s.Require().NoError(s.GetStores().FeeRepo.Create(s.GetContext(), oneOff))
}

func (s *BillingServiceSuite) invoiceCount() int {
	count, err := s.GetStores().InvoiceRepo.Count(s.GetContext(), types.NewNoLimitInvoiceFilter())
	s.Require().NoError(err)
	return count
}

func (s *BillingServiceSuite) TestRunBillingCycle() {
	result, err := s.service.RunBillingCycle(s.GetContext(), s.GetNow())
	s.NoError(err)
	s.Equal(1, result.TenantsVisited)
	s.Equal(2, result.InvoicesCreated)
	s.Zero(result.InvoicesSkipped)
	s.Zero(result.FailureCount)
	s.Equal(2, s.invoiceCount())

	invoices, err := s.GetStores().InvoiceRepo.List(s.GetContext(), types.NewNoLimitInvoiceFilter())
	s.NoError(err)
	for _, inv := range invoices {
		s.Equal(types.InvoiceStatusSent, inv.InvoiceStatus)
		s.Len(inv.LineItems, 1)
	}
	feeIDs := lo.Map(invoices, func(inv *invoice.Invoice, _ int) string {
		return inv.LineItems[0].FeeID
	})
	s.ElementsMatch(feeIDs, []string{s.testData.tuition.ID, s.testData.transport.ID})
}

func (s *BillingServiceSuite) TestRerunSkipsBilledPeriods() {
	_, err := s.service.RunBillingCycle(s.GetContext(), s.GetNow())
	s.NoError(err)

	result, err := s.service.RunBillingCycle(s.GetContext(), s.GetNow())
	s.NoError(err)
	s.Zero(result.InvoicesCreated)
	s.Equal(2, result.InvoicesSkipped)
	s.Equal(2, s.invoiceCount())

	// next month bills the monthly fee again but not the quarterly one
	nextMonth := s.GetNow().AddDate(0, 1, 0)
	result, err = s.service.RunBillingCycle(s.GetContext(), nextMonth)
	s.NoError(err)
	s.Equal(1, result.InvoicesCreated)
	s.Equal(1, result.InvoicesSkipped)
}

func (s *BillingServiceSuite) TestAutoGenerateDisabledSkipsTenant() {
	cfg := &settings.BillingSettings{
		ID:                   types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BILLING_SETTINGS),
		Currency:             "USD",
		TaxRate:              decimal.Zero,
		GracePeriodDays:      7,
		AutoGenerateInvoices: false,
		BaseModel:            types.GetDefaultBaseModel(s.GetContext()),
	}
	s.Require().NoError(s.GetStores().SettingsRepo.Create(s.GetContext(), cfg))

	result, err := s.service.RunBillingCycle(s.GetContext(), s.GetNow())
	s.NoError(err)
	s.Equal(1, result.TenantsVisited)
	s.Zero(result.InvoicesCreated)
	s.Zero(s.invoiceCount())
}

func (s *BillingServiceSuite) TestInactiveFeeIsNotBilled() {
	retired := &fee.Fee{
		ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_FEE),
		Name:               "Old Lab Fee",
		FeeType:            types.FeeTypeOther,
		Amount:             decimal.NewFromInt(40),
		IsRecurring:        true,
		RecurringFrequency: types.RecurringFrequencyMonthly,
		Active:             false,
		BaseModel:          types.GetDefaultBaseModel(s.GetContext()),
	}
	s.Require().NoError(s.GetStores().FeeRepo.Create(s.GetContext(), retired))

	result, err := s.service.RunBillingCycle(s.GetContext(), s.GetNow())
	s.NoError(err)
	s.Equal(2, result.InvoicesCreated)
	s.Equal(2, s.invoiceCount())
}

func (s *BillingServiceSuite) TestRunCoversEveryActiveTenant() {
	second := &tenant.Tenant{
		ID:     "tenant_second",
		Name:   "Second School",
		Active: true,
	}
	s.GetStores().TenantRepo.(*testutil.InMemoryTenantStore).Add(second)

	secondCtx := types.SetTenantID(s.GetContext(), second.ID)
	fee2 := &fee.Fee{
		ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_FEE),
		Name:               "Tuition",
		FeeType:            types.FeeTypeTuition,
		Amount:             decimal.NewFromInt(300),
		IsRecurring:        true,
		RecurringFrequency: types.RecurringFrequencyMonthly,
		Active:             true,
		BaseModel:          types.GetDefaultBaseModel(secondCtx),
	}
	s.Require().NoError(s.GetStores().FeeRepo.Create(secondCtx, fee2))

	result, err := s.service.RunBillingCycle(s.GetContext(), s.GetNow())
	s.NoError(err)
	s.Equal(2, result.TenantsVisited)
	s.Equal(3, result.InvoicesCreated)

	// each invoice lands under its own tenant
	count, err := s.GetStores().InvoiceRepo.Count(secondCtx, types.NewNoLimitInvoiceFilter())
	s.NoError(err)
	s.Equal(1, count)
	s.Equal(2, s.invoiceCount())
}

func (s *BillingServiceSuite) TestOverlappingRunsBillEachPeriodOnce() {
	var wg sync.WaitGroup
	results := make([]int, 4)
	for i := 0; i < len(results); i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := s.service.RunBillingCycle(s.GetContext(), s.GetNow())
			s.NoError(err)
			if result != nil {
				results[i] = result.InvoicesCreated
			}
		}(i)
	}
	wg.Wait()

	s.Equal(2, lo.Sum(results))
	s.Equal(2, s.invoiceCount())
}
