package service

import (
	"testing"

	"github.com/feebridge/feebridge/internal/api/dto"
	ierr "github.com/feebridge/feebridge/internal/errors"
	"github.com/feebridge/feebridge/internal/testutil"
	"github.com/feebridge/feebridge/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type PlanServiceSuite struct {
	testutil.BaseServiceTestSuite
	service PlanService
}

func TestPlanService(t *testing.T) {
	suite.Run(t, new(PlanServiceSuite))
}

func (s *PlanServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewPlanService(ServiceParams{
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

func (s *PlanServiceSuite) validRequest() dto.CreatePlanRequest {
	return dto.CreatePlanRequest{
		Name:         "Standard",
		Description:  "Standard school plan",
		PlanType:     types.PlanTypeStandard,
		Price:        decimal.NewFromInt(199),
		BillingCycle: types.BillingCycleMonthly,
		MaxStudents:  500,
		MaxTeachers:  50,
		StorageGB:    20,
	}
}

func (s *PlanServiceSuite) TestCreatePlan() {
	resp, err := s.service.CreatePlan(s.GetContext(), s.validRequest())
	s.NoError(err)
	s.NotNil(resp)
	s.Equal("Standard", resp.Name)
	s.True(resp.Active)
	s.Equal("2388", resp.YearlyPrice.String())
}

func (s *PlanServiceSuite) TestCreatePlanDuplicateName() {
	_, err := s.service.CreatePlan(s.GetContext(), s.validRequest())
	s.NoError(err)

	_, err = s.service.CreatePlan(s.GetContext(), s.validRequest())
	s.Error(err)
	s.True(ierr.IsAlreadyExists(err))
}

func (s *PlanServiceSuite) TestCreatePlanValidation() {
	testCases := []struct {
		name   string
		mutate func(*dto.CreatePlanRequest)
	}{
		{"missing_name", func(r *dto.CreatePlanRequest) { r.Name = "" }},
		{"bad_plan_type", func(r *dto.CreatePlanRequest) { r.PlanType = "GOLD" }},
		{"bad_cycle", func(r *dto.CreatePlanRequest) { r.BillingCycle = "WEEKLY" }},
		{"negative_price", func(r *dto.CreatePlanRequest) { r.Price = decimal.NewFromInt(-10) }},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			req := s.validRequest()
			tc.mutate(&req)
			resp, err := s.service.CreatePlan(s.GetContext(), req)
			s.Error(err)
			s.Nil(resp)
		})
	}
}

func (s *PlanServiceSuite) TestGetPlan() {
	created, err := s.service.CreatePlan(s.GetContext(), s.validRequest())
	s.NoError(err)

	resp, err := s.service.GetPlan(s.GetContext(), created.ID)
	s.NoError(err)
	s.Equal(created.ID, resp.ID)

	_, err = s.service.GetPlan(s.GetContext(), "plan_missing")
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *PlanServiceSuite) TestUpdatePlan() {
	created, err := s.service.CreatePlan(s.GetContext(), s.validRequest())
	s.NoError(err)

	resp, err := s.service.UpdatePlan(s.GetContext(), created.ID, dto.UpdatePlanRequest{
		Name:        lo.ToPtr("Standard Plus"),
		MaxStudents: lo.ToPtr(750),
	})
	s.NoError(err)
	s.Equal("Standard Plus", resp.Name)
	s.Equal(750, resp.MaxStudents)
	// untouched fields keep their values
	s.Equal(50, resp.MaxTeachers)
}

func (s *PlanServiceSuite) TestDeactivatePlan() {
	created, err := s.service.CreatePlan(s.GetContext(), s.validRequest())
	s.NoError(err)

	s.NoError(s.service.DeactivatePlan(s.GetContext(), created.ID))

	resp, err := s.service.GetPlan(s.GetContext(), created.ID)
	s.NoError(err)
	s.False(resp.Active)

	// deactivating again is a no-op
	s.NoError(s.service.DeactivatePlan(s.GetContext(), created.ID))
}

func (s *PlanServiceSuite) TestGetActivePlans() {
	first, err := s.service.CreatePlan(s.GetContext(), s.validRequest())
	s.NoError(err)

	premium := s.validRequest()
	premium.Name = "Premium"
	premium.PlanType = types.PlanTypePremium
	premium.Price = decimal.NewFromInt(499)
	_, err = s.service.CreatePlan(s.GetContext(), premium)
	s.NoError(err)

	s.NoError(s.service.DeactivatePlan(s.GetContext(), first.ID))

	resp, err := s.service.GetActivePlans(s.GetContext())
	s.NoError(err)
	s.Len(resp.Items, 1)
	s.Equal("Premium", resp.Items[0].Name)
}

func (s *PlanServiceSuite) TestGetPlansFiltering() {
	monthly := s.validRequest()
	_, err := s.service.CreatePlan(s.GetContext(), monthly)
	s.NoError(err)

	yearly := s.validRequest()
	yearly.Name = "Enterprise"
	yearly.PlanType = types.PlanTypeEnterprise
	yearly.BillingCycle = types.BillingCycleYearly
	yearly.Price = decimal.NewFromInt(4999)
	_, err = s.service.CreatePlan(s.GetContext(), yearly)
	s.NoError(err)

	resp, err := s.service.GetPlans(s.GetContext(), &types.PlanFilter{
		QueryFilter: types.NewDefaultQueryFilter(),
		Cycle:       lo.ToPtr(types.BillingCycleYearly),
	})
	s.NoError(err)
	s.Len(resp.Items, 1)
	s.Equal("Enterprise", resp.Items[0].Name)
	s.Equal(1, resp.Pagination.Total)
}
