package service

import (
	"testing"
	"time"

	"github.com/feebridge/feebridge/internal/api/dto"
	"github.com/feebridge/feebridge/internal/domain/plan"
	ierr "github.com/feebridge/feebridge/internal/errors"
	"github.com/feebridge/feebridge/internal/testutil"
	"github.com/feebridge/feebridge/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type SubscriptionServiceSuite struct {
	testutil.BaseServiceTestSuite
	service  SubscriptionService
	testData struct {
		plan         *plan.Plan
		inactivePlan *plan.Plan
	}
}

func TestSubscriptionService(t *testing.T) {
	suite.Run(t, new(SubscriptionServiceSuite))
}

func (s *SubscriptionServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.setupService()
	s.setupTestData()
}

func (s *SubscriptionServiceSuite) setupService() {
	s.service = NewSubscriptionService(ServiceParams{
		Logger:           s.GetLogger(),
		Config:           s.GetConfig(),
		DB:               s.GetDB(),
		PlanRepo:         s.GetStores().PlanRepo,
		SubRepo:          s.GetStores().SubRepo,
		SettingsRepo:     s.GetStores().SettingsRepo,
		TenantRepo:       s.GetStores().TenantRepo,
		WebhookPublisher: s.GetWebhookPublisher(),
		IdempGen:         s.GetIdempotencyGenerator(),
	})
}

func (s *SubscriptionServiceSuite) setupTestData() {
	s.testData.plan = &plan.Plan{
		ID:           types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PLAN),
		Name:         "Standard",
		PlanType:     types.PlanTypeStandard,
		Price:        decimal.NewFromInt(199),
		BillingCycle: types.BillingCycleMonthly,
		Active:       true,
		BaseModel:    types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().PlanRepo.Create(s.GetContext(), s.testData.plan))

	s.testData.inactivePlan = &plan.Plan{
		ID:           types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PLAN),
		Name:         "Legacy",
		PlanType:     types.PlanTypeBasic,
		Price:        decimal.NewFromInt(99),
		BillingCycle: types.BillingCycleMonthly,
		Active:       false,
		BaseModel:    types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().PlanRepo.Create(s.GetContext(), s.testData.inactivePlan))
}

func (s *SubscriptionServiceSuite) createSubscription() *dto.SubscriptionResponse {
	resp, err := s.service.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
		PlanID:    s.testData.plan.ID,
		StartDate: s.GetNow(),
		EndDate:   s.GetNow().AddDate(1, 0, 0),
		AutoRenew: true,
	})
	s.Require().NoError(err)
	return resp
}

func (s *SubscriptionServiceSuite) TestCreateSubscription() {
	resp := s.createSubscription()
	s.Equal(types.SubscriptionStatusPending, resp.SubscriptionStatus)
	s.Equal(s.testData.plan.ID, resp.PlanID)
	s.True(resp.AutoRenew)
}

func (s *SubscriptionServiceSuite) TestCreateSubscriptionInactivePlan() {
	_, err := s.service.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
		PlanID:    s.testData.inactivePlan.ID,
		StartDate: s.GetNow(),
		EndDate:   s.GetNow().AddDate(1, 0, 0),
	})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *SubscriptionServiceSuite) TestCreateSubscriptionEndBeforeStart() {
	_, err := s.service.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
		PlanID:    s.testData.plan.ID,
		StartDate: s.GetNow(),
		EndDate:   s.GetNow().Add(-time.Hour),
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *SubscriptionServiceSuite) TestActivateSubscription() {
	created := s.createSubscription()

	resp, err := s.service.ActivateSubscription(s.GetContext(), created.ID, s.GetNow())
	s.NoError(err)
	s.Equal(types.SubscriptionStatusActive, resp.SubscriptionStatus)
	s.NotNil(resp.ActivatedAt)

	// activating an already active subscription is idempotent
	again, err := s.service.ActivateSubscription(s.GetContext(), created.ID, s.GetNow())
	s.NoError(err)
	s.Equal(types.SubscriptionStatusActive, again.SubscriptionStatus)

	events := s.GetPubSub().GetMessages(s.GetConfig().Webhook.Topic)
	s.Len(events, 1)
}

func (s *SubscriptionServiceSuite) TestCancelSubscription() {
	created := s.createSubscription()
	_, err := s.service.ActivateSubscription(s.GetContext(), created.ID, s.GetNow())
	s.NoError(err)

	resp, err := s.service.CancelSubscription(s.GetContext(), created.ID,
		dto.CancelSubscriptionRequest{Reason: "school closed"}, s.GetNow())
	s.NoError(err)
	s.Equal(types.SubscriptionStatusCancelled, resp.SubscriptionStatus)
	s.NotNil(resp.CancelledAt)
	s.Equal("school closed", *resp.CancellationReason)
	s.False(resp.AutoRenew)

	// cancelling again is idempotent
	again, err := s.service.CancelSubscription(s.GetContext(), created.ID,
		dto.CancelSubscriptionRequest{}, s.GetNow())
	s.NoError(err)
	s.Equal(types.SubscriptionStatusCancelled, again.SubscriptionStatus)
}

func (s *SubscriptionServiceSuite) TestSuspendAndResume() {
	created := s.createSubscription()

	// only active subscriptions can be suspended
	_, err := s.service.SuspendSubscription(s.GetContext(), created.ID, s.GetNow())
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))

	_, err = s.service.ActivateSubscription(s.GetContext(), created.ID, s.GetNow())
	s.NoError(err)

	resp, err := s.service.SuspendSubscription(s.GetContext(), created.ID, s.GetNow())
	s.NoError(err)
	s.Equal(types.SubscriptionStatusSuspended, resp.SubscriptionStatus)

	resp, err = s.service.ResumeSubscription(s.GetContext(), created.ID, s.GetNow())
	s.NoError(err)
	s.Equal(types.SubscriptionStatusActive, resp.SubscriptionStatus)
}

func (s *SubscriptionServiceSuite) TestExpireDue() {
	ending := s.createSubscription()
	_, err := s.service.ActivateSubscription(s.GetContext(), ending.ID, s.GetNow())
	s.NoError(err)

	ongoing := s.createSubscription()
	_, err = s.service.ActivateSubscription(s.GetContext(), ongoing.ID, s.GetNow())
	s.NoError(err)

	result, err := s.service.ExpireDue(s.GetContext(), s.GetNow().AddDate(1, 0, 1))
	s.NoError(err)
	s.Equal(2, result.SubscriptionsChecked)
	s.Equal(2, result.Expired)
	s.Zero(result.FailureCount)

	sub, err := s.GetStores().SubRepo.Get(s.GetContext(), ending.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusExpired, sub.SubscriptionStatus)

	// expired subscriptions cannot be cancelled
	_, err = s.service.CancelSubscription(s.GetContext(), ending.ID,
		dto.CancelSubscriptionRequest{}, s.GetNow())
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *SubscriptionServiceSuite) TestExpireDueSkipsRunning() {
	active := s.createSubscription()
	_, err := s.service.ActivateSubscription(s.GetContext(), active.ID, s.GetNow())
	s.NoError(err)

	result, err := s.service.ExpireDue(s.GetContext(), s.GetNow().AddDate(0, 6, 0))
	s.NoError(err)
	s.Zero(result.SubscriptionsChecked)
	s.Zero(result.Expired)
}
