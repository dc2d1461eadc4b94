package service

import (
	"context"
	"time"

	"github.com/feebridge/feebridge/internal/api/dto"
	"github.com/feebridge/feebridge/internal/domain/subscription"
	ierr "github.com/feebridge/feebridge/internal/errors"
	"github.com/feebridge/feebridge/internal/types"
	"github.com/samber/lo"
)

type SubscriptionService interface {
	CreateSubscription(ctx context.Context, req dto.CreateSubscriptionRequest) (*dto.SubscriptionResponse, error)
	GetSubscription(ctx context.Context, id string, now time.Time) (*dto.SubscriptionResponse, error)
	GetSubscriptions(ctx context.Context, filter *types.SubscriptionFilter, now time.Time) (*dto.ListSubscriptionsResponse, error)
	ActivateSubscription(ctx context.Context, id string, now time.Time) (*dto.SubscriptionResponse, error)
	CancelSubscription(ctx context.Context, id string, req dto.CancelSubscriptionRequest, now time.Time) (*dto.SubscriptionResponse, error)
	SuspendSubscription(ctx context.Context, id string, now time.Time) (*dto.SubscriptionResponse, error)
	ResumeSubscription(ctx context.Context, id string, now time.Time) (*dto.SubscriptionResponse, error)

	// ExpireDue transitions every active subscription whose end date has
	// passed to expired. Safe to run repeatedly.
	ExpireDue(ctx context.Context, now time.Time) (*dto.ExpirySweepResponse, error)
}

type subscriptionService struct {
	ServiceParams
}

func NewSubscriptionService(params ServiceParams) SubscriptionService {
	return &subscriptionService{ServiceParams: params}
}

func (s *subscriptionService) CreateSubscription(ctx context.Context, req dto.CreateSubscriptionRequest) (*dto.SubscriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p, err := s.PlanRepo.Get(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}
	if !p.Active {
		return nil, ierr.NewError("plan is not available").
			WithHintf("Plan %s is no longer on sale", p.Name).
			WithReportableDetails(map[string]any{"plan_id": p.ID}).
			Mark(ierr.ErrInvalidOperation)
	}

	sub := req.ToSubscription(ctx)
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	if err := s.SubRepo.Create(ctx, sub); err != nil {
		return nil, err
	}

	s.Logger.Infow("created subscription",
		"subscription_id", sub.ID,
		"plan_id", sub.PlanID,
		"start_date", sub.StartDate,
		"end_date", sub.EndDate)

	return dto.NewSubscriptionResponse(sub, sub.StartDate), nil
}

func (s *subscriptionService) GetSubscription(ctx context.Context, id string, now time.Time) (*dto.SubscriptionResponse, error) {
	if id == "" {
		return nil, ierr.NewError("subscription id is required").
			WithHint("Please provide a subscription ID").
			Mark(ierr.ErrValidation)
	}

	sub, err := s.SubRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewSubscriptionResponse(sub, now), nil
}

func (s *subscriptionService) GetSubscriptions(ctx context.Context, filter *types.SubscriptionFilter, now time.Time) (*dto.ListSubscriptionsResponse, error) {
	if filter == nil {
		filter = &types.SubscriptionFilter{QueryFilter: types.NewDefaultQueryFilter()}
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	subs, err := s.SubRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	count, err := s.SubRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := lo.Map(subs, func(sub *subscription.Subscription, _ int) *dto.SubscriptionResponse {
		return dto.NewSubscriptionResponse(sub, now)
	})

	response := types.NewListResponse(items, count, filter.GetLimit(), filter.GetOffset())
	return &response, nil
}

func (s *subscriptionService) ActivateSubscription(ctx context.Context, id string, now time.Time) (*dto.SubscriptionResponse, error) {
	sub, err := s.SubRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if sub.SubscriptionStatus == types.SubscriptionStatusActive {
		return dto.NewSubscriptionResponse(sub, now), nil
	}
	if sub.SubscriptionStatus != types.SubscriptionStatusPending {
		return nil, s.invalidTransition(sub, types.SubscriptionStatusActive)
	}

	sub.SubscriptionStatus = types.SubscriptionStatusActive
	sub.ActivatedAt = &now
	sub.UpdatedAt = now
	sub.UpdatedBy = types.GetUserID(ctx)

	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return nil, err
	}

	s.Logger.Infow("activated subscription", "subscription_id", sub.ID)
	s.publishWebhook(ctx, types.WebhookEventSubscriptionActivated, sub, now)

	return dto.NewSubscriptionResponse(sub, now), nil
}

// CancelSubscription is idempotent: cancelling an already cancelled
// subscription returns it unchanged.
func (s *subscriptionService) CancelSubscription(ctx context.Context, id string, req dto.CancelSubscriptionRequest, now time.Time) (*dto.SubscriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sub, err := s.SubRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if sub.SubscriptionStatus == types.SubscriptionStatusCancelled {
		return dto.NewSubscriptionResponse(sub, now), nil
	}
	if sub.SubscriptionStatus == types.SubscriptionStatusExpired {
		return nil, s.invalidTransition(sub, types.SubscriptionStatusCancelled)
	}

	userID := types.GetUserID(ctx)
	sub.SubscriptionStatus = types.SubscriptionStatusCancelled
	sub.CancelledAt = &now
	sub.CancelledBy = &userID
	if req.Reason != "" {
		sub.CancellationReason = &req.Reason
	}
	sub.AutoRenew = false
	sub.UpdatedAt = now
	sub.UpdatedBy = userID

	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return nil, err
	}

	s.Logger.Infow("cancelled subscription",
		"subscription_id", sub.ID,
		"reason", req.Reason)
	s.publishWebhook(ctx, types.WebhookEventSubscriptionCancelled, sub, now)

	return dto.NewSubscriptionResponse(sub, now), nil
}

func (s *subscriptionService) SuspendSubscription(ctx context.Context, id string, now time.Time) (*dto.SubscriptionResponse, error) {
	sub, err := s.SubRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if sub.SubscriptionStatus != types.SubscriptionStatusActive {
		return nil, s.invalidTransition(sub, types.SubscriptionStatusSuspended)
	}

	sub.SubscriptionStatus = types.SubscriptionStatusSuspended
	sub.UpdatedAt = now
	sub.UpdatedBy = types.GetUserID(ctx)

	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return nil, err
	}
	return dto.NewSubscriptionResponse(sub, now), nil
}

func (s *subscriptionService) ResumeSubscription(ctx context.Context, id string, now time.Time) (*dto.SubscriptionResponse, error) {
	sub, err := s.SubRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if sub.SubscriptionStatus != types.SubscriptionStatusSuspended {
		return nil, s.invalidTransition(sub, types.SubscriptionStatusActive)
	}

	sub.SubscriptionStatus = types.SubscriptionStatusActive
	sub.UpdatedAt = now
	sub.UpdatedBy = types.GetUserID(ctx)

	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return nil, err
	}
	return dto.NewSubscriptionResponse(sub, now), nil
}

func (s *subscriptionService) ExpireDue(ctx context.Context, now time.Time) (*dto.ExpirySweepResponse, error) {
	due, err := s.SubRepo.ListExpiring(ctx, now)
	if err != nil {
		return nil, err
	}

	result := &dto.ExpirySweepResponse{SubscriptionsChecked: len(due)}
	for _, sub := range due {
		tenantCtx := types.SetTenantID(ctx, sub.TenantID)

		sub.SubscriptionStatus = types.SubscriptionStatusExpired
		sub.UpdatedAt = now

		if err := s.SubRepo.Update(tenantCtx, sub); err != nil {
			s.Logger.Errorw("failed to expire subscription",
				"error", err,
				"subscription_id", sub.ID,
				"tenant_id", sub.TenantID)
			result.FailureCount++
			continue
		}

		result.Expired++
		s.publishWebhook(tenantCtx, types.WebhookEventSubscriptionExpired, sub, now)
	}

	s.Logger.Infow("subscription expiry sweep finished",
		"checked", result.SubscriptionsChecked,
		"expired", result.Expired,
		"failures", result.FailureCount)

	return result, nil
}

func (s *subscriptionService) invalidTransition(sub *subscription.Subscription, target types.SubscriptionStatus) error {
	return ierr.NewError("invalid subscription state transition").
		WithHintf("Cannot move subscription from %s to %s", sub.SubscriptionStatus, target).
		WithReportableDetails(map[string]any{
			"subscription_id": sub.ID,
			"current_status":  sub.SubscriptionStatus,
			"target_status":   target,
		}).
		Mark(ierr.ErrInvalidOperation)
}
