package dto

import (
	"context"
	"time"

	"github.com/feebridge/feebridge/internal/domain/subscription"
	ierr "github.com/feebridge/feebridge/internal/errors"
	"github.com/feebridge/feebridge/internal/types"
	"github.com/feebridge/feebridge/internal/validator"
)

type CreateSubscriptionRequest struct {
	PlanID    string    `json:"plan_id" validate:"required"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required"`
	AutoRenew bool      `json:"auto_renew"`
}

func (r *CreateSubscriptionRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if !r.EndDate.After(r.StartDate) {
		return ierr.NewError("end_date must be after start_date").
			WithHint("Please provide an end date later than the start date").
			WithReportableDetails(map[string]any{
				"start_date": r.StartDate,
				"end_date":   r.EndDate,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

func (r *CreateSubscriptionRequest) ToSubscription(ctx context.Context) *subscription.Subscription {
	return &subscription.Subscription{
		ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		PlanID:             r.PlanID,
		SubscriptionStatus: types.SubscriptionStatusPending,
		StartDate:          r.StartDate,
		EndDate:            r.EndDate,
		AutoRenew:          r.AutoRenew,
		BaseModel:          types.GetDefaultBaseModel(ctx),
	}
}

type CancelSubscriptionRequest struct {
	Reason string `json:"reason" validate:"max=1024"`
}

func (r *CancelSubscriptionRequest) Validate() error {
	return validator.ValidateRequest(r)
}

type SubscriptionResponse struct {
	*subscription.Subscription
	DaysRemaining int `json:"days_remaining"`
}

func NewSubscriptionResponse(s *subscription.Subscription, now time.Time) *SubscriptionResponse {
	return &SubscriptionResponse{
		Subscription:  s,
		DaysRemaining: s.DaysRemaining(now),
	}
}

// ListSubscriptionsResponse represents a paginated list of subscriptions
type ListSubscriptionsResponse = types.ListResponse[*SubscriptionResponse]
