package subscription

import (
	"time"

	ierr "github.com/feebridge/feebridge/internal/errors"
	"github.com/feebridge/feebridge/internal/types"
)

// Subscription represents a tenant's subscription to a plan
type Subscription struct {
	ID                 string                   `db:"id" json:"id"`
	PlanID             string                   `db:"plan_id" json:"plan_id"`
	SubscriptionStatus types.SubscriptionStatus `db:"subscription_status" json:"subscription_status"`
	StartDate          time.Time                `db:"start_date" json:"start_date"`
	EndDate            time.Time                `db:"end_date" json:"end_date"`
	AutoRenew          bool                     `db:"auto_renew" json:"auto_renew"`
	ActivatedAt        *time.Time               `db:"activated_at" json:"activated_at,omitempty"`
	CancelledAt        *time.Time               `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CancelledBy        *string                  `db:"cancelled_by" json:"cancelled_by,omitempty"`
	CancellationReason *string                  `db:"cancellation_reason" json:"cancellation_reason,omitempty"`

	types.BaseModel
}

// IsActive reports whether the subscription is in service at the given
// instant: status active and the end date not yet reached.
func (s *Subscription) IsActive(now time.Time) bool {
	return s.SubscriptionStatus == types.SubscriptionStatusActive && !now.After(s.EndDate)
}

// DaysRemaining returns the whole days of service left at the given
// instant, zero for anything not currently active.
func (s *Subscription) DaysRemaining(now time.Time) int {
	if !s.IsActive(now) {
		return 0
	}
	days := int(s.EndDate.Sub(now).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// Validate validates the subscription
func (s *Subscription) Validate() error {
	if s.PlanID == "" {
		return ierr.NewError("plan id is required").
			WithHint("Subscription must reference a plan").
			Mark(ierr.ErrValidation)
	}
	if err := s.SubscriptionStatus.Validate(); err != nil {
		return err
	}
	if !s.EndDate.After(s.StartDate) {
		return ierr.NewError("end date must be after start date").
			WithHint("Subscription end date must be after its start date").
			WithReportableDetails(map[string]any{
				"start_date": s.StartDate,
				"end_date":   s.EndDate,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
