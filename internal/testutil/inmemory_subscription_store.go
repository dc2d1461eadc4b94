package testutil

import (
	"context"
	"time"

	"github.com/feebridge/feebridge/internal/domain/subscription"
	ierr "github.com/feebridge/feebridge/internal/errors"
	"github.com/feebridge/feebridge/internal/types"
)

// InMemorySubscriptionStore implements subscription.Repository
type InMemorySubscriptionStore struct {
	*InMemoryStore[*subscription.Subscription]
}

// NewInMemorySubscriptionStore creates a new in-memory subscription store
func NewInMemorySubscriptionStore() *InMemorySubscriptionStore {
	return &InMemorySubscriptionStore{
		InMemoryStore: NewInMemoryStore[*subscription.Subscription](),
	}
}

func subscriptionFilterFn(ctx context.Context, sub *subscription.Subscription, filter interface{}) bool {
	if sub == nil {
		return false
	}

	if tenantID, ok := ctx.Value(types.CtxTenantID).(string); ok {
		if sub.TenantID != tenantID {
			return false
		}
	}
	if sub.Status != types.StatusPublished {
		return false
	}

	f, ok := filter.(*types.SubscriptionFilter)
	if !ok || f == nil {
		return true
	}

	if f.PlanID != nil && sub.PlanID != *f.PlanID {
		return false
	}
	if f.SubscriptionStatus != nil && sub.SubscriptionStatus != *f.SubscriptionStatus {
		return false
	}
	if f.TimeRangeFilter != nil {
		if f.StartTime != nil && sub.CreatedAt.Before(*f.StartTime) {
			return false
		}
		if f.EndTime != nil && sub.CreatedAt.After(*f.EndTime) {
			return false
		}
	}
	return true
}

func subscriptionSortFn(i, j *subscription.Subscription) bool {
	if i == nil || j == nil {
		return false
	}
	return i.CreatedAt.After(j.CreatedAt)
}

func (s *InMemorySubscriptionStore) Create(ctx context.Context, sub *subscription.Subscription) error {
	if sub == nil {
		return ierr.NewError("subscription cannot be nil").
			WithHint("Subscription data is required").
			Mark(ierr.ErrValidation)
	}
	return s.InMemoryStore.Create(ctx, sub.ID, sub)
}

func (s *InMemorySubscriptionStore) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	sub, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.TenantID != types.GetTenantID(ctx) || sub.Status != types.StatusPublished {
		return nil, ierr.NewError("subscription not found").
			WithHint("The requested subscription does not exist").
			WithReportableDetails(map[string]any{"subscription_id": id}).
			Mark(ierr.ErrNotFound)
	}
	return sub, nil
}

func (s *InMemorySubscriptionStore) Update(ctx context.Context, sub *subscription.Subscription) error {
	if sub == nil {
		return ierr.NewError("subscription cannot be nil").
			WithHint("Subscription data is required").
			Mark(ierr.ErrValidation)
	}
	return s.InMemoryStore.Update(ctx, sub.ID, sub)
}

func (s *InMemorySubscriptionStore) List(ctx context.Context, filter *types.SubscriptionFilter) ([]*subscription.Subscription, error) {
	return s.InMemoryStore.List(ctx, filter, subscriptionFilterFn, subscriptionSortFn)
}

func (s *InMemorySubscriptionStore) Count(ctx context.Context, filter *types.SubscriptionFilter) (int, error) {
	return s.InMemoryStore.Count(ctx, filter, subscriptionFilterFn)
}

// ListExpiring ignores tenant scoping the way the sweep query does.
func (s *InMemorySubscriptionStore) ListExpiring(ctx context.Context, now time.Time) ([]*subscription.Subscription, error) {
	return s.InMemoryStore.List(ctx, nil, func(_ context.Context, sub *subscription.Subscription, _ interface{}) bool {
		if sub == nil || sub.Status != types.StatusPublished {
			return false
		}
		return sub.SubscriptionStatus == types.SubscriptionStatusActive && !sub.EndDate.After(now)
	}, subscriptionSortFn)
}
