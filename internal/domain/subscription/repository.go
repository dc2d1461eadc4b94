package subscription

import (
	"context"
	"time"

	"github.com/feebridge/feebridge/internal/types"
)

// Repository defines the interface for subscription persistence
type Repository interface {
	Create(ctx context.Context, subscription *Subscription) error
	Get(ctx context.Context, id string) (*Subscription, error)
	Update(ctx context.Context, subscription *Subscription) error
	List(ctx context.Context, filter *types.SubscriptionFilter) ([]*Subscription, error)
	Count(ctx context.Context, filter *types.SubscriptionFilter) (int, error)

	// ListExpiring returns active subscriptions whose end date is at or
	// before the given instant, across all tenants. Used by the expiry sweep.
	ListExpiring(ctx context.Context, now time.Time) ([]*Subscription, error)
}
