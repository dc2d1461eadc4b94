package settings

import (
	"context"
)

// Repository defines the interface for billing settings persistence.
// One row per tenant; GetByTenant is the primary access path.
type Repository interface {
	Create(ctx context.Context, settings *BillingSettings) error
	GetByTenant(ctx context.Context, tenantID string) (*BillingSettings, error)
	Update(ctx context.Context, settings *BillingSettings) error
}
