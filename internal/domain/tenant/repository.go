package tenant

import (
	"context"
)

// Repository defines the read-only view of tenants this core consumes
type Repository interface {
	Get(ctx context.Context, id string) (*Tenant, error)
	ListActive(ctx context.Context) ([]*Tenant, error)
}
