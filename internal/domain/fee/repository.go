package fee

import (
	"context"

	"github.com/feebridge/feebridge/internal/types"
)

// Repository defines the interface for fee persistence
type Repository interface {
	Create(ctx context.Context, fee *Fee) error
	Get(ctx context.Context, id string) (*Fee, error)
	GetByName(ctx context.Context, name string) (*Fee, error)
	List(ctx context.Context, filter *types.FeeFilter) ([]*Fee, error)
	Count(ctx context.Context, filter *types.FeeFilter) (int, error)
}
