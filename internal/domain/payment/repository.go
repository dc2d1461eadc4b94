package payment

import (
	"context"

	"github.com/feebridge/feebridge/internal/types"
)

// Repository defines the interface for payment persistence.
//
// Update is compare-and-swap on the payment Version, rejecting stale
// writes with ierr.ErrVersionConflict. This is what makes the completed
// transition at-most-once under concurrent gateway callbacks.
type Repository interface {
	Create(ctx context.Context, payment *Payment) error
	Get(ctx context.Context, id string) (*Payment, error)
	Update(ctx context.Context, payment *Payment) error
	List(ctx context.Context, filter *types.PaymentFilter) ([]*Payment, error)
	Count(ctx context.Context, filter *types.PaymentFilter) (int, error)

	// ListByInvoice returns all payments recorded against an invoice,
	// regardless of status.
	ListByInvoice(ctx context.Context, invoiceID string) ([]*Payment, error)
}
