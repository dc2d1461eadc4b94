package ledger

import (
	"context"

	"github.com/feebridge/feebridge/internal/types"
)

// Repository defines the interface for ledger persistence. The ledger is
// append-only: there is deliberately no Update or Delete.
type Repository interface {
	Create(ctx context.Context, transaction *Transaction) error
	Get(ctx context.Context, id string) (*Transaction, error)
	List(ctx context.Context, filter *types.TransactionFilter) ([]*Transaction, error)
	Count(ctx context.Context, filter *types.TransactionFilter) (int, error)

	// ListByPayment returns every transaction referencing a payment.
	// Exactly one income transaction must exist per completed payment.
	ListByPayment(ctx context.Context, paymentID string) ([]*Transaction, error)
}
