package invoice

import (
	"context"
	"time"

	"github.com/feebridge/feebridge/internal/types"
)

// Repository defines the interface for invoice persistence.
//
// Update is compare-and-swap on the invoice Version: implementations must
// reject a write whose version does not match the stored row with
// ierr.ErrVersionConflict and increment the version on success. Create must
// enforce uniqueness of the invoice number and of the idempotency key
// within a tenant, reporting conflicts as ierr.ErrAlreadyExists.
type Repository interface {
	CreateWithLineItems(ctx context.Context, invoice *Invoice) error
	Get(ctx context.Context, id string) (*Invoice, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*Invoice, error)
	Update(ctx context.Context, invoice *Invoice) error
	List(ctx context.Context, filter *types.InvoiceFilter) ([]*Invoice, error)
	Count(ctx context.Context, filter *types.InvoiceFilter) (int, error)

	// ExistsByNumber reports whether an invoice number is already taken
	// within the tenant. Used for collision-checking generated numbers.
	ExistsByNumber(ctx context.Context, invoiceNumber string) (bool, error)

	// ListDue returns sent or partially paid invoices across all tenants
	// whose due date is strictly before the given instant. Used by the
	// overdue sweep.
	ListDue(ctx context.Context, now time.Time) ([]*Invoice, error)
}
