package invoice

import (
	ierr "github.com/feebridge/feebridge/internal/errors"
	"github.com/feebridge/feebridge/internal/types"
	"github.com/shopspring/decimal"
)

// LineItem is one billable quantity x price entry on an invoice, tied to a
// fee. Immutable once the owning invoice leaves draft.
type LineItem struct {
	ID          string          `db:"id" json:"id"`
	InvoiceID   string          `db:"invoice_id" json:"invoice_id"`
	FeeID       string          `db:"fee_id" json:"fee_id"`
	Description string          `db:"description" json:"description"`
	Quantity    decimal.Decimal `db:"quantity" json:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price" json:"unit_price"`
	TotalPrice  decimal.Decimal `db:"total_price" json:"total_price"`

	types.BaseModel
}

// Validate validates the line item
func (li *LineItem) Validate() error {
	if li.FeeID == "" {
		return ierr.NewError("fee id is required").
			WithHint("Line item must reference a fee").
			Mark(ierr.ErrValidation)
	}
	if !li.Quantity.IsPositive() {
		return ierr.NewError("quantity must be positive").
			WithHint("Line item quantity must be greater than zero").
			WithReportableDetails(map[string]any{
				"quantity": li.Quantity.String(),
			}).
			Mark(ierr.ErrValidation)
	}
	if li.UnitPrice.IsNegative() {
		return ierr.NewError("unit price must be non negative").
			WithHint("Line item unit price cannot be negative").
			Mark(ierr.ErrValidation)
	}
	if !li.TotalPrice.Equal(li.Quantity.Mul(li.UnitPrice)) {
		return ierr.NewError("total price mismatch").
			WithHint("Line item total must equal quantity x unit price").
			WithReportableDetails(map[string]any{
				"quantity":    li.Quantity.String(),
				"unit_price":  li.UnitPrice.String(),
				"total_price": li.TotalPrice.String(),
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
