package fee

import (
	ierr "github.com/feebridge/feebridge/internal/errors"
	"github.com/feebridge/feebridge/internal/types"
	"github.com/shopspring/decimal"
)

// Fee represents a billable fee type. Fees are immutable reference data
// for invoice line items; the amount recorded on a line item is always the
// fee's amount at invoicing time.
type Fee struct {
	ID                 string                   `db:"id" json:"id"`
	Name               string                   `db:"name" json:"name"`
	Description        string                   `db:"description" json:"description,omitempty"`
	FeeType            types.FeeType            `db:"fee_type" json:"fee_type"`
	Amount             decimal.Decimal          `db:"amount" json:"amount"`
	IsRecurring        bool                     `db:"is_recurring" json:"is_recurring"`
	RecurringFrequency types.RecurringFrequency `db:"recurring_frequency" json:"recurring_frequency,omitempty"`
	Active             bool                     `db:"active" json:"active"`

	types.BaseModel
}

// Validate validates the fee
func (f *Fee) Validate() error {
	if f.Name == "" {
		return ierr.NewError("fee name is required").
			WithHint("Fee name cannot be empty").
			Mark(ierr.ErrValidation)
	}
	if err := f.FeeType.Validate(); err != nil {
		return err
	}
	if f.Amount.IsNegative() {
		return ierr.NewError("fee amount must be non negative").
			WithHint("Amount cannot be negative").
			WithReportableDetails(map[string]any{
				"amount": f.Amount.String(),
			}).
			Mark(ierr.ErrValidation)
	}
	if f.IsRecurring {
		if err := f.RecurringFrequency.Validate(); err != nil {
			return err
		}
	}
	return nil
}
