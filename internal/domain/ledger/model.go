package ledger

import (
	"time"

	ierr "github.com/feebridge/feebridge/internal/errors"
	"github.com/feebridge/feebridge/internal/types"
	"github.com/shopspring/decimal"
)

// Transaction is one immutable record of money movement. Amounts are
// unsigned; the transaction type carries the sign. Rows are only ever
// appended, never updated or deleted.
type Transaction struct {
	ID                string                `db:"id" json:"id"`
	TransactionNumber string                `db:"transaction_number" json:"transaction_number"`
	TransactionType   types.TransactionType `db:"transaction_type" json:"transaction_type"`
	Amount            decimal.Decimal       `db:"amount" json:"amount"`
	Description       string                `db:"description" json:"description"`
	Reference         string                `db:"reference" json:"reference,omitempty"`
	PaymentID         *string               `db:"payment_id" json:"payment_id,omitempty"`
	InvoiceID         *string               `db:"invoice_id" json:"invoice_id,omitempty"`
	TransactionDate   time.Time             `db:"transaction_date" json:"transaction_date"`

	types.BaseModel
}

// SignedAmount returns the amount with the sign implied by the
// transaction type applied.
func (t *Transaction) SignedAmount() decimal.Decimal {
	return t.Amount.Mul(decimal.NewFromInt(t.TransactionType.Sign()))
}

// Validate validates the transaction
func (t *Transaction) Validate() error {
	if err := t.TransactionType.Validate(); err != nil {
		return err
	}
	if !t.Amount.IsPositive() {
		return ierr.NewError("transaction amount must be positive").
			WithHint("Amount must be greater than 0").
			WithReportableDetails(map[string]any{
				"amount": t.Amount.String(),
			}).
			Mark(ierr.ErrValidation)
	}
	if t.Description == "" {
		return ierr.NewError("transaction description is required").
			WithHint("Description cannot be empty").
			Mark(ierr.ErrValidation)
	}
	return nil
}
