package payment

import (
	"time"

	ierr "github.com/feebridge/feebridge/internal/errors"
	"github.com/feebridge/feebridge/internal/types"
	"github.com/shopspring/decimal"
)

// Payment represents a payment attempt against an invoice. The payment
// processor is the only writer of PaymentStatus; the pending/processing to
// completed transition happens at most once per payment.
type Payment struct {
	ID              string              `db:"id" json:"id"`
	PaymentNumber   string              `db:"payment_number" json:"payment_number"`
	InvoiceID       string              `db:"invoice_id" json:"invoice_id"`
	Amount          decimal.Decimal     `db:"amount" json:"amount"`
	PaymentMethod   types.PaymentMethod `db:"payment_method" json:"payment_method"`
	PaymentStatus   types.PaymentStatus `db:"payment_status" json:"payment_status"`
	GatewayTxnID    *string             `db:"gateway_txn_id" json:"gateway_txn_id,omitempty"`
	GatewayResponse types.Metadata      `db:"gateway_response" json:"gateway_response,omitempty"`
	PaidBy          string              `db:"paid_by" json:"paid_by"`
	ProcessedBy     *string             `db:"processed_by" json:"processed_by,omitempty"`
	PaymentDate     time.Time           `db:"payment_date" json:"payment_date"`
	ProcessedDate   *time.Time          `db:"processed_date" json:"processed_date,omitempty"`
	FailureReason   *string             `db:"failure_reason" json:"failure_reason,omitempty"`
	Notes           string              `db:"notes" json:"notes,omitempty"`
	Version         int                 `db:"version" json:"version"`

	types.BaseModel
}

// Validate validates the payment
func (p *Payment) Validate() error {
	if p.InvoiceID == "" {
		return ierr.NewError("invoice id is required").
			WithHint("Payment must reference an invoice").
			Mark(ierr.ErrValidation)
	}
	if !p.Amount.IsPositive() {
		return ierr.NewError("invalid amount").
			WithHint("Amount must be greater than 0").
			WithReportableDetails(map[string]any{
				"amount": p.Amount.String(),
			}).
			Mark(ierr.ErrValidation)
	}
	if err := p.PaymentMethod.Validate(); err != nil {
		return err
	}
	if err := p.PaymentStatus.Validate(); err != nil {
		return err
	}
	return nil
}
