package dto

import (
	"time"

	"github.com/feebridge/feebridge/internal/domain/invoice"
	ierr "github.com/feebridge/feebridge/internal/errors"
	"github.com/feebridge/feebridge/internal/types"
	"github.com/feebridge/feebridge/internal/validator"
	"github.com/shopspring/decimal"
)

// CreateInvoiceRequest creates a one-off invoice for a student. Line
// items reference fees by id; amounts are resolved from the fee catalog
// at creation time.
type CreateInvoiceRequest struct {
	StudentID      string                     `json:"student_id" validate:"required"`
	SubscriptionID *string                    `json:"subscription_id,omitempty"`
	DueDate        time.Time                  `json:"due_date" validate:"required"`
	DiscountAmount decimal.Decimal            `json:"discount_amount"`
	Notes          string                     `json:"notes" validate:"max=2048"`
	LineItems      []CreateInvoiceLineRequest `json:"line_items" validate:"required,min=1,dive"`
}

type CreateInvoiceLineRequest struct {
	FeeID       string          `json:"fee_id" validate:"required"`
	Description string          `json:"description" validate:"max=512"`
	Quantity    decimal.Decimal `json:"quantity"`
}

func (r *CreateInvoiceRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.DiscountAmount.IsNegative() {
		return ierr.NewError("discount_amount must not be negative").
			WithHint("Please provide a non-negative discount").
			WithReportableDetails(map[string]any{"discount_amount": r.DiscountAmount}).
			Mark(ierr.ErrValidation)
	}
	for _, line := range r.LineItems {
		if line.Quantity.LessThanOrEqual(decimal.Zero) {
			return ierr.NewError("line item quantity must be positive").
				WithHint("Each line item needs a quantity greater than zero").
				WithReportableDetails(map[string]any{
					"fee_id":   line.FeeID,
					"quantity": line.Quantity,
				}).
				Mark(ierr.ErrValidation)
		}
	}
	return nil
}

type InvoiceResponse struct {
	*invoice.Invoice
	AmountPaid decimal.Decimal `json:"amount_paid"`
	AmountDue  decimal.Decimal `json:"amount_due"`
}

func NewInvoiceResponse(inv *invoice.Invoice, amountPaid decimal.Decimal) *InvoiceResponse {
	return &InvoiceResponse{
		Invoice:    inv,
		AmountPaid: amountPaid,
		AmountDue:  inv.TotalAmount.Sub(amountPaid),
	}
}

// ListInvoicesResponse represents a paginated list of invoices
type ListInvoicesResponse = types.ListResponse[*InvoiceResponse]
