package dto

import (
	"context"
	"time"

	"github.com/feebridge/feebridge/internal/domain/payment"
	ierr "github.com/feebridge/feebridge/internal/errors"
	"github.com/feebridge/feebridge/internal/types"
	"github.com/feebridge/feebridge/internal/validator"
	"github.com/shopspring/decimal"
)

type RecordPaymentRequest struct {
	InvoiceID     string              `json:"invoice_id" validate:"required"`
	Amount        decimal.Decimal     `json:"amount" validate:"required"`
	PaymentMethod types.PaymentMethod `json:"payment_method" validate:"required"`
	PaidBy        string              `json:"paid_by" validate:"required"`
	PaymentDate   *time.Time          `json:"payment_date,omitempty"`
	Notes         string              `json:"notes" validate:"max=2048"`
}

func (r *RecordPaymentRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if err := r.PaymentMethod.Validate(); err != nil {
		return err
	}
	if r.Amount.LessThanOrEqual(decimal.Zero) {
		return ierr.NewError("payment amount must be positive").
			WithHint("Please provide an amount greater than zero").
			WithReportableDetails(map[string]any{"amount": r.Amount}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ToPayment builds a pending payment. The payment date defaults to the
// supplied now when the request carries none.
func (r *RecordPaymentRequest) ToPayment(ctx context.Context, now time.Time) *payment.Payment {
	paymentDate := now
	if r.PaymentDate != nil {
		paymentDate = *r.PaymentDate
	}
	return &payment.Payment{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT),
		PaymentNumber: types.GeneratePaymentNumber(now),
		InvoiceID:     r.InvoiceID,
		Amount:        r.Amount,
		PaymentMethod: r.PaymentMethod,
		PaymentStatus: types.PaymentStatusPending,
		PaidBy:        r.PaidBy,
		PaymentDate:   paymentDate,
		Notes:         r.Notes,
		Version:       1,
		BaseModel:     types.GetDefaultBaseModel(ctx),
	}
}

type FailPaymentRequest struct {
	Reason string `json:"reason" validate:"required,max=1024"`
}

func (r *FailPaymentRequest) Validate() error {
	return validator.ValidateRequest(r)
}

type RefundPaymentRequest struct {
	Reason string `json:"reason" validate:"required,max=1024"`
}

func (r *RefundPaymentRequest) Validate() error {
	return validator.ValidateRequest(r)
}

type PaymentResponse struct {
	*payment.Payment
}

func NewPaymentResponse(p *payment.Payment) *PaymentResponse {
	return &PaymentResponse{Payment: p}
}

// ListPaymentsResponse represents a paginated list of payments
type ListPaymentsResponse = types.ListResponse[*PaymentResponse]
