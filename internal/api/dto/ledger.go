package dto

import (
	"context"
	"time"

	"github.com/feebridge/feebridge/internal/domain/ledger"
	ierr "github.com/feebridge/feebridge/internal/errors"
	"github.com/feebridge/feebridge/internal/types"
	"github.com/feebridge/feebridge/internal/validator"
	"github.com/shopspring/decimal"
)

// AppendTransactionRequest records a manual ledger entry. Income rows for
// completed payments are appended by the payment flow, not through this
// request.
type AppendTransactionRequest struct {
	TransactionType types.TransactionType `json:"transaction_type" validate:"required"`
	Amount          decimal.Decimal       `json:"amount" validate:"required"`
	Description     string                `json:"description" validate:"required,max=1024"`
	Reference       string                `json:"reference" validate:"max=255"`
	InvoiceID       *string               `json:"invoice_id,omitempty"`
}

func (r *AppendTransactionRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if err := r.TransactionType.Validate(); err != nil {
		return err
	}
	if r.Amount.LessThanOrEqual(decimal.Zero) {
		return ierr.NewError("transaction amount must be positive").
			WithHint("Amounts are stored unsigned, the transaction type carries the sign").
			WithReportableDetails(map[string]any{"amount": r.Amount}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

func (r *AppendTransactionRequest) ToTransaction(ctx context.Context, now time.Time) *ledger.Transaction {
	return &ledger.Transaction{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_TRANSACTION),
		TransactionNumber: types.GenerateTransactionNumber(now),
		TransactionType:   r.TransactionType,
		Amount:            r.Amount,
		Description:       r.Description,
		Reference:         r.Reference,
		InvoiceID:         r.InvoiceID,
		TransactionDate:   now,
		BaseModel:         types.GetDefaultBaseModel(ctx),
	}
}

type TransactionResponse struct {
	*ledger.Transaction
	SignedAmount decimal.Decimal `json:"signed_amount"`
}

func NewTransactionResponse(t *ledger.Transaction) *TransactionResponse {
	return &TransactionResponse{
		Transaction:  t,
		SignedAmount: t.SignedAmount(),
	}
}

// BalanceResponse is the signed sum of ledger entries in a window.
type BalanceResponse struct {
	Balance   decimal.Decimal `json:"balance"`
	StartTime *time.Time      `json:"start_time,omitempty"`
	EndTime   *time.Time      `json:"end_time,omitempty"`
}

// ListTransactionsResponse represents a paginated list of transactions
type ListTransactionsResponse = types.ListResponse[*TransactionResponse]
