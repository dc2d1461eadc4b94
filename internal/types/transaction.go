package types

import (
	ierr "github.com/feebridge/feebridge/internal/errors"
	"github.com/samber/lo"
)

// TransactionType categorizes a ledger transaction
type TransactionType string

const (
	TransactionTypeIncome     TransactionType = "INCOME"
	TransactionTypeExpense    TransactionType = "EXPENSE"
	TransactionTypeRefund     TransactionType = "REFUND"
	TransactionTypeAdjustment TransactionType = "ADJUSTMENT"
)

func (t TransactionType) String() string {
	return string(t)
}

func (t TransactionType) Validate() error {
	allowed := []TransactionType{
		TransactionTypeIncome,
		TransactionTypeExpense,
		TransactionTypeRefund,
		TransactionTypeAdjustment,
	}
	if !lo.Contains(allowed, t) {
		return ierr.NewError("invalid transaction type").
			WithHint("Please provide a valid transaction type").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Sign returns +1 for transaction types that add to the tenant's balance
// and -1 for those that subtract from it. Ledger rows carry unsigned
// amounts; the sign lives in the type.
func (t TransactionType) Sign() int64 {
	switch t {
	case TransactionTypeExpense, TransactionTypeRefund:
		return -1
	default:
		return 1
	}
}

// TransactionFilter represents the filter for listing ledger transactions
type TransactionFilter struct {
	*QueryFilter
	*TimeRangeFilter

	TransactionIDs  []string         `form:"transaction_ids"`
	TransactionType *TransactionType `form:"transaction_type"`
	PaymentID       *string          `form:"payment_id"`
	InvoiceID       *string          `form:"invoice_id"`
}

// NewNoLimitTransactionFilter creates a new transaction filter with no limit
func NewNoLimitTransactionFilter() *TransactionFilter {
	return &TransactionFilter{
		QueryFilter: NewNoLimitQueryFilter(),
	}
}

// Validate validates the transaction filter
func (f *TransactionFilter) Validate() error {
	if f == nil {
		return nil
	}
	if err := f.QueryFilter.Validate(); err != nil {
		return err
	}
	return f.TimeRangeFilter.Validate()
}
