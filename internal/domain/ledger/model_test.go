package ledger

import (
	"testing"
	"time"

	"github.com/feebridge/feebridge/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSignedAmount(t *testing.T) {
	testCases := []struct {
		name            string
		transactionType types.TransactionType
		amount          string
		expected        string
	}{
		{"income_adds", types.TransactionTypeIncome, "150.50", "150.5"},
		{"adjustment_adds", types.TransactionTypeAdjustment, "25", "25"},
		{"expense_subtracts", types.TransactionTypeExpense, "40", "-40"},
		{"refund_subtracts", types.TransactionTypeRefund, "150.50", "-150.5"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			txn := &Transaction{
				TransactionType: tc.transactionType,
				Amount:          decimal.RequireFromString(tc.amount),
			}
			assert.Equal(t, tc.expected, txn.SignedAmount().String())
		})
	}
}

func TestTransactionValidate(t *testing.T) {
	valid := &Transaction{
		TransactionNumber: "TXN-20260315-DEADBEEF",
		TransactionType:   types.TransactionTypeIncome,
		Amount:            decimal.NewFromInt(100),
		Description:       "Payment PAY-20260315-CAFEBABE",
		TransactionDate:   time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
	}
	assert.NoError(t, valid.Validate())

	// amounts are stored unsigned, the type carries the sign
	negative := *valid
	negative.Amount = decimal.NewFromInt(-100)
	assert.Error(t, negative.Validate())

	zero := *valid
	zero.Amount = decimal.Zero
	assert.Error(t, zero.Validate())

	badType := *valid
	badType.TransactionType = "TRANSFER"
	assert.Error(t, badType.Validate())
}
