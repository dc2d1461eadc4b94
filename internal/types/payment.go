package types

import (
	ierr "github.com/feebridge/feebridge/internal/errors"
	"github.com/samber/lo"
)

// PaymentStatus represents the status of a payment
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "PENDING"
	PaymentStatusProcessing PaymentStatus = "PROCESSING"
	PaymentStatusCompleted  PaymentStatus = "COMPLETED"
	PaymentStatusFailed     PaymentStatus = "FAILED"
	PaymentStatusCancelled  PaymentStatus = "CANCELLED"
	PaymentStatusRefunded   PaymentStatus = "REFUNDED"
)

func (s PaymentStatus) String() string {
	return string(s)
}

func (s PaymentStatus) Validate() error {
	allowed := []PaymentStatus{
		PaymentStatusPending,
		PaymentStatusProcessing,
		PaymentStatusCompleted,
		PaymentStatusFailed,
		PaymentStatusCancelled,
		PaymentStatusRefunded,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid payment status").
			WithHint("Please provide a valid payment status").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// PaymentMethod represents how a payment is collected
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodCard         PaymentMethod = "CARD"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodMobileMoney  PaymentMethod = "MOBILE_MONEY"
	PaymentMethodCheque       PaymentMethod = "CHEQUE"
)

func (m PaymentMethod) String() string {
	return string(m)
}

func (m PaymentMethod) Validate() error {
	allowed := []PaymentMethod{
		PaymentMethodCash,
		PaymentMethodCard,
		PaymentMethodBankTransfer,
		PaymentMethodMobileMoney,
		PaymentMethodCheque,
	}
	if !lo.Contains(allowed, m) {
		return ierr.NewError("invalid payment method").
			WithHint("Please provide a valid payment method").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsGatewayMethod reports whether completing a payment with this method
// requires a round trip to the external payment gateway. Cash and cheque
// payments are confirmed manually.
func (m PaymentMethod) IsGatewayMethod() bool {
	return m == PaymentMethodCard || m == PaymentMethodMobileMoney
}

// PaymentFilter represents the filter for listing payments
type PaymentFilter struct {
	*QueryFilter
	*TimeRangeFilter

	PaymentIDs    []string       `form:"payment_ids"`
	InvoiceID     *string        `form:"invoice_id"`
	PaymentMethod *PaymentMethod `form:"payment_method"`
	PaymentStatus *PaymentStatus `form:"payment_status"`
}

// NewNoLimitPaymentFilter creates a new payment filter with no limit
func NewNoLimitPaymentFilter() *PaymentFilter {
	return &PaymentFilter{
		QueryFilter: NewNoLimitQueryFilter(),
	}
}

// Validate validates the payment filter
func (f *PaymentFilter) Validate() error {
	if f == nil {
		return nil
	}
	if err := f.QueryFilter.Validate(); err != nil {
		return err
	}
	return f.TimeRangeFilter.Validate()
}
