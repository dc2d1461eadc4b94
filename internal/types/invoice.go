package types

import (
	ierr "github.com/feebridge/feebridge/internal/errors"
	"github.com/samber/lo"
)

// InvoiceStatus represents the lifecycle state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "DRAFT"
	InvoiceStatusSent          InvoiceStatus = "SENT"
	InvoiceStatusPartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	InvoiceStatusPaid          InvoiceStatus = "PAID"
	InvoiceStatusOverdue       InvoiceStatus = "OVERDUE"
	InvoiceStatusCancelled     InvoiceStatus = "CANCELLED"
)

func (s InvoiceStatus) String() string {
	return string(s)
}

func (s InvoiceStatus) Validate() error {
	allowed := []InvoiceStatus{
		InvoiceStatusDraft,
		InvoiceStatusSent,
		InvoiceStatusPartiallyPaid,
		InvoiceStatusPaid,
		InvoiceStatusOverdue,
		InvoiceStatusCancelled,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid invoice status").
			WithHint("Please provide a valid invoice status").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// InvoiceFilter represents the filter for listing invoices
type InvoiceFilter struct {
	*QueryFilter
	*TimeRangeFilter

	InvoiceIDs     []string       `form:"invoice_ids"`
	SubscriptionID *string        `form:"subscription_id"`
	StudentID      *string        `form:"student_id"`
	InvoiceStatus  *InvoiceStatus `form:"invoice_status"`
}

// NewNoLimitInvoiceFilter creates a new invoice filter with no limit
func NewNoLimitInvoiceFilter() *InvoiceFilter {
	return &InvoiceFilter{
		QueryFilter: NewNoLimitQueryFilter(),
	}
}

// Validate validates the invoice filter
func (f *InvoiceFilter) Validate() error {
	if f == nil {
		return nil
	}
	if err := f.QueryFilter.Validate(); err != nil {
		return err
	}
	return f.TimeRangeFilter.Validate()
}
