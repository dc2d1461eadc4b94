package invoice

import (
	"time"

	ierr "github.com/feebridge/feebridge/internal/errors"
	"github.com/feebridge/feebridge/internal/types"
	"github.com/shopspring/decimal"
)

// Invoice represents the invoice domain model. The invoice own its line
// items; totals are maintained by the invoice engine and must satisfy
// TotalAmount = Subtotal + TaxAmount - DiscountAmount at all times.
type Invoice struct {
	ID             string              `db:"id" json:"id"`
	InvoiceNumber  string              `db:"invoice_number" json:"invoice_number"`
	StudentID      *string             `db:"student_id" json:"student_id,omitempty"`
	SubscriptionID *string             `db:"subscription_id" json:"subscription_id,omitempty"`
	IdempotencyKey *string             `db:"idempotency_key" json:"idempotency_key,omitempty"`
	InvoiceStatus  types.InvoiceStatus `db:"invoice_status" json:"invoice_status"`
	IssueDate      time.Time           `db:"issue_date" json:"issue_date"`
	DueDate        time.Time           `db:"due_date" json:"due_date"`
	PaidDate       *time.Time          `db:"paid_date" json:"paid_date,omitempty"`
	Subtotal       decimal.Decimal     `db:"subtotal" json:"subtotal"`
	TaxAmount      decimal.Decimal     `db:"tax_amount" json:"tax_amount"`
	DiscountAmount decimal.Decimal     `db:"discount_amount" json:"discount_amount"`
	TotalAmount    decimal.Decimal     `db:"total_amount" json:"total_amount"`
	Notes          string              `db:"notes" json:"notes,omitempty"`
	LineItems      []*LineItem         `db:"-" json:"line_items,omitempty"`
	Version        int                 `db:"version" json:"version"`

	types.BaseModel
}

// overdue-eligible statuses: an unissued or settled invoice is never late
func (i *Invoice) overdueEligible() bool {
	switch i.InvoiceStatus {
	case types.InvoiceStatusSent, types.InvoiceStatusPartiallyPaid, types.InvoiceStatusOverdue:
		return true
	}
	return false
}

// IsOverdue reports whether the invoice is past due at the given instant.
// Pure derivation from status and due date.
func (i *Invoice) IsOverdue(now time.Time) bool {
	return i.overdueEligible() && now.After(i.DueDate)
}

// DaysOverdue returns the whole days past due at the given instant, zero
// when not overdue.
func (i *Invoice) DaysOverdue(now time.Time) int {
	if !i.IsOverdue(now) {
		return 0
	}
	return int(now.Sub(i.DueDate).Hours() / 24)
}

// Validate validates the invoice
func (i *Invoice) Validate() error {
	if i.Subtotal.IsNegative() {
		return ierr.NewError("subtotal must be non negative").
			WithHint("Subtotal cannot be negative").
			Mark(ierr.ErrValidation)
	}
	if i.TaxAmount.IsNegative() {
		return ierr.NewError("tax amount must be non negative").
			WithHint("Tax amount cannot be negative").
			Mark(ierr.ErrValidation)
	}
	if i.DiscountAmount.IsNegative() {
		return ierr.NewError("discount amount must be non negative").
			WithHint("Discount amount cannot be negative").
			Mark(ierr.ErrValidation)
	}
	if !i.TotalAmount.Equal(i.Subtotal.Add(i.TaxAmount).Sub(i.DiscountAmount)) {
		return ierr.NewError("total amount mismatch").
			WithHint("Total amount must equal subtotal + tax - discount").
			WithReportableDetails(map[string]any{
				"subtotal":        i.Subtotal.String(),
				"tax_amount":      i.TaxAmount.String(),
				"discount_amount": i.DiscountAmount.String(),
				"total_amount":    i.TotalAmount.String(),
			}).
			Mark(ierr.ErrValidation)
	}
	if !i.DueDate.After(i.IssueDate) {
		return ierr.NewError("due date must be after issue date").
			WithHint("Invoice due date must be after its issue date").
			WithReportableDetails(map[string]any{
				"issue_date": i.IssueDate,
				"due_date":   i.DueDate,
			}).
			Mark(ierr.ErrValidation)
	}
	for _, item := range i.LineItems {
		if err := item.Validate(); err != nil {
			return err
		}
	}
	return nil
}
