package settings

import (
	ierr "github.com/feebridge/feebridge/internal/errors"
	"github.com/feebridge/feebridge/internal/types"
	"github.com/shopspring/decimal"
)

// BillingSettings is the per-tenant billing configuration singleton.
// Read-mostly; callers go through the settings service which caches it.
type BillingSettings struct {
	ID                   string          `db:"id" json:"id"`
	Currency             string          `db:"currency" json:"currency"`
	TaxRate              decimal.Decimal `db:"tax_rate" json:"tax_rate"`
	LateFeeRate          decimal.Decimal `db:"late_fee_rate" json:"late_fee_rate"`
	GracePeriodDays      int             `db:"grace_period_days" json:"grace_period_days"`
	AutoGenerateInvoices bool            `db:"auto_generate_invoices" json:"auto_generate_invoices"`
	SendReminders        bool            `db:"send_reminders" json:"send_reminders"`
	ReminderDaysBefore   int             `db:"reminder_days_before" json:"reminder_days_before"`
	GatewayEnabled       bool            `db:"gateway_enabled" json:"gateway_enabled"`
	GatewayConfig        types.Metadata  `db:"gateway_config" json:"gateway_config,omitempty"`

	types.BaseModel
}

// Validate validates the billing settings
func (s *BillingSettings) Validate() error {
	if len(s.Currency) != 3 {
		return ierr.NewError("invalid currency").
			WithHint("Currency must be a three-letter ISO code").
			WithReportableDetails(map[string]any{
				"currency": s.Currency,
			}).
			Mark(ierr.ErrValidation)
	}
	if s.TaxRate.IsNegative() || s.TaxRate.GreaterThan(decimal.NewFromInt(1)) {
		return ierr.NewError("tax rate out of range").
			WithHint("Tax rate must be between 0 and 1").
			Mark(ierr.ErrValidation)
	}
	if s.LateFeeRate.IsNegative() {
		return ierr.NewError("late fee rate must be non negative").
			WithHint("Late fee rate cannot be negative").
			Mark(ierr.ErrValidation)
	}
	if s.GracePeriodDays < 0 {
		return ierr.NewError("grace period must be non negative").
			WithHint("Grace period days cannot be negative").
			Mark(ierr.ErrValidation)
	}
	return nil
}
