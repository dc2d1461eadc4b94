package dto

import (
	"github.com/feebridge/feebridge/internal/domain/settings"
	ierr "github.com/feebridge/feebridge/internal/errors"
	"github.com/feebridge/feebridge/internal/types"
	"github.com/feebridge/feebridge/internal/validator"
	"github.com/shopspring/decimal"
)

type UpdateBillingSettingsRequest struct {
	Currency             *string          `json:"currency,omitempty" validate:"omitempty,len=3"`
	TaxRate              *decimal.Decimal `json:"tax_rate,omitempty"`
	LateFeeRate          *decimal.Decimal `json:"late_fee_rate,omitempty"`
	GracePeriodDays      *int             `json:"grace_period_days,omitempty" validate:"omitempty,gte=0,lte=90"`
	AutoGenerateInvoices *bool            `json:"auto_generate_invoices,omitempty"`
	SendReminders        *bool            `json:"send_reminders,omitempty"`
	ReminderDaysBefore   *int             `json:"reminder_days_before,omitempty" validate:"omitempty,gte=0,lte=60"`
	GatewayEnabled       *bool            `json:"gateway_enabled,omitempty"`
	GatewayConfig        types.Metadata   `json:"gateway_config,omitempty"`
}

func (r *UpdateBillingSettingsRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.TaxRate != nil && (r.TaxRate.IsNegative() || r.TaxRate.GreaterThan(decimal.NewFromInt(1))) {
		return ierr.NewError("tax_rate must be between 0 and 1").
			WithHint("Tax rate is a fraction, e.g. 0.15 for 15 percent").
			WithReportableDetails(map[string]any{"tax_rate": r.TaxRate}).
			Mark(ierr.ErrValidation)
	}
	if r.LateFeeRate != nil && r.LateFeeRate.IsNegative() {
		return ierr.NewError("late_fee_rate must not be negative").
			WithHint("Please provide a non-negative late fee rate").
			WithReportableDetails(map[string]any{"late_fee_rate": r.LateFeeRate}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Apply overlays the request onto existing settings, leaving untouched
// fields as they were.
func (r *UpdateBillingSettingsRequest) Apply(s *settings.BillingSettings) {
	if r.Currency != nil {
		s.Currency = *r.Currency
	}
	if r.TaxRate != nil {
		s.TaxRate = *r.TaxRate
	}
	if r.LateFeeRate != nil {
		s.LateFeeRate = *r.LateFeeRate
	}
	if r.GracePeriodDays != nil {
		s.GracePeriodDays = *r.GracePeriodDays
	}
	if r.AutoGenerateInvoices != nil {
		s.AutoGenerateInvoices = *r.AutoGenerateInvoices
	}
	if r.SendReminders != nil {
		s.SendReminders = *r.SendReminders
	}
	if r.ReminderDaysBefore != nil {
		s.ReminderDaysBefore = *r.ReminderDaysBefore
	}
	if r.GatewayEnabled != nil {
		s.GatewayEnabled = *r.GatewayEnabled
	}
	if r.GatewayConfig != nil {
		s.GatewayConfig = r.GatewayConfig
	}
}

type BillingSettingsResponse struct {
	*settings.BillingSettings
}

func NewBillingSettingsResponse(s *settings.BillingSettings) *BillingSettingsResponse {
	return &BillingSettingsResponse{BillingSettings: s}
}
