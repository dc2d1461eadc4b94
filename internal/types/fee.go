package types

import (
	"fmt"
	"time"

	ierr "github.com/feebridge/feebridge/internal/errors"
	"github.com/samber/lo"
)

// FeeType categorizes a billable fee
type FeeType string

const (
	FeeTypeTuition      FeeType = "TUITION"
	FeeTypeRegistration FeeType = "REGISTRATION"
	FeeTypeExamination  FeeType = "EXAMINATION"
	FeeTypeTransport    FeeType = "TRANSPORT"
	FeeTypeLibrary      FeeType = "LIBRARY"
	FeeTypeOther        FeeType = "OTHER"
)

func (t FeeType) String() string {
	return string(t)
}

func (t FeeType) Validate() error {
	allowed := []FeeType{
		FeeTypeTuition,
		FeeTypeRegistration,
		FeeTypeExamination,
		FeeTypeTransport,
		FeeTypeLibrary,
		FeeTypeOther,
	}
	if !lo.Contains(allowed, t) {
		return ierr.NewError("invalid fee type").
			WithHint("Please provide a valid fee type").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// RecurringFrequency is the cadence a recurring fee is re-billed on
type RecurringFrequency string

const (
	RecurringFrequencyMonthly   RecurringFrequency = "MONTHLY"
	RecurringFrequencyQuarterly RecurringFrequency = "QUARTERLY"
	RecurringFrequencyYearly    RecurringFrequency = "YEARLY"
)

func (f RecurringFrequency) String() string {
	return string(f)
}

func (f RecurringFrequency) Validate() error {
	allowed := []RecurringFrequency{
		RecurringFrequencyMonthly,
		RecurringFrequencyQuarterly,
		RecurringFrequencyYearly,
	}
	if !lo.Contains(allowed, f) {
		return ierr.NewError("invalid recurring frequency").
			WithHint("Please provide a valid recurring frequency").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// PeriodKey returns the billing period identifier that contains the given
// instant for this frequency. The key is stable for every instant in the
// same period, so (tenant, fee, period key) uniquely identifies one billing
// period's invoice.
func (f RecurringFrequency) PeriodKey(now time.Time) string {
	now = now.UTC()
	switch f {
	case RecurringFrequencyMonthly:
		return now.Format("2006-01")
	case RecurringFrequencyQuarterly:
		quarter := (int(now.Month())-1)/3 + 1
		return fmt.Sprintf("%d-Q%d", now.Year(), quarter)
	default:
		return now.Format("2006")
	}
}

// FeeFilter represents the filter for listing fees
type FeeFilter struct {
	*QueryFilter

	FeeIDs        []string `form:"fee_ids"`
	FeeType       *FeeType `form:"fee_type"`
	RecurringOnly bool     `form:"recurring_only"`
}

// NewNoLimitFeeFilter creates a new fee filter with no limit
func NewNoLimitFeeFilter() *FeeFilter {
	return &FeeFilter{
		QueryFilter: NewNoLimitQueryFilter(),
	}
}

// Validate validates the fee filter
func (f *FeeFilter) Validate() error {
	if f == nil {
		return nil
	}
	return f.QueryFilter.Validate()
}
