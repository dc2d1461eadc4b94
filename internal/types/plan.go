package types

import (
	ierr "github.com/feebridge/feebridge/internal/errors"
	"github.com/samber/lo"
)

// PlanType categorizes a purchasable subscription plan
type PlanType string

const (
	PlanTypeBasic      PlanType = "BASIC"
	PlanTypeStandard   PlanType = "STANDARD"
	PlanTypePremium    PlanType = "PREMIUM"
	PlanTypeEnterprise PlanType = "ENTERPRISE"
)

func (t PlanType) String() string {
	return string(t)
}

func (t PlanType) Validate() error {
	allowed := []PlanType{
		PlanTypeBasic,
		PlanTypeStandard,
		PlanTypePremium,
		PlanTypeEnterprise,
	}
	if !lo.Contains(allowed, t) {
		return ierr.NewError("invalid plan type").
			WithHint("Please provide a valid plan type").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// BillingCycle is the cadence a plan is billed on
type BillingCycle string

const (
	BillingCycleMonthly   BillingCycle = "MONTHLY"
	BillingCycleQuarterly BillingCycle = "QUARTERLY"
	BillingCycleYearly    BillingCycle = "YEARLY"
)

func (c BillingCycle) String() string {
	return string(c)
}

func (c BillingCycle) Validate() error {
	allowed := []BillingCycle{
		BillingCycleMonthly,
		BillingCycleQuarterly,
		BillingCycleYearly,
	}
	if !lo.Contains(allowed, c) {
		return ierr.NewError("invalid billing cycle").
			WithHint("Please provide a valid billing cycle").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// PeriodsPerYear returns how many billing periods of this cycle fit in a
// year; used to normalize prices to a yearly equivalent.
func (c BillingCycle) PeriodsPerYear() int64 {
	switch c {
	case BillingCycleMonthly:
		return 12
	case BillingCycleQuarterly:
		return 4
	default:
		return 1
	}
}

// PlanFilter represents the filter for listing plans
type PlanFilter struct {
	*QueryFilter

	PlanIDs    []string      `form:"plan_ids"`
	PlanType   *PlanType     `form:"plan_type"`
	Cycle      *BillingCycle `form:"billing_cycle"`
	ActiveOnly bool          `form:"active_only"`
}

// NewNoLimitPlanFilter creates a new plan filter with no limit
func NewNoLimitPlanFilter() *PlanFilter {
	return &PlanFilter{
		QueryFilter: NewNoLimitQueryFilter(),
	}
}

// Validate validates the plan filter
func (f *PlanFilter) Validate() error {
	if f == nil {
		return nil
	}
	return f.QueryFilter.Validate()
}
