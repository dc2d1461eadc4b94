package plan

import (
	ierr "github.com/feebridge/feebridge/internal/errors"
	"github.com/feebridge/feebridge/internal/types"
	"github.com/shopspring/decimal"
)

// Plan represents a purchasable subscription plan. Plans are reference
// data: once a live subscription points at a plan, only administrative
// edits touch it.
type Plan struct {
	ID           string             `db:"id" json:"id"`
	Name         string             `db:"name" json:"name"`
	Description  string             `db:"description" json:"description,omitempty"`
	PlanType     types.PlanType     `db:"plan_type" json:"plan_type"`
	Price        decimal.Decimal    `db:"price" json:"price"`
	BillingCycle types.BillingCycle `db:"billing_cycle" json:"billing_cycle"`
	MaxStudents  int                `db:"max_students" json:"max_students"`
	MaxTeachers  int                `db:"max_teachers" json:"max_teachers"`
	StorageGB    int                `db:"storage_gb" json:"storage_gb"`
	Active       bool               `db:"active" json:"active"`

	types.BaseModel
}

// YearlyEquivalent normalizes the plan price to an annual figure based on
// the billing cycle. Pure derivation, no side effects.
func (p *Plan) YearlyEquivalent() decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(p.BillingCycle.PeriodsPerYear()))
}

// Validate validates the plan
func (p *Plan) Validate() error {
	if p.Name == "" {
		return ierr.NewError("plan name is required").
			WithHint("Plan name cannot be empty").
			Mark(ierr.ErrValidation)
	}
	if err := p.PlanType.Validate(); err != nil {
		return err
	}
	if err := p.BillingCycle.Validate(); err != nil {
		return err
	}
	if p.Price.IsNegative() {
		return ierr.NewError("plan price must be non negative").
			WithHint("Price cannot be negative").
			WithReportableDetails(map[string]any{
				"price": p.Price.String(),
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
