package dto

import (
	"context"

	"github.com/feebridge/feebridge/internal/domain/plan"
	ierr "github.com/feebridge/feebridge/internal/errors"
	"github.com/feebridge/feebridge/internal/types"
	"github.com/feebridge/feebridge/internal/validator"
	"github.com/shopspring/decimal"
)

type CreatePlanRequest struct {
	Name         string             `json:"name" validate:"required,max=255"`
	Description  string             `json:"description" validate:"max=1024"`
	PlanType     types.PlanType     `json:"plan_type" validate:"required"`
	Price        decimal.Decimal    `json:"price" validate:"required"`
	BillingCycle types.BillingCycle `json:"billing_cycle" validate:"required"`
	MaxStudents  int                `json:"max_students" validate:"gte=0"`
	MaxTeachers  int                `json:"max_teachers" validate:"gte=0"`
	StorageGB    int                `json:"storage_gb" validate:"gte=0"`
}

func (r *CreatePlanRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if err := r.PlanType.Validate(); err != nil {
		return err
	}
	if err := r.BillingCycle.Validate(); err != nil {
		return err
	}
	if r.Price.IsNegative() {
		return ierr.NewError("price must not be negative").
			WithHint("Please provide a non-negative price").
			WithReportableDetails(map[string]any{"price": r.Price}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

func (r *CreatePlanRequest) ToPlan(ctx context.Context) *plan.Plan {
	return &plan.Plan{
		ID:           types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PLAN),
		Name:         r.Name,
		Description:  r.Description,
		PlanType:     r.PlanType,
		Price:        r.Price,
		BillingCycle: r.BillingCycle,
		MaxStudents:  r.MaxStudents,
		MaxTeachers:  r.MaxTeachers,
		StorageGB:    r.StorageGB,
		Active:       true,
		BaseModel:    types.GetDefaultBaseModel(ctx),
	}
}

type UpdatePlanRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,max=255"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1024"`
	MaxStudents *int    `json:"max_students,omitempty" validate:"omitempty,gte=0"`
	MaxTeachers *int    `json:"max_teachers,omitempty" validate:"omitempty,gte=0"`
	StorageGB   *int    `json:"storage_gb,omitempty" validate:"omitempty,gte=0"`
	Active      *bool   `json:"active,omitempty"`
}

func (r *UpdatePlanRequest) Validate() error {
	return validator.ValidateRequest(r)
}

type PlanResponse struct {
	*plan.Plan
	YearlyPrice decimal.Decimal `json:"yearly_price"`
}

func NewPlanResponse(p *plan.Plan) *PlanResponse {
	return &PlanResponse{
		Plan:        p,
		YearlyPrice: p.YearlyEquivalent(),
	}
}

// ListPlansResponse represents a paginated list of plans
type ListPlansResponse = types.ListResponse[*PlanResponse]
