package service

import (
	"context"

	"github.com/feebridge/feebridge/internal/api/dto"
	"github.com/feebridge/feebridge/internal/domain/plan"
	ierr "github.com/feebridge/feebridge/internal/errors"
	"github.com/feebridge/feebridge/internal/types"
	"github.com/samber/lo"
)

type PlanService interface {
	CreatePlan(ctx context.Context, req dto.CreatePlanRequest) (*dto.PlanResponse, error)
	GetPlan(ctx context.Context, id string) (*dto.PlanResponse, error)
	GetPlans(ctx context.Context, filter *types.PlanFilter) (*dto.ListPlansResponse, error)
	GetActivePlans(ctx context.Context) (*dto.ListPlansResponse, error)
	UpdatePlan(ctx context.Context, id string, req dto.UpdatePlanRequest) (*dto.PlanResponse, error)
	DeactivatePlan(ctx context.Context, id string) error
}

type planService struct {
	ServiceParams
}

func NewPlanService(params ServiceParams) PlanService {
	return &planService{ServiceParams: params}
}

func (s *planService) CreatePlan(ctx context.Context, req dto.CreatePlanRequest) (*dto.PlanResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if existing, err := s.PlanRepo.GetByName(ctx, req.Name); err == nil && existing != nil {
		return nil, ierr.NewError("plan with this name already exists").
			WithHintf("A plan named %s already exists", req.Name).
			WithReportableDetails(map[string]any{"name": req.Name}).
			Mark(ierr.ErrAlreadyExists)
	} else if err != nil && !ierr.IsNotFound(err) {
		return nil, err
	}

	p := req.ToPlan(ctx)
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if err := s.PlanRepo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.Logger.Infow("created plan",
		"plan_id", p.ID,
		"name", p.Name,
		"plan_type", p.PlanType,
		"billing_cycle", p.BillingCycle)

	return dto.NewPlanResponse(p), nil
}

func (s *planService) GetPlan(ctx context.Context, id string) (*dto.PlanResponse, error) {
	if id == "" {
		return nil, ierr.NewError("plan id is required").
			WithHint("Please provide a plan ID").
			Mark(ierr.ErrValidation)
	}

	p, err := s.PlanRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewPlanResponse(p), nil
}

func (s *planService) GetPlans(ctx context.Context, filter *types.PlanFilter) (*dto.ListPlansResponse, error) {
	if filter == nil {
		filter = &types.PlanFilter{QueryFilter: types.NewDefaultQueryFilter()}
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	plans, err := s.PlanRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	count, err := s.PlanRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := lo.Map(plans, func(p *plan.Plan, _ int) *dto.PlanResponse {
		return dto.NewPlanResponse(p)
	})

	response := types.NewListResponse(items, count, filter.GetLimit(), filter.GetOffset())
	return &response, nil
}

// GetActivePlans lists purchasable plans ordered by price ascending, the
// order pricing pages consume them in.
func (s *planService) GetActivePlans(ctx context.Context) (*dto.ListPlansResponse, error) {
	filter := types.NewNoLimitPlanFilter()
	filter.ActiveOnly = true
	return s.GetPlans(ctx, filter)
}

func (s *planService) UpdatePlan(ctx context.Context, id string, req dto.UpdatePlanRequest) (*dto.PlanResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p, err := s.PlanRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.MaxStudents != nil {
		p.MaxStudents = *req.MaxStudents
	}
	if req.MaxTeachers != nil {
		p.MaxTeachers = *req.MaxTeachers
	}
	if req.StorageGB != nil {
		p.StorageGB = *req.StorageGB
	}
	if req.Active != nil {
		p.Active = *req.Active
	}
	p.UpdatedBy = types.GetUserID(ctx)

	if err := s.PlanRepo.Update(ctx, p); err != nil {
		return nil, err
	}
	return dto.NewPlanResponse(p), nil
}

// DeactivatePlan takes a plan off sale. Existing subscriptions keep
// referencing it.
func (s *planService) DeactivatePlan(ctx context.Context, id string) error {
	p, err := s.PlanRepo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !p.Active {
		return nil
	}
	p.Active = false
	p.UpdatedBy = types.GetUserID(ctx)
	return s.PlanRepo.Update(ctx, p)
}
