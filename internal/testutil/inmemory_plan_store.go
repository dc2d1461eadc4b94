package testutil

import (
	"context"

	"github.com/feebridge/feebridge/internal/domain/plan"
	ierr "github.com/feebridge/feebridge/internal/errors"
	"github.com/feebridge/feebridge/internal/types"
)

// InMemoryPlanStore implements plan.Repository
type InMemoryPlanStore struct {
	*InMemoryStore[*plan.Plan]
}

// NewInMemoryPlanStore creates a new in-memory plan store
func NewInMemoryPlanStore() *InMemoryPlanStore {
	return &InMemoryPlanStore{
		InMemoryStore: NewInMemoryStore[*plan.Plan](),
	}
}

// planFilterFn implements filtering logic for plans
func planFilterFn(ctx context.Context, p *plan.Plan, filter interface{}) bool {
	if p == nil {
		return false
	}

	if tenantID, ok := ctx.Value(types.CtxTenantID).(string); ok {
		if p.TenantID != tenantID {
			return false
		}
	}
	if p.Status != types.StatusPublished {
		return false
	}

	f, ok := filter.(*types.PlanFilter)
	if !ok || f == nil {
		return true
	}

	if f.PlanType != nil && p.PlanType != *f.PlanType {
		return false
	}
	if f.Cycle != nil && p.BillingCycle != *f.Cycle {
		return false
	}
	if f.ActiveOnly && !p.Active {
		return false
	}
	return true
}

// planSortFn sorts plans by price ascending, the listing order callers see
func planSortFn(i, j *plan.Plan) bool {
	if i == nil || j == nil {
		return false
	}
	return i.Price.LessThan(j.Price)
}

func (s *InMemoryPlanStore) Create(ctx context.Context, p *plan.Plan) error {
	if p == nil {
		return ierr.NewError("plan cannot be nil").
			WithHint("Plan data is required").
			Mark(ierr.ErrValidation)
	}

	if existing, err := s.GetByName(ctx, p.Name); err == nil && existing != nil {
		return ierr.NewError("plan already exists").
			WithHint("A plan with this name already exists").
			WithReportableDetails(map[string]any{"name": p.Name}).
			Mark(ierr.ErrAlreadyExists)
	}

	return s.InMemoryStore.Create(ctx, p.ID, p)
}

func (s *InMemoryPlanStore) Get(ctx context.Context, id string) (*plan.Plan, error) {
	p, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.TenantID != types.GetTenantID(ctx) || p.Status != types.StatusPublished {
		return nil, ierr.NewError("plan not found").
			WithHint("The requested plan does not exist").
			WithReportableDetails(map[string]any{"plan_id": id}).
			Mark(ierr.ErrNotFound)
	}
	return p, nil
}

func (s *InMemoryPlanStore) GetByName(ctx context.Context, name string) (*plan.Plan, error) {
	plans, err := s.InMemoryStore.List(ctx, nil, planFilterFn, nil)
	if err != nil {
		return nil, err
	}
	for _, p := range plans {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, ierr.NewError("plan not found").
		WithHint("No plan exists with this name").
		WithReportableDetails(map[string]any{"name": name}).
		Mark(ierr.ErrNotFound)
}

func (s *InMemoryPlanStore) Update(ctx context.Context, p *plan.Plan) error {
	if p == nil {
		return ierr.NewError("plan cannot be nil").
			WithHint("Plan data is required").
			Mark(ierr.ErrValidation)
	}
	return s.InMemoryStore.Update(ctx, p.ID, p)
}

func (s *InMemoryPlanStore) List(ctx context.Context, filter *types.PlanFilter) ([]*plan.Plan, error) {
	return s.InMemoryStore.List(ctx, filter, planFilterFn, planSortFn)
}

func (s *InMemoryPlanStore) Count(ctx context.Context, filter *types.PlanFilter) (int, error) {
	return s.InMemoryStore.Count(ctx, filter, planFilterFn)
}
