package testutil

import (
	"context"

	"github.com/feebridge/feebridge/internal/domain/fee"
	ierr "github.com/feebridge/feebridge/internal/errors"
	"github.com/feebridge/feebridge/internal/types"
)

// InMemoryFeeStore implements fee.Repository
type InMemoryFeeStore struct {
	*InMemoryStore[*fee.Fee]
}

// NewInMemoryFeeStore creates a new in-memory fee store
func NewInMemoryFeeStore() *InMemoryFeeStore {
	return &InMemoryFeeStore{
		InMemoryStore: NewInMemoryStore[*fee.Fee](),
	}
}

func feeFilterFn(ctx context.Context, f *fee.Fee, filter interface{}) bool {
	if f == nil {
		return false
	}

	if tenantID, ok := ctx.Value(types.CtxTenantID).(string); ok {
		if f.TenantID != tenantID {
			return false
		}
	}
	if f.Status != types.StatusPublished {
		return false
	}

	ff, ok := filter.(*types.FeeFilter)
	if !ok || ff == nil {
		return true
	}

	if ff.FeeType != nil && f.FeeType != *ff.FeeType {
		return false
	}
	if ff.RecurringOnly && !f.IsRecurring {
		return false
	}
	return true
}

func feeSortFn(i, j *fee.Fee) bool {
	if i == nil || j == nil {
		return false
	}
	return i.Name < j.Name
}

func (s *InMemoryFeeStore) Create(ctx context.Context, f *fee.Fee) error {
	if f == nil {
		return ierr.NewError("fee cannot be nil").
			WithHint("Fee data is required").
			Mark(ierr.ErrValidation)
	}

	if existing, err := s.GetByName(ctx, f.Name); err == nil && existing != nil {
		return ierr.NewError("fee already exists").
			WithHint("A fee with this name already exists").
			WithReportableDetails(map[string]any{"name": f.Name}).
			Mark(ierr.ErrAlreadyExists)
	}

	return s.InMemoryStore.Create(ctx, f.ID, f)
}

func (s *InMemoryFeeStore) Get(ctx context.Context, id string) (*fee.Fee, error) {
	f, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if f.TenantID != types.GetTenantID(ctx) || f.Status != types.StatusPublished {
		return nil, ierr.NewError("fee not found").
			WithHint("The requested fee does not exist").
			WithReportableDetails(map[string]any{"fee_id": id}).
			Mark(ierr.ErrNotFound)
	}
	return f, nil
}

func (s *InMemoryFeeStore) GetByName(ctx context.Context, name string) (*fee.Fee, error) {
	fees, err := s.InMemoryStore.List(ctx, nil, feeFilterFn, nil)
	if err != nil {
		return nil, err
	}
	for _, f := range fees {
		if f.Name == name {
			return f, nil
		}
	}
	return nil, ierr.NewError("fee not found").
		WithHint("No fee exists with this name").
		WithReportableDetails(map[string]any{"name": name}).
		Mark(ierr.ErrNotFound)
}

func (s *InMemoryFeeStore) List(ctx context.Context, filter *types.FeeFilter) ([]*fee.Fee, error) {
	return s.InMemoryStore.List(ctx, filter, feeFilterFn, feeSortFn)
}

func (s *InMemoryFeeStore) Count(ctx context.Context, filter *types.FeeFilter) (int, error) {
	return s.InMemoryStore.Count(ctx, filter, feeFilterFn)
}
