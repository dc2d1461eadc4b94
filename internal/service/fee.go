package service

import (
	"context"

	"github.com/feebridge/feebridge/internal/api/dto"
	"github.com/feebridge/feebridge/internal/domain/fee"
	ierr "github.com/feebridge/feebridge/internal/errors"
	"github.com/feebridge/feebridge/internal/types"
	"github.com/samber/lo"
)

type FeeService interface {
	CreateFee(ctx context.Context, req dto.CreateFeeRequest) (*dto.FeeResponse, error)
	GetFee(ctx context.Context, id string) (*dto.FeeResponse, error)
	GetFees(ctx context.Context, filter *types.FeeFilter) (*dto.ListFeesResponse, error)
}

type feeService struct {
	ServiceParams
}

func NewFeeService(params ServiceParams) FeeService {
	return &feeService{ServiceParams: params}
}

func (s *feeService) CreateFee(ctx context.Context, req dto.CreateFeeRequest) (*dto.FeeResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if existing, err := s.FeeRepo.GetByName(ctx, req.Name); err == nil && existing != nil {
		return nil, ierr.NewError("fee with this name already exists").
			WithHintf("A fee named %s already exists", req.Name).
			WithReportableDetails(map[string]any{"name": req.Name}).
			Mark(ierr.ErrAlreadyExists)
	} else if err != nil && !ierr.IsNotFound(err) {
		return nil, err
	}

	f := req.ToFee(ctx)
	if err := f.Validate(); err != nil {
		return nil, err
	}

	if err := s.FeeRepo.Create(ctx, f); err != nil {
		return nil, err
	}

	s.Logger.Infow("created fee",
		"fee_id", f.ID,
		"name", f.Name,
		"fee_type", f.FeeType,
		"is_recurring", f.IsRecurring)

	return dto.NewFeeResponse(f), nil
}

func (s *feeService) GetFee(ctx context.Context, id string) (*dto.FeeResponse, error) {
	if id == "" {
		return nil, ierr.NewError("fee id is required").
			WithHint("Please provide a fee ID").
			Mark(ierr.ErrValidation)
	}

	f, err := s.FeeRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewFeeResponse(f), nil
}

func (s *feeService) GetFees(ctx context.Context, filter *types.FeeFilter) (*dto.ListFeesResponse, error) {
	if filter == nil {
		filter = &types.FeeFilter{QueryFilter: types.NewDefaultQueryFilter()}
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	fees, err := s.FeeRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	count, err := s.FeeRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := lo.Map(fees, func(f *fee.Fee, _ int) *dto.FeeResponse {
		return dto.NewFeeResponse(f)
	})

	response := types.NewListResponse(items, count, filter.GetLimit(), filter.GetOffset())
	return &response, nil
}
