package service

import (
	"context"
	"time"

	"github.com/feebridge/feebridge/internal/api/dto"
	"github.com/feebridge/feebridge/internal/domain/ledger"
	ierr "github.com/feebridge/feebridge/internal/errors"
	"github.com/feebridge/feebridge/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type LedgerService interface {
	AppendTransaction(ctx context.Context, req dto.AppendTransactionRequest, now time.Time) (*dto.TransactionResponse, error)
	GetTransaction(ctx context.Context, id string) (*dto.TransactionResponse, error)
	GetTransactions(ctx context.Context, filter *types.TransactionFilter) (*dto.ListTransactionsResponse, error)

	// Balance returns the signed sum of every ledger entry matching the
	// filter. Income and adjustments add, expenses and refunds subtract.
	Balance(ctx context.Context, filter *types.TransactionFilter) (*dto.BalanceResponse, error)
}

type ledgerService struct {
	ServiceParams
}

func NewLedgerService(params ServiceParams) LedgerService {
	return &ledgerService{ServiceParams: params}
}

func (s *ledgerService) AppendTransaction(ctx context.Context, req dto.AppendTransactionRequest, now time.Time) (*dto.TransactionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if req.InvoiceID != nil {
		if _, err := s.InvoiceRepo.Get(ctx, *req.InvoiceID); err != nil {
			return nil, err
		}
	}

	t := req.ToTransaction(ctx, now)
	if err := t.Validate(); err != nil {
		return nil, err
	}

	if err := s.LedgerRepo.Create(ctx, t); err != nil {
		return nil, err
	}

	s.Logger.Infow("appended ledger transaction",
		"transaction_id", t.ID,
		"transaction_number", t.TransactionNumber,
		"transaction_type", t.TransactionType,
		"amount", t.Amount)

	return dto.NewTransactionResponse(t), nil
}

func (s *ledgerService) GetTransaction(ctx context.Context, id string) (*dto.TransactionResponse, error) {
	if id == "" {
		return nil, ierr.NewError("transaction id is required").
			WithHint("Please provide a transaction ID").
			Mark(ierr.ErrValidation)
	}

	t, err := s.LedgerRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewTransactionResponse(t), nil
}

func (s *ledgerService) GetTransactions(ctx context.Context, filter *types.TransactionFilter) (*dto.ListTransactionsResponse, error) {
	if filter == nil {
		filter = &types.TransactionFilter{QueryFilter: types.NewDefaultQueryFilter()}
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	transactions, err := s.LedgerRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	count, err := s.LedgerRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := lo.Map(transactions, func(t *ledger.Transaction, _ int) *dto.TransactionResponse {
		return dto.NewTransactionResponse(t)
	})

	response := types.NewListResponse(items, count, filter.GetLimit(), filter.GetOffset())
	return &response, nil
}

func (s *ledgerService) Balance(ctx context.Context, filter *types.TransactionFilter) (*dto.BalanceResponse, error) {
	if filter == nil {
		filter = types.NewNoLimitTransactionFilter()
	} else {
		filter.QueryFilter = types.NewNoLimitQueryFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	transactions, err := s.LedgerRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	balance := decimal.Zero
	for _, t := range transactions {
		balance = balance.Add(t.SignedAmount())
	}

	resp := &dto.BalanceResponse{Balance: balance}
	if filter.TimeRangeFilter != nil {
		resp.StartTime = filter.StartTime
		resp.EndTime = filter.EndTime
	}
	return resp, nil
}
