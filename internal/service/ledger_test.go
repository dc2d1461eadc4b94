package service

import (
	"testing"

	"github.com/feebridge/feebridge/internal/api/dto"
	"github.com/feebridge/feebridge/internal/testutil"
	"github.com/feebridge/feebridge/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type LedgerServiceSuite struct {
	testutil.BaseServiceTestSuite
	service LedgerService
}

func TestLedgerService(t *testing.T) {
	suite.Run(t, new(LedgerServiceSuite))
}

func (s *LedgerServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewLedgerService(ServiceParams{
		Logger:           s.GetLogger(),
		Config:           s.GetConfig(),
		DB:               s.GetDB(),
		InvoiceRepo:      s.GetStores().InvoiceRepo,
		LedgerRepo:       s.GetStores().LedgerRepo,
		SettingsRepo:     s.GetStores().SettingsRepo,
		TenantRepo:       s.GetStores().TenantRepo,
		WebhookPublisher: s.GetWebhookPublisher(),
		IdempGen:         s.GetIdempotencyGenerator(),
	})
}

func (s *LedgerServiceSuite) append(txnType types.TransactionType, amount int64, description string) *dto.TransactionResponse {
	resp, err := s.service.AppendTransaction(s.GetContext(), dto.AppendTransactionRequest{
		TransactionType: txnType,
		Amount:          decimal.NewFromInt(amount),
		Description:     description,
	}, s.GetNow())
	s.Require().NoError(err)
	return resp
}

func (s *LedgerServiceSuite) TestAppendTransaction() {
	resp := s.append(types.TransactionTypeExpense, 120, "bus maintenance")
	s.NotEmpty(resp.TransactionNumber)
	s.Equal("120", resp.Amount.String())
	s.Equal("-120", resp.SignedAmount.String())

	got, err := s.service.GetTransaction(s.GetContext(), resp.ID)
	s.NoError(err)
	s.Equal(resp.ID, got.ID)
}

func (s *LedgerServiceSuite) TestAppendTransactionValidation() {
	testCases := []struct {
		name string
		req  dto.AppendTransactionRequest
	}{
		{"zero_amount", dto.AppendTransactionRequest{
			TransactionType: types.TransactionTypeExpense,
			Amount:          decimal.Zero,
			Description:     "x",
		}},
		{"bad_type", dto.AppendTransactionRequest{
			TransactionType: "TRANSFER",
			Amount:          decimal.NewFromInt(10),
			Description:     "x",
		}},
		{"missing_description", dto.AppendTransactionRequest{
			TransactionType: types.TransactionTypeExpense,
			Amount:          decimal.NewFromInt(10),
		}},
		{"unknown_invoice", dto.AppendTransactionRequest{
			TransactionType: types.TransactionTypeExpense,
			Amount:          decimal.NewFromInt(10),
			Description:     "x",
			InvoiceID:       lo.ToPtr("inv_missing"),
		}},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			resp, err := s.service.AppendTransaction(s.GetContext(), tc.req, s.GetNow())
			s.Error(err)
			s.Nil(resp)
		})
	}
}

func (s *LedgerServiceSuite) TestBalance() {
	s.append(types.TransactionTypeIncome, 1000, "tuition collected")
	s.append(types.TransactionTypeExpense, 300, "salaries")
	s.append(types.TransactionTypeRefund, 50, "withdrawn student")
	s.append(types.TransactionTypeAdjustment, 25, "rounding correction")

	resp, err := s.service.Balance(s.GetContext(), nil)
	s.NoError(err)
	// 1000 - 300 - 50 + 25
	s.Equal("675", resp.Balance.String())
}

func (s *LedgerServiceSuite) TestBalanceFilteredByType() {
	s.append(types.TransactionTypeIncome, 1000, "tuition collected")
	s.append(types.TransactionTypeExpense, 300, "salaries")

	resp, err := s.service.Balance(s.GetContext(), &types.TransactionFilter{
		TransactionType: lo.ToPtr(types.TransactionTypeExpense),
	})
	s.NoError(err)
	s.Equal("-300", resp.Balance.String())
}

func (s *LedgerServiceSuite) TestBalanceWindowed() {
	s.append(types.TransactionTypeIncome, 1000, "tuition collected")

	start := s.GetNow().AddDate(0, 0, 1)
	end := s.GetNow().AddDate(0, 0, 2)
	resp, err := s.service.Balance(s.GetContext(), &types.TransactionFilter{
		TimeRangeFilter: &types.TimeRangeFilter{StartTime: &start, EndTime: &end},
	})
	s.NoError(err)
	s.True(resp.Balance.IsZero())
	s.NotNil(resp.StartTime)
	s.NotNil(resp.EndTime)
}

func (s *LedgerServiceSuite) TestGetTransactionsPagination() {
	for i := 0; i < 5; i++ {
		s.append(types.TransactionTypeIncome, 100, "tuition collected")
	}

	filter := &types.TransactionFilter{QueryFilter: types.NewDefaultQueryFilter()}
	filter.Limit = lo.ToPtr(2)
	resp, err := s.service.GetTransactions(s.GetContext(), filter)
	s.NoError(err)
	s.Len(resp.Items, 2)
	s.Equal(5, resp.Pagination.Total)
	s.Equal(2, resp.Pagination.Limit)
}
