package service

import (
	"sync"
	"testing"

	"github.com/feebridge/feebridge/internal/api/dto"
	"github.com/feebridge/feebridge/internal/domain/fee"
	"github.com/feebridge/feebridge/internal/domain/ledger"
	"github.com/feebridge/feebridge/internal/domain/settings"
	ierr "github.com/feebridge/feebridge/internal/errors"
	"github.com/feebridge/feebridge/internal/testutil"
	"github.com/feebridge/feebridge/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type PaymentServiceSuite struct {
	testutil.BaseServiceTestSuite
	service    PaymentService
	invoiceSvc InvoiceService
	testData   struct {
		tuition *fee.Fee
		invoice *dto.InvoiceResponse
	}
}

func TestPaymentService(t *testing.T) {
	suite.Run(t, new(PaymentServiceSuite))
}

func (s *PaymentServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.setupService()
	s.setupTestData()
}

func (s *PaymentServiceSuite) serviceParams() ServiceParams {
	return ServiceParams{
		Logger:           s.GetLogger(),
		Config:           s.GetConfig(),
		DB:               s.GetDB(),
		PlanRepo:         s.GetStores().PlanRepo,
		FeeRepo:          s.GetStores().FeeRepo,
		SubRepo:          s.GetStores().SubRepo,
		InvoiceRepo:      s.GetStores().InvoiceRepo,
		PaymentRepo:      s.GetStores().PaymentRepo,
		LedgerRepo:       s.GetStores().LedgerRepo,
		SettingsRepo:     s.GetStores().SettingsRepo,
		TenantRepo:       s.GetStores().TenantRepo,
		Gateway:          s.GetGateway(),
		WebhookPublisher: s.GetWebhookPublisher(),
		IdempGen:         s.GetIdempotencyGenerator(),
	}
}

func (s *PaymentServiceSuite) setupService() {
	params := s.serviceParams()
	s.service = NewPaymentService(params)
	s.invoiceSvc = NewInvoiceService(params)
}

// setupTestData seeds a tuition fee and an issued 650 invoice payments
// can land on.
func (s *PaymentServiceSuite) setupTestData() {
	s.testData.tuition = &fee.Fee{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_FEE),
		Name:      "Tuition",
		FeeType:   types.FeeTypeTuition,
		Amount:    decimal.NewFromInt(650),
		Active:    true,
		BaseModel: types.GetDefaultBaseModel(s.GetContext()),
	}
	s.Require().NoError(s.GetStores().FeeRepo.Create(s.GetContext(), s.testData.tuition))

	created, err := s.invoiceSvc.CreateInvoice(s.GetContext(), dto.CreateInvoiceRequest{
		StudentID: "student_1",
		DueDate:   s.GetNow().AddDate(0, 0, 14),
		LineItems: []dto.CreateInvoiceLineRequest{
			{FeeID: s.testData.tuition.ID, Quantity: decimal.NewFromInt(1)},
		},
	}, s.GetNow())
	s.Require().NoError(err)

	s.testData.invoice, err = s.invoiceSvc.IssueInvoice(s.GetContext(), created.ID, s.GetNow())
	s.Require().NoError(err)
}

func (s *PaymentServiceSuite) enableGateway() {
	cfg := &settings.BillingSettings{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BILLING_SETTINGS),
		Currency:        "USD",
		TaxRate:         decimal.Zero,
		GracePeriodDays: 7,
		GatewayEnabled:  true,
		BaseModel:       types.GetDefaultBaseModel(s.GetContext()),
	}
	s.Require().NoError(s.GetStores().SettingsRepo.Create(s.GetContext(), cfg))
}

func (s *PaymentServiceSuite) recordPayment(amount int64, method types.PaymentMethod) *dto.PaymentResponse {
	resp, err := s.service.RecordPayment(s.GetContext(), dto.RecordPaymentRequest{
		InvoiceID:     s.testData.invoice.ID,
		Amount:        decimal.NewFromInt(amount),
		PaymentMethod: method,
		PaidBy:        "parent_1",
	}, s.GetNow())
	s.Require().NoError(err)
	return resp
}

func (s *PaymentServiceSuite) TestRecordPayment() {
	resp := s.recordPayment(650, types.PaymentMethodCash)
	s.Equal(types.PaymentStatusPending, resp.PaymentStatus)
	s.Equal(s.testData.invoice.ID, resp.InvoiceID)
	s.NotEmpty(resp.PaymentNumber)
	s.Equal(1, resp.Version)
}

func (s *PaymentServiceSuite) TestRecordPaymentRejectsDraftInvoice() {
	draft, err := s.invoiceSvc.CreateInvoice(s.GetContext(), dto.CreateInvoiceRequest{
		StudentID: "student_2",
		DueDate:   s.GetNow().AddDate(0, 0, 14),
		LineItems: []dto.CreateInvoiceLineRequest{
			{FeeID: s.testData.tuition.ID, Quantity: decimal.NewFromInt(1)},
		},
	}, s.GetNow())
	s.Require().NoError(err)

	_, err = s.service.RecordPayment(s.GetContext(), dto.RecordPaymentRequest{
		InvoiceID:     draft.ID,
		Amount:        decimal.NewFromInt(100),
		PaymentMethod: types.PaymentMethodCash,
		PaidBy:        "parent_1",
	}, s.GetNow())
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *PaymentServiceSuite) TestRecordPaymentValidation() {
	testCases := []struct {
		name string
		req  dto.RecordPaymentRequest
	}{
		{"zero_amount", dto.RecordPaymentRequest{
			InvoiceID: "inv_x", Amount: decimal.Zero,
			PaymentMethod: types.PaymentMethodCash, PaidBy: "parent_1",
		}},
		{"bad_method", dto.RecordPaymentRequest{
			InvoiceID: "inv_x", Amount: decimal.NewFromInt(10),
			PaymentMethod: "BARTER", PaidBy: "parent_1",
		}},
		{"missing_paid_by", dto.RecordPaymentRequest{
			InvoiceID: "inv_x", Amount: decimal.NewFromInt(10),
			PaymentMethod: types.PaymentMethodCash,
		}},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			resp, err := s.service.RecordPayment(s.GetContext(), tc.req, s.GetNow())
			s.Error(err)
			s.Nil(resp)
		})
	}
}

func (s *PaymentServiceSuite) TestProcessManualPayment() {
	p := s.recordPayment(250, types.PaymentMethodCash)

	resp, err := s.service.ProcessPayment(s.GetContext(), p.ID, s.GetNow())
	s.NoError(err)
	s.Equal(types.PaymentStatusCompleted, resp.PaymentStatus)
	s.NotNil(resp.ProcessedDate)

	// exactly one income row lands in the ledger
	txns, err := s.GetStores().LedgerRepo.ListByPayment(s.GetContext(), p.ID)
	s.NoError(err)
	s.Require().Len(txns, 1)
	s.Equal(types.TransactionTypeIncome, txns[0].TransactionType)
	s.Equal("250", txns[0].Amount.String())

	// a partial payment moves the invoice along
	inv, err := s.invoiceSvc.GetInvoice(s.GetContext(), s.testData.invoice.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusPartiallyPaid, inv.InvoiceStatus)
	s.Equal("250", inv.AmountPaid.String())
	s.Equal("400", inv.AmountDue.String())
}

func (s *PaymentServiceSuite) TestPayingInFullMarksInvoicePaid() {
	first := s.recordPayment(250, types.PaymentMethodCash)
	_, err := s.service.ProcessPayment(s.GetContext(), first.ID, s.GetNow())
	s.NoError(err)

	second := s.recordPayment(400, types.PaymentMethodBankTransfer)
	_, err = s.service.ProcessPayment(s.GetContext(), second.ID, s.GetNow())
	s.NoError(err)

	inv, err := s.invoiceSvc.GetInvoice(s.GetContext(), s.testData.invoice.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusPaid, inv.InvoiceStatus)
	s.NotNil(inv.PaidDate)
	s.True(inv.AmountDue.IsZero())
}

func (s *PaymentServiceSuite) TestCancelPartiallyPaidInvoice() {
	p := s.recordPayment(80, types.PaymentMethodCash)
	_, err := s.service.ProcessPayment(s.GetContext(), p.ID, s.GetNow())
	s.NoError(err)

	inv, err := s.invoiceSvc.GetInvoice(s.GetContext(), s.testData.invoice.ID)
	s.NoError(err)
	s.Require().Equal(types.InvoiceStatusPartiallyPaid, inv.InvoiceStatus)

	// partial payment does not block cancellation
	cancelled, err := s.invoiceSvc.CancelInvoice(s.GetContext(), s.testData.invoice.ID, s.GetNow())
	s.NoError(err)
	s.Equal(types.InvoiceStatusCancelled, cancelled.InvoiceStatus)

	// the income row stays on the ledger for the refund path
	txns, err := s.GetStores().LedgerRepo.ListByPayment(s.GetContext(), p.ID)
	s.NoError(err)
	s.Len(txns, 1)
}

func (s *PaymentServiceSuite) TestCancelPaidInvoiceRejected() {
	p := s.recordPayment(650, types.PaymentMethodCash)
	_, err := s.service.ProcessPayment(s.GetContext(), p.ID, s.GetNow())
	s.NoError(err)

	_, err = s.invoiceSvc.CancelInvoice(s.GetContext(), s.testData.invoice.ID, s.GetNow())
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *PaymentServiceSuite) TestOverpaymentForcesInvoicePaid() {
	first := s.recordPayment(400, types.PaymentMethodCash)
	_, err := s.service.ProcessPayment(s.GetContext(), first.ID, s.GetNow())
	s.NoError(err)

	second := s.recordPayment(400, types.PaymentMethodBankTransfer)
	_, err = s.service.ProcessPayment(s.GetContext(), second.ID, s.GetNow())
	s.NoError(err)

	inv, err := s.invoiceSvc.GetInvoice(s.GetContext(), s.testData.invoice.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusPaid, inv.InvoiceStatus)
	s.NotNil(inv.PaidDate)
	s.Equal("800", inv.AmountPaid.String())
	s.Equal("-150", inv.AmountDue.String())
}

func (s *PaymentServiceSuite) TestConcurrentCompletionWritesOneLedgerRow() {
	p := s.recordPayment(650, types.PaymentMethodCash)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := 0; i < len(errs); i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.service.CompletePayment(s.GetContext(), p.ID, s.GetNow())
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		s.NoError(err)
	}

	txns, err := s.GetStores().LedgerRepo.ListByPayment(s.GetContext(), p.ID)
	s.NoError(err)
	s.Len(txns, 1)

	stored, err := s.GetStores().PaymentRepo.Get(s.GetContext(), p.ID)
	s.NoError(err)
	s.Equal(types.PaymentStatusCompleted, stored.PaymentStatus)
}

func (s *PaymentServiceSuite) TestGatewayCharge() {
	s.enableGateway()
	p := s.recordPayment(650, types.PaymentMethodCard)

	resp, err := s.service.ProcessPayment(s.GetContext(), p.ID, s.GetNow())
	s.NoError(err)
	s.Equal(types.PaymentStatusCompleted, resp.PaymentStatus)

	stored, err := s.GetStores().PaymentRepo.Get(s.GetContext(), p.ID)
	s.NoError(err)
	s.Require().NotNil(stored.GatewayTxnID)
	s.Equal("gw_"+p.ID, *stored.GatewayTxnID)

	s.Require().Len(s.GetGateway().Charges(), 1)
	s.Equal("USD", s.GetGateway().Charges()[0].Currency)
}

func (s *PaymentServiceSuite) TestGatewayDecline() {
	s.enableGateway()
	s.GetGateway().DeclineNext = true
	p := s.recordPayment(650, types.PaymentMethodCard)

	resp, err := s.service.ProcessPayment(s.GetContext(), p.ID, s.GetNow())
	s.NoError(err)
	s.Equal(types.PaymentStatusFailed, resp.PaymentStatus)
	s.Require().NotNil(resp.FailureReason)
	s.Contains(*resp.FailureReason, "declined")

	// a declined charge never reaches the ledger
	txns, err := s.GetStores().LedgerRepo.ListByPayment(s.GetContext(), p.ID)
	s.NoError(err)
	s.Empty(txns)
}

func (s *PaymentServiceSuite) TestGatewayTimeoutLeavesPaymentProcessing() {
	s.enableGateway()
	s.GetGateway().Hang = true
	p := s.recordPayment(650, types.PaymentMethodMobileMoney)

	_, err := s.service.ProcessPayment(s.GetContext(), p.ID, s.GetNow())
	s.Error(err)
	s.True(ierr.IsGateway(err))

	// outcome unknown: the payment is parked for reconciliation
	stored, err := s.GetStores().PaymentRepo.Get(s.GetContext(), p.ID)
	s.NoError(err)
	s.Equal(types.PaymentStatusProcessing, stored.PaymentStatus)

	txns, err := s.GetStores().LedgerRepo.ListByPayment(s.GetContext(), p.ID)
	s.NoError(err)
	s.Empty(txns)
}

func (s *PaymentServiceSuite) TestGatewayDisabledFailsCardPayment() {
	p := s.recordPayment(650, types.PaymentMethodCard)

	resp, err := s.service.ProcessPayment(s.GetContext(), p.ID, s.GetNow())
	s.NoError(err)
	s.Equal(types.PaymentStatusFailed, resp.PaymentStatus)
	s.NotNil(resp.FailureReason)
}

func (s *PaymentServiceSuite) TestRefundPayment() {
	p := s.recordPayment(650, types.PaymentMethodCash)
	_, err := s.service.ProcessPayment(s.GetContext(), p.ID, s.GetNow())
	s.NoError(err)

	resp, err := s.service.RefundPayment(s.GetContext(), p.ID,
		dto.RefundPaymentRequest{Reason: "student withdrew"}, s.GetNow())
	s.NoError(err)
	s.Equal(types.PaymentStatusRefunded, resp.PaymentStatus)
	s.Contains(resp.Notes, "student withdrew")

	// income and refund rows both stay in the ledger
	txns, err := s.GetStores().LedgerRepo.ListByPayment(s.GetContext(), p.ID)
	s.NoError(err)
	s.Require().Len(txns, 2)
	txnTypes := lo.Map(txns, func(t *ledger.Transaction, _ int) types.TransactionType {
		return t.TransactionType
	})
	s.Contains(txnTypes, types.TransactionTypeIncome)
	s.Contains(txnTypes, types.TransactionTypeRefund)

	// the invoice drops back to unpaid
	inv, err := s.invoiceSvc.GetInvoice(s.GetContext(), s.testData.invoice.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusSent, inv.InvoiceStatus)
	s.True(inv.AmountPaid.IsZero())

	// refunding again is idempotent
	again, err := s.service.RefundPayment(s.GetContext(), p.ID,
		dto.RefundPaymentRequest{Reason: "student withdrew"}, s.GetNow())
	s.NoError(err)
	s.Equal(types.PaymentStatusRefunded, again.PaymentStatus)
	txns, err = s.GetStores().LedgerRepo.ListByPayment(s.GetContext(), p.ID)
	s.NoError(err)
	s.Len(txns, 2)
}

func (s *PaymentServiceSuite) TestRefundRequiresCompletedPayment() {
	p := s.recordPayment(650, types.PaymentMethodCash)

	_, err := s.service.RefundPayment(s.GetContext(), p.ID,
		dto.RefundPaymentRequest{Reason: "oops"}, s.GetNow())
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *PaymentServiceSuite) TestPaymentWebhookEvents() {
	p := s.recordPayment(650, types.PaymentMethodCash)
	_, err := s.service.ProcessPayment(s.GetContext(), p.ID, s.GetNow())
	s.NoError(err)

	_, err = s.service.RefundPayment(s.GetContext(), p.ID,
		dto.RefundPaymentRequest{Reason: "student withdrew"}, s.GetNow())
	s.NoError(err)

	// invoice.created, payment.completed, payment.refunded
	events := s.GetPubSub().GetMessages(s.GetConfig().Webhook.Topic)
	s.Len(events, 3)
}
