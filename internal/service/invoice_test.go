package service

import (
	"testing"
	"time"

	"github.com/feebridge/feebridge/internal/api/dto"
	"github.com/feebridge/feebridge/internal/domain/fee"
	"github.com/feebridge/feebridge/internal/domain/invoice"
	"github.com/feebridge/feebridge/internal/domain/settings"
	ierr "github.com/feebridge/feebridge/internal/errors"
	"github.com/feebridge/feebridge/internal/testutil"
	"github.com/feebridge/feebridge/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type InvoiceServiceSuite struct {
	testutil.BaseServiceTestSuite
	service  InvoiceService
	testData struct {
		tuition     *fee.Fee
		examination *fee.Fee
		retiredFee  *fee.Fee
	}
}

func TestInvoiceService(t *testing.T) {
	suite.Run(t, new(InvoiceServiceSuite))
}

func (s *InvoiceServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.setupService()
	s.setupTestData()
}

func (s *InvoiceServiceSuite) setupService() {
	s.service = NewInvoiceService(s.serviceParams())
}

func (s *InvoiceServiceSuite) serviceParams() ServiceParams {
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
		WebhookPublisher: s.GetWebhookPublisher(),
		IdempGen:         s.GetIdempotencyGenerator(),
	}
}

func (s *InvoiceServiceSuite) setupTestData() {
	s.testData.tuition = &fee.Fee{
		ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_FEE),
		Name:               "Tuition",
		FeeType:            types.FeeTypeTuition,
		Amount:             decimal.NewFromInt(500),
		IsRecurring:        true,
		RecurringFrequency: types.RecurringFrequencyMonthly,
		Active:             true,
		BaseModel:          types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().FeeRepo.Create(s.GetContext(), s.testData.tuition))

	s.testData.examination = &fee.Fee{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_FEE),
		Name:      "Examination",
		FeeType:   types.FeeTypeExamination,
		Amount:    decimal.NewFromInt(75),
		Active:    true,
		BaseModel: types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().FeeRepo.Create(s.GetContext(), s.testData.examination))

	s.testData.retiredFee = &fee.Fee{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_FEE),
		Name:      "Old Library Fee",
		FeeType:   types.FeeTypeLibrary,
		Amount:    decimal.NewFromInt(10),
		Active:    false,
		BaseModel: types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().FeeRepo.Create(s.GetContext(), s.testData.retiredFee))
}

func (s *InvoiceServiceSuite) setTaxRate(rate float64) {
	cfg := &settings.BillingSettings{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BILLING_SETTINGS),
		Currency:        "USD",
		TaxRate:         decimal.NewFromFloat(rate),
		GracePeriodDays: 7,
		BaseModel:       types.GetDefaultBaseModel(s.GetContext()),
	}
	s.Require().NoError(s.GetStores().SettingsRepo.Create(s.GetContext(), cfg))
}

func (s *InvoiceServiceSuite) createRequest() dto.CreateInvoiceRequest {
	return dto.CreateInvoiceRequest{
		StudentID: "student_1",
		DueDate:   s.GetNow().AddDate(0, 0, 14),
		LineItems: []dto.CreateInvoiceLineRequest{
			{FeeID: s.testData.tuition.ID, Quantity: decimal.NewFromInt(1)},
			{FeeID: s.testData.examination.ID, Quantity: decimal.NewFromInt(2)},
		},
	}
}

func (s *InvoiceServiceSuite) TestCreateInvoice() {
	resp, err := s.service.CreateInvoice(s.GetContext(), s.createRequest(), s.GetNow())
	s.NoError(err)
	s.Equal(types.InvoiceStatusDraft, resp.InvoiceStatus)
	s.Equal("650", resp.Subtotal.String())
	s.True(resp.TaxAmount.IsZero())
	s.Equal("650", resp.TotalAmount.String())
	s.Len(resp.LineItems, 2)
	s.NotEmpty(resp.InvoiceNumber)
	s.Equal(1, resp.Version)
	s.Equal("650", resp.AmountDue.String())

	events := s.GetPubSub().GetMessages(s.GetConfig().Webhook.Topic)
	s.Len(events, 1)
}

func (s *InvoiceServiceSuite) TestCreateInvoiceAppliesTaxAndDiscount() {
	s.setTaxRate(0.10)

	req := s.createRequest()
	req.DiscountAmount = decimal.NewFromInt(50)
	resp, err := s.service.CreateInvoice(s.GetContext(), req, s.GetNow())
	s.NoError(err)
	s.Equal("650", resp.Subtotal.String())
	s.Equal("65", resp.TaxAmount.String())
	// 650 + 65 - 50
	s.Equal("665", resp.TotalAmount.String())
}

func (s *InvoiceServiceSuite) TestCreateInvoiceDuplicateSubmission() {
	first, err := s.service.CreateInvoice(s.GetContext(), s.createRequest(), s.GetNow())
	s.NoError(err)

	second, err := s.service.CreateInvoice(s.GetContext(), s.createRequest(), s.GetNow())
	s.NoError(err)
	s.Equal(first.ID, second.ID)
	s.Equal(first.InvoiceNumber, second.InvoiceNumber)

	count, err := s.GetStores().InvoiceRepo.Count(s.GetContext(), types.NewNoLimitInvoiceFilter())
	s.NoError(err)
	s.Equal(1, count)
}

func (s *InvoiceServiceSuite) TestCreateInvoiceRejections() {
	testCases := []struct {
		name   string
		mutate func(*dto.CreateInvoiceRequest)
	}{
		{"no_line_items", func(r *dto.CreateInvoiceRequest) { r.LineItems = nil }},
		{"due_date_in_past", func(r *dto.CreateInvoiceRequest) { r.DueDate = s.GetNow().Add(-time.Hour) }},
		{"zero_quantity", func(r *dto.CreateInvoiceRequest) { r.LineItems[0].Quantity = decimal.Zero }},
		{"negative_discount", func(r *dto.CreateInvoiceRequest) { r.DiscountAmount = decimal.NewFromInt(-5) }},
		{"unknown_fee", func(r *dto.CreateInvoiceRequest) { r.LineItems[0].FeeID = "fee_missing" }},
		{"inactive_fee", func(r *dto.CreateInvoiceRequest) { r.LineItems[0].FeeID = s.testData.retiredFee.ID }},
		{"discount_exceeds_total", func(r *dto.CreateInvoiceRequest) { r.DiscountAmount = decimal.NewFromInt(10000) }},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			req := s.createRequest()
			tc.mutate(&req)
			resp, err := s.service.CreateInvoice(s.GetContext(), req, s.GetNow())
			s.Error(err)
			s.Nil(resp)
		})
	}
}

func (s *InvoiceServiceSuite) TestIssueInvoice() {
	created, err := s.service.CreateInvoice(s.GetContext(), s.createRequest(), s.GetNow())
	s.NoError(err)

	resp, err := s.service.IssueInvoice(s.GetContext(), created.ID, s.GetNow())
	s.NoError(err)
	s.Equal(types.InvoiceStatusSent, resp.InvoiceStatus)

	// issuing twice is idempotent
	again, err := s.service.IssueInvoice(s.GetContext(), created.ID, s.GetNow())
	s.NoError(err)
	s.Equal(types.InvoiceStatusSent, again.InvoiceStatus)
}

func (s *InvoiceServiceSuite) TestCancelInvoice() {
	created, err := s.service.CreateInvoice(s.GetContext(), s.createRequest(), s.GetNow())
	s.NoError(err)

	resp, err := s.service.CancelInvoice(s.GetContext(), created.ID, s.GetNow())
	s.NoError(err)
	s.Equal(types.InvoiceStatusCancelled, resp.InvoiceStatus)

	// a cancelled invoice cannot be issued
	_, err = s.service.IssueInvoice(s.GetContext(), created.ID, s.GetNow())
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))

	// cancelling again is idempotent
	again, err := s.service.CancelInvoice(s.GetContext(), created.ID, s.GetNow())
	s.NoError(err)
	s.Equal(types.InvoiceStatusCancelled, again.InvoiceStatus)
}

func (s *InvoiceServiceSuite) TestMarkPaid() {
	created, err := s.service.CreateInvoice(s.GetContext(), s.createRequest(), s.GetNow())
	s.NoError(err)

	// draft invoices cannot be marked paid
	_, err = s.service.MarkPaid(s.GetContext(), created.ID, s.GetNow())
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))

	_, err = s.service.IssueInvoice(s.GetContext(), created.ID, s.GetNow())
	s.NoError(err)

	paidAt := s.GetNow().AddDate(0, 0, 3)
	resp, err := s.service.MarkPaid(s.GetContext(), created.ID, paidAt)
	s.NoError(err)
	s.Equal(types.InvoiceStatusPaid, resp.InvoiceStatus)
	s.NotNil(resp.PaidDate)
	s.True(resp.PaidDate.Equal(paidAt))

	// marking again keeps the original paid date
	again, err := s.service.MarkPaid(s.GetContext(), created.ID, paidAt.AddDate(0, 0, 1))
	s.NoError(err)
	s.Equal(types.InvoiceStatusPaid, again.InvoiceStatus)
	s.True(again.PaidDate.Equal(paidAt))
}

func (s *InvoiceServiceSuite) TestIssueEmptyInvoiceRejected() {
	inv := &invoice.Invoice{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		InvoiceNumber: "INV-EMPTY-1",
		StudentID:     lo.ToPtr("student_1"),
		InvoiceStatus: types.InvoiceStatusDraft,
		IssueDate:     s.GetNow(),
		DueDate:       s.GetNow().AddDate(0, 0, 14),
		Version:       1,
		BaseModel:     types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().InvoiceRepo.CreateWithLineItems(s.GetContext(), inv))

	_, err := s.service.IssueInvoice(s.GetContext(), inv.ID, s.GetNow())
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *InvoiceServiceSuite) TestRecomputeStatusLeavesDraftAlone() {
	created, err := s.service.CreateInvoice(s.GetContext(), s.createRequest(), s.GetNow())
	s.NoError(err)

	inv, err := s.service.RecomputeStatus(s.GetContext(), created.ID, s.GetNow().AddDate(0, 2, 0))
	s.NoError(err)
	s.Equal(types.InvoiceStatusDraft, inv.InvoiceStatus)
}

func (s *InvoiceServiceSuite) TestRecomputeStatusMarksOverdue() {
	created, err := s.service.CreateInvoice(s.GetContext(), s.createRequest(), s.GetNow())
	s.NoError(err)
	_, err = s.service.IssueInvoice(s.GetContext(), created.ID, s.GetNow())
	s.NoError(err)

	afterDue := s.GetNow().AddDate(0, 0, 15)
	inv, err := s.service.RecomputeStatus(s.GetContext(), created.ID, afterDue)
	s.NoError(err)
	s.Equal(types.InvoiceStatusOverdue, inv.InvoiceStatus)

	// created + overdue events
	events := s.GetPubSub().GetMessages(s.GetConfig().Webhook.Topic)
	s.Len(events, 2)

	// recomputing again changes nothing and publishes nothing
	inv, err = s.service.RecomputeStatus(s.GetContext(), created.ID, afterDue)
	s.NoError(err)
	s.Equal(types.InvoiceStatusOverdue, inv.InvoiceStatus)
	s.Len(s.GetPubSub().GetMessages(s.GetConfig().Webhook.Topic), 2)
}

func (s *InvoiceServiceSuite) TestSweepOverdue() {
	overdueInv, err := s.service.CreateInvoice(s.GetContext(), s.createRequest(), s.GetNow())
	s.NoError(err)
	_, err = s.service.IssueInvoice(s.GetContext(), overdueInv.ID, s.GetNow())
	s.NoError(err)

	req := s.createRequest()
	req.StudentID = "student_2"
	req.DueDate = s.GetNow().AddDate(0, 3, 0)
	current, err := s.service.CreateInvoice(s.GetContext(), req, s.GetNow())
	s.NoError(err)
	_, err = s.service.IssueInvoice(s.GetContext(), current.ID, s.GetNow())
	s.NoError(err)

	result, err := s.service.SweepOverdue(s.GetContext(), s.GetNow().AddDate(0, 0, 15))
	s.NoError(err)
	s.Equal(1, result.InvoicesChecked)
	s.Equal(1, result.MarkedOverdue)
	s.Zero(result.FailureCount)

	// the sweep is idempotent
	result, err = s.service.SweepOverdue(s.GetContext(), s.GetNow().AddDate(0, 0, 16))
	s.NoError(err)
	s.Zero(result.MarkedOverdue)

	got, err := s.service.GetInvoice(s.GetContext(), current.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusSent, got.InvoiceStatus)
}

func (s *InvoiceServiceSuite) TestCreateRecurringFeeInvoice() {
	period := types.RecurringFrequencyMonthly.PeriodKey(s.GetNow())

	created, err := s.service.CreateRecurringFeeInvoice(s.GetContext(), s.testData.tuition, period, s.GetNow())
	s.NoError(err)
	s.True(created)

	invoices, err := s.GetStores().InvoiceRepo.List(s.GetContext(), types.NewNoLimitInvoiceFilter())
	s.NoError(err)
	s.Require().Len(invoices, 1)
	inv := invoices[0]
	s.Equal(types.InvoiceStatusSent, inv.InvoiceStatus)
	s.Equal("500", inv.TotalAmount.String())
	s.Equal(s.GetNow().AddDate(0, 0, 7), inv.DueDate)
	s.Contains(inv.Notes, period)

	// the same fee and period is billed once
	created, err = s.service.CreateRecurringFeeInvoice(s.GetContext(), s.testData.tuition, period, s.GetNow())
	s.NoError(err)
	s.False(created)

	// a new period is billed again
	nextMonth := s.GetNow().AddDate(0, 1, 0)
	created, err = s.service.CreateRecurringFeeInvoice(s.GetContext(),
		s.testData.tuition, types.RecurringFrequencyMonthly.PeriodKey(nextMonth), nextMonth)
	s.NoError(err)
	s.True(created)
}

func (s *InvoiceServiceSuite) TestGetInvoicesFiltering() {
	_, err := s.service.CreateInvoice(s.GetContext(), s.createRequest(), s.GetNow())
	s.NoError(err)

	req := s.createRequest()
	req.StudentID = "student_2"
	_, err = s.service.CreateInvoice(s.GetContext(), req, s.GetNow())
	s.NoError(err)

	studentID := "student_2"
	resp, err := s.service.GetInvoices(s.GetContext(), &types.InvoiceFilter{
		QueryFilter: types.NewDefaultQueryFilter(),
		StudentID:   &studentID,
	})
	s.NoError(err)
	s.Len(resp.Items, 1)
	s.Equal("student_2", *resp.Items[0].StudentID)
}
