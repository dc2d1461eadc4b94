package service

import (
	"context"
	"strings"
	"time"

	"github.com/feebridge/feebridge/internal/api/dto"
	"github.com/feebridge/feebridge/internal/domain/fee"
	"github.com/feebridge/feebridge/internal/domain/invoice"
	ierr "github.com/feebridge/feebridge/internal/errors"
	"github.com/feebridge/feebridge/internal/idempotency"
	"github.com/feebridge/feebridge/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// invoiceNumberAttempts bounds regeneration when a generated invoice
// number collides within the tenant.
const invoiceNumberAttempts = 3

type InvoiceService interface {
	CreateInvoice(ctx context.Context, req dto.CreateInvoiceRequest, now time.Time) (*dto.InvoiceResponse, error)
	GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error)
	GetInvoices(ctx context.Context, filter *types.InvoiceFilter) (*dto.ListInvoicesResponse, error)
	IssueInvoice(ctx context.Context, id string, now time.Time) (*dto.InvoiceResponse, error)
	CancelInvoice(ctx context.Context, id string, now time.Time) (*dto.InvoiceResponse, error)
	MarkPaid(ctx context.Context, id string, now time.Time) (*dto.InvoiceResponse, error)

	// RecomputeStatus re-derives the invoice status from its completed
	// payments and the due date. Idempotent and order independent: any
	// sequence of payment events converges on the same status.
	RecomputeStatus(ctx context.Context, id string, now time.Time) (*invoice.Invoice, error)

	// SweepOverdue marks every sent or partially paid invoice past its due
	// date as overdue, across all tenants.
	SweepOverdue(ctx context.Context, now time.Time) (*dto.OverdueSweepResponse, error)

	// CreateRecurringFeeInvoice materializes the invoice for one recurring
	// fee in one billing period. Returns false when the period was already
	// billed, which callers treat as success.
	CreateRecurringFeeInvoice(ctx context.Context, f *fee.Fee, periodKey string, now time.Time) (bool, error)

	// PaidAmount sums the completed payments against an invoice.
	PaidAmount(ctx context.Context, invoiceID string) (decimal.Decimal, error)
}

type invoiceService struct {
	ServiceParams
}

func NewInvoiceService(params ServiceParams) InvoiceService {
	return &invoiceService{ServiceParams: params}
}

func (s *invoiceService) CreateInvoice(ctx context.Context, req dto.CreateInvoiceRequest, now time.Time) (*dto.InvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !req.DueDate.After(now) {
		return nil, ierr.NewError("due date must be after the issue date").
			WithHint("Please provide a due date in the future").
			WithReportableDetails(map[string]any{
				"due_date":   req.DueDate,
				"issue_date": now,
			}).
			Mark(ierr.ErrValidation)
	}

	// Same logical request always maps to the same key, so a double
	// submission returns the first invoice instead of a duplicate.
	feeIDs := lo.Map(req.LineItems, func(l dto.CreateInvoiceLineRequest, _ int) string {
		return l.FeeID
	})
	idempKey := s.IdempGen.GenerateKey(idempotency.ScopeOneOffInvoice, map[string]interface{}{
		"tenant_id":  types.GetTenantID(ctx),
		"student_id": req.StudentID,
		"due_date":   req.DueDate.UTC().Format("2006-01-02"),
		"fee_ids":    strings.Join(feeIDs, ","),
	})
	if existing, err := s.InvoiceRepo.GetByIdempotencyKey(ctx, idempKey); err == nil {
		return s.toResponse(ctx, existing)
	} else if !ierr.IsNotFound(err) {
		return nil, err
	}

	settingsSvc := NewSettingsService(s.ServiceParams)
	billing, err := settingsSvc.GetOrDefault(ctx)
	if err != nil {
		return nil, err
	}

	lineItems := make([]*invoice.LineItem, 0, len(req.LineItems))
	subtotal := decimal.Zero
	for _, line := range req.LineItems {
		f, err := s.FeeRepo.Get(ctx, line.FeeID)
		if err != nil {
			return nil, err
		}
		if !f.Active {
			return nil, ierr.NewError("fee is not active").
				WithHintf("Fee %s can no longer be billed", f.Name).
				WithReportableDetails(map[string]any{"fee_id": f.ID}).
				Mark(ierr.ErrInvalidOperation)
		}

		description := line.Description
		if description == "" {
			description = f.Name
		}
		total := line.Quantity.Mul(f.Amount)
		lineItems = append(lineItems, &invoice.LineItem{
			ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE_LINE_ITEM),
			FeeID:       f.ID,
			Description: description,
			Quantity:    line.Quantity,
			UnitPrice:   f.Amount,
			TotalPrice:  total,
			BaseModel:   types.GetDefaultBaseModel(ctx),
		})
		subtotal = subtotal.Add(total)
	}

	taxAmount := subtotal.Mul(billing.TaxRate).Round(2)
	totalAmount := subtotal.Add(taxAmount).Sub(req.DiscountAmount)
	if totalAmount.IsNegative() {
		return nil, ierr.NewError("discount exceeds the invoice amount").
			WithHint("The discount cannot be larger than subtotal plus tax").
			WithReportableDetails(map[string]any{
				"subtotal":        subtotal,
				"tax_amount":      taxAmount,
				"discount_amount": req.DiscountAmount,
			}).
			Mark(ierr.ErrValidation)
	}

	inv := &invoice.Invoice{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		StudentID:      &req.StudentID,
		SubscriptionID: req.SubscriptionID,
		IdempotencyKey: &idempKey,
		InvoiceStatus:  types.InvoiceStatusDraft,
		IssueDate:      now,
		DueDate:        req.DueDate,
		Subtotal:       subtotal,
		TaxAmount:      taxAmount,
		DiscountAmount: req.DiscountAmount,
		TotalAmount:    totalAmount,
		Notes:          req.Notes,
		LineItems:      lineItems,
		Version:        1,
		BaseModel:      types.GetDefaultBaseModel(ctx),
	}

	if err := s.persistWithFreshNumber(ctx, inv, now); err != nil {
		if ierr.IsAlreadyExists(err) {
			// Concurrent duplicate of the same request: hand back the winner.
			if existing, getErr := s.InvoiceRepo.GetByIdempotencyKey(ctx, idempKey); getErr == nil {
				return s.toResponse(ctx, existing)
			}
		}
		return nil, err
	}

	s.Logger.Infow("created invoice",
		"invoice_id", inv.ID,
		"invoice_number", inv.InvoiceNumber,
		"student_id", req.StudentID,
		"total_amount", inv.TotalAmount)
	s.publishWebhook(ctx, types.WebhookEventInvoiceCreated, inv, now)

	return dto.NewInvoiceResponse(inv, decimal.Zero), nil
}

// persistWithFreshNumber assigns a generated invoice number and creates
// the invoice, regenerating on a number collision. The unique constraint
// is the arbiter; the pre-check just keeps collisions rare.
func (s *invoiceService) persistWithFreshNumber(ctx context.Context, inv *invoice.Invoice, now time.Time) error {
	var lastErr error
	for attempt := 0; attempt < invoiceNumberAttempts; attempt++ {
		number := types.GenerateInvoiceNumber(now)
		taken, err := s.InvoiceRepo.ExistsByNumber(ctx, number)
		if err != nil {
			return err
		}
		if taken {
			continue
		}

		inv.InvoiceNumber = number
		if err := inv.Validate(); err != nil {
			return err
		}
		if err := s.InvoiceRepo.CreateWithLineItems(ctx, inv); err != nil {
			lastErr = err
			if ierr.IsAlreadyExists(err) && inv.IdempotencyKey != nil {
				if _, getErr := s.InvoiceRepo.GetByIdempotencyKey(ctx, *inv.IdempotencyKey); getErr == nil {
					return err
				}
			}
			if ierr.IsAlreadyExists(err) {
				continue
			}
			return err
		}
		return nil
	}
	if lastErr != nil {
		return lastErr
	}
	return ierr.NewError("could not allocate a unique invoice number").
		WithHint("Invoice number generation kept colliding, retry the request").
		Mark(ierr.ErrSystem)
}

func (s *invoiceService) GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	if id == "" {
		return nil, ierr.NewError("invoice id is required").
			WithHint("Please provide an invoice ID").
			Mark(ierr.ErrValidation)
	}

	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, inv)
}

func (s *invoiceService) GetInvoices(ctx context.Context, filter *types.InvoiceFilter) (*dto.ListInvoicesResponse, error) {
	if filter == nil {
		filter = &types.InvoiceFilter{QueryFilter: types.NewDefaultQueryFilter()}
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	invoices, err := s.InvoiceRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	count, err := s.InvoiceRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		resp, err := s.toResponse(ctx, inv)
		if err != nil {
			return nil, err
		}
		items = append(items, resp)
	}

	response := types.NewListResponse(items, count, filter.GetLimit(), filter.GetOffset())
	return &response, nil
}

func (s *invoiceService) IssueInvoice(ctx context.Context, id string, now time.Time) (*dto.InvoiceResponse, error) {
	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if inv.InvoiceStatus == types.InvoiceStatusSent {
		return s.toResponse(ctx, inv)
	}
	if inv.InvoiceStatus != types.InvoiceStatusDraft {
		return nil, ierr.NewError("only draft invoices can be issued").
			WithHintf("Invoice %s is %s", inv.InvoiceNumber, inv.InvoiceStatus).
			WithReportableDetails(map[string]any{
				"invoice_id":     inv.ID,
				"invoice_status": inv.InvoiceStatus,
			}).
			Mark(ierr.ErrInvalidOperation)
	}
	if len(inv.LineItems) == 0 {
		return nil, ierr.NewError("invoice has no line items").
			WithHintf("Invoice %s cannot be issued without line items", inv.InvoiceNumber).
			WithReportableDetails(map[string]any{
				"invoice_id": inv.ID,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	inv.InvoiceStatus = types.InvoiceStatusSent
	inv.UpdatedAt = now
	inv.UpdatedBy = types.GetUserID(ctx)

	if err := s.InvoiceRepo.Update(ctx, inv); err != nil {
		return nil, err
	}

	s.Logger.Infow("issued invoice", "invoice_id", inv.ID, "invoice_number", inv.InvoiceNumber)
	return s.toResponse(ctx, inv)
}

func (s *invoiceService) CancelInvoice(ctx context.Context, id string, now time.Time) (*dto.InvoiceResponse, error) {
	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if inv.InvoiceStatus == types.InvoiceStatusCancelled {
		return s.toResponse(ctx, inv)
	}

	// Any state short of fully paid can be cancelled; recorded payments
	// stay on the ledger and are settled through refunds.
	if inv.InvoiceStatus == types.InvoiceStatusPaid {
		return nil, ierr.NewError("invoice is already paid").
			WithHintf("Invoice %s is paid and cannot be cancelled", inv.InvoiceNumber).
			WithReportableDetails(map[string]any{
				"invoice_id":     inv.ID,
				"invoice_status": inv.InvoiceStatus,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	inv.InvoiceStatus = types.InvoiceStatusCancelled
	inv.UpdatedAt = now
	inv.UpdatedBy = types.GetUserID(ctx)

	if err := s.InvoiceRepo.Update(ctx, inv); err != nil {
		return nil, err
	}

	s.Logger.Infow("cancelled invoice", "invoice_id", inv.ID, "invoice_number", inv.InvoiceNumber)
	return s.toResponse(ctx, inv)
}

// MarkPaid forces an invoice to paid regardless of the recorded
// payments, for amounts settled outside the system. Idempotent.
func (s *invoiceService) MarkPaid(ctx context.Context, id string, now time.Time) (*dto.InvoiceResponse, error) {
	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if inv.InvoiceStatus == types.InvoiceStatusPaid {
		return s.toResponse(ctx, inv)
	}

	switch inv.InvoiceStatus {
	case types.InvoiceStatusSent, types.InvoiceStatusPartiallyPaid, types.InvoiceStatusOverdue:
	default:
		return nil, ierr.NewError("invoice cannot be marked paid").
			WithHintf("Invoice %s is %s", inv.InvoiceNumber, inv.InvoiceStatus).
			WithReportableDetails(map[string]any{
				"invoice_id":     inv.ID,
				"invoice_status": inv.InvoiceStatus,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	inv.InvoiceStatus = types.InvoiceStatusPaid
	if inv.PaidDate == nil {
		inv.PaidDate = &now
	}
	inv.UpdatedAt = now
	inv.UpdatedBy = types.GetUserID(ctx)

	if err := s.InvoiceRepo.Update(ctx, inv); err != nil {
		return nil, err
	}

	s.Logger.Infow("marked invoice paid", "invoice_id", inv.ID, "invoice_number", inv.InvoiceNumber)
	return s.toResponse(ctx, inv)
}

func (s *invoiceService) RecomputeStatus(ctx context.Context, id string, now time.Time) (*invoice.Invoice, error) {
	retries := s.Config.Billing.RecomputeRetries
	if retries < 1 {
		retries = 1
	}

	var lastErr error
	for attempt := 0; attempt < retries; attempt++ {
		inv, err := s.InvoiceRepo.Get(ctx, id)
		if err != nil {
			return nil, err
		}

		// Draft and cancelled invoices never move on payment activity.
		if inv.InvoiceStatus == types.InvoiceStatusDraft ||
			inv.InvoiceStatus == types.InvoiceStatusCancelled {
			return inv, nil
		}

		paid, err := s.PaidAmount(ctx, inv.ID)
		if err != nil {
			return nil, err
		}

		next := s.deriveStatus(inv, paid, now)
		if next == inv.InvoiceStatus {
			return inv, nil
		}

		previous := inv.InvoiceStatus
		inv.InvoiceStatus = next
		if next == types.InvoiceStatusPaid && inv.PaidDate == nil {
			inv.PaidDate = &now
		}
		inv.UpdatedAt = now

		if err := s.InvoiceRepo.Update(ctx, inv); err != nil {
			if ierr.IsVersionConflict(err) {
				lastErr = err
				continue
			}
			return nil, err
		}

		s.Logger.Infow("recomputed invoice status",
			"invoice_id", inv.ID,
			"from", previous,
			"to", next,
			"amount_paid", paid)

		if next == types.InvoiceStatusOverdue {
			s.publishWebhook(ctx, types.WebhookEventInvoiceOverdue, inv, now)
		}
		return inv, nil
	}
	return nil, lastErr
}

// deriveStatus maps the paid amount and due date onto an invoice status.
// Fully paid wins over overdue; an unpaid or partially paid invoice past
// its due date is overdue.
func (s *invoiceService) deriveStatus(inv *invoice.Invoice, paid decimal.Decimal, now time.Time) types.InvoiceStatus {
	if paid.GreaterThanOrEqual(inv.TotalAmount) {
		return types.InvoiceStatusPaid
	}
	if inv.DueDate.Before(now) {
		return types.InvoiceStatusOverdue
	}
	if paid.IsPositive() {
		return types.InvoiceStatusPartiallyPaid
	}
	return types.InvoiceStatusSent
}

func (s *invoiceService) SweepOverdue(ctx context.Context, now time.Time) (*dto.OverdueSweepResponse, error) {
	due, err := s.InvoiceRepo.ListDue(ctx, now)
	if err != nil {
		return nil, err
	}

	result := &dto.OverdueSweepResponse{InvoicesChecked: len(due)}
	for _, inv := range due {
		tenantCtx := types.SetTenantID(ctx, inv.TenantID)

		updated, err := s.RecomputeStatus(tenantCtx, inv.ID, now)
		if err != nil {
			s.Logger.Errorw("overdue sweep failed for invoice",
				"error", err,
				"invoice_id", inv.ID,
				"tenant_id", inv.TenantID)
			result.FailureCount++
			continue
		}
		if updated.InvoiceStatus == types.InvoiceStatusOverdue &&
			inv.InvoiceStatus != types.InvoiceStatusOverdue {
			result.MarkedOverdue++
		}
	}

	s.Logger.Infow("invoice overdue sweep finished",
		"checked", result.InvoicesChecked,
		"marked_overdue", result.MarkedOverdue,
		"failures", result.FailureCount)

	return result, nil
}

func (s *invoiceService) CreateRecurringFeeInvoice(ctx context.Context, f *fee.Fee, periodKey string, now time.Time) (bool, error) {
	idempKey := s.IdempGen.GenerateKey(idempotency.ScopeRecurringFeeInvoice, map[string]interface{}{
		"tenant_id": types.GetTenantID(ctx),
		"fee_id":    f.ID,
		"period":    periodKey,
	})

	if _, err := s.InvoiceRepo.GetByIdempotencyKey(ctx, idempKey); err == nil {
		return false, nil
	} else if !ierr.IsNotFound(err) {
		return false, err
	}

	settingsSvc := NewSettingsService(s.ServiceParams)
	billing, err := settingsSvc.GetOrDefault(ctx)
	if err != nil {
		return false, err
	}

	subtotal := f.Amount
	taxAmount := subtotal.Mul(billing.TaxRate).Round(2)

	graceDays := billing.GracePeriodDays
	if graceDays < 1 {
		graceDays = 1
	}
	dueDate := now.AddDate(0, 0, graceDays)

	inv := &invoice.Invoice{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		IdempotencyKey: &idempKey,
		InvoiceStatus:  types.InvoiceStatusSent,
		IssueDate:      now,
		DueDate:        dueDate,
		Subtotal:       subtotal,
		TaxAmount:      taxAmount,
		DiscountAmount: decimal.Zero,
		TotalAmount:    subtotal.Add(taxAmount),
		Notes:          f.Name + " for " + periodKey,
		LineItems: []*invoice.LineItem{{
			ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE_LINE_ITEM),
			FeeID:       f.ID,
			Description: f.Name,
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   f.Amount,
			TotalPrice:  f.Amount,
			BaseModel:   types.GetDefaultBaseModel(ctx),
		}},
		Version:   1,
		BaseModel: types.GetDefaultBaseModel(ctx),
	}

	if err := s.persistWithFreshNumber(ctx, inv, now); err != nil {
		if ierr.IsAlreadyExists(err) {
			// A concurrent run billed this period first.
			return false, nil
		}
		return false, err
	}

	s.Logger.Infow("created recurring fee invoice",
		"invoice_id", inv.ID,
		"invoice_number", inv.InvoiceNumber,
		"fee_id", f.ID,
		"period", periodKey)
	s.publishWebhook(ctx, types.WebhookEventInvoiceCreated, inv, now)

	return true, nil
}

func (s *invoiceService) PaidAmount(ctx context.Context, invoiceID string) (decimal.Decimal, error) {
	payments, err := s.PaymentRepo.ListByInvoice(ctx, invoiceID)
	if err != nil {
		return decimal.Zero, err
	}

	paid := decimal.Zero
	for _, p := range payments {
		if p.PaymentStatus == types.PaymentStatusCompleted {
			paid = paid.Add(p.Amount)
		}
	}
	return paid, nil
}

func (s *invoiceService) toResponse(ctx context.Context, inv *invoice.Invoice) (*dto.InvoiceResponse, error) {
	paid, err := s.PaidAmount(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	return dto.NewInvoiceResponse(inv, paid), nil
}
