package service

import (
	"context"
	"time"

	"github.com/feebridge/feebridge/internal/api/dto"
	"github.com/feebridge/feebridge/internal/domain/ledger"
	"github.com/feebridge/feebridge/internal/domain/payment"
	ierr "github.com/feebridge/feebridge/internal/errors"
	"github.com/feebridge/feebridge/internal/gateway"
	"github.com/feebridge/feebridge/internal/types"
	"github.com/samber/lo"
)

type PaymentService interface {
	RecordPayment(ctx context.Context, req dto.RecordPaymentRequest, now time.Time) (*dto.PaymentResponse, error)
	GetPayment(ctx context.Context, id string) (*dto.PaymentResponse, error)
	GetPayments(ctx context.Context, filter *types.PaymentFilter) (*dto.ListPaymentsResponse, error)

	// ProcessPayment drives a pending payment through the gateway when its
	// method requires one, completing or failing it on the outcome. Manual
	// methods complete directly. Only pending payments are accepted: a
	// payment left processing after an unresolved gateway outcome is
	// recovered through CompletePayment or FailPayment once the charge
	// result is known, never by charging again.
	ProcessPayment(ctx context.Context, id string, now time.Time) (*dto.PaymentResponse, error)

	// CompletePayment transitions a payment to completed at most once.
	// The winning caller appends exactly one income ledger transaction and
	// recomputes the invoice; a losing concurrent caller observes the
	// completed payment and succeeds without side effects.
	CompletePayment(ctx context.Context, id string, now time.Time) (*dto.PaymentResponse, error)

	FailPayment(ctx context.Context, id string, req dto.FailPaymentRequest, now time.Time) (*dto.PaymentResponse, error)
	RefundPayment(ctx context.Context, id string, req dto.RefundPaymentRequest, now time.Time) (*dto.PaymentResponse, error)
}

type paymentService struct {
	ServiceParams
}

func NewPaymentService(params ServiceParams) PaymentService {
	return &paymentService{ServiceParams: params}
}

func (s *paymentService) RecordPayment(ctx context.Context, req dto.RecordPaymentRequest, now time.Time) (*dto.PaymentResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	inv, err := s.InvoiceRepo.Get(ctx, req.InvoiceID)
	if err != nil {
		return nil, err
	}

	switch inv.InvoiceStatus {
	case types.InvoiceStatusSent, types.InvoiceStatusPartiallyPaid, types.InvoiceStatusOverdue:
	default:
		return nil, ierr.NewError("invoice does not accept payments").
			WithHintf("Invoice %s is %s", inv.InvoiceNumber, inv.InvoiceStatus).
			WithReportableDetails(map[string]any{
				"invoice_id":     inv.ID,
				"invoice_status": inv.InvoiceStatus,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	p := req.ToPayment(ctx, now)
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if err := s.PaymentRepo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.Logger.Infow("recorded payment",
		"payment_id", p.ID,
		"payment_number", p.PaymentNumber,
		"invoice_id", p.InvoiceID,
		"amount", p.Amount,
		"payment_method", p.PaymentMethod)

	return dto.NewPaymentResponse(p), nil
}

func (s *paymentService) GetPayment(ctx context.Context, id string) (*dto.PaymentResponse, error) {
	if id == "" {
		return nil, ierr.NewError("payment id is required").
			WithHint("Please provide a payment ID").
			Mark(ierr.ErrValidation)
	}

	p, err := s.PaymentRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewPaymentResponse(p), nil
}

func (s *paymentService) GetPayments(ctx context.Context, filter *types.PaymentFilter) (*dto.ListPaymentsResponse, error) {
	if filter == nil {
		filter = &types.PaymentFilter{QueryFilter: types.NewDefaultQueryFilter()}
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	payments, err := s.PaymentRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	count, err := s.PaymentRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := lo.Map(payments, func(p *payment.Payment, _ int) *dto.PaymentResponse {
		return dto.NewPaymentResponse(p)
	})

	response := types.NewListResponse(items, count, filter.GetLimit(), filter.GetOffset())
	return &response, nil
}

func (s *paymentService) ProcessPayment(ctx context.Context, id string, now time.Time) (*dto.PaymentResponse, error) {
	p, err := s.PaymentRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.PaymentStatus != types.PaymentStatusPending {
		return nil, s.invalidTransition(p, types.PaymentStatusProcessing)
	}

	if !p.PaymentMethod.IsGatewayMethod() {
		return s.CompletePayment(ctx, id, now)
	}

	p.PaymentStatus = types.PaymentStatusProcessing
	p.UpdatedAt = now
	if err := s.PaymentRepo.Update(ctx, p); err != nil {
		if ierr.IsVersionConflict(err) {
			// Someone else picked this payment up.
			return s.GetPayment(ctx, id)
		}
		return nil, err
	}

	result, chargeErr := s.charge(ctx, p)
	if chargeErr != nil {
		if ierr.IsGateway(chargeErr) {
			// Timed out or unreachable: the charge outcome is unknown, leave
			// the payment processing for a later callback or reconciliation.
			s.Logger.Warnw("gateway charge unresolved",
				"payment_id", p.ID,
				"error", chargeErr)
			return nil, chargeErr
		}

		failReq := dto.FailPaymentRequest{Reason: chargeErr.Error()}
		return s.FailPayment(ctx, id, failReq, now)
	}

	p.GatewayTxnID = &result.GatewayTxnID
	p.GatewayResponse = result.RawResponse
	if err := s.PaymentRepo.Update(ctx, p); err != nil && !ierr.IsVersionConflict(err) {
		return nil, err
	}

	return s.CompletePayment(ctx, id, now)
}

// charge calls the gateway under the configured timeout. The context
// deadline is the only thing bounding a slow processor.
func (s *paymentService) charge(ctx context.Context, p *payment.Payment) (*gateway.ChargeResult, error) {
	settingsSvc := NewSettingsService(s.ServiceParams)
	billing, err := settingsSvc.GetOrDefault(ctx)
	if err != nil {
		return nil, err
	}
	if !billing.GatewayEnabled || s.Gateway == nil {
		return nil, ierr.NewError("payment gateway is not enabled").
			WithHint("Enable the gateway in billing settings or record a manual payment").
			Mark(ierr.ErrInvalidOperation)
	}

	chargeCtx, cancel := context.WithTimeout(ctx, s.Config.Billing.GatewayTimeout)
	defer cancel()

	return s.Gateway.Charge(chargeCtx, &gateway.ChargeRequest{
		PaymentID: p.ID,
		Amount:    p.Amount,
		Currency:  billing.Currency,
		Method:    p.PaymentMethod,
		Metadata:  billing.GatewayConfig,
	})
}

func (s *paymentService) CompletePayment(ctx context.Context, id string, now time.Time) (*dto.PaymentResponse, error) {
	p, err := s.PaymentRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	// Completion is idempotent for callers; only the CAS winner appends
	// the ledger row.
	if p.PaymentStatus == types.PaymentStatusCompleted {
		return dto.NewPaymentResponse(p), nil
	}

	switch p.PaymentStatus {
	case types.PaymentStatusPending, types.PaymentStatusProcessing:
	default:
		return nil, s.invalidTransition(p, types.PaymentStatusCompleted)
	}

	userID := types.GetUserID(ctx)
	p.PaymentStatus = types.PaymentStatusCompleted
	p.ProcessedBy = &userID
	p.ProcessedDate = &now
	p.UpdatedAt = now
	p.UpdatedBy = userID

	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		if err := s.PaymentRepo.Update(ctx, p); err != nil {
			return err
		}
		return s.LedgerRepo.Create(ctx, s.incomeTransaction(ctx, p, now))
	})
	if err != nil {
		if ierr.IsVersionConflict(err) {
			// Lost the race: re-read and treat a completed payment as success.
			latest, getErr := s.PaymentRepo.Get(ctx, id)
			if getErr != nil {
				return nil, getErr
			}
			if latest.PaymentStatus == types.PaymentStatusCompleted {
				return dto.NewPaymentResponse(latest), nil
			}
			return nil, err
		}
		return nil, err
	}

	s.Logger.Infow("completed payment",
		"payment_id", p.ID,
		"payment_number", p.PaymentNumber,
		"invoice_id", p.InvoiceID,
		"amount", p.Amount)

	invoiceSvc := NewInvoiceService(s.ServiceParams)
	if _, err := invoiceSvc.RecomputeStatus(ctx, p.InvoiceID, now); err != nil {
		s.Logger.Errorw("failed to recompute invoice after payment",
			"error", err,
			"payment_id", p.ID,
			"invoice_id", p.InvoiceID)
	}

	s.publishWebhook(ctx, types.WebhookEventPaymentCompleted, p, now)
	return dto.NewPaymentResponse(p), nil
}

func (s *paymentService) FailPayment(ctx context.Context, id string, req dto.FailPaymentRequest, now time.Time) (*dto.PaymentResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p, err := s.PaymentRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.PaymentStatus == types.PaymentStatusFailed {
		return dto.NewPaymentResponse(p), nil
	}

	switch p.PaymentStatus {
	case types.PaymentStatusPending, types.PaymentStatusProcessing:
	default:
		return nil, s.invalidTransition(p, types.PaymentStatusFailed)
	}

	p.PaymentStatus = types.PaymentStatusFailed
	p.FailureReason = &req.Reason
	p.UpdatedAt = now
	p.UpdatedBy = types.GetUserID(ctx)

	if err := s.PaymentRepo.Update(ctx, p); err != nil {
		if ierr.IsVersionConflict(err) {
			latest, getErr := s.PaymentRepo.Get(ctx, id)
			if getErr != nil {
				return nil, getErr
			}
			if latest.PaymentStatus == types.PaymentStatusFailed {
				return dto.NewPaymentResponse(latest), nil
			}
		}
		return nil, err
	}

	s.Logger.Infow("failed payment",
		"payment_id", p.ID,
		"reason", req.Reason)
	s.publishWebhook(ctx, types.WebhookEventPaymentFailed, p, now)

	return dto.NewPaymentResponse(p), nil
}

func (s *paymentService) RefundPayment(ctx context.Context, id string, req dto.RefundPaymentRequest, now time.Time) (*dto.PaymentResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p, err := s.PaymentRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.PaymentStatus == types.PaymentStatusRefunded {
		return dto.NewPaymentResponse(p), nil
	}
	if p.PaymentStatus != types.PaymentStatusCompleted {
		return nil, s.invalidTransition(p, types.PaymentStatusRefunded)
	}

	userID := types.GetUserID(ctx)
	p.PaymentStatus = types.PaymentStatusRefunded
	p.Notes = appendNote(p.Notes, "refund: "+req.Reason)
	p.UpdatedAt = now
	p.UpdatedBy = userID

	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		if err := s.PaymentRepo.Update(ctx, p); err != nil {
			return err
		}
		return s.LedgerRepo.Create(ctx, s.refundTransaction(ctx, p, req.Reason, now))
	})
	if err != nil {
		if ierr.IsVersionConflict(err) {
			latest, getErr := s.PaymentRepo.Get(ctx, id)
			if getErr != nil {
				return nil, getErr
			}
			if latest.PaymentStatus == types.PaymentStatusRefunded {
				return dto.NewPaymentResponse(latest), nil
			}
		}
		return nil, err
	}

	s.Logger.Infow("refunded payment",
		"payment_id", p.ID,
		"payment_number", p.PaymentNumber,
		"amount", p.Amount,
		"reason", req.Reason)

	invoiceSvc := NewInvoiceService(s.ServiceParams)
	if _, err := invoiceSvc.RecomputeStatus(ctx, p.InvoiceID, now); err != nil {
		s.Logger.Errorw("failed to recompute invoice after refund",
			"error", err,
			"payment_id", p.ID,
			"invoice_id", p.InvoiceID)
	}

	s.publishWebhook(ctx, types.WebhookEventPaymentRefunded, p, now)
	return dto.NewPaymentResponse(p), nil
}

// incomeTransaction is the single ledger row recording a completed
// payment. Amount is stored unsigned; the type carries the sign.
func (s *paymentService) incomeTransaction(ctx context.Context, p *payment.Payment, now time.Time) *ledger.Transaction {
	return &ledger.Transaction{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_TRANSACTION),
		TransactionNumber: types.GenerateTransactionNumber(now),
		TransactionType:   types.TransactionTypeIncome,
		Amount:            p.Amount,
		Description:       "Payment " + p.PaymentNumber,
		Reference:         p.PaymentNumber,
		PaymentID:         &p.ID,
		InvoiceID:         &p.InvoiceID,
		TransactionDate:   now,
		BaseModel:         types.GetDefaultBaseModel(ctx),
	}
}

func (s *paymentService) refundTransaction(ctx context.Context, p *payment.Payment, reason string, now time.Time) *ledger.Transaction {
	return &ledger.Transaction{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_TRANSACTION),
		TransactionNumber: types.GenerateTransactionNumber(now),
		TransactionType:   types.TransactionTypeRefund,
		Amount:            p.Amount,
		Description:       "Refund of payment " + p.PaymentNumber + ": " + reason,
		Reference:         p.PaymentNumber,
		PaymentID:         &p.ID,
		InvoiceID:         &p.InvoiceID,
		TransactionDate:   now,
		BaseModel:         types.GetDefaultBaseModel(ctx),
	}
}

func (s *paymentService) invalidTransition(p *payment.Payment, target types.PaymentStatus) error {
	return ierr.NewError("invalid payment state transition").
		WithHintf("Cannot move payment from %s to %s", p.PaymentStatus, target).
		WithReportableDetails(map[string]any{
			"payment_id":     p.ID,
			"current_status": p.PaymentStatus,
			"target_status":  target,
		}).
		Mark(ierr.ErrInvalidOperation)
}

func appendNote(existing, note string) string {
	if existing == "" {
		return note
	}
	return existing + "; " + note
}
