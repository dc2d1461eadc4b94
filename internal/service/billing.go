package service

import (
	"context"
	"time"

	"github.com/feebridge/feebridge/internal/api/dto"
	"github.com/feebridge/feebridge/internal/types"
)

// BillingService orchestrates the recurring billing run: one invoice per
// recurring fee per billing period per tenant. Runs are safe to overlap
// and to repeat; the invoice idempotency key arbitrates duplicates.
type BillingService interface {
	RunBillingCycle(ctx context.Context, now time.Time) (*dto.BillingRunResponse, error)
}

type billingService struct {
	ServiceParams
}

func NewBillingService(params ServiceParams) BillingService {
	return &billingService{ServiceParams: params}
}

func (s *billingService) RunBillingCycle(ctx context.Context, now time.Time) (*dto.BillingRunResponse, error) {
	tenants, err := s.TenantRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	response := &dto.BillingRunResponse{
		Period:         now.UTC().Format("2006-01"),
		TenantsVisited: len(tenants),
	}

	invoiceSvc := NewInvoiceService(s.ServiceParams)
	settingsSvc := NewSettingsService(s.ServiceParams)

	for _, t := range tenants {
		tenantCtx := types.SetTenantID(ctx, t.ID)
		result := dto.TenantBillingRunResult{TenantID: t.ID}

		billing, err := settingsSvc.GetOrDefault(tenantCtx)
		if err != nil {
			s.Logger.Errorw("billing run could not load settings",
				"error", err,
				"tenant_id", t.ID)
			result.FailureCount++
			s.accumulate(response, result)
			continue
		}
		if !billing.AutoGenerateInvoices {
			s.accumulate(response, result)
			continue
		}

		feeFilter := types.NewNoLimitFeeFilter()
		feeFilter.RecurringOnly = true
		fees, err := s.FeeRepo.List(tenantCtx, feeFilter)
		if err != nil {
			s.Logger.Errorw("billing run could not list fees",
				"error", err,
				"tenant_id", t.ID)
			result.FailureCount++
			s.accumulate(response, result)
			continue
		}

		for _, f := range fees {
			if !f.Active {
				continue
			}

			periodKey := f.RecurringFrequency.PeriodKey(now)
			created, err := invoiceSvc.CreateRecurringFeeInvoice(tenantCtx, f, periodKey, now)
			if err != nil {
				s.Logger.Errorw("billing run failed for fee",
					"error", err,
					"tenant_id", t.ID,
					"fee_id", f.ID,
					"period", periodKey)
				result.FailureCount++
				continue
			}
			if created {
				result.InvoicesCreated++
			} else {
				result.InvoicesSkipped++
			}
		}

		s.accumulate(response, result)
	}

	s.Logger.Infow("billing cycle finished",
		"period", response.Period,
		"tenants_visited", response.TenantsVisited,
		"invoices_created", response.InvoicesCreated,
		"invoices_skipped", response.InvoicesSkipped,
		"failures", response.FailureCount)

	return response, nil
}

func (s *billingService) accumulate(response *dto.BillingRunResponse, result dto.TenantBillingRunResult) {
	response.InvoicesCreated += result.InvoicesCreated
	response.InvoicesSkipped += result.InvoicesSkipped
	response.FailureCount += result.FailureCount
	response.Tenants = append(response.Tenants, result)
}
