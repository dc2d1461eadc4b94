package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/feebridge/feebridge/internal/domain/payment"
	ierr "github.com/feebridge/feebridge/internal/errors"
	"github.com/feebridge/feebridge/internal/types"
)

// InMemoryPaymentStore implements payment.Repository with the same
// optimistic locking semantics as the postgres implementation.
type InMemoryPaymentStore struct {
	mu       sync.RWMutex
	payments map[string]*payment.Payment
}

// NewInMemoryPaymentStore creates a new in-memory payment store
func NewInMemoryPaymentStore() *InMemoryPaymentStore {
	return &InMemoryPaymentStore{
		payments: make(map[string]*payment.Payment),
	}
}

func copyPayment(p *payment.Payment) *payment.Payment {
	cp := *p
	return &cp
}

func (s *InMemoryPaymentStore) Create(ctx context.Context, p *payment.Payment) error {
	if p == nil {
		return ierr.NewError("payment cannot be nil").
			WithHint("Payment data is required").
			Mark(ierr.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.payments[p.ID]; exists {
		return ierr.NewError("payment already exists").
			WithHint("A payment with this identifier already exists").
			Mark(ierr.ErrAlreadyExists)
	}
	s.payments[p.ID] = copyPayment(p)
	return nil
}

func (s *InMemoryPaymentStore) Get(ctx context.Context, id string) (*payment.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.payments[id]
	if !exists || p.TenantID != types.GetTenantID(ctx) || p.Status != types.StatusPublished {
		return nil, ierr.NewError("payment not found").
			WithHint("The requested payment does not exist").
			WithReportableDetails(map[string]any{"payment_id": id}).
			Mark(ierr.ErrNotFound)
	}
	return copyPayment(p), nil
}

// Update applies an optimistic concurrency check: the write succeeds
// only when the stored version matches the caller's version, and bumps
// the version by one.
func (s *InMemoryPaymentStore) Update(ctx context.Context, p *payment.Payment) error {
	if p == nil {
		return ierr.NewError("payment cannot be nil").
			WithHint("Payment data is required").
			Mark(ierr.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.payments[p.ID]
	if !exists || existing.TenantID != p.TenantID {
		return ierr.NewError("payment not found").
			WithHint("The payment to update does not exist").
			WithReportableDetails(map[string]any{"payment_id": p.ID}).
			Mark(ierr.ErrNotFound)
	}
	if existing.Version != p.Version {
		return ierr.NewError("payment was modified concurrently").
			WithHint("The payment was updated by another request, retry with fresh data").
			WithReportableDetails(map[string]any{
				"payment_id": p.ID,
				"version":    p.Version,
			}).
			Mark(ierr.ErrVersionConflict)
	}

	p.Version++
	s.payments[p.ID] = copyPayment(p)
	return nil
}

func paymentFilterFn(ctx context.Context, p *payment.Payment, filter interface{}) bool {
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

	f, ok := filter.(*types.PaymentFilter)
	if !ok || f == nil {
		return true
	}

	if f.InvoiceID != nil && p.InvoiceID != *f.InvoiceID {
		return false
	}
	if f.PaymentMethod != nil && p.PaymentMethod != *f.PaymentMethod {
		return false
	}
	if f.PaymentStatus != nil && p.PaymentStatus != *f.PaymentStatus {
		return false
	}
	if f.TimeRangeFilter != nil {
		if f.StartTime != nil && p.PaymentDate.Before(*f.StartTime) {
			return false
		}
		if f.EndTime != nil && p.PaymentDate.After(*f.EndTime) {
			return false
		}
	}
	return true
}

func (s *InMemoryPaymentStore) List(ctx context.Context, filter *types.PaymentFilter) ([]*payment.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*payment.Payment, 0)
	for _, p := range s.payments {
		if paymentFilterFn(ctx, p, filter) {
			result = append(result, copyPayment(p))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if filter != nil && !filter.IsUnlimited() {
		start := filter.GetOffset()
		if start >= len(result) {
			return []*payment.Payment{}, nil
		}
		end := start + filter.GetLimit()
		if end > len(result) {
			end = len(result)
		}
		return result[start:end], nil
	}
	return result, nil
}

func (s *InMemoryPaymentStore) Count(ctx context.Context, filter *types.PaymentFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, p := range s.payments {
		if paymentFilterFn(ctx, p, filter) {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryPaymentStore) ListByInvoice(ctx context.Context, invoiceID string) ([]*payment.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tenantID := types.GetTenantID(ctx)
	result := make([]*payment.Payment, 0)
	for _, p := range s.payments {
		if p.TenantID != tenantID || p.Status != types.StatusPublished {
			continue
		}
		if p.InvoiceID == invoiceID {
			result = append(result, copyPayment(p))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].PaymentDate.Before(result[j].PaymentDate)
	})
	return result, nil
}

// Clear removes all payments from the store
func (s *InMemoryPaymentStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments = make(map[string]*payment.Payment)
}
