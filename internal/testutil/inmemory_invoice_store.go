package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/feebridge/feebridge/internal/domain/invoice"
	ierr "github.com/feebridge/feebridge/internal/errors"
	"github.com/feebridge/feebridge/internal/types"
)

// InMemoryInvoiceStore implements invoice.Repository with the same
// concurrency semantics as the postgres implementation: optimistic
// version checks on update and unique invoice numbers and idempotency
// keys per tenant.
type InMemoryInvoiceStore struct {
	mu       sync.RWMutex
	invoices map[string]*invoice.Invoice
}

// NewInMemoryInvoiceStore creates a new in-memory invoice store
func NewInMemoryInvoiceStore() *InMemoryInvoiceStore {
	return &InMemoryInvoiceStore{
		invoices: make(map[string]*invoice.Invoice),
	}
}

func copyInvoice(inv *invoice.Invoice) *invoice.Invoice {
	cp := *inv
	cp.LineItems = append([]*invoice.LineItem(nil), inv.LineItems...)
	return &cp
}

func (s *InMemoryInvoiceStore) CreateWithLineItems(ctx context.Context, inv *invoice.Invoice) error {
	if inv == nil {
		return ierr.NewError("invoice cannot be nil").
			WithHint("Invoice data is required").
			Mark(ierr.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.invoices[inv.ID]; exists {
		return ierr.NewError("invoice already exists").
			WithHint("An invoice with this identifier already exists").
			Mark(ierr.ErrAlreadyExists)
	}

	for _, existing := range s.invoices {
		if existing.TenantID != inv.TenantID {
			continue
		}
		if existing.InvoiceNumber == inv.InvoiceNumber {
			return ierr.NewError("invoice number already taken").
				WithHint("An invoice with this number already exists").
				WithReportableDetails(map[string]any{"invoice_number": inv.InvoiceNumber}).
				Mark(ierr.ErrAlreadyExists)
		}
		if inv.IdempotencyKey != nil && existing.IdempotencyKey != nil &&
			*existing.IdempotencyKey == *inv.IdempotencyKey {
			return ierr.NewError("duplicate invoice").
				WithHint("An invoice already exists for this idempotency key").
				WithReportableDetails(map[string]any{"idempotency_key": *inv.IdempotencyKey}).
				Mark(ierr.ErrAlreadyExists)
		}
	}

	s.invoices[inv.ID] = copyInvoice(inv)
	return nil
}

func (s *InMemoryInvoiceStore) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, exists := s.invoices[id]
	if !exists || inv.TenantID != types.GetTenantID(ctx) || inv.Status != types.StatusPublished {
		return nil, ierr.NewError("invoice not found").
			WithHint("The requested invoice does not exist").
			WithReportableDetails(map[string]any{"invoice_id": id}).
			Mark(ierr.ErrNotFound)
	}
	return copyInvoice(inv), nil
}

func (s *InMemoryInvoiceStore) GetByIdempotencyKey(ctx context.Context, key string) (*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tenantID := types.GetTenantID(ctx)
	for _, inv := range s.invoices {
		if inv.TenantID != tenantID || inv.Status != types.StatusPublished {
			continue
		}
		if inv.IdempotencyKey != nil && *inv.IdempotencyKey == key {
			return copyInvoice(inv), nil
		}
	}
	return nil, ierr.NewError("invoice not found").
		WithHint("No invoice exists for this idempotency key").
		WithReportableDetails(map[string]any{"idempotency_key": key}).
		Mark(ierr.ErrNotFound)
}

// Update applies an optimistic concurrency check: the write succeeds
// only when the stored version matches the caller's version, and bumps
// the version by one.
func (s *InMemoryInvoiceStore) Update(ctx context.Context, inv *invoice.Invoice) error {
	if inv == nil {
		return ierr.NewError("invoice cannot be nil").
			WithHint("Invoice data is required").
			Mark(ierr.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.invoices[inv.ID]
	if !exists || existing.TenantID != inv.TenantID {
		return ierr.NewError("invoice not found").
			WithHint("The invoice to update does not exist").
			WithReportableDetails(map[string]any{"invoice_id": inv.ID}).
			Mark(ierr.ErrNotFound)
	}
	if existing.Version != inv.Version {
		return ierr.NewError("invoice was modified concurrently").
			WithHint("The invoice was updated by another request, retry with fresh data").
			WithReportableDetails(map[string]any{
				"invoice_id": inv.ID,
				"version":    inv.Version,
			}).
			Mark(ierr.ErrVersionConflict)
	}

	inv.Version++
	s.invoices[inv.ID] = copyInvoice(inv)
	return nil
}

func invoiceFilterFn(ctx context.Context, inv *invoice.Invoice, filter interface{}) bool {
	if inv == nil {
		return false
	}

	if tenantID, ok := ctx.Value(types.CtxTenantID).(string); ok {
		if inv.TenantID != tenantID {
			return false
		}
	}
	if inv.Status != types.StatusPublished {
		return false
	}

	f, ok := filter.(*types.InvoiceFilter)
	if !ok || f == nil {
		return true
	}

	if f.StudentID != nil && (inv.StudentID == nil || *inv.StudentID != *f.StudentID) {
		return false
	}
	if f.SubscriptionID != nil && (inv.SubscriptionID == nil || *inv.SubscriptionID != *f.SubscriptionID) {
		return false
	}
	if f.InvoiceStatus != nil && inv.InvoiceStatus != *f.InvoiceStatus {
		return false
	}
	if f.TimeRangeFilter != nil {
		if f.StartTime != nil && inv.IssueDate.Before(*f.StartTime) {
			return false
		}
		if f.EndTime != nil && inv.IssueDate.After(*f.EndTime) {
			return false
		}
	}
	return true
}

func (s *InMemoryInvoiceStore) List(ctx context.Context, filter *types.InvoiceFilter) ([]*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*invoice.Invoice, 0)
	for _, inv := range s.invoices {
		if invoiceFilterFn(ctx, inv, filter) {
			result = append(result, copyInvoice(inv))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if filter != nil && !filter.IsUnlimited() {
		start := filter.GetOffset()
		if start >= len(result) {
			return []*invoice.Invoice{}, nil
		}
		end := start + filter.GetLimit()
		if end > len(result) {
			end = len(result)
		}
		return result[start:end], nil
	}
	return result, nil
}

func (s *InMemoryInvoiceStore) Count(ctx context.Context, filter *types.InvoiceFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, inv := range s.invoices {
		if invoiceFilterFn(ctx, inv, filter) {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryInvoiceStore) ExistsByNumber(ctx context.Context, invoiceNumber string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tenantID := types.GetTenantID(ctx)
	for _, inv := range s.invoices {
		if inv.TenantID == tenantID && inv.InvoiceNumber == invoiceNumber {
			return true, nil
		}
	}
	return false, nil
}

// ListDue ignores tenant scoping the way the sweep query does.
func (s *InMemoryInvoiceStore) ListDue(ctx context.Context, now time.Time) ([]*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*invoice.Invoice, 0)
	for _, inv := range s.invoices {
		if inv.Status != types.StatusPublished {
			continue
		}
		switch inv.InvoiceStatus {
		case types.InvoiceStatusSent, types.InvoiceStatusPartiallyPaid:
		default:
			continue
		}
		if inv.DueDate.Before(now) {
			result = append(result, copyInvoice(inv))
		}
	}
	return result, nil
}

// Clear removes all invoices from the store
func (s *InMemoryInvoiceStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invoices = make(map[string]*invoice.Invoice)
}
