package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/feebridge/feebridge/internal/domain/ledger"
	ierr "github.com/feebridge/feebridge/internal/errors"
	"github.com/feebridge/feebridge/internal/types"
)

// InMemoryLedgerStore implements ledger.Repository. Append-only, with
// the same one-transaction-per-payment-and-type constraint the postgres
// schema enforces.
type InMemoryLedgerStore struct {
	mu           sync.RWMutex
	transactions map[string]*ledger.Transaction
}

// NewInMemoryLedgerStore creates a new in-memory ledger store
func NewInMemoryLedgerStore() *InMemoryLedgerStore {
	return &InMemoryLedgerStore{
		transactions: make(map[string]*ledger.Transaction),
	}
}

func (s *InMemoryLedgerStore) Create(ctx context.Context, t *ledger.Transaction) error {
	if t == nil {
		return ierr.NewError("transaction cannot be nil").
			WithHint("Transaction data is required").
			Mark(ierr.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.transactions[t.ID]; exists {
		return ierr.NewError("transaction already exists").
			WithHint("A transaction with this identifier already exists").
			Mark(ierr.ErrAlreadyExists)
	}

	if t.PaymentID != nil {
		for _, existing := range s.transactions {
			if existing.TenantID != t.TenantID || existing.PaymentID == nil {
				continue
			}
			if *existing.PaymentID == *t.PaymentID && existing.TransactionType == t.TransactionType {
				return ierr.NewError("duplicate transaction").
					WithHint("A transaction already exists for this payment").
					WithReportableDetails(map[string]any{
						"transaction_number": t.TransactionNumber,
						"payment_id":         t.PaymentID,
					}).
					Mark(ierr.ErrAlreadyExists)
			}
		}
	}

	cp := *t
	s.transactions[t.ID] = &cp
	return nil
}

func (s *InMemoryLedgerStore) Get(ctx context.Context, id string) (*ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.transactions[id]
	if !exists || t.TenantID != types.GetTenantID(ctx) || t.Status != types.StatusPublished {
		return nil, ierr.NewError("transaction not found").
			WithHint("The requested transaction does not exist").
			WithReportableDetails(map[string]any{"transaction_id": id}).
			Mark(ierr.ErrNotFound)
	}
	cp := *t
	return &cp, nil
}

func transactionFilterFn(ctx context.Context, t *ledger.Transaction, filter interface{}) bool {
	if t == nil {
		return false
	}

	if tenantID, ok := ctx.Value(types.CtxTenantID).(string); ok {
		if t.TenantID != tenantID {
			return false
		}
	}
	if t.Status != types.StatusPublished {
		return false
	}

	f, ok := filter.(*types.TransactionFilter)
	if !ok || f == nil {
		return true
	}

	if f.TransactionType != nil && t.TransactionType != *f.TransactionType {
		return false
	}
	if f.PaymentID != nil && (t.PaymentID == nil || *t.PaymentID != *f.PaymentID) {
		return false
	}
	if f.InvoiceID != nil && (t.InvoiceID == nil || *t.InvoiceID != *f.InvoiceID) {
		return false
	}
	if f.TimeRangeFilter != nil {
		if f.StartTime != nil && t.TransactionDate.Before(*f.StartTime) {
			return false
		}
		if f.EndTime != nil && t.TransactionDate.After(*f.EndTime) {
			return false
		}
	}
	return true
}

func (s *InMemoryLedgerStore) List(ctx context.Context, filter *types.TransactionFilter) ([]*ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*ledger.Transaction, 0)
	for _, t := range s.transactions {
		if transactionFilterFn(ctx, t, filter) {
			cp := *t
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].TransactionDate.After(result[j].TransactionDate)
	})

	if filter != nil && !filter.IsUnlimited() {
		start := filter.GetOffset()
		if start >= len(result) {
			return []*ledger.Transaction{}, nil
		}
		end := start + filter.GetLimit()
		if end > len(result) {
			end = len(result)
		}
		return result[start:end], nil
	}
	return result, nil
}

func (s *InMemoryLedgerStore) Count(ctx context.Context, filter *types.TransactionFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, t := range s.transactions {
		if transactionFilterFn(ctx, t, filter) {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryLedgerStore) ListByPayment(ctx context.Context, paymentID string) ([]*ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tenantID := types.GetTenantID(ctx)
	result := make([]*ledger.Transaction, 0)
	for _, t := range s.transactions {
		if t.TenantID != tenantID || t.Status != types.StatusPublished {
			continue
		}
		if t.PaymentID != nil && *t.PaymentID == paymentID {
			cp := *t
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].TransactionDate.Before(result[j].TransactionDate)
	})
	return result, nil
}

// Clear removes all transactions from the store
func (s *InMemoryLedgerStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = make(map[string]*ledger.Transaction)
}
