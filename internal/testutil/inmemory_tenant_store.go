package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/feebridge/feebridge/internal/domain/tenant"
	ierr "github.com/feebridge/feebridge/internal/errors"
)

// InMemoryTenantStore implements tenant.Repository
type InMemoryTenantStore struct {
	mu      sync.RWMutex
	tenants map[string]*tenant.Tenant
}

// NewInMemoryTenantStore creates a new in-memory tenant store
func NewInMemoryTenantStore() *InMemoryTenantStore {
	return &InMemoryTenantStore{
		tenants: make(map[string]*tenant.Tenant),
	}
}

// Add seeds a tenant, test setup only
func (s *InMemoryTenantStore) Add(t *tenant.Tenant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenants[t.ID] = t
}

func (s *InMemoryTenantStore) Get(ctx context.Context, id string) (*tenant.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.tenants[id]
	if !exists {
		return nil, ierr.NewError("tenant not found").
			WithHint("The requested tenant does not exist").
			WithReportableDetails(map[string]any{"tenant_id": id}).
			Mark(ierr.ErrNotFound)
	}
	return t, nil
}

func (s *InMemoryTenantStore) ListActive(ctx context.Context) ([]*tenant.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*tenant.Tenant, 0)
	for _, t := range s.tenants {
		if t.Active {
			result = append(result, t)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// Clear removes all tenants from the store
func (s *InMemoryTenantStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenants = make(map[string]*tenant.Tenant)
}
