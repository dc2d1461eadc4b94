package testutil

import (
	"context"
	"sync"

	"github.com/feebridge/feebridge/internal/domain/settings"
	ierr "github.com/feebridge/feebridge/internal/errors"
)

// InMemorySettingsStore implements settings.Repository. One row per
// tenant, keyed by tenant id.
type InMemorySettingsStore struct {
	mu       sync.RWMutex
	byTenant map[string]*settings.BillingSettings
}

// NewInMemorySettingsStore creates a new in-memory settings store
func NewInMemorySettingsStore() *InMemorySettingsStore {
	return &InMemorySettingsStore{
		byTenant: make(map[string]*settings.BillingSettings),
	}
}

func (s *InMemorySettingsStore) Create(ctx context.Context, bs *settings.BillingSettings) error {
	if bs == nil {
		return ierr.NewError("settings cannot be nil").
			WithHint("Settings data is required").
			Mark(ierr.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byTenant[bs.TenantID]; exists {
		return ierr.NewError("settings already exist").
			WithHint("Billing settings already exist for this tenant").
			WithReportableDetails(map[string]any{"tenant_id": bs.TenantID}).
			Mark(ierr.ErrAlreadyExists)
	}
	cp := *bs
	s.byTenant[bs.TenantID] = &cp
	return nil
}

func (s *InMemorySettingsStore) GetByTenant(ctx context.Context, tenantID string) (*settings.BillingSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bs, exists := s.byTenant[tenantID]
	if !exists {
		return nil, ierr.NewError("settings not found").
			WithHint("No billing settings exist for this tenant").
			WithReportableDetails(map[string]any{"tenant_id": tenantID}).
			Mark(ierr.ErrNotFound)
	}
	cp := *bs
	return &cp, nil
}

func (s *InMemorySettingsStore) Update(ctx context.Context, bs *settings.BillingSettings) error {
	if bs == nil {
		return ierr.NewError("settings cannot be nil").
			WithHint("Settings data is required").
			Mark(ierr.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byTenant[bs.TenantID]; !exists {
		return ierr.NewError("settings not found").
			WithHint("No billing settings exist for this tenant").
			WithReportableDetails(map[string]any{"tenant_id": bs.TenantID}).
			Mark(ierr.ErrNotFound)
	}
	cp := *bs
	s.byTenant[bs.TenantID] = &cp
	return nil
}

// Clear removes all settings from the store
func (s *InMemorySettingsStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byTenant = make(map[string]*settings.BillingSettings)
}
