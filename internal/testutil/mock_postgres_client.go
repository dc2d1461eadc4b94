package testutil

import (
	"context"

	"github.com/feebridge/feebridge/internal/logger"
	"github.com/feebridge/feebridge/internal/postgres"
)

var _ postgres.IClient = (*MockPostgresClient)(nil)

// MockPostgresClient satisfies postgres.IClient for tests that run the
// service layer against in-memory repositories. The in-memory stores
// are individually atomic, so WithTx just runs the function. Savepoint
// rollback is not simulated; tests asserting on partial failures check
// store contents directly.
type MockPostgresClient struct {
	logger *logger.Logger
}

// NewMockPostgresClient creates a new mock postgres client
func NewMockPostgresClient(logger *logger.Logger) postgres.IClient {
	return &MockPostgresClient{logger: logger}
}

// WithTx executes the given function without a real transaction
func (c *MockPostgresClient) WithTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

// Querier is unused by the in-memory repositories
func (c *MockPostgresClient) Querier(ctx context.Context) postgres.Querier {
	return nil
}
