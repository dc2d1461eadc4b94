package testutil

import (
	"context"
	"time"

	"github.com/feebridge/feebridge/internal/config"
	"github.com/feebridge/feebridge/internal/domain/fee"
	"github.com/feebridge/feebridge/internal/domain/invoice"
	"github.com/feebridge/feebridge/internal/domain/ledger"
	"github.com/feebridge/feebridge/internal/domain/payment"
	"github.com/feebridge/feebridge/internal/domain/plan"
	"github.com/feebridge/feebridge/internal/domain/settings"
	"github.com/feebridge/feebridge/internal/domain/subscription"
	"github.com/feebridge/feebridge/internal/domain/tenant"
	"github.com/feebridge/feebridge/internal/idempotency"
	"github.com/feebridge/feebridge/internal/logger"
	"github.com/feebridge/feebridge/internal/postgres"
	"github.com/feebridge/feebridge/internal/types"
	"github.com/feebridge/feebridge/internal/validator"
	webhookPublisher "github.com/feebridge/feebridge/internal/webhook/publisher"
	"github.com/stretchr/testify/suite"
)

// Stores holds all the repository interfaces for testing
type Stores struct {
	PlanRepo     plan.Repository
	FeeRepo      fee.Repository
	SubRepo      subscription.Repository
	InvoiceRepo  invoice.Repository
	PaymentRepo  payment.Repository
	LedgerRepo   ledger.Repository
	SettingsRepo settings.Repository
	TenantRepo   tenant.Repository
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx              context.Context
	stores           Stores
	pubsub           *InMemoryPubSub
	webhookPublisher webhookPublisher.WebhookPublisher
	gateway          *MockPaymentGateway
	db               postgres.IClient
	idempGen         *idempotency.Generator
	logger           *logger.Logger
	config           *config.Configuration
	now              time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	validator.NewValidator()

	cfg := &config.Configuration{
		Logging: config.LoggingConfig{
			Level: types.LogLevelInfo,
		},
		Webhook: config.WebhookConfig{
			Topic: "billing_events",
		},
		Billing: config.BillingConfig{
			DefaultCurrency:  "USD",
			DefaultTaxRate:   0,
			GracePeriodDays:  7,
			GatewayTimeout:   50 * time.Millisecond,
			RecomputeRetries: 3,
		},
	}
	var err error
	s.config = cfg
	s.logger, err = logger.NewLogger(cfg)
	if err != nil {
		s.T().Fatalf("failed to create logger: %v", err)
	}
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.setupContext()
	s.setupStores()
	s.now = time.Now().UTC()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.clearStores()
}

func (s *BaseServiceTestSuite) setupContext() {
	s.ctx = SetupContext()
}

func (s *BaseServiceTestSuite) setupStores() {
	tenants := NewInMemoryTenantStore()
	tenants.Add(&tenant.Tenant{
		ID:     types.DefaultTenantID,
		Name:   "Default School",
		Active: true,
	})

	s.stores = Stores{
		PlanRepo:     NewInMemoryPlanStore(),
		FeeRepo:      NewInMemoryFeeStore(),
		SubRepo:      NewInMemorySubscriptionStore(),
		InvoiceRepo:  NewInMemoryInvoiceStore(),
		PaymentRepo:  NewInMemoryPaymentStore(),
		LedgerRepo:   NewInMemoryLedgerStore(),
		SettingsRepo: NewInMemorySettingsStore(),
		TenantRepo:   tenants,
	}

	s.db = NewMockPostgresClient(s.logger)
	s.gateway = NewMockPaymentGateway()
	s.idempGen = idempotency.NewGenerator()
	s.pubsub = NewInMemoryPubSub()

	publisher, err := webhookPublisher.NewPublisher(s.pubsub, s.config, s.logger)
	if err != nil {
		s.T().Fatalf("failed to create webhook publisher: %v", err)
	}
	s.webhookPublisher = publisher
}

func (s *BaseServiceTestSuite) clearStores() {
	s.stores.PlanRepo.(*InMemoryPlanStore).Clear()
	s.stores.FeeRepo.(*InMemoryFeeStore).Clear()
	s.stores.SubRepo.(*InMemorySubscriptionStore).Clear()
	s.stores.InvoiceRepo.(*InMemoryInvoiceStore).Clear()
	s.stores.PaymentRepo.(*InMemoryPaymentStore).Clear()
	s.stores.LedgerRepo.(*InMemoryLedgerStore).Clear()
	s.stores.SettingsRepo.(*InMemorySettingsStore).Clear()
	s.stores.TenantRepo.(*InMemoryTenantStore).Clear()
	s.pubsub.ClearMessages()
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetStores returns all test repositories
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetPubSub returns the in-memory pubsub behind the webhook publisher
func (s *BaseServiceTestSuite) GetPubSub() *InMemoryPubSub {
	return s.pubsub
}

// GetWebhookPublisher returns the test webhook publisher
func (s *BaseServiceTestSuite) GetWebhookPublisher() webhookPublisher.WebhookPublisher {
	return s.webhookPublisher
}

// GetGateway returns the scriptable payment gateway
func (s *BaseServiceTestSuite) GetGateway() *MockPaymentGateway {
	return s.gateway
}

// GetDB returns the test database client
func (s *BaseServiceTestSuite) GetDB() postgres.IClient {
	return s.db
}

// GetIdempotencyGenerator returns the idempotency key generator
func (s *BaseServiceTestSuite) GetIdempotencyGenerator() *idempotency.Generator {
	return s.idempGen
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetNow returns the current test time
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now
}
