package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/feebridge/feebridge/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Server     ServerConfig     `validate:"required"`
	Logging    LoggingConfig    `validate:"required"`
	Postgres   PostgresConfig
	Webhook    WebhookConfig `validate:"required"`
	Billing    BillingConfig `validate:"required"`
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type ServerConfig struct {
	Address string `validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type WebhookConfig struct {
	Topic string `validate:"required"`
}

// BillingConfig carries tenant-independent billing defaults. Per-tenant
// overrides live in BillingSettings.
type BillingConfig struct {
	DefaultCurrency  string        `validate:"required,len=3"`
	DefaultTaxRate   float64       `validate:"min=0,max=1"`
	GracePeriodDays  int           `validate:"min=0"`
	GatewayTimeout   time.Duration `validate:"required"`
	RecomputeRetries int           `validate:"min=1"`
}

// GetDSN returns the postgres connection string
func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// DefaultTaxRateDecimal returns the configured default tax rate as a decimal
func (c BillingConfig) DefaultTaxRateDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.DefaultTaxRate)
}

func NewConfig() (*Configuration, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/feebridge")

	v.SetEnvPrefix("FEEBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", string(types.ModeLocal))
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", string(types.LogLevelInfo))
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("webhook.topic", "billing_events")
	v.SetDefault("billing.defaultcurrency", "USD")
	v.SetDefault("billing.defaulttaxrate", 0.0)
	v.SetDefault("billing.graceperioddays", 7)
	v.SetDefault("billing.gatewaytimeout", "30s")
	v.SetDefault("billing.recomputeretries", 3)
}

// Validate validates the configuration
func (c Configuration) Validate() error {
	return validator.New(validator.WithRequiredStructEnabled()).Struct(c)
}
