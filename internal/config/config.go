package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required" validate:"required"`

	StripeSecretKey string        `env:"STRIPE_SECRET_KEY,required" validate:"required"`
	StripePublicKey string        `env:"STRIPE_PUBLIC_KEY,required" validate:"required"`
	StripeTimeout   time.Duration `env:"STRIPE_TIMEOUT" envDefault:"10s" validate:"min=1s"`

	UnitPriceCents int64  `env:"UNIT_PRICE_CENTS" envDefault:"299" validate:"gt=0"`
	Currency       string `env:"CURRENCY" envDefault:"USD" validate:"required,iso4217"`

	AdminUsername string `env:"ADMIN_USERNAME,required" validate:"required"`
	AdminPassword string `env:"ADMIN_PASSWORD,required" validate:"required"`

	ResendAPIKey string `env:"RESEND_API_KEY"`
	EmailFrom    string `env:"EMAIL_FROM" validate:"omitempty,email"`

	SentryDSN string `env:"SENTRY_DSN"`

	LogLevel  slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	LogFormat string     `env:"LOG_FORMAT" envDefault:"text" validate:"omitempty,oneof=text json"`
	Port      string     `env:"PORT" envDefault:"8080"`
}

var configValidator = validator.New()

func Load() (*Config, error) {
	var cfg Config

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if err := configValidator.Struct(c); err != nil {
		return err
	}

	hasResendKey := strings.TrimSpace(c.ResendAPIKey) != ""
	hasEmailFrom := strings.TrimSpace(c.EmailFrom) != ""
	if hasResendKey != hasEmailFrom {
		return fmt.Errorf("RESEND_API_KEY and EMAIL_FROM must be set together")
	}

	return nil
}

// ReceiptEmailEnabled reports whether paid orders should trigger a receipt email.
func (c *Config) ReceiptEmailEnabled() bool {
	return strings.TrimSpace(c.ResendAPIKey) != ""
}
