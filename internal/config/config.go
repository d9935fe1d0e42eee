// Package config loads service settings from the environment, an optional
// .env file and an optional config file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/atmosgear/skate-league/internal/database"
)

// Config is the resolved service configuration.
type Config struct {
	Port     string
	Database database.Config

	StripeSecretKey string
	Currency        string
	EventFee        int64 // minor units
	PaymentProduct  string

	BrevoAPIKey     string
	BrevoAPIURL     string
	BrevoTemplateID int
	EmailTimeout    time.Duration

	AdminPassword  string
	TestSecret     string
	SupportEmail   string
	EventsFile     string
	AdminRateLimit float64 // requests per second per client
	AdminRateBurst int
}

// EmailEnabled reports whether a Brevo key is configured.
func (c *Config) EmailEnabled() bool {
	return c.BrevoAPIKey != ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_DRIVER", database.DriverPostgres)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "skate_league")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("SQLITE_PATH", "league.db")
	v.SetDefault("PAYMENT_CURRENCY", "eur")
	v.SetDefault("EVENT_FEE", 3500)
	v.SetDefault("PAYMENT_PRODUCT", "Inscription Atmos Skate League")
	v.SetDefault("BREVO_TEMPLATE_ID", 1)
	v.SetDefault("EMAIL_TIMEOUT", 10*time.Second)
	v.SetDefault("SUPPORT_EMAIL", "contact@atmosgear.com")
	v.SetDefault("ADMIN_RATE_LIMIT", 1.0)
	v.SetDefault("ADMIN_RATE_BURST", 5)
}

// keys read from the environment; viper only binds env vars for keys it knows.
var keys = []string{
	"PORT", "DATABASE_DRIVER", "DATABASE_URL",
	"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE", "SQLITE_PATH",
	"STRIPE_SECRET_KEY", "PAYMENT_CURRENCY", "EVENT_FEE", "PAYMENT_PRODUCT",
	"BREVO_API_KEY", "BREVO_API_URL", "BREVO_TEMPLATE_ID", "EMAIL_TIMEOUT",
	"ADMIN_PASSWORD", "TEST_REGISTRATION_SECRET", "SUPPORT_EMAIL", "EVENTS_FILE",
	"ADMIN_RATE_LIMIT", "ADMIN_RATE_BURST",
}

// Load resolves the configuration. Precedence, highest first: process
// environment, .env in the working directory, the config file at path (if
// path is non-empty), defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return nil, err
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{
		Port: v.GetString("PORT"),
		Database: database.Config{
			Driver:     strings.ToLower(v.GetString("DATABASE_DRIVER")),
			URL:        v.GetString("DATABASE_URL"),
			Host:       v.GetString("DB_HOST"),
			Port:       v.GetString("DB_PORT"),
			User:       v.GetString("DB_USER"),
			Password:   v.GetString("DB_PASSWORD"),
			DBName:     v.GetString("DB_NAME"),
			SSLMode:    v.GetString("DB_SSLMODE"),
			SQLitePath: v.GetString("SQLITE_PATH"),
		},
		StripeSecretKey: v.GetString("STRIPE_SECRET_KEY"),
		Currency:        strings.ToLower(v.GetString("PAYMENT_CURRENCY")),
		EventFee:        v.GetInt64("EVENT_FEE"),
		PaymentProduct:  v.GetString("PAYMENT_PRODUCT"),
		BrevoAPIKey:     v.GetString("BREVO_API_KEY"),
		BrevoAPIURL:     v.GetString("BREVO_API_URL"),
		BrevoTemplateID: v.GetInt("BREVO_TEMPLATE_ID"),
		EmailTimeout:    v.GetDuration("EMAIL_TIMEOUT"),
		AdminPassword:   v.GetString("ADMIN_PASSWORD"),
		TestSecret:      v.GetString("TEST_REGISTRATION_SECRET"),
		SupportEmail:    v.GetString("SUPPORT_EMAIL"),
		EventsFile:      v.GetString("EVENTS_FILE"),
		AdminRateLimit:  v.GetFloat64("ADMIN_RATE_LIMIT"),
		AdminRateBurst:  v.GetInt("ADMIN_RATE_BURST"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case database.DriverPostgres, database.DriverSQLite:
	default:
		return fmt.Errorf("DATABASE_DRIVER must be %q or %q, got %q",
			database.DriverPostgres, database.DriverSQLite, c.Database.Driver)
	}
	if c.EventFee <= 0 {
		return fmt.Errorf("EVENT_FEE must be positive, got %d", c.EventFee)
	}
	if c.EmailTimeout <= 0 {
		return fmt.Errorf("EMAIL_TIMEOUT must be positive, got %s", c.EmailTimeout)
	}
	if c.AdminRateLimit <= 0 || c.AdminRateBurst <= 0 {
		return errors.New("ADMIN_RATE_LIMIT and ADMIN_RATE_BURST must be positive")
	}
	return nil
}

// RequireStripe reports an error when no processor key is configured.
func (c *Config) RequireStripe() error {
	if c.StripeSecretKey == "" {
		return errors.New("STRIPE_SECRET_KEY is not set")
	}
	return nil
}
