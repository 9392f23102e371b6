package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds environment-driven configuration.
type Config struct {
	Addr                string
	GraphQLURL          string
	JWTSecret           string
	DatabaseURL         string
	TaxRate             decimal.Decimal
	PromoDiscount       decimal.Decimal
	PlaceholderImageURL string
	HydrateConcurrency  int
	SettleTimeout       time.Duration
	WebhookSecret       string
	CartPagePath        string
	LogLevel            string
}

const (
	defaultAddr        = ":8080"
	defaultTaxRate     = "0.13"
	defaultPlaceholder = "/static/placeholder.png"
	defaultConcurrency = 8
	defaultSettle      = 30 * time.Second
	defaultCartPage    = "/cart"
)

// Load reads .env (if present) and then configuration from environment variables.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from the given lookup function.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Addr:                orDefault(getenv("STOREFRONT_ADDR"), defaultAddr),
		GraphQLURL:          getenv("GRAPHQL_URL"),
		JWTSecret:           getenv("JWT_SECRET"),
		DatabaseURL:         getenv("DATABASE_URL"),
		PlaceholderImageURL: orDefault(getenv("PLACEHOLDER_IMAGE_URL"), defaultPlaceholder),
		WebhookSecret:       getenv("PAYMENT_WEBHOOK_SECRET"),
		CartPagePath:        orDefault(getenv("CART_PAGE_PATH"), defaultCartPage),
		LogLevel:            orDefault(getenv("LOG_LEVEL"), "info"),
	}
	if cfg.GraphQLURL == "" {
		return Config{}, fmt.Errorf("config: GRAPHQL_URL is not set")
	}

	var err error
	if cfg.TaxRate, err = decimal.NewFromString(orDefault(getenv("TAX_RATE"), defaultTaxRate)); err != nil {
		return Config{}, fmt.Errorf("config: TAX_RATE: %w", err)
	}
	if cfg.TaxRate.IsNegative() {
		return Config{}, fmt.Errorf("config: TAX_RATE must not be negative")
	}
	if cfg.PromoDiscount, err = decimal.NewFromString(orDefault(getenv("PROMO_DISCOUNT"), "0")); err != nil {
		return Config{}, fmt.Errorf("config: PROMO_DISCOUNT: %w", err)
	}

	cfg.HydrateConcurrency = defaultConcurrency
	if v := getenv("HYDRATE_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("config: HYDRATE_CONCURRENCY must be a positive integer, got %q", v)
		}
		cfg.HydrateConcurrency = n
	}

	cfg.SettleTimeout = defaultSettle
	if v := getenv("PAYMENT_SETTLE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: PAYMENT_SETTLE_TIMEOUT: %w", err)
		}
		cfg.SettleTimeout = d
	}

	return cfg, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
