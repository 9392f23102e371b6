package config

import (
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{"GRAPHQL_URL": "http://api/graphql"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("expected default addr, got %q", cfg.Addr)
	}
	if cfg.TaxRate.String() != "0.13" {
		t.Fatalf("expected default tax rate 0.13, got %s", cfg.TaxRate)
	}
	if !cfg.PromoDiscount.IsZero() {
		t.Fatalf("expected zero discount, got %s", cfg.PromoDiscount)
	}
	if cfg.SettleTimeout != 30*time.Second {
		t.Fatalf("expected 30s settle timeout, got %s", cfg.SettleTimeout)
	}
	if cfg.CartPagePath != "/cart" {
		t.Fatalf("unexpected cart page %q", cfg.CartPagePath)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		"GRAPHQL_URL":            "http://api/graphql",
		"TAX_RATE":               "0.10",
		"PROMO_DISCOUNT":         "5",
		"HYDRATE_CONCURRENCY":    "2",
		"PAYMENT_SETTLE_TIMEOUT": "5s",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.TaxRate.String() != "0.1" || cfg.PromoDiscount.String() != "5" {
		t.Fatalf("unexpected pricing config %s / %s", cfg.TaxRate, cfg.PromoDiscount)
	}
	if cfg.HydrateConcurrency != 2 || cfg.SettleTimeout != 5*time.Second {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestFromEnv_Errors(t *testing.T) {
	cases := []map[string]string{
		{},
		{"GRAPHQL_URL": "x", "TAX_RATE": "abc"},
		{"GRAPHQL_URL": "x", "TAX_RATE": "-0.1"},
		{"GRAPHQL_URL": "x", "HYDRATE_CONCURRENCY": "0"},
		{"GRAPHQL_URL": "x", "PAYMENT_SETTLE_TIMEOUT": "soon"},
	}
	for i, env := range cases {
		if _, err := FromEnv(envMap(env)); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}
