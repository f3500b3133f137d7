// Package config loads engine configuration from environment variables and
// an optional .env file.
package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	// LedgerPath is the default ledger store the CLI operates on.
	LedgerPath string
	// DefaultCurrency is the reporting currency when none is requested.
	DefaultCurrency string
	// RateAPIURL is the primary exchange rate endpoint.
	RateAPIURL string
	// RateAPIFallbackURL is tried when the primary endpoint fails.
	RateAPIFallbackURL string
	// RateTTL is how long fetched exchange rates stay cached.
	RateTTL time.Duration
	// RateTimeout bounds a single rate fetch.
	RateTimeout time.Duration
	// IsProduction switches logging to JSON at info level.
	IsProduction bool
}

// LoadConfig loads configuration from environment variables and a .env file
// if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("BEANS_LEDGER_PATH", "")
	viper.SetDefault("BEANS_DEFAULT_CURRENCY", "USD")
	viper.SetDefault("BEANS_RATE_API_URL", "https://cdn.jsdelivr.net/npm/@fawazahmed0/currency-api@latest/v1")
	viper.SetDefault("BEANS_RATE_API_FALLBACK_URL", "")
	viper.SetDefault("BEANS_RATE_TTL", "24h")
	viper.SetDefault("BEANS_RATE_TIMEOUT", "10s")
	viper.SetDefault("IS_PRODUCTION", false)

	viper.AutomaticEnv()

	cfg := &Config{}
	cfg.LedgerPath = viper.GetString("BEANS_LEDGER_PATH")
	cfg.DefaultCurrency = viper.GetString("BEANS_DEFAULT_CURRENCY")
	cfg.RateAPIURL = viper.GetString("BEANS_RATE_API_URL")
	cfg.RateAPIFallbackURL = viper.GetString("BEANS_RATE_API_FALLBACK_URL")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")

	ttlStr := viper.GetString("BEANS_RATE_TTL")
	ttl, err := time.ParseDuration(ttlStr)
	if err != nil {
		ttl = 24 * time.Hour
		if ttlStr != "" {
			log.Printf("Warning: Invalid value for BEANS_RATE_TTL (%q). Defaulting to %s.\n", ttlStr, ttl)
		}
	}
	cfg.RateTTL = ttl

	timeoutStr := viper.GetString("BEANS_RATE_TIMEOUT")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		timeout = 10 * time.Second
		if timeoutStr != "" {
			log.Printf("Warning: Invalid value for BEANS_RATE_TIMEOUT (%q). Defaulting to %s.\n", timeoutStr, timeout)
		}
	}
	cfg.RateTimeout = timeout

	return cfg, nil
}
