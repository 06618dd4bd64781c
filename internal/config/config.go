// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir string // Base directory for the databases (always absolute)

	// Market data provider
	MarketDataURL    string        // Base URL of the quote/chain provider
	MarketDataAPIKey string        // Provider API token (optional for self-hosted providers)
	QuoteTTL         time.Duration // How long a cached quote snapshot stays fresh
	QuoteRefresh     string        // Cron spec for the background quote refresh job

	LogLevel string
	Port     int
	DevMode  bool
}

// Load reads configuration from environment variables.
// A .env file in the working directory is loaded first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dataDir := getEnv("HOLDINGS_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:          absDataDir,
		Port:             getEnvAsInt("HOLDINGS_PORT", 8010),
		DevMode:          getEnvAsBool("DEV_MODE", false),
		MarketDataURL:    getEnv("MARKETDATA_URL", "http://localhost:9010"),
		MarketDataAPIKey: getEnv("MARKETDATA_API_KEY", ""),
		QuoteTTL:         getEnvAsDuration("QUOTE_TTL", 10*time.Minute),
		QuoteRefresh:     getEnv("QUOTE_REFRESH_SCHEDULE", "@every 15m"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.QuoteTTL <= 0 {
		return fmt.Errorf("quote TTL must be positive, got %s", c.QuoteTTL)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
