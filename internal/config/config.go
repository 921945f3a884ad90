package config

import (
	"fmt"
	"os"
	"strconv"

	"shopledger/internal/logger"
	"shopledger/pkg/models"
)

type Config struct {
	// Store Configuration
	DatabasePath string

	// Invoicing Configuration
	InvoicePrefix         string
	DefaultTaxRate        float64
	DefaultLaborRateCents int64
	TaxBasis              string // subtotal or income

	// Import Configuration
	KitsFile string // optional YAML bill of materials, replaces the built-in table

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	taxRate, err := strconv.ParseFloat(getEnv("DEFAULT_TAX_RATE", "0"), 64)
	if err != nil {
		return nil, fmt.Errorf("DEFAULT_TAX_RATE must be a number: %w", err)
	}
	laborRate, err := strconv.ParseInt(getEnv("DEFAULT_LABOR_RATE_CENTS", "0"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("DEFAULT_LABOR_RATE_CENTS must be an integer: %w", err)
	}

	config := &Config{
		DatabasePath:          getEnv("LEDGER_DB_PATH", "shopledger.db"),
		InvoicePrefix:         getEnv("INVOICE_PREFIX", "INV-"),
		DefaultTaxRate:        taxRate,
		DefaultLaborRateCents: laborRate,
		TaxBasis:              getEnv("TAX_BASIS", "subtotal"),
		KitsFile:              getEnv("KITS_FILE", ""),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogFormat:             getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:         getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:             getEnv("LOG_OUTPUT", "stderr"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("LEDGER_DB_PATH is required")
	}
	if c.DefaultTaxRate < 0 || c.DefaultTaxRate > 100 {
		return fmt.Errorf("DEFAULT_TAX_RATE must be between 0 and 100, got %v", c.DefaultTaxRate)
	}
	if c.DefaultLaborRateCents < 0 {
		return fmt.Errorf("DEFAULT_LABOR_RATE_CENTS cannot be negative")
	}
	if c.TaxBasis != "subtotal" && c.TaxBasis != "income" {
		return fmt.Errorf("TAX_BASIS must be subtotal or income, got %q", c.TaxBasis)
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

// SettingsDefaults returns the settings row used when the store has none yet
func (c *Config) SettingsDefaults() models.Settings {
	return models.Settings{
		ID:                    models.SettingsID,
		InvoicePrefix:         c.InvoicePrefix,
		NextInvoiceNumber:     1,
		DefaultTaxRate:        c.DefaultTaxRate,
		DefaultLaborRateCents: c.DefaultLaborRateCents,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
