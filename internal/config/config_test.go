package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "shopledger.db", cfg.DatabasePath)
	assert.Equal(t, "INV-", cfg.InvoicePrefix)
	assert.Equal(t, "subtotal", cfg.TaxBasis)
	assert.Equal(t, 0.0, cfg.DefaultTaxRate)
	assert.Empty(t, cfg.KitsFile)

	settings := cfg.SettingsDefaults()
	assert.Equal(t, int64(1), settings.NextInvoiceNumber)
	assert.Equal(t, "INV-", settings.InvoicePrefix)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("LEDGER_DB_PATH", "/tmp/ledger.db")
	t.Setenv("DEFAULT_TAX_RATE", "8.25")
	t.Setenv("DEFAULT_LABOR_RATE_CENTS", "7500")
	t.Setenv("INVOICE_PREFIX", "SHOP-")
	t.Setenv("KITS_FILE", "kits.yaml")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/ledger.db", cfg.DatabasePath)
	assert.Equal(t, 8.25, cfg.DefaultTaxRate)
	assert.Equal(t, int64(7500), cfg.DefaultLaborRateCents)
	assert.Equal(t, "SHOP-", cfg.SettingsDefaults().InvoicePrefix)
	assert.Equal(t, "kits.yaml", cfg.KitsFile)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"tax rate above 100", "DEFAULT_TAX_RATE", "101"},
		{"tax rate not a number", "DEFAULT_TAX_RATE", "lots"},
		{"negative labor rate", "DEFAULT_LABOR_RATE_CENTS", "-1"},
		{"unknown tax basis", "TAX_BASIS", "margin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
