package statement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Format
	}{
		{"processor ledger", lines(processorHeader, processorLine("Jane", "Completed", "1.00", "0", "03/14/2024", "TX1", "")), FormatProcessorLedger},
		{"processor ledger with bom", "\ufeff" + processorHeader + "\n", FormatProcessorLedger},
		{"processor ledger unquoted", "Date,Time,TimeZone,Name,Type\n", FormatProcessorLedger},
		{"earnings report", lines(earningsHeader), FormatMarketplaceEarnings},
		{"legacy report with preamble", lines("Transaction report", "", `"Period: Mar 1, 2024 - Mar 31, 2024"`, legacyHeader), FormatMarketplaceLegacy},
		{"earnings wins over legacy", lines(legacyHeader, earningsHeader), FormatMarketplaceEarnings},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Detect(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetect_Unrecognized(t *testing.T) {
	for _, text := range []string{"", "a,b,c\n1,2,3\n", "Order number,Order creation date\n"} {
		_, err := Detect(text)
		assert.ErrorIs(t, err, ErrUnrecognizedFormat)
	}
	assert.Contains(t, ErrUnrecognizedFormat.Error(), "payment-processor")
	assert.Contains(t, ErrUnrecognizedFormat.Error(), "marketplace")
}

func TestFormat_IsMarketplace(t *testing.T) {
	assert.True(t, FormatMarketplaceEarnings.IsMarketplace())
	assert.True(t, FormatMarketplaceLegacy.IsMarketplace())
	assert.False(t, FormatProcessorLedger.IsMarketplace())
}
