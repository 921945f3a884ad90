package statement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessorParser_Parse(t *testing.T) {
	text := lines(
		processorHeader,
		processorLine("Jane Doe", "Completed", "150.00", "-5.80", "03/14/2024", "TX123", "Laptop repair"),
		processorLine("John Roe", "Pending", "20.00", "-0.88", "03/15/2024", "TX124", ""),
		processorLine("", "Completed", "20.00", "-0.88", "03/15/2024", "TX125", ""),
		processorLine("Bank", "Completed", "-75.00", "0.00", "03/16/2024", "TX126", ""),
		processorLine("Acme, Inc.", "completed", "$1,020.50", "", "3/17/2024", "TX127", "Bulk order"),
		`"03/18/2024","too","short"`,
	)

	rows, err := NewProcessorParser().Parse(text)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, ProcessorRow{
		Line:          2,
		Date:          "2024-03-14",
		Time:          "10:15:00",
		Name:          "Jane Doe",
		Email:         "buyer@example.com",
		Type:          "Express Checkout Payment",
		Status:        "Completed",
		AmountCents:   15000,
		FeeCents:      -580,
		TransactionID: "TX123",
		ItemTitle:     "Laptop repair",
		Address:       "1 Main St, Springfield",
	}, rows[0])

	assert.Equal(t, "Acme, Inc.", rows[1].Name)
	assert.Equal(t, int64(102050), rows[1].AmountCents)
	assert.Equal(t, int64(0), rows[1].FeeCents)
	assert.Equal(t, "2024-03-17", rows[1].Date)
}

func TestProcessorParser_NoUsableRows(t *testing.T) {
	text := lines(
		processorHeader,
		processorLine("John Roe", "Pending", "20.00", "-0.88", "03/15/2024", "TX124", ""),
	)

	_, err := NewProcessorParser().Parse(text)
	assert.ErrorIs(t, err, ErrNoDataRows)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, FormatProcessorLedger, parseErr.Format)
}

func TestProcessorParser_MissingHeader(t *testing.T) {
	_, err := NewProcessorParser().Parse("a,b,c\n")
	assert.ErrorIs(t, err, ErrMissingHeader)
}

func TestProcessorParser_RowsCarryFileLines(t *testing.T) {
	text := lines(
		processorHeader,
		"",
		processorLine("Jane Doe", "Completed", "10.00", "-0.59", "03/14/2024", "TX1", "Two\nline title"),
		processorLine("Bob Smith", "Completed", "20.00", "-0.88", "03/15/2024", "TX2", ""),
	)

	rows, err := NewProcessorParser().Parse(text)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 3, rows[0].Line)
	assert.Equal(t, "Two\nline title", rows[0].ItemTitle)
	assert.Equal(t, 5, rows[1].Line)
}
