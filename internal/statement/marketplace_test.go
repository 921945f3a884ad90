package statement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarketplaceParser_Earnings(t *testing.T) {
	text := lines(
		earningsHeader,
		earningsLine("Mar 14, 2024", "01-11111-22222", "Bjorn Cyber Kit", "Ann Buyer", "1", "$120.00", "$120.00", "$8.50"),
		earningsLine("Mar 15, 2024", "01-33333-44444", "USB Cable", "Bob Buyer", "2", "$5.00", "$10.00", "$0.00"),
		earningsLine("Mar 15, 2024", "01-33333-44444", "Charger", "Bob Buyer", "", "$12.00", "$12.00", "$0.00"),
	)

	rows, format, err := NewMarketplaceParser().Parse(text)
	require.NoError(t, err)
	assert.Equal(t, FormatMarketplaceEarnings, format)
	require.Len(t, rows, 3)

	first := rows[0]
	assert.Equal(t, "2024-03-14", first.OrderDate)
	assert.Equal(t, "01-11111-22222", first.OrderNumber)
	assert.Equal(t, "Bjorn Cyber Kit", first.ItemTitle)
	assert.Equal(t, "Ann Buyer", first.BuyerName)
	assert.Equal(t, int64(1), first.Quantity)
	assert.Equal(t, int64(12000), first.ItemSubtotalCents)
	assert.Equal(t, int64(12000), first.UnitPriceCents())
	assert.Equal(t, int64(850), first.ShippingCents)
	assert.Equal(t, int64(-30), first.FixedFeeCents)
	assert.Equal(t, int64(1590), first.FeesCents())
	assert.Equal(t, int64(10000), first.OrderEarningsCents)
	assert.Equal(t, "Portland, OR 97201, US", first.ShipAddress())

	assert.Equal(t, int64(1), rows[2].Quantity, "blank quantity defaults to one")

	orders := GroupOrders(rows)
	require.Len(t, orders, 2)
	assert.Equal(t, "01-11111-22222", orders[0].Number)
	assert.Len(t, orders[1].Rows, 2)
	assert.Equal(t, "USB Cable", orders[1].First().ItemTitle)
}

func TestMarketplaceParser_LegacyMapsOntoEarningsShape(t *testing.T) {
	text := lines(
		"Transaction report",
		`"Period: Mar 1, 2024 - Mar 31, 2024"`,
		"",
		legacyHeader,
		legacyLine("14-Mar-24", "Order", "05-55555-66666", "Cara Buyer", "Bjorn kit", "2", "$50.00"),
		legacyLine("15-Mar-24", "Payout", "", "", "", "", ""),
		legacyLine("16-Mar-24", "Refund", "05-55555-66666", "Cara Buyer", "Bjorn kit", "1", "-$25.00"),
	)

	rows, format, err := NewMarketplaceParser().Parse(text)
	require.NoError(t, err)
	assert.Equal(t, FormatMarketplaceLegacy, format)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "Order", row.Type)
	assert.Equal(t, "2024-03-14", row.OrderDate)
	assert.Equal(t, "05-55555-66666", row.OrderNumber)
	assert.Equal(t, "Cara Buyer", row.BuyerName)
	assert.Equal(t, "buyer_2", row.BuyerUsername)
	assert.Equal(t, "987", row.ItemID)
	assert.Equal(t, "Bjorn kit", row.ItemTitle)
	assert.Equal(t, int64(2), row.Quantity)
	assert.Equal(t, int64(5000), row.ItemSubtotalCents)
	assert.Equal(t, int64(0), row.ItemPriceCents)
	assert.Equal(t, int64(2500), row.UnitPriceCents())
	assert.Equal(t, int64(500), row.ShippingCents)
	assert.Equal(t, int64(500), row.FeesCents())
	assert.Equal(t, int64(5500), row.GrossCents)
	assert.Equal(t, int64(4000), row.OrderEarningsCents)
}

func TestMarketplaceParser_KeepsRowsMissingBuyer(t *testing.T) {
	text := lines(
		earningsHeader,
		earningsLine("Mar 14, 2024", "", "Widget", "", "1", "$1.00", "$1.00", "$0.00"),
	)

	rows, _, err := NewMarketplaceParser().Parse(text)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	orders := GroupOrders(append(rows, rows[0]))
	assert.Len(t, orders, 2, "rows without an order number are never merged")
}

func TestMarketplaceParser_NoDataRows(t *testing.T) {
	_, format, err := NewMarketplaceParser().Parse(lines(earningsHeader))
	assert.ErrorIs(t, err, ErrNoDataRows)
	assert.Equal(t, FormatMarketplaceEarnings, format)

	_, _, err = NewMarketplaceParser().Parse(lines(
		legacyHeader,
		legacyLine("15-Mar-24", "Payout", "", "", "", "", ""),
	))
	assert.ErrorIs(t, err, ErrNoDataRows)
}
