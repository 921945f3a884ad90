package statement

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"shopledger/internal/logger"
	"shopledger/internal/money"
)

// MarketplaceRow is one line item of a marketplace order, normalized to the
// earnings-report shape whichever layout it came from. Amounts are minor
// units with the sign the report uses: fees are usually negative.
type MarketplaceRow struct {
	Line          int
	Type          string // legacy layout only; "Order" for sales
	OrderDate     string // YYYY-MM-DD
	OrderNumber   string
	ItemID        string
	ItemTitle     string
	BuyerName     string
	BuyerUsername string
	ShipCity      string
	ShipState     string
	ShipZip       string
	ShipCountry   string
	Quantity      int64

	ItemPriceCents    int64
	ItemSubtotalCents int64
	ShippingCents     int64
	SellerTaxCents    int64
	DiscountCents     int64
	GrossCents        int64

	FixedFeeCents             int64
	VariableFeeCents          int64
	BelowStandardFeeCents     int64
	NotAsDescribedFeeCents    int64
	InternationalFeeCents     int64
	DepositProcessingFeeCents int64
	RegulatoryFeeCents        int64
	PromotedListingFeeCents   int64
	CharityDonationCents      int64
	ShippingLabelCents        int64
	PaymentDisputeFeeCents    int64
	OtherExpensesCents        int64
	RefundsCents              int64
	OrderEarningsCents        int64
}

// UnitPriceCents is the per-unit sale price, derived from the subtotal when
// the layout has no price column.
func (r MarketplaceRow) UnitPriceCents() int64 {
	if r.ItemPriceCents != 0 {
		return r.ItemPriceCents
	}
	if r.Quantity > 0 {
		return r.ItemSubtotalCents / r.Quantity
	}
	return r.ItemSubtotalCents
}

// FeesCents is the total platform cost of the line as a positive amount.
func (r MarketplaceRow) FeesCents() int64 {
	return money.Sum(
		money.Abs(r.FixedFeeCents),
		money.Abs(r.VariableFeeCents),
		money.Abs(r.BelowStandardFeeCents),
		money.Abs(r.NotAsDescribedFeeCents),
		money.Abs(r.InternationalFeeCents),
		money.Abs(r.DepositProcessingFeeCents),
		money.Abs(r.RegulatoryFeeCents),
		money.Abs(r.PromotedListingFeeCents),
		money.Abs(r.CharityDonationCents),
		money.Abs(r.ShippingLabelCents),
		money.Abs(r.PaymentDisputeFeeCents),
		money.Abs(r.OtherExpensesCents),
	)
}

// ShipAddress joins the ship-to fields into one line.
func (r MarketplaceRow) ShipAddress() string {
	var parts []string
	for _, p := range []string{r.ShipCity, strings.TrimSpace(r.ShipState + " " + r.ShipZip), r.ShipCountry} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

type textColumn struct {
	index int
	field func(*MarketplaceRow) *string
}

type amountColumn struct {
	index int
	field func(*MarketplaceRow) *int64
}

// columnLayout maps a report's fixed column positions onto MarketplaceRow.
type columnLayout struct {
	format    Format
	minFields int
	typeIndex int // -1 when every row is a sale
	date      int
	quantity  int
	text      []textColumn
	amounts   []amountColumn
}

var (
	colOrderNumber   = func(r *MarketplaceRow) *string { return &r.OrderNumber }
	colItemID        = func(r *MarketplaceRow) *string { return &r.ItemID }
	colItemTitle     = func(r *MarketplaceRow) *string { return &r.ItemTitle }
	colBuyerName     = func(r *MarketplaceRow) *string { return &r.BuyerName }
	colBuyerUsername = func(r *MarketplaceRow) *string { return &r.BuyerUsername }
	colShipCity      = func(r *MarketplaceRow) *string { return &r.ShipCity }
	colShipState     = func(r *MarketplaceRow) *string { return &r.ShipState }
	colShipZip       = func(r *MarketplaceRow) *string { return &r.ShipZip }
	colShipCountry   = func(r *MarketplaceRow) *string { return &r.ShipCountry }

	colItemPrice         = func(r *MarketplaceRow) *int64 { return &r.ItemPriceCents }
	colItemSubtotal      = func(r *MarketplaceRow) *int64 { return &r.ItemSubtotalCents }
	colShipping          = func(r *MarketplaceRow) *int64 { return &r.ShippingCents }
	colSellerTax         = func(r *MarketplaceRow) *int64 { return &r.SellerTaxCents }
	colDiscount          = func(r *MarketplaceRow) *int64 { return &r.DiscountCents }
	colGross             = func(r *MarketplaceRow) *int64 { return &r.GrossCents }
	colFixedFee          = func(r *MarketplaceRow) *int64 { return &r.FixedFeeCents }
	colVariableFee       = func(r *MarketplaceRow) *int64 { return &r.VariableFeeCents }
	colBelowStandardFee  = func(r *MarketplaceRow) *int64 { return &r.BelowStandardFeeCents }
	colNotAsDescribedFee = func(r *MarketplaceRow) *int64 { return &r.NotAsDescribedFeeCents }
	colInternationalFee  = func(r *MarketplaceRow) *int64 { return &r.InternationalFeeCents }
	colDepositFee        = func(r *MarketplaceRow) *int64 { return &r.DepositProcessingFeeCents }
	colRegulatoryFee     = func(r *MarketplaceRow) *int64 { return &r.RegulatoryFeeCents }
	colPromotedFee       = func(r *MarketplaceRow) *int64 { return &r.PromotedListingFeeCents }
	colCharity           = func(r *MarketplaceRow) *int64 { return &r.CharityDonationCents }
	colShippingLabel     = func(r *MarketplaceRow) *int64 { return &r.ShippingLabelCents }
	colDisputeFee        = func(r *MarketplaceRow) *int64 { return &r.PaymentDisputeFeeCents }
	colOtherExpenses     = func(r *MarketplaceRow) *int64 { return &r.OtherExpensesCents }
	colRefunds           = func(r *MarketplaceRow) *int64 { return &r.RefundsCents }
	colOrderEarnings     = func(r *MarketplaceRow) *int64 { return &r.OrderEarningsCents }
)

// earningsLayout is the order-earnings report:
// Order creation date, Order number, Item ID, Item title, Buyer name,
// Buyer username, Ship to city, Ship to province/region/state, Ship to zip,
// Ship to country, Quantity, Item price, Item subtotal, Shipping and handling,
// Seller collected tax, Marketplace collected tax, Discount, Gross amount,
// Final Value Fee - fixed, Final Value Fee - variable, Below standard
// performance fee, Very high "item not as described" fee, International fee,
// Deposit processing fee, Regulatory operating fee, Promoted Listings fee,
// Charity donation, Shipping labels, Payment dispute fee, Expenses, Refunds,
// Order earnings, Payout currency.
var earningsLayout = columnLayout{
	format:    FormatMarketplaceEarnings,
	minFields: 33,
	typeIndex: -1,
	date:      0,
	quantity:  10,
	text: []textColumn{
		{1, colOrderNumber}, {2, colItemID}, {3, colItemTitle},
		{4, colBuyerName}, {5, colBuyerUsername},
		{6, colShipCity}, {7, colShipState}, {8, colShipZip}, {9, colShipCountry},
	},
	amounts: []amountColumn{
		{11, colItemPrice}, {12, colItemSubtotal}, {13, colShipping},
		{14, colSellerTax}, {16, colDiscount}, {17, colGross},
		{18, colFixedFee}, {19, colVariableFee}, {20, colBelowStandardFee},
		{21, colNotAsDescribedFee}, {22, colInternationalFee}, {23, colDepositFee},
		{24, colRegulatoryFee}, {25, colPromotedFee}, {26, colCharity},
		{27, colShippingLabel}, {28, colDisputeFee}, {29, colOtherExpenses},
		{30, colRefunds}, {31, colOrderEarnings},
	},
}

// legacyLayout is the wide transaction report:
// Transaction creation date, Type, Order number, Legal entity, Buyer username,
// Buyer name, Ship to city, Ship to province/region/state, Ship to zip,
// Ship to country, Net amount, Payout currency, Payout date, Payout ID,
// Payout method, Payout status, Reason for hold, Item ID, Transaction ID,
// Item title, Custom label, Quantity, Item subtotal, Shipping and handling,
// Seller collected tax, Marketplace collected tax, Final Value Fee - fixed,
// Final Value Fee - variable, Regulatory operating fee, Very high "item not
// as described" fee, Below standard performance fee, International fee,
// Charity donation, Deposit processing fee, Gross transaction amount, ...
var legacyLayout = columnLayout{
	format:    FormatMarketplaceLegacy,
	minFields: 35,
	typeIndex: 1,
	date:      0,
	quantity:  21,
	text: []textColumn{
		{2, colOrderNumber}, {4, colBuyerUsername}, {5, colBuyerName},
		{6, colShipCity}, {7, colShipState}, {8, colShipZip}, {9, colShipCountry},
		{17, colItemID}, {19, colItemTitle},
	},
	amounts: []amountColumn{
		{10, colOrderEarnings},
		{22, colItemSubtotal}, {23, colShipping}, {24, colSellerTax},
		{26, colFixedFee}, {27, colVariableFee}, {28, colRegulatoryFee},
		{29, colNotAsDescribedFee}, {30, colBelowStandardFee}, {31, colInternationalFee},
		{32, colCharity}, {33, colDepositFee}, {34, colGross},
	},
}

// MarketplaceParser reads both marketplace report layouts.
type MarketplaceParser struct {
	log zerolog.Logger
}

// NewMarketplaceParser creates a marketplace report parser.
func NewMarketplaceParser() *MarketplaceParser {
	return &MarketplaceParser{log: logger.WithComponent("statement-marketplace")}
}

// Parse finds whichever header line is present and returns the sale rows in
// file order. Rows missing a buyer name or order number are kept; deciding
// to skip them is the importer's job.
func (p *MarketplaceParser) Parse(text string) ([]MarketplaceRow, Format, error) {
	records, err := Records(text)
	if err != nil {
		return nil, "", &ParseError{Format: FormatMarketplaceEarnings, Err: err}
	}

	layout := earningsLayout
	header := findHeader(records, FormatMarketplaceEarnings)
	if header < 0 {
		layout = legacyLayout
		header = findHeader(records, FormatMarketplaceLegacy)
	}
	if header < 0 {
		return nil, "", &ParseError{Format: FormatMarketplaceEarnings, Err: ErrMissingHeader}
	}

	var rows []MarketplaceRow
	for _, rec := range records[header+1:] {
		line, record := rec.Line, rec.Fields

		if len(record) < layout.minFields {
			p.log.Warn().
				Int("line", line).
				Int("columns", len(record)).
				Str("format", string(layout.format)).
				Msg("Skipping marketplace row with insufficient columns")
			continue
		}

		row, ok := p.parseRow(layout, record, line)
		if !ok {
			continue
		}
		rows = append(rows, row)
	}

	p.log.Debug().
		Str("format", string(layout.format)).
		Int("total_rows", len(records)-header-1).
		Int("usable_rows", len(rows)).
		Msg("Marketplace report parsed")

	if len(rows) == 0 {
		return nil, layout.format, &ParseError{Format: layout.format, Err: ErrNoDataRows}
	}
	return rows, layout.format, nil
}

func (p *MarketplaceParser) parseRow(layout columnLayout, record []string, line int) (MarketplaceRow, bool) {
	row := MarketplaceRow{Line: line}

	if layout.typeIndex >= 0 {
		row.Type = field(record, layout.typeIndex)
		if row.Type != "Order" {
			return row, false
		}
	}

	date, err := NormalizeDate(field(record, layout.date))
	if err != nil {
		p.log.Warn().Err(err).Int("line", line).Msg("Skipping marketplace row with invalid date")
		return row, false
	}
	row.OrderDate = date

	for _, col := range layout.text {
		*col.field(&row) = field(record, col.index)
	}
	for _, col := range layout.amounts {
		cents, err := money.ParseCents(field(record, col.index))
		if err != nil {
			p.log.Warn().Err(err).Int("line", line).Int("column", col.index).Msg("Invalid amount, using 0")
			cents = 0
		}
		*col.field(&row) = cents
	}

	row.Quantity = parseQuantity(field(record, layout.quantity))
	return row, true
}

func parseQuantity(text string) int64 {
	q, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil || q < 1 {
		return 1
	}
	return q
}

// Order is the line items sharing one order number.
type Order struct {
	Number string
	Rows   []MarketplaceRow
}

// First is the order's first line item; order-level fields are read from it.
func (o Order) First() MarketplaceRow {
	return o.Rows[0]
}

// GroupOrders groups rows by order number in first-seen order. Rows without
// an order number each form their own group.
func GroupOrders(rows []MarketplaceRow) []Order {
	var orders []Order
	index := make(map[string]int)
	for _, row := range rows {
		if row.OrderNumber == "" {
			orders = append(orders, Order{Rows: []MarketplaceRow{row}})
			continue
		}
		if i, ok := index[row.OrderNumber]; ok {
			orders[i].Rows = append(orders[i].Rows, row)
			continue
		}
		index[row.OrderNumber] = len(orders)
		orders = append(orders, Order{Number: row.OrderNumber, Rows: []MarketplaceRow{row}})
	}
	return orders
}
