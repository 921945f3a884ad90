package importer

import (
	"context"
	"fmt"
	"strings"

	"shopledger/internal/dedup"
	"shopledger/internal/ledger"
	"shopledger/internal/money"
	"shopledger/internal/resolve"
	"shopledger/internal/statement"
	"shopledger/pkg/models"
)

const (
	marketplaceVendor      = "Marketplace"
	marketplaceFeeCategory = "Marketplace Fees"
)

// orderTotals are an order's money fields summed over its line items.
type orderTotals struct {
	subtotal int64
	shipping int64
	discount int64
	refunds  int64
	fees     int64
}

func sumOrder(order statement.Order) orderTotals {
	var t orderTotals
	for _, row := range order.Rows {
		subtotal := row.ItemSubtotalCents
		if subtotal == 0 {
			subtotal = row.UnitPriceCents() * row.Quantity
		}
		t.subtotal += subtotal
		t.shipping += row.ShippingCents
		t.discount += money.Abs(row.DiscountCents)
		t.refunds += money.Abs(row.RefundsCents)
		t.fees += row.FeesCents()
	}
	return t
}

func orderTitle(order statement.Order) string {
	title := order.First().ItemTitle
	if title == "" {
		title = "Marketplace order " + order.Number
	}
	if n := len(order.Rows); n > 1 {
		title = fmt.Sprintf("%s (+%d more)", title, n-1)
	}
	return title
}

// importMarketplace imports each order as a paid job. Line items expand
// through the bill-of-materials table, shipping is a pass-through part, and
// the discount plus any rounding between the subtotal and the expanded part
// prices lands in misc fees so the invoice total is what the buyer paid.
// Seller-collected tax is remitted by the marketplace and not invoiced.
func (b *batch) importMarketplace(ctx context.Context, orders []statement.Order) error {
	for _, order := range orders {
		first := order.First()
		if order.Number == "" {
			b.skip(first.Line, len(order.Rows), "missing order number", "")
			continue
		}
		buyer := strings.TrimSpace(first.BuyerName)
		if buyer == "" {
			b.skip(first.Line, len(order.Rows), "missing buyer name", order.Number)
			continue
		}
		if b.guard.Seen(dedup.KindJob, order.Number) {
			b.skip(first.Line, len(order.Rows), "already imported", order.Number)
			continue
		}

		customer, created := b.customers.Resolve(buyer, resolve.CustomerDetails{
			Address: first.ShipAddress(),
			Tags:    first.BuyerUsername,
			Source:  b.source,
		})

		totals := sumOrder(order)
		var parts []models.Part
		for _, row := range order.Rows {
			parts = append(parts, b.inventory.Expand(row.ItemTitle, row.Quantity, row.UnitPriceCents())...)
		}
		var partsTotal int64
		for _, p := range parts {
			partsTotal += p.LineTotalCents()
		}
		if totals.shipping != 0 {
			parts = append(parts, models.Part{
				ID:             newID(),
				Name:           "Shipping",
				Category:       "Shipping",
				Quantity:       1,
				UnitCostCents:  totals.shipping,
				UnitPriceCents: totals.shipping,
				Source:         models.PartSourceCustomerProvided,
			})
		}

		job := &models.Job{
			ID:              newID(),
			CustomerID:      customer.ID,
			Title:           orderTitle(order),
			Status:          models.JobStatusCompleted,
			Date:            first.OrderDate,
			Parts:           parts,
			MiscFeesCents:   totals.subtotal - partsTotal - totals.discount,
			Notes:           fmt.Sprintf("Imported %s order %s, %d line items", b.source, order.Number, len(order.Rows)),
			TechnicianNotes: dedup.Marker(b.source, dedup.KindJob, order.Number),
		}

		inv, next := b.invoice(job)
		set := &entitySet{externalID: order.Number, matched: !created, job: job, invoice: inv, settings: next}

		if inv.TotalCents > 0 {
			ledger.ApplyPayment(job, inv, inv.TotalCents)
			set.payments = append(set.payments,
				b.payment(inv, models.PaymentTypePayment, inv.TotalCents, first.OrderDate, "Order "+order.Number))
		}
		if totals.refunds > 0 {
			ledger.ApplyRefund(inv, totals.refunds)
			set.payments = append(set.payments,
				b.payment(inv, models.PaymentTypeRefund, totals.refunds, first.OrderDate, "Refund on order "+order.Number))
		}

		if totals.fees > 0 && !b.guard.Seen(dedup.KindExpense, order.Number) {
			jobID, customerID := job.ID, customer.ID
			set.expense = &models.Expense{
				ID:          newID(),
				Date:        first.OrderDate,
				Vendor:      marketplaceVendor,
				Category:    marketplaceFeeCategory,
				Description: "Marketplace fees for order " + order.Number,
				AmountCents: totals.fees,
				JobID:       &jobID,
				CustomerID:  &customerID,
				Notes:       dedup.Marker(b.source, dedup.KindExpense, order.Number),
			}
		}

		if err := b.commit(ctx, set); err != nil {
			return fmt.Errorf("line %d: %w", first.Line, err)
		}
	}
	return nil
}
