package importer

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"shopledger/internal/dedup"
	"shopledger/internal/ledger"
	"shopledger/internal/money"
	"shopledger/internal/resolve"
	"shopledger/internal/statement"
	"shopledger/pkg/models"
)

const (
	processorVendor      = "Payment Processor"
	processorFeeCategory = "Processing Fees"
)

func newID() string {
	return uuid.NewString()
}

// processorKey is the row's transaction ID, or a key derived from the row
// when the export left it blank.
func processorKey(row statement.ProcessorRow) string {
	if id := strings.TrimSpace(row.TransactionID); id != "" {
		return id
	}
	return fmt.Sprintf("%s-%s-%s-%d", row.Date, strings.ReplaceAll(row.Time, ":", ""), strings.ToLower(strings.ReplaceAll(row.Name, " ", "")), row.AmountCents)
}

// importProcessor imports each completed processor payment as a paid job:
// no labor, the full amount as misc fees, one payment, and the fee as an
// expense.
func (b *batch) importProcessor(ctx context.Context, rows []statement.ProcessorRow) error {
	for _, row := range rows {
		key := processorKey(row)
		if b.guard.Seen(dedup.KindJob, key) {
			b.skip(row.Line, 1, "already imported", key)
			continue
		}

		customer, created := b.customers.Resolve(row.Name, resolve.CustomerDetails{
			Email:   row.Email,
			Address: row.Address,
			Source:  b.source,
		})

		title := row.ItemTitle
		if title == "" {
			title = "Payment from " + customer.Name
		}
		job := &models.Job{
			ID:              newID(),
			CustomerID:      customer.ID,
			Title:           title,
			Status:          models.JobStatusCompleted,
			Date:            row.Date,
			MiscFeesCents:   row.AmountCents,
			Notes:           fmt.Sprintf("Imported %s transaction %s (%s)", b.source, key, row.Type),
			TechnicianNotes: dedup.Marker(b.source, dedup.KindJob, key),
		}

		inv, next := b.invoice(job)
		ledger.ApplyPayment(job, inv, inv.TotalCents)
		set := &entitySet{
			externalID: key,
			matched:    !created,
			job:        job,
			invoice:    inv,
			payments:   []*models.Payment{b.payment(inv, models.PaymentTypePayment, inv.TotalCents, row.Date, "Transaction "+key)},
			settings:   next,
		}

		if fee := money.Abs(row.FeeCents); fee > 0 && !b.guard.Seen(dedup.KindExpense, key) {
			jobID, customerID := job.ID, customer.ID
			set.expense = &models.Expense{
				ID:          newID(),
				Date:        row.Date,
				Vendor:      processorVendor,
				Category:    processorFeeCategory,
				Description: "Processing fee for transaction " + key,
				AmountCents: fee,
				JobID:       &jobID,
				CustomerID:  &customerID,
				Notes:       dedup.Marker(b.source, dedup.KindExpense, key),
			}
		}

		if err := b.commit(ctx, set); err != nil {
			return fmt.Errorf("line %d: %w", row.Line, err)
		}
	}
	return nil
}
