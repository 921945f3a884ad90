package importer

import (
	"context"
	"fmt"

	"shopledger/internal/audit"
	"shopledger/internal/dedup"
	"shopledger/internal/ledger"
	"shopledger/internal/store"
	"shopledger/pkg/models"
)

// entitySet is everything one imported row writes.
type entitySet struct {
	externalID string
	matched    bool // the customer already existed
	job        *models.Job
	invoice    *models.Invoice
	payments   []*models.Payment
	expense    *models.Expense
	settings   models.Settings // with the counter advanced for this row
}

// commit writes set, together with the customers and inventory items the
// resolvers created for it and the queued audit entries, in one transaction.
// Batch state (counter, dedup guard, totals) only moves once the transaction
// has committed.
func (b *batch) commit(ctx context.Context, set *entitySet) error {
	const op = "importer.commit"

	customers := b.customers.TakePending()
	items := b.inventory.TakePending()
	now := b.im.cfg.Now()

	refs := []models.ExternalReference{
		b.guard.Reference(dedup.KindJob, set.externalID, audit.EntityJob, set.job.ID, now),
	}
	if set.expense != nil {
		refs = append(refs, b.guard.Reference(dedup.KindExpense, set.externalID, audit.EntityExpense, set.expense.ID, now))
	}

	b.audit.Recordf(audit.EntityJob, set.job.ID, audit.ActionImported, "%s %s", b.source, set.externalID)
	b.audit.Recordf(audit.EntityInvoice, set.invoice.ID, audit.ActionCreated, "%s total %d, %s",
		set.invoice.InvoiceNumber, set.invoice.TotalCents, set.invoice.PaymentStatus)
	for _, p := range set.payments {
		b.audit.Recordf(audit.EntityPayment, p.ID, audit.ActionCreated, "%s %d via %s", p.Type, p.AmountCents, p.Method)
	}
	if set.expense != nil {
		b.audit.Recordf(audit.EntityExpense, set.expense.ID, audit.ActionCreated, "%s %d", set.expense.Category, set.expense.AmountCents)
	}
	b.audit.Recordf(audit.EntitySettings, "1", audit.ActionUpdated, "next invoice number %d", set.settings.NextInvoiceNumber)

	err := b.store.Transaction(ctx, func(tx *store.Store) error {
		for _, c := range customers {
			if err := tx.CreateCustomer(ctx, c); err != nil {
				return fmt.Errorf("customer %q: %w", c.Name, err)
			}
		}
		for _, item := range items {
			if err := tx.CreateInventoryItem(ctx, item); err != nil {
				return fmt.Errorf("inventory item %q: %w", item.Name, err)
			}
		}
		if err := tx.CreateJob(ctx, set.job); err != nil {
			return fmt.Errorf("job: %w", err)
		}
		if err := ledger.ConsumeParts(ctx, tx, set.job.Parts, b.audit); err != nil {
			return err
		}
		if err := tx.CreateInvoice(ctx, set.invoice); err != nil {
			return fmt.Errorf("invoice %s: %w", set.invoice.InvoiceNumber, err)
		}
		for _, p := range set.payments {
			if err := tx.CreatePayment(ctx, p); err != nil {
				return fmt.Errorf("payment: %w", err)
			}
		}
		if set.expense != nil {
			if err := tx.CreateExpense(ctx, set.expense); err != nil {
				return fmt.Errorf("expense: %w", err)
			}
		}
		if err := tx.CreateExternalReferences(ctx, refs); err != nil {
			return fmt.Errorf("external references: %w", err)
		}
		if err := tx.SaveSettings(ctx, &set.settings); err != nil {
			return fmt.Errorf("settings: %w", err)
		}
		return b.audit.Flush(ctx, tx)
	})
	if err != nil {
		b.audit.Reset()
		return fmt.Errorf("%s: %s %s: %w", op, b.source, set.externalID, err)
	}

	*b.settings = set.settings
	b.guard.Mark(dedup.KindJob, set.externalID)
	if set.expense != nil {
		b.guard.Mark(dedup.KindExpense, set.externalID)
		b.result.ExpensesCreated++
		b.result.TotalFeesCents += set.expense.AmountCents
	}
	b.result.CustomersCreated += len(customers)
	if set.matched {
		b.result.CustomersMatched++
	}
	b.result.InventoryCreated += len(items)
	b.result.JobsCreated++
	b.result.PaymentsRecorded += len(set.payments)
	b.result.TotalRevenueCents += set.invoice.PaidAmountCents
	return nil
}

// invoice generates the paid invoice for an imported job, drawing the next
// number from a copy of the batch settings.
func (b *batch) invoice(job *models.Job) (*models.Invoice, models.Settings) {
	next := *b.settings
	number := next.AllocateInvoiceNumber()
	return ledger.NewInvoice(job, number, b.im.cfg.TaxBasis, b.im.cfg.Now()), next
}

func (b *batch) payment(inv *models.Invoice, typ models.PaymentType, amountCents int64, date, notes string) *models.Payment {
	return &models.Payment{
		ID:          newID(),
		InvoiceID:   inv.ID,
		Type:        typ,
		AmountCents: amountCents,
		Method:      b.source,
		Notes:       notes,
		Date:        date,
	}
}
