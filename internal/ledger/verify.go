package ledger

import (
	"context"
	"errors"
	"fmt"

	"shopledger/internal/store"
	"shopledger/pkg/models"
)

// Verification is the result of cross-checking one invoice.
type Verification struct {
	InvoiceID     string   `json:"invoice_id"`
	InvoiceNumber string   `json:"invoice_number"`
	JobID         string   `json:"job_id"`
	Warnings      []string `json:"warnings,omitempty"`
}

// OK reports whether every check passed.
func (v Verification) OK() bool {
	return len(v.Warnings) == 0
}

func (v *Verification) warnf(format string, args ...interface{}) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}

// Verify cross-checks a stored invoice: monetary closure, the paid amount
// against its payments replayed in order, and the payment status against
// the paid amount.
func Verify(inv *models.Invoice, payments []models.Payment) Verification {
	v := Verification{InvoiceID: inv.ID, InvoiceNumber: inv.InvoiceNumber, JobID: inv.JobID}

	sum := inv.LaborTotalCents + inv.PartsTotalCents + inv.PassThroughPartsCents + inv.MiscFeesCents
	if sum != inv.SubtotalCents {
		v.warnf("subtotal %d != labor+parts+pass-through+misc %d", inv.SubtotalCents, sum)
	}
	if inv.SubtotalCents+inv.TaxCents != inv.TotalCents {
		v.warnf("total %d != subtotal+tax %d", inv.TotalCents, inv.SubtotalCents+inv.TaxCents)
	}
	if inv.TotalCents-inv.PassThroughPartsCents != inv.IncomeAmountCents {
		v.warnf("income %d != total-pass-through %d", inv.IncomeAmountCents, inv.TotalCents-inv.PassThroughPartsCents)
	}

	replay := &models.Invoice{TotalCents: inv.TotalCents}
	for _, p := range payments {
		switch p.Type {
		case models.PaymentTypePayment:
			replay.PaidAmountCents += p.AmountCents
		case models.PaymentTypeRefund:
			ApplyRefund(replay, p.AmountCents)
		default:
			v.warnf("payment %s has unknown type %q", p.ID, p.Type)
		}
	}
	if replay.PaidAmountCents != inv.PaidAmountCents {
		v.warnf("paid %d != payments replayed %d", inv.PaidAmountCents, replay.PaidAmountCents)
	}
	if want := DerivePaymentStatus(inv.PaidAmountCents, inv.TotalCents); want != inv.PaymentStatus {
		v.warnf("payment status %s, expected %s", inv.PaymentStatus, want)
	}
	return v
}

// VerifyAll cross-checks every invoice in the store.
func (s *Service) VerifyAll(ctx context.Context) ([]Verification, error) {
	const op = "ledger.VerifyAll"

	invoices, err := s.store.ListInvoices(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list invoices: %w", op, err)
	}

	results := make([]Verification, 0, len(invoices))
	for i := range invoices {
		v, err := s.verify(ctx, s.store, &invoices[i])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		results = append(results, v)
	}
	return results, nil
}

// VerifyJob cross-checks the job's invoice. A job without an invoice
// returns (nil, nil).
func (s *Service) VerifyJob(ctx context.Context, jobID string) (*Verification, error) {
	inv, err := s.store.GetInvoiceByJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("ledger.VerifyJob: %w", err)
	}
	v, err := s.verify(ctx, s.store, inv)
	if err != nil {
		return nil, fmt.Errorf("ledger.VerifyJob: %w", err)
	}
	return &v, nil
}

func (s *Service) verify(ctx context.Context, st *store.Store, inv *models.Invoice) (Verification, error) {
	payments, err := st.ListPayments(ctx, inv.ID)
	if err != nil {
		return Verification{}, fmt.Errorf("failed to list payments for %s: %w", inv.InvoiceNumber, err)
	}
	v := Verify(inv, payments)
	if !v.OK() {
		s.log.Warn().
			Str("invoice_number", inv.InvoiceNumber).
			Strs("warnings", v.Warnings).
			Msg("Invoice failed verification")
	}
	return v, nil
}
