package ledger

import (
	"time"

	"github.com/google/uuid"

	"shopledger/internal/money"
	"shopledger/pkg/models"
)

// TaxBasis selects the amount tax is charged on.
type TaxBasis string

const (
	// TaxOnSubtotal taxes the full subtotal, pass-through parts included.
	TaxOnSubtotal TaxBasis = "subtotal"
	// TaxOnIncome taxes the subtotal less pass-through parts.
	TaxOnIncome TaxBasis = "income"
)

// Totals is the derived money view of a job.
type Totals struct {
	LaborTotalCents       int64
	PartsTotalCents       int64
	PassThroughPartsCents int64
	MiscFeesCents         int64
	SubtotalCents         int64
	TaxRate               float64
	TaxCents              int64
	TotalCents            int64
	IncomeAmountCents     int64
}

// Calculate derives every invoice amount from a job's billable fields.
// subtotal = labor + parts + pass-through + misc, total = subtotal + tax,
// income = total - pass-through.
func Calculate(job *models.Job, basis TaxBasis) Totals {
	t := Totals{
		LaborTotalCents: money.Multiply(job.LaborRateCents, job.LaborHours),
		MiscFeesCents:   job.MiscFeesCents,
		TaxRate:         job.TaxRate,
	}
	for _, p := range job.Parts {
		if p.Source == models.PartSourceCustomerProvided {
			t.PassThroughPartsCents += p.LineTotalCents()
		} else {
			t.PartsTotalCents += p.LineTotalCents()
		}
	}

	t.SubtotalCents = t.LaborTotalCents + t.PartsTotalCents + t.PassThroughPartsCents + t.MiscFeesCents

	taxable := t.SubtotalCents
	if basis == TaxOnIncome {
		taxable -= t.PassThroughPartsCents
	}
	t.TaxCents = money.PercentOf(taxable, job.TaxRate)
	t.TotalCents = t.SubtotalCents + t.TaxCents
	t.IncomeAmountCents = t.TotalCents - t.PassThroughPartsCents
	return t
}

// apply copies t onto an invoice and re-derives its payment status.
func (t Totals) apply(inv *models.Invoice) {
	inv.LaborTotalCents = t.LaborTotalCents
	inv.PartsTotalCents = t.PartsTotalCents
	inv.PassThroughPartsCents = t.PassThroughPartsCents
	inv.MiscFeesCents = t.MiscFeesCents
	inv.SubtotalCents = t.SubtotalCents
	inv.TaxRate = t.TaxRate
	inv.TaxCents = t.TaxCents
	inv.TotalCents = t.TotalCents
	inv.IncomeAmountCents = t.IncomeAmountCents
	inv.PaymentStatus = DerivePaymentStatus(inv.PaidAmountCents, inv.TotalCents)
}

// DerivePaymentStatus is the payment status for paid-to-date against total.
func DerivePaymentStatus(paidCents, totalCents int64) models.PaymentStatus {
	switch {
	case paidCents > totalCents && paidCents > 0:
		return models.PaymentStatusOverpaid
	case paidCents == totalCents && paidCents > 0:
		return models.PaymentStatusPaid
	case paidCents > 0:
		return models.PaymentStatusPartial
	default:
		return models.PaymentStatusUnpaid
	}
}

// JobStatusFor maps a payment status onto the job lifecycle.
func JobStatusFor(status models.PaymentStatus) models.JobStatus {
	if status == models.PaymentStatusPaid || status == models.PaymentStatusOverpaid {
		return models.JobStatusPaid
	}
	return models.JobStatusInvoiced
}

// NewInvoice generates the invoice snapshot for job, links the job to it and
// moves the job to invoiced.
func NewInvoice(job *models.Job, number string, basis TaxBasis, now time.Time) *models.Invoice {
	inv := &models.Invoice{
		ID:            uuid.NewString(),
		JobID:         job.ID,
		CustomerID:    job.CustomerID,
		InvoiceNumber: number,
		IssuedAt:      now.UTC(),
	}
	Calculate(job, basis).apply(inv)

	job.InvoiceID = &inv.ID
	job.Status = models.JobStatusInvoiced
	return inv
}

// Recalculate refreshes an invoice from its job's current billable fields,
// keeping the paid amount, and re-derives the job status from the new
// payment status. A price cut can therefore move a job from invoiced back to
// paid, and a price rise from paid back to invoiced, with no new payment.
func Recalculate(job *models.Job, inv *models.Invoice, basis TaxBasis) {
	Calculate(job, basis).apply(inv)
	job.Status = JobStatusFor(inv.PaymentStatus)
}

// ApplyPayment adds a payment to the invoice and, once paid in full, marks
// the job paid.
func ApplyPayment(job *models.Job, inv *models.Invoice, amountCents int64) {
	inv.PaidAmountCents += amountCents
	inv.PaymentStatus = DerivePaymentStatus(inv.PaidAmountCents, inv.TotalCents)
	if JobStatusFor(inv.PaymentStatus) == models.JobStatusPaid {
		job.Status = models.JobStatusPaid
	}
}

// ApplyRefund takes a refund off the paid amount, never below zero. The job
// status is left alone.
func ApplyRefund(inv *models.Invoice, amountCents int64) {
	inv.PaidAmountCents -= amountCents
	if inv.PaidAmountCents < 0 {
		inv.PaidAmountCents = 0
	}
	inv.PaymentStatus = DerivePaymentStatus(inv.PaidAmountCents, inv.TotalCents)
}
