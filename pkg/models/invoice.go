package models

import "time"

// PaymentStatus is derived from paid-to-date against the invoice total.
type PaymentStatus string

const (
	PaymentStatusUnpaid   PaymentStatus = "unpaid"
	PaymentStatusPartial  PaymentStatus = "partial"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusOverpaid PaymentStatus = "overpaid"
)

// Invoice is the frozen calculation snapshot of a Job. One per Job.
type Invoice struct {
	// Core identifiers
	ID            string `json:"id" gorm:"primaryKey;size:36"`
	JobID         string `json:"job_id" gorm:"uniqueIndex;size:36"`
	CustomerID    string `json:"customer_id" gorm:"index;size:36"`
	InvoiceNumber string `json:"invoice_number" gorm:"uniqueIndex"`

	// Amounts, all minor units
	LaborTotalCents       int64   `json:"labor_total_cents"`
	PartsTotalCents       int64   `json:"parts_total_cents"`        // inventory parts only
	PassThroughPartsCents int64   `json:"pass_through_parts_cents"` // customer-provided parts
	MiscFeesCents         int64   `json:"misc_fees_cents"`
	SubtotalCents         int64   `json:"subtotal_cents"`
	TaxRate               float64 `json:"tax_rate"`
	TaxCents              int64   `json:"tax_cents"`
	TotalCents            int64   `json:"total_cents"`
	IncomeAmountCents     int64   `json:"income_amount_cents"` // total minus pass-through

	// Collection
	PaidAmountCents int64         `json:"paid_amount_cents"`
	PaymentStatus   PaymentStatus `json:"payment_status"`

	IssuedAt  time.Time `json:"issued_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BalanceCents is what is still owed. Negative when overpaid.
func (i Invoice) BalanceCents() int64 {
	return i.TotalCents - i.PaidAmountCents
}

// PaymentType distinguishes money in from money returned.
type PaymentType string

const (
	PaymentTypePayment PaymentType = "payment"
	PaymentTypeRefund  PaymentType = "refund"
)

// Payment is one money movement against an Invoice. Immutable once written.
type Payment struct {
	ID          string      `json:"id" gorm:"primaryKey;size:36"`
	InvoiceID   string      `json:"invoice_id" gorm:"index;size:36"`
	Type        PaymentType `json:"type"`
	AmountCents int64       `json:"amount_cents"`
	Method      string      `json:"method"`
	Notes       string      `json:"notes"`
	Date        string      `json:"date"` // YYYY-MM-DD
	CreatedAt   time.Time   `json:"created_at"`
}

// Expense is an independent ledger entry, e.g. a processor fee.
type Expense struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	Date        string    `json:"date"` // YYYY-MM-DD
	Vendor      string    `json:"vendor"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	AmountCents int64     `json:"amount_cents"`
	JobID       *string   `json:"job_id" gorm:"index;size:36"`
	CustomerID  *string   `json:"customer_id" gorm:"size:36"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
}
