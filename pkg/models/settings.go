package models

import "fmt"

// SettingsID is the primary key of the singleton settings row.
const SettingsID = 1

// Settings is the singleton application settings row.
type Settings struct {
	ID                    uint    `json:"id" gorm:"primaryKey"`
	InvoicePrefix         string  `json:"invoice_prefix"`
	NextInvoiceNumber     int64   `json:"next_invoice_number"`
	DefaultTaxRate        float64 `json:"default_tax_rate"`
	DefaultLaborRateCents int64   `json:"default_labor_rate_cents"`
}

// AllocateInvoiceNumber returns the next formatted invoice number and
// advances the counter.
func (s *Settings) AllocateInvoiceNumber() string {
	if s.NextInvoiceNumber < 1 {
		s.NextInvoiceNumber = 1
	}
	number := fmt.Sprintf("%s%04d", s.InvoicePrefix, s.NextInvoiceNumber)
	s.NextInvoiceNumber++
	return number
}
