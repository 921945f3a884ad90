package models

import "time"

// JobStatus is the lifecycle state of a Job.
type JobStatus string

const (
	JobStatusQuoted     JobStatus = "quoted"
	JobStatusInProgress JobStatus = "in-progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusInvoiced   JobStatus = "invoiced"
	JobStatusPaid       JobStatus = "paid"
)

// Rank orders statuses along the forward lifecycle. Unknown statuses rank -1.
func (s JobStatus) Rank() int {
	switch s {
	case JobStatusQuoted:
		return 0
	case JobStatusInProgress:
		return 1
	case JobStatusCompleted:
		return 2
	case JobStatusInvoiced:
		return 3
	case JobStatusPaid:
		return 4
	}
	return -1
}

// IsValid reports whether s is one of the known statuses.
func (s JobStatus) IsValid() bool {
	return s.Rank() >= 0
}

// IsLocked reports whether structural edits require an explicit override.
func (s JobStatus) IsLocked() bool {
	return s == JobStatusInvoiced || s == JobStatusPaid
}

// PartSource says where a part came from.
type PartSource string

const (
	// PartSourceInventory parts are sold from stock and carry margin.
	PartSourceInventory PartSource = "inventory"
	// PartSourceCustomerProvided parts are reimbursed at cost and never count as income.
	PartSourceCustomerProvided PartSource = "customer-provided"
)

// Part is one line item of a Job.
type Part struct {
	ID              string     `json:"id" gorm:"primaryKey;size:36"`
	JobID           string     `json:"job_id" gorm:"index;size:36"`
	Position        int        `json:"position"`
	Name            string     `json:"name" validate:"required"`
	Category        string     `json:"category"`
	InventoryItemID *string    `json:"inventory_item_id" gorm:"size:36"`
	Quantity        int64      `json:"quantity" validate:"min=1"`
	UnitCostCents   int64      `json:"unit_cost_cents" validate:"min=0"`
	UnitPriceCents  int64      `json:"unit_price_cents"`
	Source          PartSource `json:"source" validate:"oneof=inventory customer-provided"`
}

// LineTotalCents is the charged amount of the line.
func (p Part) LineTotalCents() int64 {
	return p.UnitPriceCents * p.Quantity
}

// Job is one unit of billable work, or a reconstructed sale.
type Job struct {
	ID              string    `json:"id" gorm:"primaryKey;size:36"`
	CustomerID      string    `json:"customer_id" gorm:"index;size:36" validate:"required"`
	Title           string    `json:"title"`
	Status          JobStatus `json:"status" gorm:"index" validate:"required"`
	Date            string    `json:"date"` // YYYY-MM-DD
	LaborHours      float64   `json:"labor_hours" validate:"min=0"`
	LaborRateCents  int64     `json:"labor_rate_cents" validate:"min=0"`
	Parts           []Part    `json:"parts" gorm:"foreignKey:JobID" validate:"dive"`
	MiscFeesCents   int64     `json:"misc_fees_cents"`
	TaxRate         float64   `json:"tax_rate" validate:"min=0,max=100"` // percent
	Notes           string    `json:"notes"`
	TechnicianNotes string    `json:"technician_notes"`
	InvoiceID       *string   `json:"invoice_id" gorm:"size:36"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Reminder is a follow-up attached to a Job.
type Reminder struct {
	ID      string    `json:"id" gorm:"primaryKey;size:36"`
	JobID   string    `json:"job_id" gorm:"index;size:36"`
	Message string    `json:"message"`
	DueAt   time.Time `json:"due_at"`
}

// Attachment is a file reference attached to a Job.
type Attachment struct {
	ID       string `json:"id" gorm:"primaryKey;size:36"`
	JobID    string `json:"job_id" gorm:"index;size:36"`
	FileName string `json:"file_name"`
	Path     string `json:"path"`
}
