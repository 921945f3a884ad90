// Package ledger is the invoice financial state machine. It generates an
// invoice from a job, keeps invoice totals in step with job edits, applies
// payments and refunds, and keeps the job lifecycle status consistent with
// the money actually collected.
//
// Every public operation is one store transaction: the mutation, its audit
// entries and any settings counter change commit together.
//
// Operating on a job or invoice that does not exist is a no-op. Two guards
// fail loudly instead: deleting a locked job without force, and deleting a
// customer that still owns jobs.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"shopledger/internal/audit"
	"shopledger/internal/logger"
	"shopledger/internal/store"
	"shopledger/pkg/models"
)

// Config holds the ledger's calculation settings.
type Config struct {
	// TaxBasis selects what organic jobs are taxed on.
	// Default: TaxOnSubtotal.
	TaxBasis TaxBasis

	// Settings seeds the settings row the first time it is needed.
	Settings models.Settings

	// Now is the clock used for timestamps and default dates.
	// Default: time.Now.
	Now func() time.Time
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		TaxBasis: TaxOnSubtotal,
		Settings: models.Settings{
			ID:                models.SettingsID,
			InvoicePrefix:     "INV-",
			NextInvoiceNumber: 1,
		},
		Now: time.Now,
	}
}

// Service runs ledger operations against a store.
type Service struct {
	store    *store.Store
	cfg      Config
	validate *validator.Validate
	log      zerolog.Logger
}

// NewService returns a Service over st. Zero Config fields take their defaults.
func NewService(st *store.Store, cfg Config) *Service {
	def := DefaultConfig()
	if cfg.TaxBasis == "" {
		cfg.TaxBasis = def.TaxBasis
	}
	if cfg.Now == nil {
		cfg.Now = def.Now
	}
	if cfg.Settings.ID == 0 {
		cfg.Settings.ID = models.SettingsID
	}
	if cfg.Settings.NextInvoiceNumber < 1 {
		cfg.Settings.NextInvoiceNumber = 1
	}
	return &Service{
		store:    st,
		cfg:      cfg,
		validate: validator.New(),
		log:      logger.WithComponent("ledger"),
	}
}

func (s *Service) today() string {
	return s.cfg.Now().Format("2006-01-02")
}

// write runs fn in one transaction and flushes its audit entries into it.
func (s *Service) write(ctx context.Context, fn func(tx *store.Store, rec *audit.Recorder) error) error {
	return s.store.Transaction(ctx, func(tx *store.Store) error {
		rec := audit.NewRecorder(s.cfg.Now)
		if err := fn(tx, rec); err != nil {
			return err
		}
		return rec.Flush(ctx, tx)
	})
}

func loadJob(ctx context.Context, tx *store.Store, id string) (*models.Job, error) {
	job, err := tx.GetJob(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrJobNotFound
	}
	return job, err
}

func loadInvoice(ctx context.Context, tx *store.Store, job *models.Job) (*models.Invoice, error) {
	inv, err := tx.GetInvoiceByJob(ctx, job.ID)
	if errors.Is(err, store.ErrNotFound) {
		if job.InvoiceID != nil {
			return nil, ErrInvoiceNotFound
		}
		return nil, ErrNotInvoiced
	}
	return inv, err
}

// NewJob returns a quoted job for customerID carrying the settings' default
// tax and labor rates.
func NewJob(customerID, title string, settings *models.Settings) *models.Job {
	job := &models.Job{
		ID:         uuid.NewString(),
		CustomerID: customerID,
		Title:      title,
		Status:     models.JobStatusQuoted,
	}
	if settings != nil {
		job.TaxRate = settings.DefaultTaxRate
		job.LaborRateCents = settings.DefaultLaborRateCents
	}
	return job
}

// Settings returns the persisted settings, creating them from the configured
// defaults on first use.
func (s *Service) Settings(ctx context.Context) (*models.Settings, error) {
	return s.store.LoadSettings(ctx, s.cfg.Settings)
}

func (s *Service) validateJob(job *models.Job) error {
	if err := s.validate.Struct(job); err != nil {
		return fromValidator(err)
	}
	if !job.Status.IsValid() {
		return &ValidationError{Field: "Job.Status", Value: job.Status, Message: "unknown status"}
	}
	return nil
}

func prepareParts(parts []models.Part) {
	for i := range parts {
		if parts[i].ID == "" {
			parts[i].ID = uuid.NewString()
		}
		if parts[i].Source == "" {
			parts[i].Source = models.PartSourceInventory
		}
		if parts[i].Quantity == 0 {
			parts[i].Quantity = 1
		}
	}
}

// CreateCustomer validates and inserts a customer.
func (s *Service) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	const op = "CreateCustomer"

	if customer.ID == "" {
		customer.ID = uuid.NewString()
	}
	if err := s.validate.Struct(customer); err != nil {
		return newLedgerError(op, customer.ID, fromValidator(err))
	}

	return s.write(ctx, func(tx *store.Store, rec *audit.Recorder) error {
		if err := tx.CreateCustomer(ctx, customer); err != nil {
			return newLedgerError(op, customer.ID, err)
		}
		rec.Recordf(audit.EntityCustomer, customer.ID, audit.ActionCreated, "created %q", customer.Name)
		return nil
	})
}

// CreateJob validates and inserts a job, consuming inventory for its parts.
// Invoiced and paid are reached only through invoicing and payments.
func (s *Service) CreateJob(ctx context.Context, job *models.Job) error {
	const op = "CreateJob"

	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.JobStatusQuoted
	}
	if job.Date == "" {
		job.Date = s.today()
	}
	if job.Status.IsLocked() {
		return newLedgerError(op, job.ID, fmt.Errorf("%w: cannot create a job as %s", ErrInvalidTransition, job.Status))
	}
	prepareParts(job.Parts)
	if err := s.validateJob(job); err != nil {
		return newLedgerError(op, job.ID, err)
	}

	return s.write(ctx, func(tx *store.Store, rec *audit.Recorder) error {
		if _, err := tx.GetCustomer(ctx, job.CustomerID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return newLedgerError(op, job.ID, fmt.Errorf("%w: %s", ErrUnknownCustomer, job.CustomerID))
			}
			return newLedgerError(op, job.ID, err)
		}
		if err := tx.CreateJob(ctx, job); err != nil {
			return newLedgerError(op, job.ID, err)
		}
		if err := ConsumeParts(ctx, tx, job.Parts, rec); err != nil {
			return newLedgerError(op, job.ID, err)
		}
		rec.Recordf(audit.EntityJob, job.ID, audit.ActionCreated, "%q for customer %s", job.Title, job.CustomerID)
		return nil
	})
}

// JobEdit lists the fields to change. Nil fields are left alone.
type JobEdit struct {
	Title           *string
	Status          *models.JobStatus
	Date            *string
	Notes           *string
	TechnicianNotes *string

	// Billable fields. Changing any of them on a locked job needs an override
	// and, once invoiced, recalculates the invoice.
	LaborHours     *float64
	LaborRateCents *int64
	Parts          *[]models.Part
	MiscFeesCents  *int64
	TaxRate        *float64
}

// Billable reports whether the edit touches a field the invoice is computed from.
func (e JobEdit) Billable() bool {
	return e.LaborHours != nil || e.LaborRateCents != nil || e.Parts != nil ||
		e.MiscFeesCents != nil || e.TaxRate != nil
}

// checkTransition enforces the forward-only lifecycle. override allows a
// corrective move backwards among the pre-invoice statuses. The invoiced and
// paid statuses follow the money and are never set by hand.
func checkTransition(from, to models.JobStatus, override bool) error {
	if from == to {
		return nil
	}
	if !to.IsValid() {
		return &ValidationError{Field: "Job.Status", Value: to, Message: "unknown status"}
	}
	if from.IsLocked() || to.IsLocked() {
		return fmt.Errorf("%w: %s -> %s is driven by invoicing", ErrInvalidTransition, from, to)
	}
	if to.Rank() < from.Rank() && !override {
		return fmt.Errorf("%w: %s -> %s moves backwards", ErrInvalidTransition, from, to)
	}
	return nil
}

// UpdateJob applies edit to the job. A missing job returns (nil, nil).
func (s *Service) UpdateJob(ctx context.Context, jobID string, edit JobEdit, override bool) (*models.Job, error) {
	const op = "UpdateJob"

	var updated *models.Job
	err := s.write(ctx, func(tx *store.Store, rec *audit.Recorder) error {
		save := func(job *models.Job) error {
			if err := tx.SaveJob(ctx, job); err != nil {
				return newLedgerError(op, jobID, err)
			}
			rec.Record(audit.EntityJob, job.ID, audit.ActionUpdated, "edited")
			updated = job
			return nil
		}

		job, err := loadJob(ctx, tx, jobID)
		if err != nil {
			return err
		}

		if edit.Billable() && job.Status.IsLocked() && !override {
			return newLedgerError(op, jobID, ErrJobLocked)
		}
		if edit.Status != nil {
			if err := checkTransition(job.Status, *edit.Status, override); err != nil {
				return newLedgerError(op, jobID, err)
			}
			job.Status = *edit.Status
		}

		if edit.Title != nil {
			job.Title = *edit.Title
		}
		if edit.Date != nil {
			job.Date = *edit.Date
		}
		if edit.Notes != nil {
			job.Notes = *edit.Notes
		}
		if edit.TechnicianNotes != nil {
			job.TechnicianNotes = *edit.TechnicianNotes
		}
		if edit.LaborHours != nil {
			job.LaborHours = *edit.LaborHours
		}
		if edit.LaborRateCents != nil {
			job.LaborRateCents = *edit.LaborRateCents
		}
		if edit.MiscFeesCents != nil {
			job.MiscFeesCents = *edit.MiscFeesCents
		}
		if edit.TaxRate != nil {
			job.TaxRate = *edit.TaxRate
		}
		if edit.Parts != nil {
			if err := RestoreParts(ctx, tx, job.Parts, rec, s.log); err != nil {
				return newLedgerError(op, jobID, err)
			}
			parts := append([]models.Part(nil), (*edit.Parts)...)
			prepareParts(parts)
			job.Parts = parts
			if err := ConsumeParts(ctx, tx, job.Parts, rec); err != nil {
				return newLedgerError(op, jobID, err)
			}
		}

		if err := s.validateJob(job); err != nil {
			return newLedgerError(op, jobID, err)
		}

		if edit.Billable() && job.InvoiceID != nil {
			inv, err := loadInvoice(ctx, tx, job)
			if missing(err) {
				s.log.Debug().Str("job_id", jobID).Msg("UpdateJob: invoice not found, skipping recalculation")
				return save(job)
			}
			if err != nil {
				return newLedgerError(op, jobID, err)
			}
			before := job.Status
			Recalculate(job, inv, s.cfg.TaxBasis)
			if err := tx.SaveInvoice(ctx, inv); err != nil {
				return newLedgerError(op, jobID, err)
			}
			rec.Recordf(audit.EntityInvoice, inv.ID, audit.ActionUpdated,
				"recalculated: total %d, paid %d, %s", inv.TotalCents, inv.PaidAmountCents, inv.PaymentStatus)
			if before != job.Status {
				s.log.Info().
					Str("job_id", job.ID).
					Str("from", string(before)).
					Str("to", string(job.Status)).
					Msg("Job status re-derived after recalculation")
			}
		}

		return save(job)
	})
	if missing(err) {
		s.log.Debug().Str("job_id", jobID).Msg("UpdateJob: job not found, nothing to do")
		return nil, nil
	}
	return updated, err
}

// CompleteJob generates the job's invoice. It is valid once per job. A
// missing job returns (nil, nil).
func (s *Service) CompleteJob(ctx context.Context, jobID string) (*models.Invoice, error) {
	const op = "CompleteJob"

	var invoice *models.Invoice
	err := s.write(ctx, func(tx *store.Store, rec *audit.Recorder) error {
		job, err := loadJob(ctx, tx, jobID)
		if err != nil {
			return err
		}
		if job.InvoiceID != nil {
			return newLedgerError(op, jobID, ErrAlreadyInvoiced)
		}
		if _, err := tx.GetInvoiceByJob(ctx, jobID); err == nil {
			return newLedgerError(op, jobID, ErrAlreadyInvoiced)
		} else if !errors.Is(err, store.ErrNotFound) {
			return newLedgerError(op, jobID, err)
		}

		settings, err := tx.LoadSettings(ctx, s.cfg.Settings)
		if err != nil {
			return newLedgerError(op, jobID, err)
		}
		number := settings.AllocateInvoiceNumber()

		inv := NewInvoice(job, number, s.cfg.TaxBasis, s.cfg.Now())
		if err := tx.CreateInvoice(ctx, inv); err != nil {
			return newLedgerError(op, jobID, err)
		}
		if err := tx.SaveJob(ctx, job); err != nil {
			return newLedgerError(op, jobID, err)
		}
		if err := tx.SaveSettings(ctx, settings); err != nil {
			return newLedgerError(op, jobID, err)
		}

		rec.Recordf(audit.EntityInvoice, inv.ID, audit.ActionCreated, "%s total %d", inv.InvoiceNumber, inv.TotalCents)
		rec.Recordf(audit.EntityJob, job.ID, audit.ActionUpdated, "status %s", job.Status)
		rec.Recordf(audit.EntitySettings, "1", audit.ActionUpdated, "next invoice number %d", settings.NextInvoiceNumber)
		invoice = inv
		return nil
	})
	if missing(err) {
		s.log.Debug().Str("job_id", jobID).Msg("CompleteJob: job not found, nothing to do")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("job_id", jobID).
		Str("invoice_number", invoice.InvoiceNumber).
		Int64("total_cents", invoice.TotalCents).
		Msg("Invoice generated")
	return invoice, nil
}

// Recalculate refreshes the job's invoice from the job's current fields. A
// missing job or invoice returns (nil, nil).
func (s *Service) Recalculate(ctx context.Context, jobID string) (*models.Invoice, error) {
	const op = "Recalculate"

	var invoice *models.Invoice
	err := s.write(ctx, func(tx *store.Store, rec *audit.Recorder) error {
		job, err := loadJob(ctx, tx, jobID)
		if err != nil {
			return err
		}
		inv, err := loadInvoice(ctx, tx, job)
		if err != nil {
			return err
		}

		before := job.Status
		Recalculate(job, inv, s.cfg.TaxBasis)
		if err := tx.SaveInvoice(ctx, inv); err != nil {
			return newLedgerError(op, jobID, err)
		}
		if err := tx.SaveJob(ctx, job); err != nil {
			return newLedgerError(op, jobID, err)
		}

		rec.Recordf(audit.EntityInvoice, inv.ID, audit.ActionUpdated,
			"recalculated: total %d, paid %d, %s", inv.TotalCents, inv.PaidAmountCents, inv.PaymentStatus)
		if before != job.Status {
			rec.Recordf(audit.EntityJob, job.ID, audit.ActionUpdated, "status %s -> %s", before, job.Status)
		}
		invoice = inv
		return nil
	})
	if missing(err) {
		s.log.Debug().Str("job_id", jobID).Msg("Recalculate: no invoice, nothing to do")
		return nil, nil
	}
	return invoice, err
}

// PaymentInput describes a payment or refund.
type PaymentInput struct {
	AmountCents int64
	Method      string
	Notes       string
	// Date is YYYY-MM-DD. Default: today.
	Date string
}

// RecordPayment applies a payment to the job's invoice. Reaching paid or
// overpaid moves the job to paid. A missing job or invoice returns (nil, nil).
func (s *Service) RecordPayment(ctx context.Context, jobID string, in PaymentInput) (*models.Payment, error) {
	return s.recordMovement(ctx, "RecordPayment", jobID, models.PaymentTypePayment, in)
}

// RecordRefund takes a refund off the job's invoice. The paid amount never
// drops below zero and the job status is not changed. A missing job or
// invoice returns (nil, nil).
func (s *Service) RecordRefund(ctx context.Context, jobID string, in PaymentInput) (*models.Payment, error) {
	return s.recordMovement(ctx, "RecordRefund", jobID, models.PaymentTypeRefund, in)
}

func (s *Service) recordMovement(ctx context.Context, op, jobID string, typ models.PaymentType, in PaymentInput) (*models.Payment, error) {
	if in.AmountCents <= 0 {
		return nil, newLedgerError(op, jobID, fmt.Errorf("%w: %d", ErrInvalidAmount, in.AmountCents))
	}
	if in.Date == "" {
		in.Date = s.today()
	}

	var payment *models.Payment
	err := s.write(ctx, func(tx *store.Store, rec *audit.Recorder) error {
		job, err := loadJob(ctx, tx, jobID)
		if err != nil {
			return err
		}
		inv, err := loadInvoice(ctx, tx, job)
		if err != nil {
			return err
		}

		p := &models.Payment{
			ID:          uuid.NewString(),
			InvoiceID:   inv.ID,
			Type:        typ,
			AmountCents: in.AmountCents,
			Method:      in.Method,
			Notes:       in.Notes,
			Date:        in.Date,
		}
		before := job.Status
		if typ == models.PaymentTypeRefund {
			ApplyRefund(inv, in.AmountCents)
		} else {
			ApplyPayment(job, inv, in.AmountCents)
		}

		if err := tx.CreatePayment(ctx, p); err != nil {
			return newLedgerError(op, jobID, err)
		}
		if err := tx.SaveInvoice(ctx, inv); err != nil {
			return newLedgerError(op, jobID, err)
		}
		rec.Recordf(audit.EntityPayment, p.ID, audit.ActionCreated, "%s %d via %s", typ, p.AmountCents, p.Method)
		rec.Recordf(audit.EntityInvoice, inv.ID, audit.ActionUpdated, "paid %d, %s", inv.PaidAmountCents, inv.PaymentStatus)

		if before != job.Status {
			if err := tx.SaveJob(ctx, job); err != nil {
				return newLedgerError(op, jobID, err)
			}
			rec.Recordf(audit.EntityJob, job.ID, audit.ActionUpdated, "status %s -> %s", before, job.Status)
		}
		payment = p
		return nil
	})
	if missing(err) {
		s.log.Debug().Str("job_id", jobID).Str("type", string(typ)).Msg("No invoice for job, nothing to do")
		return nil, nil
	}
	return payment, err
}

// DeleteJob removes a job and everything hanging off it: payments, invoice,
// reminders, attachments and parts, restoring the inventory its parts
// consumed. Expenses are kept but unlinked. The job's import references are
// removed, so the imported transaction can be imported again; expense
// references stay and keep the fee from being booked twice. A locked job
// needs force. A missing job is a no-op.
func (s *Service) DeleteJob(ctx context.Context, jobID string, force bool) error {
	const op = "DeleteJob"

	err := s.write(ctx, func(tx *store.Store, rec *audit.Recorder) error {
		job, err := loadJob(ctx, tx, jobID)
		if err != nil {
			return err
		}
		if job.Status.IsLocked() && !force {
			return newLedgerError(op, jobID, ErrJobLocked)
		}

		inv, err := loadInvoice(ctx, tx, job)
		switch {
		case err == nil:
			ids, err := tx.DeletePaymentsForInvoice(ctx, inv.ID)
			if err != nil {
				return newLedgerError(op, jobID, err)
			}
			for _, id := range ids {
				rec.Recordf(audit.EntityPayment, id, audit.ActionDeleted, "cascade from job %s", jobID)
			}
			if err := tx.DeleteInvoice(ctx, inv.ID); err != nil {
				return newLedgerError(op, jobID, err)
			}
			rec.Recordf(audit.EntityInvoice, inv.ID, audit.ActionDeleted, "%s, cascade from job %s", inv.InvoiceNumber, jobID)
		case missing(err):
		default:
			return newLedgerError(op, jobID, err)
		}

		if err := RestoreParts(ctx, tx, job.Parts, rec, s.log); err != nil {
			return newLedgerError(op, jobID, err)
		}

		n, err := tx.DeleteRemindersForJob(ctx, jobID)
		if err != nil {
			return newLedgerError(op, jobID, err)
		}
		if n > 0 {
			rec.Recordf(audit.EntityReminder, jobID, audit.ActionDeleted, "%d reminders", n)
		}
		n, err = tx.DeleteAttachmentsForJob(ctx, jobID)
		if err != nil {
			return newLedgerError(op, jobID, err)
		}
		if n > 0 {
			rec.Recordf(audit.EntityAttachment, jobID, audit.ActionDeleted, "%d attachments", n)
		}

		expenseIDs, err := tx.DetachExpensesFromJob(ctx, jobID)
		if err != nil {
			return newLedgerError(op, jobID, err)
		}
		for _, id := range expenseIDs {
			rec.Recordf(audit.EntityExpense, id, audit.ActionUpdated, "detached from deleted job %s", jobID)
		}
		refs, err := tx.DeleteExternalReferencesForEntity(ctx, audit.EntityJob, jobID)
		if err != nil {
			return newLedgerError(op, jobID, err)
		}
		for _, ref := range refs {
			rec.Recordf(audit.EntityExternalReference, jobID, audit.ActionDeleted, "%s %s:%s", ref.Source, ref.Kind, ref.ExternalID)
		}

		if err := tx.DeleteJob(ctx, jobID); err != nil {
			return newLedgerError(op, jobID, err)
		}
		rec.Recordf(audit.EntityJob, jobID, audit.ActionDeleted, "%q with %d parts, force=%t", job.Title, len(job.Parts), force)
		return nil
	})
	if missing(err) {
		s.log.Debug().Str("job_id", jobID).Msg("DeleteJob: job not found, nothing to do")
		return nil
	}
	return err
}

// DeleteCustomer removes a customer that owns no jobs. A missing customer is
// a no-op.
func (s *Service) DeleteCustomer(ctx context.Context, customerID string) error {
	const op = "DeleteCustomer"

	return s.write(ctx, func(tx *store.Store, rec *audit.Recorder) error {
		customer, err := tx.GetCustomer(ctx, customerID)
		if errors.Is(err, store.ErrNotFound) {
			s.log.Debug().Str("customer_id", customerID).Msg("DeleteCustomer: customer not found, nothing to do")
			return nil
		}
		if err != nil {
			return newLedgerError(op, customerID, err)
		}

		count, err := tx.CountJobsForCustomer(ctx, customerID)
		if err != nil {
			return newLedgerError(op, customerID, err)
		}
		if count > 0 {
			return newLedgerError(op, customerID, fmt.Errorf("%w: %d jobs", ErrCustomerHasJobs, count))
		}

		if err := tx.DeleteCustomer(ctx, customerID); err != nil {
			return newLedgerError(op, customerID, err)
		}
		rec.Recordf(audit.EntityCustomer, customerID, audit.ActionDeleted, "%q", customer.Name)
		return nil
	})
}
