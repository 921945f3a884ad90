package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Ledger state errors
var (
	// ErrJobNotFound is returned internally when a job id does not resolve.
	ErrJobNotFound = errors.New("job not found")

	// ErrInvoiceNotFound is returned internally when an invoice does not resolve.
	ErrInvoiceNotFound = errors.New("invoice not found")

	// ErrNotInvoiced is returned internally when a job has no invoice yet.
	ErrNotInvoiced = errors.New("job has not been invoiced")

	// ErrJobLocked is returned when an invoiced or paid job is edited
	// structurally, or deleted, without an explicit override.
	ErrJobLocked = errors.New("job is locked after invoicing")

	// ErrCustomerHasJobs is returned when deleting a customer that owns jobs.
	ErrCustomerHasJobs = errors.New("customer owns jobs and cannot be deleted")

	// ErrAlreadyInvoiced is returned when an invoice is generated twice for a job.
	ErrAlreadyInvoiced = errors.New("job already has an invoice")

	// ErrInvalidAmount is returned for non-positive payment or refund amounts.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrInvalidTransition is returned when a status edit moves backwards
	// without an override, or targets a status only invoicing may set.
	ErrInvalidTransition = errors.New("invalid job status transition")

	// ErrUnknownCustomer is returned when a job references a customer that does not exist.
	ErrUnknownCustomer = errors.New("job references an unknown customer")
)

// LedgerError wraps errors with the operation and entity that failed.
type LedgerError struct {
	// Op is the operation that failed (e.g., "DeleteJob").
	Op string

	// EntityID is the job, invoice or customer involved.
	EntityID string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *LedgerError) Error() string {
	if e.EntityID != "" {
		return fmt.Sprintf("ledger: %s %s: %v", e.Op, e.EntityID, e.Err)
	}
	return fmt.Sprintf("ledger: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *LedgerError) Unwrap() error {
	return e.Err
}

// missing reports whether err means the record does not exist, which every
// public operation treats as a no-op.
func missing(err error) bool {
	return errors.Is(err, ErrJobNotFound) || errors.Is(err, ErrInvoiceNotFound) || errors.Is(err, ErrNotInvoiced)
}

func newLedgerError(op, entityID string, err error) *LedgerError {
	return &LedgerError{Op: op, EntityID: entityID, Err: err}
}

// ValidationError represents invalid entity data.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is every field that failed validation.
type ValidationErrors []*ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, v := range e {
		msgs[i] = v.Error()
	}
	return strings.Join(msgs, "; ")
}

// fromValidator converts validator field errors into ValidationErrors.
func fromValidator(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := make(ValidationErrors, len(fieldErrs))
	for i, fe := range fieldErrs {
		msg := "failed " + fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		out[i] = &ValidationError{Field: fe.Namespace(), Value: fe.Value(), Message: msg}
	}
	return out
}
