// Package audit accumulates append-only audit entries for the mutations of
// one logical operation, to be written in the same transaction.
package audit

import (
	"context"
	"fmt"
	"time"

	"shopledger/pkg/models"
)

// Entity types used in audit entries.
const (
	EntityCustomer   = "customer"
	EntityJob        = "job"
	EntityInvoice    = "invoice"
	EntityPayment    = "payment"
	EntityExpense    = "expense"
	EntityInventory  = "inventory"
	EntityReminder   = "reminder"
	EntityAttachment = "attachment"
	EntitySettings   = "settings"

	EntityExternalReference = "external_reference"
)

// Actions used in audit entries.
const (
	ActionCreated  = "created"
	ActionUpdated  = "updated"
	ActionDeleted  = "deleted"
	ActionImported = "imported"
	ActionRestored = "restored"
	ActionConsumed = "consumed"
)

// Appender persists audit entries. *store.Store satisfies it.
type Appender interface {
	AppendAudit(ctx context.Context, entries []models.AuditLog) error
}

// Recorder collects entries until Flush. It is not safe for concurrent use;
// the ledger has a single writer.
type Recorder struct {
	now     func() time.Time
	entries []models.AuditLog
}

// NewRecorder returns a recorder stamping entries with now. A nil now uses
// time.Now.
func NewRecorder(now func() time.Time) *Recorder {
	if now == nil {
		now = time.Now
	}
	return &Recorder{now: now}
}

// Record queues one entry.
func (r *Recorder) Record(entityType, entityID, action, details string) {
	r.entries = append(r.entries, models.AuditLog{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Details:    details,
		Timestamp:  r.now().UTC(),
	})
}

// Recordf queues one entry with formatted details.
func (r *Recorder) Recordf(entityType, entityID, action, format string, args ...interface{}) {
	r.Record(entityType, entityID, action, fmt.Sprintf(format, args...))
}

// Entries returns the queued entries.
func (r *Recorder) Entries() []models.AuditLog {
	return r.entries
}

// Len is the number of queued entries.
func (r *Recorder) Len() int {
	return len(r.entries)
}

// Flush writes the queued entries through a and clears the queue. On error
// the queue is kept so the caller can decide what to do.
func (r *Recorder) Flush(ctx context.Context, a Appender) error {
	if len(r.entries) == 0 {
		return nil
	}
	if err := a.AppendAudit(ctx, r.entries); err != nil {
		return fmt.Errorf("audit: flush %d entries: %w", len(r.entries), err)
	}
	r.entries = nil
	return nil
}

// Reset drops queued entries, used when the surrounding transaction rolled back.
func (r *Recorder) Reset() {
	r.entries = nil
}
