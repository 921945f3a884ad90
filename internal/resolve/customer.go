// Package resolve holds the get-or-create resolvers an import run uses to
// map external names onto customers and inventory. A resolver is built fresh
// for each run from the records already in the store, and is discarded once
// the run is persisted.
package resolve

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"shopledger/internal/audit"
	"shopledger/pkg/models"
)

// CustomerDetails are the optional fields copied onto a newly created customer.
type CustomerDetails struct {
	Email   string
	Address string
	Tags    string
	Source  string
}

// CustomerResolver matches customers by exact, case-insensitive, trimmed
// name. There is no fuzzy matching: "Jane Doe" and "Jane M. Doe" are two
// customers.
type CustomerResolver struct {
	byName  map[string]*models.Customer
	pending []*models.Customer
	audit   *audit.Recorder
	now     func() time.Time
}

// NewCustomerResolver indexes known customers. Entries are recorded on rec.
func NewCustomerResolver(known []models.Customer, rec *audit.Recorder, now func() time.Time) *CustomerResolver {
	if now == nil {
		now = time.Now
	}
	r := &CustomerResolver{
		byName: make(map[string]*models.Customer, len(known)),
		audit:  rec,
		now:    now,
	}
	for i := range known {
		key := nameKey(known[i].Name)
		if key == "" {
			continue
		}
		if _, exists := r.byName[key]; !exists {
			c := known[i]
			r.byName[key] = &c
		}
	}
	return r
}

// nameKey folds case after composing the name, so "Zoë" typed with a
// combining diaeresis matches the precomposed spelling.
func nameKey(name string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(name)))
}

// Resolve returns the customer called name, creating and registering one if
// none exists. A created customer is visible to every later Resolve call of
// the run. The bool reports whether the customer was created.
func (r *CustomerResolver) Resolve(name string, details CustomerDetails) (*models.Customer, bool) {
	key := nameKey(name)
	if c, ok := r.byName[key]; ok {
		return c, false
	}

	now := r.now().UTC()
	c := &models.Customer{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(name),
		Email:     details.Email,
		Address:   details.Address,
		Tags:      details.Tags,
		Source:    details.Source,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.byName[key] = c
	r.pending = append(r.pending, c)
	r.audit.Recordf(audit.EntityCustomer, c.ID, audit.ActionCreated, "created %q from %s import", c.Name, details.Source)
	return c, true
}

// TakePending returns customers created since the last call and clears the
// list. Importers persist them with the row that first referenced them.
func (r *CustomerResolver) TakePending() []*models.Customer {
	pending := r.pending
	r.pending = nil
	return pending
}
