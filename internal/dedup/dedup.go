// Package dedup makes imports idempotent. Every imported transaction leaves
// an external reference keyed by (source, kind, external id); the guard
// loads those before a batch and answers whether an incoming row was already
// imported.
package dedup

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"shopledger/pkg/models"
)

// Kind is what an external identifier was imported as.
type Kind string

const (
	KindJob     Kind = "job"
	KindExpense Kind = "expense"
)

// markerPattern matches the human-readable marker written into notes:
// "[import:<source> <kind>:<id>]".
var markerPattern = regexp.MustCompile(`\[import:(\S+) (job|expense):([^\]]+)\]`)

// Marker renders the notes marker for an imported identifier. It is kept for
// people reading the notes and as a fallback for records imported before the
// reference table existed.
func Marker(source string, kind Kind, externalID string) string {
	return fmt.Sprintf("[import:%s %s:%s]", source, kind, externalID)
}

// Source is the read side of the store the guard needs.
type Source interface {
	ListExternalReferences(ctx context.Context, source string) ([]models.ExternalReference, error)
	ListJobs(ctx context.Context) ([]models.Job, error)
	ListExpenses(ctx context.Context) ([]models.Expense, error)
}

// Guard tracks seen identifiers for one import source.
type Guard struct {
	source string
	seen   map[Kind]map[string]struct{}
}

// NewGuard returns an empty guard for source.
func NewGuard(source string) *Guard {
	return &Guard{
		source: source,
		seen: map[Kind]map[string]struct{}{
			KindJob:     {},
			KindExpense: {},
		},
	}
}

// Load builds a guard from the reference table, then from markers found in
// job technician notes and expense notes.
func Load(ctx context.Context, src Source, source string) (*Guard, error) {
	const op = "dedup.Load"
	g := NewGuard(source)

	refs, err := src.ListExternalReferences(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list references: %w", op, err)
	}
	for _, ref := range refs {
		g.Mark(Kind(ref.Kind), ref.ExternalID)
	}

	jobs, err := src.ListJobs(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list jobs: %w", op, err)
	}
	for _, job := range jobs {
		g.scan(job.TechnicianNotes, KindJob)
	}

	expenses, err := src.ListExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list expenses: %w", op, err)
	}
	for _, expense := range expenses {
		g.scan(expense.Notes, KindExpense)
	}

	return g, nil
}

// scan marks every marker for this source and kind found in text.
func (g *Guard) scan(text string, kind Kind) {
	for _, m := range markerPattern.FindAllStringSubmatch(text, -1) {
		if m[1] == g.source && Kind(m[2]) == kind {
			g.Mark(kind, m[3])
		}
	}
}

// Seen reports whether externalID was already imported as kind.
func (g *Guard) Seen(kind Kind, externalID string) bool {
	_, ok := g.seen[kind][normalize(externalID)]
	return ok
}

// Mark records externalID as imported.
func (g *Guard) Mark(kind Kind, externalID string) {
	id := normalize(externalID)
	if id == "" {
		return
	}
	if g.seen[kind] == nil {
		g.seen[kind] = map[string]struct{}{}
	}
	g.seen[kind][id] = struct{}{}
}

// Len is the number of identifiers known for kind.
func (g *Guard) Len(kind Kind) int {
	return len(g.seen[kind])
}

// Reference builds the persisted record for an imported identifier.
func (g *Guard) Reference(kind Kind, externalID, entityType, entityID string, now time.Time) models.ExternalReference {
	return models.ExternalReference{
		Source:     g.source,
		Kind:       string(kind),
		ExternalID: normalize(externalID),
		EntityType: entityType,
		EntityID:   entityID,
		CreatedAt:  now.UTC(),
	}
}

func normalize(id string) string {
	return strings.TrimSpace(id)
}
