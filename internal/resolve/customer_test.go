package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopledger/internal/audit"
	"shopledger/pkg/models"
)

func TestCustomerResolver_MatchesExistingCaseInsensitively(t *testing.T) {
	rec := audit.NewRecorder(nil)
	known := []models.Customer{{ID: "c1", Name: "Jane Doe"}}
	r := NewCustomerResolver(known, rec, nil)

	c, created := r.Resolve("  JANE doe ", CustomerDetails{Source: "processor"})
	assert.False(t, created)
	assert.Equal(t, "c1", c.ID)
	assert.Empty(t, r.TakePending())
	assert.Equal(t, 0, rec.Len())
}

func TestCustomerResolver_CreatedCustomerIsVisibleToLaterRows(t *testing.T) {
	rec := audit.NewRecorder(nil)
	r := NewCustomerResolver(nil, rec, nil)

	first, created := r.Resolve("Ann Buyer", CustomerDetails{Email: "ann@example.com", Source: "marketplace"})
	require.True(t, created)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, "ann@example.com", first.Email)

	second, created := r.Resolve("ann buyer", CustomerDetails{})
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	assert.Len(t, r.TakePending(), 1)

	require.Equal(t, 1, rec.Len())
	entry := rec.Entries()[0]
	assert.Equal(t, audit.EntityCustomer, entry.EntityType)
	assert.Equal(t, first.ID, entry.EntityID)
	assert.Equal(t, audit.ActionCreated, entry.Action)
}

func TestCustomerResolver_NoFuzzyMatching(t *testing.T) {
	r := NewCustomerResolver([]models.Customer{{ID: "c1", Name: "Jane Doe"}}, audit.NewRecorder(nil), nil)

	c, created := r.Resolve("Jane M. Doe", CustomerDetails{})
	assert.True(t, created)
	assert.NotEqual(t, "c1", c.ID)
}

func TestCustomerResolver_TakePending(t *testing.T) {
	r := NewCustomerResolver(nil, audit.NewRecorder(nil), nil)

	r.Resolve("A", CustomerDetails{})
	r.Resolve("B", CustomerDetails{})
	assert.Len(t, r.TakePending(), 2)
	assert.Empty(t, r.TakePending())

	r.Resolve("a", CustomerDetails{})
	assert.Empty(t, r.TakePending(), "a match creates nothing to persist")
}

func TestCustomerResolver_MatchesComposedAndDecomposedNames(t *testing.T) {
	known := []models.Customer{{ID: "c1", Name: "Zo\u00eb Keller"}}
	r := NewCustomerResolver(known, audit.NewRecorder(nil), nil)

	c, created := r.Resolve("ZOE\u0308 KELLER", CustomerDetails{})
	assert.False(t, created)
	assert.Equal(t, "c1", c.ID)
}
