package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopledger/pkg/models"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newJob(customerID string, parts ...models.Part) *models.Job {
	for i := range parts {
		parts[i].ID = uuid.NewString()
	}
	return &models.Job{
		ID:         uuid.NewString(),
		CustomerID: customerID,
		Status:     models.JobStatusInProgress,
		Parts:      parts,
	}
}

func TestStore_JobRoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	job := newJob("c1",
		models.Part{Name: "Fan", Quantity: 2, UnitCostCents: 500, UnitPriceCents: 900, Source: models.PartSourceInventory},
		models.Part{Name: "Cable", Quantity: 1, UnitCostCents: 300, UnitPriceCents: 300, Source: models.PartSourceCustomerProvided},
	)
	require.NoError(t, s.CreateJob(ctx, job))

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	require.Len(t, got.Parts, 2)
	assert.Equal(t, "Fan", got.Parts[0].Name)
	assert.Equal(t, "Cable", got.Parts[1].Name)

	t.Run("save replaces parts", func(t *testing.T) {
		got.Parts = []models.Part{{ID: uuid.NewString(), Name: "Board", Quantity: 1, UnitPriceCents: 2500, Source: models.PartSourceInventory}}
		got.MiscFeesCents = 100
		require.NoError(t, s.SaveJob(ctx, got))

		reloaded, err := s.GetJob(ctx, job.ID)
		require.NoError(t, err)
		require.Len(t, reloaded.Parts, 1)
		assert.Equal(t, "Board", reloaded.Parts[0].Name)
		assert.Equal(t, int64(100), reloaded.MiscFeesCents)
	})

	t.Run("count jobs for customer", func(t *testing.T) {
		count, err := s.CountJobsForCustomer(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("delete removes parts", func(t *testing.T) {
		require.NoError(t, s.DeleteJob(ctx, job.ID))
		_, err := s.GetJob(ctx, job.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		var parts int64
		require.NoError(t, s.db.Model(&models.Part{}).Count(&parts).Error)
		assert.Equal(t, int64(0), parts)
	})
}

func TestStore_TransactionRollsBackOnError(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Transaction(ctx, func(tx *Store) error {
		require.NoError(t, tx.CreateCustomer(ctx, &models.Customer{ID: uuid.NewString(), Name: "Jane"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	customers, err := s.ListCustomers(ctx)
	require.NoError(t, err)
	assert.Empty(t, customers)
}

func TestStore_RollbackDiscardsWrites(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	err := s.Rollback(ctx, func(tx *Store) error {
		if err := tx.CreateCustomer(ctx, &models.Customer{ID: uuid.NewString(), Name: "Jane"}); err != nil {
			return err
		}
		inside, err := tx.ListCustomers(ctx)
		require.NoError(t, err)
		assert.Len(t, inside, 1)
		return nil
	})
	require.NoError(t, err)

	customers, err := s.ListCustomers(ctx)
	require.NoError(t, err)
	assert.Empty(t, customers)
}

func TestStore_Settings(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	settings, err := s.LoadSettings(ctx, models.Settings{InvoicePrefix: "INV-", DefaultTaxRate: 7})
	require.NoError(t, err)
	assert.Equal(t, int64(1), settings.NextInvoiceNumber)
	assert.Equal(t, "INV-0001", settings.AllocateInvoiceNumber())
	require.NoError(t, s.SaveSettings(ctx, settings))

	again, err := s.LoadSettings(ctx, models.Settings{InvoicePrefix: "OTHER-"})
	require.NoError(t, err)
	assert.Equal(t, "INV-", again.InvoicePrefix)
	assert.Equal(t, int64(2), again.NextInvoiceNumber)
	assert.Equal(t, 7.0, again.DefaultTaxRate)
}

func TestStore_ExternalReferencesAreUnique(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	ref := models.ExternalReference{Source: "processor-ledger", Kind: "job", ExternalID: "TX123", EntityType: "job", EntityID: "j1"}
	require.NoError(t, s.CreateExternalReferences(ctx, []models.ExternalReference{ref}))

	ref.ID = 0
	assert.Error(t, s.CreateExternalReferences(ctx, []models.ExternalReference{ref}))

	refs, err := s.ListExternalReferences(ctx, "processor-ledger")
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "TX123", refs[0].ExternalID)

	other, err := s.ListExternalReferences(ctx, "marketplace")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestStore_DeleteExternalReferencesForEntity(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateExternalReferences(ctx, []models.ExternalReference{
		{Source: "processor", Kind: "job", ExternalID: "TX1", EntityType: "job", EntityID: "j1"},
		{Source: "processor", Kind: "expense", ExternalID: "TX1", EntityType: "expense", EntityID: "e1"},
		{Source: "processor", Kind: "job", ExternalID: "TX2", EntityType: "job", EntityID: "j2"},
	}))

	removed, err := s.DeleteExternalReferencesForEntity(ctx, "job", "j1")
	require.NoError(t, err)
	require.Len(t, removed, 1)
	assert.Equal(t, "TX1", removed[0].ExternalID)

	refs, err := s.ListExternalReferences(ctx, "processor")
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, "expense", refs[0].Kind)
	assert.Equal(t, "TX2", refs[1].ExternalID)

	removed, err = s.DeleteExternalReferencesForEntity(ctx, "job", "j1")
	require.NoError(t, err)
	assert.Empty(t, removed)
}

func TestStore_DetachExpensesFromJob(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	jobID := "j1"
	require.NoError(t, s.CreateExpense(ctx, &models.Expense{ID: "e1", JobID: &jobID, AmountCents: 580}))
	require.NoError(t, s.CreateExpense(ctx, &models.Expense{ID: "e2", AmountCents: 100}))

	ids, err := s.DetachExpensesFromJob(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, []string{"e1"}, ids)

	expenses, err := s.ListExpenses(ctx)
	require.NoError(t, err)
	require.Len(t, expenses, 2)
	for _, e := range expenses {
		assert.Nil(t, e.JobID, e.ID)
	}
}

func TestStore_AdjustInventory(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	item := &models.InventoryItem{ID: uuid.NewString(), Name: "Pi Zero W", Quantity: 5}
	require.NoError(t, s.CreateInventoryItem(ctx, item))
	require.NoError(t, s.AdjustInventory(ctx, item.ID, -2))

	got, err := s.GetInventoryItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.Quantity)

	assert.ErrorIs(t, s.AdjustInventory(ctx, "missing", 1), ErrNotFound)
}

func TestStore_PaymentsAndAudit(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for _, amount := range []int64{1000, 2000} {
		require.NoError(t, s.CreatePayment(ctx, &models.Payment{
			ID: uuid.NewString(), InvoiceID: "inv1", Type: models.PaymentTypePayment, AmountCents: amount,
		}))
	}

	ids, err := s.DeletePaymentsForInvoice(ctx, "inv1")
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	remaining, err := s.ListPayments(ctx, "inv1")
	require.NoError(t, err)
	assert.Empty(t, remaining)

	require.NoError(t, s.AppendAudit(ctx, []models.AuditLog{
		{EntityType: "job", EntityID: "j1", Action: "created"},
		{EntityType: "invoice", EntityID: "i1", Action: "created"},
		{EntityType: "job", EntityID: "j1", Action: "updated"},
	}))

	entries, err := s.ListAudit(ctx, AuditFilter{EntityType: "job", EntityID: "j1"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "created", entries[0].Action)
	assert.Equal(t, "updated", entries[1].Action)
}
