package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopledger/pkg/models"
)

func TestVerify(t *testing.T) {
	consistent := func() *models.Invoice {
		return &models.Invoice{
			ID: "i1", PartsTotalCents: 1000, PassThroughPartsCents: 200, SubtotalCents: 1200,
			TaxCents: 120, TotalCents: 1320, IncomeAmountCents: 1120,
			PaidAmountCents: 300, PaymentStatus: models.PaymentStatusPartial,
		}
	}
	payments := []models.Payment{
		{ID: "p1", Type: models.PaymentTypePayment, AmountCents: 500},
		{ID: "p2", Type: models.PaymentTypeRefund, AmountCents: 200},
	}

	tests := []struct {
		name     string
		mutate   func(inv *models.Invoice)
		payments []models.Payment
		warnings int
	}{
		{name: "consistent", mutate: func(*models.Invoice) {}, payments: payments},
		{name: "subtotal drift", mutate: func(inv *models.Invoice) { inv.SubtotalCents = 1100 }, payments: payments, warnings: 2},
		{name: "income drift", mutate: func(inv *models.Invoice) { inv.IncomeAmountCents = 1320 }, payments: payments, warnings: 1},
		{name: "paid drift", mutate: func(inv *models.Invoice) { inv.PaidAmountCents = 500 }, payments: payments, warnings: 1},
		{name: "stale status", mutate: func(inv *models.Invoice) { inv.PaymentStatus = models.PaymentStatusPaid }, payments: payments, warnings: 1},
		{
			name:   "refund floor replayed",
			mutate: func(inv *models.Invoice) { inv.PaidAmountCents = 100 },
			payments: []models.Payment{
				{ID: "r1", Type: models.PaymentTypeRefund, AmountCents: 400},
				{ID: "p1", Type: models.PaymentTypePayment, AmountCents: 100},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := consistent()
			tt.mutate(inv)
			v := Verify(inv, tt.payments)
			assert.Len(t, v.Warnings, tt.warnings, v.Warnings)
			assert.Equal(t, tt.warnings == 0, v.OK())
		})
	}
}

func TestService_VerifyAll(t *testing.T) {
	svc, st := setupService(t)
	ctx := context.Background()
	customer := seedCustomer(t, svc, "Jane Doe")

	job := createJob(t, svc, customer.ID, 5000)
	_, err := svc.CompleteJob(ctx, job.ID)
	require.NoError(t, err)
	_, err = svc.RecordPayment(ctx, job.ID, PaymentInput{AmountCents: 6000})
	require.NoError(t, err)
	_, err = svc.RecordRefund(ctx, job.ID, PaymentInput{AmountCents: 1000})
	require.NoError(t, err)

	results, err := svc.VerifyAll(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].OK(), results[0].Warnings)

	inv, err := st.GetInvoiceByJob(ctx, job.ID)
	require.NoError(t, err)
	inv.PaidAmountCents = 1
	require.NoError(t, st.SaveInvoice(ctx, inv))

	v, err := svc.VerifyJob(ctx, job.ID)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.False(t, v.OK())

	v, err = svc.VerifyJob(ctx, "missing")
	assert.NoError(t, err)
	assert.Nil(t, v)
}
