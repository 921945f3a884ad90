package store

import (
	"context"

	"shopledger/pkg/models"
)

func (s *Store) GetInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := s.conn(ctx).First(&invoice, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &invoice, nil
}

// GetInvoiceByJob returns ErrNotFound when the job has not been invoiced.
func (s *Store) GetInvoiceByJob(ctx context.Context, jobID string) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := s.conn(ctx).First(&invoice, "job_id = ?", jobID).Error; err != nil {
		return nil, notFound(err)
	}
	return &invoice, nil
}

func (s *Store) ListInvoices(ctx context.Context) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := s.conn(ctx).Order("created_at, id").Find(&invoices).Error
	return invoices, err
}

func (s *Store) CreateInvoice(ctx context.Context, invoice *models.Invoice) error {
	return s.conn(ctx).Create(invoice).Error
}

func (s *Store) SaveInvoice(ctx context.Context, invoice *models.Invoice) error {
	return s.conn(ctx).Save(invoice).Error
}

func (s *Store) DeleteInvoice(ctx context.Context, id string) error {
	return s.conn(ctx).Delete(&models.Invoice{}, "id = ?", id).Error
}

func (s *Store) CreatePayment(ctx context.Context, payment *models.Payment) error {
	return s.conn(ctx).Create(payment).Error
}

// ListPayments returns an invoice's payments and refunds in the order recorded.
func (s *Store) ListPayments(ctx context.Context, invoiceID string) ([]models.Payment, error) {
	var payments []models.Payment
	err := s.conn(ctx).Where("invoice_id = ?", invoiceID).Order("created_at, id").Find(&payments).Error
	return payments, err
}

// DeletePaymentsForInvoice returns the removed payment IDs.
func (s *Store) DeletePaymentsForInvoice(ctx context.Context, invoiceID string) ([]string, error) {
	var ids []string
	db := s.conn(ctx)
	if err := db.Model(&models.Payment{}).Where("invoice_id = ?", invoiceID).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return ids, db.Where("invoice_id = ?", invoiceID).Delete(&models.Payment{}).Error
}

func (s *Store) CreateExpense(ctx context.Context, expense *models.Expense) error {
	return s.conn(ctx).Create(expense).Error
}

func (s *Store) ListExpenses(ctx context.Context) ([]models.Expense, error) {
	var expenses []models.Expense
	err := s.conn(ctx).Order("created_at, id").Find(&expenses).Error
	return expenses, err
}

// DetachExpensesFromJob clears the job link on the job's expenses and returns
// their ids. The expenses themselves are kept.
func (s *Store) DetachExpensesFromJob(ctx context.Context, jobID string) ([]string, error) {
	db := s.conn(ctx)
	var ids []string
	if err := db.Model(&models.Expense{}).Where("job_id = ?", jobID).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return ids, db.Model(&models.Expense{}).Where("job_id = ?", jobID).Update("job_id", nil).Error
}
