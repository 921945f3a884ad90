package store

import (
	"context"

	"gorm.io/gorm"

	"shopledger/pkg/models"
)

// ListCustomers returns every customer, oldest first.
func (s *Store) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	var customers []models.Customer
	err := s.conn(ctx).Order("created_at, id").Find(&customers).Error
	return customers, err
}

// GetCustomer returns ErrNotFound when id is unknown.
func (s *Store) GetCustomer(ctx context.Context, id string) (*models.Customer, error) {
	var customer models.Customer
	if err := s.conn(ctx).First(&customer, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &customer, nil
}

func (s *Store) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	return s.conn(ctx).Create(customer).Error
}

func (s *Store) DeleteCustomer(ctx context.Context, id string) error {
	return s.conn(ctx).Delete(&models.Customer{}, "id = ?", id).Error
}

// CountJobsForCustomer counts the jobs a customer owns.
func (s *Store) CountJobsForCustomer(ctx context.Context, customerID string) (int64, error) {
	var count int64
	err := s.conn(ctx).Model(&models.Job{}).Where("customer_id = ?", customerID).Count(&count).Error
	return count, err
}

// ListInventory returns every inventory item, oldest first.
func (s *Store) ListInventory(ctx context.Context) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	err := s.conn(ctx).Order("created_at, id").Find(&items).Error
	return items, err
}

func (s *Store) GetInventoryItem(ctx context.Context, id string) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := s.conn(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &item, nil
}

func (s *Store) CreateInventoryItem(ctx context.Context, item *models.InventoryItem) error {
	return s.conn(ctx).Create(item).Error
}

// AdjustInventory adds delta (negative to consume) to an item's on-hand quantity.
func (s *Store) AdjustInventory(ctx context.Context, id string, delta int64) error {
	res := s.conn(ctx).Model(&models.InventoryItem{}).
		Where("id = ?", id).
		Update("quantity", gorm.Expr("quantity + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
