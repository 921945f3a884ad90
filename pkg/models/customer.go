package models

import "time"

// Customer is a person or business that owns Jobs.
type Customer struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Name      string    `json:"name" gorm:"index" validate:"required"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	Tags      string    `json:"tags"`   // free text, comma separated
	Source    string    `json:"source"` // where the record came from, e.g. "processor"
	Archived  bool      `json:"archived"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InventoryItem is stock the business sells parts from.
type InventoryItem struct {
	ID             string    `json:"id" gorm:"primaryKey;size:36"`
	Name           string    `json:"name" gorm:"index"`
	Category       string    `json:"category"`
	UnitCostCents  int64     `json:"unit_cost_cents"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	Quantity       int64     `json:"quantity"` // on hand; negative means a stock shortfall
	ReorderLevel   *int64    `json:"reorder_level"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NeedsReorder reports whether on-hand stock fell to or below the reorder level.
func (i InventoryItem) NeedsReorder() bool {
	return i.ReorderLevel != nil && i.Quantity <= *i.ReorderLevel
}
