package resolve

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"shopledger/internal/audit"
	"shopledger/internal/money"
	"shopledger/pkg/models"
)

// Component is one part of a kit.
type Component struct {
	Name          string `yaml:"name"`
	UnitCostCents int64  `yaml:"unit_cost_cents"`
	Category      string `yaml:"category"`
}

// Kit maps a keyword found in sold item titles to the components it is built from.
type Kit struct {
	Keyword    string      `yaml:"keyword"`
	Components []Component `yaml:"components"`
}

// TotalCostCents is the summed unit cost of the kit's components.
func (k Kit) TotalCostCents() int64 {
	var total int64
	for _, c := range k.Components {
		total += c.UnitCostCents
	}
	return total
}

// InventoryResolver expands sold items into parts, creating inventory items
// for kit components on first sight.
type InventoryResolver struct {
	kits    []Kit
	byName  map[string]*models.InventoryItem
	pending []*models.InventoryItem
	audit   *audit.Recorder
	now     func() time.Time
}

// NewInventoryResolver indexes known inventory by name.
func NewInventoryResolver(known []models.InventoryItem, kits []Kit, rec *audit.Recorder, now func() time.Time) *InventoryResolver {
	if now == nil {
		now = time.Now
	}
	r := &InventoryResolver{
		kits:   kits,
		byName: make(map[string]*models.InventoryItem, len(known)),
		audit:  rec,
		now:    now,
	}
	for i := range known {
		key := nameKey(known[i].Name)
		if _, exists := r.byName[key]; !exists && key != "" {
			item := known[i]
			r.byName[key] = &item
		}
	}
	return r
}

// MatchKit returns the first kit whose keyword appears in title, ignoring case.
func (r *InventoryResolver) MatchKit(title string) (Kit, bool) {
	lower := strings.ToLower(title)
	for _, kit := range r.kits {
		if kit.Keyword != "" && strings.Contains(lower, strings.ToLower(kit.Keyword)) {
			return kit, true
		}
	}
	return Kit{}, false
}

// Expand turns one sold line into parts. A kit sale becomes one part per
// component with the unit price split by cost share; the parts' prices sum
// to unitPriceCents exactly. Anything else is a single part with unknown
// (zero) cost.
func (r *InventoryResolver) Expand(title string, quantity, unitPriceCents int64) []models.Part {
	if quantity < 1 {
		quantity = 1
	}

	kit, ok := r.MatchKit(title)
	if !ok {
		return []models.Part{{
			ID:             uuid.NewString(),
			Name:           title,
			Quantity:       quantity,
			UnitCostCents:  0,
			UnitPriceCents: unitPriceCents,
			Source:         models.PartSourceInventory,
		}}
	}

	weights := make([]int64, len(kit.Components))
	for i, c := range kit.Components {
		weights[i] = c.UnitCostCents
	}
	prices := money.Allocate(unitPriceCents, weights)

	parts := make([]models.Part, len(kit.Components))
	for i, c := range kit.Components {
		item := r.item(c)
		itemID := item.ID
		parts[i] = models.Part{
			ID:              uuid.NewString(),
			Name:            c.Name,
			Category:        c.Category,
			InventoryItemID: &itemID,
			Quantity:        quantity,
			UnitCostCents:   c.UnitCostCents,
			UnitPriceCents:  prices[i],
			Source:          models.PartSourceInventory,
		}
	}
	return parts
}

// item returns the inventory item for a component, creating it once per run.
func (r *InventoryResolver) item(c Component) *models.InventoryItem {
	key := nameKey(c.Name)
	if item, ok := r.byName[key]; ok {
		return item
	}

	now := r.now().UTC()
	item := &models.InventoryItem{
		ID:            uuid.NewString(),
		Name:          c.Name,
		Category:      c.Category,
		UnitCostCents: c.UnitCostCents,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	r.byName[key] = item
	r.pending = append(r.pending, item)
	r.audit.Recordf(audit.EntityInventory, item.ID, audit.ActionCreated, "created %q from bill of materials", item.Name)
	return item
}

// TakePending returns inventory items created since the last call.
func (r *InventoryResolver) TakePending() []*models.InventoryItem {
	pending := r.pending
	r.pending = nil
	return pending
}
