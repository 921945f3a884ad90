package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"shopledger/internal/audit"
	"shopledger/internal/store"
	"shopledger/pkg/models"
)

// ConsumeParts takes the stock used by parts out of inventory. Only
// inventory-sourced parts linked to an item consume stock; on-hand quantity
// may go negative.
func ConsumeParts(ctx context.Context, tx *store.Store, parts []models.Part, rec *audit.Recorder) error {
	return adjustParts(ctx, tx, parts, -1, rec, zerolog.Nop())
}

// RestoreParts puts the stock used by parts back. Items deleted since are
// skipped.
func RestoreParts(ctx context.Context, tx *store.Store, parts []models.Part, rec *audit.Recorder, log zerolog.Logger) error {
	return adjustParts(ctx, tx, parts, 1, rec, log)
}

func adjustParts(ctx context.Context, tx *store.Store, parts []models.Part, sign int64, rec *audit.Recorder, log zerolog.Logger) error {
	const op = "ledger.adjustParts"

	action := audit.ActionConsumed
	if sign > 0 {
		action = audit.ActionRestored
	}

	for _, p := range parts {
		if p.InventoryItemID == nil || p.Source != models.PartSourceInventory || p.Quantity == 0 {
			continue
		}
		id := *p.InventoryItemID
		err := tx.AdjustInventory(ctx, id, sign*p.Quantity)
		if errors.Is(err, store.ErrNotFound) {
			if sign < 0 {
				return fmt.Errorf("%s: part %q references unknown inventory item %s: %w", op, p.Name, id, err)
			}
			log.Warn().
				Str("inventory_item_id", id).
				Str("part", p.Name).
				Msg("Inventory item no longer exists, stock not restored")
			continue
		}
		if err != nil {
			return fmt.Errorf("%s: failed to adjust inventory %s: %w", op, id, err)
		}
		rec.Recordf(audit.EntityInventory, id, action, "%d x %s", p.Quantity, p.Name)
	}
	return nil
}
