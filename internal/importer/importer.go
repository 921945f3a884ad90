// Package importer turns third-party statement exports into ledger records.
//
// Import detects the export family, parses it, and hands each row (one
// processor transaction, or one marketplace order) to the matching
// orchestrator. Every imported row is written as one store transaction
// holding its customer, inventory items, job, invoice, payments, expense,
// external references, audit entries and the advanced invoice counter. A
// failed row aborts the rest of the batch; rows already written stay.
//
// Re-importing a file is safe: every row whose external identifier is
// already recorded is skipped and counted.
package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"shopledger/internal/audit"
	"shopledger/internal/dedup"
	"shopledger/internal/ledger"
	"shopledger/internal/logger"
	"shopledger/internal/resolve"
	"shopledger/internal/statement"
	"shopledger/internal/store"
	"shopledger/pkg/models"
)

// Import source labels. Both marketplace layouts share one label so their
// orders dedupe against each other.
const (
	SourceProcessor   = "processor"
	SourceMarketplace = "marketplace"
)

// Config holds importer settings.
type Config struct {
	// Kits is the bill-of-materials table used to expand kit sales.
	// Default: resolve.DefaultKits.
	Kits []resolve.Kit

	// TaxBasis is passed to the invoice calculator. Imported sales carry a
	// zero tax rate, so it only matters if that changes.
	TaxBasis ledger.TaxBasis

	// Now is the clock used for timestamps.
	Now func() time.Time
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Kits:     resolve.DefaultKits,
		TaxBasis: ledger.TaxOnSubtotal,
		Now:      time.Now,
	}
}

// Result is the aggregate outcome of one import.
type Result struct {
	Source            string           `json:"source"`
	Format            statement.Format `json:"format"`
	DryRun            bool             `json:"dry_run"`
	CustomersCreated  int              `json:"customers_created"`
	CustomersMatched  int              `json:"customers_matched"`
	JobsCreated       int              `json:"jobs_created"`
	PaymentsRecorded  int              `json:"payments_recorded"`
	ExpensesCreated   int              `json:"expenses_created"`
	InventoryCreated  int              `json:"inventory_created"`
	TotalRevenueCents int64            `json:"total_revenue_cents"`
	TotalFeesCents    int64            `json:"total_fees_cents"`
	Skipped           int              `json:"skipped"`
}

// Importer runs imports against a store.
type Importer struct {
	store *store.Store
	cfg   Config
	log   zerolog.Logger
}

// New returns an Importer over st. Zero Config fields take their defaults.
func New(st *store.Store, cfg Config) *Importer {
	def := DefaultConfig()
	if cfg.Kits == nil {
		cfg.Kits = def.Kits
	}
	if cfg.TaxBasis == "" {
		cfg.TaxBasis = def.TaxBasis
	}
	if cfg.Now == nil {
		cfg.Now = def.Now
	}
	return &Importer{store: st, cfg: cfg, log: logger.WithComponent("importer")}
}

// Import imports rawText. customers is the current customer list the
// resolver matches against. settings supplies the invoice prefix and
// counter; on return it holds the counter as persisted.
//
// Format errors fail before anything is written. A persistence error returns
// the partial Result of the rows committed so far.
func (im *Importer) Import(ctx context.Context, rawText string, customers []models.Customer, settings *models.Settings) (*Result, error) {
	return im.run(ctx, im.store, rawText, customers, settings)
}

// DryRun runs the whole import inside a transaction that is rolled back, and
// reports what Import would have done. settings is not modified.
func (im *Importer) DryRun(ctx context.Context, rawText string, customers []models.Customer, settings *models.Settings) (*Result, error) {
	scratch := *settings
	var result *Result
	err := im.store.Rollback(ctx, func(tx *store.Store) error {
		var err error
		result, err = im.run(ctx, tx, rawText, customers, &scratch)
		return err
	})
	if result != nil {
		result.DryRun = true
	}
	return result, err
}

func (im *Importer) run(ctx context.Context, st *store.Store, rawText string, customers []models.Customer, settings *models.Settings) (*Result, error) {
	const op = "importer.Import"

	format, err := statement.Detect(rawText)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if settings.ID == 0 {
		settings.ID = models.SettingsID
	}

	im.log.Info().
		Str("format", string(format)).
		Int("bytes", len(rawText)).
		Msg("Starting import")

	var result *Result
	switch {
	case format == statement.FormatProcessorLedger:
		rows, err := statement.NewProcessorParser().Parse(rawText)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		run, err := im.newRun(ctx, st, SourceProcessor, format, customers, settings)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		err = run.importProcessor(ctx, rows)
		result = run.finish()
		if err != nil {
			return result, fmt.Errorf("%s: %w", op, err)
		}
	case format.IsMarketplace():
		rows, parsed, err := statement.NewMarketplaceParser().Parse(rawText)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		run, err := im.newRun(ctx, st, SourceMarketplace, parsed, customers, settings)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		err = run.importMarketplace(ctx, statement.GroupOrders(rows))
		result = run.finish()
		if err != nil {
			return result, fmt.Errorf("%s: %w", op, err)
		}
	default:
		return nil, fmt.Errorf("%s: %w", op, statement.ErrUnrecognizedFormat)
	}

	im.log.Info().
		Str("source", result.Source).
		Int("customers_created", result.CustomersCreated).
		Int("customers_matched", result.CustomersMatched).
		Int("jobs_created", result.JobsCreated).
		Int("payments_recorded", result.PaymentsRecorded).
		Int("expenses_created", result.ExpensesCreated).
		Int64("total_revenue_cents", result.TotalRevenueCents).
		Int64("total_fees_cents", result.TotalFeesCents).
		Int("skipped", result.Skipped).
		Msg("Import completed")

	return result, nil
}

// batch is the per-run state shared by the orchestrators. It is discarded
// when the run ends.
type batch struct {
	im        *Importer
	store     *store.Store
	source    string
	settings  *models.Settings
	guard     *dedup.Guard
	audit     *audit.Recorder
	customers *resolve.CustomerResolver
	inventory *resolve.InventoryResolver
	result    Result
	log       zerolog.Logger
}

func (im *Importer) newRun(ctx context.Context, st *store.Store, source string, format statement.Format, customers []models.Customer, settings *models.Settings) (*batch, error) {
	guard, err := dedup.Load(ctx, st, source)
	if err != nil {
		return nil, err
	}
	items, err := st.ListInventory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}

	rec := audit.NewRecorder(im.cfg.Now)
	return &batch{
		im:        im,
		store:     st,
		source:    source,
		settings:  settings,
		guard:     guard,
		audit:     rec,
		customers: resolve.NewCustomerResolver(customers, rec, im.cfg.Now),
		inventory: resolve.NewInventoryResolver(items, im.cfg.Kits, rec, im.cfg.Now),
		result:    Result{Source: source, Format: format},
		log:       logger.WithFields("importer", map[string]interface{}{"source": source}),
	}, nil
}

// finish returns the counts of everything committed so far.
func (b *batch) finish() *Result {
	r := b.result
	return &r
}

// skip counts rows as skipped. A skipped order counts each of its line items.
func (b *batch) skip(line, rows int, reason, externalID string) {
	b.result.Skipped += rows
	b.log.Debug().
		Int("line", line).
		Int("rows", rows).
		Str("external_id", externalID).
		Str("reason", reason).
		Msg("Skipping row")
}
