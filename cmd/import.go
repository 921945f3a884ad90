package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"shopledger/internal/importer"
	"shopledger/internal/logger"
	"shopledger/internal/money"
	"shopledger/internal/resolve"
	"shopledger/internal/statement"
)

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import a payment-processor or marketplace export",
	Long: `Import a statement export into the ledger.

The file format is detected from its header line. Supported exports:
  - payment-processor activity download (CSV)
  - marketplace order earnings report (CSV)
  - marketplace legacy transaction report (CSV)

Each imported transaction becomes a customer (matched by name or created),
a paid job and invoice, its payments and refunds, and an expense for the
platform fees. Transactions already imported are skipped, so the same file
can be imported again safely.`,
	Example: `  # Import a processor download
  shopledger import Download.CSV

  # See what an import would do without writing anything
  shopledger import earnings-report.csv --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().Bool("dry-run", false, "Run the import and report results, but write nothing")
	importCmd.Flags().Bool("json", false, "Print the result as JSON")
}

func runImport(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("import")

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	asJSON, _ := cmd.Flags().GetBool("json")
	path := args[0]

	raw, err := readStatement(path, log)
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := commandContext(log)
	defer cancel()

	log.Info().
		Str("file", path).
		Bool("dry_run", dryRun).
		Str("database", a.cfg.DatabasePath).
		Msg("Starting statement import")

	settings, err := a.ledger.Settings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	customers, err := a.store.ListCustomers(ctx)
	if err != nil {
		return fmt.Errorf("failed to load customers: %w", err)
	}

	var kits []resolve.Kit
	if a.cfg.KitsFile != "" {
		kits, err = resolve.LoadKitsFile(a.cfg.KitsFile)
		if err != nil {
			return err
		}
		log.Debug().Str("file", a.cfg.KitsFile).Int("kits", len(kits)).Msg("Loaded kit table")
	}

	imp := importer.New(a.store, importer.Config{Kits: kits})
	var result *importer.Result
	if dryRun {
		result, err = imp.DryRun(ctx, raw, customers, settings)
	} else {
		result, err = imp.Import(ctx, raw, customers, settings)
	}
	if err != nil {
		if errors.Is(err, statement.ErrUnrecognizedFormat) || errors.Is(err, statement.ErrNoDataRows) {
			return fmt.Errorf("cannot import %s: %w", path, err)
		}
		if result != nil {
			log.Error().
				Err(err).
				Int("jobs_created", result.JobsCreated).
				Msg("Import aborted, rows imported before the failure were kept")
			printImportResult(result)
		}
		return fmt.Errorf("import failed: %w", err)
	}

	if asJSON {
		return printJSON(result)
	}
	printImportResult(result)
	return nil
}

func readStatement(path string, log zerolog.Logger) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Error().Str("file", path).Msg("Statement file not found")
			return "", fmt.Errorf("statement file not found: %s", path)
		}
		return "", fmt.Errorf("error accessing statement file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("path is not a regular file: %s", path)
	}
	if info.Size() == 0 {
		return "", fmt.Errorf("statement file is empty: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read statement file: %w", err)
	}
	return string(data), nil
}

func printImportResult(r *importer.Result) {
	title := "Import result"
	if r.DryRun {
		title += " (dry run, nothing written)"
	}
	fmt.Println(title)
	fmt.Printf("  Source:            %s (%s)\n", r.Source, r.Format)
	fmt.Printf("  Customers created: %d\n", r.CustomersCreated)
	fmt.Printf("  Customers matched: %d\n", r.CustomersMatched)
	fmt.Printf("  Jobs created:      %d\n", r.JobsCreated)
	fmt.Printf("  Payments recorded: %d\n", r.PaymentsRecorded)
	fmt.Printf("  Expenses created:  %d\n", r.ExpensesCreated)
	fmt.Printf("  Inventory created: %d\n", r.InventoryCreated)
	fmt.Printf("  Total revenue:     %s\n", money.FormatCents(r.TotalRevenueCents))
	fmt.Printf("  Total fees:        %s\n", money.FormatCents(r.TotalFeesCents))
	fmt.Printf("  Skipped:           %d\n", r.Skipped)
}
