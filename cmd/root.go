package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"shopledger/internal/config"
	"shopledger/internal/ledger"
	"shopledger/internal/logger"
	"shopledger/internal/store"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "shopledger",
	Short: "Shop ledger - jobs, invoices and statement imports for a small repair shop",
	Long: `shopledger keeps the books of a small repair and resale business: customers,
jobs, invoices, payments, refunds, expenses and inventory, in a local
database.

Payment-processor activity exports and marketplace order reports can be
imported repeatedly; transactions already imported are skipped.

Environment variables (or .env):
  LEDGER_DB_PATH           - Database file (default: shopledger.db)
  INVOICE_PREFIX           - Invoice number prefix (default: INV-)
  DEFAULT_TAX_RATE         - Tax percent for new jobs (default: 0)
  DEFAULT_LABOR_RATE_CENTS - Hourly labor rate for new jobs (default: 0)
  TAX_BASIS                - subtotal or income (default: subtotal)
  KITS_FILE                - YAML bill of materials for kit sales (default: built-in)`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("shopledger executed")

		fmt.Println("Welcome to shopledger!")
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
	rootCmd.PersistentFlags().String("db", "", "Database path (overrides LEDGER_DB_PATH)")
}

// app is what a command needs to touch the ledger.
type app struct {
	cfg    *config.Config
	store  *store.Store
	ledger *ledger.Service
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		log := logger.WithComponent("cmd")
		log.Warn().Err(err).Msg("Failed to close database")
	}
}

// openApp loads configuration and opens the database.
func openApp(cmd *cobra.Command) (*app, error) {
	const op = "openApp"

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if path, _ := cmd.Flags().GetString("db"); path != "" {
		cfg.DatabasePath = path
	}

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	lcfg := ledger.DefaultConfig()
	lcfg.TaxBasis = ledger.TaxBasis(cfg.TaxBasis)
	lcfg.Settings = cfg.SettingsDefaults()

	return &app{cfg: cfg, store: st, ledger: ledger.NewService(st, lcfg)}, nil
}

// commandContext returns a context canceled on interrupt.
func commandContext(log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v interface{}) error {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to create JSON output: %w", err)
	}
	if _, err := os.Stdout.Write(jsonData); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	fmt.Println()
	return nil
}
