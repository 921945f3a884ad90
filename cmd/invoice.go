package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"shopledger/internal/ledger"
	"shopledger/internal/logger"
	"shopledger/internal/money"
	"shopledger/pkg/models"
)

var invoiceCmd = &cobra.Command{
	Use:   "invoice",
	Short: "Generate invoices and record payments and refunds",
	Long: `Invoice commands work on a job's invoice.

  complete  generate the invoice for a job (once per job)
  pay       record a payment against the job's invoice
  refund    record a refund against the job's invoice
  recalc    recompute the invoice from the job's current fields
  verify    cross-check stored invoices against their payments

Commands on a job without an invoice do nothing.`,
	Example: `  shopledger invoice complete 6f1c...
  shopledger invoice pay 6f1c... --amount 120.50 --method cash
  shopledger invoice refund 6f1c... --amount 20 --method card --notes "damaged box"`,
}

var invoiceCompleteCmd = &cobra.Command{
	Use:   "complete [job-id]",
	Short: "Generate the invoice for a job",
	Args:  cobra.ExactArgs(1),
	RunE:  runInvoiceComplete,
}

var invoicePayCmd = &cobra.Command{
	Use:   "pay [job-id]",
	Short: "Record a payment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMoneyMovement(cmd, args[0], models.PaymentTypePayment)
	},
}

var invoiceRefundCmd = &cobra.Command{
	Use:   "refund [job-id]",
	Short: "Record a refund",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMoneyMovement(cmd, args[0], models.PaymentTypeRefund)
	},
}

var invoiceRecalcCmd = &cobra.Command{
	Use:   "recalc [job-id]",
	Short: "Recompute an invoice from its job",
	Args:  cobra.ExactArgs(1),
	RunE:  runInvoiceRecalc,
}

var invoiceVerifyCmd = &cobra.Command{
	Use:   "verify [job-id]",
	Short: "Cross-check one job's invoice, or every invoice",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInvoiceVerify,
}

func init() {
	rootCmd.AddCommand(invoiceCmd)
	invoiceCmd.AddCommand(invoiceCompleteCmd, invoicePayCmd, invoiceRefundCmd, invoiceRecalcCmd, invoiceVerifyCmd)

	for _, c := range []*cobra.Command{invoicePayCmd, invoiceRefundCmd} {
		c.Flags().String("amount", "", "Amount, e.g. 12.50 (required)")
		c.Flags().String("method", "cash", "Payment method")
		c.Flags().String("notes", "", "Free-text notes")
		c.Flags().String("date", "", "Date YYYY-MM-DD (default: today)")
		_ = c.MarkFlagRequired("amount")
	}
}

func runInvoiceComplete(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("invoice")

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := commandContext(log)
	defer cancel()

	inv, err := a.ledger.CompleteJob(ctx, args[0])
	if err != nil {
		if errors.Is(err, ledger.ErrAlreadyInvoiced) {
			return fmt.Errorf("job %s already has an invoice; use 'invoice recalc' to refresh it", args[0])
		}
		return fmt.Errorf("failed to generate invoice: %w", err)
	}
	if inv == nil {
		fmt.Printf("No job %s, nothing to do\n", args[0])
		return nil
	}
	return printJSON(inv)
}

func runInvoiceRecalc(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("invoice")

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := commandContext(log)
	defer cancel()

	inv, err := a.ledger.Recalculate(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to recalculate invoice: %w", err)
	}
	if inv == nil {
		fmt.Printf("Job %s has no invoice, nothing to do\n", args[0])
		return nil
	}
	return printJSON(inv)
}

func runMoneyMovement(cmd *cobra.Command, jobID string, typ models.PaymentType) error {
	log := logger.WithComponent("invoice")

	amountText, _ := cmd.Flags().GetString("amount")
	method, _ := cmd.Flags().GetString("method")
	notes, _ := cmd.Flags().GetString("notes")
	date, _ := cmd.Flags().GetString("date")

	amount, err := money.ParseCents(amountText)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", amountText, err)
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := commandContext(log)
	defer cancel()

	in := ledger.PaymentInput{AmountCents: amount, Method: method, Notes: notes, Date: date}
	var payment *models.Payment
	if typ == models.PaymentTypeRefund {
		payment, err = a.ledger.RecordRefund(ctx, jobID, in)
	} else {
		payment, err = a.ledger.RecordPayment(ctx, jobID, in)
	}
	if err != nil {
		return fmt.Errorf("failed to record %s: %w", typ, err)
	}
	if payment == nil {
		fmt.Printf("Job %s has no invoice, nothing to do\n", jobID)
		return nil
	}

	inv, err := a.store.GetInvoice(ctx, payment.InvoiceID)
	if err != nil {
		return fmt.Errorf("failed to reload invoice: %w", err)
	}
	log.Info().
		Str("job_id", jobID).
		Str("type", string(typ)).
		Int64("amount_cents", amount).
		Str("payment_status", string(inv.PaymentStatus)).
		Msg("Money movement recorded")

	fmt.Printf("Recorded %s of %s on %s: paid %s of %s (%s)\n",
		typ, money.FormatCents(amount), inv.InvoiceNumber,
		money.FormatCents(inv.PaidAmountCents), money.FormatCents(inv.TotalCents), inv.PaymentStatus)
	return nil
}

func runInvoiceVerify(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("invoice")

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := commandContext(log)
	defer cancel()

	var results []ledger.Verification
	if len(args) == 1 {
		v, err := a.ledger.VerifyJob(ctx, args[0])
		if err != nil {
			return err
		}
		if v == nil {
			fmt.Printf("Job %s has no invoice, nothing to do\n", args[0])
			return nil
		}
		results = append(results, *v)
	} else {
		results, err = a.ledger.VerifyAll(ctx)
		if err != nil {
			return err
		}
	}

	failed := 0
	for _, v := range results {
		if v.OK() {
			continue
		}
		failed++
		fmt.Printf("%s (job %s):\n", v.InvoiceNumber, v.JobID)
		for _, w := range v.Warnings {
			fmt.Printf("  - %s\n", w)
		}
	}
	fmt.Printf("Verified %d invoices, %d with problems\n", len(results), failed)
	if failed > 0 {
		return fmt.Errorf("%d invoices failed verification", failed)
	}
	return nil
}
