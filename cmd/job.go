package cmd

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"shopledger/internal/ledger"
	"shopledger/internal/logger"
	"shopledger/internal/money"
	"shopledger/pkg/models"
)

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Create, update, list and delete jobs",
}

var jobCreateCmd = &cobra.Command{
	Use:   "create [customer-id]",
	Short: "Create a quoted job using the default tax and labor rates",
	Example: `  shopledger job create 3b2a... --title "Screen replacement" --hours 1.5 --misc 15.00`,
	Args: cobra.ExactArgs(1),
	RunE: runJobCreate,
}

var jobUpdateCmd = &cobra.Command{
	Use:   "update [job-id]",
	Short: "Edit a job, recalculating its invoice if it has one",
	Long: `Edit a job. Only the flags given are changed.

Changing labor, misc fees or tax on an invoiced or paid job needs
--override, and recalculates the invoice against what was already paid.
Moving a job back to an earlier status also needs --override.`,
	Example: `  shopledger job update 6f1c... --misc 25.00 --override
  shopledger job update 6f1c... --status in-progress`,
	Args: cobra.ExactArgs(1),
	RunE: runJobUpdate,
}

var jobListCmd = &cobra.Command{
	Use:   "list",
	Short: "List jobs",
	Args:  cobra.NoArgs,
	RunE:  runJobList,
}

var jobDeleteCmd = &cobra.Command{
	Use:   "delete [job-id]",
	Short: "Delete a job with its invoice, payments, reminders and attachments",
	Long: `Delete a job. Its invoice and payments are removed, inventory its parts
used is put back, and its reminders and attachments are removed.

Invoiced and paid jobs are locked and need --force.`,
	Args: cobra.ExactArgs(1),
	RunE: runJobDelete,
}

func init() {
	rootCmd.AddCommand(jobCmd)
	jobCmd.AddCommand(jobCreateCmd, jobUpdateCmd, jobListCmd, jobDeleteCmd)

	jobCreateCmd.Flags().String("title", "", "Job title")
	jobCreateCmd.Flags().Float64("hours", 0, "Labor hours")
	jobCreateCmd.Flags().String("misc", "", "Misc fees, e.g. 15.00")
	jobCreateCmd.Flags().String("notes", "", "Notes")

	addJobEditFlags(jobUpdateCmd)

	jobDeleteCmd.Flags().Bool("force", false, "Delete even if the job is invoiced or paid")
}

func runJobCreate(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("job")

	title, _ := cmd.Flags().GetString("title")
	hours, _ := cmd.Flags().GetFloat64("hours")
	miscText, _ := cmd.Flags().GetString("misc")
	notes, _ := cmd.Flags().GetString("notes")

	misc, err := money.ParseCents(miscText)
	if err != nil {
		return fmt.Errorf("invalid misc amount %q: %w", miscText, err)
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := commandContext(log)
	defer cancel()

	settings, err := a.ledger.Settings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	job := ledger.NewJob(args[0], title, settings)
	job.LaborHours = hours
	job.MiscFeesCents = misc
	job.Notes = notes
	if err := a.ledger.CreateJob(ctx, job); err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return printJSON(job)
}

func addJobEditFlags(c *cobra.Command) {
	c.Flags().String("title", "", "Job title")
	c.Flags().String("status", "", "Lifecycle status")
	c.Flags().String("notes", "", "Notes")
	c.Flags().Float64("hours", 0, "Labor hours")
	c.Flags().String("rate", "", "Hourly labor rate, e.g. 75.00")
	c.Flags().String("misc", "", "Misc fees, e.g. 15.00")
	c.Flags().Float64("tax", 0, "Tax rate in percent")
	c.Flags().Bool("override", false, "Allow edits to locked jobs and backward status moves")
}

// jobEditFromFlags builds an edit from the flags that were set.
func jobEditFromFlags(cmd *cobra.Command) (ledger.JobEdit, error) {
	var edit ledger.JobEdit
	flags := cmd.Flags()

	if flags.Changed("title") {
		title, _ := flags.GetString("title")
		edit.Title = &title
	}
	if flags.Changed("status") {
		text, _ := flags.GetString("status")
		status := models.JobStatus(text)
		edit.Status = &status
	}
	if flags.Changed("notes") {
		notes, _ := flags.GetString("notes")
		edit.Notes = &notes
	}
	if flags.Changed("hours") {
		hours, _ := flags.GetFloat64("hours")
		edit.LaborHours = &hours
	}
	if flags.Changed("tax") {
		tax, _ := flags.GetFloat64("tax")
		edit.TaxRate = &tax
	}
	for _, name := range []string{"rate", "misc"} {
		if !flags.Changed(name) {
			continue
		}
		text, _ := flags.GetString(name)
		cents, err := money.ParseCents(text)
		if err != nil {
			return edit, fmt.Errorf("invalid %s amount %q: %w", name, text, err)
		}
		if name == "rate" {
			edit.LaborRateCents = &cents
		} else {
			edit.MiscFeesCents = &cents
		}
	}
	return edit, nil
}

func runJobUpdate(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("job")

	override, _ := cmd.Flags().GetBool("override")
	edit, err := jobEditFromFlags(cmd)
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

	job, err := a.ledger.UpdateJob(ctx, args[0], edit, override)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrJobLocked):
			return fmt.Errorf("job %s is invoiced; rerun with --override to change what it bills", args[0])
		case errors.Is(err, ledger.ErrInvalidTransition):
			return fmt.Errorf("status change refused: %w", err)
		}
		return fmt.Errorf("failed to update job: %w", err)
	}
	if job == nil {
		fmt.Printf("No job %s, nothing to do\n", args[0])
		return nil
	}

	log.Info().
		Str("job_id", job.ID).
		Bool("billable", edit.Billable()).
		Bool("override", override).
		Str("status", string(job.Status)).
		Msg("Job updated")
	return printJSON(job)
}

func runJobList(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("job")

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := commandContext(log)
	defer cancel()

	jobs, err := a.store.ListJobs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list jobs: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tSTATUS\tCUSTOMER\tTITLE")
	for _, j := range jobs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", j.ID, j.Date, j.Status, j.CustomerID, j.Title)
	}
	return w.Flush()
}

func runJobDelete(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("job")

	force, _ := cmd.Flags().GetBool("force")

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := commandContext(log)
	defer cancel()

	if err := a.ledger.DeleteJob(ctx, args[0], force); err != nil {
		if errors.Is(err, ledger.ErrJobLocked) {
			return fmt.Errorf("job %s is invoiced; rerun with --force to delete it and its invoice", args[0])
		}
		return fmt.Errorf("failed to delete job: %w", err)
	}

	log.Info().Str("job_id", args[0]).Bool("force", force).Msg("Job deleted")
	fmt.Printf("Deleted job %s\n", args[0])
	return nil
}
