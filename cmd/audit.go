package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"shopledger/internal/logger"
	"shopledger/internal/store"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the audit trail",
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List audit entries, oldest first",
	Example: `  shopledger audit list --entity-type invoice
  shopledger audit list --entity-type job --entity-id 6f1c...`,
	Args: cobra.NoArgs,
	RunE: runAuditList,
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditListCmd)

	auditListCmd.Flags().String("entity-type", "", "Only entries for this entity type")
	auditListCmd.Flags().String("entity-id", "", "Only entries for this entity id")
}

func runAuditList(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("audit")

	entityType, _ := cmd.Flags().GetString("entity-type")
	entityID, _ := cmd.Flags().GetString("entity-id")

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := commandContext(log)
	defer cancel()

	entries, err := a.store.ListAudit(ctx, store.AuditFilter{EntityType: entityType, EntityID: entityID})
	if err != nil {
		return fmt.Errorf("failed to list audit entries: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tENTITY\tID\tACTION\tDETAILS")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.Timestamp.Local().Format(time.DateTime), e.EntityType, e.EntityID, e.Action, e.Details)
	}
	return w.Flush()
}
