package cmd

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"shopledger/internal/ledger"
	"shopledger/internal/logger"
	"shopledger/pkg/models"
)

var customerCmd = &cobra.Command{
	Use:   "customer",
	Short: "Add, list and delete customers",
}

var customerAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add a customer",
	Args:  cobra.ExactArgs(1),
	RunE:  runCustomerAdd,
}

var customerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List customers",
	Args:  cobra.NoArgs,
	RunE:  runCustomerList,
}

var customerDeleteCmd = &cobra.Command{
	Use:   "delete [customer-id]",
	Short: "Delete a customer that owns no jobs",
	Args:  cobra.ExactArgs(1),
	RunE:  runCustomerDelete,
}

func init() {
	rootCmd.AddCommand(customerCmd)
	customerCmd.AddCommand(customerAddCmd, customerListCmd, customerDeleteCmd)

	customerAddCmd.Flags().String("email", "", "Email address")
	customerAddCmd.Flags().String("phone", "", "Phone number")
	customerAddCmd.Flags().String("address", "", "Postal address")
}

func runCustomerAdd(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("customer")

	email, _ := cmd.Flags().GetString("email")
	phone, _ := cmd.Flags().GetString("phone")
	address, _ := cmd.Flags().GetString("address")

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := commandContext(log)
	defer cancel()

	customer := &models.Customer{Name: args[0], Email: email, Phone: phone, Address: address, Source: "manual"}
	if err := a.ledger.CreateCustomer(ctx, customer); err != nil {
		return fmt.Errorf("failed to add customer: %w", err)
	}
	return printJSON(customer)
}

func runCustomerList(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("customer")

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := commandContext(log)
	defer cancel()

	customers, err := a.store.ListCustomers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list customers: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tSOURCE")
	for _, c := range customers {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Email, c.Source)
	}
	return w.Flush()
}

func runCustomerDelete(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("customer")

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := commandContext(log)
	defer cancel()

	if err := a.ledger.DeleteCustomer(ctx, args[0]); err != nil {
		if errors.Is(err, ledger.ErrCustomerHasJobs) {
			return fmt.Errorf("customer %s still owns jobs; delete those first: %w", args[0], err)
		}
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	fmt.Printf("Deleted customer %s\n", args[0])
	return nil
}
