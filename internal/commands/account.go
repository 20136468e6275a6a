package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/chequera-dev/chequera/internal/model"
)

func newAccountCommand() *cobra.Command {
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Manage bank accounts",
	}
	accountCmd.AddCommand(newAccountAddCommand())
	accountCmd.AddCommand(newAccountListCommand())
	return accountCmd
}

func newAccountAddCommand() *cobra.Command {
	var bookDir string
	var id string
	var name string
	var balance string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a bank account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBook(bookDir)
			if err != nil {
				return err
			}

			opening, err := decimal.NewFromString(balance)
			if err != nil {
				return fmt.Errorf("invalid balance %q: %w", balance, err)
			}
			if id == "" {
				id = uuid.New().String()
			}

			acct := model.Account{
				ID:       id,
				Name:     name,
				Currency: b.cfg.Ledger.Currency,
				Balance:  opening,
			}
			if err := b.ledger.Add(acct); err != nil {
				return err
			}

			if err := b.record("account-add", name, acct.ID); err != nil {
				return err
			}

			fmt.Printf("Added account %s (%s)\n", name, acct.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&bookDir, "book", defaultBookDir(), "book directory")
	cmd.Flags().StringVar(&id, "id", "", "account id (generated when omitted)")
	cmd.Flags().StringVar(&name, "name", "", "account name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&balance, "balance", "0", "opening balance")

	return cmd
}

func newAccountListCommand() *cobra.Command {
	var bookDir string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List bank accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBook(bookDir)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCURRENCY\tBALANCE")
			for _, acct := range b.ledger.All() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", acct.ID, acct.Name, acct.Currency, acct.Balance.StringFixed(2))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&bookDir, "book", defaultBookDir(), "book directory")

	return cmd
}
