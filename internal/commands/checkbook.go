package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/chequera-dev/chequera/internal/model"
)

func newCheckbookCommand() *cobra.Command {
	checkbookCmd := &cobra.Command{
		Use:   "checkbook",
		Short: "Manage checkbooks",
	}
	checkbookCmd.AddCommand(newCheckbookAddCommand())
	checkbookCmd.AddCommand(newCheckbookListCommand())
	return checkbookCmd
}

func newCheckbookAddCommand() *cobra.Command {
	var bookDir string
	var id string
	var accountID string
	var start int
	var end int

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a checkbook for an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBook(bookDir)
			if err != nil {
				return err
			}

			if _, err := b.ledger.Get(accountID); err != nil {
				return err
			}
			if id == "" {
				id = uuid.New().String()
			}

			cb := model.Checkbook{
				ID:         id,
				AccountID:  accountID,
				Start:      start,
				End:        end,
				NextNumber: start,
				Active:     true,
			}
			if err := b.registry.Add(cb); err != nil {
				return err
			}

			details := fmt.Sprintf("range %d-%d on %s", start, end, accountID)
			if err := b.record("checkbook-add", details, cb.ID); err != nil {
				return err
			}

			fmt.Printf("Added checkbook %s (%d-%d)\n", cb.ID, start, end)
			return nil
		},
	}

	cmd.Flags().StringVar(&bookDir, "book", defaultBookDir(), "book directory")
	cmd.Flags().StringVar(&id, "id", "", "checkbook id (generated when omitted)")
	cmd.Flags().StringVar(&accountID, "account", "", "account id (required)")
	_ = cmd.MarkFlagRequired("account")
	cmd.Flags().IntVar(&start, "start", 0, "first check number (required)")
	_ = cmd.MarkFlagRequired("start")
	cmd.Flags().IntVar(&end, "end", 0, "last check number (required)")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}

func newCheckbookListCommand() *cobra.Command {
	var bookDir string
	var accountID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List checkbooks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBook(bookDir)
			if err != nil {
				return err
			}

			books := b.registry.All()
			if accountID != "" {
				books = b.registry.ForAccount(accountID)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tACCOUNT\tRANGE\tNEXT\tSTATE")
			for _, cb := range books {
				state := "active"
				if !cb.Active {
					state = "inactive"
				}
				if cb.Exhausted() {
					state = "exhausted"
				}
				fmt.Fprintf(w, "%s\t%s\t%d-%d\t%d\t%s\n", cb.ID, cb.AccountID, cb.Start, cb.End, cb.NextNumber, state)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&bookDir, "book", defaultBookDir(), "book directory")
	cmd.Flags().StringVar(&accountID, "account", "", "filter by account id")

	return cmd
}
