package commands

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/chequera-dev/chequera/internal/model"
	"github.com/chequera-dev/chequera/internal/movements"
)

func newMovementsCommand() *cobra.Command {
	var bookDir string
	var accountID string
	var kind string
	var status string
	var from string
	var to string

	cmd := &cobra.Command{
		Use:   "movements",
		Short: "List account movements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBook(bookDir)
			if err != nil {
				return err
			}
			if _, err := b.ledger.Get(accountID); err != nil {
				return err
			}

			filter := movements.Filter{
				Kind:   model.MovementKind(kind),
				Status: model.CheckStatus(status),
			}
			if kind != "" && !model.ValidKind(filter.Kind) {
				return fmt.Errorf("unknown kind %q", kind)
			}
			if status != "" && !model.ValidStatus(filter.Status) {
				return fmt.Errorf("unknown status %q", status)
			}
			if from != "" {
				if filter.From, err = parseDate(from); err != nil {
					return err
				}
			}
			if to != "" {
				if filter.To, err = parseDate(to); err != nil {
					return err
				}
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tKIND\tREFERENCE\tAMOUNT\tSTATUS\tID")
			for _, m := range b.store.List(accountID, filter) {
				st := string(m.Status)
				if m.Kind == model.KindDeposit {
					st = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					m.Date.Format(time.DateOnly), m.Kind, m.Reference, m.Amount.StringFixed(2), st, m.ID)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&bookDir, "book", defaultBookDir(), "book directory")
	cmd.Flags().StringVar(&accountID, "account", "", "account id (required)")
	_ = cmd.MarkFlagRequired("account")
	cmd.Flags().StringVar(&kind, "kind", "", "filter by kind: check or deposit")
	cmd.Flags().StringVar(&status, "status", "", "filter checks by status: pending, cleared, voided")
	cmd.Flags().StringVar(&from, "from", "", "earliest date YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "latest date YYYY-MM-DD")

	return cmd
}
