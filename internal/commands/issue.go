package commands

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/chequera-dev/chequera/internal/issuing"
)

func newIssueCommand() *cobra.Command {
	var bookDir string
	var accountID string
	var checkbookID string
	var beneficiary string
	var amount string
	var concept string
	var date string
	var number int

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a check",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBook(bookDir)
			if err != nil {
				return err
			}

			amt, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", amount, err)
			}
			day, err := parseDate(date)
			if err != nil {
				return err
			}

			chk, err := b.issuer().IssueCheck(issuing.IssueParams{
				AccountID:   accountID,
				CheckbookID: checkbookID,
				Beneficiary: beneficiary,
				Amount:      amt,
				Concept:     concept,
				Date:        day,
				Number:      number,
			})
			if err != nil {
				return err
			}

			details := fmt.Sprintf("check #%d for %s to %s", chk.Number, amt.StringFixed(2), beneficiary)
			if err := b.record("issue", details, chk.ID); err != nil {
				return err
			}

			balance, _ := b.ledger.Balance(accountID)
			fmt.Printf("Issued check #%d (%s) to %s; balance %s\n", chk.Number, chk.ID, beneficiary, balance.StringFixed(2))
			return nil
		},
	}

	cmd.Flags().StringVar(&bookDir, "book", defaultBookDir(), "book directory")
	cmd.Flags().StringVar(&accountID, "account", "", "account id (required)")
	_ = cmd.MarkFlagRequired("account")
	cmd.Flags().StringVar(&checkbookID, "checkbook", "", "checkbook id (required)")
	_ = cmd.MarkFlagRequired("checkbook")
	cmd.Flags().StringVar(&beneficiary, "to", "", "beneficiary (required)")
	_ = cmd.MarkFlagRequired("to")
	cmd.Flags().StringVar(&amount, "amount", "", "check amount (required)")
	_ = cmd.MarkFlagRequired("amount")
	cmd.Flags().StringVar(&concept, "concept", "", "payment concept (required)")
	_ = cmd.MarkFlagRequired("concept")
	cmd.Flags().StringVar(&date, "date", "", "issue date YYYY-MM-DD (default today)")
	cmd.Flags().IntVar(&number, "number", 0, "specific check number (default next in book)")

	return cmd
}
