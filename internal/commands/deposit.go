package commands

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/chequera-dev/chequera/internal/issuing"
	"github.com/chequera-dev/chequera/internal/model"
)

func newDepositCommand() *cobra.Command {
	var bookDir string
	var accountID string
	var amount string
	var depositType string
	var reference string
	var concept string
	var date string

	cmd := &cobra.Command{
		Use:   "deposit",
		Short: "Record a deposit",
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

			dep, err := b.issuer().RecordDeposit(issuing.DepositParams{
				AccountID: accountID,
				Amount:    amt,
				Type:      model.DepositType(depositType),
				Reference: reference,
				Concept:   concept,
				Date:      day,
			})
			if err != nil {
				return err
			}

			details := fmt.Sprintf("%s deposit of %s", dep.Type, amt.StringFixed(2))
			if err := b.record("deposit", details, dep.ID); err != nil {
				return err
			}

			balance, _ := b.ledger.Balance(accountID)
			fmt.Printf("Recorded %s deposit of %s; balance %s\n", dep.Type, amt.StringFixed(2), balance.StringFixed(2))
			return nil
		},
	}

	cmd.Flags().StringVar(&bookDir, "book", defaultBookDir(), "book directory")
	cmd.Flags().StringVar(&accountID, "account", "", "account id (required)")
	_ = cmd.MarkFlagRequired("account")
	cmd.Flags().StringVar(&amount, "amount", "", "deposit amount (required)")
	_ = cmd.MarkFlagRequired("amount")
	cmd.Flags().StringVar(&depositType, "type", "", "deposit type: cash, check, transfer, payroll, other (required)")
	_ = cmd.MarkFlagRequired("type")
	cmd.Flags().StringVar(&reference, "ref", "", "bank reference (required for cash, check, transfer)")
	cmd.Flags().StringVar(&concept, "concept", "", "deposit concept")
	cmd.Flags().StringVar(&date, "date", "", "deposit date YYYY-MM-DD (default today)")

	return cmd
}
