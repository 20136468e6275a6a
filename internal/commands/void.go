package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVoidCommand() *cobra.Command {
	var bookDir string

	cmd := &cobra.Command{
		Use:   "void <check-id>",
		Short: "Void a pending check",
		Long: `Void a pending check. The check number stays consumed and the account
is not re-credited; record a deposit if the funds actually return.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBook(bookDir)
			if err != nil {
				return err
			}

			chk, err := b.issuer().VoidCheck(args[0])
			if err != nil {
				return err
			}

			details := fmt.Sprintf("check #%d for %s", chk.Number, chk.Amount.StringFixed(2))
			if err := b.record("void", details, chk.ID); err != nil {
				return err
			}

			fmt.Printf("Voided check #%d (%s)\n", chk.Number, chk.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&bookDir, "book", defaultBookDir(), "book directory")

	return cmd
}
