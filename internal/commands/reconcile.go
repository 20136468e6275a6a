package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/chequera-dev/chequera/internal/importer"
	"github.com/chequera-dev/chequera/internal/reconcile"
)

func newReconcileCommand() *cobra.Command {
	var bookDir string
	var accountID string
	var statement string
	var format string
	var bankBalance string
	var checkIDs []string

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Reconcile against a bank statement, or clear checks manually",
		Long: `Reconcile an account against an imported bank statement, matching lines
to pending checks and unreconciled deposits. With --check, clears the named
pending checks directly instead. Without flags, lists statement files waiting
in the book's import directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBook(bookDir)
			if err != nil {
				return err
			}

			if len(checkIDs) > 0 {
				if statement != "" {
					return fmt.Errorf("--check and --statement are mutually exclusive")
				}
				return runClearManual(b, accountID, checkIDs)
			}

			if statement == "" {
				return listImportFiles(b.root)
			}

			if accountID == "" {
				return fmt.Errorf("--account is required with --statement")
			}
			if bankBalance == "" {
				return fmt.Errorf("--bank-balance is required with --statement")
			}
			balance, err := decimal.NewFromString(bankBalance)
			if err != nil {
				return fmt.Errorf("invalid bank balance %q: %w", bankBalance, err)
			}

			return runReconcile(b, accountID, statement, format, balance)
		},
	}

	cmd.Flags().StringVar(&bookDir, "book", defaultBookDir(), "book directory")
	cmd.Flags().StringVar(&accountID, "account", "", "account id")
	cmd.Flags().StringVar(&statement, "statement", "", "bank statement CSV file")
	cmd.Flags().StringVar(&format, "format", "generic", "statement format")
	cmd.Flags().StringVar(&bankBalance, "bank-balance", "", "closing balance reported by the bank")
	cmd.Flags().StringSliceVar(&checkIDs, "check", nil, "check id to clear manually (repeatable)")

	return cmd
}

func listImportFiles(root string) error {
	files, err := importer.Scan(root)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println("No statement files waiting in import/")
		return nil
	}
	for _, f := range files {
		fmt.Printf("%s (%d bytes)\n", f.Name, f.Size)
	}
	fmt.Println("Run 'chequera reconcile --account <id> --statement <file> --bank-balance <amount>'")
	return nil
}

func runClearManual(b *book, accountID string, checkIDs []string) error {
	if accountID == "" {
		return fmt.Errorf("--account is required with --check")
	}

	result, err := b.reconciler().ClearManual(accountID, checkIDs)
	if err != nil {
		return err
	}

	details := fmt.Sprintf("cleared %d checks manually", len(result.Records))
	if err := b.record("reconcile", details, result.BatchID); err != nil {
		return err
	}

	fmt.Printf("Batch %s: cleared %d checks\n", result.BatchID, len(result.Records))
	return nil
}

func runReconcile(b *book, accountID, statement, format string, bankBalance decimal.Decimal) error {
	lines, skipped, err := importer.DefaultRegistry().ParseFile(statement, format)
	if err != nil {
		return err
	}

	result, err := b.reconciler().Reconcile(accountID, lines, skipped, bankBalance)
	if err != nil {
		return err
	}

	// Statement files taken from the book's import directory move to
	// import/processed once the batch is recorded.
	abs, err := filepath.Abs(statement)
	if err == nil && filepath.Dir(abs) == filepath.Join(b.root, "import") {
		if err := importer.MarkProcessed(b.root, filepath.Base(abs)); err != nil {
			return err
		}
	}

	details := fmt.Sprintf("%s: %d matched, %d unmatched, difference %s",
		filepath.Base(statement), len(result.Records), len(result.Unmatched), result.Difference.StringFixed(2))
	if err := b.record("reconcile", details, result.BatchID); err != nil {
		return err
	}

	printReconcileResult(result)
	return nil
}

func printReconcileResult(result reconcile.Result) {
	fmt.Printf("Batch %s\n", result.BatchID)
	fmt.Printf("Book balance %s, bank balance %s, difference %s\n",
		result.BookBalance.StringFixed(2), result.BankBalance.StringFixed(2), result.Difference.StringFixed(2))

	if len(result.Records) > 0 {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "MOVEMENT\tKIND\tBASIS\tLINE")
		for _, rec := range result.Records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s %s\n", rec.MovementID, rec.Kind, rec.Basis,
				rec.LineDate.Format(time.DateOnly), rec.LineDesc)
		}
		w.Flush()
	}

	if len(result.Unmatched) > 0 {
		fmt.Printf("%d movements still outstanding:\n", len(result.Unmatched))
		for _, m := range result.Unmatched {
			fmt.Printf("  %s %s %s (%s)\n", m.Date.Format(time.DateOnly), m.Kind, m.Amount.StringFixed(2), m.ID)
		}
	}

	for _, sk := range result.Skipped {
		fmt.Printf("skipped statement row %d: %s\n", sk.Row, sk.Reason)
	}
}
