package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chequera-dev/chequera/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "chequera",
		Short:   "Check issuance and reconciliation ledger",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newAccountCommand())
	rootCmd.AddCommand(newCheckbookCommand())
	rootCmd.AddCommand(newIssueCommand())
	rootCmd.AddCommand(newDepositCommand())
	rootCmd.AddCommand(newVoidCommand())
	rootCmd.AddCommand(newMovementsCommand())
	rootCmd.AddCommand(newReconcileCommand())

	return rootCmd
}
