package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gstbook-dev/gstbook/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "gstbook",
		Short:   "GST invoicing and ledger books",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newInitCommand(),
		newTaxCommand(),
		newConvertCommand(),
		newWordsCommand(),
		newInvoiceCommand(),
		newTransactionCommand(),
		newImportCommand(),
		newStatementCommand(),
		newBalanceSheetCommand(),
	)

	return rootCmd
}
