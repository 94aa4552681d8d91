// Package commands implements the ledgerctl administration CLI.
package commands

import (
	"github.com/spf13/cobra"

	"ledger/internal/config"
)

type options struct {
	dbPath string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Administer the expense ledger database",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.dbPath, "db", config.Load().SQLiteDBPath, "path to the SQLite database (SQLITE_DB_PATH)")

	rootCmd.AddCommand(
		newMigrateCommand(opts),
		newSummaryCommand(opts),
		newListCommand(opts),
	)

	return rootCmd
}
