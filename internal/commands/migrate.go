package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"ledger/internal/storage"
)

func newMigrateCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := storage.RunMigrations(opts.dbPath); err != nil {
				return fmt.Errorf("migrating %s: %w", opts.dbPath, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema up to date: %s\n", opts.dbPath)
			return nil
		},
	}
}
