package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/stash/internal/migrate"
)

// NewMigrateCommand creates the "migrate" command.
func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run the one-time legacy import",
		Long: `Run the one-time import from the legacy preference store.

Gated on the migration flag: once committed, subsequent runs are no-ops.
A failed run rolls back completely and is retried on the next invocation.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(opts)
			if err != nil {
				return err
			}
			defer env.close()

			eng := migrate.NewEngine(env.store, env.file, env.legacy, nil, env.logger)
			if err := eng.Run(); err != nil {
				return err
			}
			if eng.State() == migrate.StateCommitted {
				fmt.Fprintln(cmd.OutOrStdout(), "migration committed")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "migration already committed, nothing to do")
			}
			return nil
		},
	}
}
