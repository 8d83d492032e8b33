package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/stash/internal/kv"
	"github.com/roach88/stash/internal/store"
)

// NewDelCommand creates the "del" command.
func NewDelCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "del <key>",
		Short: "Remove a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(opts)
			if err != nil {
				return err
			}
			defer env.close()

			// Removing a key is always worth making durable right away.
			env.store.Set(kv.Key(args[0]), nil, store.Critical)
			return nil
		},
	}
}
