package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/stash/internal/kv"
)

// NewGetCommand creates the "get" command.
func NewGetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print the value stored under a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(opts)
			if err != nil {
				return err
			}
			defer env.close()

			v, ok := env.store.Get(kv.Key(args[0]))
			if !ok {
				return fmt.Errorf("key %q is not set", args[0])
			}
			out, err := kv.MarshalValue(v)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}
