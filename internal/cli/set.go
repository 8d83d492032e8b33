package cli

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/stash/internal/kv"
	"github.com/roach88/stash/internal/store"
)

// ValidTypes lists the accepted --type values.
var ValidTypes = []string{"string", "bool", "list", "map", "blob"}

// NewSetCommand creates the "set" command.
func NewSetCommand(opts *RootOptions) *cobra.Command {
	var (
		typ      string
		critical bool
	)

	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a value under a key",
		Long: `Store a value under a key.

List and map values are given as JSON text; blobs as base64. A critical
set is durable before the command returns; otherwise the write coalesces
and is flushed on exit.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := parseValue(typ, args[1])
			if err != nil {
				return err
			}

			env, err := openEnv(opts)
			if err != nil {
				return err
			}
			defer env.close()

			pri := store.Deferred
			if critical {
				pri = store.Critical
			}
			env.store.Set(kv.Key(args[0]), value, pri)
			return nil
		},
	}

	cmd.Flags().StringVar(&typ, "type", "string", "value type (string|bool|list|map|blob)")
	cmd.Flags().BoolVar(&critical, "critical", false, "persist before returning")
	return cmd
}

// parseValue turns command-line text into a typed value.
func parseValue(typ, raw string) (kv.Value, error) {
	switch typ {
	case "string":
		return kv.String(raw), nil
	case "bool":
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid bool %q: %w", raw, err)
		}
		return kv.Bool(b), nil
	case "list":
		var list []string
		if err := json.Unmarshal([]byte(raw), &list); err != nil {
			return nil, fmt.Errorf("invalid list %q: %w", raw, err)
		}
		return kv.StringList(list), nil
	case "map":
		var m map[string]bool
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return nil, fmt.Errorf("invalid map %q: %w", raw, err)
		}
		return kv.BoolMap(m), nil
	case "blob":
		payload, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid base64 blob: %w", err)
		}
		return kv.Blob(payload), nil
	default:
		return nil, fmt.Errorf("invalid type %q: must be one of %v", typ, ValidTypes)
	}
}
