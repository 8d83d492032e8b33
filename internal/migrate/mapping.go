package migrate

import "github.com/roach88/stash/internal/kv"

// Entry maps one legacy preference onto a stash key. Absent or unparsable
// legacy values fall back to Default.
type Entry struct {
	LegacyKey string
	Key       kv.Key
	Kind      kv.Kind
	Default   kv.Value
}

// DefaultTable is the fixed mapping imported at first startup. The legacy
// store used snake_case keys; the stash document uses camelCase.
var DefaultTable = []Entry{
	{LegacyKey: "launch_at_login", Key: "launchAtLogin", Kind: kv.KindBool, Default: kv.Bool(false)},
	{LegacyKey: "notifications_enabled", Key: "notificationsEnabled", Kind: kv.KindBool, Default: kv.Bool(true)},
	{LegacyKey: "api_key", Key: "apiKey", Kind: kv.KindString, Default: kv.String("")},
	{LegacyKey: "user_name", Key: "userName", Kind: kv.KindString, Default: kv.String("")},
	{LegacyKey: "enabled_modules", Key: "enabledModules", Kind: kv.KindStringList, Default: kv.StringList{}},
	{LegacyKey: "feature_flags", Key: "featureFlags", Kind: kv.KindBoolMap, Default: kv.BoolMap{}},
}
