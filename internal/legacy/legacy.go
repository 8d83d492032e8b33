package legacy

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/stash/internal/kv"
)

//go:embed schema.sql
var schemaSQL string

// metaMigrationDone is the meta-table key holding the migration flag.
const metaMigrationDone = "migrationCompleted"

// Store wraps the legacy SQLite preference database.
type Store struct {
	db *sql.DB
}

// Open creates or opens the legacy database at path.
//
// The connection pool is limited to a single connection - SQLite allows one
// writer at a time and the legacy store sees almost no writes anyway.
// Opening is idempotent.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open legacy database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect legacy database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// raw returns the text value for key and whether it exists.
func (s *Store) raw(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM prefs WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read legacy pref %q: %w", key, err)
	}
	return value, true, nil
}

// String returns the string preference under key.
func (s *Store) String(key string) (string, bool, error) {
	return s.raw(key)
}

// Bool returns the boolean preference under key. Legacy writers were loose
// about representation, so "true"/"false", "1"/"0" and friends all parse.
func (s *Store) Bool(key string) (bool, bool, error) {
	raw, ok, err := s.raw(key)
	if err != nil || !ok {
		return false, ok, err
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false, fmt.Errorf("legacy pref %q is not a boolean: %w", key, err)
	}
	return b, true, nil
}

// StringList returns the list preference under key, stored as JSON text.
func (s *Store) StringList(key string) ([]string, bool, error) {
	raw, ok, err := s.raw(key)
	if err != nil || !ok {
		return nil, ok, err
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, false, fmt.Errorf("legacy pref %q is not a string list: %w", key, err)
	}
	return list, true, nil
}

// BoolMap returns the map preference under key, stored as JSON text.
func (s *Store) BoolMap(key string) (map[string]bool, bool, error) {
	raw, ok, err := s.raw(key)
	if err != nil || !ok {
		return nil, ok, err
	}
	var m map[string]bool
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, false, fmt.Errorf("legacy pref %q is not a bool map: %w", key, err)
	}
	return m, true, nil
}

// Value reads the preference under key as the given kind. It returns
// (nil, false, nil) when the key is absent; a present-but-unparsable value
// is reported as an error so the migration table's default applies.
func (s *Store) Value(key string, kind kv.Kind) (kv.Value, bool, error) {
	switch kind {
	case kv.KindBool:
		b, ok, err := s.Bool(key)
		if err != nil || !ok {
			return nil, ok, err
		}
		return kv.Bool(b), true, nil
	case kv.KindString, kv.KindBlob:
		// Blobs migrate as their opaque text form.
		str, ok, err := s.String(key)
		if err != nil || !ok {
			return nil, ok, err
		}
		return kv.String(str), true, nil
	case kv.KindStringList:
		list, ok, err := s.StringList(key)
		if err != nil || !ok {
			return nil, ok, err
		}
		return kv.StringList(list), true, nil
	case kv.KindBoolMap:
		m, ok, err := s.BoolMap(key)
		if err != nil || !ok {
			return nil, ok, err
		}
		return kv.BoolMap(m), true, nil
	default:
		return nil, false, fmt.Errorf("unsupported legacy kind %q", kind)
	}
}

// Put writes a preference row. The engine itself never calls this; it
// exists for provisioning and test fixtures.
func (s *Store) Put(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO prefs (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("write legacy pref %q: %w", key, err)
	}
	return nil
}

// MigrationDone reports whether the one-time migration has committed.
// A missing flag means not migrated.
func (s *Store) MigrationDone() (bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM meta WHERE key = ?", metaMigrationDone).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read migration flag: %w", err)
	}
	done, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("migration flag malformed: %w", err)
	}
	return done, nil
}

// SetMigrationDone persists the migration flag. It lives in the legacy
// database so it survives even a fully reset stash document.
func (s *Store) SetMigrationDone(done bool) error {
	_, err := s.db.Exec(
		"INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		metaMigrationDone, strconv.FormatBool(done),
	)
	if err != nil {
		return fmt.Errorf("write migration flag: %w", err)
	}
	return nil
}
