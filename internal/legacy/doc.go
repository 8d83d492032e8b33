// Package legacy accesses the flat preference store the migration engine
// imports from: a small SQLite database of string-keyed text values.
//
// The engine reads it through typed accessors and never deletes from it.
// The one thing written back is the migration-completed flag, kept in a
// separate meta table precisely because it must survive even a fully reset
// stash document.
package legacy
