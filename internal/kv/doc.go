// Package kv defines the value model for the stash persistence engine.
//
// Values form a closed, tagged set: Bool, String, StringList, BoolMap, and
// Blob. A Document is a flat mapping of string keys to values - no nesting
// beyond the closed set, no numbers, no null. The strict decoder rejects any
// JSON shape outside the model, which is what makes primary/backup corruption
// detectable at load time.
//
// Serialization is canonical: object keys are sorted by UTF-16 code units
// (RFC 8785 ordering), strings are NFC normalized, and HTML escaping is
// disabled. Two equal documents always produce byte-identical output, so the
// durable format can be compared and golden-tested at the byte level.
//
// Blobs hold opaque caller-encoded payloads. They appear in the document as
// base64 strings; the engine never inspects their contents.
package kv
