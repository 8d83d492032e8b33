package kv

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"slices"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// Document is a flat mapping of keys to values. It is the unit of
// serialization: the durability layer always persists a whole Document.
type Document map[Key]Value

// Clone returns a deep copy of the document. The migration engine snapshots
// through this before importing so rollback can restore the exact state.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = Clone(v)
	}
	return out
}

// Equal reports whether two documents serialize to identical bytes.
func (d Document) Equal(other Document) bool {
	a, aerr := d.MarshalCanonical()
	b, berr := other.MarshalCanonical()
	if aerr != nil || berr != nil {
		return false
	}
	return bytes.Equal(a, b)
}

// MarshalCanonical serializes the document to canonical JSON:
// keys sorted by UTF-16 code units (RFC 8785 ordering), NFC-normalized
// strings, no HTML escaping. Equal documents produce byte-identical
// output, which is what makes durable writes diffable and golden-testable.
func (d Document) MarshalCanonical() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, k := range d.sortedKeys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := marshalCanonicalString(string(k))
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valBytes, err := marshalCanonicalValue(d[k])
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %q: %w", k, err)
		}
		buf.Write(valBytes)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// sortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// Go's sort.Strings compares UTF-8 bytes, which orders astral-plane
// characters differently.
func (d Document) sortedKeys() []Key {
	keys := make([]Key, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b Key) int {
		return compareUTF16(string(a), string(b))
	})
	return keys
}

// compareUTF16 compares strings by UTF-16 code units as required by
// RFC 8785. utf16.Encode handles surrogate pairs correctly.
func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	n := min(len(a16), len(b16))
	for i := 0; i < n; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	default:
		return 0
	}
}

// MarshalValue renders a single value in the document's canonical encoding.
func MarshalValue(v Value) ([]byte, error) {
	return marshalCanonicalValue(v)
}

func marshalCanonicalValue(v Value) ([]byte, error) {
	switch val := v.(type) {
	case Bool:
		if val {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case String:
		return marshalCanonicalString(string(val))
	case StringList:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, s := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := marshalCanonicalString(s)
			if err != nil {
				return nil, fmt.Errorf("list[%d]: %w", i, err)
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case BoolMap:
		return marshalCanonicalBoolMap(val)
	case Blob:
		// Opaque payloads ride inside the flat document as base64 text.
		return marshalCanonicalString(base64.StdEncoding.EncodeToString(val))
	default:
		return nil, fmt.Errorf("unknown value type: %T", v)
	}
}

func marshalCanonicalBoolMap(m BoolMap) ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := marshalCanonicalString(k)
		if err != nil {
			return nil, fmt.Errorf("map key %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		if m[k] {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshalCanonicalString produces a canonical JSON string:
// NFC normalized, no HTML escaping, and U+2028/U+2029 left literal.
// Only control characters, backslash, and quote are escaped.
func marshalCanonicalString(s string) ([]byte, error) {
	normalized := norm.NFC.String(s)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return nil, err
	}

	// json.Encoder appends a trailing newline.
	result := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))

	// Go's encoder escapes U+2028/U+2029 for JavaScript embedding; RFC 8785
	// wants them literal. A literal backslash in the input was itself encoded
	// as \\, so a \u202x escape preceded by an even run of backslashes is the
	// encoder's own and must be unescaped.
	return unescapeLineSeparators(result), nil
}

func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}

	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); {
		if data[i] == '\\' && i+6 <= len(data) &&
			bytes.HasPrefix(data[i:], []byte(`\u202`)) &&
			(data[i+5] == '8' || data[i+5] == '9') {
			backslashes := 0
			for j := len(out) - 1; j >= 0 && out[j] == '\\'; j-- {
				backslashes++
			}
			if backslashes%2 == 0 {
				if data[i+5] == '8' {
					out = append(out, "\u2028"...)
				} else {
					out = append(out, "\u2029"...)
				}
				i += 6
				continue
			}
		}
		out = append(out, data[i])
		i++
	}
	return out
}

// DecodeDocument parses canonical (or merely well-formed) JSON into a
// Document with strict validation: the top level must be an object, and
// every value must fit the closed kind set. Numbers, null, nested objects
// with non-boolean values, and arrays with non-string elements are all
// rejected - any of them means the file is not ours or is damaged.
//
// Strings decode as String even when the writer stored a Blob; blobs are
// indistinguishable from strings on disk, and the Blob accessor on the
// store base64-decodes on demand.
func DecodeDocument(data []byte) (Document, error) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("decode document: top level must be an object")
	}

	var raw map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	// Trailing garbage after the object means truncation went the other way.
	if dec.More() {
		return nil, fmt.Errorf("decode document: trailing data after object")
	}

	doc := make(Document, len(raw))
	for k, rawVal := range raw {
		v, err := decodeValue(rawVal)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		doc[Key(k)] = v
	}
	return doc, nil
}

func decodeValue(data json.RawMessage) (Value, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty value")
	}

	switch data[0] {
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		return Bool(b), nil

	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return String(s), nil

	case '[':
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("list must contain only strings: %w", err)
		}
		return StringList(list), nil

	case '{':
		var m map[string]bool
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("map must contain only booleans: %w", err)
		}
		return BoolMap(m), nil

	case 'n':
		return nil, fmt.Errorf("null is not a storable value")

	default:
		return nil, fmt.Errorf("numbers are not storable values: %s", data)
	}
}
