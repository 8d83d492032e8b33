package kv

import "bytes"

// Key identifies a stored entry. Keys are stable, globally unique strings;
// a key's semantic kind never changes across the program's lifetime.
type Key string

// Kind tags the semantic type of a Value.
type Kind string

const (
	KindBool       Kind = "bool"
	KindString     Kind = "string"
	KindStringList Kind = "stringList"
	KindBoolMap    Kind = "boolMap"
	KindBlob       Kind = "blob"
)

// Value is a sealed interface over the closed set of storable kinds.
// Only Bool, String, StringList, BoolMap, and Blob implement it.
// No numeric variant exists - the durable format has no use for one and
// excluding it keeps canonical encoding trivially deterministic.
type Value interface {
	Kind() Kind
	value() // sealed
}

// Bool is a boolean value.
type Bool bool

func (Bool) Kind() Kind { return KindBool }
func (Bool) value()     {}

// String is a string value.
type String string

func (String) Kind() Kind { return KindString }
func (String) value()     {}

// StringList is an ordered list of strings.
type StringList []string

func (StringList) Kind() Kind { return KindStringList }
func (StringList) value()     {}

// BoolMap is a string-keyed map of booleans.
type BoolMap map[string]bool

func (BoolMap) Kind() Kind { return KindBoolMap }
func (BoolMap) value()     {}

// Blob is an opaque caller-encoded payload. It serializes as a base64
// string inside the flat document.
type Blob []byte

func (Blob) Kind() Kind { return KindBlob }
func (Blob) value()     {}

// Clone returns a deep copy of v. Scalar kinds are returned as-is;
// collection kinds are copied so callers cannot alias store internals.
func Clone(v Value) Value {
	switch val := v.(type) {
	case StringList:
		out := make(StringList, len(val))
		copy(out, val)
		return out
	case BoolMap:
		out := make(BoolMap, len(val))
		for k, b := range val {
			out[k] = b
		}
		return out
	case Blob:
		out := make(Blob, len(val))
		copy(out, val)
		return out
	default:
		return v
	}
}

// Equal reports whether two values serialize identically. Comparing
// canonical bytes sidesteps per-kind comparison logic and matches the
// only equality the durable layer can observe. A Blob and a String with
// the same canonical rendering compare equal on purpose - blobs decode
// from disk as strings.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ab, aerr := marshalCanonicalValue(a)
	bb, berr := marshalCanonicalValue(b)
	if aerr != nil || berr != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}
