// Package canon defines the canonical nested mapping shared by every source
// encoding, and converts JSON, YAML and XML documents to and from it.
package canon

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Mapping is an insertion-ordered string-keyed map.
//
// Values are string, float64, bool, nil, *Mapping or []any. Setting a key
// that already exists replaces its value but keeps its original position,
// which matches how decoded documents and dictionary updates behave.
type Mapping struct {
	keys []string
	vals map[string]any
}

// Entry is a single key/value pair of a Mapping.
type Entry struct {
	Key   string
	Value any
}

// NewMapping returns an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{vals: make(map[string]any)}
}

// Set stores value under key.
func (m *Mapping) Set(key string, value any) {
	if m.vals == nil {
		m.vals = make(map[string]any)
	}
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = value
}

// Get returns the value stored under key.
func (m *Mapping) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.vals[key]
	return v, ok
}

// Len returns the number of keys.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the keys in insertion order.
func (m *Mapping) Keys() []string {
	if m == nil {
		return nil
	}
	keys := make([]string, len(m.keys))
	copy(keys, m.keys)
	return keys
}

// Entries returns the key/value pairs in insertion order.
func (m *Mapping) Entries() []Entry {
	if m == nil {
		return nil
	}
	entries := make([]Entry, 0, len(m.keys))
	for _, k := range m.keys {
		entries = append(entries, Entry{Key: k, Value: m.vals[k]})
	}
	return entries
}

// Merge copies every entry of other into m. Keys present in both take the
// value from other (last write wins).
func (m *Mapping) Merge(other *Mapping) {
	for _, e := range other.Entries() {
		m.Set(e.Key, e.Value)
	}
}

// MarshalJSON encodes the mapping as a JSON object, preserving key order.
func (m *Mapping) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range m.Entries() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(e.Value)
		if err != nil {
			return nil, fmt.Errorf("encoding %q: %w", e.Key, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Equal reports whether a and b are structurally equal canonical values.
// Mapping key order is not significant.
func Equal(a, b any) bool {
	switch av := a.(type) {
	case *Mapping:
		bv, ok := b.(*Mapping)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		for _, e := range av.Entries() {
			other, ok := bv.Get(e.Key)
			if !ok || !Equal(e.Value, other) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}
