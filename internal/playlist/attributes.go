package playlist

import (
	"iter"
)

// Attributes is an ordered string mapping for format-specific channel metadata
// such as a required Referer header. Setting an existing key replaces its
// value and keeps its original position.
type Attributes struct {
	keys   []string
	values map[string]string
}

// NewAttributes builds Attributes from alternating key/value pairs.
// A trailing key without a value is ignored.
func NewAttributes(kv ...string) Attributes {
	var a Attributes
	for i := 0; i+1 < len(kv); i += 2 {
		a = a.With(kv[i], kv[i+1])
	}
	return a
}

// With returns a copy of a with key set to value.
func (a Attributes) With(key, value string) Attributes {
	out := a.clone()
	if out.values == nil {
		out.values = make(map[string]string)
	}
	if _, ok := out.values[key]; !ok {
		out.keys = append(out.keys, key)
	}
	out.values[key] = value
	return out
}

// Get returns the value stored under key.
func (a Attributes) Get(key string) (string, bool) {
	v, ok := a.values[key]
	return v, ok
}

// Len returns the number of keys.
func (a Attributes) Len() int {
	return len(a.keys)
}

// Keys returns the keys in insertion order.
func (a Attributes) Keys() []string {
	out := make([]string, len(a.keys))
	copy(out, a.keys)
	return out
}

// All iterates over key/value pairs in insertion order.
func (a Attributes) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, k := range a.keys {
			if !yield(k, a.values[k]) {
				return
			}
		}
	}
}

// Map returns an unordered copy of the attributes.
func (a Attributes) Map() map[string]string {
	out := make(map[string]string, len(a.keys))
	for k, v := range a.values {
		out[k] = v
	}
	return out
}

func (a Attributes) clone() Attributes {
	if len(a.keys) == 0 {
		return Attributes{}
	}
	out := Attributes{
		keys:   make([]string, len(a.keys), len(a.keys)+1),
		values: make(map[string]string, len(a.values)+1),
	}
	copy(out.keys, a.keys)
	for k, v := range a.values {
		out.values[k] = v
	}
	return out
}
