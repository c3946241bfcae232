// Package document holds the raw, untyped representation of schema documents:
// an insertion-ordered map whose values are scalars, nested maps or sequences.
//
// Schema documents are order-sensitive (field order drives form layout and the
// ordering directives), so the package never relies on Go map iteration order.
package document

import (
	"bytes"
	"reflect"
	"sort"
	"strings"

	json "github.com/goccy/go-json"
)

// Map is an insertion-ordered string-keyed map. The zero value is not usable;
// construct one with New or FromMap.
type Map struct {
	keys []string
	vals map[string]any
}

// New returns an empty Map.
func New() *Map { return &Map{vals: map[string]any{}} }

// FromMap converts a plain nested map into a Map. Keys are sorted because the
// source has no order of its own. Nested map[string]any values are converted
// recursively, sequences are walked for nested maps.
func FromMap(m map[string]any) *Map {
	out := New()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out.Set(k, FromPlain(m[k]))
	}
	return out
}

// FromPlain converts plain Go values (map[string]any, []any) into document
// values. Other values are returned as is.
func FromPlain(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return FromMap(t)
	case []any:
		arr := make([]any, len(t))
		for i := range t {
			arr[i] = FromPlain(t[i])
		}
		return arr
	default:
		return v
	}
}

// Len returns the number of keys.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns a copy of the keys in order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.keys...)
}

// Get returns the value stored under k.
func (m *Map) Get(k string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.vals[k]
	return v, ok
}

// Has reports whether k is present.
func (m *Map) Has(k string) bool {
	_, ok := m.Get(k)
	return ok
}

// Set stores v under k. New keys are appended; existing keys keep their position.
func (m *Map) Set(k string, v any) {
	if _, ok := m.vals[k]; !ok {
		m.keys = append(m.keys, k)
	}
	m.vals[k] = v
}

// InsertAt stores v under k at position i. An existing key is moved.
func (m *Map) InsertAt(i int, k string, v any) {
	m.Delete(k)
	if i < 0 {
		i = 0
	}
	if i > len(m.keys) {
		i = len(m.keys)
	}
	m.keys = append(m.keys, "")
	copy(m.keys[i+1:], m.keys[i:])
	m.keys[i] = k
	m.vals[k] = v
}

// Delete removes k and reports whether it was present.
func (m *Map) Delete(k string) bool {
	if m == nil {
		return false
	}
	if _, ok := m.vals[k]; !ok {
		return false
	}
	delete(m.vals, k)
	for i, kk := range m.keys {
		if kk == k {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
	return true
}

// Index returns the position of k, or -1.
func (m *Map) Index(k string) int {
	if m == nil {
		return -1
	}
	for i, kk := range m.keys {
		if kk == k {
			return i
		}
	}
	return -1
}

// Reorder replaces the key order. Keys missing from order keep their relative
// position after the listed ones; unknown keys in order are ignored.
func (m *Map) Reorder(order []string) {
	seen := make(map[string]struct{}, len(m.keys))
	next := make([]string, 0, len(m.keys))
	for _, k := range order {
		if _, ok := m.vals[k]; !ok {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		next = append(next, k)
	}
	for _, k := range m.keys {
		if _, ok := seen[k]; !ok {
			next = append(next, k)
		}
	}
	m.keys = next
}

// Map returns the nested Map stored under k.
func (m *Map) Map(k string) (*Map, bool) {
	v, ok := m.Get(k)
	if !ok {
		return nil, false
	}
	sub, ok := v.(*Map)
	return sub, ok
}

// String returns the string stored under k, or "".
func (m *Map) String(k string) string {
	v, _ := m.Get(k)
	s, _ := v.(string)
	return s
}

// Lookup walks a path of keys through nested maps.
func (m *Map) Lookup(path ...string) (any, bool) {
	var cur any = m
	for _, p := range path {
		mm, ok := cur.(*Map)
		if !ok {
			return nil, false
		}
		cur, ok = mm.Get(p)
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// LookupMap is Lookup restricted to map results.
func (m *Map) LookupMap(path ...string) (*Map, bool) {
	v, ok := m.Lookup(path...)
	if !ok {
		return nil, false
	}
	mm, ok := v.(*Map)
	return mm, ok
}

// LookupDotted resolves a dot-separated path ("form.fields").
func (m *Map) LookupDotted(path string) (any, bool) {
	if path == "" {
		return m, true
	}
	return m.Lookup(strings.Split(path, ".")...)
}

// Ensure returns the map under path, creating intermediate maps as needed.
// A non-map value on the way is replaced.
func (m *Map) Ensure(path ...string) *Map {
	cur := m
	for _, p := range path {
		next, ok := cur.Map(p)
		if !ok {
			next = New()
			cur.Set(p, next)
		}
		cur = next
	}
	return cur
}

// Clone returns a deep copy. Sequences are copied, scalars are shared.
func (m *Map) Clone() *Map {
	if m == nil {
		return nil
	}
	out := &Map{keys: append([]string(nil), m.keys...), vals: make(map[string]any, len(m.vals))}
	for k, v := range m.vals {
		out.vals[k] = CloneValue(v)
	}
	return out
}

// CloneValue deep-copies maps and sequences.
func CloneValue(v any) any {
	switch t := v.(type) {
	case *Map:
		return t.Clone()
	case []any:
		arr := make([]any, len(t))
		for i := range t {
			arr[i] = CloneValue(t[i])
		}
		return arr
	default:
		return v
	}
}

// ToMap converts the Map into plain nested map[string]any values.
func (m *Map) ToMap() map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m.keys))
	for _, k := range m.keys {
		out[k] = ToPlain(m.vals[k])
	}
	return out
}

// ToPlain converts a document value into plain Go values.
func ToPlain(v any) any {
	switch t := v.(type) {
	case *Map:
		return t.ToMap()
	case []any:
		arr := make([]any, len(t))
		for i := range t {
			arr[i] = ToPlain(t[i])
		}
		return arr
	default:
		return v
	}
}

// Equal reports deep equality including key order.
func Equal(a, b *Map) bool {
	if a.Len() != b.Len() {
		return false
	}
	for i, k := range a.keys {
		if b.keys[i] != k {
			return false
		}
		if !valueEqual(a.vals[k], b.vals[k]) {
			return false
		}
	}
	return true
}

func valueEqual(a, b any) bool {
	switch ta := a.(type) {
	case *Map:
		tb, ok := b.(*Map)
		return ok && Equal(ta, tb)
	case []any:
		tb, ok := b.([]any)
		if !ok || len(ta) != len(tb) {
			return false
		}
		for i := range ta {
			if !valueEqual(ta[i], tb[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		return reflect.DeepEqual(a, b)
	default:
		if a == nil || b == nil {
			return a == b
		}
		typA, typB := reflect.TypeOf(a), reflect.TypeOf(b)
		if typA != typB {
			return false
		}
		if !typA.Comparable() {
			return reflect.DeepEqual(a, b)
		}
		return a == b
	}
}

// MarshalJSON encodes the map preserving key order.
func (m *Map) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(m.vals[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
