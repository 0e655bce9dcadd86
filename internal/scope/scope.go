// Package scope models the key/value mappings templates are rendered against
// and the schema shapes that drive strict compilation.
//
// A Scope is a plain map. Every lookup checks that the map itself owns the
// key; there is no inheritance between scopes, merging produces a new map.
package scope

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Scope maps top-level keys to values (runtime data) or shapes (schema).
type Scope map[string]any

// Lookup returns the value owned by s under key.
func (s Scope) Lookup(key string) (any, bool) {
	if s == nil {
		return nil, false
	}
	v, ok := s[key]
	return v, ok
}

// Object returns s[key] when it is an object.
func (s Scope) Object(key string) (map[string]any, bool) {
	v, ok := s.Lookup(key)
	if !ok {
		return nil, false
	}
	return AsObject(v)
}

// Array returns s[key] when it is an array.
func (s Scope) Array(key string) ([]any, bool) {
	v, ok := s.Lookup(key)
	if !ok {
		return nil, false
	}
	return AsArray(v)
}

// Field returns s[key][subkey] when s[key] is an object owning subkey.
func (s Scope) Field(key, subkey string) (any, bool) {
	obj, ok := s.Object(key)
	if !ok {
		return nil, false
	}
	v, ok := obj[subkey]
	return v, ok
}

// Bool returns s[key][subkey] when it is boolean-typed.
func (s Scope) Bool(key, subkey string) (value bool, ok bool) {
	v, found := s.Field(key, subkey)
	if !found {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// Keys returns the keys of s in sorted order.
func (s Scope) Keys() []string {
	return SortedKeys(s)
}

// SortedKeys returns the keys of m in sorted order.
func SortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AsObject reports whether v is a string-keyed mapping and returns it.
func AsObject(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case Scope:
		return t, t != nil
	case map[string]any:
		return t, t != nil
	case map[string]string:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = val
		}
		return out, true
	case map[string]bool:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = val
		}
		return out, true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String || rv.IsNil() {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

// AsArray reports whether v is a list value and returns its elements.
func AsArray(v any) ([]any, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case []any:
		return t, true
	case []map[string]any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = e
		}
		return out, true
	case []Scope:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = e
		}
		return out, true
	case string, []byte:
		return nil, false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// Merge returns a new scope holding every key of parent overwritten by every
// key of child.
func Merge(parent Scope, child map[string]any) Scope {
	merged := make(Scope, len(parent)+len(child))
	for k, v := range parent {
		merged[k] = v
	}
	for k, v := range child {
		merged[k] = v
	}
	return merged
}

// MergeElement merges one array element into parent. Elements that are not
// objects contribute no keys.
func MergeElement(parent Scope, element any) Scope {
	child, _ := AsObject(element)
	return Merge(parent, child)
}

// MergeForKey merges the first element of the array parent[key] into parent.
// Schema scopes only need the element shape, so one element is enough. When
// parent[key] is absent, empty, or not an array, parent is returned unchanged.
func MergeForKey(parent Scope, key string) Scope {
	if parent == nil {
		return parent
	}
	arr, ok := parent.Array(key)
	if !ok || len(arr) == 0 {
		return parent
	}
	child, ok := AsObject(arr[0])
	if !ok {
		return parent
	}
	return Merge(parent, child)
}

// Stringify formats an interpolated value the way it appears in output.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return formatFloat(t, 64)
	case float32:
		return formatFloat(float64(t), 32)
	case fmt.Stringer:
		return t.String()
	}
	if arr, ok := AsArray(v); ok {
		parts := make([]string, len(arr))
		for i, e := range arr {
			if e != nil {
				parts[i] = Stringify(e)
			}
		}
		return strings.Join(parts, ",")
	}
	return fmt.Sprint(v)
}

func formatFloat(f float64, bits int) string {
	if f < 1e21 && f > -1e21 && f == float64(int64(f)) {
		return strconv.FormatFloat(f, 'f', -1, bits)
	}
	return strconv.FormatFloat(f, 'g', -1, bits)
}
