package parse

import "strconv"

// Field probing helpers for normalizers. External payloads spell the same
// field many ways (id vs eventId, from vs sender, a start that is either a
// plain string or an object with dateTime/date alternatives); these helpers
// reduce the guessing to ordered probes with first-non-empty-wins semantics.

// Truthy reports whether a decoded JSON value is present and non-empty:
// nil, "", 0, false, empty lists and empty objects all count as absent.
func Truthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case float64:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	case []interface{}:
		return len(t) > 0
	case map[string]interface{}:
		return len(t) > 0
	default:
		return true
	}
}

// First returns the value of the first key in m that is present and truthy.
func First(m map[string]interface{}, keys ...string) interface{} {
	for _, k := range keys {
		if v, ok := m[k]; ok && Truthy(v) {
			return v
		}
	}
	return nil
}

// FirstString stringifies the first truthy scalar among keys. JSON numbers
// stringify without a trailing ".0"; non-scalar values are skipped.
func FirstString(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || !Truthy(v) {
			continue
		}
		if s := Str(v); s != "" {
			return s
		}
	}
	return ""
}

// Str converts one scalar to a string; nil and non-scalar values become "".
func Str(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// NestedString reduces a value that is either a plain scalar or an object
// with alternative sub-fields to one string. For objects the sub-fields are
// probed in order, so callers put the more specific field first (dateTime
// before date).
func NestedString(v interface{}, subkeys ...string) string {
	if m, ok := v.(map[string]interface{}); ok {
		return FirstString(m, subkeys...)
	}
	return Str(v)
}

// Objects filters a decoded JSON list down to its object elements. Non-list
// input yields nil; an empty list yields an empty, non-nil slice.
func Objects(v interface{}) []map[string]interface{} {
	list, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]map[string]interface{}, 0, len(list))
	for _, e := range list {
		if m, ok := e.(map[string]interface{}); ok {
			out = append(out, m)
		}
	}
	return out
}

// ObjectsAt unwraps a payload that is either a bare list or an object
// carrying the list under one of several keys, probing the keys in order.
// A key holding an empty list counts as absent, so {"events": [], "items":
// [...]} still yields the items.
func ObjectsAt(v interface{}, keys ...string) []map[string]interface{} {
	if list := Objects(v); list != nil {
		return list
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	for _, k := range keys {
		if list := Objects(m[k]); len(list) > 0 {
			return list
		}
	}
	return nil
}

// StringsAt flattens a list whose elements are either strings or objects
// with a string sub-field, probing subkeys in order for the object case.
// Empty results are dropped; a miss is nil.
func StringsAt(v interface{}, subkeys ...string) []string {
	list, ok := v.([]interface{})
	if !ok {
		return nil
	}
	var out []string
	for _, e := range list {
		switch t := e.(type) {
		case string:
			if t != "" {
				out = append(out, t)
			}
		case map[string]interface{}:
			if s := FirstString(t, subkeys...); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// IntAt returns the named field as an int, or 0 when absent or not numeric.
func IntAt(m map[string]interface{}, key string) int {
	switch t := m[key].(type) {
	case float64:
		return int(t)
	case int:
		return t
	case int64:
		return int(t)
	default:
		return 0
	}
}
