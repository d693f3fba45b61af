package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruthy(t *testing.T) {
	tests := []struct {
		name string
		v    interface{}
		want bool
	}{
		{"nil", nil, false},
		{"empty string", "", false},
		{"string", "x", true},
		{"zero", float64(0), false},
		{"number", float64(3), true},
		{"false", false, false},
		{"true", true, true},
		{"empty list", []interface{}{}, false},
		{"list", []interface{}{1}, true},
		{"empty object", map[string]interface{}{}, false},
		{"object", map[string]interface{}{"a": 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truthy(tt.v))
		})
	}
}

func TestFirstString(t *testing.T) {
	m := map[string]interface{}{
		"id":      "",
		"eventId": "ev-42",
		"number":  float64(17),
		"zero":    float64(0),
		"flag":    false,
		"nested":  map[string]interface{}{"x": 1},
	}

	t.Run("empty candidates are skipped", func(t *testing.T) {
		assert.Equal(t, "ev-42", FirstString(m, "id", "eventId"))
	})

	t.Run("numbers stringify without decimals", func(t *testing.T) {
		assert.Equal(t, "17", FirstString(m, "number"))
	})

	t.Run("zero and false count as absent", func(t *testing.T) {
		assert.Equal(t, "", FirstString(m, "zero", "flag"))
	})

	t.Run("non-scalars are skipped", func(t *testing.T) {
		assert.Equal(t, "ev-42", FirstString(m, "nested", "eventId"))
	})

	t.Run("no candidates present", func(t *testing.T) {
		assert.Equal(t, "", FirstString(m, "missing", "alsoMissing"))
	})
}

func TestNestedString(t *testing.T) {
	t.Run("prefers the first sub-field", func(t *testing.T) {
		v := map[string]interface{}{"dateTime": "2026-03-01T09:00:00Z", "date": "2026-03-01"}
		assert.Equal(t, "2026-03-01T09:00:00Z", NestedString(v, "dateTime", "date"))
	})

	t.Run("falls back to the less specific sub-field", func(t *testing.T) {
		v := map[string]interface{}{"date": "2026-03-01"}
		assert.Equal(t, "2026-03-01", NestedString(v, "dateTime", "date"))
	})

	t.Run("plain scalars pass through", func(t *testing.T) {
		assert.Equal(t, "2026-03-01T09:00:00Z", NestedString("2026-03-01T09:00:00Z", "dateTime", "date"))
	})

	t.Run("nil reduces to empty", func(t *testing.T) {
		assert.Equal(t, "", NestedString(nil, "dateTime", "date"))
	})
}

func TestObjects(t *testing.T) {
	t.Run("filters non-object elements", func(t *testing.T) {
		v := []interface{}{
			map[string]interface{}{"id": "a"},
			"stray string",
			float64(7),
			map[string]interface{}{"id": "b"},
		}
		out := Objects(v)
		require.Len(t, out, 2)
		assert.Equal(t, "b", out[1]["id"])
	})

	t.Run("empty list is an empty non-nil slice", func(t *testing.T) {
		out := Objects([]interface{}{})
		assert.NotNil(t, out)
		assert.Empty(t, out)
	})

	t.Run("non-lists yield nil", func(t *testing.T) {
		assert.Nil(t, Objects(map[string]interface{}{}))
		assert.Nil(t, Objects("x"))
		assert.Nil(t, Objects(nil))
	})
}

func TestObjectsAt(t *testing.T) {
	event := map[string]interface{}{"id": "e1"}

	t.Run("bare list", func(t *testing.T) {
		out := ObjectsAt([]interface{}{event}, "events", "items")
		require.Len(t, out, 1)
		assert.Equal(t, "e1", out[0]["id"])
	})

	t.Run("wrapped under the first key", func(t *testing.T) {
		v := map[string]interface{}{"events": []interface{}{event}}
		assert.Len(t, ObjectsAt(v, "events", "items"), 1)
	})

	t.Run("empty first key falls through to the next", func(t *testing.T) {
		v := map[string]interface{}{
			"events": []interface{}{},
			"items":  []interface{}{event},
		}
		out := ObjectsAt(v, "events", "items")
		require.Len(t, out, 1)
		assert.Equal(t, "e1", out[0]["id"])
	})

	t.Run("no list anywhere", func(t *testing.T) {
		assert.Nil(t, ObjectsAt(map[string]interface{}{"status": "ok"}, "events", "items"))
		assert.Nil(t, ObjectsAt("prose", "events"))
	})
}

func TestStringsAt(t *testing.T) {
	t.Run("mixed attendee shapes", func(t *testing.T) {
		v := []interface{}{
			map[string]interface{}{"email": "alice@example.com"},
			"bob@example.com",
			map[string]interface{}{"email": ""},
			map[string]interface{}{"displayName": "no address"},
			float64(3),
		}
		assert.Equal(t, []string{"alice@example.com", "bob@example.com"}, StringsAt(v, "email"))
	})

	t.Run("non-lists yield nil", func(t *testing.T) {
		assert.Nil(t, StringsAt("alice@example.com", "email"))
	})
}

func TestIntAt(t *testing.T) {
	m := map[string]interface{}{"number": float64(128), "title": "not a number"}
	assert.Equal(t, 128, IntAt(m, "number"))
	assert.Equal(t, 0, IntAt(m, "title"))
	assert.Equal(t, 0, IntAt(m, "missing"))
}
