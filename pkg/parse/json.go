package parse

import (
	"strings"

	"github.com/inletlabs/inlet/pkg/json"
)

// EmbeddedJSON matches a JSON object or array buried in surrounding noise,
// such as a log banner before the payload or a shell trace after it. The
// text is scanned left to right; at each '{' or '[' a decode is attempted
// from that position, and the first position yielding a complete JSON value
// wins. Anything after the decoded value is ignored.
func EmbeddedJSON() Named {
	return Named{Name: "embedded-json", Fn: func(text string) (interface{}, bool) {
		for i := 0; i < len(text); i++ {
			if text[i] != '{' && text[i] != '[' {
				continue
			}
			if v, ok := decodePrefix(text[i:]); ok {
				return v, true
			}
		}
		return nil, false
	}}
}

// WholeJSON matches when the entire trimmed text is a single JSON object or
// array. It tolerates no surrounding noise: a decode error or trailing
// garbage is a miss, handing the text to the next strategy in the chain.
func WholeJSON() Named {
	return Named{Name: "json", Fn: func(text string) (interface{}, bool) {
		t := strings.TrimSpace(text)
		if t == "" || (t[0] != '{' && t[0] != '[') {
			return nil, false
		}
		var v interface{}
		if err := json.Unmarshal([]byte(t), &v); err != nil {
			return nil, false
		}
		return v, true
	}}
}

// decodePrefix decodes one JSON value from the start of s, ignoring
// whatever follows it.
func decodePrefix(s string) (interface{}, bool) {
	dec := json.NewDecoder(strings.NewReader(s))
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	return v, true
}
