// Package json wraps the goccy JSON codec behind a single import so that
// snapshots, lifecycle events, journal lines, and parser decoding all share
// one configuration.
package json

import (
	"io"

	gojson "github.com/goccy/go-json"
)

// Marshal is a drop-in replacement for encoding/json.Marshal
func Marshal(v interface{}) ([]byte, error) {
	return gojson.Marshal(v)
}

// MarshalIndent is a drop-in replacement for encoding/json.MarshalIndent
func MarshalIndent(v interface{}, prefix, indent string) ([]byte, error) {
	return gojson.MarshalIndent(v, prefix, indent)
}

// Unmarshal is a drop-in replacement for encoding/json.Unmarshal
func Unmarshal(data []byte, v interface{}) error {
	return gojson.Unmarshal(data, v)
}

// Valid reports whether data is a complete, well-formed JSON document
func Valid(data []byte) bool {
	return gojson.Valid(data)
}

// NewEncoder returns an encoder on w with HTML escaping disabled.
// Snapshots and events carry URLs; escaped ampersands help nobody.
func NewEncoder(w io.Writer) *gojson.Encoder {
	enc := gojson.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc
}

// NewDecoder returns a decoder on r
func NewDecoder(r io.Reader) *gojson.Decoder {
	return gojson.NewDecoder(r)
}

// EncodeLine writes v to w as one compact JSON document followed by a
// newline, the shape shared by the event stream and the run journal.
func EncodeLine(w io.Writer, v interface{}) error {
	return NewEncoder(w).Encode(v)
}
