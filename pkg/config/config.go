// Package config provides run configuration for inlet connector jobs.
//
// Configuration flows one way: the CLI resolves a RunConfig once at startup,
// the pipeline loads the per-connector Settings document once per run, and
// every component receives what it needs as an argument. No component reads
// environment variables or the filesystem for configuration on its own.
package config

import (
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/inletlabs/inlet/pkg/errors"
)

// RunConfig is the explicit configuration for one or more connector runs.
// It is constructed exactly once, at process start, and passed by reference
// into the pipeline.
type RunConfig struct {
	// BaseDir is the workspace root every connector works under:
	// settings documents, snapshots, and the run journal all live below
	// it. Required; validation fails fast when it is empty.
	BaseDir string

	// Clock returns the wall clock used for sync timestamps and time
	// windows. Nil means time.Now. Tests substitute a fixed clock so
	// snapshots diff cleanly.
	Clock func() time.Time
}

// Validate checks that the configuration is usable
func (c *RunConfig) Validate() error {
	if c == nil || strings.TrimSpace(c.BaseDir) == "" {
		return errors.New(errors.ErrorTypeConfig,
			"base directory not configured; set --dir or INLET_DIR")
	}
	return nil
}

// Now returns the current time from the configured clock
func (c *RunConfig) Now() time.Time {
	if c.Clock != nil {
		return c.Clock()
	}
	return time.Now()
}

// ConnectorDir returns the directory holding one connector's files
func (c *RunConfig) ConnectorDir(name string) string {
	return filepath.Join(c.BaseDir, "connectors", name)
}

// ConnectorDoc returns the path of a connector's settings document
func (c *RunConfig) ConnectorDoc(name string) string {
	return filepath.Join(c.ConnectorDir(name), "connector.md")
}

// StatePath returns the absolute snapshot path for a connector
func (c *RunConfig) StatePath(name string) string {
	return filepath.Join(c.BaseDir, "state", name+".json")
}

// StateRel returns the snapshot path relative to the base directory, the
// form reported in artifact events. Always slash-separated.
func (c *RunConfig) StateRel(name string) string {
	return path.Join("state", name+".json")
}

// JournalDir returns the directory holding the run journal
func (c *RunConfig) JournalDir() string {
	return filepath.Join(c.BaseDir, "journal")
}

// Settings is the per-connector tunables document: string keys mapping to
// scalars or lists of scalars. Every key a connector consults has a
// documented default; a missing document simply yields every default.
type Settings map[string]interface{}

// String returns the string value for key, or def when the key is absent,
// empty, or not a scalar.
func (s Settings) String(key, def string) string {
	v, ok := s[key]
	if !ok {
		return def
	}
	out := scalarString(v)
	if out == "" {
		return def
	}
	return out
}

// Int returns the integer value for key, accepting ints, floats, and digit
// strings, or def when absent or unparseable. Zero falls back to the
// default too: in settings documents zero means unconfigured, not "cap at
// nothing".
func (s Settings) Int(key string, def int) int {
	v, ok := s[key]
	if !ok {
		return def
	}
	n := 0
	switch t := v.(type) {
	case int:
		n = t
	case int64:
		n = int(t)
	case float64:
		n = int(t)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return def
		}
		n = parsed
	default:
		return def
	}
	if n == 0 {
		return def
	}
	return n
}

// Bool returns the boolean value for key, accepting bools and the usual
// string spellings, or def when absent or unparseable.
func (s Settings) Bool(key string, def bool) bool {
	v, ok := s[key]
	if !ok {
		return def
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(t)); err == nil {
			return b
		}
	}
	return def
}

// StringList returns the list value for key. A scalar value yields a
// one-element list, so `accounts: work@example.com` and a proper YAML list
// both work. Empty entries are dropped; an absent key yields nil.
func (s Settings) StringList(key string) []string {
	v, ok := s[key]
	if !ok || v == nil {
		return nil
	}

	var out []string
	switch t := v.(type) {
	case []interface{}:
		for _, item := range t {
			if str := scalarString(item); str != "" {
				out = append(out, str)
			}
		}
	default:
		if str := scalarString(v); str != "" {
			out = []string{str}
		}
	}
	return out
}

// scalarString renders a scalar settings value as a string
func scalarString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}
