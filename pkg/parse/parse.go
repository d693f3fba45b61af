// Package parse turns untrusted CLI output into structured values.
//
// External tools are not contractually stable: the same binary may print a
// JSON array, a JSON object buried in log noise, a tab-separated table, or
// freeform text depending on its version and flags. Callers describe the
// formats they accept as an ordered chain of strategies; the first strategy
// that recognizes the text wins. Structured formats belong at the front of
// the chain, text heuristics at the back, so the cheapest trustworthy
// interpretation is always preferred.
//
// Strategies are pure functions from text to value. Nothing in this package
// runs commands, reads files, or emits events, which keeps every format
// decision reproducible from a captured transcript.
package parse

import (
	"strings"

	"github.com/inletlabs/inlet/pkg/models"
)

// Func is one parsing strategy. The boolean reports whether the text
// matched the strategy's format; a match with an empty result (for example
// a table whose header is present but has no rows) is distinct from a miss.
type Func func(text string) (interface{}, bool)

// Named pairs a strategy with the identifier recorded in Outcome.Parser.
type Named struct {
	Name string
	Fn   Func
}

// Outcome reports which strategy of a chain matched and what it produced.
type Outcome struct {
	Parser string
	Value  interface{}
}

// Matched reports whether any strategy in the chain accepted the text.
func (o Outcome) Matched() bool {
	return o.Parser != ""
}

// Chain tries each strategy in order and returns the first match. An
// unmatched outcome has an empty Parser and a nil Value.
func Chain(text string, strategies ...Named) Outcome {
	for _, s := range strategies {
		if v, ok := s.Fn(text); ok {
			return Outcome{Parser: s.Name, Value: v}
		}
	}
	return Outcome{}
}

// HeadLimit bounds how much raw output a debug payload retains per stream.
const HeadLimit = 2000

// Head returns at most HeadLimit characters of s, truncating on a rune
// boundary so the result stays valid UTF-8.
func Head(s string) string {
	if len(s) <= HeadLimit {
		return s
	}
	n := 0
	for i := range s {
		if n == HeadLimit {
			return s[:i]
		}
		n++
	}
	return s
}

// Debug builds the snapshot payload recorded when an entire chain misses:
// trimmed, capped heads of both output streams. Recording it in the
// snapshot instead of failing the run is what lets a connector degrade to
// "partial data with a debug flag" when a tool changes its output format.
func Debug(stdout, stderr string) models.ParseDebug {
	return models.ParseDebug{
		ParseError: true,
		StdoutHead: Head(strings.TrimSpace(stdout)),
		StderrHead: Head(strings.TrimSpace(stderr)),
	}
}
