// Package events implements the lifecycle event stream for connector runs.
//
// A run narrates itself as newline-delimited JSON on its stdout: progress
// while phases advance, at most one error describing a fatal condition, an
// artifact naming the written snapshot, and exactly one result when the run
// reaches a decision point. The consumer is an external orchestrator reading
// events as they are produced, so the stream emitter flushes every line.
//
// Emission goes through the Emitter interface. Parsing and normalization
// code never touches the output channel directly; it receives a sink, which
// keeps that logic side-effect-free and lets tests capture the stream with a
// Recorder.
package events

import (
	"fmt"
	"io"
	"sync"

	"github.com/inletlabs/inlet/pkg/json"
)

// Type identifies the kind of a lifecycle event
type Type string

const (
	// TypeProgress reports fractional completion of a run
	TypeProgress Type = "progress"
	// TypeError reports a fatal condition; no result follows it
	TypeError Type = "error"
	// TypeArtifact reports a file the run produced
	TypeArtifact Type = "artifact"
	// TypeResult is the terminal summary of a completed run
	TypeResult Type = "result"
)

// Event is one structured lifecycle event. Field usage depends on Type:
// progress uses Message/Pct, error uses Message/Details, artifact uses
// Path/Description, result uses OK/Data. OK is a pointer so a false value
// survives encoding.
type Event struct {
	Type        Type                   `json:"type"`
	Message     string                 `json:"message,omitempty"`
	Pct         float64                `json:"pct,omitempty"`
	Details     map[string]interface{} `json:"details,omitempty"`
	OK          *bool                  `json:"ok,omitempty"`
	Data        map[string]interface{} `json:"data,omitempty"`
	Path        string                 `json:"path,omitempty"`
	Description string                 `json:"description,omitempty"`
}

// Progress builds a progress event. Pct is a fraction in [0, 1] and should
// not decrease over the life of a run.
func Progress(message string, pct float64) Event {
	return Event{Type: TypeProgress, Message: message, Pct: pct}
}

// Error builds an error event with optional structured detail
func Error(message string, details map[string]interface{}) Event {
	return Event{Type: TypeError, Message: message, Details: details}
}

// Artifact builds an artifact event for a produced file
func Artifact(path, description string) Event {
	return Event{Type: TypeArtifact, Path: path, Description: description}
}

// Result builds the terminal result event
func Result(ok bool, data map[string]interface{}) Event {
	return Event{Type: TypeResult, OK: &ok, Data: data}
}

// Emitter publishes one event to the run's output channel
type Emitter interface {
	Emit(Event)
}

type flusher interface {
	Flush() error
}

// Stream emits events as newline-delimited JSON on a writer, one object per
// line, flushing after every event. Safe for concurrent use.
type Stream struct {
	mu sync.Mutex
	w  io.Writer
}

// NewStream returns a Stream writing to w
func NewStream(w io.Writer) *Stream {
	return &Stream{w: w}
}

// Emit writes the event as one JSON line. An event that cannot be encoded
// degrades to a plain error line rather than corrupting the stream.
func (s *Stream) Emit(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := json.EncodeLine(s.w, ev); err != nil {
		msg, _ := json.Marshal(fmt.Sprintf("event encoding failed: %v", err))
		fmt.Fprintf(s.w, `{"type":"error","message":%s}`+"\n", msg)
	}
	if f, ok := s.w.(flusher); ok {
		_ = f.Flush()
	}
}

// Recorder is an Emitter for tests: it captures events in emission order.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder returns an empty Recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Emit appends the event to the recording
func (r *Recorder) Emit(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of everything emitted so far
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns the emitted event types in order
func (r *Recorder) Types() []Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Type, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

// OfType returns the emitted events of one type, in order
func (r *Recorder) OfType(t Type) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, ev := range r.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

// Last returns the most recent event, or a zero Event when none exist
func (r *Recorder) Last() Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return Event{}
	}
	return r.events[len(r.events)-1]
}
