// Package journal keeps an append-only audit trail of connector runs as
// newline-delimited JSON, one file per month. The journal is advisory: it
// feeds the status command's "recent activity" view and nothing else, so a
// journal write failure never fails a run.
package journal

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/inletlabs/inlet/pkg/errors"
	"github.com/inletlabs/inlet/pkg/json"
)

// Run statuses recorded in entries.
const (
	StatusStarted   = "started"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Entry is one journal line.
type Entry struct {
	TS        string                 `json:"ts"`
	Connector string                 `json:"connector"`
	RunID     string                 `json:"run_id"`
	Op        string                 `json:"op"`
	Status    string                 `json:"status"`
	Summary   string                 `json:"summary,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// Writer appends entries under Dir. Now is the clock used for the monthly
// file name and for defaulted timestamps; nil means time.Now.
type Writer struct {
	Dir string
	Now func() time.Time
}

// Append writes one entry to the current month's file, creating the
// directory and file on first use. An empty TS is filled with the current
// time in RFC3339Nano UTC.
func (w Writer) Append(e Entry) error {
	now := time.Now()
	if w.Now != nil {
		now = w.Now()
	}
	if e.TS == "" {
		e.TS = now.UTC().Format(time.RFC3339Nano)
	}
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return errors.Wrapf(err, errors.ErrorTypeStorage, "failed to create journal directory %s", w.Dir)
	}

	path := filepath.Join(w.Dir, now.UTC().Format("2006-01")+".jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, errors.ErrorTypeStorage, "failed to open journal %s", path)
	}
	defer f.Close()

	if err := json.EncodeLine(f, e); err != nil {
		return errors.Wrapf(err, errors.ErrorTypeStorage, "failed to append journal entry to %s", path)
	}
	return nil
}

// Tail returns the last n entries of the newest journal file, oldest first.
// Malformed lines are skipped; a missing directory or an empty journal
// yields no entries and no error. n <= 0 returns the whole file.
func Tail(dir string, n int) ([]Entry, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, errors.ErrorTypeStorage, "failed to list journal directory %s", dir)
	}
	var names []string
	for _, f := range files {
		if !f.IsDir() && strings.HasSuffix(f.Name(), ".jsonl") {
			names = append(names, f.Name())
		}
	}
	if len(names) == 0 {
		return nil, nil
	}
	// Monthly names sort chronologically.
	sort.Strings(names)
	path := filepath.Join(dir, names[len(names)-1])
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrorTypeStorage, "failed to read journal %s", path)
	}

	var out []Entry
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	if n > 0 && len(out) > n {
		out = out[len(out)-n:]
	}
	return out, nil
}
