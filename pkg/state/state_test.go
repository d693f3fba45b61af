package state

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inletlabs/inlet/pkg/errors"
)

type snapshot struct {
	LastSync string   `json:"last_sync"`
	Items    []string `json:"items"`
}

func TestWriteAndReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "gcal.json")
	doc := snapshot{LastSync: "2026-03-01T09:00:00Z", Items: []string{"a", "b"}}

	require.NoError(t, Write(path, doc), "parent directories are created on demand")

	var got snapshot
	require.NoError(t, Read(path, &got))
	assert.Equal(t, doc, got)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(raw), "\n"), "snapshot ends with a newline")
	assert.Contains(t, string(raw), "\n  \"last_sync\"", "snapshot is indented for diffing")
}

func TestWriteLeavesNoTemporaryFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "linear.json")

	require.NoError(t, Write(path, snapshot{LastSync: "x"}))
	require.NoError(t, Write(path, snapshot{LastSync: "y"}), "overwrite in place")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "linear.json", entries[0].Name())
}

func TestWriteFailureKeepsPreviousSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gmail.json")
	require.NoError(t, Write(path, snapshot{LastSync: "v1"}))

	// Treating the existing snapshot as a directory makes MkdirAll fail
	// before anything touches the real file.
	err := Write(filepath.Join(path, "nested.json"), snapshot{LastSync: "v2"})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeStorage))

	var got snapshot
	require.NoError(t, Read(path, &got))
	assert.Equal(t, "v1", got.LastSync)
}

func TestWriteRenameFailureCleansUpTemp(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "github.json")
	// A directory squatting on the target path makes the final rename fail
	// after the temporary file was already written.
	require.NoError(t, os.Mkdir(target, 0o755))

	err := Write(target, snapshot{LastSync: "v1"})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeStorage))

	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	require.Len(t, entries, 1, "temporary file removed after the failed rename")
	assert.Equal(t, "github.json", entries[0].Name())
}

func TestWriteRejectsUnmarshalableDocuments(t *testing.T) {
	err := Write(filepath.Join(t.TempDir(), "bad.json"), make(chan int))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeStorage))
}

func TestReadMissingSnapshot(t *testing.T) {
	var got snapshot
	err := Read(filepath.Join(t.TempDir(), "never-synced.json"), &got)
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err), "missing snapshots keep their not-exist identity")
}

func TestReadMalformedSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	var got snapshot
	err := Read(path, &got)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeStorage))
}
