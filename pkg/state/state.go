// Package state persists connector snapshots.
//
// A snapshot is replaced wholesale each run. Readers may poll the file at
// any moment, so the writer never exposes a partial document: content goes
// to a temporary file in the destination directory first and is renamed
// over the target only once fully written and synced. A rename within one
// directory is atomic on POSIX filesystems, so a crash mid-run leaves the
// previous snapshot untouched.
package state

import (
	"os"
	"path/filepath"

	"github.com/inletlabs/inlet/pkg/errors"
	"github.com/inletlabs/inlet/pkg/json"
)

// Write marshals doc with two-space indentation and a trailing newline and
// atomically replaces the file at path, creating parent directories as
// needed. On any failure the previous snapshot stays intact and the
// temporary file is removed.
func Write(path string, doc interface{}) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrapf(err, errors.ErrorTypeStorage, "failed to marshal snapshot for %s", path)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, errors.ErrorTypeStorage, "failed to create state directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return errors.Wrapf(err, errors.ErrorTypeStorage, "failed to create temporary snapshot in %s", dir)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return errors.Wrapf(err, errors.ErrorTypeStorage, "failed to write snapshot %s", path)
	}
	if err := tmp.Sync(); err != nil {
		return errors.Wrapf(err, errors.ErrorTypeStorage, "failed to sync snapshot %s", path)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, errors.ErrorTypeStorage, "failed to close snapshot %s", path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errors.Wrapf(err, errors.ErrorTypeStorage, "failed to replace snapshot %s", path)
	}
	committed = true
	return nil
}

// Read unmarshals the snapshot at path into out. A missing file surfaces
// the original not-exist error so callers can render "never synced"; other
// failures wrap as storage errors.
func Read(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return err
		}
		return errors.Wrapf(err, errors.ErrorTypeStorage, "failed to read snapshot %s", path)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, errors.ErrorTypeStorage, "failed to decode snapshot %s", path)
	}
	return nil
}
