// Package fsutil holds the file writing shared by the output store, the
// generated sources and build traces.
package fsutil

import (
	"io"
	"os"
	"path/filepath"
)

// WriteFileAtomic writes content to a temp file next to path and renames it
// into place, creating parent directories as needed. Readers see either the
// previous file or the complete new one; a failed write leaves nothing new
// behind.
func WriteFileAtomic(path string, content io.Reader, perm os.FileMode) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, base+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := io.Copy(tmp, content); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	_ = tmp.Sync() // best-effort durability
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return nil
}
