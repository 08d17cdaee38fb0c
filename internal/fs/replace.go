package fs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Permissions for data files and their directories.
const (
	FilePerm = 0o644
	DirPerm  = 0o755
)

// ReplaceFile writes data to path so that a crash mid-write never leaves a
// truncated file behind.
//
// The containing directory is created if missing. The write goes through
// [FS.WriteFileAtomic]; if the atomic rename is unavailable (cross-device
// temp dir, locked destination, ...) it falls back to writing "<path>.tmp",
// copying it over path and deleting the temp file. The fallback is not
// atomic but still never leaves path empty when the temp write fails.
func ReplaceFile(fsys FS, path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := fsys.MkdirAll(dir, DirPerm); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	atomicErr := fsys.WriteFileAtomic(path, data, FilePerm)
	if atomicErr == nil {
		return nil
	}

	if err := copyReplace(fsys, path, data); err != nil {
		return errors.Join(atomicErr, err)
	}

	return nil
}

func copyReplace(fsys FS, path string, data []byte) error {
	tmp := path + ".tmp"

	if err := fsys.WriteFile(tmp, data, FilePerm); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}

	staged, err := fsys.ReadFile(tmp)
	if err != nil {
		return fmt.Errorf("reading temp file: %w", err)
	}

	if err := fsys.WriteFile(path, staged, FilePerm); err != nil {
		return fmt.Errorf("copying temp file: %w", err)
	}

	if err := fsys.Remove(tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing temp file: %w", err)
	}

	return nil
}
