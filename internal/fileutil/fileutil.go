package fileutil

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteAtomic writes data to a temporary file next to path and renames it
// into place, so readers never observe a partially written file.
func WriteAtomic(path string, data []byte, mode os.FileMode) error {
	return WriteAtomicFrom(path, bytes.NewReader(data), mode)
}

// WriteAtomicFrom streams r into path via a sibling temporary file.
func WriteAtomicFrom(path string, r io.Reader, mode os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		cleanup()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

// ReadAndRemove reads the whole file and removes it. Removal is attempted even
// when the read fails; a read error takes precedence in the result.
func ReadAndRemove(path string) ([]byte, error) {
	data, readErr := os.ReadFile(path)
	removeErr := os.Remove(path)
	if readErr != nil {
		if removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
			return nil, errors.Join(readErr, removeErr)
		}
		return nil, readErr
	}
	if removeErr != nil {
		return data, fmt.Errorf("remove %s: %w", path, removeErr)
	}
	return data, nil
}

// Exists reports whether path can be stat'ed.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
