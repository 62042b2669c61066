// Package atomicfile replaces files without leaving partially written contents behind.
package atomicfile

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
)

const defaultPerm fs.FileMode = 0o644

// WriteFile replaces path with data.
//
// The data is staged in a hidden sibling file, synced, and renamed over path,
// so a reader sees either the old contents or the new ones. When perm is 0 the
// mode of the file being replaced is kept (0644 for new files). A symlinked
// path is written through: the link stays and its target is replaced.
func WriteFile(path string, data []byte, perm fs.FileMode) error {
	path = resolveLink(path)
	if perm == 0 {
		perm = existingPerm(path)
	}

	staged, err := stage(path, data, perm)
	if err != nil {
		return err
	}
	if err := replace(staged, path); err != nil {
		_ = os.Remove(staged)
		return err
	}
	return nil
}

// resolveLink returns the file path points at, or path itself when it does
// not exist yet.
func resolveLink(path string) string {
	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		return path
	}
	return target
}

func existingPerm(path string) fs.FileMode {
	st, err := os.Stat(path)
	if err != nil {
		return defaultPerm
	}
	return st.Mode().Perm()
}

// stage writes data to a temp file next to path and returns its name.
func stage(path string, data []byte, perm fs.FileMode) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	name := tmp.Name()

	fail := func(step string, err error) (string, error) {
		_ = tmp.Close()
		_ = os.Remove(name)
		return "", fmt.Errorf("%s temp file: %w", step, err)
	}

	// Some filesystems reject chmod; the default mode from CreateTemp is acceptable there.
	_ = tmp.Chmod(perm)

	if _, err := tmp.Write(data); err != nil {
		return fail("write", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("sync", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return name, nil
}

func replace(staged, path string) error {
	err := os.Rename(staged, path)
	if err == nil {
		return nil
	}
	if runtime.GOOS != "windows" {
		return fmt.Errorf("rename temp file: %w", err)
	}
	// Windows refuses to rename over an existing file.
	_ = os.Remove(path)
	if err2 := os.Rename(staged, path); err2 != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
