// Package fsys is the narrow file-system collaborator the compiler and
// evidence validator write through. Keeping the surface small lets tests
// substitute an in-memory implementation; failures are always surfaced to
// the caller, never swallowed.
package fsys

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// FS is the file-system surface the core depends on.
type FS interface {
	WriteFile(path string, data []byte, perm fs.FileMode) error
	ReadFile(path string) ([]byte, error)
	Stat(path string) (fs.FileInfo, error)
	ReadDir(path string) ([]fs.DirEntry, error)
	MkdirAll(path string, perm fs.FileMode) error
	Copy(src, dst string) error
}

// OS is the production implementation backed by the os package.
type OS struct{}

func (OS) WriteFile(path string, data []byte, perm fs.FileMode) error {
	return os.WriteFile(path, data, perm)
}

func (OS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (OS) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

func (OS) ReadDir(path string) ([]fs.DirEntry, error) {
	return os.ReadDir(path)
}

func (OS) MkdirAll(path string, perm fs.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (OS) Copy(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// NewestFile returns the path and modification time of the most recently
// modified regular file in dir whose name matches the predicate. A nil
// predicate matches everything. Returns fs.ErrNotExist when no file
// matches.
func NewestFile(fsys FS, dir string, match func(name string) bool) (string, time.Time, error) {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return "", time.Time{}, err
	}

	var newest string
	var newestMod time.Time
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if match != nil && !match(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return "", time.Time{}, err
		}
		if newest == "" || info.ModTime().After(newestMod) {
			newest = filepath.Join(dir, entry.Name())
			newestMod = info.ModTime()
		}
	}
	if newest == "" {
		return "", time.Time{}, fs.ErrNotExist
	}
	return newest, newestMod, nil
}

// ListDirs returns the names of subdirectories of dir whose names match
// the predicate, sorted descending so lexicographically newest-first
// stamps come first.
func ListDirs(fsys FS, dir string, match func(name string) bool) ([]string, error) {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if match != nil && !match(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}
