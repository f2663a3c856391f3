package fsys

import (
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemFS is an in-memory FS for tests. Paths are slash-normalized;
// directories exist implicitly once a file or MkdirAll creates them.
type MemFS struct {
	mu    sync.Mutex
	files map[string]*memFile
	dirs  map[string]bool
	// FailWrites, when set, makes every write-path operation return the
	// given error. Tests use it to exercise external-service failures.
	FailWrites error
	// Clock overrides modification times when non-nil.
	Clock func() time.Time
}

type memFile struct {
	data []byte
	mod  time.Time
	perm fs.FileMode
}

// NewMemFS creates an empty in-memory file system.
func NewMemFS() *MemFS {
	return &MemFS{
		files: make(map[string]*memFile),
		dirs:  make(map[string]bool),
	}
}

func (m *MemFS) now() time.Time {
	if m.Clock != nil {
		return m.Clock()
	}
	return time.Now()
}

func norm(p string) string {
	return path.Clean(strings.ReplaceAll(p, "\\", "/"))
}

// WriteFileAt stores a file with an explicit modification time. Tests use
// it to fabricate stale artifacts.
func (m *MemFS) WriteFileAt(p string, data []byte, mod time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p = norm(p)
	m.files[p] = &memFile{data: append([]byte(nil), data...), mod: mod, perm: 0600}
	m.addParents(p)
}

func (m *MemFS) addParents(p string) {
	for dir := path.Dir(p); dir != "." && dir != "/"; dir = path.Dir(dir) {
		m.dirs[dir] = true
	}
}

func (m *MemFS) WriteFile(p string, data []byte, perm fs.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	p = norm(p)
	m.files[p] = &memFile{data: append([]byte(nil), data...), mod: m.now(), perm: perm}
	m.addParents(p)
	return nil
}

func (m *MemFS) ReadFile(p string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[norm(p)]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: p, Err: fs.ErrNotExist}
	}
	return append([]byte(nil), f.data...), nil
}

func (m *MemFS) Stat(p string) (fs.FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p = norm(p)
	if f, ok := m.files[p]; ok {
		return memInfo{name: path.Base(p), size: int64(len(f.data)), mod: f.mod, perm: f.perm}, nil
	}
	if m.dirs[p] {
		return memInfo{name: path.Base(p), dir: true, mod: m.now()}, nil
	}
	return nil, &fs.PathError{Op: "stat", Path: p, Err: fs.ErrNotExist}
}

func (m *MemFS) ReadDir(p string) ([]fs.DirEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p = norm(p)
	if !m.dirs[p] {
		return nil, &fs.PathError{Op: "readdir", Path: p, Err: fs.ErrNotExist}
	}

	seen := make(map[string]fs.DirEntry)
	for fp, f := range m.files {
		if path.Dir(fp) == p {
			seen[path.Base(fp)] = memEntry{info: memInfo{name: path.Base(fp), size: int64(len(f.data)), mod: f.mod, perm: f.perm}}
		}
	}
	for dp := range m.dirs {
		if path.Dir(dp) == p {
			seen[path.Base(dp)] = memEntry{info: memInfo{name: path.Base(dp), dir: true}}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]fs.DirEntry, 0, len(names))
	for _, name := range names {
		entries = append(entries, seen[name])
	}
	return entries, nil
}

func (m *MemFS) MkdirAll(p string, _ fs.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	p = norm(p)
	m.dirs[p] = true
	m.addParents(p + "/x")
	return nil
}

func (m *MemFS) Copy(src, dst string) error {
	data, err := m.ReadFile(src)
	if err != nil {
		return err
	}
	return m.WriteFile(dst, data, 0600)
}

type memInfo struct {
	name string
	size int64
	mod  time.Time
	perm fs.FileMode
	dir  bool
}

func (i memInfo) Name() string { return i.name }
func (i memInfo) Size() int64  { return i.size }
func (i memInfo) Mode() fs.FileMode {
	if i.dir {
		return fs.ModeDir | 0700
	}
	return i.perm
}
func (i memInfo) ModTime() time.Time { return i.mod }
func (i memInfo) IsDir() bool        { return i.dir }
func (i memInfo) Sys() any           { return nil }

type memEntry struct {
	info memInfo
}

func (e memEntry) Name() string               { return e.info.name }
func (e memEntry) IsDir() bool                { return e.info.dir }
func (e memEntry) Type() fs.FileMode          { return e.info.Mode().Type() }
func (e memEntry) Info() (fs.FileInfo, error) { return e.info, nil }
