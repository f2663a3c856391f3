package fsys

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestOSCopy(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")
	if err := os.WriteFile(src, []byte("payload"), 0600); err != nil {
		t.Fatal(err)
	}

	var osfs OS
	if err := osfs.Copy(src, dst); err != nil {
		t.Fatalf("Copy failed: %v", err)
	}
	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "payload" {
		t.Errorf("copied content = %q", data)
	}

	if err := osfs.Copy(filepath.Join(dir, "absent.txt"), dst); err == nil {
		t.Error("copying a missing source did not fail")
	}
}

func TestNewestFile(t *testing.T) {
	base := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	t.Run("picks latest matching file", func(t *testing.T) {
		mem := NewMemFS()
		mem.WriteFileAt("docs/a.xml", []byte("a"), base.Add(-2*time.Hour))
		mem.WriteFileAt("docs/b.xml", []byte("b"), base.Add(-time.Hour))
		mem.WriteFileAt("docs/newest.txt", []byte("c"), base)

		path, mod, err := NewestFile(mem, "docs", func(name string) bool {
			return strings.HasSuffix(name, ".xml")
		})
		if err != nil {
			t.Fatalf("NewestFile failed: %v", err)
		}
		if filepath.Base(path) != "b.xml" {
			t.Errorf("path = %q, want b.xml", path)
		}
		if !mod.Equal(base.Add(-time.Hour)) {
			t.Errorf("mod = %v", mod)
		}
	})

	t.Run("nil predicate matches everything", func(t *testing.T) {
		mem := NewMemFS()
		mem.WriteFileAt("docs/only.bin", []byte("x"), base)
		path, _, err := NewestFile(mem, "docs", nil)
		if err != nil {
			t.Fatalf("NewestFile failed: %v", err)
		}
		if filepath.Base(path) != "only.bin" {
			t.Errorf("path = %q", path)
		}
	})

	t.Run("no match is not-exist", func(t *testing.T) {
		mem := NewMemFS()
		mem.WriteFileAt("docs/readme.txt", []byte("x"), base)
		_, _, err := NewestFile(mem, "docs", func(name string) bool { return false })
		if !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("got %v, want fs.ErrNotExist", err)
		}
	})

	t.Run("missing directory is not-exist", func(t *testing.T) {
		_, _, err := NewestFile(NewMemFS(), "nowhere", nil)
		if !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("got %v, want fs.ErrNotExist", err)
		}
	})
}

func TestListDirs(t *testing.T) {
	mem := NewMemFS()
	stamp := time.Now()
	mem.WriteFileAt("out/package-2026a/m.yaml", []byte("x"), stamp)
	mem.WriteFileAt("out/package-2026b/m.yaml", []byte("x"), stamp)
	mem.WriteFileAt("out/other/m.yaml", []byte("x"), stamp)
	mem.WriteFileAt("out/loose.txt", []byte("x"), stamp)

	names, err := ListDirs(mem, "out", func(name string) bool {
		return strings.HasPrefix(name, "package-")
	})
	if err != nil {
		t.Fatalf("ListDirs failed: %v", err)
	}
	if len(names) != 2 || names[0] != "package-2026b" || names[1] != "package-2026a" {
		t.Errorf("names = %v, want descending package dirs", names)
	}
}

func TestMemFS(t *testing.T) {
	t.Run("write read stat", func(t *testing.T) {
		mem := NewMemFS()
		if err := mem.WriteFile(`dir\sub\file.txt`, []byte("x"), 0600); err != nil {
			t.Fatal(err)
		}
		// Backslash paths normalize so Windows-style inputs still resolve.
		data, err := mem.ReadFile("dir/sub/file.txt")
		if err != nil {
			t.Fatalf("ReadFile failed: %v", err)
		}
		if string(data) != "x" {
			t.Errorf("data = %q", data)
		}
		info, err := mem.Stat("dir/sub/file.txt")
		if err != nil {
			t.Fatal(err)
		}
		if info.IsDir() || info.Size() != 1 {
			t.Errorf("info = %+v", info)
		}
		if dirInfo, err := mem.Stat("dir/sub"); err != nil || !dirInfo.IsDir() {
			t.Errorf("implicit parent dir missing: %v", err)
		}
	})

	t.Run("fail writes", func(t *testing.T) {
		mem := NewMemFS()
		boom := errors.New("boom")
		mem.FailWrites = boom
		if err := mem.WriteFile("a.txt", []byte("x"), 0600); !errors.Is(err, boom) {
			t.Errorf("WriteFile = %v", err)
		}
		if err := mem.MkdirAll("d", 0700); !errors.Is(err, boom) {
			t.Errorf("MkdirAll = %v", err)
		}
	})

	t.Run("copy", func(t *testing.T) {
		mem := NewMemFS()
		mem.WriteFileAt("a.txt", []byte("payload"), time.Now())
		if err := mem.Copy("a.txt", "b/c.txt"); err != nil {
			t.Fatalf("Copy failed: %v", err)
		}
		data, err := mem.ReadFile("b/c.txt")
		if err != nil || string(data) != "payload" {
			t.Errorf("copy result = %q, %v", data, err)
		}
		if err := mem.Copy("missing.txt", "x.txt"); !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("copy of missing source = %v", err)
		}
	})

	t.Run("readdir lists immediate children only", func(t *testing.T) {
		mem := NewMemFS()
		now := time.Now()
		mem.WriteFileAt("root/a.txt", []byte("x"), now)
		mem.WriteFileAt("root/sub/deep.txt", []byte("x"), now)

		entries, err := mem.ReadDir("root")
		if err != nil {
			t.Fatalf("ReadDir failed: %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("got %d entries, want a.txt and sub", len(entries))
		}
		if entries[0].Name() != "a.txt" || entries[0].IsDir() {
			t.Errorf("entry 0 = %s", entries[0].Name())
		}
		if entries[1].Name() != "sub" || !entries[1].IsDir() {
			t.Errorf("entry 1 = %s", entries[1].Name())
		}
	})
}
