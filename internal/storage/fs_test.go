package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func testFS(t *testing.T) *FS {
	t.Helper()
	f, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return f
}

func TestWriteAndRead(t *testing.T) {
	f := testFS(t)

	if err := f.Write("site/alpha/index.html", []byte("<html>")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	data, err := f.Read("site/alpha/index.html")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != "<html>" {
		t.Errorf("content = %q", data)
	}
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	f := testFS(t)
	if err := f.Write("a.txt", []byte("x")); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(f.Root())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "a.txt" {
		t.Fatalf("unexpected entries: %v", entries)
	}
}

func TestPathTraversalRejected(t *testing.T) {
	f := testFS(t)

	if err := f.Write("../escape.txt", []byte("x")); err == nil {
		t.Error("expected error for traversal write")
	}
	if _, err := f.Read("../../etc/passwd"); err == nil {
		t.Error("expected error for traversal read")
	}
	if err := f.Write("/abs.txt", []byte("x")); err == nil {
		t.Error("expected error for absolute path")
	}
}

func TestClean(t *testing.T) {
	f := testFS(t)
	_ = f.Write("a.txt", []byte("1"))
	_ = f.Write("sub/b.txt", []byte("2"))

	if err := f.Clean(); err != nil {
		t.Fatalf("Clean: %v", err)
	}
	entries, err := os.ReadDir(f.Root())
	if err != nil {
		t.Fatalf("root removed by Clean: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("entries after clean = %d, want 0", len(entries))
	}
}

func TestCopyDir(t *testing.T) {
	f := testFS(t)

	src := t.TempDir()
	if err := os.MkdirAll(filepath.Join(src, "css"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "css", "site.css"), []byte("body{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "robots.txt"), []byte("User-agent: *"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := f.CopyDir(src, "."); err != nil {
		t.Fatalf("CopyDir: %v", err)
	}
	data, err := f.Read("css/site.css")
	if err != nil {
		t.Fatalf("copied file missing: %v", err)
	}
	if string(data) != "body{}" {
		t.Errorf("content = %q", data)
	}
	if _, err := f.Read("robots.txt"); err != nil {
		t.Errorf("robots.txt missing: %v", err)
	}
}

func TestCopyDirMissingSourceIsNoop(t *testing.T) {
	f := testFS(t)
	if err := f.CopyDir(filepath.Join(t.TempDir(), "nope"), "."); err != nil {
		t.Fatalf("missing source should not error: %v", err)
	}
}
