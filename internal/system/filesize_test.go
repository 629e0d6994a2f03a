package system

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSized(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFileTreeSize(t *testing.T) {
	root := t.TempDir()
	writeSized(t, filepath.Join(root, "a"), 100)
	writeSized(t, filepath.Join(root, "b"), 200)
	sub := filepath.Join(root, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writeSized(t, filepath.Join(sub, "c"), 50)

	got, err := FileTreeSize(root)
	if err != nil {
		t.Fatalf("FileTreeSize: %v", err)
	}
	if got != 350 {
		t.Fatalf("size = %d, want 350", got)
	}
}

func TestFileTreeSizeDoesNotFollowSymlinks(t *testing.T) {
	root := t.TempDir()
	writeSized(t, filepath.Join(root, "a"), 100)
	sub := filepath.Join(root, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(root, filepath.Join(sub, "loop")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	if err := os.Symlink(filepath.Join(root, "a"), filepath.Join(root, "a-link")); err != nil {
		t.Fatal(err)
	}

	got, err := FileTreeSize(root)
	if err != nil {
		t.Fatalf("FileTreeSize: %v", err)
	}
	if got != 100 {
		t.Fatalf("size = %d, want 100", got)
	}
}

func TestFileTreeSizeSingleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f")
	writeSized(t, path, 42)

	got, err := FileTreeSize(path)
	if err != nil {
		t.Fatalf("FileTreeSize: %v", err)
	}
	if got != 42 {
		t.Fatalf("size = %d, want 42", got)
	}
}

func TestFileTreeSizeMissing(t *testing.T) {
	got, err := FileTreeSize(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Fatal("expected error for missing path")
	}
	if got != 0 {
		t.Fatalf("size = %d, want 0", got)
	}
}

func TestFileTreeSizeSkipsUnreadable(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}
	root := t.TempDir()
	writeSized(t, filepath.Join(root, "a"), 100)
	locked := filepath.Join(root, "locked")
	if err := os.Mkdir(locked, 0o755); err != nil {
		t.Fatal(err)
	}
	writeSized(t, filepath.Join(locked, "hidden"), 500)
	if err := os.Chmod(locked, 0); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	got, err := FileTreeSize(root)
	if err == nil {
		t.Fatal("expected an error naming the skipped directory")
	}
	if got != 100 {
		t.Fatalf("size = %d, want 100", got)
	}
}
