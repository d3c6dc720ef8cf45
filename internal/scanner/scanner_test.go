package scanner

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestScan_FindsArchives(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "upper.xfp"))
	touch(t, filepath.Join(dir, "nested", "deeper", "lower.xfp"))
	touch(t, filepath.Join(dir, "readme.txt"))
	touch(t, filepath.Join(dir, "notes.xfp.bak"))

	got := New([]string{dir}, quietLogger()).Scan()
	if len(got) != 2 {
		t.Fatalf("Scan found %d archives, want 2: %v", len(got), got)
	}
	for _, p := range got {
		if !filepath.IsAbs(p) {
			t.Errorf("Scan returned non-absolute path %q", p)
		}
		if filepath.Ext(p) != ArchiveSuffix {
			t.Errorf("Scan returned non-archive %q", p)
		}
	}
}

func TestScan_MissingDirectoryTolerated(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "one.xfp"))

	roots := []string{filepath.Join(dir, "does-not-exist"), dir}
	got := New(roots, quietLogger()).Scan()
	if len(got) != 1 {
		t.Fatalf("Scan found %d archives, want 1: %v", len(got), got)
	}
}

func TestScan_EmptyDirectory(t *testing.T) {
	got := New([]string{t.TempDir()}, quietLogger()).Scan()
	if len(got) != 0 {
		t.Errorf("Scan of empty directory found %d archives, want 0", len(got))
	}
}

func TestScan_NoRoots(t *testing.T) {
	got := New(nil, quietLogger()).Scan()
	if len(got) != 0 {
		t.Errorf("Scan with no roots found %d archives, want 0", len(got))
	}
}

func TestScan_DeduplicatesRepeatedRoots(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "one.xfp"))

	got := New([]string{dir, dir}, quietLogger()).Scan()
	if len(got) != 1 {
		t.Fatalf("Scan with repeated root found %d archives, want 1: %v", len(got), got)
	}
}

func TestScan_DeduplicatesSymlinkedArchive(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "real.xfp")
	touch(t, target)
	link := filepath.Join(dir, "alias.xfp")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	got := New([]string{dir}, quietLogger()).Scan()
	if len(got) != 1 {
		t.Fatalf("Scan found %d archives, want 1 after symlink dedup: %v", len(got), got)
	}
}
