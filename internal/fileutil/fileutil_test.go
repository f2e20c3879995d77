package fileutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSizeMB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "part.flv")
	if err := os.WriteFile(path, make([]byte, 2*1024*1024), 0o644); err != nil {
		t.Fatal(err)
	}
	size, err := SizeMB(path)
	if err != nil {
		t.Fatalf("SizeMB returned error: %v", err)
	}
	if size != 2 {
		t.Fatalf("size = %v MB, want 2", size)
	}
}

func TestSizeBytesMissingFile(t *testing.T) {
	if _, err := SizeBytes(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestUniquePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.mp4")

	if got := UniquePath(path); got != path {
		t.Fatalf("free path should be returned unchanged, got %q", got)
	}

	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	got := UniquePath(path)
	if got == path {
		t.Fatal("occupied path should be disambiguated")
	}
	if filepath.Ext(got) != ".mp4" {
		t.Fatalf("disambiguated path should keep extension, got %q", got)
	}
	if !strings.HasPrefix(got, filepath.Join(dir, "out-")) {
		t.Fatalf("unexpected disambiguated path %q", got)
	}
}

func TestCompanionPath(t *testing.T) {
	got := CompanionPath("/rec/room_5/part_001.flv", ".xml")
	if got != "/rec/room_5/part_001.xml" {
		t.Fatalf("companion path = %q", got)
	}
}
