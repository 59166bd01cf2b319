package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestReader_ReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spec.md")
	if err := os.WriteFile(path, []byte("# req~a~1\n"), 0600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	data, err := NewReader().ReadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "# req~a~1\n" {
		t.Errorf("contents = %q", data)
	}
}

func TestReader_ReadFileMissing(t *testing.T) {
	_, err := NewReader().ReadFile(context.Background(), filepath.Join(t.TempDir(), "absent.md"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "report.html")

	if err := WriteReport(path, []byte("<html></html>")); err != nil {
		t.Fatalf("WriteReport failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("report mode = %v, want 0600", info.Mode().Perm())
	}

	dirInfo, err := os.Stat(filepath.Join(dir, "out"))
	if err != nil {
		t.Fatalf("stat dir failed: %v", err)
	}
	if dirInfo.Mode().Perm() != 0700 {
		t.Errorf("dir mode = %v, want 0700", dirInfo.Mode().Perm())
	}
}

func TestWriteReport_EmptyPath(t *testing.T) {
	if err := WriteReport("", nil); err == nil {
		t.Fatal("expected error for empty path")
	}
}
