package common

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGenerateUUID(t *testing.T) {
	uuid1 := GenerateUUID()
	uuid2 := GenerateUUID()

	if uuid1 == "" || uuid2 == "" {
		t.Error("Expected non-empty UUIDs")
	}
	if uuid1 == uuid2 {
		t.Error("Expected unique UUIDs")
	}
	if len(uuid1) != 36 {
		t.Errorf("Expected 36-character UUID, got %d", len(uuid1))
	}
}

func TestCopyFile(t *testing.T) {
	tempDir := t.TempDir()

	srcPath := filepath.Join(tempDir, "source.pdf")
	content := []byte("original document bytes")
	if err := os.WriteFile(srcPath, content, 0644); err != nil {
		t.Fatalf("Failed to write source file: %v", err)
	}

	// Destination directory does not exist yet; CopyFile must create it.
	dstPath := filepath.Join(tempDir, "out", "copy.pdf")
	if err := CopyFile(srcPath, dstPath); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	got, err := os.ReadFile(dstPath)
	if err != nil {
		t.Fatalf("Expected copied file to exist: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("Expected copy to match source, got %q", got)
	}
}

func TestCopyFileMissingSource(t *testing.T) {
	tempDir := t.TempDir()
	err := CopyFile(filepath.Join(tempDir, "missing.pdf"), filepath.Join(tempDir, "copy.pdf"))
	if err == nil {
		t.Error("Expected an error for a missing source file")
	}
}
