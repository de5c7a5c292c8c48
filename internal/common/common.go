package common

import (
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const (
	// DefaultTargetKB is the per-file output size budget.
	DefaultTargetKB = 200

	// File operation constants
	DefaultFilePermissions = 0755
)

// GenerateUUID generates a new UUID string
func GenerateUUID() string {
	return uuid.New().String()
}

// CopyFile copies src to dst, creating the destination directory if needed.
func CopyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destDir := filepath.Dir(dst)
	if err := os.MkdirAll(destDir, DefaultFilePermissions); err != nil {
		return err
	}

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	_, err = io.Copy(destFile, sourceFile)
	return err
}
