package batch

import (
	"os"
	"path/filepath"
	"strings"

	"billpress/internal/common"
)

// ScanFolder collects the supported files directly inside dir, in name order.
// Subdirectories are not recursed and unsupported extensions are skipped
// entirely; they are not failures.
func ScanFolder(dir string) ([]FileJob, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var jobs []FileJob
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		kind, ok := kindForExt(filepath.Ext(entry.Name()))
		if !ok {
			continue
		}
		jobs = append(jobs, FileJob{
			ID:         common.GenerateUUID(),
			SourcePath: filepath.Join(dir, entry.Name()),
			Kind:       kind,
		})
	}
	return jobs, nil
}

func kindForExt(ext string) (Kind, bool) {
	switch strings.ToLower(ext) {
	case ".pdf":
		return KindPDF, true
	case ".png", ".jpg", ".jpeg":
		return KindImage, true
	default:
		return 0, false
	}
}
