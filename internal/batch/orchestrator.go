package batch

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"billpress/internal/archive"
	"billpress/internal/common"
)

const statusErrorLimit = 30

// Orchestrator runs jobs sequentially, dispatching each to the image or
// document compressor, and zips the completed output directory.
type Orchestrator struct {
	images      FileCompressor
	documents   FileCompressor
	targetBytes int64
	logger      *slog.Logger
}

// NewOrchestrator creates a new orchestrator instance.
func NewOrchestrator(images, documents FileCompressor, targetBytes int64, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		images:      images,
		documents:   documents,
		targetBytes: targetBytes,
		logger:      logger,
	}
}

// Run compresses every job into outputDir, archives the results and returns
// the report. Per-job failures become failed report entries; only creating
// the output directory or writing the archive abort the run.
func (o *Orchestrator) Run(jobs []FileJob, outputDir string, progress ProgressFunc) (*Report, error) {
	if err := os.MkdirAll(outputDir, common.DefaultFilePermissions); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	report := &Report{
		Total:     len(jobs),
		OutputDir: outputDir,
	}

	for i, job := range jobs {
		filename := filepath.Base(job.SourcePath)
		if progress != nil {
			progress(i+1, len(jobs), filename)
		}

		result := o.processJob(job, outputDir)
		if result.Succeeded {
			report.SuccessCount++
		} else {
			report.FailedCount++
		}
		report.Details = append(report.Details, result)
	}

	archivePath := outputDir + ".zip"
	if err := archive.ZipDirectory(outputDir, archivePath); err != nil {
		return nil, fmt.Errorf("write archive: %w", err)
	}
	report.ArchivePath = archivePath
	if info, err := os.Stat(archivePath); err == nil {
		report.ArchiveSizeKB = info.Size() / 1024
	}

	return report, nil
}

// processJob never lets an error escape: failures of any kind are converted
// into a failed FileResult so the batch keeps going.
func (o *Orchestrator) processJob(job FileJob, outputDir string) FileResult {
	filename := filepath.Base(job.SourcePath)
	result := FileResult{Filename: filename}

	if info, err := os.Stat(job.SourcePath); err == nil {
		result.OriginalSizeKB = info.Size() / 1024
	}

	outputPath := filepath.Join(outputDir, outputName(filename, job.Kind))

	var (
		fits bool
		err  error
	)
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		switch job.Kind {
		case KindImage:
			fits, err = o.images.Compress(job.SourcePath, outputPath, o.targetBytes)
		default:
			fits, err = o.documents.Compress(job.SourcePath, outputPath, o.targetBytes)
		}
	}()

	if info, statErr := os.Stat(outputPath); statErr == nil {
		result.FinalSizeKB = info.Size() / 1024
	}

	if err != nil {
		o.logger.Error("job failed", "file", filename, "error", err)
		result.Status = "error: " + truncate(err.Error(), statusErrorLimit)
		return result
	}

	result.Succeeded = fits
	if fits {
		result.Status = fmt.Sprintf("OK (%d KB)", result.FinalSizeKB)
	} else {
		result.Status = fmt.Sprintf("over budget (%d KB)", result.FinalSizeKB)
	}
	return result
}

// outputName maps images to .jpg (they are always re-encoded as JPEG) and
// keeps the PDF name unchanged.
func outputName(filename string, kind Kind) string {
	if kind == KindImage {
		return strings.TrimSuffix(filename, filepath.Ext(filename)) + ".jpg"
	}
	return filename
}

// truncate limits s to limit characters without splitting a rune.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
