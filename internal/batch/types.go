package batch

// Kind identifies how a scanned file is dispatched.
type Kind int

const (
	KindPDF Kind = iota
	KindImage
)

// FileJob is one unit of work produced by the folder scan.
type FileJob struct {
	ID         string
	SourcePath string
	Kind       Kind
}

// FileResult records the outcome for a single job. FinalSizeKB reflects the
// file that actually exists on disk after processing (0 if none was written);
// Succeeded is true iff that file fits the budget, not merely that no error
// occurred.
type FileResult struct {
	Filename       string `json:"filename"`
	Succeeded      bool   `json:"succeeded"`
	OriginalSizeKB int64  `json:"original_size_kb"`
	FinalSizeKB    int64  `json:"final_size_kb"`
	Status         string `json:"status"`
}

// Report accumulates the results of a run in input order.
type Report struct {
	Total         int          `json:"total"`
	SuccessCount  int          `json:"success_count"`
	FailedCount   int          `json:"failed_count"`
	Details       []FileResult `json:"details"`
	ArchiveSizeKB int64        `json:"archive_size_kb"`
	OutputDir     string       `json:"output_dir"`
	ArchivePath   string       `json:"archive_path"`
}

// ProgressFunc is invoked once per job, before processing starts.
type ProgressFunc func(current, total int, filename string)

// FileCompressor turns one source file into one output file under a byte
// budget. The bool reports whether the output fits.
type FileCompressor interface {
	Compress(inputPath, outputPath string, targetBytes int64) (bool, error)
}
