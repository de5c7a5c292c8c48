package transport

// Transport layer types for the Wails API

// FolderSelection summarizes a scanned input folder for the frontend.
type FolderSelection struct {
	Folder      string `json:"folder"`
	FileCount   int    `json:"file_count"`
	TotalSizeKB int64  `json:"total_size_kb"`
}

// ProgressUpdate is emitted before each job starts.
type ProgressUpdate struct {
	Current  int     `json:"current"`
	Total    int     `json:"total"`
	Filename string  `json:"filename"`
	Percent  float64 `json:"percent"`
}

// Event names
const (
	EventBatchProgress = "batch:progress"
	EventBatchDone     = "batch:done"
	EventBatchError    = "batch:error"
	EventStatsUpdate   = "stats:update"
)

// DialogHandler abstracts the system dialogs used by the app.
type DialogHandler interface {
	OpenDirectoryDialog() (string, error)
	OpenPath(path string) error
}
