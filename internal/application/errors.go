package application

import "errors"

// Application error types
var (
	ErrBatchInFlight          = errors.New("a batch is already running")
	ErrNoFilesSelected        = errors.New("no supported files selected")
	ErrPreferencesUnavailable = errors.New("preferences store is unavailable")
)
