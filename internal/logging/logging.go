package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// New builds the application logger. When logDir is non-empty the log is also
// written to a size-rotated file in that directory.
func New(logDir string, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	var w io.Writer = os.Stderr
	if logDir != "" {
		w = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   filepath.Join(logDir, "billpress.log"),
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		})
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
