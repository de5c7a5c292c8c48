package application

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"billpress/internal/batch"
	"billpress/internal/compression"
	"billpress/internal/config"
	"billpress/internal/database"
	"billpress/internal/logging"
	"billpress/internal/models"
	"billpress/internal/services"
	"billpress/internal/transport"
)

// App is the object bound to the Wails frontend. It owns the GUI-side state
// (selected folder, in-flight guard); the compression core underneath is
// pure request/response.
type App struct {
	ctx    context.Context
	config *config.Config
	logger *slog.Logger

	prefsService *services.PreferencesService
	dialogs      transport.DialogHandler
	stats        *StatsManager

	mu         sync.Mutex
	processing bool
	folder     string
	jobs       []batch.FileJob
}

func NewApp() *App {
	return &App{}
}

func (a *App) OnStartup(ctx context.Context) {
	a.ctx = ctx

	cfg := config.New()
	a.config = cfg
	a.logger = logging.New(cfg.LogDir, false)

	// Dialogs and stats first: the bound methods must stay usable even when
	// the database cannot be opened.
	a.dialogs = transport.NewDialogsHandler(ctx)
	a.stats = NewStatsManager(ctx)

	db, err := database.Initialize(cfg.DatabasePath)
	if err != nil {
		a.logger.Error("Failed to initialize database", "error", err)
		return
	}
	a.prefsService = services.NewPreferencesService(db)

	a.logger.Info("Application started",
		"working_directory", cfg.WorkingDir,
		"database_path", cfg.DatabasePath,
		"target_kb", cfg.TargetKB)
}

// SelectFolder opens the directory picker and scans the chosen folder for
// supported files.
func (a *App) SelectFolder() (*transport.FolderSelection, error) {
	folder, err := a.dialogs.OpenDirectoryDialog()
	if err != nil {
		return nil, err
	}
	if folder == "" {
		return &transport.FolderSelection{}, nil
	}

	jobs, err := batch.ScanFolder(folder)
	if err != nil {
		return nil, err
	}

	var totalKB int64
	for _, job := range jobs {
		if info, err := os.Stat(job.SourcePath); err == nil {
			totalKB += info.Size() / 1024
		}
	}

	a.mu.Lock()
	a.folder = folder
	a.jobs = jobs
	a.mu.Unlock()

	if a.prefsService != nil {
		if err := a.prefsService.UpdatePreferences(map[string]interface{}{"last_folder": folder}); err != nil {
			a.logger.Warn("Failed to persist last folder", "error", err)
		}
	}

	return &transport.FolderSelection{
		Folder:      folder,
		FileCount:   len(jobs),
		TotalSizeKB: totalKB,
	}, nil
}

// Compress starts the batch on a background goroutine. Results arrive through
// the batch:progress / batch:done / batch:error events; a second call while a
// batch is in flight is rejected.
func (a *App) Compress() error {
	a.mu.Lock()
	if a.processing {
		a.mu.Unlock()
		return ErrBatchInFlight
	}
	if len(a.jobs) == 0 {
		a.mu.Unlock()
		return ErrNoFilesSelected
	}
	jobs := a.jobs
	folder := a.folder
	a.processing = true
	a.mu.Unlock()

	go func() {
		defer func() {
			a.mu.Lock()
			a.processing = false
			a.mu.Unlock()
		}()

		report, err := a.runBatch(folder, jobs)
		if err != nil {
			a.logger.Error("Batch failed", "error", err)
			wailsruntime.EventsEmit(a.ctx, transport.EventBatchError, err.Error())
			return
		}

		a.stats.RecordRun(report)
		wailsruntime.EventsEmit(a.ctx, transport.EventBatchDone, report)
	}()

	return nil
}

func (a *App) runBatch(folder string, jobs []batch.FileJob) (*batch.Report, error) {
	target := a.config.TargetBytes()
	opts := compression.LadderOptions{
		MinQuality: a.config.MinQuality,
		MinScale:   a.config.MinScale,
	}
	if a.prefsService != nil {
		if prefs, err := a.prefsService.GetPreferences(); err == nil {
			target = int64(prefs.TargetSizeKB) * 1024
			opts.MinQuality = prefs.MinQuality
			opts.MinScale = prefs.MinScale
		}
	}

	images := compression.NewImageCompressor(a.logger)
	documents := compression.NewPDFCompressor(
		compression.NewPDFCPURewriter(),
		compression.NewFitzRenderer(),
		images,
		a.logger,
	)
	orchestrator := batch.NewOrchestrator(
		compression.ImageFileCompressor{Compressor: images, Options: opts},
		documents,
		target,
		a.logger,
	)

	outputDir := filepath.Join(folder, "compressed_"+time.Now().Format("20060102_150405"))

	return orchestrator.Run(jobs, outputDir, func(current, total int, filename string) {
		wailsruntime.EventsEmit(a.ctx, transport.EventBatchProgress, transport.ProgressUpdate{
			Current:  current,
			Total:    total,
			Filename: filename,
			Percent:  float64(current) / float64(total) * 100,
		})
	})
}

func (a *App) GetPreferences() (*models.UserPreferencesData, error) {
	if a.prefsService == nil {
		return nil, ErrPreferencesUnavailable
	}
	return a.prefsService.GetPreferences()
}

func (a *App) UpdatePreferences(data map[string]interface{}) error {
	if a.prefsService == nil {
		return ErrPreferencesUnavailable
	}
	return a.prefsService.UpdatePreferences(data)
}

// OpenOutputFolder reveals a finished run in the system file manager.
func (a *App) OpenOutputFolder(path string) error {
	return a.dialogs.OpenPath(path)
}

func (a *App) GetStats() SessionStats {
	return a.stats.Snapshot()
}
