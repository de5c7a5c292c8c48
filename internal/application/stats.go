package application

import (
	"context"
	"sync"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"billpress/internal/batch"
	"billpress/internal/transport"
)

// SessionStats accumulates over the lifetime of the process.
type SessionStats struct {
	RunsCompleted  int   `json:"runs_completed"`
	FilesProcessed int   `json:"files_processed"`
	DataSavedKB    int64 `json:"data_saved_kb"`
}

type StatsManager struct {
	ctx context.Context

	mu    sync.Mutex
	stats SessionStats
}

func NewStatsManager(ctx context.Context) *StatsManager {
	return &StatsManager{ctx: ctx}
}

func (m *StatsManager) RecordRun(report *batch.Report) {
	m.mu.Lock()
	m.stats.RunsCompleted++
	m.stats.FilesProcessed += report.Total
	for _, detail := range report.Details {
		if saved := detail.OriginalSizeKB - detail.FinalSizeKB; saved > 0 {
			m.stats.DataSavedKB += saved
		}
	}
	snapshot := m.stats
	m.mu.Unlock()

	wailsruntime.EventsEmit(m.ctx, transport.EventStatsUpdate, snapshot)
}

func (m *StatsManager) Snapshot() SessionStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}
