package state

import (
	"context"
	"time"

	"termescape/internal/game"
)

// RunStore records per-level play statistics.
type RunStore interface {
	EnsureSchema(ctx context.Context) error
	StartLevelRun(ctx context.Context, run LevelRun) (int64, error)
	RecordCommand(ctx context.Context, runID int64) error
	RecordHint(ctx context.Context, runID int64) error
	CompleteLevelRun(ctx context.Context, runID int64, duration time.Duration, at time.Time) error
	BestTimes(ctx context.Context, player string) (map[int]LevelBest, error)
	SaveSettings(ctx context.Context, values map[string]string) error
	LoadSettings(ctx context.Context) (map[string]string, error)
	GetSummary(ctx context.Context) (Summary, error)
	GetLastRun(ctx context.Context) (*LastRun, error)
	Close() error
}

var (
	_ game.Store = (*FileStore)(nil)
	_ RunStore   = (*SQLiteStore)(nil)
)

type LevelRun struct {
	SessionID string
	Player    string
	LevelID   int
	StartTS   time.Time
}

type Summary struct {
	LevelRuns   int
	Commands    int
	Hints       int
	Completions int
}

type LastRun struct {
	Player    string
	LevelID   int
	StartTS   time.Time
	Completed bool
	Commands  int
	Hints     int
}

// LevelBest is one level's record across completed runs.
type LevelBest struct {
	LevelID     int
	Clears      int
	Best        time.Duration
	LastCleared time.Time
}

// SaveSummary describes one save file for the load menu.
type SaveSummary struct {
	PlayerName      string
	CurrentLevel    int
	CompletedLevels int
	LastSaveTime    time.Time
}
