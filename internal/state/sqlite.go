package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const timeLayout = time.RFC3339

// migrations are applied in order; PRAGMA user_version records how many
// have run.
var migrations = []string{
	`CREATE TABLE level_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		player TEXT NOT NULL,
		level_id INTEGER NOT NULL,
		started_at TEXT NOT NULL,
		commands INTEGER NOT NULL DEFAULT 0,
		hints INTEGER NOT NULL DEFAULT 0,
		completed INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL DEFAULT 0
	);
	CREATE TABLE best_times (
		player TEXT NOT NULL,
		level_id INTEGER NOT NULL,
		clears INTEGER NOT NULL DEFAULT 0,
		best_ms INTEGER NOT NULL DEFAULT 0,
		last_cleared TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (player, level_id)
	);
	CREATE TABLE settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`,
	`CREATE INDEX level_runs_player ON level_runs(player, level_id);`,
}

// SQLiteStore keeps run history, best times and small settings in one
// database file next to the JSON saves.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One writer; the app serializes turns anyway.
	db.SetMaxOpenConns(1)
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, `PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for i := version; i < len(migrations); i++ {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, migrations[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
		// PRAGMA does not take bind parameters.
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version = %d`, i+1)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}

func (s *SQLiteStore) StartLevelRun(ctx context.Context, run LevelRun) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO level_runs(session_id, player, level_id, started_at) VALUES(?, ?, ?, ?)`,
		run.SessionID,
		strings.TrimSpace(run.Player),
		run.LevelID,
		run.StartTS.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) RecordCommand(ctx context.Context, runID int64) error {
	return s.bump(ctx, "commands", runID)
}

func (s *SQLiteStore) RecordHint(ctx context.Context, runID int64) error {
	return s.bump(ctx, "hints", runID)
}

func (s *SQLiteStore) bump(ctx context.Context, column string, runID int64) error {
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE level_runs SET %[1]s = %[1]s + 1 WHERE id = ? AND completed = 0`, column), runID)
	if err != nil {
		return err
	}
	return expectRow(res, runID)
}

// CompleteLevelRun closes a run and folds its time into the player's best
// time for that level. A run completes at most once.
func (s *SQLiteStore) CompleteLevelRun(ctx context.Context, runID int64, duration time.Duration, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var (
		player    string
		levelID   int
		completed bool
	)
	err = tx.QueryRowContext(ctx, `SELECT player, level_id, completed FROM level_runs WHERE id = ?`, runID).
		Scan(&player, &levelID, &completed)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("level run %d not found", runID)
	}
	if err != nil {
		return err
	}
	if completed {
		return nil
	}

	ms := max(duration.Milliseconds(), 0)
	if _, err := tx.ExecContext(ctx,
		`UPDATE level_runs SET completed = 1, duration_ms = ? WHERE id = ?`, ms, runID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO best_times(player, level_id, clears, best_ms, last_cleared)
		VALUES(?, ?, 1, ?, ?)
		ON CONFLICT(player, level_id) DO UPDATE SET
			clears = best_times.clears + 1,
			best_ms = MIN(best_times.best_ms, excluded.best_ms),
			last_cleared = excluded.last_cleared
	`, playerKey(player), levelID, ms, at.UTC().Format(timeLayout)); err != nil {
		return err
	}
	return tx.Commit()
}

// BestTimes returns clears and best times per level. An empty player
// aggregates over everyone.
func (s *SQLiteStore) BestTimes(ctx context.Context, player string) (map[int]LevelBest, error) {
	query := `SELECT level_id, SUM(clears), MIN(best_ms), MAX(last_cleared) FROM best_times`
	var args []any
	if key := playerKey(player); key != "" {
		query += ` WHERE player = ?`
		args = append(args, key)
	}
	query += ` GROUP BY level_id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[int]LevelBest{}
	for rows.Next() {
		var (
			b    LevelBest
			best int64
			last string
		)
		if err := rows.Scan(&b.LevelID, &b.Clears, &best, &last); err != nil {
			return nil, err
		}
		b.Best = time.Duration(best) * time.Millisecond
		if t, err := time.Parse(timeLayout, last); err == nil {
			b.LastCleared = t
		}
		out[b.LevelID] = b
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SaveSettings(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for key, value := range values {
		k := strings.TrimSpace(key)
		if k == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO settings(key, value) VALUES(?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, k, value); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) LoadSettings(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetSummary(ctx context.Context) (Summary, error) {
	var out Summary
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(commands), 0), COALESCE(SUM(hints), 0), COALESCE(SUM(completed), 0)
		FROM level_runs
	`).Scan(&out.LevelRuns, &out.Commands, &out.Hints, &out.Completions)
	if err != nil {
		return Summary{}, err
	}
	return out, nil
}

// GetLastRun returns the most recently started run, or nil when there is
// none.
func (s *SQLiteStore) GetLastRun(ctx context.Context) (*LastRun, error) {
	var (
		out     LastRun
		started string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT player, level_id, started_at, completed, commands, hints
		FROM level_runs
		ORDER BY id DESC
		LIMIT 1
	`).Scan(&out.Player, &out.LevelID, &started, &out.Completed, &out.Commands, &out.Hints)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if t, err := time.Parse(timeLayout, started); err == nil {
		out.StartTS = t
	}
	return &out, nil
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func expectRow(res sql.Result, runID int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("level run %d not found or already completed", runID)
	}
	return nil
}

// playerKey matches the case-insensitive naming of profile files.
func playerKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
