package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLite(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return store
}

func TestEnsureSchemaIsRepeatable(t *testing.T) {
	store := openTestStore(t)
	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("second ensure schema: %v", err)
	}
	var version int
	if err := store.db.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		t.Fatalf("user_version: %v", err)
	}
	if version != len(migrations) {
		t.Fatalf("expected schema version %d, got %d", len(migrations), version)
	}
}

func TestLevelRunLifecycle(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	start := time.Date(2026, time.February, 9, 1, 0, 0, 0, time.UTC)

	runID, err := store.StartLevelRun(ctx, LevelRun{SessionID: "s1", Player: " Ada ", LevelID: 2, StartTS: start})
	if err != nil {
		t.Fatalf("start run: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := store.RecordCommand(ctx, runID); err != nil {
			t.Fatalf("record command: %v", err)
		}
	}
	if err := store.RecordHint(ctx, runID); err != nil {
		t.Fatalf("record hint: %v", err)
	}
	if err := store.CompleteLevelRun(ctx, runID, 45*time.Second, start.Add(45*time.Second)); err != nil {
		t.Fatalf("complete run: %v", err)
	}
	if err := store.CompleteLevelRun(ctx, runID, 10*time.Second, start.Add(time.Minute)); err != nil {
		t.Fatalf("second complete: %v", err)
	}
	if err := store.RecordCommand(ctx, runID); err == nil {
		t.Fatalf("expected commands on a completed run to fail")
	}

	sum, err := store.GetSummary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum != (Summary{LevelRuns: 1, Commands: 3, Hints: 1, Completions: 1}) {
		t.Fatalf("unexpected summary %+v", sum)
	}

	last, err := store.GetLastRun(ctx)
	if err != nil {
		t.Fatalf("last run: %v", err)
	}
	if last == nil || last.Player != "Ada" || last.LevelID != 2 || !last.Completed || !last.StartTS.Equal(start) {
		t.Fatalf("unexpected last run %+v", last)
	}

	best, err := store.BestTimes(ctx, "ada")
	if err != nil {
		t.Fatalf("best times: %v", err)
	}
	if b := best[2]; b.Clears != 1 || b.Best != 45*time.Second {
		t.Fatalf("completing twice should count once, got %+v", b)
	}
}

func TestCompleteUnknownRun(t *testing.T) {
	store := openTestStore(t)
	if err := store.CompleteLevelRun(context.Background(), 99, time.Second, time.Now()); err == nil {
		t.Fatalf("expected error for unknown run")
	}
}

func TestBestTimesPerPlayer(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	at := time.Date(2026, time.February, 9, 1, 0, 0, 0, time.UTC)

	finish := func(player string, d time.Duration) {
		t.Helper()
		id, err := store.StartLevelRun(ctx, LevelRun{SessionID: "s", Player: player, LevelID: 1, StartTS: at})
		if err != nil {
			t.Fatalf("start run: %v", err)
		}
		at = at.Add(time.Hour)
		if err := store.CompleteLevelRun(ctx, id, d, at); err != nil {
			t.Fatalf("complete run: %v", err)
		}
	}
	finish("ada", 90*time.Second)
	finish("ada", 40*time.Second)
	finish("ada", 70*time.Second)
	finish("grace", 30*time.Second)

	mine, err := store.BestTimes(ctx, "ADA")
	if err != nil {
		t.Fatalf("best times: %v", err)
	}
	if b := mine[1]; b.Clears != 3 || b.Best != 40*time.Second {
		t.Fatalf("unexpected best for ada: %+v", b)
	}

	all, err := store.BestTimes(ctx, "")
	if err != nil {
		t.Fatalf("best times: %v", err)
	}
	b := all[1]
	if b.Clears != 4 || b.Best != 30*time.Second {
		t.Fatalf("unexpected aggregate best: %+v", b)
	}
	if !b.LastCleared.Equal(at) {
		t.Fatalf("expected last cleared %v, got %v", at, b.LastCleared)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	if err := store.SaveSettings(ctx, map[string]string{"last_player": "ada", " ": "ignored"}); err != nil {
		t.Fatalf("save settings: %v", err)
	}
	if err := store.SaveSettings(ctx, map[string]string{"last_player": "grace"}); err != nil {
		t.Fatalf("overwrite settings: %v", err)
	}
	got, err := store.LoadSettings(ctx)
	if err != nil {
		t.Fatalf("load settings: %v", err)
	}
	if len(got) != 1 || got["last_player"] != "grace" {
		t.Fatalf("unexpected settings %#v", got)
	}
}

func TestLastRunEmptyDatabase(t *testing.T) {
	store := openTestStore(t)
	last, err := store.GetLastRun(context.Background())
	if err != nil {
		t.Fatalf("last run: %v", err)
	}
	if last != nil {
		t.Fatalf("expected no run, got %+v", last)
	}
}
