package state

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"termescape/internal/game"
)

func TestSaveAndLoadGame(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	now := time.Date(2026, time.April, 2, 8, 0, 0, 0, time.UTC)
	gs := game.GameState{
		PlayerName:      "Ada Lovelace",
		CurrentLevel:    3,
		StartTime:       now,
		LastSaveTime:    now,
		CompletedLevels: []int{1, 2},
		Inventory:       []string{},
		LevelStates: game.LevelStates{
			Processes: &game.ProcessState{MalwareKilled: true},
		},
		Progress: map[int]*game.LevelProgress{},
	}
	require.NoError(t, store.SaveGame(gs))
	require.FileExists(t, filepath.Join(store.Dir(), "saves", "Ada_Lovelace.json"))

	got, err := store.LoadGame("Ada Lovelace")
	require.NoError(t, err)
	require.Equal(t, 3, got.CurrentLevel)
	require.Equal(t, []int{1, 2}, got.CompletedLevels)
	require.NotNil(t, got.LevelStates.Processes)
	require.True(t, got.LevelStates.Processes.MalwareKilled)
	require.Nil(t, got.LevelStates.Network)

	_, err = store.LoadGame("nobody")
	require.True(t, errors.Is(err, fs.ErrNotExist))

	saves, err := store.ListSaves()
	require.NoError(t, err)
	require.Len(t, saves, 1)
	require.Equal(t, "Ada Lovelace", saves[0].PlayerName)
	require.Equal(t, 2, saves[0].CompletedLevels)
}

func TestProfilePathIsLowercased(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.SaveProfile(game.PlayerProfile{PlayerName: "Grace"}))
	require.FileExists(t, filepath.Join(store.Dir(), "profiles", "grace_profile.json"))

	p, err := store.LoadProfile("GRACE")
	require.NoError(t, err)
	require.Equal(t, "Grace", p.PlayerName)
	require.NotNil(t, p.Achievements)
}

func TestLeaderboardSortedAndTolerant(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	lb, err := store.Leaderboard()
	require.NoError(t, err)
	require.Empty(t, lb.Players)

	for _, e := range []game.LeaderboardEntry{
		{PlayerName: "slow", CompletionTime: 90000},
		{PlayerName: "fast", CompletionTime: 30000},
		{PlayerName: "mid", CompletionTime: 60000},
	} {
		require.NoError(t, store.AddLeaderboardEntry(e))
	}
	lb, err = store.Leaderboard()
	require.NoError(t, err)
	require.Len(t, lb.Players, 3)
	require.Equal(t, "fast", lb.Players[0].PlayerName)
	require.Equal(t, "slow", lb.Players[2].PlayerName)

	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "leaderboard.json"), []byte("{not json"), 0o644))
	lb, err = store.Leaderboard()
	require.Error(t, err)
	require.Empty(t, lb.Players)

	// A corrupt board is moved aside, not silently overwritten.
	require.NoError(t, store.AddLeaderboardEntry(game.LeaderboardEntry{PlayerName: "new", CompletionTime: 1}))
	lb, err = store.Leaderboard()
	require.NoError(t, err)
	require.Len(t, lb.Players, 1)

	backups, err := filepath.Glob(filepath.Join(store.Dir(), "leaderboard.json.corrupt-*"))
	require.NoError(t, err)
	require.Len(t, backups, 1)
	kept, err := os.ReadFile(backups[0])
	require.NoError(t, err)
	require.Equal(t, "{not json", string(kept))
}

func TestLoadLegacyAchievements(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.LoadLegacyAchievements()
	require.True(t, errors.Is(err, fs.ErrNotExist))

	legacy := `[{"id":"first_steps","name":"First Steps","unlocked":true,"unlockedAt":1767225600000},{"id":"explorer","unlocked":false}]`
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "achievements.json"), []byte(legacy), 0o644))

	got, err := store.LoadLegacyAchievements()
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.True(t, got[0].Unlocked)
	require.NotNil(t, got[0].UnlockedAt)
	require.Equal(t, int64(1767225600000), got[0].UnlockedAt.UnixMilli())
	require.Nil(t, got[1].UnlockedAt)
}

func TestFileKey(t *testing.T) {
	cases := map[string]string{
		"Ada":          "Ada",
		"  Ada  Byron": "Ada__Byron",
		"Ada_Byron":    "Ada%5FByron",
		"../../etc":    "%2E%2E%2F%2E%2E%2Fetc",
		"Zoë":          "Zo%C3%AB",
		"???":          "%3F%3F%3F",
		"   ":          "_",
	}
	for in, want := range cases {
		if got := fileKey(in); got != want {
			t.Fatalf("fileKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDistinctNamesKeepSeparateSaves(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	names := []string{"Bob", "Bob!", "Bob?", "Bob.", "Bob_", "Bob ", "B ob", "B_ob", "B.ob"}
	// "Bob " trims to "Bob", so it is the same player.
	for i, name := range names {
		require.NoError(t, store.SaveGame(game.GameState{PlayerName: name, CurrentLevel: i + 1}))
	}
	for i, name := range names {
		if name == "Bob" {
			continue
		}
		got, err := store.LoadGame(name)
		require.NoError(t, err)
		require.Equal(t, name, got.PlayerName)
		require.Equal(t, i+1, got.CurrentLevel)
	}

	saves, err := store.ListSaves()
	require.NoError(t, err)
	require.Len(t, saves, len(names)-1)

	require.NoError(t, store.SaveProfile(game.PlayerProfile{PlayerName: "Bob"}))
	require.NoError(t, store.SaveProfile(game.PlayerProfile{PlayerName: "bob!"}))
	p, err := store.LoadProfile("BOB")
	require.NoError(t, err)
	require.Equal(t, "Bob", p.PlayerName)
	p, err = store.LoadProfile("Bob!")
	require.NoError(t, err)
	require.Equal(t, "bob!", p.PlayerName)
}
