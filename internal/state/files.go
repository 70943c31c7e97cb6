package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"termescape/internal/game"
)

const (
	savesDir        = "saves"
	profilesDir     = "profiles"
	leaderboardFile = "leaderboard.json"
	legacyFile      = "achievements.json"
	profileSuffix   = "_profile.json"
)

// FileStore keeps saves, profiles and the leaderboard as JSON documents under
// one data directory. Writes are last-writer-wins.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	for _, sub := range []string{savesDir, profilesDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, err
		}
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) savePath(name string) string {
	return filepath.Join(s.dir, savesDir, fileKey(name)+".json")
}

func (s *FileStore) profilePath(name string) string {
	return filepath.Join(s.dir, profilesDir, fileKey(strings.ToLower(name))+profileSuffix)
}

func (s *FileStore) SaveGame(gs game.GameState) error {
	if strings.TrimSpace(gs.PlayerName) == "" {
		return errors.New("invalid save: missing player name")
	}
	return writeJSON(s.savePath(gs.PlayerName), gs)
}

func (s *FileStore) LoadGame(name string) (*game.GameState, error) {
	var gs game.GameState
	if err := readJSON(s.savePath(name), &gs); err != nil {
		return nil, err
	}
	return &gs, nil
}

// ListSaves returns every readable save, most recently saved first.
func (s *FileStore) ListSaves() ([]SaveSummary, error) {
	ents, err := os.ReadDir(filepath.Join(s.dir, savesDir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var out []SaveSummary
	for _, e := range ents {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		var head struct {
			PlayerName      string    `json:"playerName"`
			CurrentLevel    int       `json:"currentLevel"`
			CompletedLevels []int     `json:"completedLevels"`
			LastSaveTime    time.Time `json:"lastSaveTime"`
		}
		if err := readJSON(filepath.Join(s.dir, savesDir, e.Name()), &head); err != nil || head.PlayerName == "" {
			continue
		}
		out = append(out, SaveSummary{
			PlayerName:      head.PlayerName,
			CurrentLevel:    head.CurrentLevel,
			CompletedLevels: len(head.CompletedLevels),
			LastSaveTime:    head.LastSaveTime,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].LastSaveTime.After(out[j].LastSaveTime) })
	return out, nil
}

func (s *FileStore) LoadProfile(name string) (*game.PlayerProfile, error) {
	var p game.PlayerProfile
	if err := readJSON(s.profilePath(name), &p); err != nil {
		return nil, err
	}
	if p.Achievements == nil {
		p.Achievements = []game.Achievement{}
	}
	return &p, nil
}

func (s *FileStore) SaveProfile(p game.PlayerProfile) error {
	if strings.TrimSpace(p.PlayerName) == "" {
		return errors.New("invalid profile: missing player name")
	}
	return writeJSON(s.profilePath(p.PlayerName), p)
}

// Leaderboard reads the leaderboard. A missing file is an empty board; a
// corrupt file is also an empty board, with the decode error returned so the
// caller can log it.
func (s *FileStore) Leaderboard() (game.Leaderboard, error) {
	var lb game.Leaderboard
	err := readJSON(filepath.Join(s.dir, leaderboardFile), &lb)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return game.Leaderboard{Players: []game.LeaderboardEntry{}}, nil
		}
		return game.Leaderboard{Players: []game.LeaderboardEntry{}}, err
	}
	if lb.Players == nil {
		lb.Players = []game.LeaderboardEntry{}
	}
	return lb, nil
}

// AddLeaderboardEntry appends entry and rewrites the board sorted by
// completion time, fastest first. An unreadable board is moved aside to
// leaderboard.json.corrupt-<unix nanos> before a fresh one is started; if
// it cannot be moved the board is left untouched and the error returned.
func (s *FileStore) AddLeaderboardEntry(entry game.LeaderboardEntry) error {
	path := filepath.Join(s.dir, leaderboardFile)
	lb, err := s.Leaderboard()
	if err != nil {
		if _, statErr := os.Stat(path); statErr != nil {
			return fmt.Errorf("read leaderboard: %w", err)
		}
		backup := fmt.Sprintf("%s.corrupt-%d", path, time.Now().UnixNano())
		if mvErr := os.Rename(path, backup); mvErr != nil {
			return fmt.Errorf("read leaderboard: %w (backup failed: %v)", err, mvErr)
		}
		lb = game.Leaderboard{Players: []game.LeaderboardEntry{}}
	}
	lb.Players = append(lb.Players, entry)
	sort.SliceStable(lb.Players, func(i, j int) bool {
		return lb.Players[i].CompletionTime < lb.Players[j].CompletionTime
	})
	return writeJSON(path, lb)
}

// LoadLegacyAchievements reads the old shared achievements file. It is
// never written.
func (s *FileStore) LoadLegacyAchievements() ([]game.Achievement, error) {
	var raw []struct {
		ID         string `json:"id"`
		Unlocked   bool   `json:"unlocked"`
		UnlockedAt int64  `json:"unlockedAt"`
	}
	if err := readJSON(filepath.Join(s.dir, legacyFile), &raw); err != nil {
		return nil, err
	}
	out := make([]game.Achievement, 0, len(raw))
	for _, r := range raw {
		a := game.Achievement{ID: r.ID, Unlocked: r.Unlocked}
		if r.Unlocked && r.UnlockedAt > 0 {
			t := time.UnixMilli(r.UnlockedAt).UTC()
			a.UnlockedAt = &t
		}
		out = append(out, a)
	}
	return out, nil
}

func readJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// writeJSON writes v through a temp file so readers never see a partial
// document.
func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// fileKey maps a player name onto a file name stem. ASCII letters, digits
// and '-' pass through, inner spaces become '_', and every other byte is
// written as %XX, so distinct names never share a file.
func fileKey(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "_"
	}
	var b strings.Builder
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-':
			b.WriteByte(c)
		case c == ' ':
			b.WriteByte('_')
		default:
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}
