package game

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"
)

// SaveResult reports a save or load outcome to the player. It replaces an
// error return: I/O failures never escape Save or Load.
type SaveResult struct {
	OK      bool
	Message string
}

// Completion describes a finished level.
type Completion struct {
	LevelID  int
	Elapsed  time.Duration
	UsedHint bool
	// Final is true when the completed level is the last registered one.
	Final bool
	// AllComplete is true when every registered level is now complete. The
	// leaderboard entry is recorded exactly then.
	AllComplete bool
	GameTime    time.Duration
}

// ProfileHook runs whenever a profile is attached to the session. created
// is true for profiles that did not exist on disk.
type ProfileHook func(p *PlayerProfile, created bool)

type Option func(*Session)

func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

func WithProfileHook(h ProfileHook) Option {
	return func(s *Session) { s.onProfile = h }
}

// Session owns the single active GameState and its player profile. It is not
// safe for concurrent use; callers serialize turns.
type Session struct {
	registry  *Registry
	store     Store
	now       func() time.Time
	onProfile ProfileHook

	state   *GameState
	profile *PlayerProfile
}

func NewSession(registry *Registry, store Store, opts ...Option) *Session {
	s := &Session{
		registry: registry,
		store:    store,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) Registry() *Registry { return s.registry }

func (s *Session) Active() bool { return s.state != nil }

func (s *Session) State() *GameState { return s.state }

func (s *Session) Profile() *PlayerProfile { return s.profile }

// End drops the active game. The profile stays attached.
func (s *Session) End() { s.state = nil }

// NewGame starts a fresh game for name at the first level. The game starts
// even when the profile cannot be written; that error is returned so the
// caller can report it.
func (s *Session) NewGame(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("player name is required")
	}
	first := s.registry.First()
	if first == 0 {
		first = 1
	}
	now := s.now()
	s.state = &GameState{
		PlayerName:      name,
		CurrentLevel:    first,
		StartTime:       now,
		LastSaveTime:    now,
		CompletedLevels: []int{},
		Inventory:       []string{},
		Progress:        map[int]*LevelProgress{},
	}
	return s.ensureProfile(name)
}

func (s *Session) Save() SaveResult {
	if s.state == nil {
		return SaveResult{Message: "No active game to save."}
	}
	s.state.LastSaveTime = s.now()
	if err := s.store.SaveGame(*s.state); err != nil {
		return SaveResult{Message: fmt.Sprintf("Failed to save game: %v", err)}
	}
	return SaveResult{OK: true, Message: "Game saved successfully!"}
}

// Load replaces the active game with the save stored for name.
func (s *Session) Load(name string) SaveResult {
	name = strings.TrimSpace(name)
	if name == "" {
		return SaveResult{Message: "Player name is required."}
	}
	gs, err := s.store.LoadGame(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return SaveResult{Message: fmt.Sprintf("No saved game found for %s.", name)}
		}
		return SaveResult{Message: fmt.Sprintf("Failed to load game: %v", err)}
	}
	gs.normalize()
	if strings.TrimSpace(gs.PlayerName) == "" {
		gs.PlayerName = name
	}
	if gs.CurrentLevel <= 0 {
		gs.CurrentLevel = max(1, s.registry.First())
	}
	s.state = gs
	if err := s.ensureProfile(gs.PlayerName); err != nil {
		return SaveResult{OK: true, Message: fmt.Sprintf("Game loaded, but the profile could not be written: %v", err)}
	}
	return SaveResult{OK: true, Message: "Game loaded successfully!"}
}

// SaveProfile persists the attached profile.
func (s *Session) SaveProfile() error {
	if s.profile == nil {
		return nil
	}
	return s.store.SaveProfile(*s.profile)
}

func (s *Session) ensureProfile(name string) error {
	if s.profile != nil && strings.EqualFold(s.profile.PlayerName, name) {
		return nil
	}
	p, err := s.store.LoadProfile(name)
	if err == nil && p != nil {
		if p.CompletedLevels == nil {
			p.CompletedLevels = []int{}
		}
		s.profile = p
		if s.onProfile != nil {
			s.onProfile(p, false)
		}
		return nil
	}
	s.profile = &PlayerProfile{
		PlayerName:      name,
		Achievements:    []Achievement{},
		LastPlayed:      s.now(),
		CompletedLevels: []int{},
	}
	if s.onProfile != nil {
		s.onProfile(s.profile, true)
	}
	if saveErr := s.store.SaveProfile(*s.profile); saveErr != nil {
		return fmt.Errorf("create profile %s: %w", name, saveErr)
	}
	return nil
}

// Finished reports whether the current level id is past the last level.
func (s *Session) Finished() bool {
	if s.state == nil {
		return false
	}
	_, ok := s.registry.Get(s.state.CurrentLevel)
	return !ok && s.state.CurrentLevel > s.registry.Last()
}

// CurrentLevel returns the active level, if any.
func (s *Session) CurrentLevel() (Level, bool) {
	if s.state == nil {
		return nil, false
	}
	return s.registry.Get(s.state.CurrentLevel)
}

// StartLevel initializes the current level and starts its clock. Repeated
// calls keep existing progress.
func (s *Session) StartLevel() (Level, bool) {
	l, ok := s.CurrentLevel()
	if !ok {
		return nil, false
	}
	l.Initialize(s.state)
	s.Progress(l.ID())
	return l, true
}

// Progress returns the bookkeeping record for id, creating it on first use.
func (s *Session) Progress(id int) *LevelProgress {
	if s.state == nil {
		return nil
	}
	if s.state.Progress == nil {
		s.state.Progress = map[int]*LevelProgress{}
	}
	p, ok := s.state.Progress[id]
	if !ok || p == nil {
		p = &LevelProgress{StartedAt: s.now(), Commands: map[string]int{}}
		s.state.Progress[id] = p
	}
	return p
}

// RecordCommand counts one line of level input under its command name.
func (s *Session) RecordCommand(input string) *LevelProgress {
	if s.state == nil {
		return nil
	}
	fields := strings.Fields(strings.ToLower(input))
	if len(fields) == 0 {
		return s.Progress(s.state.CurrentLevel)
	}
	p := s.Progress(s.state.CurrentLevel)
	p.CommandCount++
	p.Commands[fields[0]]++
	return p
}

// NextHint reveals the next hint of the current level in order. ok is false
// once every hint has been shown.
func (s *Session) NextHint() (hint string, n int, ok bool) {
	l, found := s.CurrentLevel()
	if !found {
		return "", 0, false
	}
	p := s.Progress(l.ID())
	hints := l.Hints()
	if p.HintIndex >= len(hints) {
		return "", p.HintIndex, false
	}
	hint = hints[p.HintIndex]
	p.HintIndex++
	p.UsedHint = true
	return hint, p.HintIndex, true
}

// MarkComplete adds id to the completed list. It reports false when id was
// already there.
func (s *Session) MarkComplete(id int) bool {
	if s.state == nil || s.state.HasCompleted(id) {
		return false
	}
	s.state.CompletedLevels = append(s.state.CompletedLevels, id)
	return true
}

// CompleteCurrentLevel marks the current level done, mirrors it into the
// profile, advances to the next level and persists everything. The returned
// Completion is valid even when persistence fails.
func (s *Session) CompleteCurrentLevel() (Completion, error) {
	if s.state == nil {
		return Completion{}, errors.New("no active game")
	}
	now := s.now()
	id := s.state.CurrentLevel
	p := s.Progress(id)
	started := p.StartedAt
	if started.IsZero() {
		started = s.state.StartTime
	}

	s.MarkComplete(id)
	c := Completion{
		LevelID:  id,
		Elapsed:  now.Sub(started),
		UsedHint: p.UsedHint,
		Final:    id == s.registry.Last(),
	}
	s.state.CurrentLevel = id + 1

	c.AllComplete = s.registry.Len() > 0
	for _, l := range s.registry.All() {
		if !s.state.HasCompleted(l.ID()) {
			c.AllComplete = false
			break
		}
	}

	var errs []error
	if s.profile != nil {
		if !containsInt(s.profile.CompletedLevels, id) {
			s.profile.CompletedLevels = append(s.profile.CompletedLevels, id)
		}
		s.profile.LastPlayed = now
		s.profile.AddPlayTime(c.Elapsed)
		if err := s.store.SaveProfile(*s.profile); err != nil {
			errs = append(errs, fmt.Errorf("save profile: %w", err))
		}
	}
	if c.AllComplete {
		c.GameTime = now.Sub(s.state.StartTime)
		entry := LeaderboardEntry{
			PlayerName:     s.state.PlayerName,
			CompletionTime: c.GameTime.Milliseconds(),
			CompletionDate: now.UTC().Format(time.RFC3339),
		}
		if err := s.store.AddLeaderboardEntry(entry); err != nil {
			errs = append(errs, fmt.Errorf("update leaderboard: %w", err))
		}
	}
	s.state.LastSaveTime = now
	if err := s.store.SaveGame(*s.state); err != nil {
		errs = append(errs, fmt.Errorf("save game: %w", err))
	}
	return c, errors.Join(errs...)
}

func containsInt(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}
