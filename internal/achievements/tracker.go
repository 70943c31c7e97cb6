package achievements

import (
	"errors"
	"io/fs"
	"time"

	"termescape/internal/game"
	"termescape/internal/telemetry"
)

const (
	speedLimit          = 60 * time.Second
	distinctCommandGoal = 10
	totalCommandGoal    = 20
)

// ProfileStore persists a profile after an unlock.
type ProfileStore interface {
	SaveProfile(p game.PlayerProfile) error
}

// LegacySource reads achievements recorded outside any profile.
type LegacySource interface {
	LoadLegacyAchievements() ([]game.Achievement, error)
}

// Notifier is told about every new unlock, after it has been persisted.
type Notifier func(a game.Achievement)

type Option func(*Tracker)

func WithLegacy(src LegacySource) Option {
	return func(t *Tracker) { t.legacy = src }
}

func WithNotifier(n Notifier) Option {
	return func(t *Tracker) { t.notify = n }
}

func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

func WithLogger(l *telemetry.JSONLogger) Option {
	return func(t *Tracker) { t.log = l }
}

// Tracker unlocks achievements stored inside a player profile.
type Tracker struct {
	store  ProfileStore
	legacy LegacySource
	notify Notifier
	now    func() time.Time
	log    *telemetry.JSONLogger
}

func NewTracker(store ProfileStore, opts ...Option) *Tracker {
	t := &Tracker{store: store, now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Seed aligns p.Achievements with the catalog, keeping unlock records. A
// newly created profile also inherits unlocks from the legacy file.
func (t *Tracker) Seed(p *game.PlayerProfile, created bool) {
	if p == nil {
		return
	}
	have := map[string]game.Achievement{}
	for _, a := range p.Achievements {
		have[a.ID] = a
	}
	merged := Catalog()
	for i := range merged {
		if prev, ok := have[merged[i].ID]; ok && prev.Unlocked {
			merged[i].Unlocked = true
			merged[i].UnlockedAt = prev.UnlockedAt
		}
	}
	p.Achievements = merged
	if created {
		t.migrateLegacy(p)
	}
}

func (t *Tracker) migrateLegacy(p *game.PlayerProfile) {
	if t.legacy == nil {
		return
	}
	old, err := t.legacy.LoadLegacyAchievements()
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			t.log.Error("achievements.legacy_failed", map[string]any{"error": err})
		}
		return
	}
	migrated := 0
	for _, o := range old {
		if !o.Unlocked {
			continue
		}
		a := find(p, o.ID)
		if a == nil || a.Unlocked {
			continue
		}
		a.Unlocked = true
		a.UnlockedAt = o.UnlockedAt
		if a.UnlockedAt == nil {
			now := t.now()
			a.UnlockedAt = &now
		}
		migrated++
	}
	if migrated > 0 {
		t.log.Info("achievements.legacy_migrated", map[string]any{"player": p.PlayerName, "count": migrated})
	}
}

func find(p *game.PlayerProfile, id string) *game.Achievement {
	for i := range p.Achievements {
		if p.Achievements[i].ID == id {
			return &p.Achievements[i]
		}
	}
	return nil
}

// Unlock marks id unlocked on p. It returns false for unknown ids and for
// achievements that are already unlocked; the original unlock time is kept.
func (t *Tracker) Unlock(p *game.PlayerProfile, id string) bool {
	if p == nil {
		return false
	}
	a := find(p, id)
	if a == nil {
		entry, ok := lookup(id)
		if !ok {
			return false
		}
		p.Achievements = append(p.Achievements, entry)
		a = &p.Achievements[len(p.Achievements)-1]
	}
	if a.Unlocked {
		return false
	}
	now := t.now()
	a.Unlocked = true
	a.UnlockedAt = &now
	unlocked := *a

	if t.store != nil {
		if err := t.store.SaveProfile(*p); err != nil {
			t.log.Error("achievements.save_failed", map[string]any{"player": p.PlayerName, "id": id, "error": err})
		}
	}
	t.log.Info("achievements.unlocked", map[string]any{"player": p.PlayerName, "id": id})
	if t.notify != nil {
		t.notify(unlocked)
	}
	return true
}

// Notify applies the unlock rules for ev and returns what was unlocked.
func (t *Tracker) Notify(p *game.PlayerProfile, ev game.Event) []game.Achievement {
	var ids []string
	switch ev.Kind {
	case game.EventLevelCompleted:
		ids = append(ids, FirstSteps)
		if ev.Elapsed < speedLimit {
			ids = append(ids, SpeedDemon)
		}
		if !ev.UsedHint {
			ids = append(ids, NoHints)
		}
		if ev.Final {
			ids = append(ids, MasterHacker)
		}
	case game.EventCommandUsed:
		if ev.DistinctCommands >= distinctCommandGoal {
			ids = append(ids, CommandMaster)
		}
		if ev.CommandCount >= totalCommandGoal {
			ids = append(ids, Persistence)
		}
	case game.EventEasterEggFound:
		ids = append(ids, EasterEggHunter)
	case game.EventAllDirectoriesVisited:
		ids = append(ids, Explorer)
	}

	var out []game.Achievement
	for _, id := range ids {
		if t.Unlock(p, id) {
			out = append(out, *find(p, id))
		}
	}
	return out
}

// Board groups a profile's achievements for display. Locked secret
// achievements are only counted.
type Board struct {
	Unlocked      []game.Achievement
	Locked        []game.Achievement
	HiddenSecrets int
}

func View(p *game.PlayerProfile) Board {
	var b Board
	if p == nil {
		return b
	}
	for _, a := range p.Achievements {
		switch {
		case a.Unlocked:
			b.Unlocked = append(b.Unlocked, a)
		case a.Secret:
			b.HiddenSecrets++
		default:
			b.Locked = append(b.Locked, a)
		}
	}
	return b
}
