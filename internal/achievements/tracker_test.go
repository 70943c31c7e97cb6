package achievements

import (
	"errors"
	"io/fs"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"termescape/internal/game"
)

type profileSink struct {
	saved []game.PlayerProfile
	err   error
}

func (s *profileSink) SaveProfile(p game.PlayerProfile) error {
	s.saved = append(s.saved, p)
	return s.err
}

type legacyFile struct {
	items []game.Achievement
	err   error
}

func (l legacyFile) LoadLegacyAchievements() ([]game.Achievement, error) {
	return l.items, l.err
}

type tick struct{ t time.Time }

func (c *tick) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newProfile(tr *Tracker) *game.PlayerProfile {
	p := &game.PlayerProfile{PlayerName: "ada"}
	tr.Seed(p, false)
	return p
}

func TestUnlockIsIdempotent(t *testing.T) {
	clock := &tick{t: time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)}
	sink := &profileSink{}
	var notified []string
	tr := NewTracker(sink, WithClock(clock.now), WithNotifier(func(a game.Achievement) { notified = append(notified, a.ID) }))
	p := newProfile(tr)

	require.True(t, tr.Unlock(p, FirstSteps))
	first := *find(p, FirstSteps).UnlockedAt

	require.False(t, tr.Unlock(p, FirstSteps))
	require.Equal(t, first, *find(p, FirstSteps).UnlockedAt)
	require.Equal(t, []string{FirstSteps}, notified)
	require.Len(t, sink.saved, 1)

	require.False(t, tr.Unlock(p, "no_such_thing"))
}

func TestUnlockReportsSaveFailureButStillUnlocks(t *testing.T) {
	tr := NewTracker(&profileSink{err: errors.New("read-only")})
	p := newProfile(tr)
	require.True(t, tr.Unlock(p, Explorer))
	require.True(t, find(p, Explorer).Unlocked)
}

func TestNotifyLevelCompletedRules(t *testing.T) {
	tr := NewTracker(&profileSink{})
	p := newProfile(tr)

	got := tr.Notify(p, game.Event{Kind: game.EventLevelCompleted, LevelID: 1, Elapsed: 90 * time.Second, UsedHint: true})
	require.Equal(t, []string{FirstSteps}, ids(got))

	got = tr.Notify(p, game.Event{Kind: game.EventLevelCompleted, LevelID: 2, Elapsed: 30 * time.Second})
	require.Equal(t, []string{SpeedDemon, NoHints}, ids(got))

	got = tr.Notify(p, game.Event{Kind: game.EventLevelCompleted, LevelID: 5, Elapsed: time.Hour, UsedHint: true, Final: true})
	require.Equal(t, []string{MasterHacker}, ids(got))
}

func TestNotifyCommandThresholds(t *testing.T) {
	tr := NewTracker(&profileSink{})
	p := newProfile(tr)

	require.Empty(t, tr.Notify(p, game.Event{Kind: game.EventCommandUsed, CommandCount: 19, DistinctCommands: 9}))
	require.Equal(t, []string{CommandMaster}, ids(tr.Notify(p, game.Event{Kind: game.EventCommandUsed, CommandCount: 19, DistinctCommands: 10})))
	require.Equal(t, []string{Persistence}, ids(tr.Notify(p, game.Event{Kind: game.EventCommandUsed, CommandCount: 20, DistinctCommands: 10})))
	require.Empty(t, tr.Notify(p, game.Event{Kind: game.EventHintUsed}))
}

func TestSeedKeepsUnlocksAndMigratesLegacyOnce(t *testing.T) {
	at := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	legacy := legacyFile{items: []game.Achievement{
		{ID: Explorer, Unlocked: true, UnlockedAt: &at},
		{ID: SpeedDemon, Unlocked: false},
	}}
	tr := NewTracker(&profileSink{}, WithLegacy(legacy))

	fresh := &game.PlayerProfile{PlayerName: "new"}
	tr.Seed(fresh, true)
	require.Len(t, fresh.Achievements, len(Catalog()))
	require.True(t, find(fresh, Explorer).Unlocked)
	require.Equal(t, at, *find(fresh, Explorer).UnlockedAt)
	require.False(t, find(fresh, SpeedDemon).Unlocked)

	existing := &game.PlayerProfile{PlayerName: "old", Achievements: []game.Achievement{{ID: NoHints, Unlocked: true, UnlockedAt: &at}, {ID: "retired"}}}
	tr.Seed(existing, false)
	require.Len(t, existing.Achievements, len(Catalog()))
	require.True(t, find(existing, NoHints).Unlocked)
	require.False(t, find(existing, Explorer).Unlocked)
	require.Nil(t, find(existing, "retired"))
}

func TestSeedIgnoresMissingLegacyFile(t *testing.T) {
	tr := NewTracker(&profileSink{}, WithLegacy(legacyFile{err: fs.ErrNotExist}))
	p := &game.PlayerProfile{PlayerName: "x"}
	tr.Seed(p, true)
	require.Empty(t, View(p).Unlocked)
}

func TestViewHidesLockedSecrets(t *testing.T) {
	tr := NewTracker(&profileSink{})
	p := newProfile(tr)
	b := View(p)
	require.Equal(t, 1, b.HiddenSecrets)
	require.Len(t, b.Locked, len(Catalog())-1)

	tr.Unlock(p, EasterEggHunter)
	b = View(p)
	require.Equal(t, 0, b.HiddenSecrets)
	require.Equal(t, []string{EasterEggHunter}, ids(b.Unlocked))
}

func ids(as []game.Achievement) []string {
	out := []string{}
	for _, a := range as {
		out = append(out, a.ID)
	}
	return out
}
