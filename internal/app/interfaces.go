package app

import (
	"termescape/internal/game"
	"termescape/internal/state"
)

// Sound is the audio trigger. Implementations must not block.
type Sound interface {
	Play(effect SoundEffect)
}

// Files is the JSON persistence the app needs beyond game.Store.
type Files interface {
	game.Store
	ListSaves() ([]state.SaveSummary, error)
	Leaderboard() (game.Leaderboard, error)
	LoadLegacyAchievements() ([]game.Achievement, error)
}

var _ Files = (*state.FileStore)(nil)
