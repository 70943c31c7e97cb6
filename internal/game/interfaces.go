package game

// Level is one puzzle stage. Implementations keep all mutable data inside
// the GameState they are handed; the Level value itself never changes after
// registration.
type Level interface {
	ID() int
	Name() string
	Description() string
	Hints() []string
	// Initialize prepares the level's state record. Calling it again must not
	// discard progress already recorded.
	Initialize(gs *GameState)
	// Render describes the current level state. It must not mutate gs.
	Render(gs *GameState) []string
	HandleInput(gs *GameState, input string) Result
}

// Store persists saves, profiles and the leaderboard.
type Store interface {
	SaveGame(gs GameState) error
	LoadGame(name string) (*GameState, error)
	LoadProfile(name string) (*PlayerProfile, error)
	SaveProfile(p PlayerProfile) error
	AddLeaderboardEntry(entry LeaderboardEntry) error
}
