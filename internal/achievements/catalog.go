package achievements

import "termescape/internal/game"

const (
	FirstSteps      = "first_steps"
	SpeedDemon      = "speed_demon"
	NoHints         = "no_hints"
	CommandMaster   = "command_master"
	Persistence     = "persistence"
	Explorer        = "explorer"
	EasterEggHunter = "easter_egg_hunter"
	MasterHacker    = "master_hacker"
)

var catalog = []game.Achievement{
	{ID: FirstSteps, Name: "First Steps", Description: "Complete your first level", Icon: "🏆"},
	{ID: SpeedDemon, Name: "Speed Demon", Description: "Complete a level in under 60 seconds", Icon: "⚡"},
	{ID: NoHints, Name: "Solo Hacker", Description: "Complete a level without using hints", Icon: "🧠"},
	{ID: CommandMaster, Name: "Command Master", Description: "Use at least 10 different commands in one level", Icon: "💻"},
	{ID: Persistence, Name: "Persistence", Description: "Try at least 20 commands in a single level", Icon: "🔨"},
	{ID: Explorer, Name: "Explorer", Description: "Visit all directories in a file system level", Icon: "🧭"},
	{ID: EasterEggHunter, Name: "Easter Egg Hunter", Description: "Find a hidden secret", Icon: "🥚", Secret: true},
	{ID: MasterHacker, Name: "Master Hacker", Description: "Complete the game", Icon: "👑"},
}

// Catalog returns a fresh, all-locked copy of every achievement.
func Catalog() []game.Achievement {
	return append([]game.Achievement(nil), catalog...)
}

func lookup(id string) (game.Achievement, bool) {
	for _, a := range catalog {
		if a.ID == id {
			return a, true
		}
	}
	return game.Achievement{}, false
}
