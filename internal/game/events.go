package game

import "time"

type EventKind string

const (
	EventLevelCompleted        EventKind = "level_completed"
	EventHintUsed              EventKind = "hint_used"
	EventCommandUsed           EventKind = "command_used"
	EventEasterEggFound        EventKind = "easter_egg_found"
	EventAllDirectoriesVisited EventKind = "all_directories_visited"
)

// Event carries everything an achievement rule may look at. Callers fill in
// the fields relevant to Kind; rules never reach back into level state.
type Event struct {
	Kind    EventKind
	LevelID int

	// level_completed
	Elapsed  time.Duration
	UsedHint bool
	Final    bool

	// command_used
	CommandCount     int
	DistinctCommands int
}
