package app

type screen int

const (
	screenMainMenu screen = iota
	screenNewGame
	screenLoadGame
	screenPlaying
	// screenInfo shows a read-only page and returns to infoPage.back on any
	// input.
	screenInfo
)

func (s screen) String() string {
	switch s {
	case screenNewGame:
		return "new_game"
	case screenLoadGame:
		return "load_game"
	case screenPlaying:
		return "playing"
	case screenInfo:
		return "info"
	default:
		return "main_menu"
	}
}

type infoPage struct {
	title    string
	body     []string
	markdown string
	back     screen
	// endGame drops the active game when the page is dismissed.
	endGame bool
}

type menuItem struct {
	key   string
	label string
	alias []string
}

var mainMenu = []menuItem{
	{key: "1", label: "New Game", alias: []string{"new", "n"}},
	{key: "2", label: "Load Game", alias: []string{"load", "l"}},
	{key: "3", label: "Leaderboard", alias: []string{"leaderboard", "scores"}},
	{key: "4", label: "Achievements", alias: []string{"achievements", "a"}},
	{key: "5", label: "Stats", alias: []string{"stats", "s"}},
	{key: "6", label: "Exit", alias: []string{"exit", "quit", "q"}},
}

// menuChoice resolves lowercased input to a main menu label by number or
// alias.
func menuChoice(input string) (string, bool) {
	for _, item := range mainMenu {
		if input == item.key {
			return item.label, true
		}
		for _, a := range item.alias {
			if input == a {
				return item.label, true
			}
		}
	}
	return "", false
}
