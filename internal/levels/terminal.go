package levels

import (
	"fmt"
	"strings"

	"termescape/internal/game"
)

// Terminal is the locked-terminal password level.
type Terminal struct {
	meta
	spec TerminalSpec
}

var terminalCommands = []string{"look", "check", "enter"}

func (l *Terminal) Initialize(gs *game.GameState) {
	if gs.LevelStates.Terminal == nil {
		gs.LevelStates.Terminal = &game.TerminalState{}
	}
}

func (l *Terminal) Render(gs *game.GameState) []string {
	st := gs.LevelStates.Terminal
	if st == nil {
		st = &game.TerminalState{}
	}
	lines := []string{
		"You find yourself in a dimly lit room with a computer terminal.",
		"The screen shows a password prompt, and you need to get in.",
		"",
		"The terminal reads:",
		"",
		"  ╔════════════════════════════════════╗",
		"  ║ SYSTEM LOCKED                      ║",
		"  ║                                    ║",
		"  ║ Enter password:                    ║",
		"  ║ Hint: The admin loves penguins     ║",
		"  ╚════════════════════════════════════╝",
		"",
	}
	if st.FoundClue1 {
		lines = append(lines, l.spec.DeskClue)
	}
	if st.FoundClue2 {
		lines = append(lines, l.spec.DrawerClue)
	}
	if st.Attempts > 0 {
		lines = append(lines, fmt.Sprintf("Failed attempts: %d", st.Attempts))
	}
	return append(lines, "", `Commands: "look around", "check desk", "check drawer", "enter [password]"`)
}

func (l *Terminal) HandleInput(gs *game.GameState, input string) game.Result {
	l.Initialize(gs)
	st := gs.LevelStates.Terminal
	line := strings.ToLower(strings.TrimSpace(input))

	switch {
	case line == "look around":
		return stay(l.spec.Look)
	case line == "check desk":
		st.FoundClue1 = true
		return stay(l.spec.DeskClue)
	case line == "check drawer":
		st.FoundClue2 = true
		return stay(l.spec.DrawerClue)
	case line == "enter":
		return stay("Usage: enter [password]")
	case strings.HasPrefix(line, "enter "):
		password := strings.TrimSpace(strings.TrimPrefix(line, "enter "))
		st.Attempts++
		if password == l.spec.Password {
			return game.Result{
				Completed: true,
				Message:   "Access granted! The terminal unlocks, revealing the next challenge.",
				Next:      game.NextLevel,
			}
		}
		return stay(fmt.Sprintf("Incorrect password. The system rejects your attempt. (Attempt %d)", st.Attempts))
	}
	name, _, _ := strings.Cut(line, " ")
	return unknown("Unknown command. Try something else.", name, terminalCommands)
}
