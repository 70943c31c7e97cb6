package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"termescape/internal/achievements"
	"termescape/internal/game"
	"termescape/internal/ui"

	"github.com/dustin/go-humanize"
)

const (
	gameTitle     = "Terminal Escape"
	leaderboardN  = 10
	playingStatus = "/help  /save  /hint  /map  /achievements  /menu  /quit"
)

const helpMarkdown = `# Help

Terminal Escape is a puzzle game where you solve Linux-themed challenges.

## Special commands

- ` + "`/help`" + ` show this help screen
- ` + "`/save`" + ` save your game
- ` + "`/hint`" + ` reveal the next hint for the current level
- ` + "`/map`" + ` show your progress through the levels
- ` + "`/achievements`" + ` list achievements
- ` + "`/menu`" + ` save and return to the main menu
- ` + "`/quit`" + ` save and exit

Each level has its own commands and puzzles to solve. Try ` + "`help`" + ` or
` + "`ls`" + ` when you are stuck.
`

// render pushes the frame for the current screen. Callers hold a.mu.
func (a *App) render() {
	owner := ""
	if gs := a.session.State(); gs != nil {
		owner = gs.PlayerName
	}
	if owner != a.historyOwner {
		a.historyOwner = owner
		a.view.SetHistoryOwner(owner)
	}
	a.view.SetFrame(a.frame())
}

func (a *App) frame() ui.Frame {
	switch a.screen {
	case screenNewGame:
		return ui.Frame{
			Title:  "New Game",
			Body:   []string{"Enter your name to start a new escape.", "Leave it empty to go back."},
			Prompt: "Enter your name: ",
		}
	case screenLoadGame:
		return a.loadFrame()
	case screenPlaying:
		return a.playingFrame()
	case screenInfo:
		return ui.Frame{
			Title:    a.info.title,
			Body:     a.info.body,
			Markdown: a.info.markdown,
			Prompt:   continuePrompt,
		}
	default:
		return a.mainMenuFrame()
	}
}

func (a *App) mainMenuFrame() ui.Frame {
	body := []string{"A Linux Terminal Escape Room Game", ""}
	for _, item := range mainMenu {
		body = append(body, fmt.Sprintf("%s. %s", item.key, item.label))
	}
	f := ui.Frame{
		Title:  gameTitle + " - Main Menu",
		Body:   body,
		Prompt: "Select an option: ",
	}
	if a.lastPlayer != "" {
		f.Status = "Last player: " + a.lastPlayer
	}
	return f
}

func (a *App) loadFrame() ui.Frame {
	body := []string{"Available saves:", ""}
	for i, s := range a.saves {
		body = append(body, fmt.Sprintf("%d. %s  (level %d, %d completed, saved %s)",
			i+1, s.PlayerName, s.CurrentLevel, s.CompletedLevels, humanize.Time(s.LastSaveTime)))
	}
	body = append(body, "", "0. Cancel")
	return ui.Frame{
		Title:  "Load Game",
		Body:   body,
		Prompt: "Select a save to load (or 0 to cancel): ",
	}
}

func (a *App) playingFrame() ui.Frame {
	gs := a.session.State()
	l, ok := a.session.CurrentLevel()
	if gs == nil || !ok {
		return a.mainMenuFrame()
	}
	reg := a.session.Registry()
	body := []string{
		fmt.Sprintf("Player: %s    Level: %d/%d", gs.PlayerName, gs.CurrentLevel, reg.Last()),
		"",
	}
	body = append(body, l.Render(gs)...)
	return ui.Frame{
		Title:     fmt.Sprintf("%s - %s", strings.ToUpper(gameTitle), l.Name()),
		Body:      body,
		Messages:  a.messages,
		Prompt:    defaultPrompt,
		Status:    playingStatus,
		Playing:   true,
		Completed: len(gs.CompletedLevels),
		Total:     reg.Len(),
	}
}

func helpPage() infoPage {
	return infoPage{title: "Help", markdown: helpMarkdown}
}

// mapPage draws the level list with the current game's progress.
func (a *App) mapPage() infoPage {
	gs := a.session.State()
	all := a.session.Registry().All()
	done, current := 0, 0
	if gs != nil {
		done, current = len(gs.CompletedLevels), gs.CurrentLevel
	}

	icons := [3]string{"✓", "▶", "🔒"}
	if a.cfg.ASCIIOnly {
		icons = [3]string{"[x]", "[>]", "[ ]"}
	}
	var body []string
	for i, l := range all {
		icon := icons[2]
		switch {
		case gs != nil && gs.HasCompleted(l.ID()):
			icon = icons[0]
		case l.ID() == current:
			icon = icons[1]
		}
		body = append(body, fmt.Sprintf("%s Level %2d  %s", icon, l.ID(), l.Name()))
		if i < len(all)-1 {
			body = append(body, "      |")
		}
	}
	pct := 0
	if len(all) > 0 {
		pct = done * 100 / len(all)
	}
	body = append(body, "", fmt.Sprintf("Overall Progress: %d/%d levels completed (%d%%)", done, len(all), pct))
	return infoPage{title: "Progress Map", body: body}
}

func (a *App) achievementsPage() infoPage {
	p := a.currentProfile()
	if p == nil {
		return infoPage{title: "Achievements", body: []string{"No player profile yet. Start a new game to begin earning achievements."}}
	}
	b := achievements.View(p)
	total := len(b.Unlocked) + len(b.Locked) + b.HiddenSecrets
	body := []string{fmt.Sprintf("%s: %d/%d unlocked", p.PlayerName, len(b.Unlocked), total), ""}
	if len(b.Unlocked) > 0 {
		body = append(body, "Unlocked:")
		for _, ach := range b.Unlocked {
			when := ""
			if ach.UnlockedAt != nil {
				when = " (" + humanize.Time(*ach.UnlockedAt) + ")"
			}
			body = append(body, fmt.Sprintf("  %s %s - %s%s", ach.Icon, ach.Name, ach.Description, when))
		}
		body = append(body, "")
	}
	if len(b.Locked) > 0 {
		body = append(body, "Locked:")
		for _, ach := range b.Locked {
			body = append(body, fmt.Sprintf("  %s - %s", ach.Name, ach.Description))
		}
		body = append(body, "")
	}
	if b.HiddenSecrets > 0 {
		body = append(body, fmt.Sprintf("Secret achievements: %d hidden", b.HiddenSecrets))
	}
	return infoPage{title: "Achievements", body: body}
}

func (a *App) leaderboardPage() infoPage {
	lb, err := a.files.Leaderboard()
	if err != nil {
		a.logger.Error("leaderboard.read_failed", map[string]any{"error": err})
	}
	if len(lb.Players) == 0 {
		return infoPage{title: "Leaderboard", body: []string{"No entries yet. Be the first to complete the game!"}}
	}
	body := []string{"Top Players:", ""}
	for i, e := range lb.Players {
		if i == leaderboardN {
			break
		}
		line := fmt.Sprintf("%2d. %s - %s", i+1, e.PlayerName, game.FormatDuration(e.Duration()))
		if at, err := time.Parse(time.RFC3339, e.CompletionDate); err == nil {
			line += " (" + humanize.Time(at) + ")"
		}
		body = append(body, line)
	}
	return infoPage{title: "Leaderboard", body: body}
}

func (a *App) statsPage() infoPage {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	body := []string{}
	sum, err := a.runs.GetSummary(ctx)
	if err != nil {
		a.logger.Error("stats.summary_failed", map[string]any{"error": err})
		return infoPage{title: "Stats", body: []string{"Stats are unavailable right now."}}
	}
	body = append(body,
		fmt.Sprintf("Level runs:   %s", humanize.Comma(int64(sum.LevelRuns))),
		fmt.Sprintf("Commands:     %s", humanize.Comma(int64(sum.Commands))),
		fmt.Sprintf("Hints used:   %s", humanize.Comma(int64(sum.Hints))),
		fmt.Sprintf("Completions:  %s", humanize.Comma(int64(sum.Completions))),
	)
	player := ""
	if p := a.currentProfile(); p != nil {
		player = p.PlayerName
		body = append(body, fmt.Sprintf("Play time:    %s (%s)", game.FormatDuration(p.PlayTime()), p.PlayerName))
	}

	best, err := a.runs.BestTimes(ctx, player)
	if err != nil {
		a.logger.Error("stats.best_times_failed", map[string]any{"player": player, "error": err})
	}
	if len(best) > 0 {
		heading := "Best times (all players):"
		if player != "" {
			heading = fmt.Sprintf("Best times for %s:", player)
		}
		body = append(body, "", heading)
		ids := make([]int, 0, len(best))
		for id := range best {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		for _, id := range ids {
			b := best[id]
			name := fmt.Sprintf("Level %d", id)
			if l, ok := a.session.Registry().Get(id); ok {
				name = l.Name()
			}
			body = append(body, fmt.Sprintf("  %-22s %s  (cleared %dx, last %s)",
				name, game.FormatDuration(b.Best), b.Clears, humanize.Time(b.LastCleared)))
		}
	}

	if last, err := a.runs.GetLastRun(ctx); err != nil {
		a.logger.Error("stats.last_run_failed", map[string]any{"error": err})
	} else if last != nil {
		status := "in progress"
		if last.Completed {
			status = "completed"
		}
		body = append(body, "", fmt.Sprintf("Last run: %s on level %d, started %s, %s",
			last.Player, last.LevelID, humanize.Time(last.StartTS), status))
	}
	return infoPage{title: "Stats", body: body}
}

// completePage congratulates the player once the last level is done.
func (a *App) completePage(c game.Completion) infoPage {
	gs := a.session.State()
	body := []string{"Congratulations! You have completed all levels!", ""}
	if gs != nil {
		total := c.GameTime
		if total == 0 {
			total = gs.LastSaveTime.Sub(gs.StartTime)
		}
		body = append(body, fmt.Sprintf("Player: %s", gs.PlayerName), fmt.Sprintf("Total time: %s", game.FormatDuration(total)))
	}
	if c.AllComplete {
		body = append(body, "", "Your time has been added to the leaderboard.")
	}
	body = append(body, "", "Press Enter to return to the main menu.")
	return infoPage{title: "You Escaped!", body: body}
}
