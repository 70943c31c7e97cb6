package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"termescape/internal/achievements"
	"termescape/internal/game"
	"termescape/internal/levels"
	"termescape/internal/state"
	"termescape/internal/telemetry"
	"termescape/internal/term"
	"termescape/internal/ui"

	"github.com/google/uuid"
)

const (
	runsDB         = "runs.db"
	lastPlayerKey  = "last_player"
	storeTimeout   = 5 * time.Second
	defaultPrompt  = "> "
	continuePrompt = "Press Enter to continue..."
)

type Option func(*App)

// WithView replaces the view picked from Config.
func WithView(v ui.View) Option {
	return func(a *App) { a.view = v }
}

func WithClock(now func() time.Time) Option {
	return func(a *App) {
		if now != nil {
			a.now = now
		}
	}
}

func WithSound(s Sound) Option {
	return func(a *App) { a.sound = s }
}

type App struct {
	cfg Config

	logger  *telemetry.JSONLogger
	files   Files
	runs    state.RunStore
	session *game.Session
	tracker *achievements.Tracker
	view    ui.View
	sound   Sound
	now     func() time.Time

	sessionID string

	// mu serializes turns. Views call OnSubmit from their own goroutines.
	mu         sync.Mutex
	closed     bool
	screen     screen
	info       infoPage
	messages   []string
	saves      []state.SaveSummary
	lastPlayer string
	runID      int64

	// historyOwner is the player whose command history the view recalls.
	historyOwner string
}

func New(cfg Config, opts ...Option) (*App, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, err
	}

	logger, err := telemetry.NewJSONLogger(cfg.LogPath)
	if err != nil {
		return nil, err
	}

	files, err := state.NewFileStore(cfg.DataDir)
	if err != nil {
		_ = logger.Close()
		return nil, err
	}
	runs, err := state.NewSQLite(filepath.Join(cfg.DataDir, runsDB))
	if err != nil {
		_ = logger.Close()
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := runs.EnsureSchema(ctx); err != nil {
		_ = runs.Close()
		_ = logger.Close()
		return nil, err
	}

	registry, err := levels.Builtin()
	if err != nil {
		_ = runs.Close()
		_ = logger.Close()
		return nil, fmt.Errorf("load levels: %w", err)
	}

	a := &App{
		cfg:       cfg,
		logger:    logger,
		files:     files,
		runs:      runs,
		now:       time.Now,
		sessionID: uuid.NewString(),
		screen:    screenMainMenu,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.sound == nil {
		a.sound = NewSound(cfg.Sound, os.Stdout)
	}
	if a.view == nil {
		a.view = defaultView(cfg)
	}

	a.tracker = achievements.NewTracker(files,
		achievements.WithLegacy(files),
		achievements.WithClock(a.now),
		achievements.WithLogger(logger),
		achievements.WithNotifier(a.onUnlock),
	)
	a.session = game.NewSession(registry, files,
		game.WithClock(a.now),
		game.WithProfileHook(a.tracker.Seed),
	)

	if settings, err := runs.LoadSettings(ctx); err == nil {
		a.lastPlayer = settings[lastPlayerKey]
	} else {
		logger.Error("settings.load_failed", map[string]any{"error": err})
	}

	a.view.SetController(a)
	return a, nil
}

func defaultView(cfg Config) ui.View {
	if cfg.Plain {
		prompt := term.NewLinePrompt(os.Stdin, os.Stdout)
		return ui.NewPlain(prompt, os.Stdout, ui.PlainOptions{ASCIIOnly: cfg.ASCIIOnly})
	}
	return ui.New(ui.Options{
		ASCIIOnly:     cfg.ASCIIOnly,
		Debug:         cfg.Debug,
		Theme:         cfg.Theme,
		ReducedMotion: cfg.ReducedMotion,
	})
}

// Run shows the main menu and blocks until the player exits or ctx ends.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("app.start", map[string]any{"session": a.sessionID, "data_dir": a.cfg.DataDir, "plain": a.cfg.Plain})

	a.mu.Lock()
	a.render()
	a.mu.Unlock()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			a.OnQuit()
		case <-done:
		}
	}()
	return a.view.Run()
}

func (a *App) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.closed = true
	_ = a.runs.Close()
	a.logger.Info("app.stop", map[string]any{"session": a.sessionID})
	_ = a.logger.Close()
}

func (a *App) OnQuit() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.quit()
}

// quit autosaves an active game and stops the view. Callers hold a.mu.
func (a *App) quit() {
	if a.session.Active() && !a.session.Finished() {
		res := a.session.Save()
		a.logger.Info("game.autosave", map[string]any{"ok": res.OK, "message": res.Message})
	}
	a.view.Stop()
}

// OnSubmit runs one turn: the line is routed by the current screen and the
// resulting frame is pushed to the view.
func (a *App) OnSubmit(line string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}

	var flash string
	switch a.screen {
	case screenMainMenu:
		flash = a.handleMainMenu(line)
	case screenNewGame:
		flash = a.handleNewGame(line)
	case screenLoadGame:
		flash = a.handleLoadGame(line)
	case screenPlaying:
		flash = a.handlePlaying(line)
	case screenInfo:
		a.closeInfo()
	}
	if a.closed {
		return
	}
	a.render()
	if flash != "" {
		a.view.FlashStatus(flash)
	}
}

func (a *App) handleMainMenu(line string) string {
	input := strings.ToLower(strings.TrimSpace(line))
	if input == "" {
		return ""
	}
	choice, ok := menuChoice(input)
	if !ok {
		a.sound.Play(SoundError)
		return "Invalid option."
	}
	switch choice {
	case "New Game":
		a.screen = screenNewGame
	case "Load Game":
		saves, err := a.files.ListSaves()
		if err != nil {
			a.logger.Error("saves.list_failed", map[string]any{"error": err})
		}
		if len(saves) == 0 {
			return "No saved games found."
		}
		a.saves = saves
		a.screen = screenLoadGame
	case "Leaderboard":
		a.showInfo(a.leaderboardPage(), screenMainMenu)
	case "Achievements":
		a.showInfo(a.achievementsPage(), screenMainMenu)
	case "Stats":
		a.showInfo(a.statsPage(), screenMainMenu)
	case "Exit":
		a.logger.Info("app.exit", map[string]any{"session": a.sessionID})
		a.quit()
	}
	return ""
}

func (a *App) handleNewGame(line string) string {
	name := strings.TrimSpace(line)
	if name == "" {
		a.screen = screenMainMenu
		return "Name cannot be empty."
	}
	flash := ""
	if err := a.session.NewGame(name); err != nil {
		if !a.session.Active() {
			a.screen = screenMainMenu
			return err.Error()
		}
		a.logger.Error("profile.create_failed", map[string]any{"player": name, "error": err})
		flash = "Your profile could not be saved; achievements may be lost."
	}
	a.logger.Info("game.new", map[string]any{"player": name})
	a.rememberPlayer(name)
	a.messages = nil
	a.enterLevel()
	return flash
}

func (a *App) handleLoadGame(line string) string {
	input := strings.TrimSpace(line)
	n, err := strconv.Atoi(input)
	if err != nil || n <= 0 || n > len(a.saves) {
		a.screen = screenMainMenu
		return ""
	}
	name := a.saves[n-1].PlayerName
	res := a.session.Load(name)
	a.logger.Info("game.load", map[string]any{"player": name, "ok": res.OK, "message": res.Message})
	if !res.OK {
		a.sound.Play(SoundError)
		a.screen = screenMainMenu
		return res.Message
	}
	a.rememberPlayer(a.session.State().PlayerName)
	a.messages = nil
	if a.session.Finished() {
		a.showInfo(a.completePage(game.Completion{}), screenMainMenu)
		a.info.endGame = true
		return res.Message
	}
	a.enterLevel()
	return res.Message
}

// enterLevel initializes the current level, opens a run record and
// autosaves.
func (a *App) enterLevel() {
	l, ok := a.session.StartLevel()
	if !ok {
		a.logger.Error("level.missing", map[string]any{"level": a.currentLevelID()})
		a.session.End()
		a.screen = screenMainMenu
		return
	}
	a.screen = screenPlaying
	a.messages = append(a.messages, l.Description())

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	id, err := a.runs.StartLevelRun(ctx, state.LevelRun{
		SessionID: a.sessionID,
		Player:    a.session.State().PlayerName,
		LevelID:   l.ID(),
		StartTS:   a.now(),
	})
	if err != nil {
		a.logger.Error("run.start_failed", map[string]any{"level": l.ID(), "error": err})
	}
	a.runID = id
	if res := a.session.Save(); !res.OK {
		a.logger.Error("game.autosave_failed", map[string]any{"message": res.Message})
	}
	a.logger.Info("level.start", map[string]any{"level": l.ID(), "player": a.session.State().PlayerName})
}

func (a *App) handlePlaying(line string) string {
	l, ok := a.session.CurrentLevel()
	if !ok {
		a.logger.Error("playing.no_level", map[string]any{"level": a.currentLevelID()})
		a.session.End()
		a.screen = screenMainMenu
		return "No active level. Returned to the main menu."
	}
	input := strings.TrimSpace(line)
	if input == "" {
		return ""
	}
	if strings.HasPrefix(input, "/") {
		return a.handleSlash(l, input)
	}

	gs := a.session.State()
	res := l.HandleInput(gs, input)
	p := a.session.RecordCommand(input)
	a.recordRun(a.runs.RecordCommand)
	a.messages = splitMessage(res.Message)

	profile := a.session.Profile()
	a.tracker.Notify(profile, game.Event{
		Kind:             game.EventCommandUsed,
		LevelID:          l.ID(),
		CommandCount:     p.CommandCount,
		DistinctCommands: p.DistinctCommands(),
	})
	for _, kind := range res.Events {
		a.tracker.Notify(profile, game.Event{Kind: kind, LevelID: l.ID()})
	}

	if res.Completed {
		return a.completeLevel(l, res)
	}
	return ""
}

func (a *App) handleSlash(l game.Level, input string) string {
	fields := strings.Fields(strings.ToLower(input))
	switch strings.TrimPrefix(fields[0], "/") {
	case "help":
		a.showInfo(helpPage(), screenPlaying)
	case "save":
		res := a.session.Save()
		a.logger.Info("game.save", map[string]any{"ok": res.OK, "message": res.Message})
		if err := a.session.SaveProfile(); err != nil {
			a.logger.Error("profile.save_failed", map[string]any{"error": err})
		}
		if res.OK {
			a.sound.Play(SoundSuccess)
		} else {
			a.sound.Play(SoundError)
		}
		return res.Message
	case "hint":
		hint, n, ok := a.session.NextHint()
		if !ok {
			a.messages = []string{"No more hints available for this level."}
			return ""
		}
		a.messages = []string{fmt.Sprintf("Hint %d/%d: %s", n, len(l.Hints()), hint)}
		a.recordRun(a.runs.RecordHint)
		a.tracker.Notify(a.session.Profile(), game.Event{Kind: game.EventHintUsed, LevelID: l.ID()})
	case "map":
		a.showInfo(a.mapPage(), screenPlaying)
	case "achievements":
		a.showInfo(a.achievementsPage(), screenPlaying)
	case "menu":
		if res := a.session.Save(); !res.OK {
			a.logger.Error("game.autosave_failed", map[string]any{"message": res.Message})
		}
		a.session.End()
		a.runID = 0
		a.screen = screenMainMenu
		return "Game saved. Load it from the main menu to continue."
	case "quit":
		a.quit()
	default:
		return fmt.Sprintf("Unknown command %s. Type /help for the list.", fields[0])
	}
	return ""
}

// completeLevel runs the completion flow for l and routes to the next
// screen per res.Next.
func (a *App) completeLevel(l game.Level, res game.Result) string {
	c, err := a.session.CompleteCurrentLevel()
	flash := ""
	if err != nil {
		a.logger.Error("level.complete_persist_failed", map[string]any{"level": c.LevelID, "error": err})
		flash = "Progress could not be saved: " + err.Error()
	}
	a.logger.Info("level.complete", map[string]any{
		"level":     c.LevelID,
		"elapsed":   c.Elapsed.String(),
		"used_hint": c.UsedHint,
		"final":     c.Final,
	})

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if a.runID != 0 {
		if err := a.runs.CompleteLevelRun(ctx, a.runID, c.Elapsed, a.now()); err != nil {
			a.logger.Error("run.complete_failed", map[string]any{"level": c.LevelID, "error": err})
		}
	}
	a.runID = 0

	a.tracker.Notify(a.session.Profile(), game.Event{
		Kind:     game.EventLevelCompleted,
		LevelID:  c.LevelID,
		Elapsed:  c.Elapsed,
		UsedHint: c.UsedHint,
		Final:    c.Final,
	})
	a.sound.Play(SoundLevelComplete)

	switch {
	case a.session.Finished():
		a.showInfo(a.completePage(c), screenMainMenu)
		a.info.endGame = true
	case res.Next == game.MainMenu:
		a.session.End()
		a.screen = screenMainMenu
		if flash == "" {
			flash = fmt.Sprintf("%s complete!", l.Name())
		}
	case res.Next == game.NextLevel:
		a.messages = append(a.messages, "", fmt.Sprintf("Level %d complete in %s.", c.LevelID, game.FormatDuration(c.Elapsed)), "")
		a.enterLevel()
	default:
		a.enterLevel()
	}
	return flash
}

func (a *App) showInfo(p infoPage, back screen) {
	p.back = back
	a.info = p
	a.screen = screenInfo
}

func (a *App) closeInfo() {
	if a.info.endGame {
		a.session.End()
		a.messages = nil
	}
	a.screen = a.info.back
	a.info = infoPage{}
}

// onUnlock is the tracker notifier. It runs inside a turn.
func (a *App) onUnlock(ach game.Achievement) {
	a.sound.Play(SoundAchievement)
	a.view.Toast(strings.TrimSpace(ach.Icon+" "+ach.Name), ach.Description)
}

func (a *App) recordRun(fn func(context.Context, int64) error) {
	if a.runID == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := fn(ctx, a.runID); err != nil {
		a.logger.Error("run.update_failed", map[string]any{"run": a.runID, "error": err})
	}
}

func (a *App) rememberPlayer(name string) {
	a.lastPlayer = name
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := a.runs.SaveSettings(ctx, map[string]string{lastPlayerKey: name}); err != nil {
		a.logger.Error("settings.save_failed", map[string]any{"error": err})
	}
}

// currentProfile is the attached profile, or the last player's profile
// read from disk when no game has been started yet.
func (a *App) currentProfile() *game.PlayerProfile {
	if p := a.session.Profile(); p != nil {
		return p
	}
	if a.lastPlayer == "" {
		return nil
	}
	p, err := a.files.LoadProfile(a.lastPlayer)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			a.logger.Error("profile.load_failed", map[string]any{"player": a.lastPlayer, "error": err})
		}
		return nil
	}
	a.tracker.Seed(p, false)
	return p
}

func (a *App) currentLevelID() int {
	if gs := a.session.State(); gs != nil {
		return gs.CurrentLevel
	}
	return 0
}

func splitMessage(msg string) []string {
	msg = strings.TrimRight(msg, "\n")
	if msg == "" {
		return nil
	}
	return strings.Split(msg, "\n")
}
