package game

import (
	"fmt"
	"time"
)

type NextAction int

const (
	Stay NextAction = iota
	NextLevel
	MainMenu
)

func (a NextAction) String() string {
	switch a {
	case NextLevel:
		return "next_level"
	case MainMenu:
		return "main_menu"
	default:
		return "stay"
	}
}

// Result is the outcome of one line of input inside a level.
type Result struct {
	Completed bool
	Message   string
	Next      NextAction
	// Events lists game events the level wants the achievement tracker to see.
	Events []EventKind
}

type GameState struct {
	PlayerName      string                 `json:"playerName"`
	CurrentLevel    int                    `json:"currentLevel"`
	StartTime       time.Time              `json:"startTime"`
	LastSaveTime    time.Time              `json:"lastSaveTime"`
	CompletedLevels []int                  `json:"completedLevels"`
	Inventory       []string               `json:"inventory"`
	LevelStates     LevelStates            `json:"levelStates"`
	Progress        map[int]*LevelProgress `json:"progress"`
}

// LevelProgress is bookkeeping shared by every level: timing, hints and
// command usage. Achievement rules read it through explicit events.
type LevelProgress struct {
	StartedAt    time.Time      `json:"startedAt"`
	HintIndex    int            `json:"hintIndex"`
	UsedHint     bool           `json:"usedHint"`
	CommandCount int            `json:"commandCount"`
	Commands     map[string]int `json:"commands"`
}

func (p *LevelProgress) DistinctCommands() int {
	if p == nil {
		return 0
	}
	return len(p.Commands)
}

// HasCompleted reports whether id is in the completed list.
func (gs *GameState) HasCompleted(id int) bool {
	for _, done := range gs.CompletedLevels {
		if done == id {
			return true
		}
	}
	return false
}

// normalize replaces nil collections left behind by older or hand-edited
// save files.
func (gs *GameState) normalize() {
	if gs.CompletedLevels == nil {
		gs.CompletedLevels = []int{}
	}
	if gs.Inventory == nil {
		gs.Inventory = []string{}
	}
	if gs.Progress == nil {
		gs.Progress = map[int]*LevelProgress{}
	}
	for id, p := range gs.Progress {
		if p == nil {
			delete(gs.Progress, id)
			continue
		}
		if p.Commands == nil {
			p.Commands = map[string]int{}
		}
	}
}

type PlayerProfile struct {
	PlayerName      string        `json:"playerName"`
	Achievements    []Achievement `json:"achievements"`
	LastPlayed      time.Time     `json:"lastPlayed"`
	TotalPlayTime   int64         `json:"totalPlayTime"` // milliseconds
	CompletedLevels []int         `json:"completedLevels"`
}

func (p PlayerProfile) PlayTime() time.Duration {
	return time.Duration(p.TotalPlayTime) * time.Millisecond
}

func (p *PlayerProfile) AddPlayTime(d time.Duration) {
	p.TotalPlayTime += d.Milliseconds()
}

// Achievement merges the static catalog entry with the player's unlock
// record.
type Achievement struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Icon        string     `json:"icon"`
	Secret      bool       `json:"secret,omitempty"`
	Unlocked    bool       `json:"unlocked"`
	UnlockedAt  *time.Time `json:"unlockedAt,omitempty"`
}

type LeaderboardEntry struct {
	PlayerName     string `json:"playerName"`
	CompletionTime int64  `json:"completionTime"`
	CompletionDate string `json:"completionDate"`
}

func (e LeaderboardEntry) Duration() time.Duration {
	return time.Duration(e.CompletionTime) * time.Millisecond
}

type Leaderboard struct {
	Players []LeaderboardEntry `json:"players"`
}

// FormatDuration renders d as "Xh Ym Zs".
func FormatDuration(d time.Duration) string {
	secs := int64(d / time.Second)
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%dh %dm %ds", secs/3600, (secs/60)%60, secs%60)
}
