package app

import (
	"io"
	"sync"
)

type SoundEffect string

const (
	SoundSuccess       SoundEffect = "success"
	SoundError         SoundEffect = "error"
	SoundLevelComplete SoundEffect = "level_complete"
	SoundAchievement   SoundEffect = "achievement"
)

// NewSound returns a terminal bell when enabled and a silent trigger
// otherwise.
func NewSound(enabled bool, w io.Writer) Sound {
	if !enabled || w == nil {
		return nopSound{}
	}
	return &bellSound{w: w}
}

type nopSound struct{}

func (nopSound) Play(SoundEffect) {}

type bellSound struct {
	mu sync.Mutex
	w  io.Writer
}

// Play rings the bell once for every effect except errors, which ring
// twice.
func (b *bellSound) Play(effect SoundEffect) {
	b.mu.Lock()
	defer b.mu.Unlock()
	seq := "\a"
	if effect == SoundError {
		seq = "\a\a"
	}
	_, _ = io.WriteString(b.w, seq)
}
