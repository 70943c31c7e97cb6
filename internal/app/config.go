package app

import (
	"fmt"
	"path/filepath"
	"strings"

	"termescape/internal/ui"

	"github.com/caarlos0/env/v11"
	"github.com/mitchellh/go-homedir"
	gap "github.com/muesli/go-app-paths"
)

const appName = "termescape"

// Config controls runtime behavior of the game.
type Config struct {
	DataDir string `env:"DATA_DIR"`
	LogPath string `env:"LOG_FILE"`
	// Plain selects the line-oriented view. It is forced on when stdin is
	// not a terminal.
	Plain     bool   `env:"PLAIN"`
	ASCIIOnly bool   `env:"ASCII"`
	Theme     string `env:"THEME"`
	Sound     bool   `env:"SOUND"`
	// ReducedMotion disables the toast slide animation.
	ReducedMotion bool `env:"REDUCED_MOTION"`
	Debug         bool `env:"DEBUG"`
}

func DefaultConfig() Config {
	return Config{
		Theme: ui.ThemeNeon,
	}
}

// LoadEnv overlays TERMESCAPE_* environment variables onto c. Unset
// variables leave the current value alone.
func LoadEnv(c *Config) error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: "TERMESCAPE_"}); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	c.Theme = strings.ToLower(strings.TrimSpace(c.Theme))
	switch c.Theme {
	case "":
		c.Theme = ui.ThemeNeon
	case ui.ThemeNeon, ui.ThemeCozy, ui.ThemeRetro:
	default:
		return fmt.Errorf("invalid theme %q (want one of %s)", c.Theme, strings.Join(ui.ThemeNames(), ", "))
	}

	if strings.TrimSpace(c.DataDir) == "" {
		dir, err := gap.NewScope(gap.User, appName).DataPath("")
		if err != nil {
			return fmt.Errorf("resolve data directory: %w", err)
		}
		c.DataDir = dir
	}
	dir, err := homedir.Expand(c.DataDir)
	if err != nil {
		return fmt.Errorf("expand data directory %q: %w", c.DataDir, err)
	}
	c.DataDir = filepath.Clean(dir)

	if c.LogPath != "" {
		p, err := homedir.Expand(c.LogPath)
		if err != nil {
			return fmt.Errorf("expand log path %q: %w", c.LogPath, err)
		}
		c.LogPath = filepath.Clean(p)
	}
	return nil
}
