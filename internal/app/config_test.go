package app

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvUsesPrefix(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TERMESCAPE_DATA_DIR", dir)
	t.Setenv("TERMESCAPE_PLAIN", "true")
	t.Setenv("TERMESCAPE_THEME", "Retro")
	t.Setenv("THEME", "cozy")

	cfg := DefaultConfig()
	require.NoError(t, LoadEnv(&cfg))
	require.NoError(t, cfg.Validate())

	assert.Equal(t, dir, cfg.DataDir)
	assert.True(t, cfg.Plain)
	assert.Equal(t, "retro", cfg.Theme)
	assert.False(t, cfg.Sound)
}

func TestLoadEnvKeepsDefaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sound = true
	require.NoError(t, LoadEnv(&cfg))
	assert.True(t, cfg.Sound)
	assert.Equal(t, "neon", cfg.Theme)
}

func TestValidateRejectsUnknownTheme(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Theme = "vaporwave"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "neon")
}

func TestValidateDefaultsAndCleansPaths(t *testing.T) {
	cfg := Config{DataDir: filepath.Join(t.TempDir(), "a", "..", "b")}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "neon", cfg.Theme)
	assert.Equal(t, "b", filepath.Base(cfg.DataDir))

	cfg = Config{}
	require.NoError(t, cfg.Validate())
	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, appName, filepath.Base(cfg.DataDir))
}
