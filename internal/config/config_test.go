package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/xtop/internal/ranking"
)

func TestDefaultMatchesRankingDefaults(t *testing.T) {
	opts := Default().RankingOptions()

	assert.Equal(t, ranking.DefaultOptions(), opts)
	require.NoError(t, opts.Validate())
}

func TestLoadFromKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
usernames = ["jack", "nasa"]

[ranking]
top_n = 5
window = "48h"

[capture]
last_only = true
scroll_pause = "1500ms"
`), 0600))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"jack", "nasa"}, cfg.Usernames)
	opts := cfg.RankingOptions()
	assert.Equal(t, 5, opts.TopN)
	assert.Equal(t, 48*time.Hour, opts.Window)
	assert.Equal(t, time.Hour, opts.FutureSkew)
	assert.Equal(t, 2007, opts.MinYear)
	assert.Equal(t, "https://x.com", opts.BaseURL)
	assert.True(t, opts.LastOnly)
	assert.Equal(t, 1500*time.Millisecond, cfg.Capture.ScrollPause.Duration)
	assert.Equal(t, 25, cfg.Capture.Scrolls)
}

func TestLoadFromRejectsBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[ranking]\nwindow = \"a day\"\n"), 0600))

	_, err := LoadFrom(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	t.Setenv(EnvConfigPath, path)

	cfg := Default()
	cfg.Usernames = []string{"jack"}
	cfg.Ranking.Window = Duration{12 * time.Hour}
	require.NoError(t, cfg.Save())

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestStoragePathOverrides(t *testing.T) {
	cfg := Default()
	cfg.Storage.DBPath = "/tmp/x.db"
	cfg.Storage.DataDir = "/tmp/data"

	db, err := cfg.DBPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.db", db)

	dir, err := cfg.DataDir()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/data", dir)
}

func TestEmailPassword(t *testing.T) {
	t.Setenv(EnvSMTPPassword, "from-env")

	e := Default().Email
	assert.Equal(t, "from-env", e.Password())

	e.SMTPPass = "from-file"
	assert.Equal(t, "from-file", e.Password())
}
