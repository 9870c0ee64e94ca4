package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "mastodon", cfg.Remote.Backend)
	assert.Equal(t, 20, cfg.Remote.PageSize)
	assert.Equal(t, 3*time.Second, cfg.Timeline.RetryDelay)
	assert.Equal(t, 60*time.Second, cfg.Timeline.RateLimitDelay)
	assert.Equal(t, 100*time.Millisecond, cfg.Timeline.ProjectionDebounce)
	assert.Equal(t, 1, cfg.Timeline.MaxAutoRetries)
	assert.Equal(t, "append", cfg.Timeline.Insert)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "skipped", cfg.Storage.ArchivePrefix)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("TIMELINE_PAGE_SIZE", "50")
	t.Setenv("TIMELINE_RETRY_DELAY", "250ms")
	t.Setenv("REMOTE_BACKEND", "twitter")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Timeline.PageSize)
	assert.Equal(t, 250*time.Millisecond, cfg.Timeline.RetryDelay)
	assert.Equal(t, "twitter", cfg.Remote.Backend)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LOG_LEVEL=debug\nTIMELINE_INSERT=prepend\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("LOG_LEVEL")
		os.Unsetenv("TIMELINE_INSERT")
	})

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "prepend", cfg.Timeline.Insert)
}
