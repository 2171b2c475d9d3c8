package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimal = `
telegram:
  token: t
movies:
  kinopoisk_token: k
`

func load(t *testing.T, body string) (*Config, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return Load(path)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(t, minimal)
	require.NoError(t, err)

	assert.Equal(t, ProviderKinopoisk, cfg.Movies.Provider)
	assert.Empty(t, cfg.Movies.Fallback)
	assert.Equal(t, "ru-RU", cfg.Movies.Language)
	assert.Equal(t, 10, cfg.Movies.TimeoutSeconds)
	assert.Equal(t, 5, cfg.Movies.SearchLimit)
	assert.Equal(t, 30, cfg.Broadcast.DelayMS)
	assert.Equal(t, 50, cfg.Broadcast.ProgressEvery)
	assert.Equal(t, 3, cfg.Broadcast.MaxRetries)
	assert.Equal(t, DefaultDailyStatsCron, cfg.Reports.DailyStatsCron)
	assert.Equal(t, DefaultSessionSweep, cfg.Reports.SessionSweep)
	assert.Equal(t, time.UTC, cfg.Reports.Location())
	assert.Equal(t, 24*time.Hour, cfg.Redis.TTL())
	assert.Equal(t, 2*time.Hour, cfg.Reports.MaxIdle())
	assert.Equal(t, "longpoll", cfg.Telegram.RunMode)
	assert.Same(t, &cfg.Config, cfg.CoreConfig())
}

func TestLoadProviders(t *testing.T) {
	cfg, err := load(t, minimal+`  provider: TMDB
  tmdb_api_key: x
  fallback: kinopoisk
`)
	require.NoError(t, err)
	assert.Equal(t, ProviderTMDB, cfg.Movies.Provider)
	assert.Equal(t, ProviderKinopoisk, cfg.Movies.Fallback)

	cfg, err = load(t, minimal+"  fallback: kinopoisk\n")
	require.NoError(t, err)
	assert.Empty(t, cfg.Movies.Fallback, "fallback equal to primary is dropped")

	_, err = load(t, minimal+"  provider: tmdb\n")
	assert.ErrorContains(t, err, "tmdb_api_key")

	_, err = load(t, minimal+"  provider: imdb\n")
	assert.ErrorContains(t, err, "imdb")
}

func TestLoadRejectsBadSchedules(t *testing.T) {
	_, err := load(t, minimal+"reports:\n  daily_stats_cron: \"every day\"\n")
	assert.ErrorContains(t, err, "daily_stats_cron")

	_, err = load(t, minimal+"reports:\n  timezone: Mars/Olympus\n")
	assert.ErrorContains(t, err, "timezone")

	_, err = load(t, minimal+"redis:\n  session_ttl: forever\n")
	assert.ErrorContains(t, err, "session_ttl")
}

func TestLoadDisabledJobs(t *testing.T) {
	cfg, err := load(t, minimal+"reports:\n  daily_stats_cron: \"off\"\n  session_sweep: Disabled\n")
	require.NoError(t, err)
	assert.True(t, IsDisabled(cfg.Reports.DailyStatsCron))
	assert.True(t, IsDisabled(cfg.Reports.SessionSweep))
	assert.False(t, IsDisabled(DefaultDailyStatsCron))
}

func TestEnvOverridesProviderToken(t *testing.T) {
	t.Setenv("KNP_TOKEN", "env-token")
	cfg, err := load(t, minimal)
	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.Movies.KinopoiskToken)
}
