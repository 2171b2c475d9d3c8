// Package config loads the kinobot configuration: the shared core sections
// plus database, Redis, movie provider, broadcast and report settings.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	coreconfig "github.com/m3rciful/kinobot/core/config"
	coredatabase "github.com/m3rciful/kinobot/core/database"
)

const (
	ProviderKinopoisk = "kinopoisk"
	ProviderTMDB      = "tmdb"

	DefaultDailyStatsCron = "0 9 * * *"
	DefaultSessionSweep   = "@every 10m"
)

// IsDisabled reports whether a cron spec switches its job off.
func IsDisabled(spec string) bool {
	switch strings.ToLower(strings.TrimSpace(spec)) {
	case "off", "disabled", "-":
		return true
	}
	return false
}

// RedisConfig selects the FSM session backend. An empty Addr keeps sessions in memory.
type RedisConfig struct {
	Addr       string `yaml:"addr" envconfig:"REDIS_URL"`
	Password   string `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB         int    `yaml:"db" envconfig:"REDIS_DB"`
	Prefix     string `yaml:"prefix" envconfig:"REDIS_PREFIX"`
	SessionTTL string `yaml:"session_ttl" envconfig:"REDIS_SESSION_TTL"`
}

// MoviesConfig configures the movie metadata providers.
type MoviesConfig struct {
	// Provider is the primary provider; Fallback is tried when it fails.
	Provider string `yaml:"provider" envconfig:"MOVIES_PROVIDER"`
	Fallback string `yaml:"fallback" envconfig:"MOVIES_FALLBACK"`

	KinopoiskToken   string `yaml:"kinopoisk_token" envconfig:"KNP_TOKEN"`
	KinopoiskBaseURL string `yaml:"kinopoisk_base_url" envconfig:"KNP_BASE_URL"`
	TMDBAPIKey       string `yaml:"tmdb_api_key" envconfig:"TMDB_API_KEY"`
	TMDBBaseURL      string `yaml:"tmdb_base_url" envconfig:"TMDB_BASE_URL"`
	Language         string `yaml:"language" envconfig:"MOVIES_LANGUAGE"`

	TimeoutSeconds int `yaml:"timeout_seconds" envconfig:"MOVIES_TIMEOUT_SECONDS"`
	SearchLimit    int `yaml:"search_limit" envconfig:"MOVIES_SEARCH_LIMIT"`
}

// BroadcastConfig tunes the admin mailing loop.
type BroadcastConfig struct {
	DelayMS       int `yaml:"delay_ms" envconfig:"BROADCAST_DELAY_MS"`
	ProgressEvery int `yaml:"progress_every" envconfig:"BROADCAST_PROGRESS_EVERY"`
	MaxRetries    int `yaml:"max_retries" envconfig:"BROADCAST_MAX_RETRIES"`
}

// ReportsConfig configures scheduled jobs. Cron specs use the standard five
// fields or descriptors; "off" disables a job.
type ReportsConfig struct {
	DailyStatsCron string `yaml:"daily_stats_cron" envconfig:"REPORTS_DAILY_STATS_CRON"`
	Timezone       string `yaml:"timezone" envconfig:"REPORTS_TIMEZONE"`
	SessionSweep   string `yaml:"session_sweep" envconfig:"REPORTS_SESSION_SWEEP"`
	SessionMaxIdle string `yaml:"session_max_idle" envconfig:"REPORTS_SESSION_MAX_IDLE"`
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database  coredatabase.Config `yaml:"database"`
	Redis     RedisConfig         `yaml:"redis"`
	Movies    MoviesConfig        `yaml:"movies"`
	Broadcast BroadcastConfig     `yaml:"broadcast"`
	Reports   ReportsConfig       `yaml:"reports"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// Load reads path, overlays the environment and validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates cfg and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return err
	}

	m := &cfg.Movies
	m.Provider = strings.ToLower(strings.TrimSpace(m.Provider))
	m.Fallback = strings.ToLower(strings.TrimSpace(m.Fallback))
	if m.Provider == "" {
		m.Provider = ProviderKinopoisk
	}
	for _, p := range []string{m.Provider, m.Fallback} {
		switch p {
		case "":
		case ProviderKinopoisk:
			if m.KinopoiskToken == "" {
				return fmt.Errorf("movies.kinopoisk_token is required for provider %q", p)
			}
		case ProviderTMDB:
			if m.TMDBAPIKey == "" {
				return fmt.Errorf("movies.tmdb_api_key is required for provider %q", p)
			}
		default:
			return fmt.Errorf("invalid movies provider %q; allowed: kinopoisk, tmdb", p)
		}
	}
	if m.Fallback == m.Provider {
		m.Fallback = ""
	}
	if m.Language == "" {
		m.Language = "ru-RU"
	}
	if m.TimeoutSeconds <= 0 {
		m.TimeoutSeconds = 10
	}
	if m.SearchLimit <= 0 || m.SearchLimit > 10 {
		m.SearchLimit = 5
	}

	b := &cfg.Broadcast
	if b.DelayMS <= 0 {
		b.DelayMS = 30
	}
	if b.ProgressEvery <= 0 {
		b.ProgressEvery = 50
	}
	if b.MaxRetries <= 0 {
		b.MaxRetries = 3
	}

	for name, raw := range map[string]string{
		"redis.session_ttl":        cfg.Redis.SessionTTL,
		"reports.session_max_idle": cfg.Reports.SessionMaxIdle,
	} {
		if raw == "" {
			continue
		}
		if _, err := time.ParseDuration(raw); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, raw, err)
		}
	}
	r := &cfg.Reports
	if r.DailyStatsCron == "" {
		r.DailyStatsCron = DefaultDailyStatsCron
	}
	if r.SessionSweep == "" {
		r.SessionSweep = DefaultSessionSweep
	}
	for name, spec := range map[string]string{
		"reports.daily_stats_cron": r.DailyStatsCron,
		"reports.session_sweep":    r.SessionSweep,
	} {
		if IsDisabled(spec) {
			continue
		}
		if _, err := cron.ParseStandard(spec); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, spec, err)
		}
	}
	if cfg.Reports.Timezone != "" {
		if _, err := time.LoadLocation(cfg.Reports.Timezone); err != nil {
			return fmt.Errorf("invalid reports.timezone %q: %w", cfg.Reports.Timezone, err)
		}
	}
	return nil
}

// TTL returns the Redis session TTL, 24h by default.
func (r RedisConfig) TTL() time.Duration {
	if d, err := time.ParseDuration(r.SessionTTL); err == nil && d > 0 {
		return d
	}
	return 24 * time.Hour
}

// MaxIdle returns how long an in-memory session may stay untouched, 2h by default.
func (r ReportsConfig) MaxIdle() time.Duration {
	if d, err := time.ParseDuration(r.SessionMaxIdle); err == nil && d > 0 {
		return d
	}
	return 2 * time.Hour
}

// Location returns the report timezone, UTC by default.
func (r ReportsConfig) Location() *time.Location {
	if r.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Delay returns the pause between two broadcast sends.
func (b BroadcastConfig) Delay() time.Duration {
	return time.Duration(b.DelayMS) * time.Millisecond
}
