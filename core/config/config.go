// Package config holds the configuration shared by every bot built on the
// core: Telegram credentials and run mode, webhook listener, logging and
// rate limiting.
package config

import "slices"

// Telegram run modes.
const (
	RunModeWebhook  = "webhook"
	RunModeLongpoll = "longpoll"
)

// Update kinds accepted by RateLimitConfig.ExcludeUpdates.
const (
	UpdateCallback    = "callback"
	UpdateMessage     = "message"
	UpdateInlineQuery = "inline_query"
)

// TelegramConfig describes the bot account and how updates are received.
type TelegramConfig struct {
	Token    string  `yaml:"token" envconfig:"BOT_TOKEN"`
	AdminIDs []int64 `yaml:"admin_ids" envconfig:"TELEGRAM_ADMIN_IDS"`
	// RunMode is "longpoll" (default, "polling" is accepted) or "webhook".
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// Zero keeps the library default.
	LongPollTimeoutSeconds int  `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
	DropPendingUpdates     bool `yaml:"drop_pending_updates" envconfig:"TELEGRAM_DROP_PENDING_UPDATES"`
}

// IsAdmin reports whether userID is listed in AdminIDs.
func (t TelegramConfig) IsAdmin(userID int64) bool {
	return slices.Contains(t.AdminIDs, userID)
}

// WebhookConfig is only read in webhook mode.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig feeds logger.InitLogger. Empty fields fall back to the
// LOG_* environment variables and then to defaults picked by Profile.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Stacks      string `yaml:"stacks"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	ErrorsFile  string `yaml:"errors_file"`
	Profile     string `yaml:"profile"`
}

// RateLimitConfig throttles each user to one update per IntervalMS.
// Update kinds listed in ExcludeUpdates are never throttled.
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// Config is the core section of an application config. Applications embed
// it inline and call Decode and Normalize on their own type.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}
