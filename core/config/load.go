package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Load decodes and normalizes a core-only configuration.
func Load(path string) (*Config, error) {
	cfg := new(Config)
	if err := Decode(path, cfg); err != nil {
		return nil, err
	}
	if err := Normalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode reads the YAML file at path into dst and then applies envconfig
// overrides, so environment variables win over the file.
func Decode(path string, dst any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := envconfig.Process("", dst); err != nil {
		return fmt.Errorf("config env overrides: %w", err)
	}
	return nil
}

// Normalize validates cfg in place, canonicalizing the run mode and the
// rate limit exclusions.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	for _, check := range []func(*Config) error{
		checkTelegram,
		checkRunMode,
		checkRateLimit,
	} {
		if err := check(cfg); err != nil {
			return err
		}
	}
	return nil
}

func checkTelegram(cfg *Config) error {
	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		return errors.New("telegram.token is required")
	}
	for _, id := range cfg.Telegram.AdminIDs {
		if id <= 0 {
			return fmt.Errorf("telegram.admin_ids: %d is not a user id", id)
		}
	}
	return nil
}

func checkRunMode(cfg *Config) error {
	mode := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	switch mode {
	case "", "polling", RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return errors.New("telegram.longpoll_timeout_seconds must not be negative")
		}
		cfg.Telegram.RunMode = RunModeLongpoll
	case RunModeWebhook:
		wh := cfg.Webhook
		var missing []string
		if strings.TrimSpace(wh.URL) == "" {
			missing = append(missing, "webhook.url")
		}
		if strings.TrimSpace(wh.Listen) == "" {
			missing = append(missing, "webhook.listen")
		}
		if wh.Port <= 0 {
			missing = append(missing, "webhook.port")
		}
		if len(missing) > 0 {
			return fmt.Errorf("webhook mode needs %s", strings.Join(missing, ", "))
		}
		cfg.Telegram.RunMode = RunModeWebhook
	default:
		return fmt.Errorf("telegram.run_mode %q is not one of %s, %s",
			cfg.Telegram.RunMode, RunModeLongpoll, RunModeWebhook)
	}
	return nil
}

func checkRateLimit(cfg *Config) error {
	if cfg.RateLimit.IntervalMS < 0 {
		return errors.New("rate_limit.interval_ms must not be negative")
	}
	kept := cfg.RateLimit.ExcludeUpdates[:0]
	for _, v := range cfg.RateLimit.ExcludeUpdates {
		kind := strings.ToLower(strings.TrimSpace(v))
		switch kind {
		case "":
			continue
		case UpdateCallback, UpdateMessage, UpdateInlineQuery:
			kept = append(kept, kind)
		default:
			return fmt.Errorf("rate_limit.exclude_updates: unknown update kind %q", v)
		}
	}
	cfg.RateLimit.ExcludeUpdates = kept
	return nil
}
