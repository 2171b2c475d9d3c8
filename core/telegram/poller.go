package telegram

import (
	"log/slog"
	"net"
	"strconv"
	"time"

	coreconfig "github.com/m3rciful/kinobot/core/config"

	tele "gopkg.in/telebot.v4"
)

const defaultLongPollTimeout = 10 * time.Second

// newPoller picks the update source for the configured run mode and
// returns attributes describing it for the startup log.
func newPoller(cfg *coreconfig.Config) (tele.Poller, []slog.Attr) {
	if cfg.Telegram.RunMode == coreconfig.RunModeWebhook {
		listen := net.JoinHostPort(cfg.Webhook.Listen, strconv.Itoa(cfg.Webhook.Port))
		return &tele.Webhook{
				Listen:   listen,
				Endpoint: &tele.WebhookEndpoint{PublicURL: cfg.Webhook.URL},
			}, []slog.Attr{
				slog.String("mode", coreconfig.RunModeWebhook),
				slog.String("listen", listen),
				slog.String("public_url", cfg.Webhook.URL),
			}
	}
	timeout := defaultLongPollTimeout
	if s := cfg.Telegram.LongPollTimeoutSeconds; s > 0 {
		timeout = time.Duration(s) * time.Second
	}
	return &tele.LongPoller{Timeout: timeout}, []slog.Attr{
		slog.String("mode", coreconfig.RunModeLongpoll),
		slog.Duration("poll_timeout", timeout),
	}
}
