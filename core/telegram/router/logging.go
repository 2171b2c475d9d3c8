// Package router turns the registry into telebot routes. Every routed
// update ends with one handler.handled log line.
package router

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/m3rciful/kinobot/core/logger"
	tghelpers "github.com/m3rciful/kinobot/core/telegram/helpers"
	"github.com/m3rciful/kinobot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// entry wraps a route handler with the per-update logging context and a
// panic guard.
func entry(h tele.HandlerFunc) tele.HandlerFunc {
	return middleware.RecoverMiddleware(middleware.LoggerMiddleware(h))
}

// dispatch runs h under name and logs the summary. A nil h is logged as
// skipped.
func dispatch(c tele.Context, name string, h tele.HandlerFunc, extras ...slog.Attr) error {
	start := time.Now()
	ctx := tghelpers.WithHandler(c, name)
	status := "skip"
	var err error
	if h != nil {
		if err = h(c); err != nil {
			status = "fail"
		} else {
			status = "ok"
		}
	}

	msgs, kb := middleware.GetCounters(c)
	attrs := append([]slog.Attr{
		slog.String("status", status),
		slog.String("outcome", outcome(status)),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Duration("duration", logger.Took(start)),
	}, extras...)
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", errorCode(err)),
		)
	}
	logger.LogEvent(ctx, logger.Component("tg"), slog.LevelInfo, "handler.handled", attrs...)
	return err
}

func outcome(status string) string {
	if status == "fail" {
		return "fail"
	}
	return "ok"
}

// handlerName turns a command, alias or callback key into a log friendly
// identifier.
func handlerName(s string) string {
	s = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "/"))
	if s == "" {
		return "unknown"
	}
	return strings.Join(strings.Fields(s), "_")
}

// errorCode is the error's Code() when it has one, otherwise the name of
// its innermost concrete type.
func errorCode(err error) string {
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		if code := strings.TrimSpace(coded.Code()); code != "" {
			return strings.ToUpper(strings.ReplaceAll(code, " ", "_"))
		}
	}
	for {
		next := errors.Unwrap(err)
		if next == nil {
			break
		}
		err = next
	}
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Name() == "" {
		return "UNKNOWN_ERROR"
	}
	return strings.ToUpper(t.Name())
}
