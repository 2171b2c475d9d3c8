package sender

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/kinobot/core/netutil"

	tele "gopkg.in/telebot.v4"
)

var tokenRe = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)

// RetryAfter extracts the wait Telegram requested in a 429 response.
func RetryAfter(err error) (time.Duration, bool) {
	var flood tele.FloodError
	if errors.As(err, &flood) {
		return time.Duration(flood.RetryAfter) * time.Second, true
	}
	return 0, false
}

// HTTPStatus returns the Bot API status code carried by err, or 0.
func HTTPStatus(err error) int {
	var apiErr *tele.Error
	var flood tele.FloodError
	var group tele.GroupError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &flood):
		return http.StatusTooManyRequests
	case errors.As(err, &apiErr) && apiErr != nil:
		return apiErr.Code
	case errors.As(err, &group):
		return http.StatusBadRequest
	}
	// telebot formats unknown API errors as "telegram: <description> (<code>)".
	msg := err.Error()
	open, end := strings.LastIndexByte(msg, '('), strings.LastIndexByte(msg, ')')
	if open < 0 || end <= open+1 {
		return 0
	}
	code, convErr := strconv.Atoi(strings.TrimSpace(msg[open+1 : end]))
	if convErr != nil {
		return 0
	}
	return code
}

// errorKind labels a failed send for logs.
func errorKind(err error) string {
	if _, ok := RetryAfter(err); ok {
		return "flood"
	}
	if kind := netutil.Classify(err); kind != netutil.KindUnknown {
		return kind
	}
	switch code := HTTPStatus(err); {
	case code >= 500:
		return "http_5xx"
	case code >= 400:
		return "http_4xx"
	}
	return netutil.KindUnknown
}

// retryable reports whether a failed call may succeed when repeated.
func retryable(err error) bool {
	if _, ok := RetryAfter(err); ok {
		return true
	}
	return netutil.ShouldRetry(err) || HTTPStatus(err) >= 500
}

// redact hides bot tokens that net/http embeds in request URLs.
func redact(err error) string {
	if err == nil {
		return ""
	}
	return tokenRe.ReplaceAllString(err.Error(), "bot<redacted>")
}
