package callbacks

import (
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// PayloadSep joins multi-part payloads such as "kinopoisk:301".
const PayloadSep = ":"

// Payload joins parts with PayloadSep.
func Payload(parts ...string) string {
	return strings.Join(parts, PayloadSep)
}

// PayloadInt64 parses callback payload as int64.
func PayloadInt64(c tele.Context) (int64, error) {
	return strconv.ParseInt(CallbackPayload(c), 10, 64)
}

// PayloadParts splits the callback payload into exactly n parts.
func PayloadParts(c tele.Context, n int) ([]string, error) {
	p := CallbackPayload(c)
	if p == "" {
		return nil, strconv.ErrSyntax
	}
	parts := strings.SplitN(p, PayloadSep, n)
	if len(parts) != n {
		return nil, strconv.ErrSyntax
	}
	return parts, nil
}
