package format

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

const (
	// MarkdownV1 denotes Telegram markdown version 1.
	MarkdownV1 = 1
	// MarkdownV2 denotes Telegram markdown version 2.
	MarkdownV2 = 2
)

const mdV2Specials = "_*[]()~`>#+-=|{}.!\\"

var (
	mdV1Re = regexp.MustCompile("([_*`\\[])")
	mdV2Re = regexp.MustCompile("(" + charClass(mdV2Specials) + ")")
)

// charClass escapes every rune so that '-' and ']' never act as class syntax.
func charClass(chars string) string {
	var b strings.Builder
	b.WriteByte('[')
	for _, r := range chars {
		b.WriteByte('\\')
		b.WriteRune(r)
	}
	b.WriteByte(']')
	return b.String()
}

// EscapeMarkdown escapes special characters for MarkdownV1 or V2.
func EscapeMarkdown(text string, version int) (string, error) {
	switch version {
	case MarkdownV1:
		return mdV1Re.ReplaceAllString(text, `\$1`), nil
	case MarkdownV2:
		return mdV2Re.ReplaceAllString(text, `\$1`), nil
	}
	return "", fmt.Errorf("unsupported markdown version: %d", version)
}

// EscapeHTML escapes text for Telegram HTML parse mode.
func EscapeHTML(text string) string {
	return html.EscapeString(text)
}

// Truncate shortens text to max runes, appending an ellipsis when cut.
func Truncate(text string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(strings.TrimSpace(text))
	if len(r) <= max {
		return string(r)
	}
	if max == 1 {
		return "…"
	}
	return string(r[:max-1]) + "…"
}
