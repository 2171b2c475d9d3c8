package format

import (
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"

	tele "gopkg.in/telebot.v4"
)

// EntitiesHTML renders a message text with its formatting entities as
// Telegram HTML. Offsets are in UTF-16 code units. Entity kinds without an
// HTML form (mentions, hashtags, plain links) stay as escaped text.
func EntitiesHTML(text string, entities []tele.MessageEntity) string {
	units := utf16.Encode([]rune(text))

	type span struct {
		start, end int
		open, stop string
	}
	spans := make([]span, 0, len(entities))
	for _, e := range entities {
		open, stop := entityTags(e)
		if open == "" {
			continue
		}
		start := min(max(e.Offset, 0), len(units))
		end := min(start+max(e.Length, 0), len(units))
		if end > start {
			spans = append(spans, span{start: start, end: end, open: open, stop: stop})
		}
	}
	// Outer entities first when two start together.
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].end > spans[j].end
	})

	var (
		b     strings.Builder
		stack []span
		next  int
	)
	closeUntil := func(pos int) {
		for len(stack) > 0 && stack[len(stack)-1].end <= pos {
			b.WriteString(stack[len(stack)-1].stop)
			stack = stack[:len(stack)-1]
		}
	}
	flush := func(from, to int) {
		if to > from {
			b.WriteString(EscapeHTML(string(utf16.Decode(units[from:to]))))
		}
	}

	pos := 0
	for pos < len(units) || len(stack) > 0 {
		// Next boundary: an entity start or the innermost entity end.
		bound := len(units)
		if next < len(spans) {
			bound = min(bound, spans[next].start)
		}
		if len(stack) > 0 {
			bound = min(bound, stack[len(stack)-1].end)
		}
		flush(pos, bound)
		pos = bound
		closeUntil(pos)
		for next < len(spans) && spans[next].start == pos {
			s := spans[next]
			if len(stack) > 0 {
				// Telegram nests entities; clamp overlaps to the parent.
				s.end = min(s.end, stack[len(stack)-1].end)
			}
			b.WriteString(s.open)
			stack = append(stack, s)
			next++
		}
		if pos >= len(units) && next >= len(spans) {
			closeUntil(len(units))
			break
		}
	}
	return b.String()
}

func entityTags(e tele.MessageEntity) (string, string) {
	switch string(e.Type) {
	case "bold":
		return "<b>", "</b>"
	case "italic":
		return "<i>", "</i>"
	case "underline":
		return "<u>", "</u>"
	case "strikethrough":
		return "<s>", "</s>"
	case "spoiler":
		return "<tg-spoiler>", "</tg-spoiler>"
	case "code":
		return "<code>", "</code>"
	case "pre":
		if e.Language != "" {
			return `<pre><code class="language-` + EscapeHTML(e.Language) + `">`, "</code></pre>"
		}
		return "<pre>", "</pre>"
	case "blockquote":
		return "<blockquote>", "</blockquote>"
	case "expandable_blockquote":
		return "<blockquote expandable>", "</blockquote>"
	case "text_link":
		return `<a href="` + EscapeHTML(e.URL) + `">`, "</a>"
	case "text_mention":
		if e.User != nil {
			return `<a href="tg://user?id=` + strconv.FormatInt(e.User.ID, 10) + `">`, "</a>"
		}
	}
	return "", ""
}
